// Package verify binds verifiable periods to a finalized external ledger
// reference and re-derives their outcomes from the stored hash.
package verify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/fastprodman/drawengine/internal/config"
)

var (
	ErrBadReference  = errors.New("malformed ledger reference")
	ErrBlockNotFound = errors.New("block not found")
)

// Reference is a finalized block of the external ledger.
type Reference struct {
	Hash      string
	Height    int64
	Timestamp time.Time
}

type ChainReader interface {
	// LatestFinalized returns the newest block the ledger considers final.
	LatestFinalized(ctx context.Context) (Reference, error)
	BlockByHash(ctx context.Context, hash string) (Reference, error)
}

// TronReader reads the solidity (confirmed) view of a TRON full node.
type TronReader struct {
	baseURL string
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

func NewTronReader(cfg config.ChainConfig) *TronReader {
	return &TronReader{
		baseURL: strings.TrimRight(cfg.APIURL, "/"),
		apiKey:  cfg.APIKey,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
	}
}

func (r *TronReader) LatestFinalized(ctx context.Context) (Reference, error) {
	body, err := r.post(ctx, "/walletsolidity/getnowblock", nil)
	if err != nil {
		return Reference{}, err
	}

	return parseBlock(body)
}

func (r *TronReader) BlockByHash(ctx context.Context, hash string) (Reference, error) {
	payload := []byte(`{"value":` + strconv.Quote(hash) + `}`)

	body, err := r.post(ctx, "/walletsolidity/getblockbyid", payload)
	if err != nil {
		return Reference{}, err
	}

	if !gjson.GetBytes(body, "blockID").Exists() {
		return Reference{}, fmt.Errorf("%w: %s", ErrBlockNotFound, hash)
	}

	return parseBlock(body)
}

func (r *TronReader) post(ctx context.Context, path string, payload []byte) ([]byte, error) {
	err := r.limiter.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("wait rate limiter: %w", err)
	}

	if payload == nil {
		payload = []byte(`{}`)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	if r.apiKey != "" {
		req.Header.Set("TRON-PRO-API-KEY", r.apiKey)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("call %s: unexpected status %d", path, resp.StatusCode)
	}

	return body, nil
}

// parseBlock reads blockID and block_header.raw_data.{number,timestamp}. The
// timestamp is in milliseconds.
func parseBlock(body []byte) (Reference, error) {
	if !gjson.ValidBytes(body) {
		return Reference{}, fmt.Errorf("%w: invalid json", ErrBadReference)
	}

	res := gjson.ParseBytes(body)
	hash := res.Get("blockID").String()
	number := res.Get("block_header.raw_data.number")
	ts := res.Get("block_header.raw_data.timestamp")

	if hash == "" || !number.Exists() || !ts.Exists() {
		return Reference{}, fmt.Errorf("%w: missing block fields", ErrBadReference)
	}

	return Reference{
		Hash:      hash,
		Height:    number.Int(),
		Timestamp: time.UnixMilli(ts.Int()).UTC(),
	}, nil
}

// Link renders a human followable verification link. {number} and {hash} in
// the template are replaced.
func Link(template string, ref Reference) string {
	return strings.NewReplacer(
		"{number}", strconv.FormatInt(ref.Height, 10),
		"{hash}", ref.Hash,
	).Replace(template)
}
