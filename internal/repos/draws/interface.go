package draws

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/fastprodman/drawengine/internal/draw"
	"github.com/fastprodman/drawengine/internal/game"
)

var (
	ErrRecordNotFound   = errors.New("settlement record not found")
	ErrRecordExists     = errors.New("settlement record already exists")
	ErrProofNotFound    = errors.New("draw proof not found")
	ErrOverrideNotFound = errors.New("override not found")
	ErrOverrideExists   = errors.New("override already exists")
)

type Draws interface {
	InsertRecord(tx *sql.Tx, r draw.Record) error
	// GetRecord returns the record of a period with its proof, if any.
	GetRecord(ctx context.Context, periodID string) (draw.Record, error)
	LastRecord(ctx context.Context, g game.Type, d time.Duration) (draw.Record, error)
	// History lists records of a lane newest first. An empty before starts at
	// the latest period; otherwise only periods older than before are listed.
	History(ctx context.Context, g game.Type, d time.Duration, before string, limit int) ([]draw.Record, error)

	// InsertProof stores p unless the period already has one and returns the
	// stored proof, so the first writer wins.
	InsertProof(ctx context.Context, p draw.Proof) (draw.Proof, error)
	GetProof(ctx context.Context, periodID string) (draw.Proof, error)
	ListProofsMissingHeight(ctx context.Context, limit int) ([]draw.Proof, error)
	SetProofHeight(ctx context.Context, periodID string, height int64) error

	InsertOverride(tx *sql.Tx, o draw.Override) error
	GetOverride(tx *sql.Tx, periodID string) (draw.Override, error)
}
