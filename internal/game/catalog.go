package game

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

var ErrInvalidCatalog = errors.New("invalid game catalog")

// Policy decides how a game's outcome is chosen.
type Policy string

const (
	// PolicyHouse picks the outcome with the lowest exposure.
	PolicyHouse Policy = "house"
	// PolicyVerifiable derives the outcome from an external reference hash.
	PolicyVerifiable Policy = "verifiable"
)

type catalogFile struct {
	Games []gameConfig `yaml:"games"`
}

type gameConfig struct {
	Game      Type                `yaml:"game"`
	Durations []int               `yaml:"durations"`
	Policy    Policy              `yaml:"policy"`
	TaxRate   string              `yaml:"tax_rate"`
	MinStake  int64               `yaml:"min_stake"`
	MaxStake  int64               `yaml:"max_stake"`
	Odds      map[Kind]oddsConfig `yaml:"odds"`
}

type oddsConfig struct {
	Default string            `yaml:"default"`
	Values  map[string]string `yaml:"values"`
}

type kindOdds struct {
	def    decimal.Decimal
	values map[string]decimal.Decimal
}

// Rules is the compiled configuration of one game.
type Rules struct {
	Variant   Variant
	Durations []time.Duration
	Policy    Policy
	TaxRate   decimal.Decimal
	MinStake  int64
	MaxStake  int64

	odds map[Kind]kindOdds
}

// Catalog holds the rules of every configured game.
type Catalog struct {
	rules map[Type]*Rules
	order []Type
}

// LoadCatalog reads a YAML catalog from path, or the embedded default when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	if path == "" {
		return ParseCatalog(defaultCatalog)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	return ParseCatalog(data)
}

func DefaultCatalog() *Catalog {
	c, err := ParseCatalog(defaultCatalog)
	if err != nil {
		panic(fmt.Sprintf("embedded catalog: %v", err))
	}

	return c
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile

	err := yaml.Unmarshal(data, &f)
	if err != nil {
		return nil, fmt.Errorf("%w: decode yaml: %w", ErrInvalidCatalog, err)
	}

	if len(f.Games) == 0 {
		return nil, fmt.Errorf("%w: no games", ErrInvalidCatalog)
	}

	c := &Catalog{rules: make(map[Type]*Rules, len(f.Games))}

	for _, gc := range f.Games {
		r, err := compile(gc)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidCatalog, gc.Game, err)
		}

		if _, dup := c.rules[gc.Game]; dup {
			return nil, fmt.Errorf("%w: %s listed twice", ErrInvalidCatalog, gc.Game)
		}

		c.rules[gc.Game] = r
		c.order = append(c.order, gc.Game)
	}

	return c, nil
}

//nolint:cyclop
func compile(gc gameConfig) (*Rules, error) {
	v, err := Lookup(gc.Game)
	if err != nil {
		return nil, err
	}

	r := &Rules{
		Variant:  v,
		Policy:   gc.Policy,
		MinStake: gc.MinStake,
		MaxStake: gc.MaxStake,
		odds:     make(map[Kind]kindOdds, len(gc.Odds)),
	}

	switch gc.Policy {
	case PolicyHouse:
		if v.Verifiable() {
			return nil, errors.New("hash-bound variant cannot use house policy")
		}
	case PolicyVerifiable:
		if _, ok := v.(Deriver); !ok {
			return nil, errors.New("variant cannot derive outcomes from a hash")
		}
	default:
		return nil, fmt.Errorf("unknown policy %q", gc.Policy)
	}

	if len(gc.Durations) == 0 {
		return nil, errors.New("no durations")
	}

	for _, secs := range gc.Durations {
		if secs <= 0 || 86400%secs != 0 {
			return nil, fmt.Errorf("duration %ds does not divide a day", secs)
		}

		r.Durations = append(r.Durations, time.Duration(secs)*time.Second)
	}

	if gc.MinStake <= 0 || gc.MaxStake < gc.MinStake {
		return nil, fmt.Errorf("bad stake bounds [%d, %d]", gc.MinStake, gc.MaxStake)
	}

	r.TaxRate, err = decimal.NewFromString(gc.TaxRate)
	if err != nil {
		return nil, fmt.Errorf("tax rate: %w", err)
	}

	if r.TaxRate.IsNegative() || r.TaxRate.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, fmt.Errorf("tax rate %s out of [0, 1)", r.TaxRate)
	}

	// rounding is half away from zero, so a tiny minimum stake can be all tax
	minTax := decimal.NewFromInt(gc.MinStake).Mul(r.TaxRate).Round(0).IntPart()
	if minTax >= gc.MinStake {
		return nil, fmt.Errorf("min stake %d leaves nothing after tax %s", gc.MinStake, r.TaxRate)
	}

	for kind, oc := range gc.Odds {
		ko, err := compileOdds(oc)
		if err != nil {
			return nil, fmt.Errorf("odds %s: %w", kind, err)
		}

		r.odds[kind] = ko
	}

	return r, nil
}

func compileOdds(oc oddsConfig) (kindOdds, error) {
	ko := kindOdds{values: make(map[string]decimal.Decimal, len(oc.Values))}

	var err error

	ko.def, err = decimal.NewFromString(oc.Default)
	if err != nil {
		return kindOdds{}, fmt.Errorf("default: %w", err)
	}

	for val, raw := range oc.Values {
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return kindOdds{}, fmt.Errorf("value %s: %w", val, err)
		}

		ko.values[val] = d
	}

	for _, d := range append([]decimal.Decimal{ko.def}, mapValues(ko.values)...) {
		if d.LessThanOrEqual(decimal.NewFromInt(1)) {
			return kindOdds{}, fmt.Errorf("odds %s must exceed 1", d)
		}
	}

	return ko, nil
}

func mapValues(m map[string]decimal.Decimal) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}

	return out
}

// Rules returns the rules of a configured game.
func (c *Catalog) Rules(t Type) (*Rules, error) {
	r, ok := c.rules[t]
	if !ok {
		return nil, fmt.Errorf("%w: %q not configured", ErrUnknownGame, t)
	}

	return r, nil
}

// Games returns configured games in catalog order.
func (c *Catalog) Games() []*Rules {
	out := make([]*Rules, 0, len(c.order))
	for _, t := range c.order {
		out = append(out, c.rules[t])
	}

	return out
}

func (r *Rules) Type() Type {
	return r.Variant.Type()
}

func (r *Rules) HasDuration(d time.Duration) bool {
	for _, have := range r.Durations {
		if have == d {
			return true
		}
	}

	return false
}

// OddsFor resolves the odds of c: an exact value override wins over the kind
// default, and positional kinds fall back to their base kind.
func (r *Rules) OddsFor(c Category) (decimal.Decimal, error) {
	for _, kind := range []Kind{c.Kind, c.Kind.Base()} {
		ko, ok := r.odds[kind]
		if !ok {
			continue
		}

		if d, ok := ko.values[c.Value]; ok {
			return d, nil
		}

		return ko.def, nil
	}

	return decimal.Decimal{}, fmt.Errorf("%w: no odds for %s", ErrInvalidCategory, c)
}

// Validate checks that c belongs to the game and is priced.
func (r *Rules) Validate(c Category) error {
	if !IsCategory(r.Variant, c) {
		return fmt.Errorf("%w: %s is not a %s category", ErrInvalidCategory, c, r.Type())
	}

	_, err := r.OddsFor(c)

	return err
}
