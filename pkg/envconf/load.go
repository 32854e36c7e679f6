// Package envconf fills tagged config structs from environment variables.
//
// Fields use `env:"NAME"` tags, optionally with `envDefault:"value"` and the
// `required` option. Nested structs are walked without a tag. Any type
// implementing encoding.TextUnmarshaler (slog.Level, decimal.Decimal...) is
// supported, as are time.Duration and the basic kinds.
package envconf

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

var ErrMissingRequired = errors.New("missing required environment variable")

func Load(dst any) error {
	if dst == nil {
		return errors.New("destination is nil")
	}

	err := env.Parse(dst)
	if err != nil {
		if errors.Is(err, env.EnvVarIsNotSetError{}) || errors.Is(err, env.EmptyEnvVarError{}) {
			return fmt.Errorf("%w: %w", ErrMissingRequired, err)
		}

		return fmt.Errorf("parse env: %w", err)
	}

	return nil
}
