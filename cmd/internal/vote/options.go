package vote

import (
	"github.com/MH469Arya/ProfRankSystem/cmd/internal/ids"
	"github.com/MH469Arya/ProfRankSystem/cmd/security/token"
)

type options struct {
	hasher  token.Hasher
	metrics *Metrics
	ids     *ids.Generator
}

// Option configures an Issuer, Collector or Aggregator.
type Option func(*options) error

// WithHasher sets how tokens are digested before storage. Defaults to SHA-256.
func WithHasher(h token.Hasher) Option {
	return func(o *options) error {
		o.hasher = h
		return nil
	}
}

// WithMetrics records counters on m. A nil m disables metrics.
func WithMetrics(m *Metrics) Option {
	return func(o *options) error {
		o.metrics = m
		return nil
	}
}

// WithIDGenerator overrides the ULID source.
func WithIDGenerator(g *ids.Generator) Option {
	return func(o *options) error {
		if g == nil {
			return ErrInvalidInput
		}
		o.ids = g
		return nil
	}
}

func buildOptions(opts []Option) (options, error) {
	o := options{ids: ids.NewGenerator()}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return options{}, err
		}
	}
	return o, nil
}
