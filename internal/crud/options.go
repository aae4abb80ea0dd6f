package crud

import (
	"time"

	"github.com/rs/zerolog"
)

type settings struct {
	log     zerolog.Logger
	now     func() time.Time
	ordered bool
}

// Option configures a Controller.
type Option func(*settings)

// WithLogger attaches a logger; the default discards everything.
func WithLogger(l zerolog.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithClock replaces the clock used for the cache-busting token.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithResponseOrdering makes the controller drop a list or get response
// that completes after a newer response of the same kind was applied.
// Without it the last completion wins.
func WithResponseOrdering() Option {
	return func(s *settings) { s.ordered = true }
}
