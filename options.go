package dhuff

import (
	"time"

	"github.com/datatrails/go-datatrails-common/logger"
	"github.com/google/uuid"
)

type StreamOptions struct {
	Name    string
	ID      uuid.UUID
	Created time.Time
	Log     logger.Logger
}

// Option is a generic option type used by the stream constructors. Options
// that do not apply to the target record are ignored.
type Option func(any)

// WithName records the name of the original file in the header.
func WithName(name string) Option {
	return func(opts any) {
		if o, ok := opts.(*StreamOptions); ok {
			o.Name = name
		}
	}
}

// WithID sets the stream id, a random one is generated otherwise.
func WithID(id uuid.UUID) Option {
	return func(opts any) {
		if o, ok := opts.(*StreamOptions); ok {
			o.ID = id
		}
	}
}

func WithCreated(t time.Time) Option {
	return func(opts any) {
		if o, ok := opts.(*StreamOptions); ok {
			o.Created = t
		}
	}
}

func WithLogger(log logger.Logger) Option {
	return func(opts any) {
		if o, ok := opts.(*StreamOptions); ok {
			o.Log = log
		}
	}
}

func newStreamOptions(opts []Option) StreamOptions {
	o := StreamOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return o
}
