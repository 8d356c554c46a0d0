package engine

import (
	"time"

	"github.com/rs/zerolog"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// Config encapsulates all tunables for Engine construction.
type Config struct {
	// Classifier is required for the engine to become ready.
	Classifier Classifier
	// Device and HeadLoaded are reported by Status.
	Device     string
	HeadLoaded bool

	MaxQueueDepth int
	MaxWait       time.Duration
	Logger        zerolog.Logger
	// OnClose releases model resources (encoder session, runtime).
	OnClose func() error
}
