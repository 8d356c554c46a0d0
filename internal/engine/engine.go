package engine

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"xrayd/internal/classifier"
	"xrayd/pkg/types"
)

// Classifier is the subset of *classifier.Classifier the engine needs.
type Classifier interface {
	Classify(ctx context.Context, img image.Image) (classifier.Prediction, error)
	Classes() []classifier.Class
	Dim() int
}

// Engine serves classifications from a classifier built at startup. All
// model state is read-only; the mutex only guards counters and lifecycle.
type Engine struct {
	mu      sync.RWMutex
	state   State
	err     string
	clf     Classifier
	classes []classifier.Class
	log     zerolog.Logger
	onClose func() error

	device     string
	headLoaded bool

	// admission
	genCh   chan struct{} // size 1: single in-flight inference
	queueCh chan struct{} // buffered: queue slots
	maxWait time.Duration

	requests    uint64
	predictions map[string]uint64
	startTime   time.Time
}

// NewWithConfig constructs an Engine. It is ready immediately when a
// classifier is supplied.
func NewWithConfig(cfg Config) *Engine {
	e := &Engine{
		state:       StateLoading,
		log:         cfg.Logger,
		onClose:     cfg.OnClose,
		device:      cfg.Device,
		headLoaded:  cfg.HeadLoaded,
		predictions: make(map[string]uint64),
		startTime:   time.Now(),
	}
	depth := cfg.MaxQueueDepth
	if depth <= 0 {
		depth = defaultMaxQueueDepth
	}
	e.maxWait = cfg.MaxWait
	if e.maxWait <= 0 {
		e.maxWait = defaultMaxWait
	}
	e.genCh = make(chan struct{}, 1)
	e.queueCh = make(chan struct{}, depth)
	if cfg.Classifier != nil {
		e.clf = cfg.Classifier
		e.classes = cfg.Classifier.Classes()
		e.state = StateReady
		for _, c := range e.classes {
			e.predictions[c.Label] = 0
		}
	}
	return e
}

// Ready reports whether Analyze can be served.
func (e *Engine) Ready() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state == StateReady
}

// Classes lists the class table in index order.
func (e *Engine) Classes() []types.ClassInfo {
	out := make([]types.ClassInfo, 0, len(e.classes))
	for _, c := range e.classes {
		out = append(out, types.ClassInfo{Index: c.Index, Label: c.Label, Prompt: c.Prompt})
	}
	return out
}

// Close marks the engine closed and releases model resources. Safe to call
// more than once.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.state == StateClosed {
		e.mu.Unlock()
		return nil
	}
	e.state = StateClosed
	onClose := e.onClose
	e.mu.Unlock()
	if onClose != nil {
		return onClose()
	}
	return nil
}
