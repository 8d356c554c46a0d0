package engine

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xrayd/internal/classifier"
)

// fakeClassifier returns a fixed prediction, or err when set.
type fakeClassifier struct {
	label string
	err   error
	block chan struct{}
}

func (f *fakeClassifier) Classify(ctx context.Context, img image.Image) (classifier.Prediction, error) {
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return classifier.Prediction{}, ctx.Err()
		}
	}
	if f.err != nil {
		return classifier.Prediction{}, f.err
	}
	idx := 0
	for _, c := range classifier.DefaultClasses {
		if c.Label == f.label {
			idx = c.Index
		}
	}
	probs := []float32{0.1, 0.1, 0.1}
	probs[idx] = 0.8
	return classifier.Prediction{Index: idx, Label: f.label, Probabilities: probs, Report: "report for " + f.label}, nil
}

func (f *fakeClassifier) Classes() []classifier.Class { return classifier.DefaultClasses }
func (f *fakeClassifier) Dim() int                    { return 4 }

var errBoom = errors.New("boom")

func newTestEngine(t *testing.T, clf Classifier, depth int, wait time.Duration) *Engine {
	t.Helper()
	e := NewWithConfig(Config{
		Classifier:    clf,
		Device:        "cpu",
		MaxQueueDepth: depth,
		MaxWait:       wait,
		Logger:        zerolog.Nop(),
	})
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for i := range img.Pix {
		img.Pix[i] = uint8(i)
	}
	img.SetGray(0, 0, color.Gray{Y: 255})
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
