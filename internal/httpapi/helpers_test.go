package httpapi

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xrayd/internal/classifier"
	"xrayd/internal/engine"
)

// stallClassifier blocks until release is closed.
type stallClassifier struct{ release chan struct{} }

func (s *stallClassifier) Classify(ctx context.Context, img image.Image) (classifier.Prediction, error) {
	select {
	case <-s.release:
	case <-ctx.Done():
		return classifier.Prediction{}, ctx.Err()
	}
	return classifier.Prediction{Label: "Normal", Probabilities: []float32{1, 0, 0}}, nil
}
func (s *stallClassifier) Classes() []classifier.Class { return classifier.DefaultClasses }
func (s *stallClassifier) Dim() int                    { return 1 }

func tinyPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 4, 4))); err != nil {
		t.Fatalf("png: %v", err)
	}
	return buf.Bytes()
}

// engineBusyError saturates a one-slot engine and returns the rejection the
// second request receives.
func engineBusyError(t *testing.T) error {
	t.Helper()
	clf := &stallClassifier{release: make(chan struct{})}
	e := engine.NewWithConfig(engine.Config{Classifier: clf, MaxQueueDepth: 1, MaxWait: 20 * time.Millisecond, Logger: zerolog.Nop()})
	data := tinyPNG(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = e.Analyze(context.Background(), bytes.NewReader(data))
	}()
	deadline := time.Now().Add(time.Second)
	for e.Status().Inflight == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first request never started")
		}
		time.Sleep(time.Millisecond)
	}
	_, err := e.Analyze(context.Background(), bytes.NewReader(data))
	close(clf.release)
	<-done
	if !engine.IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
	return err
}
