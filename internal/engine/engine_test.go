package engine

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xrayd/internal/classifier"
)

func TestNewWithConfig_ReadyWithClassifier(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{label: "Normal"}, 0, 0)
	if !e.Ready() {
		t.Fatalf("expected ready engine")
	}
	if cap(e.queueCh) != defaultMaxQueueDepth || e.maxWait != defaultMaxWait {
		t.Fatalf("defaults not applied: depth=%d wait=%v", cap(e.queueCh), e.maxWait)
	}
	classes := e.Classes()
	if len(classes) != 3 || classes[2].Label != "COVID-19" || classes[1].Index != 1 {
		t.Fatalf("classes=%+v", classes)
	}
}

func TestAnalyze_NotReadyWithoutClassifier(t *testing.T) {
	e := NewWithConfig(Config{Logger: zerolog.Nop()})
	if e.Ready() {
		t.Fatalf("engine without classifier must not be ready")
	}
	_, err := e.Analyze(context.Background(), bytes.NewReader(pngBytes(t)))
	if !IsNotReady(err) {
		t.Fatalf("expected not ready, got %v", err)
	}
	if len(e.Classes()) != 0 {
		t.Fatalf("expected no classes")
	}
}

func TestAnalyze_Success(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{label: "Pneumonia"}, 2, time.Second)
	resp, err := e.Analyze(context.Background(), bytes.NewReader(pngBytes(t)))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if resp.Prediction != "Pneumonia" || len(resp.Probabilities) != 3 || resp.MedicalReport != "report for Pneumonia" {
		t.Fatalf("resp=%+v", resp)
	}
	st := e.Status()
	if st.RequestsTotal != 1 || st.Predictions["Pneumonia"] != 1 || st.Predictions["Normal"] != 0 {
		t.Fatalf("status counters: %+v", st)
	}
	if st.QueueLen != 0 || st.Inflight != 0 {
		t.Fatalf("slots not released: %+v", st)
	}
}

func TestAnalyze_InvalidImage(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{label: "Normal"}, 1, time.Second)
	_, err := e.Analyze(context.Background(), strings.NewReader("definitely not an image"))
	if !classifier.IsInvalidImage(err) {
		t.Fatalf("expected invalid image, got %v", err)
	}
	if st := e.Status(); st.RequestsTotal != 0 || st.QueueLen != 0 {
		t.Fatalf("invalid upload should not be counted or queued: %+v", st)
	}
}

func TestAnalyze_ClassifierErrorRecorded(t *testing.T) {
	e := newTestEngine(t, &fakeClassifier{err: errBoom}, 1, time.Second)
	_, err := e.Analyze(context.Background(), bytes.NewReader(pngBytes(t)))
	if !errors.Is(err, errBoom) {
		t.Fatalf("expected boom, got %v", err)
	}
	st := e.Status()
	if st.LastError != "boom" || st.RequestsTotal != 1 {
		t.Fatalf("status: %+v", st)
	}
}

func TestAnalyze_TooBusyWhileInflight(t *testing.T) {
	clf := &fakeClassifier{label: "Normal", block: make(chan struct{})}
	e := newTestEngine(t, clf, 1, 30*time.Millisecond)

	data := pngBytes(t)
	done := make(chan error, 1)
	go func() {
		_, err := e.Analyze(context.Background(), bytes.NewReader(data))
		done <- err
	}()
	// wait until the first request holds the in-flight slot
	deadline := time.Now().Add(time.Second)
	for e.Status().Inflight == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first request never started")
		}
		time.Sleep(time.Millisecond)
	}

	_, err := e.Analyze(context.Background(), bytes.NewReader(data))
	if !IsTooBusy(err) {
		t.Fatalf("expected too busy, got %v", err)
	}
	close(clf.block)
	if err := <-done; err != nil {
		t.Fatalf("first request: %v", err)
	}
}

func TestClose_Idempotent(t *testing.T) {
	calls := 0
	e := NewWithConfig(Config{
		Classifier: &fakeClassifier{label: "Normal"},
		Logger:     zerolog.Nop(),
		OnClose:    func() error { calls++; return nil },
	})
	if err := e.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if calls != 1 {
		t.Fatalf("OnClose called %d times", calls)
	}
	if e.Ready() {
		t.Fatalf("closed engine must not be ready")
	}
	if _, err := e.Analyze(context.Background(), bytes.NewReader(pngBytes(t))); !IsNotReady(err) {
		t.Fatalf("expected not ready after close, got %v", err)
	}
	if got := e.Status().State; got != string(StateClosed) {
		t.Fatalf("state=%q", got)
	}
}
