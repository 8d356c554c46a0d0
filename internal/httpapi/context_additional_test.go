package httpapi

import (
	"context"
	"testing"
	"time"
)

func waitDone(t *testing.T, ctx context.Context, what string) {
	t.Helper()
	select {
	case <-ctx.Done():
	case <-time.After(2 * time.Second):
		t.Fatalf("%s: analyze context still live", what)
	}
}

func TestAnalyzeContext_TimeoutWrapsJoinedContext(t *testing.T) {
	SetBaseContext(context.Background())
	SetAnalyzeTimeoutSeconds(1)
	t.Cleanup(func() { SetAnalyzeTimeoutSeconds(0) })

	ctx, cancel := analyzeContext(context.Background())
	defer cancel()
	dl, ok := ctx.Deadline()
	if !ok || time.Until(dl) > time.Second {
		t.Fatalf("deadline=%v ok=%v, want within 1s", dl, ok)
	}
	waitDone(t, ctx, "timeout")
	if ctx.Err() != context.DeadlineExceeded {
		t.Fatalf("err=%v, want deadline exceeded", ctx.Err())
	}
}

func TestAnalyzeContext_NoTimeoutHasNoDeadline(t *testing.T) {
	SetBaseContext(context.Background())
	SetAnalyzeTimeoutSeconds(0)

	ctx, cancel := analyzeContext(context.Background())
	defer cancel()
	if _, ok := ctx.Deadline(); ok {
		t.Fatalf("unexpected deadline with timeout disabled")
	}
}

func TestAnalyzeContext_CancelReleasesBothLayers(t *testing.T) {
	SetBaseContext(context.Background())
	SetAnalyzeTimeoutSeconds(30)
	t.Cleanup(func() { SetAnalyzeTimeoutSeconds(0) })

	ctx, cancel := analyzeContext(context.Background())
	cancel()
	waitDone(t, ctx, "cancel")
	if ctx.Err() != context.Canceled {
		t.Fatalf("err=%v, want canceled before the 30s deadline", ctx.Err())
	}
}

func TestJoinContexts_CancelStopsWatcher(t *testing.T) {
	base, req := context.Background(), context.Background()
	joined, cancel := joinContexts(base, req)
	cancel()
	waitDone(t, joined, "join cancel")
	if base.Err() != nil || req.Err() != nil {
		t.Fatalf("join cancel leaked into parents")
	}
}

func TestAnalyzeContext_ShutdownCancelsQueuedRequest(t *testing.T) {
	base, stop := context.WithCancel(context.Background())
	SetBaseContext(base)
	t.Cleanup(func() { SetBaseContext(context.Background()) })
	SetAnalyzeTimeoutSeconds(30)
	t.Cleanup(func() { SetAnalyzeTimeoutSeconds(0) })

	req, reqCancel := context.WithCancel(context.Background())
	defer reqCancel()
	ctx, cancel := analyzeContext(req)
	defer cancel()

	queued := make(chan error, 1)
	go func() {
		<-ctx.Done()
		queued <- ctx.Err()
	}()
	stop()
	select {
	case err := <-queued:
		if err != context.Canceled {
			t.Fatalf("err=%v, want canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown did not reach queued analyze request")
	}
	if req.Err() != nil {
		t.Fatalf("request context canceled by shutdown: %v", req.Err())
	}
}

func TestAnalyzeContext_ClientDisconnect(t *testing.T) {
	SetBaseContext(context.Background())
	SetAnalyzeTimeoutSeconds(0)

	req, reqCancel := context.WithCancel(context.Background())
	ctx, cancel := analyzeContext(req)
	defer cancel()
	reqCancel()
	waitDone(t, ctx, "client disconnect")
}

func TestSetBaseContext_NilFallsBackToBackground(t *testing.T) {
	// nolint:staticcheck // SA1012: nil is the documented reset value
	SetBaseContext(nil)
	if serverBaseCtx != context.Background() {
		t.Fatalf("base context not reset")
	}
	ctx, cancel := analyzeContext(context.Background())
	defer cancel()
	if ctx.Err() != nil {
		t.Fatalf("analyze context done on fresh base: %v", ctx.Err())
	}
}
