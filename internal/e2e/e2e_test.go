package e2e

import (
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"xrayd/internal/engine"
	"xrayd/internal/report"
	"xrayd/pkg/types"
)

func TestE2E_AnalyzeJPEG(t *testing.T) {
	srv, _ := newServer(t, &stubEncoder{}, engine.Config{})

	status, body := postFile(t, srv.URL+"/analyze", jpegBytes(t, 180))
	if status != http.StatusOK {
		t.Fatalf("status=%d body=%s", status, body)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		t.Fatalf("json: %v", err)
	}
	for _, k := range []string{"prediction", "probabilities", "medical_report"} {
		if _, ok := raw[k]; !ok {
			t.Fatalf("missing key %q in %s", k, body)
		}
	}
	var resp types.AnalyzeResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(resp.Probabilities) != 3 {
		t.Fatalf("probabilities=%v", resp.Probabilities)
	}
	var sum float64
	best := 0
	for i, p := range resp.Probabilities {
		if p < 0 || p > 1 {
			t.Fatalf("probability out of range: %v", p)
		}
		sum += float64(p)
		if p > resp.Probabilities[best] {
			best = i
		}
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Fatalf("probabilities sum to %v", sum)
	}
	labels := []string{"Normal", "Pneumonia", "COVID-19"}
	if resp.Prediction != labels[best] {
		t.Fatalf("prediction %q is not the argmax %q", resp.Prediction, labels[best])
	}
	if resp.MedicalReport != report.DefaultTexts[best] {
		t.Fatalf("report %q does not match class %d", resp.MedicalReport, best)
	}
}

func TestE2E_AnalyzeIsDeterministic(t *testing.T) {
	srv, _ := newServer(t, &stubEncoder{}, engine.Config{})
	img := jpegBytes(t, 90)
	_, first := postFile(t, srv.URL+"/analyze-xray", img)
	_, second := postFile(t, srv.URL+"/analyze", img)
	if string(first) != string(second) {
		t.Fatalf("same image gave different responses:\n%s\n%s", first, second)
	}
}

func TestE2E_NoFileUploaded(t *testing.T) {
	srv, _ := newServer(t, &stubEncoder{}, engine.Config{})
	resp, err := http.Post(srv.URL+"/analyze", "application/octet-stream", nil)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status=%d", resp.StatusCode)
	}
	if got := strings.TrimSpace(string(b)); got != `{"error":"No file uploaded"}` {
		t.Fatalf("body=%q", got)
	}
}

func TestE2E_InvalidImage(t *testing.T) {
	srv, eng := newServer(t, &stubEncoder{}, engine.Config{})
	status, body := postFile(t, srv.URL+"/analyze", []byte("this is not an image"))
	if status != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", status, body)
	}
	if got := strings.TrimSpace(string(body)); got != `{"error":"Invalid image file"}` {
		t.Fatalf("body=%q", got)
	}
	if st := eng.Status(); st.RequestsTotal != 0 {
		t.Fatalf("invalid upload counted: %+v", st)
	}
}

// TestE2E_Backpressure429 verifies 429 when the queue is full and the wait
// timeout elapses.
func TestE2E_Backpressure429(t *testing.T) {
	enc := &stubEncoder{gate: make(chan struct{})}
	srv, eng := newServer(t, enc, engine.Config{MaxQueueDepth: 1, MaxWait: 20 * time.Millisecond})
	img := jpegBytes(t, 128)

	var wg sync.WaitGroup
	wg.Add(1)
	var firstStatus int
	go func() {
		defer wg.Done()
		firstStatus, _ = postFile(t, srv.URL+"/analyze", img)
	}()
	deadline := time.Now().Add(2 * time.Second)
	for eng.Status().Inflight == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("first request never reached the encoder")
		}
		time.Sleep(2 * time.Millisecond)
	}

	status, body := postFile(t, srv.URL+"/analyze", img)
	if status != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d body=%s", status, body)
	}
	close(enc.gate)
	wg.Wait()
	if firstStatus != http.StatusOK {
		t.Fatalf("first request status=%d", firstStatus)
	}
}

func TestE2E_ClassesAndStatus(t *testing.T) {
	srv, _ := newServer(t, &stubEncoder{}, engine.Config{Device: "cpu"})
	for _, shade := range []uint8{10, 200} {
		if status, body := postFile(t, srv.URL+"/analyze", jpegBytes(t, shade)); status != http.StatusOK {
			t.Fatalf("status=%d body=%s", status, body)
		}
	}

	resp, err := http.Get(srv.URL + "/classes")
	if err != nil {
		t.Fatalf("get classes: %v", err)
	}
	var classes types.ClassesResponse
	if err := json.NewDecoder(resp.Body).Decode(&classes); err != nil {
		t.Fatalf("decode classes: %v", err)
	}
	resp.Body.Close()
	if len(classes.Classes) != 3 || classes.Classes[0].Label != "Normal" {
		t.Fatalf("classes=%+v", classes)
	}

	resp, err = http.Get(srv.URL + "/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	var st types.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	resp.Body.Close()
	if st.State != "ready" || st.Device != "cpu" || st.EmbeddingDim != testDim || st.RequestsTotal != 2 {
		t.Fatalf("status=%+v", st)
	}
	var total uint64
	for _, n := range st.Predictions {
		total += n
	}
	if total != 2 {
		t.Fatalf("prediction counters=%v", st.Predictions)
	}
}
