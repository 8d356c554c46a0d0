package e2e

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xrayd/internal/classifier"
	"xrayd/internal/engine"
	"xrayd/internal/httpapi"
	"xrayd/internal/report"
)

const testDim = 8

// stubEncoder maps mean brightness onto a fixed direction so different images
// give different embeddings. gate, when set, holds each call until released.
type stubEncoder struct {
	gate chan struct{}
}

func (s *stubEncoder) Dim() int { return testDim }

func (s *stubEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	b := img.Bounds()
	var sum float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			sum += float64(g.Y)
		}
	}
	mean := float32(sum/float64(b.Dx()*b.Dy())) / 255
	emb := make([]float32, testDim)
	for i := range emb {
		emb[i] = mean + float32(i)*0.1
	}
	return emb, nil
}

func textEmbeddings() [][]float32 {
	rows := make([][]float32, 3)
	for k := range rows {
		rows[k] = make([]float32, testDim)
		for i := range rows[k] {
			rows[k][i] = float32((k+1)*(i+1)%5) + 0.5
		}
	}
	return rows
}

// newServer wires the real classifier, engine and HTTP layer around enc.
func newServer(t *testing.T, enc classifier.ImageEncoder, cfg engine.Config) (*httptest.Server, *engine.Engine) {
	t.Helper()
	head := classifier.NewRandomHead(testDim, testDim, 3, 42)
	clf, err := classifier.New(enc, classifier.DefaultClasses, textEmbeddings(), head, report.NewTable(nil))
	if err != nil {
		t.Fatalf("classifier: %v", err)
	}
	cfg.Classifier = clf
	cfg.Logger = zerolog.Nop()
	eng := engine.NewWithConfig(cfg)
	srv := httptest.NewServer(httpapi.NewMux(eng))
	t.Cleanup(func() {
		srv.Close()
		_ = eng.Close()
	})
	return srv, eng
}

func jpegBytes(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 32, 24))
	for i := range img.Pix {
		img.Pix[i] = shade
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg: %v", err)
	}
	return buf.Bytes()
}

// postFile uploads content as multipart field "file" and returns status and body.
func postFile(t *testing.T, url string, content []byte) (int, []byte) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "chest.jpg")
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	_, _ = fw.Write(content)
	_ = mw.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &body)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b
}
