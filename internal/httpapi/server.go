package httpapi

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"xrayd/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	Analyze(ctx context.Context, r io.Reader) (types.AnalyzeResponse, error)
	Classes() []types.ClassInfo
	Status() types.StatusResponse
	Ready() bool
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	// Compression for JSON and HTML responses
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsOptions != nil {
		r.Use(cors.Handler(*corsOptions))
	}

	r.Get("/", indexHandler(svc))

	analyze := analyzeHandler(svc)
	r.Post("/analyze", analyze)
	// The bundled web front end posts here.
	r.Post("/analyze-xray", analyze)

	r.Get("/classes", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.ClassesResponse{Classes: svc.Classes()})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Status())
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	if swaggerEnabled {
		MountSwagger(r)
	}

	return r
}

// analyzeHandler classifies the multipart field "file".
//
// @Summary      Classify a chest X-ray
// @Description  Upload an image as multipart field "file". Returns the predicted class, per-class probabilities in class-index order, and the report text for the predicted class.
// @Tags         analyze
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "X-ray image (JPEG, PNG, GIF, BMP, TIFF, WebP, AVIF)"
// @Success      200  {object}  types.AnalyzeResponse
// @Failure      400  {object}  types.ErrorResponse
// @Failure      413  {object}  types.ErrorResponse
// @Failure      429  {object}  types.ErrorResponse
// @Failure      500  {object}  types.ErrorResponse
// @Failure      503  {object}  types.ErrorResponse
// @Router       /analyze [post]
func analyzeHandler(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lvl := requestLogLevel(r)
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		file, hdr, err := r.FormFile("file")
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeJSONError(w, http.StatusRequestEntityTooLarge, msgTooLarge)
				return
			}
			writeJSONError(w, http.StatusBadRequest, msgNoFile)
			return
		}
		defer file.Close()

		if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
			ev.Str("filename", hdr.Filename).Int64("size", hdr.Size).Msg("analyze start")
		}
		// Join server base context with request context so shutdown cancels queued work too.
		ctx, cancel := analyzeContext(r.Context())
		defer cancel()

		start := time.Now()
		resp, err := svc.Analyze(ctx, file)
		if err != nil {
			// If the client went away or the server is stopping, just return.
			if r.Context().Err() != nil || serverBaseCtx.Err() != nil {
				return
			}
			status, msg := statusForError(err)
			if status == http.StatusTooManyRequests {
				IncrementBackpressure("queue")
			}
			writeJSONError(w, status, msg)
			floor := LevelInfo
			if status >= http.StatusInternalServerError {
				floor = LevelError
			}
			if ev := requestEvent(r, lvl, floor); ev != nil {
				ev.Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("analyze end")
			}
			return
		}

		RecordPrediction(resp.Prediction, time.Since(start))
		writeJSON(w, http.StatusOK, resp)
		if ev := requestEvent(r, lvl, LevelInfo); ev != nil {
			ev.Int("status", http.StatusOK).Str("prediction", resp.Prediction).Dur("dur", time.Since(start)).Msg("analyze end")
		}
		if ev := requestEvent(r, lvl, LevelDebug); ev != nil {
			ev.Floats32("probabilities", resp.Probabilities).Str("medical_report", resp.MedicalReport).Msg("analyze result")
		}
	}
}
