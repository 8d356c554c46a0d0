package httpapi

import (
	"github.com/go-chi/cors"
)

// defaultMaxUploadBytes caps multipart uploads when nothing is configured.
const defaultMaxUploadBytes int64 = 32 << 20

// maxUploadBytes controls the maximum allowed request body size for uploads.
var maxUploadBytes = defaultMaxUploadBytes

// SetMaxUploadBytes allows configuring the maximum request body size.
func SetMaxUploadBytes(n int64) {
	if n <= 0 {
		maxUploadBytes = defaultMaxUploadBytes
		return
	}
	maxUploadBytes = n
}

// analyzeTimeout bounds a single /analyze request, queue wait included.
// Zero means no additional timeout beyond server/connection timeouts.
var analyzeTimeout = int64(0) // seconds

// SetAnalyzeTimeoutSeconds sets the analyze timeout in seconds (0 disables).
func SetAnalyzeTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	analyzeTimeout = sec
}

// CORS is on by default and allows any origin.
var corsOptions = defaultCORSOptions()

func defaultCORSOptions() *cors.Options {
	return &cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Log-Level", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}
}

// SetCORSOptions configures CORS behavior for the HTTP server. Disabling
// removes the middleware; empty lists keep the defaults.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	if !enabled {
		corsOptions = nil
		return
	}
	o := defaultCORSOptions()
	if len(origins) > 0 {
		o.AllowedOrigins = append([]string(nil), origins...)
	}
	if len(methods) > 0 {
		o.AllowedMethods = append([]string(nil), methods...)
	}
	if len(headers) > 0 {
		o.AllowedHeaders = append([]string(nil), headers...)
	}
	corsOptions = o
}

// swaggerEnabled mounts /swagger/* when set.
var swaggerEnabled bool

// SetSwaggerEnabled toggles the API documentation routes.
func SetSwaggerEnabled(on bool) { swaggerEnabled = on }
