package types

// AnalyzeResponse is returned by POST /analyze.
type AnalyzeResponse struct {
	// Predicted class label.
	// example: Pneumonia
	Prediction string `json:"prediction" example:"Pneumonia"`
	// Softmax probabilities, index-aligned with GET /classes.
	// example: [0.12,0.81,0.07]
	Probabilities []float32 `json:"probabilities" example:"0.12,0.81,0.07"`
	// Report text keyed by the predicted class.
	// example: Comprehensive pneumonia evaluation...
	MedicalReport string `json:"medical_report" example:"Comprehensive pneumonia evaluation..."`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: No file uploaded
	Error string `json:"error" example:"No file uploaded"`
}

// ClassInfo describes one output slot of the classifier.
type ClassInfo struct {
	// Fixed output index.
	// example: 1
	Index int `json:"index" example:"1"`
	// Label returned in AnalyzeResponse.Prediction.
	// example: Pneumonia
	Label string `json:"label" example:"Pneumonia"`
	// Natural-language prompt whose embedding represents the class.
	// example: an X-ray showing signs of pneumonia
	Prompt string `json:"prompt" example:"an X-ray showing signs of pneumonia"`
}

// ClassesResponse wraps the class table returned by GET /classes.
type ClassesResponse struct {
	Classes []ClassInfo `json:"classes"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine lifecycle state (loading, ready, closed).
	// example: ready
	State string `json:"state" example:"ready"`
	// Compute device the encoder session runs on.
	// example: cpu
	Device string `json:"device,omitempty" example:"cpu"`
	// Width of the image/text embeddings.
	// example: 512
	EmbeddingDim int `json:"embedding_dim,omitempty" example:"512"`
	// Whether head weights were loaded from disk (false means randomly initialized).
	// example: false
	HeadLoaded bool `json:"head_loaded" example:"false"`
	// Requests waiting for or holding the inference slot.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// Inferences currently running (0 or 1).
	// example: 0
	Inflight int `json:"inflight" example:"0"`
	// Maximum queued requests before backpressure triggers.
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Total analyze requests admitted.
	// example: 12
	RequestsTotal uint64 `json:"requests_total" example:"12"`
	// Predictions served, by label.
	Predictions map[string]uint64 `json:"predictions"`
	// Last error observed by the engine (if any).
	LastError string `json:"last_error,omitempty"`
	// Uptime of the server in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
