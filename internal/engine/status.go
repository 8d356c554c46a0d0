package engine

import (
	"time"

	"xrayd/pkg/types"
)

func (e *Engine) recordPrediction(label string) {
	e.mu.Lock()
	e.requests++
	e.predictions[label]++
	e.mu.Unlock()
}

func (e *Engine) recordError(err error) {
	e.mu.Lock()
	e.requests++
	e.err = err.Error()
	e.mu.Unlock()
	e.log.Error().Err(err).Msg("classification failed")
}

// Status builds a detailed status response for /status.
func (e *Engine) Status() types.StatusResponse {
	e.mu.RLock()
	defer e.mu.RUnlock()
	resp := types.StatusResponse{
		State:          string(e.state),
		Device:         e.device,
		HeadLoaded:     e.headLoaded,
		QueueLen:       len(e.queueCh),
		Inflight:       len(e.genCh),
		MaxQueueDepth:  cap(e.queueCh),
		RequestsTotal:  e.requests,
		Predictions:    make(map[string]uint64, len(e.predictions)),
		LastError:      e.err,
		UptimeSeconds:  int64(time.Since(e.startTime).Seconds()),
		ServerTimeUnix: time.Now().Unix(),
	}
	if e.clf != nil {
		resp.EmbeddingDim = e.clf.Dim()
	}
	for k, v := range e.predictions {
		resp.Predictions[k] = v
	}
	return resp
}
