package engine

import (
	"context"
	"io"
	"time"

	"xrayd/internal/classifier"
	"xrayd/pkg/types"
)

// Analyze decodes one upload and classifies it. Decoding happens before
// admission so malformed uploads never occupy a queue slot.
func (e *Engine) Analyze(ctx context.Context, r io.Reader) (types.AnalyzeResponse, error) {
	e.mu.RLock()
	state, clf := e.state, e.clf
	e.mu.RUnlock()
	if state != StateReady {
		return types.AnalyzeResponse{}, notReadyError{state: state}
	}

	img, format, err := classifier.Decode(r)
	if err != nil {
		return types.AnalyzeResponse{}, err
	}

	release, err := e.beginInference(ctx)
	if err != nil {
		return types.AnalyzeResponse{}, err
	}
	defer release()

	start := time.Now()
	pred, err := clf.Classify(ctx, img)
	if err != nil {
		if ctx.Err() == nil {
			e.recordError(err)
		}
		return types.AnalyzeResponse{}, err
	}
	e.recordPrediction(pred.Label)
	e.log.Debug().
		Str("format", format).
		Int("width", img.Bounds().Dx()).
		Int("height", img.Bounds().Dy()).
		Str("prediction", pred.Label).
		Floats32("probabilities", pred.Probabilities).
		Dur("dur", time.Since(start)).
		Msg("classified")

	return types.AnalyzeResponse{
		Prediction:    pred.Label,
		Probabilities: pred.Probabilities,
		MedicalReport: pred.Report,
	}, nil
}
