package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"xrayd/internal/bootstrap"
	"xrayd/internal/classifier"
	"xrayd/pkg/types"
)

// classifyResult is one NDJSON line of `xrayd classify` output.
type classifyResult struct {
	File string `json:"file"`
	types.AnalyzeResponse
	Error string `json:"error,omitempty"`
}

func newClassifyCmd(fv *flagValues) *cobra.Command {
	return &cobra.Command{
		Use:     "classify <image>...",
		Short:   "Classify image files offline and print one JSON line per file",
		Example: "  xrayd classify --models-dir ./models chest1.png chest2.jpg",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, fv)
			if err != nil {
				return err
			}
			log := newLogger(cfg, cmd.ErrOrStderr())
			clf, enc, _, err := bootstrap.BuildClassifier(cfg, log)
			if err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			defer enc.Close()

			out := json.NewEncoder(cmd.OutOrStdout())
			failed := 0
			for _, path := range args {
				res := classifyResult{File: path}
				pred, err := classifyFile(cmd, clf, path)
				if err != nil {
					failed++
					res.Error = err.Error()
				} else {
					res.AnalyzeResponse = types.AnalyzeResponse{
						Prediction:    pred.Label,
						Probabilities: pred.Probabilities,
						MedicalReport: pred.Report,
					}
				}
				if err := out.Encode(res); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}
}

func classifyFile(cmd *cobra.Command, clf *classifier.Classifier, path string) (classifier.Prediction, error) {
	f, err := os.Open(path)
	if err != nil {
		return classifier.Prediction{}, err
	}
	defer f.Close()
	img, _, err := classifier.Decode(f)
	if err != nil {
		return classifier.Prediction{}, err
	}
	return clf.Classify(cmd.Context(), img)
}
