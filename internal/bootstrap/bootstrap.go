// Package bootstrap assembles the engine from configuration: it locates the
// model files, starts ONNX Runtime, loads the encoder, the prompt embeddings,
// and the head, and validates that they fit together.
package bootstrap

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"xrayd/internal/assets"
	"xrayd/internal/classifier"
	"xrayd/internal/clip"
	"xrayd/internal/config"
	"xrayd/internal/engine"
	"xrayd/internal/report"
)

// Build returns a ready engine or the first error. Any error here is a
// startup failure; the caller must not serve traffic.
func Build(cfg config.Config, log zerolog.Logger) (*engine.Engine, error) {
	clf, enc, paths, err := BuildClassifier(cfg, log)
	if err != nil {
		return nil, err
	}
	return engine.NewWithConfig(engine.Config{
		Classifier:    clf,
		Device:        string(enc.Device()),
		HeadLoaded:    paths.HeadPresent,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       cfg.MaxWait(),
		Logger:        log,
		OnClose: func() error {
			return errors.Join(enc.Close(), clip.ShutdownRuntime())
		},
	}), nil
}

// BuildClassifier loads every model component. On success the caller owns
// the encoder and must Close it.
func BuildClassifier(cfg config.Config, log zerolog.Logger) (*classifier.Classifier, *clip.ImageEncoder, assets.Paths, error) {
	paths, err := locate(cfg)
	if err != nil {
		return nil, nil, paths, err
	}
	text, err := loadText(paths)
	if err != nil {
		return nil, nil, paths, err
	}

	device, err := clip.ParseDevice(cfg.Device)
	if err != nil {
		return nil, nil, paths, err
	}
	if err := clip.InitRuntime(clip.ResolveLibrary(cfg.ORTLibrary, paths.Dir)); err != nil {
		return nil, nil, paths, fmt.Errorf("onnx runtime: %w", err)
	}
	enc, err := clip.NewImageEncoder(paths.ImageEncoder, clip.EncoderOptions{
		Device:  device,
		Threads: cfg.Threads,
		Logger:  log,
	})
	if err != nil {
		return nil, nil, paths, err
	}

	head, err := loadHead(paths, enc.Dim(), len(classifier.DefaultClasses), cfg.HeadSeed, log)
	if err != nil {
		enc.Close()
		return nil, nil, paths, err
	}
	clf, err := classifier.New(enc, classifier.DefaultClasses, text, head, report.NewTable(cfg.Reports))
	if err != nil {
		enc.Close()
		return nil, nil, paths, err
	}
	return clf, enc, paths, nil
}

func locate(cfg config.Config) (assets.Paths, error) {
	return assets.Locate(cfg.ModelsDir, assets.Names{
		ImageEncoder: cfg.ImageEncoder,
		TextFeatures: cfg.TextFeatures,
		Head:         cfg.HeadWeights,
	})
}

// loadText reads the prompt embeddings and, when the file records its
// prompts, checks them against the fixed class list.
func loadText(paths assets.Paths) ([][]float32, error) {
	text, err := clip.LoadTextEmbeddings(paths.TextFeatures)
	if err != nil {
		return nil, err
	}
	if err := classifier.CheckPrompts(classifier.DefaultClasses, text.Prompts); err != nil {
		return nil, fmt.Errorf("%s: %w", paths.TextFeatures, err)
	}
	return text.Rows, nil
}

// loadHead reads trained weights when present, otherwise builds a seeded
// random head.
func loadHead(paths assets.Paths, dim, classes int, seed uint64, log zerolog.Logger) (*classifier.Head, error) {
	if paths.HeadPresent {
		head, err := classifier.LoadHead(paths.Head)
		if err != nil {
			return nil, fmt.Errorf("head weights: %w", err)
		}
		log.Info().Str("path", paths.Head).Msg("head weights loaded")
		return head, nil
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	log.Warn().Uint64("seed", seed).Msg("no head weights found, using untrained random head")
	return classifier.NewRandomHead(dim, dim, classes, seed), nil
}

// InitHead writes a seeded random head sized from the prompt embeddings to
// the configured head path. It refuses to overwrite unless force is set.
func InitHead(cfg config.Config, seed uint64, force bool) (string, error) {
	paths, err := locate(cfg)
	if err != nil {
		return "", err
	}
	if paths.HeadPresent && !force {
		return "", fmt.Errorf("%s already exists (use --force to overwrite)", paths.Head)
	}
	text, err := loadText(paths)
	if err != nil {
		return "", err
	}
	if len(text) != len(classifier.DefaultClasses) {
		return "", fmt.Errorf("text embeddings have %d rows, want %d", len(text), len(classifier.DefaultClasses))
	}
	dim := len(text[0])
	if err := classifier.NewRandomHead(dim, dim, len(text), seed).Save(paths.Head); err != nil {
		return "", err
	}
	return paths.Head, nil
}
