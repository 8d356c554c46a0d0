// Package assets locates the model files the classifier needs under a models
// directory.
package assets

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Default file names inside the models directory.
const (
	DefaultImageEncoder = "image_encoder.onnx"
	DefaultTextFeatures = "text_features.safetensors"
	DefaultHead         = "head.safetensors"
)

// Names overrides the default file names. Empty fields use the defaults.
// Absolute names are used as-is.
type Names struct {
	ImageEncoder string
	TextFeatures string
	Head         string
}

// Paths are the resolved absolute asset paths.
type Paths struct {
	Dir          string
	ImageEncoder string
	TextFeatures string
	Head         string
	// HeadPresent is false when no trained head is on disk and the
	// classifier must initialize one.
	HeadPresent bool
}

// missingAssetError reports a required file that does not exist.
type missingAssetError struct{ path string }

func (e missingAssetError) Error() string { return "required model file not found: " + e.path }

// IsMissingAsset reports whether err names a missing required file.
func IsMissingAsset(err error) bool {
	var e missingAssetError
	return errors.As(err, &e)
}

// Locate resolves asset paths under dir. The image encoder and the text
// embeddings are required; the head is optional.
func Locate(dir string, n Names) (Paths, error) {
	base, err := ExpandHome(dir)
	if err != nil {
		return Paths{}, err
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return Paths{}, fmt.Errorf("abs path: %w", err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return Paths{}, fmt.Errorf("models dir: %w", err)
	}
	if !fi.IsDir() {
		return Paths{}, fmt.Errorf("models dir: %s is not a directory", abs)
	}

	p := Paths{
		Dir:          abs,
		ImageEncoder: join(abs, n.ImageEncoder, DefaultImageEncoder),
		TextFeatures: join(abs, n.TextFeatures, DefaultTextFeatures),
		Head:         join(abs, n.Head, DefaultHead),
	}
	for _, req := range []string{p.ImageEncoder, p.TextFeatures} {
		if !isFile(req) {
			return p, missingAssetError{path: req}
		}
	}
	p.HeadPresent = isFile(p.Head)
	return p, nil
}

func join(dir, name, def string) string {
	if name == "" {
		name = def
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && !fi.IsDir()
}

// ExpandHome expands a leading '~' to the user's home directory.
func ExpandHome(path string) (string, error) {
	if path == "" || path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	// handle cases like ~/models/xray
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
