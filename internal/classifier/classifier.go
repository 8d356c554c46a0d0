// Package classifier turns one image into class probabilities.
//
// Pipeline: encode the image with a frozen encoder, L2-normalize the
// embedding, fuse it with each class's text embedding by element-wise
// product, score each fused vector with the shared head, softmax, argmax.
//
// The head emits one score per class for every fused vector. Class k's logit
// is output unit k of head(image ⊙ text_k), so each slot is scored against its
// own prompt and the result stays a single length-K vector.
package classifier

import (
	"context"
	"fmt"
	"image"

	"xrayd/internal/report"
)

// ImageEncoder is the frozen image tower. Implementations own their
// preprocessing and must be safe for concurrent use.
type ImageEncoder interface {
	EncodeImage(ctx context.Context, img image.Image) ([]float32, error)
	// Dim is the embedding width.
	Dim() int
}

// Prediction is the result of classifying one image.
type Prediction struct {
	Index         int
	Label         string
	Probabilities []float32
	Report        string
}

// Classifier is the immutable handle built once at startup.
type Classifier struct {
	enc     ImageEncoder
	classes []Class
	text    [][]float32
	head    *Head
	reports report.Generator
	dim     int
}

// New validates that every component agrees on the embedding width and the
// number of classes. Text embeddings are copied and L2-normalized.
func New(enc ImageEncoder, classes []Class, text [][]float32, head *Head, reports report.Generator) (*Classifier, error) {
	if enc == nil || head == nil || reports == nil {
		return nil, errConfiguration("encoder, head, and report generator are required")
	}
	k := len(classes)
	if k == 0 {
		return nil, errConfiguration("no classes")
	}
	for i, c := range classes {
		if c.Index != i {
			return nil, errConfiguration("class %q has index %d at position %d", c.Label, c.Index, i)
		}
	}
	if len(text) != k {
		return nil, errConfiguration("%d text embeddings for %d classes", len(text), k)
	}
	if head.OutDim() != k {
		return nil, errConfiguration("head emits %d scores for %d classes", head.OutDim(), k)
	}
	if reports.Len() != k {
		return nil, errConfiguration("%d report entries for %d classes", reports.Len(), k)
	}
	dim := enc.Dim()
	if dim <= 0 {
		return nil, errConfiguration("encoder reports embedding width %d", dim)
	}
	if head.InDim() != dim {
		return nil, errConfiguration("head input width %d != encoder width %d", head.InDim(), dim)
	}
	norm := make([][]float32, k)
	for i, row := range text {
		if len(row) != dim {
			return nil, errConfiguration("text embedding %d has width %d, encoder width %d", i, len(row), dim)
		}
		norm[i] = l2Normalize(row)
	}
	return &Classifier{
		enc:     enc,
		classes: append([]Class(nil), classes...),
		text:    norm,
		head:    head,
		reports: reports,
		dim:     dim,
	}, nil
}

// Classes returns a copy of the class table.
func (c *Classifier) Classes() []Class { return append([]Class(nil), c.classes...) }

// Dim is the shared embedding width.
func (c *Classifier) Dim() int { return c.dim }

// Classify runs the full pipeline on a decoded image. Dropout is disabled, so
// identical inputs give identical probabilities.
func (c *Classifier) Classify(ctx context.Context, img image.Image) (Prediction, error) {
	emb, err := c.enc.EncodeImage(ctx, img)
	if err != nil {
		return Prediction{}, fmt.Errorf("encode image: %w", err)
	}
	if len(emb) != c.dim {
		return Prediction{}, errConfiguration("encoder returned width %d, expected %d", len(emb), c.dim)
	}
	if err := ctx.Err(); err != nil {
		return Prediction{}, err
	}
	scores := c.Scores(l2Normalize(emb))
	probs := softmax(scores)
	idx := argmax(probs)
	return Prediction{
		Index:         idx,
		Label:         c.classes[idx].Label,
		Probabilities: probs,
		Report:        c.reports.Report(idx),
	}, nil
}

// Scores computes the raw per-class logits for a normalized image embedding.
func (c *Classifier) Scores(emb []float32) []float32 {
	scores := make([]float32, len(c.classes))
	fused := make([]float32, c.dim)
	for k, t := range c.text {
		for i := range fused {
			fused[i] = emb[i] * t[i]
		}
		scores[k] = c.head.Forward(fused, nil)[k]
	}
	return scores
}
