package clip

import (
	"encoding/json"
	"fmt"

	"xrayd/internal/weights"
)

// TextFeaturesTensor is the tensor name holding the prompt embeddings, one
// row per class in class-index order.
const TextFeaturesTensor = "text_features"

// PromptsMetadataKey names the optional safetensors metadata entry listing
// the prompts that produced each row, as a JSON array of strings.
const PromptsMetadataKey = "prompts"

// TextEmbeddings are the precomputed prompt embeddings produced by the CLIP
// text tower. Prompts is nil when the file does not record them.
type TextEmbeddings struct {
	Rows    [][]float32
	Prompts []string
}

// LoadTextEmbeddings reads the prompt embeddings. Rows are returned as-is;
// the classifier normalizes them.
func LoadTextEmbeddings(path string) (TextEmbeddings, error) {
	tensors, meta, err := weights.LoadWithMetadata(path)
	if err != nil {
		return TextEmbeddings{}, fmt.Errorf("clip: text embeddings: %w", err)
	}
	t, ok := tensors[TextFeaturesTensor]
	if !ok {
		return TextEmbeddings{}, fmt.Errorf("clip: text embeddings: tensor %q not found in %s", TextFeaturesTensor, path)
	}
	rows, err := t.Rows()
	if err != nil {
		return TextEmbeddings{}, fmt.Errorf("clip: text embeddings: %w", err)
	}
	out := TextEmbeddings{Rows: rows}
	if raw, ok := meta[PromptsMetadataKey]; ok {
		if err := json.Unmarshal([]byte(raw), &out.Prompts); err != nil {
			return TextEmbeddings{}, fmt.Errorf("clip: text embeddings: %s metadata: %w", PromptsMetadataKey, err)
		}
		if len(out.Prompts) != len(rows) {
			return TextEmbeddings{}, fmt.Errorf("clip: text embeddings: %d prompts recorded for %d rows", len(out.Prompts), len(rows))
		}
	}
	return out, nil
}

// SaveTextEmbeddings writes rows as the text_features tensor and records
// prompts in the file metadata when given.
func SaveTextEmbeddings(path string, rows [][]float32, prompts []string) error {
	if len(rows) == 0 {
		return fmt.Errorf("clip: text embeddings: no rows")
	}
	dim := len(rows[0])
	t := weights.NewTensor(len(rows), dim)
	for i, r := range rows {
		if len(r) != dim {
			return fmt.Errorf("clip: text embeddings: row %d has width %d, want %d", i, len(r), dim)
		}
		copy(t.Data[i*dim:], r)
	}
	var meta map[string]string
	if prompts != nil {
		b, err := json.Marshal(prompts)
		if err != nil {
			return fmt.Errorf("clip: text embeddings: %w", err)
		}
		meta = map[string]string{PromptsMetadataKey: string(b)}
	}
	return weights.SaveWithMetadata(path, map[string]*weights.Tensor{TextFeaturesTensor: t}, meta)
}
