// Package weights reads and writes float32 tensors in the safetensors format.
//
// Layout: an 8-byte little-endian header length, a JSON header mapping tensor
// names to {dtype, shape, data_offsets}, then the raw tensor bytes. Only F32
// tensors are supported. The optional "__metadata__" entry is a flat
// string-to-string map.
package weights

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sort"
)

// Tensor is a dense row-major float32 tensor.
type Tensor struct {
	Shape []int
	Data  []float32
}

// NewTensor allocates a zeroed tensor of the given shape.
func NewTensor(shape ...int) *Tensor {
	return &Tensor{Shape: append([]int(nil), shape...), Data: make([]float32, numel(shape))}
}

// Rows splits a 2D tensor into row slices that share the backing array.
func (t *Tensor) Rows() ([][]float32, error) {
	if len(t.Shape) != 2 {
		return nil, fmt.Errorf("weights: expected 2D tensor, got shape %v", t.Shape)
	}
	n, d := t.Shape[0], t.Shape[1]
	out := make([][]float32, n)
	for i := range out {
		out[i] = t.Data[i*d : (i+1)*d]
	}
	return out, nil
}

type tensorMeta struct {
	Dtype       string `json:"dtype"`
	Shape       []int  `json:"shape"`
	DataOffsets [2]int `json:"data_offsets"`
}

const metadataKey = "__metadata__"

// Load reads every tensor in a safetensors file.
func Load(path string) (map[string]*Tensor, error) {
	tensors, _, err := LoadWithMetadata(path)
	return tensors, err
}

// LoadWithMetadata reads every tensor plus the header metadata. The metadata
// map is nil when the file has none.
func LoadWithMetadata(path string) (map[string]*Tensor, map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("weights: %w", err)
	}
	return ParseWithMetadata(data)
}

// Parse decodes an in-memory safetensors file.
func Parse(data []byte) (map[string]*Tensor, error) {
	tensors, _, err := ParseWithMetadata(data)
	return tensors, err
}

// ParseWithMetadata decodes an in-memory safetensors file and its metadata.
func ParseWithMetadata(data []byte) (map[string]*Tensor, map[string]string, error) {
	if len(data) < 8 {
		return nil, nil, fmt.Errorf("weights: file too small: %d bytes", len(data))
	}
	headerLen := binary.LittleEndian.Uint64(data[:8])
	if uint64(len(data))-8 < headerLen {
		return nil, nil, fmt.Errorf("weights: header length %d exceeds file size", headerLen)
	}

	var header map[string]json.RawMessage
	if err := json.Unmarshal(data[8:8+headerLen], &header); err != nil {
		return nil, nil, fmt.Errorf("weights: failed to parse header: %w", err)
	}

	var metadata map[string]string
	if raw, ok := header[metadataKey]; ok {
		if err := json.Unmarshal(raw, &metadata); err != nil {
			return nil, nil, fmt.Errorf("weights: bad %s: %w", metadataKey, err)
		}
	}

	body := data[8+headerLen:]
	out := make(map[string]*Tensor, len(header))
	for name, raw := range header {
		if name == metadataKey {
			continue
		}
		var meta tensorMeta
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, nil, fmt.Errorf("weights: tensor %q: bad metadata: %w", name, err)
		}
		if meta.Dtype != "F32" {
			return nil, nil, fmt.Errorf("weights: tensor %q: expected dtype F32, got %s", name, meta.Dtype)
		}
		start, end := meta.DataOffsets[0], meta.DataOffsets[1]
		if start < 0 || end < start || end > len(body) {
			return nil, nil, fmt.Errorf("weights: tensor %q: data range [%d:%d] exceeds file size %d",
				name, start, end, len(body))
		}
		n, err := checkedNumel(meta.Shape, (end-start)/4)
		if err != nil {
			return nil, nil, fmt.Errorf("weights: tensor %q: %w", name, err)
		}
		if end-start != n*4 {
			return nil, nil, fmt.Errorf("weights: tensor %q: data size %d doesn't match shape %v",
				name, end-start, meta.Shape)
		}
		t := &Tensor{Shape: meta.Shape, Data: make([]float32, n)}
		for i := range t.Data {
			off := start + i*4
			t.Data[i] = math.Float32frombits(binary.LittleEndian.Uint32(body[off : off+4]))
		}
		out[name] = t
	}
	return out, metadata, nil
}

// Save writes tensors to path. Tensor data is laid out in name order.
func Save(path string, tensors map[string]*Tensor) error {
	return SaveWithMetadata(path, tensors, nil)
}

// SaveWithMetadata is Save with a "__metadata__" header entry. An empty
// metadata map is omitted.
func SaveWithMetadata(path string, tensors map[string]*Tensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}
	offset := 0
	for _, name := range names {
		t := tensors[name]
		if name == metadataKey {
			return fmt.Errorf("weights: %q is reserved", metadataKey)
		}
		if numel(t.Shape) != len(t.Data) {
			return fmt.Errorf("weights: tensor %q: %d values for shape %v", name, len(t.Data), t.Shape)
		}
		size := len(t.Data) * 4
		header[name] = tensorMeta{Dtype: "F32", Shape: t.Shape, DataOffsets: [2]int{offset, offset + size}}
		offset += size
	}
	hb, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("weights: encode header: %w", err)
	}

	buf := make([]byte, 8, 8+len(hb)+offset)
	binary.LittleEndian.PutUint64(buf, uint64(len(hb)))
	buf = append(buf, hb...)
	for _, name := range names {
		for _, v := range tensors[name].Data {
			buf = binary.LittleEndian.AppendUint32(buf, math.Float32bits(v))
		}
	}
	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return fmt.Errorf("weights: %w", err)
	}
	return nil
}

// checkedNumel is numel for untrusted shapes. It rejects negative dimensions
// and stops before the product can exceed limit.
func checkedNumel(shape []int, limit int) (int, error) {
	n := 1
	for _, d := range shape {
		if d < 0 {
			return 0, fmt.Errorf("negative dimension in shape %v", shape)
		}
		if d > 0 && n > limit/d {
			return 0, fmt.Errorf("shape %v exceeds data size %d", shape, limit*4)
		}
		n *= d
	}
	return n, nil
}

func numel(shape []int) int {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return n
}
