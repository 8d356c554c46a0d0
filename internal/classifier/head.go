package classifier

import (
	"fmt"
	"math"
	"math/rand/v2"

	"xrayd/internal/weights"
)

// Tensor names follow the state_dict of Sequential(Linear, ReLU, Dropout, Linear).
const (
	HeadFC1Weight = "classifier.0.weight"
	HeadFC1Bias   = "classifier.0.bias"
	HeadFC2Weight = "classifier.3.weight"
	HeadFC2Bias   = "classifier.3.bias"
)

// DefaultDropout is the dropout probability between the two head layers.
const DefaultDropout = 0.5

// linear is a dense layer y = Wx + b with W stored row-major [out, in].
type linear struct {
	weight  []float32
	bias    []float32
	in, out int
}

func (l *linear) apply(x []float32) []float32 {
	y := make([]float32, l.out)
	for o := 0; o < l.out; o++ {
		row := l.weight[o*l.in : (o+1)*l.in]
		sum := l.bias[o]
		for i, w := range row {
			sum += w * x[i]
		}
		y[o] = sum
	}
	return y
}

// Head is the trainable classification head:
// Linear(in, hidden) → ReLU → Dropout → Linear(hidden, classes).
// It is immutable after construction.
type Head struct {
	fc1, fc2 linear
	dropout  float32
}

// NewRandomHead builds an untrained head with PyTorch's default Linear
// initialization, U(-1/√fan_in, 1/√fan_in) for weights and biases.
func NewRandomHead(in, hidden, classes int, seed uint64) *Head {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	return &Head{
		fc1:     randomLinear(rng, in, hidden),
		fc2:     randomLinear(rng, hidden, classes),
		dropout: DefaultDropout,
	}
}

func randomLinear(rng *rand.Rand, in, out int) linear {
	bound := 1 / math.Sqrt(float64(in))
	l := linear{weight: make([]float32, in*out), bias: make([]float32, out), in: in, out: out}
	for i := range l.weight {
		l.weight[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	for i := range l.bias {
		l.bias[i] = float32((rng.Float64()*2 - 1) * bound)
	}
	return l
}

// LoadHead reads head weights from a safetensors file.
func LoadHead(path string) (*Head, error) {
	tensors, err := weights.Load(path)
	if err != nil {
		return nil, err
	}
	return HeadFromTensors(tensors)
}

// HeadFromTensors assembles a head from named tensors and checks that the
// layer shapes chain.
func HeadFromTensors(t map[string]*weights.Tensor) (*Head, error) {
	fc1, err := linearFromTensors(t, HeadFC1Weight, HeadFC1Bias)
	if err != nil {
		return nil, err
	}
	fc2, err := linearFromTensors(t, HeadFC2Weight, HeadFC2Bias)
	if err != nil {
		return nil, err
	}
	if fc1.out != fc2.in {
		return nil, errConfiguration("head hidden width %d != second layer input %d", fc1.out, fc2.in)
	}
	return &Head{fc1: fc1, fc2: fc2, dropout: DefaultDropout}, nil
}

func linearFromTensors(t map[string]*weights.Tensor, wName, bName string) (linear, error) {
	w, ok := t[wName]
	if !ok {
		return linear{}, errConfiguration("missing tensor %q", wName)
	}
	b, ok := t[bName]
	if !ok {
		return linear{}, errConfiguration("missing tensor %q", bName)
	}
	if len(w.Shape) != 2 {
		return linear{}, errConfiguration("tensor %q: expected 2D, got shape %v", wName, w.Shape)
	}
	out, in := w.Shape[0], w.Shape[1]
	if len(w.Data) != out*in || len(b.Data) != out {
		return linear{}, errConfiguration("tensor %q: data length does not match shape %v", wName, w.Shape)
	}
	if len(b.Shape) != 1 || b.Shape[0] != out {
		return linear{}, errConfiguration("tensor %q: shape %v does not match %q rows %d", bName, b.Shape, wName, out)
	}
	return linear{weight: w.Data, bias: b.Data, in: in, out: out}, nil
}

// Tensors exports the head in the same layout HeadFromTensors reads.
func (h *Head) Tensors() map[string]*weights.Tensor {
	return map[string]*weights.Tensor{
		HeadFC1Weight: {Shape: []int{h.fc1.out, h.fc1.in}, Data: h.fc1.weight},
		HeadFC1Bias:   {Shape: []int{h.fc1.out}, Data: h.fc1.bias},
		HeadFC2Weight: {Shape: []int{h.fc2.out, h.fc2.in}, Data: h.fc2.weight},
		HeadFC2Bias:   {Shape: []int{h.fc2.out}, Data: h.fc2.bias},
	}
}

// Save writes the head weights to a safetensors file.
func (h *Head) Save(path string) error {
	if err := weights.Save(path, h.Tensors()); err != nil {
		return fmt.Errorf("save head: %w", err)
	}
	return nil
}

// InDim is the width of the fused feature the head accepts.
func (h *Head) InDim() int { return h.fc1.in }

// OutDim is the number of raw scores the head produces.
func (h *Head) OutDim() int { return h.fc2.out }

// Forward runs the head on one feature vector. A nil rng means evaluation
// mode (dropout disabled); a non-nil rng applies inverted dropout.
func (h *Head) Forward(x []float32, rng *rand.Rand) []float32 {
	hidden := h.fc1.apply(x)
	for i, v := range hidden {
		if v < 0 {
			hidden[i] = 0
		}
	}
	if rng != nil && h.dropout > 0 {
		scale := 1 / (1 - h.dropout)
		for i := range hidden {
			if rng.Float32() < h.dropout {
				hidden[i] = 0
			} else {
				hidden[i] *= scale
			}
		}
	}
	return h.fc2.apply(hidden)
}
