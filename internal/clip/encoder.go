// Package clip runs the frozen CLIP image tower through ONNX Runtime and
// loads the precomputed prompt embeddings.
package clip

import (
	"context"
	"fmt"
	"image"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// EncoderOptions configures NewImageEncoder.
type EncoderOptions struct {
	Device  Device
	Threads int
	Logger  zerolog.Logger
}

// ImageEncoder wraps a DynamicAdvancedSession for an image tower exported
// with input [batch, 3, H, W] and output [batch, D].
type ImageEncoder struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	size       int
	dim        int
	device     Device
}

// NewImageEncoder loads the model and validates its tensor shapes. InitRuntime
// must have succeeded first.
func NewImageEncoder(modelPath string, o EncoderOptions) (*ImageEncoder, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("clip: failed to read model info: %w", err)
	}
	inName, size, err := validateImageInput(inputs)
	if err != nil {
		return nil, err
	}
	outName, dim, err := validateEmbeddingOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, device, err := newSessionOptions(o.Device, o.Threads, o.Logger)
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath, []string{inName}, []string{outName}, opts)
	if err != nil {
		return nil, fmt.Errorf("clip: failed to create session: %w", err)
	}
	o.Logger.Info().
		Str("model", modelPath).
		Str("input", inName).
		Str("output", outName).
		Int("size", size).
		Int("dim", dim).
		Str("device", string(device)).
		Msg("image encoder loaded")

	return &ImageEncoder{
		session:    session,
		inputName:  inName,
		outputName: outName,
		size:       size,
		dim:        dim,
		device:     device,
	}, nil
}

// validateImageInput expects a single float tensor shaped [batch, 3, H, W]
// with square spatial dims. Dynamic spatial dims fall back to DefaultImageSize.
func validateImageInput(inputs []ort.InputOutputInfo) (string, int, error) {
	if len(inputs) != 1 {
		return "", 0, fmt.Errorf("clip: expected 1 model input, got %d", len(inputs))
	}
	in := inputs[0]
	if in.DataType != ort.TensorElementDataTypeFloat {
		return "", 0, fmt.Errorf("clip: input %q has element type %v, want float", in.Name, in.DataType)
	}
	dims := in.Dimensions
	if len(dims) != 4 || dims[1] != 3 {
		return "", 0, fmt.Errorf("clip: expected input shape [N,3,H,W], got %v", dims)
	}
	size := DefaultImageSize
	switch {
	case dims[2] > 0 && dims[2] == dims[3]:
		size = int(dims[2])
	case dims[2] > 0 || dims[3] > 0:
		if dims[2] != dims[3] {
			return "", 0, fmt.Errorf("clip: non-square input %v", dims)
		}
	}
	return in.Name, size, nil
}

// validateEmbeddingOutput expects the first output to be [batch, D] with a
// static D.
func validateEmbeddingOutput(outputs []ort.InputOutputInfo) (string, int, error) {
	if len(outputs) == 0 {
		return "", 0, fmt.Errorf("clip: model has no outputs")
	}
	out := outputs[0]
	dims := out.Dimensions
	if len(dims) != 2 || dims[1] <= 0 {
		return "", 0, fmt.Errorf("clip: expected output shape [N,D], got %v", dims)
	}
	return out.Name, int(dims[1]), nil
}

// Dim is the embedding width.
func (e *ImageEncoder) Dim() int { return e.dim }

// Size is the square input resolution.
func (e *ImageEncoder) Size() int { return e.size }

// Device is the execution provider the session was created with.
func (e *ImageEncoder) Device() Device { return e.device }

// EncodeImage preprocesses img and returns its raw (unnormalized) embedding.
func (e *ImageEncoder) EncodeImage(ctx context.Context, img image.Image) ([]float32, error) {
	pixels := Preprocess(img, e.size)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := int64(e.size)
	in, err := ort.NewTensor(ort.NewShape(1, 3, s, s), pixels)
	if err != nil {
		return nil, fmt.Errorf("clip: failed to create input tensor: %w", err)
	}
	defer in.Destroy()

	out, err := ort.NewEmptyTensor[float32](ort.NewShape(1, int64(e.dim)))
	if err != nil {
		return nil, fmt.Errorf("clip: failed to create output tensor: %w", err)
	}
	defer out.Destroy()

	if err := e.session.Run([]ort.Value{in}, []ort.Value{out}); err != nil {
		return nil, fmt.Errorf("clip: inference failed: %w", err)
	}

	// Copy out before the tensor is destroyed.
	emb := make([]float32, e.dim)
	copy(emb, out.GetData())
	return emb, nil
}

// Close releases the session.
func (e *ImageEncoder) Close() error {
	if e.session == nil {
		return nil
	}
	return e.session.Destroy()
}
