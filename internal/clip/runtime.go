package clip

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

// Device selects the execution provider for the encoder session.
type Device string

const (
	DeviceAuto Device = "auto"
	DeviceCPU  Device = "cpu"
	DeviceCUDA Device = "cuda"
)

// ParseDevice maps a config string to a Device. Empty means auto.
func ParseDevice(s string) (Device, error) {
	switch Device(s) {
	case "", DeviceAuto:
		return DeviceAuto, nil
	case DeviceCPU, DeviceCUDA:
		return Device(s), nil
	default:
		return "", fmt.Errorf("unknown device %q (want auto, cpu, or cuda)", s)
	}
}

// ortEnv guards process-wide ONNX Runtime initialization.
var ortEnv struct {
	once sync.Once
	err  error
}

// InitRuntime loads the ONNX Runtime shared library and initializes the
// environment. Only the first call has any effect.
func InitRuntime(libPath string) error {
	ortEnv.once.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// ShutdownRuntime tears down the environment created by InitRuntime.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return ort.DestroyEnvironment()
}

// ResolveLibrary picks the ONNX Runtime shared library: an explicit path, then
// $ONNXRUNTIME_SHARED_LIBRARY_PATH, then libonnxruntime.so shipped next to the
// models. Empty means the binding's platform default.
func ResolveLibrary(explicit, modelsDir string) string {
	if explicit != "" {
		return explicit
	}
	if v := os.Getenv("ONNXRUNTIME_SHARED_LIBRARY_PATH"); v != "" {
		return v
	}
	if modelsDir != "" {
		p := filepath.Join(modelsDir, "libonnxruntime.so")
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// newSessionOptions builds options for the requested device. For DeviceAuto
// a CUDA failure falls back to CPU; the returned Device is what was applied.
func newSessionOptions(dev Device, threads int, log zerolog.Logger) (*ort.SessionOptions, Device, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, "", fmt.Errorf("clip: failed to create session options: %w", err)
	}
	if threads > 0 {
		if err := opts.SetIntraOpNumThreads(threads); err != nil {
			opts.Destroy()
			return nil, "", fmt.Errorf("clip: set intra-op threads: %w", err)
		}
	}
	if dev == DeviceCPU {
		return opts, DeviceCPU, nil
	}

	if err := appendCUDA(opts); err != nil {
		if dev == DeviceCUDA {
			opts.Destroy()
			return nil, "", fmt.Errorf("clip: cuda execution provider unavailable: %w", err)
		}
		log.Info().Err(err).Msg("cuda unavailable, using cpu")
		return opts, DeviceCPU, nil
	}
	return opts, DeviceCUDA, nil
}

func appendCUDA(opts *ort.SessionOptions) error {
	cudaOpts, err := ort.NewCUDAProviderOptions()
	if err != nil {
		return err
	}
	defer cudaOpts.Destroy()
	if err := cudaOpts.Update(map[string]string{"device_id": "0"}); err != nil {
		return err
	}
	return opts.AppendExecutionProviderCUDA(cudaOpts)
}
