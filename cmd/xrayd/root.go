package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"xrayd/internal/config"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// flagValues mirrors the config fields that can be set on the command line.
type flagValues struct {
	configPath  string
	addr        string
	modelsDir   string
	device      string
	ortLibrary  string
	threads     int
	headSeed    uint64
	logLevel    string
	logFormat   string
	corsOrigins string
	swagger     bool
	maxUploadMB int
	queueDepth  int
	maxWait     int
	timeout     int
}

func newRootCmd() *cobra.Command { return newRootCmdWith(&flagValues{}) }

// newRootCmdWith constructs the command tree bound to fv.
func newRootCmdWith(fv *flagValues) *cobra.Command {
	root := &cobra.Command{
		Use:           "xrayd",
		Short:         "Chest X-ray classifier service (frozen CLIP encoder + linear head)",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&fv.configPath, "config", "c", os.Getenv("XRAYD_CONFIG"), "Config file (.yaml, .json, .toml); defaults to $XRAYD_CONFIG")
	pf.StringVar(&fv.modelsDir, "models-dir", config.DefaultModelsDir, "Directory holding image_encoder.onnx, text_features.safetensors and head.safetensors")
	pf.StringVar(&fv.device, "device", config.DefaultDevice, "Execution device: auto|cpu|cuda")
	pf.StringVar(&fv.ortLibrary, "ort-library", "", "Path to the ONNX Runtime shared library")
	pf.IntVar(&fv.threads, "threads", 0, "Intra-op threads for the encoder (0 = runtime default)")
	pf.Uint64Var(&fv.headSeed, "head-seed", 0, "Seed for the untrained head when no weights exist (0 = random)")
	pf.StringVar(&fv.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug|info|warn|error")
	pf.StringVar(&fv.logFormat, "log-format", config.DefaultLogFormat, "Log format: json|console")

	root.AddCommand(
		newServeCmd(fv),
		newClassifyCmd(fv),
		newInitHeadCmd(fv),
		newVersionCmd(),
	)
	return root
}

// resolveConfig loads the config file (if any), applies flags that were set
// explicitly, fills defaults, and validates.
func resolveConfig(cmd *cobra.Command, fv *flagValues) (config.Config, error) {
	var cfg config.Config
	if fv.configPath != "" {
		c, err := config.Load(fv.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = c
	}

	flags := cmd.Flags()
	if flags.Changed("addr") {
		cfg.Addr = fv.addr
	} else if cfg.Addr == "" {
		cfg.Addr = os.Getenv("XRAYD_ADDR")
	}
	if flags.Changed("models-dir") || cfg.ModelsDir == "" {
		cfg.ModelsDir = fv.modelsDir
	}
	if flags.Changed("device") {
		cfg.Device = fv.device
	}
	if flags.Changed("ort-library") {
		cfg.ORTLibrary = fv.ortLibrary
	}
	if flags.Changed("threads") {
		cfg.Threads = fv.threads
	}
	if flags.Changed("head-seed") {
		cfg.HeadSeed = fv.headSeed
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	if flags.Changed("cors-origins") {
		cfg.CORSOrigins = splitCSV(fv.corsOrigins)
	}
	if flags.Changed("swagger") {
		cfg.Swagger = fv.swagger
	}
	if flags.Changed("max-upload-mb") {
		cfg.MaxUploadMB = fv.maxUploadMB
	}
	if flags.Changed("max-queue-depth") {
		cfg.MaxQueueDepth = fv.queueDepth
	}
	if flags.Changed("max-wait") {
		cfg.MaxWaitSeconds = fv.maxWait
	}
	if flags.Changed("analyze-timeout") {
		cfg.AnalyzeTimeoutSeconds = fv.timeout
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger from config.
func newLogger(cfg config.Config, w io.Writer) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if cfg.LogFormat == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "xrayd").Logger()
}

// splitCSV splits a comma-separated flag value, dropping blanks.
func splitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "xrayd %s\n", version)
		},
	}
}
