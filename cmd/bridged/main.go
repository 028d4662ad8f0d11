package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"mlbridge/internal/config"
	"mlbridge/internal/engine"
	"mlbridge/internal/httpapi"
	"mlbridge/internal/platform"
	"mlbridge/pkg/bridge"
)

var version = "dev"

func main() {
	var (
		cfgPath   string
		addr      string
		modelsDir string
		dataDir   string
		envName   string
		deviceID  string
		ctxSize   int
		threads   int
		logLevel  string
	)

	root := &cobra.Command{
		Use:     "bridged",
		Short:   "Development harness exposing the mlbridge runtime over HTTP",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Config{}
			if cfgPath != "" {
				loaded, err := config.Load(cfgPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			// Flags override file values when set explicitly.
			if cmd.Flags().Changed("addr") || cfg.Addr == "" {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("models-dir") || cfg.ModelsDir == "" {
				cfg.ModelsDir = modelsDir
			}
			if cmd.Flags().Changed("data-dir") || cfg.DataDir == "" {
				cfg.DataDir = dataDir
			}
			if cmd.Flags().Changed("environment") || cfg.Environment == "" {
				cfg.Environment = envName
			}
			if cmd.Flags().Changed("device-id") || cfg.DeviceID == "" {
				cfg.DeviceID = deviceID
			}
			if cmd.Flags().Changed("ctx-size") || cfg.CtxSize == 0 {
				cfg.CtxSize = ctxSize
			}
			if cmd.Flags().Changed("threads") || cfg.Threads == 0 {
				cfg.Threads = threads
			}
			if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = logLevel
			}
			return run(cfg)
		},
	}

	f := root.Flags()
	f.StringVarP(&cfgPath, "config", "c", "", "Config file (.yaml/.json/.toml)")
	f.StringVar(&addr, "addr", ":8080", "HTTP listen address")
	f.StringVar(&modelsDir, "models-dir", "~/models/llm", "Directory to scan for *.gguf model files")
	f.StringVar(&dataDir, "data-dir", ".bridged", "Directory for adapter-backed file storage")
	f.StringVar(&envName, "environment", "development", "SDK environment name")
	f.StringVar(&deviceID, "device-id", "", "Device identifier reported by the SDK")
	f.IntVar(&ctxSize, "ctx-size", 4096, "LLM context window size")
	f.IntVar(&threads, "threads", runtime.NumCPU(), "LLM worker threads")
	f.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cfg config.Config) error {
	logger := newLogger(cfg.LogLevel)
	platform.SetLogger(logger)
	httpapi.SetLogger(logger)

	adapter, err := platform.NewLocalAdapter(cfg.DataDir)
	if err != nil {
		return err
	}
	if err := platform.Set(adapter); err != nil {
		return err
	}

	deviceID := cfg.DeviceID
	if deviceID == "" {
		deviceID, _ = os.Hostname()
	}
	sdkCfg := bridge.SDKConfig{
		Environment: cfg.Environment,
		DeviceID:    deviceID,
		Platform:    runtime.GOOS,
		SDKVersion:  version,
		BaseURL:     cfg.BaseURL,
	}
	if base, ok := bridge.DevBaseURL(); ok && sdkCfg.BaseURL == "" {
		sdkCfg.BaseURL = base
	}
	if err := bridge.SDKInit(sdkCfg); err != nil {
		return err
	}

	// With a backend configured, exercise the device and telemetry paths
	// the way a real host would.
	if sdkCfg.BaseURL != "" {
		apiKey, _ := bridge.DevAPIKey()
		cb := newHostCallbacks(sdkCfg.BaseURL, apiKey, deviceID)

		dm := bridge.NewDeviceManager()
		defer bridge.DeviceManagerDestroy(dm)
		if err := bridge.DeviceSetCallbacks(dm, cb); err != nil {
			return err
		}
		buildToken, _ := bridge.DevBuildToken()
		if err := bridge.DeviceRegisterIfNeeded(dm, cfg.Environment, buildToken); err != nil {
			logger.Warn().Err(err).Msg("device registration failed")
		}

		th, err := bridge.NewTelemetry(cfg.Environment, deviceID, runtime.GOOS, version)
		if err != nil {
			return err
		}
		defer bridge.TelemetryDestroy(th)
		if err := bridge.TelemetrySetHTTPCallback(th, cb.TelemetryPost); err != nil {
			return err
		}
		if err := bridge.AnalyticsBindTelemetry(th); err != nil {
			return err
		}

		if err := bridge.AssignmentSetCallbacks(cb, true); err != nil {
			return err
		}
		defer func() { _ = bridge.AssignmentSetCallbacks(nil, false) }()
	}

	svc, err := newBridgeService(cfg.CtxSize, cfg.Threads)
	if err != nil {
		return err
	}
	defer svc.Close()

	n, err := bridge.ModelRegistryScanDir(svc.models, cfg.ModelsDir)
	if err != nil {
		logger.Warn().Err(err).Str("dir", cfg.ModelsDir).Msg("model scan failed")
	} else {
		logger.Info().Int("models", n).Str("dir", cfg.ModelsDir).Msg("model scan complete")
	}

	if engine.Built() {
		if err := svc.LoadFirstModel(); err != nil {
			logger.Warn().Err(err).Msg("initial model load failed")
		}
	} else {
		logger.Info().Msg("llama engine not built in; /generate will report 503")
	}

	baseCtx, cancelBase := context.WithCancel(context.Background())
	defer cancelBase()
	httpapi.SetBaseContext(baseCtx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(svc)}
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", cfg.Addr).Msg("bridged listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case <-stop:
	}

	cancelBase()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown error")
	}
	return nil
}

func newLogger(level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	return zerolog.New(os.Stderr).Level(lvl).With().Timestamp().Logger()
}
