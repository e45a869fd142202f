package telemetry

import (
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/grafana/pyroscope-go"
	"go.uber.org/zap"

	"github.com/shopline/backend/internal/infrastructure/config"
)

// ErrProfilerAddressRequired is returned when profiling is on without a server
var ErrProfilerAddressRequired = errors.New("telemetry.pyroscope_url is required when profiling is enabled")

// Profiler runs continuous Pyroscope profiling.
type Profiler struct {
	profiler *pyroscope.Profiler
	logger   *zap.Logger
	stopOnce sync.Once
}

// NewProfiler starts CPU, allocation and goroutine profiling.
func NewProfiler(cfg config.TelemetryConfig, logger *zap.Logger) (*Profiler, error) {
	p := &Profiler{logger: logger}
	if !cfg.ProfilingEnabled {
		return p, nil
	}
	if cfg.PyroscopeURL == "" {
		return nil, ErrProfilerAddressRequired
	}

	tags := map[string]string{}
	if hostname, err := os.Hostname(); err == nil {
		tags["hostname"] = hostname
	}

	profiler, err := pyroscope.Start(pyroscope.Config{
		ApplicationName: cfg.ServiceName,
		ServerAddress:   cfg.PyroscopeURL,
		Logger:          logger.Named("pyroscope").Sugar(),
		Tags:            tags,
		ProfileTypes: []pyroscope.ProfileType{
			pyroscope.ProfileCPU,
			pyroscope.ProfileAllocObjects,
			pyroscope.ProfileAllocSpace,
			pyroscope.ProfileInuseSpace,
			pyroscope.ProfileGoroutines,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start pyroscope profiler: %w", err)
	}
	p.profiler = profiler
	logger.Info("Pyroscope profiler started", zap.String("server_address", cfg.PyroscopeURL))
	return p, nil
}

// Stop flushes and stops the profiler. Safe to call more than once.
func (p *Profiler) Stop() error {
	var err error
	p.stopOnce.Do(func() {
		if p.profiler == nil {
			return
		}
		if err = p.profiler.Stop(); err != nil {
			err = fmt.Errorf("failed to stop profiler: %w", err)
		}
	})
	return err
}
