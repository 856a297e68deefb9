// Package journal emits one Record per mutating pool operation, for external
// indexing. The engine performs no I/O itself; a configured Sink receives each
// record synchronously after the operation commits.
package journal

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Config holds the recorder's dependencies.
type Config struct {
	Registry prometheus.Registerer // Required for metrics.
	Logger   Logger                // Required for logging.

	// Sink receives every emitted record. Optional; when nil, records are
	// only counted and logged.
	Sink func(Record)
}

// validate checks if the configuration is valid, ensuring required dependencies are present.
func (c *Config) validate() error {
	if c.Registry == nil {
		return errors.New("config: Registry cannot be nil")
	}
	if c.Logger == nil {
		return errors.New("config: Logger cannot be nil")
	}
	return nil
}

// Recorder forwards operation records to the sink, with metrics and logging.
type Recorder struct {
	metrics *Metrics
	logger  Logger
	sink    func(Record)
}

// NewRecorder constructs a recorder from a configuration, returning an error
// if the config is invalid.
func NewRecorder(cfg *Config) (*Recorder, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &Recorder{
		metrics: NewMetrics(cfg.Registry),
		logger:  cfg.Logger,
		sink:    cfg.Sink,
	}, nil
}

// Emit counts, logs, and forwards one record.
func (r *Recorder) Emit(rec Record) {
	timer := prometheus.NewTimer(r.metrics.emitDuration.WithLabelValues(string(rec.Kind)))
	defer timer.ObserveDuration()

	r.metrics.recordsTotal.WithLabelValues(string(rec.Kind)).Inc()

	r.logger.Debug("journal record",
		"kind", string(rec.Kind),
		"poolId", rec.PoolID,
		"provider", rec.Provider,
		"reserveA", rec.ReserveA,
		"reserveB", rec.ReserveB,
		"totalShares", rec.TotalShares,
	)

	if r.sink != nil {
		r.sink(rec)
	}
}
