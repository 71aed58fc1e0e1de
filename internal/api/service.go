package api

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/starford/raido/internal/apperr"
	"github.com/starford/raido/internal/pipeline"
	"github.com/starford/raido/internal/sse"
)

// JobOptions carries per-command flags passed from dashboard clients.
type JobOptions struct {
	RegenIndexes bool   // organize: regenerate indices afterwards
	WithTags     bool   // report: include tag tallies
	Force        bool   // cleanup: delete leftover staged files
	Format       string // export: "json", "zip", or "verify"
}

// Service runs pipeline commands for dashboard clients. At most one job
// runs at a time: two commands must never run concurrently against the
// same manifest/archive.
type Service struct {
	pipe   *pipeline.Pipeline
	broker *sse.Broker
	logger *slog.Logger
	busy   atomic.Bool
}

// NewService creates a Service. pipe should be built with a logger that
// forwards to broker so clients see command output as it happens.
func NewService(pipe *pipeline.Pipeline, broker *sse.Broker, logger *slog.Logger) *Service {
	return &Service{pipe: pipe, broker: broker, logger: logger}
}

// Busy reports whether a job is currently running.
func (s *Service) Busy() bool { return s.busy.Load() }

// StartJob launches command asynchronously. It returns apperr.ErrBusy when
// another job is still running and apperr.ErrNotFound for an unknown
// command.
func (s *Service) StartJob(command string, opts JobOptions) error {
	if !knownJob(command) {
		return fmt.Errorf("job %q: %w", command, apperr.ErrNotFound)
	}
	if !s.busy.CompareAndSwap(false, true) {
		return apperr.ErrBusy
	}

	go func() {
		defer s.busy.Store(false)

		s.broker.PublishJob(command, "started")
		if err := s.runJob(command, opts); err != nil {
			s.logger.Error("job failed", slog.String("command", command), slog.String("error", err.Error()))
			s.broker.PublishJob(command, "failed")
			return
		}
		s.broker.PublishJob(command, "finished")
	}()
	return nil
}

func knownJob(command string) bool {
	switch command {
	case "init", "scan", "validate", "organize", "index", "export", "cleanup":
		return true
	}
	return false
}

func (s *Service) runJob(command string, opts JobOptions) error {
	switch command {
	case "init":
		return s.pipe.Init()
	case "scan":
		return s.pipe.Scan()
	case "validate":
		_, err := s.pipe.ValidateTaxonomy()
		return err
	case "organize":
		_, err := s.pipe.Organize(opts.RegenIndexes)
		return err
	case "index":
		return s.pipe.Index()
	case "export":
		switch opts.Format {
		case "zip":
			return s.pipe.ExportZip()
		case "verify":
			_, err := s.pipe.VerifyBundle()
			return err
		default:
			return s.pipe.ExportJSON()
		}
	case "cleanup":
		return s.pipe.Cleanup(opts.Force)
	}
	return fmt.Errorf("job %q: %w", command, apperr.ErrNotFound)
}
