// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/granadev/grana/internal/domain/categorization"
	txservice "github.com/granadev/grana/internal/domain/transactions/service"
	"github.com/granadev/grana/pkg/mailer"
	"github.com/granadev/grana/pkg/metrics"
)

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron         *cron.Cron
	transactions *txservice.Service
	oracle       categorization.Oracle
	mailer       *mailer.Mailer
	logger       *slog.Logger
}

// NewScheduler creates a new job scheduler. Oracle and mailer may be nil.
func NewScheduler(transactions *txservice.Service, oracle categorization.Oracle, m *mailer.Mailer, logger *slog.Logger) *Scheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:         c,
		transactions: transactions,
		oracle:       oracle,
		mailer:       m,
		logger:       logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	// Recategorization: runs daily at 3:00 AM
	if _, err := s.cron.AddFunc("0 3 * * *", s.recategorize); err != nil {
		return err
	}

	// Monthly digest: first day of the month at 8:00 AM
	if _, err := s.cron.AddFunc("0 8 1 * *", s.sendDigest); err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers the recategorization job (for testing/admin).
func (s *Scheduler) RunNow() {
	go s.recategorize()
}

// recategorize re-runs the classifier over transactions still in the
// fallback category, so rules or overrides added after an import still
// take effect.
func (s *Scheduler) recategorize() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	s.logger.Info("starting nightly recategorization")

	updated, err := s.transactions.RecategorizeUncategorized(ctx, s.oracle)
	if err != nil {
		s.logger.Error("nightly recategorization failed", slog.Any("error", err))
		metrics.CronRunsTotal.WithLabelValues("recategorize", "failed").Inc()
		return
	}

	metrics.CronRunsTotal.WithLabelValues("recategorize", "succeeded").Inc()
	s.logger.Info("nightly recategorization completed", slog.Int("updated", updated))
}

// sendDigest mails the previous month's numbers.
func (s *Scheduler) sendDigest() {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	previousMonth := firstOfMonth.AddDate(0, 0, -1).Format("2006-01")
	stats, err := s.transactions.Stats(ctx, previousMonth)
	if err != nil {
		s.logger.Error("failed to compute digest stats", slog.Any("error", err))
		metrics.CronRunsTotal.WithLabelValues("digest", "failed").Inc()
		return
	}

	if err := s.mailer.SendMonthlyDigest(stats); err != nil {
		s.logger.Error("failed to send monthly digest", slog.Any("error", err))
		metrics.CronRunsTotal.WithLabelValues("digest", "failed").Inc()
		return
	}

	metrics.CronRunsTotal.WithLabelValues("digest", "succeeded").Inc()
	s.logger.Info("monthly digest sent", slog.String("month", previousMonth))
}
