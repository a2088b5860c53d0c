package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/vkarev/bank-core/internal/service"
	"github.com/vkarev/bank-core/internal/utils/email"
)

// Scheduler runs the background jobs: daily loan payment reminders and an
// hourly sweep for transactions that never got a receipt linked.
type Scheduler struct {
	cron   *cron.Cron
	svc    *service.Service
	sender *email.Sender
	log    *logrus.Logger
}

func NewScheduler(svc *service.Service, sender *email.Sender, log *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		svc:    svc,
		sender: sender,
		log:    log,
	}
}

// Start registers the jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	// Payment reminders at 09:00 every day, covering the next three days.
	if _, err := s.cron.AddFunc("0 9 * * *", s.runLoanReminders); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc("@hourly", s.runReceiptSweep); err != nil {
		return err
	}
	s.cron.Start()
	s.log.Info("Scheduler started")
	return nil
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.log.Info("Scheduler stopped")
}

func (s *Scheduler) runLoanReminders() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	sent, err := s.svc.SendLoanReminders(ctx, 3*24*time.Hour, s.sender)
	if err != nil {
		s.log.Errorf("Loan reminder job failed: %v", err)
		return
	}
	s.log.Infof("Loan reminder job finished, %d reminders sent", sent)
}

func (s *Scheduler) runReceiptSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	count, err := s.svc.ReconcileReceipts(ctx, time.Hour)
	if err != nil {
		s.log.Errorf("Receipt sweep failed: %v", err)
		return
	}
	if count > 0 {
		s.log.Warnf("Receipt sweep found %d transfers without receipts", count)
	}
}
