package scheduler

import (
	"context"
	"time"

	"github.com/ikkim/udonggeum-basket/pkg/logger"
	"github.com/robfig/cron/v3"
)

const syncTimeout = 30 * time.Second

// CheckoutLoader reloads the cached basket snapshot.
type CheckoutLoader interface {
	LoadCheckout(ctx context.Context) error
}

// CheckoutSyncScheduler periodically resyncs the snapshot with the checkout
// API so changes made in other sessions show up.
type CheckoutSyncScheduler struct {
	cron     *cron.Cron
	loader   CheckoutLoader
	schedule string
}

func NewCheckoutSyncScheduler(loader CheckoutLoader, schedule string) *CheckoutSyncScheduler {
	return &CheckoutSyncScheduler{
		cron:     cron.New(),
		loader:   loader,
		schedule: schedule,
	}
}

func (s *CheckoutSyncScheduler) Start() error {
	if _, err := s.cron.AddFunc(s.schedule, s.sync); err != nil {
		logger.Error("Failed to add cron job for checkout sync", err, map[string]interface{}{
			"schedule": s.schedule,
		})
		return err
	}

	s.cron.Start()
	logger.Info("Checkout sync scheduler started", map[string]interface{}{
		"schedule": s.schedule,
	})
	return nil
}

// Stop stops the scheduler and waits for a running sync to finish.
func (s *CheckoutSyncScheduler) Stop() {
	logger.Info("Stopping checkout sync scheduler...", nil)
	<-s.cron.Stop().Done()
	logger.Info("Checkout sync scheduler stopped", nil)
}

// sync never fails the scheduler; a failed reload keeps the old snapshot.
func (s *CheckoutSyncScheduler) sync() {
	ctx, cancel := context.WithTimeout(context.Background(), syncTimeout)
	defer cancel()

	logger.Debug("Starting scheduled checkout sync", nil)
	if err := s.loader.LoadCheckout(ctx); err != nil {
		logger.Error("Scheduled checkout sync failed", err)
		return
	}
	logger.Debug("Scheduled checkout sync finished", nil)
}
