package collector

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"github.com/savings-tracker/internal/config"
	"github.com/savings-tracker/internal/logging"
	"github.com/savings-tracker/internal/models"
	"github.com/savings-tracker/internal/service"
)

// Ingester appends one observed balance to the ledger
type Ingester interface {
	Ingest(ctx context.Context, input *service.IngestInput) (*models.Snapshot, error)
}

// Scheduler runs periodic save cycles: one pass over every registered
// collector, appending whatever balances it reports. A cycle is not atomic.
// Each append stands alone, so a platform failing mid-cycle leaves the
// ledger valid but incomplete and later cycles fill the gap.
type Scheduler struct {
	cron       *cron.Cron
	collectors []Collector
	ingester   Ingester
}

// NewScheduler creates a save-cycle scheduler running in loc, the same
// canonical timezone the valuation core buckets days in.
func NewScheduler(loc *time.Location, collectors []Collector, ingester Ingester) *Scheduler {
	return &Scheduler{
		cron:       cron.New(cron.WithLocation(loc)),
		collectors: collectors,
		ingester:   ingester,
	}
}

// Schedule registers the save cycle under a five-field cron spec
func (s *Scheduler) Schedule(spec string) error {
	_, err := s.cron.AddFunc(spec, func() {
		s.RunCycle(context.Background())
	})
	return err
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop stops the scheduler and waits for a running cycle to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// RunCycle fetches balances from every collector and appends each as a
// snapshot. Failures are logged and skipped; they never abort the cycle or
// touch what other platforms already wrote.
func (s *Scheduler) RunCycle(ctx context.Context) {
	logger := logging.FromContext(ctx).WithField("cycle", uuid.NewString())
	ctx = logging.WithLogger(ctx, logger)
	logger.Info("Save cycle started")

	observedAt := time.Now()
	appended := 0
	for _, c := range s.collectors {
		balances, err := c.Balances(ctx)
		if err != nil {
			logger.WithError(err).WithField("platform", c.Platform()).Warn("Collector failed, skipping platform this cycle")
			continue
		}

		for _, b := range balances {
			_, err := s.ingester.Ingest(ctx, &service.IngestInput{
				Platform:   c.Platform(),
				Account:    b.Account,
				Amount:     b.Amount,
				ObservedAt: observedAt,
			})
			if err != nil {
				logger.WithError(err).WithFields(map[string]interface{}{
					"platform": c.Platform(),
					"account":  b.Account,
				}).Warn("Append failed, snapshot dropped")
				continue
			}
			appended++
		}
	}

	logger.WithField("appended", appended).Info("Save cycle finished")
}

// FromConfig builds the enabled collectors with a shared rate-limited HTTP
// client.
func FromConfig(cfg *config.CollectorsConfig) []Collector {
	client := newHTTPClient(cfg.RequestTimeout, cfg.RatePerSecond)

	var collectors []Collector
	if cfg.InvestNow.Enabled {
		collectors = append(collectors, NewInvestNowCollector(cfg.InvestNow, client))
	}
	if cfg.Akahu.Enabled {
		collectors = append(collectors, NewAkahuCollector(cfg.Akahu, client))
	}
	return collectors
}
