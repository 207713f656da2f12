package marketdata

import (
	"context"
	"fmt"
	"time"

	"github.com/Maanicadatta/Batua/money"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// RateSource provides exchange rates. *Client implements it.
type RateSource interface {
	ExchangeRate(ctx context.Context, from, to money.Currency) (decimal.Decimal, error)
}

// RateRefresher periodically pulls INR->X rates into a display RateTable.
// Rates only affect rendering; calculations stay in INR.
type RateRefresher struct {
	Cron   *cron.Cron
	source RateSource
	table  *money.RateTable
	log    *logrus.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRateRefresher creates a refresher. Call Schedule then Start.
func NewRateRefresher(source RateSource, table *money.RateTable, log *logrus.Logger) *RateRefresher {
	ctx, cancel := context.WithCancel(context.Background())
	return &RateRefresher{
		Cron:   cron.New(),
		source: source,
		table:  table,
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers the refresh job with a standard cron spec or a
// descriptor such as "@every 6h".
func (r *RateRefresher) Schedule(spec string) error {
	if _, err := r.Cron.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(r.ctx, 30*time.Second)
		defer cancel()
		r.RefreshNow(ctx)
	}); err != nil {
		return fmt.Errorf("register fx refresh: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (r *RateRefresher) Start() {
	r.Cron.Start()
	r.log.Info("fx refresher started")
}

// Stop stops the scheduler and waits for a running refresh to finish.
func (r *RateRefresher) Stop() {
	r.cancel()
	<-r.Cron.Stop().Done()
	r.log.Info("fx refresher stopped")
}

// RefreshNow updates every non-base currency in the table and returns how
// many rates were updated. Failures keep the previous rate.
func (r *RateRefresher) RefreshNow(ctx context.Context) int {
	updated := 0
	for _, c := range r.table.Currencies() {
		if c == money.Base {
			continue
		}
		rate, err := r.source.ExchangeRate(ctx, money.Base, c)
		if err != nil {
			r.log.WithError(err).WithField("currency", c).Warn("fx refresh failed, keeping previous rate")
			continue
		}
		if r.table.Set(c, rate) {
			updated++
			r.log.WithFields(logrus.Fields{"currency": c, "rate": rate.String()}).Debug("fx rate updated")
		}
	}
	return updated
}
