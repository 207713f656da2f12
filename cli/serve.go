/*
serve.go - API server command

STARTUP SEQUENCE:
  1. Load and validate config (file, then environment)
  2. Initialize SQLite store
  3. Create API handler from config and register regimes
     (regimes file, then custom regimes stored in the database)
  4. Start the FX refresher when [fx] is enabled
  5. Start server with graceful shutdown

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Stop the FX refresher
  4. Close database connection

EXAMPLES:
  batua serve
  batua serve --addr :3000 --db ":memory:"
  TWELVE_DATA_API_KEY=... batua serve

SEE ALSO:
  - api/server.go: Router configuration
  - config/config.go: Settings and environment overrides
*/
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/Maanicadatta/Batua/api"
	"github.com/Maanicadatta/Batua/config"
	"github.com/Maanicadatta/Batua/marketdata"
	"github.com/Maanicadatta/Batua/money"
	"github.com/Maanicadatta/Batua/store/sqlite"
	"github.com/Maanicadatta/Batua/tax"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagAddr string
	flagDB   string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagAddr, "addr", "", "Listen address (overrides config)")
	serveCmd.Flags().StringVar(&flagDB, "db", "", `SQLite database path, ":memory:" for in-memory (overrides config)`)
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagAddr != "" {
		cfg.Server.Addr = flagAddr
	}
	if flagDB != "" {
		cfg.Server.DBPath = flagDB
	}
	log := cfg.NewLogger()

	store, err := openStore(cfg.Server.DBPath)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	defer store.Close()

	handler, err := newHandler(context.Background(), cfg, store, log)
	if err != nil {
		return err
	}

	var refresher *marketdata.RateRefresher
	if cfg.FX.Enabled {
		if !handler.Market.HasKey() {
			log.Warn("fx refresh enabled without TWELVE_DATA_API_KEY, keeping configured rates")
		} else {
			refresher = marketdata.NewRateRefresher(handler.Market, handler.Rates, log)
			if err := refresher.Schedule(cfg.FX.RefreshCron); err != nil {
				return err
			}
			refresher.Start()
		}
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      api.NewRouter(handler, cfg.Server.AllowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithFields(logrus.Fields{"addr": cfg.Server.Addr, "db": cfg.Server.DBPath}).Info("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serveErr:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	if refresher != nil {
		refresher.Stop()
	}

	log.Info("server stopped")
	return nil
}

// openStore creates the database directory when needed.
func openStore(path string) (*sqlite.Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, err
		}
	}
	return sqlite.New(path)
}

// newHandler builds the API handler from config. Regimes from the regimes
// file are registered before stored custom regimes.
func newHandler(ctx context.Context, cfg config.Config, store *sqlite.Store, log *logrus.Logger) (*api.Handler, error) {
	h := api.NewHandler(store, log)

	h.Rates = cfg.RateTable()
	h.Market = marketdata.NewClient(cfg.MarketData.BaseURL, cfg.MarketData.APIKey, cfg.MarketData.Timeout.Duration, log)

	ratios, err := cfg.SuggestRatios()
	if err != nil {
		return nil, err
	}
	h.Ratios = ratios

	cur, err := money.ParseCurrency(cfg.Display.DefaultCurrency)
	if err != nil {
		return nil, err
	}
	h.DefaultCurrency = cur

	regime, err := tax.ParseRegime(cfg.Tax.DefaultRegime)
	if err != nil {
		return nil, err
	}
	h.DefaultRegime = regime

	if cfg.Tax.RegimesFile != "" {
		schedules, err := h.RegimeFactory.LoadRegimesFile(cfg.Tax.RegimesFile)
		if err != nil {
			return nil, err
		}
		if err := h.RegisterSchedules(schedules); err != nil {
			return nil, err
		}
		log.WithField("count", len(schedules)).Info("regimes file loaded")
	}

	if err := h.LoadRegimes(ctx); err != nil {
		log.WithError(err).Warn("failed to load stored regimes")
	}
	if _, err := h.Calculator.Schedule(h.DefaultRegime); err != nil {
		return nil, fmt.Errorf("tax.default_regime: %w", err)
	}
	return h, nil
}
