// Package app initializes and holds the long-lived services every
// command needs: config, logger, the safety gateway, the throttled
// HTTP client, the catalog, and the posting store.
package app

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"jobradar/internal/catalog"
	"jobradar/internal/config"
	"jobradar/internal/filter"
	"jobradar/internal/httpx"
	"jobradar/internal/logging"
	"jobradar/internal/metrics"
	"jobradar/internal/netguard"
	"jobradar/internal/radar"
	"jobradar/internal/source"
	"jobradar/internal/store"
)

// App is the dependency container built once per invocation and handed
// to the commands through the cobra context.
type App struct {
	Cfg        config.Config
	Logger     *zap.Logger
	Guard      *netguard.Guard
	Throttler  *httpx.Throttler
	Client     *httpx.Client
	Robots     *httpx.RobotsGate
	Filter     *filter.Engine
	Catalog    *catalog.Catalog
	Store      radar.Store
	Connectors map[string]radar.Connector
}

// New builds the full service graph from a loaded config. It fails
// fast: any service that cannot start aborts the command.
func New(cfg config.Config) (*App, error) {
	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, err
	}

	guard := netguard.New(logger)
	throttler := httpx.NewThrottler(cfg.MinInterval())
	client := httpx.NewClient(httpx.ClientConfig{
		UserAgent:  cfg.HTTP.UserAgent,
		Timeout:    cfg.HTTPTimeout(),
		MaxRetries: cfg.HTTP.MaxRetries,
	}, guard, throttler, logger)

	var robots *httpx.RobotsGate
	if cfg.HTTP.RespectRobots {
		robots = httpx.NewRobotsGate(client, cfg.HTTP.UserAgent, cfg.MinInterval(), logger)
	}

	f := filter.New(cfg.Filter.MaxPostingAgeDays)
	cat := catalog.New(cfg.Catalog, logger)

	st, err := store.Open(cfg.Store, logger)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	connectors := source.All(source.Deps{
		Client:    client,
		Robots:    robots,
		Throttler: throttler,
		Filter:    f,
		Logger:    logger,
	})

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, logger)
	}

	return &App{
		Cfg:        cfg,
		Logger:     logger,
		Guard:      guard,
		Throttler:  throttler,
		Client:     client,
		Robots:     robots,
		Filter:     f,
		Catalog:    cat,
		Store:      st,
		Connectors: connectors,
	}, nil
}

// ValidationClient builds a client with the shorter validator timeout.
// Validators probe many hosts once; a slow board should not hold a
// worker for the full crawl timeout.
func (a *App) ValidationClient() *httpx.Client {
	return httpx.NewClient(httpx.ClientConfig{
		UserAgent:  a.Cfg.HTTP.UserAgent,
		Timeout:    a.Cfg.ValidateTimeout(),
		MaxRetries: 0,
	}, a.Guard, a.Throttler, a.Logger)
}

func serveMetrics(addr string, logger *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	logger.Info("metrics listener started", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Error("metrics listener failed", zap.Error(err))
	}
}

// Close shuts the services down and flushes the logger.
func (a *App) Close() {
	if err := a.Store.Close(); err != nil {
		a.Logger.Warn("closing store", zap.Error(err))
	}
	// Sync can fail on terminals; best effort.
	_ = a.Logger.Sync()
}
