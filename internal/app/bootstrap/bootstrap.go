package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	dropregistry "greenloop/contexts/token-core/drop-registry"
	registrypg "greenloop/contexts/token-core/drop-registry/adapters/postgres"
	registryports "greenloop/contexts/token-core/drop-registry/ports"
	listingexchange "greenloop/contexts/token-core/listing-exchange"
	exchangepg "greenloop/contexts/token-core/listing-exchange/adapters/postgres"
	exchangeports "greenloop/contexts/token-core/listing-exchange/ports"
	tokenledger "greenloop/contexts/token-core/token-ledger"
	ledgermemory "greenloop/contexts/token-core/token-ledger/adapters/memory"
	ledgerpg "greenloop/contexts/token-core/token-ledger/adapters/postgres"
	ledgerports "greenloop/contexts/token-core/token-ledger/ports"
	"greenloop/internal/platform/config"
	"greenloop/internal/platform/db"
	"greenloop/internal/platform/httpserver"
	"greenloop/internal/platform/messaging"
	"greenloop/internal/shared/outbox"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	relays       []outbox.Relay
	pollInterval time.Duration
	logger       *slog.Logger
}

// Modules bundles the three wired token-core modules. Registry and exchange
// take the ledger service as their settlement dependency, so balances,
// issuance, and purchases all run against the same book.
type Modules struct {
	Ledger   tokenledger.Module
	Registry dropregistry.Module
	Exchange listingexchange.Module
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	var pg *db.Postgres
	var modules Modules
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		modules, err = BuildInMemoryModules(cfg, logger)
	} else {
		pg, err = db.Connect(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		modules, err = buildPostgresModules(cfg, pg, logger)
	}
	if err != nil {
		if pg != nil {
			_ = pg.Close()
		}
		return nil, err
	}

	server := httpserver.New(modules.Ledger, modules.Registry, modules.Exchange, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

// BuildInMemoryModules wires the full stack against in-memory stores. Used
// by the API in DSN-less development mode and by cross-module tests.
func BuildInMemoryModules(cfg config.Config, logger *slog.Logger) (Modules, error) {
	ledger := tokenledger.NewInMemoryModule(ledgermemory.Config{
		Name:     cfg.Token.Name,
		Symbol:   cfg.Token.Symbol,
		Decimals: cfg.Token.Decimals,
		Cap:      cfg.Token.Cap,
		Admin:    cfg.Accounts.LedgerAdmin,
	}, logger)

	ctx := context.Background()
	if err := ledger.Service.GrantRole(ctx, cfg.Accounts.LedgerAdmin, ledgerports.RoleIssuer, cfg.Accounts.RegistryOperator); err != nil {
		return Modules{}, err
	}
	// The burner grant backs the registry's issuance reversal path.
	if err := ledger.Service.GrantRole(ctx, cfg.Accounts.LedgerAdmin, ledgerports.RoleBurner, cfg.Accounts.RegistryOperator); err != nil {
		return Modules{}, err
	}

	registry := dropregistry.NewInMemoryModule(cfg.Accounts.RegistryAdmin, ledger.Service, cfg.Accounts.RegistryOperator, logger)
	exchange := listingexchange.NewInMemoryModule(cfg.Accounts.ExchangeAdmin, ledger.Service, cfg.Accounts.ExchangeOperator, logger)

	return Modules{Ledger: ledger, Registry: registry, Exchange: exchange}, nil
}

func buildPostgresModules(cfg config.Config, pg *db.Postgres, logger *slog.Logger) (Modules, error) {
	ledgerRepo := ledgerpg.NewRepository(pg.DB, logger)
	registryRepo := registrypg.NewRepository(pg.DB, logger)
	exchangeRepo := exchangepg.NewRepository(pg.DB, logger)

	ledger := tokenledger.NewModule(tokenledger.Dependencies{
		Repository: ledgerRepo,
		Clock:      ledgerpg.SystemClock{},
		Logger:     logger,
	})
	registry := dropregistry.NewModule(dropregistry.Dependencies{
		Repository: registryRepo,
		Ledger:     ledger.Service,
		Operator:   cfg.Accounts.RegistryOperator,
		Clock:      registrypg.SystemClock{},
		Logger:     logger,
	})
	exchange := listingexchange.NewModule(listingexchange.Dependencies{
		Repository: exchangeRepo,
		Ledger:     ledger.Service,
		Operator:   cfg.Accounts.ExchangeOperator,
		Clock:      exchangepg.SystemClock{},
		Logger:     logger,
	})

	// Role grants are idempotent upserts, so re-seeding on every boot is safe.
	ctx := context.Background()
	now := time.Now().UTC()
	seeds := []func() error{
		func() error { return ledgerRepo.GrantRole(ctx, ledgerports.RoleAdmin, cfg.Accounts.LedgerAdmin, now) },
		func() error {
			return ledgerRepo.GrantRole(ctx, ledgerports.RoleIssuer, cfg.Accounts.RegistryOperator, now)
		},
		func() error {
			return ledgerRepo.GrantRole(ctx, ledgerports.RoleBurner, cfg.Accounts.RegistryOperator, now)
		},
		func() error {
			return registryRepo.GrantRole(ctx, registryports.RoleAdmin, cfg.Accounts.RegistryAdmin, now)
		},
		func() error {
			return exchangeRepo.GrantRole(ctx, exchangeports.RoleAdmin, cfg.Accounts.ExchangeAdmin, now)
		},
	}
	for _, seed := range seeds {
		if err := seed(); err != nil {
			return Modules{}, err
		}
	}

	return Modules{Ledger: ledger, Registry: registry, Exchange: exchange}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	kafka, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		_ = pg.Close()
		return nil, err
	}

	ledgerRepo := ledgerpg.NewRepository(pg.DB, logger)
	registryRepo := registrypg.NewRepository(pg.DB, logger)
	exchangeRepo := exchangepg.NewRepository(pg.DB, logger)

	return &WorkerApp{
		postgres: pg,
		relays: []outbox.Relay{
			{
				Outbox:    ledgerRepo,
				Publisher: kafka,
				Module:    "token-core/token-ledger",
				BatchSize: 100,
				Logger:    logger,
			},
			{
				Outbox:    registryRepo,
				Publisher: kafka,
				Module:    "token-core/drop-registry",
				BatchSize: 100,
				Logger:    logger,
			},
			{
				Outbox:    exchangeRepo,
				Publisher: kafka,
				Module:    "token-core/listing-exchange",
				BatchSize: 100,
				Logger:    logger,
			},
		},
		pollInterval: 2 * time.Second,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)

	for {
		for _, relay := range w.relays {
			if err := relay.RunOnce(ctx); err != nil {
				return err
			}
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
