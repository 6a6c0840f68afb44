package tokenledger

import (
	"log/slog"

	httpadapter "greenloop/contexts/token-core/token-ledger/adapters/http"
	"greenloop/contexts/token-core/token-ledger/adapters/memory"
	"greenloop/contexts/token-core/token-ledger/application"
	"greenloop/contexts/token-core/token-ledger/ports"
)

// Module is the composition surface for the ledger. Runtime wiring consumes
// Handler and Service; Store is exposed for tests and the in-memory outbox
// relay.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:   deps.Repository,
		Clock:  deps.Clock,
		Logger: deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the ledger against the in-memory store. This is the
// developer/test bootstrap path; postgres adapters take over when a DSN is
// configured.
func NewInMemoryModule(cfg memory.Config, logger *slog.Logger) Module {
	store := memory.NewStore(cfg)
	module := NewModule(Dependencies{
		Repository: store,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
