package dropregistry

import (
	"log/slog"
	"sync"

	httpadapter "greenloop/contexts/token-core/drop-registry/adapters/http"
	"greenloop/contexts/token-core/drop-registry/adapters/memory"
	"greenloop/contexts/token-core/drop-registry/application"
	"greenloop/contexts/token-core/drop-registry/ports"
)

// Module is the composition surface for the registry. Runtime wiring consumes
// Handler and Service; Store is exposed for tests and the in-memory outbox
// relay.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Ledger     ports.TokenLedger
	Operator   string
	Clock      ports.Clock
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	service := application.Service{
		Repo:     deps.Repository,
		Ledger:   deps.Ledger,
		Operator: deps.Operator,
		Clock:    deps.Clock,
		Logger:   deps.Logger,
		Lock:     &sync.Mutex{},
	}
	return Module{
		Handler: httpadapter.Handler{
			Service: service,
			Logger:  deps.Logger,
		},
		Service: service,
	}
}

// NewInMemoryModule wires the registry against the in-memory store. The
// ledger dependency still comes from outside so both modules share one
// balance book.
func NewInMemoryModule(admin string, ledger ports.TokenLedger, operator string, logger *slog.Logger) Module {
	store := memory.NewStore(admin)
	module := NewModule(Dependencies{
		Repository: store,
		Ledger:     ledger,
		Operator:   operator,
		Clock:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}
