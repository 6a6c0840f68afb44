package listingexchange

import (
	"log/slog"
	"sync"

	httpadapter "greenloop/contexts/token-core/listing-exchange/adapters/http"
	"greenloop/contexts/token-core/listing-exchange/adapters/memory"
	"greenloop/contexts/token-core/listing-exchange/application"
	"greenloop/contexts/token-core/listing-exchange/ports"
)

// Module is the composition surface for the exchange. Runtime wiring
// consumes Handler and Service; Store is exposed for tests and the in-memory
// outbox relay.
type Module struct {
	Handler httpadapter.Handler
	Service application.Service
	Store   *memory.Store
}

type Dependencies struct {
	Repository ports.Repository
	Ledger     ports.SettlementLedger
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

// NewInMemoryModule wires the exchange against the in-memory store. The
// ledger dependency still comes from outside so settlement debits the same
// balance book the ledger module serves.
func NewInMemoryModule(admin string, ledger ports.SettlementLedger, operator string, logger *slog.Logger) Module {
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
