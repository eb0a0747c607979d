package service

import (
	"log/slog"

	"github.com/kirinyoku/canteen-go/internal/auth"
	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
	"github.com/kirinyoku/canteen-go/internal/service/tickets"
)

type Services struct {
	Catalog   *catalog.Service
	Tickets   *tickets.Service
	Employees *employees.Service
}

// Deps are the infrastructure pieces shared by the services. Only Store and
// Tokens are required.
type Deps struct {
	Store   repository.Store
	Tokens  *auth.Issuer
	Locker  catalog.Locker
	Cache   catalog.VenueCache
	Changes catalog.ChangePublisher
	Alerts  catalog.AlertPublisher
	Clock   clock.Clock
	Logger  *slog.Logger
}

type Config struct {
	Employees employees.Config
}

func NewServices(d Deps, cfg Config) *Services {
	if d.Locker == nil {
		d.Locker = catalog.NewLocalLocker()
	}

	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}

	if d.Logger == nil {
		d.Logger = slog.Default()
	}

	return &Services{
		Catalog: catalog.New(catalog.Deps{
			Store:   d.Store,
			Locker:  d.Locker,
			Cache:   d.Cache,
			Changes: d.Changes,
			Alerts:  d.Alerts,
			Clock:   d.Clock,
			Log:     d.Logger,
		}),
		Tickets:   tickets.New(d.Store, d.Locker, d.Clock, d.Logger),
		Employees: employees.New(d.Store, d.Tokens, d.Clock, d.Logger, cfg.Employees),
	}
}
