package repository

import (
	"context"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

// VenueRepository is the catalog store. Names are unique; a duplicate name
// is reported as ErrConflict and a missing id as ErrNotFound.
type VenueRepository interface {
	List(ctx context.Context) ([]domain.Venue, error)
	Get(ctx context.Context, id int64) (*domain.Venue, error)
	GetByName(ctx context.Context, name string) (*domain.Venue, error)
	Create(ctx context.Context, name string) (*domain.Venue, error)
	Rename(ctx context.Context, id int64, name string) (*domain.Venue, error)
	Delete(ctx context.Context, id int64) error
}

// TicketRepository is the ticket store. venue_name is matched by exact
// string equality and is not a foreign key.
type TicketRepository interface {
	List(ctx context.Context) ([]domain.Ticket, error)
	ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Ticket, error)
	ListByVenueName(ctx context.Context, name string) ([]domain.Ticket, error)
	CountByVenueName(ctx context.Context, name string) (int, error)
	// ListOrphaned returns tickets whose non-empty venue_name matches no venue.
	ListOrphaned(ctx context.Context) ([]domain.Ticket, error)
	Get(ctx context.Context, id int64) (*domain.Ticket, error)
	Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error)
	Update(ctx context.Context, id int64, patch domain.TicketPatch) error
	Delete(ctx context.Context, id int64) error
}

type EmployeeRepository interface {
	List(ctx context.Context) ([]domain.Employee, error)
	Get(ctx context.Context, id int64) (*domain.Employee, error)
	GetByLogin(ctx context.Context, login string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	Create(ctx context.Context, e domain.Employee) error
	Update(ctx context.Context, id int64, patch domain.EmployeePatch) error
	// Delete removes the employee and, through the store, every ticket they own.
	Delete(ctx context.Context, id int64) error
}

// Store groups the repositories of one backend. RunTx runs fn with a Store
// bound to a single transaction; calling RunTx on a transaction-bound Store
// reuses the outer transaction.
type Store interface {
	Venues() VenueRepository
	Tickets() TicketRepository
	Employees() EmployeeRepository
	RunTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
}
