// Package memory is an in-process repository.Store. Transactions work on a
// clone of the state that replaces the live state on success, so a failed
// RunTx leaves nothing behind. It backs DB_DRIVER=memory and the service tests.
package memory

import (
	"context"
	"maps"
	"sync"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

type state struct {
	venues       map[int64]domain.Venue
	tickets      map[int64]domain.Ticket
	employees    map[int64]domain.Employee
	lastVenueID  int64
	lastTicketID int64
}

func newState() state {
	return state{
		venues:    make(map[int64]domain.Venue),
		tickets:   make(map[int64]domain.Ticket),
		employees: make(map[int64]domain.Employee),
	}
}

func (s state) clone() state {
	return state{
		venues:       maps.Clone(s.venues),
		tickets:      maps.Clone(s.tickets),
		employees:    maps.Clone(s.employees),
		lastVenueID:  s.lastVenueID,
		lastTicketID: s.lastTicketID,
	}
}

type Store struct {
	mu    *sync.Mutex
	state *state
	inTx  bool
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	st := newState()
	return &Store{mu: &sync.Mutex{}, state: &st}
}

func (s *Store) RunTx(
	ctx context.Context,
	fn func(ctx context.Context, tx repository.Store) error,
) error {
	if s.inTx {
		return fn(ctx, s)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := s.state.clone()
	if err := fn(ctx, &Store{mu: s.mu, state: &cp, inTx: true}); err != nil {
		return err
	}

	*s.state = cp

	return nil
}

func (s *Store) Venues() repository.VenueRepository       { return &VenueRepo{s: s} }
func (s *Store) Tickets() repository.TicketRepository     { return &TicketRepo{s: s} }
func (s *Store) Employees() repository.EmployeeRepository { return &EmployeeRepo{s: s} }

// do runs fn against the live state, holding the store lock unless the
// store is already bound to a transaction.
func (s *Store) do(fn func(st *state) error) error {
	if !s.inTx {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn(s.state)
}
