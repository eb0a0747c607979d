package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

type TicketRepo struct {
	s *Store
}

func (r *TicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	return r.filter(func(st *state, t domain.Ticket) bool { return true }), nil
}

func (r *TicketRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Ticket, error) {
	return r.filter(func(st *state, t domain.Ticket) bool {
		return t.EmployeeID == employeeID
	}), nil
}

func (r *TicketRepo) ListByVenueName(ctx context.Context, name string) ([]domain.Ticket, error) {
	return r.filter(func(st *state, t domain.Ticket) bool {
		return t.VenueName == name
	}), nil
}

func (r *TicketRepo) CountByVenueName(ctx context.Context, name string) (int, error) {
	return len(r.filter(func(st *state, t domain.Ticket) bool {
		return t.VenueName == name
	})), nil
}

func (r *TicketRepo) ListOrphaned(ctx context.Context) ([]domain.Ticket, error) {
	return r.filter(func(st *state, t domain.Ticket) bool {
		if t.VenueName == "" {
			return false
		}
		_, ok := venueByName(st, t.VenueName)
		return !ok
	}), nil
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "memory.TicketRepo.Get"

	var out *domain.Ticket
	err := r.s.do(func(st *state) error {
		t, ok := st.tickets[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		out = &t
		return nil
	})

	return out, err
}

func (r *TicketRepo) Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	const op = "memory.TicketRepo.Create"

	err := r.s.do(func(st *state) error {
		if _, ok := st.employees[t.EmployeeID]; !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrForeignKey)
		}
		st.lastTicketID++
		t.ID = st.lastTicketID
		st.tickets[t.ID] = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &t, nil
}

func (r *TicketRepo) Update(ctx context.Context, id int64, patch domain.TicketPatch) error {
	const op = "memory.TicketRepo.Update"

	return r.s.do(func(st *state) error {
		t, ok := st.tickets[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		if patch.HolderName != nil {
			t.HolderName = *patch.HolderName
		}
		if patch.PartySize != nil {
			t.PartySize = *patch.PartySize
		}
		if patch.TicketType != nil {
			t.TicketType = *patch.TicketType
		}
		if patch.OfferKind != nil {
			t.OfferKind = *patch.OfferKind
		}
		if patch.VenueName != nil {
			t.VenueName = *patch.VenueName
		}
		st.tickets[id] = t
		return nil
	})
}

func (r *TicketRepo) Delete(ctx context.Context, id int64) error {
	const op = "memory.TicketRepo.Delete"

	return r.s.do(func(st *state) error {
		if _, ok := st.tickets[id]; !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		delete(st.tickets, id)
		return nil
	})
}

func (r *TicketRepo) filter(keep func(st *state, t domain.Ticket) bool) []domain.Ticket {
	out := make([]domain.Ticket, 0)
	_ = r.s.do(func(st *state) error {
		for _, t := range st.tickets {
			if keep(st, t) {
				out = append(out, t)
			}
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out
}
