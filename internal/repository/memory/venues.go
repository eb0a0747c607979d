package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

type VenueRepo struct {
	s *Store
}

func (r *VenueRepo) List(ctx context.Context) ([]domain.Venue, error) {
	out := make([]domain.Venue, 0)
	_ = r.s.do(func(st *state) error {
		for _, v := range st.venues {
			out = append(out, v)
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *VenueRepo) Get(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "memory.VenueRepo.Get"

	var out *domain.Venue
	err := r.s.do(func(st *state) error {
		v, ok := st.venues[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		out = &v
		return nil
	})

	return out, err
}

func (r *VenueRepo) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "memory.VenueRepo.GetByName"

	var out *domain.Venue
	err := r.s.do(func(st *state) error {
		v, ok := venueByName(st, name)
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		out = &v
		return nil
	})

	return out, err
}

func (r *VenueRepo) Create(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "memory.VenueRepo.Create"

	var out *domain.Venue
	err := r.s.do(func(st *state) error {
		if _, taken := venueByName(st, name); taken {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
		st.lastVenueID++
		v := domain.Venue{ID: st.lastVenueID, Name: name}
		st.venues[v.ID] = v
		out = &v
		return nil
	})

	return out, err
}

func (r *VenueRepo) Rename(ctx context.Context, id int64, name string) (*domain.Venue, error) {
	const op = "memory.VenueRepo.Rename"

	var out *domain.Venue
	err := r.s.do(func(st *state) error {
		v, ok := st.venues[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		if other, taken := venueByName(st, name); taken && other.ID != id {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
		v.Name = name
		st.venues[id] = v
		out = &v
		return nil
	})

	return out, err
}

func (r *VenueRepo) Delete(ctx context.Context, id int64) error {
	const op = "memory.VenueRepo.Delete"

	return r.s.do(func(st *state) error {
		if _, ok := st.venues[id]; !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		delete(st.venues, id)
		return nil
	})
}

func venueByName(st *state, name string) (domain.Venue, bool) {
	for _, v := range st.venues {
		if v.Name == name {
			return v, true
		}
	}
	return domain.Venue{}, false
}
