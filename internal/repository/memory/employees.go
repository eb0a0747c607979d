package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

type EmployeeRepo struct {
	s *Store
}

func (r *EmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	out := make([]domain.Employee, 0)
	_ = r.s.do(func(st *state) error {
		for _, e := range st.employees {
			out = append(out, e)
		}
		return nil
	})

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	return out, nil
}

func (r *EmployeeRepo) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	const op = "memory.EmployeeRepo.Get"

	return r.find(op, func(e domain.Employee) bool { return e.ID == id })
}

func (r *EmployeeRepo) GetByLogin(ctx context.Context, login string) (*domain.Employee, error) {
	const op = "memory.EmployeeRepo.GetByLogin"

	return r.find(op, func(e domain.Employee) bool { return e.Login == login })
}

func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	const op = "memory.EmployeeRepo.GetByEmail"

	return r.find(op, func(e domain.Employee) bool { return e.Email == email })
}

func (r *EmployeeRepo) Create(ctx context.Context, e domain.Employee) error {
	const op = "memory.EmployeeRepo.Create"

	return r.s.do(func(st *state) error {
		if _, ok := st.employees[e.ID]; ok {
			return fmt.Errorf("%s: %w", op, repository.ErrConflict)
		}
		for _, other := range st.employees {
			if other.Email == e.Email || other.Login == e.Login {
				return fmt.Errorf("%s: %w", op, repository.ErrConflict)
			}
		}
		st.employees[e.ID] = e
		return nil
	})
}

func (r *EmployeeRepo) Update(ctx context.Context, id int64, patch domain.EmployeePatch) error {
	const op = "memory.EmployeeRepo.Update"

	return r.s.do(func(st *state) error {
		e, ok := st.employees[id]
		if !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		if patch.Login != nil {
			e.Login = *patch.Login
		}
		if patch.FullName != nil {
			e.FullName = *patch.FullName
		}
		if patch.Email != nil {
			e.Email = *patch.Email
		}
		if patch.Address != nil {
			e.Address = *patch.Address
		}
		if patch.PasswordHash != nil {
			e.PasswordHash = *patch.PasswordHash
		}
		if patch.Role != nil {
			e.Role = *patch.Role
		}
		for _, other := range st.employees {
			if other.ID != id && (other.Email == e.Email || other.Login == e.Login) {
				return fmt.Errorf("%s: %w", op, repository.ErrConflict)
			}
		}
		st.employees[id] = e
		return nil
	})
}

// Delete removes the employee and their tickets, like ON DELETE CASCADE.
func (r *EmployeeRepo) Delete(ctx context.Context, id int64) error {
	const op = "memory.EmployeeRepo.Delete"

	return r.s.do(func(st *state) error {
		if _, ok := st.employees[id]; !ok {
			return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
		}
		delete(st.employees, id)
		for tid, t := range st.tickets {
			if t.EmployeeID == id {
				delete(st.tickets, tid)
			}
		}
		return nil
	})
}

func (r *EmployeeRepo) find(op string, match func(e domain.Employee) bool) (*domain.Employee, error) {
	var out *domain.Employee
	err := r.s.do(func(st *state) error {
		for _, e := range st.employees {
			if match(e) {
				out = &e
				return nil
			}
		}
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	})

	return out, err
}
