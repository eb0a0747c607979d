package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

const employeeColumns = `id, login, full_name, email, address, password_hash, role, created_at`

type EmployeeRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *EmployeeRepo) With(db DB) *EmployeeRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *EmployeeRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *EmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	const op = "postgresrepo.EmployeeRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT `+employeeColumns+`
		 FROM employees
		 ORDER BY id`,
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Employee, 0)
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *e)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *EmployeeRepo) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	const op = "postgresrepo.EmployeeRepo.Get"

	return r.getBy(ctx, op, `id = $1`, id)
}

func (r *EmployeeRepo) GetByLogin(ctx context.Context, login string) (*domain.Employee, error) {
	const op = "postgresrepo.EmployeeRepo.GetByLogin"

	return r.getBy(ctx, op, `login = $1`, login)
}

func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	const op = "postgresrepo.EmployeeRepo.GetByEmail"

	return r.getBy(ctx, op, `email = $1`, email)
}

func (r *EmployeeRepo) Create(ctx context.Context, e domain.Employee) error {
	const op = "postgresrepo.EmployeeRepo.Create"

	db := r.handle()

	if _, err := db.Exec(ctx,
		`INSERT INTO employees(id, login, full_name, email, address, password_hash, role, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		e.ID,
		e.Login,
		e.FullName,
		e.Email,
		e.Address,
		e.PasswordHash,
		string(e.Role),
		e.CreatedAt,
	); err != nil {
		return wrapDBErr(op, err)
	}

	return nil
}

func (r *EmployeeRepo) Update(ctx context.Context, id int64, patch domain.EmployeePatch) error {
	const op = "postgresrepo.EmployeeRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE employees SET
		   login         = COALESCE($2, login),
		   full_name     = COALESCE($3, full_name),
		   email         = COALESCE($4, email),
		   address       = COALESCE($5, address),
		   password_hash = COALESCE($6, password_hash),
		   role          = COALESCE($7, role)
		 WHERE id = $1`,
		id,
		patch.Login,
		patch.FullName,
		patch.Email,
		patch.Address,
		patch.PasswordHash,
		stringPtr(patch.Role),
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

// Delete removes the employee; tickets go with it through ON DELETE CASCADE.
func (r *EmployeeRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgresrepo.EmployeeRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *EmployeeRepo) getBy(ctx context.Context, op, where string, arg any) (*domain.Employee, error) {
	db := r.handle()

	e, err := scanEmployee(db.QueryRow(ctx,
		`SELECT `+employeeColumns+`
		 FROM employees WHERE `+where,
		arg,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var (
		e    domain.Employee
		role string
	)

	if err := row.Scan(
		&e.ID,
		&e.Login,
		&e.FullName,
		&e.Email,
		&e.Address,
		&e.PasswordHash,
		&role,
		&e.CreatedAt,
	); err != nil {
		return nil, err
	}

	e.Role = domain.Role(role)

	return &e, nil
}
