package sqliterepo

import (
	"context"
	"time"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

const employeeColumns = `id, login, full_name, email, address, password_hash, role, created_at`

type EmployeeRepo struct {
	db DB
}

func (r *EmployeeRepo) List(ctx context.Context) ([]domain.Employee, error) {
	const op = "sqliterepo.EmployeeRepo.List"

	rows, err := r.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY id`)
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
	const op = "sqliterepo.EmployeeRepo.Get"

	return r.getBy(ctx, op, `id = ?`, id)
}

func (r *EmployeeRepo) GetByLogin(ctx context.Context, login string) (*domain.Employee, error) {
	const op = "sqliterepo.EmployeeRepo.GetByLogin"

	return r.getBy(ctx, op, `login = ?`, login)
}

func (r *EmployeeRepo) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	const op = "sqliterepo.EmployeeRepo.GetByEmail"

	return r.getBy(ctx, op, `email = ?`, email)
}

func (r *EmployeeRepo) Create(ctx context.Context, e domain.Employee) error {
	const op = "sqliterepo.EmployeeRepo.Create"

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO employees (id, login, full_name, email, address, password_hash, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Login,
		e.FullName,
		e.Email,
		e.Address,
		e.PasswordHash,
		string(e.Role),
		e.CreatedAt.UTC(),
	)

	return wrapDBErr(op, err)
}

func (r *EmployeeRepo) Update(ctx context.Context, id int64, patch domain.EmployeePatch) error {
	const op = "sqliterepo.EmployeeRepo.Update"

	res, err := r.db.ExecContext(ctx,
		`UPDATE employees SET
		   login         = COALESCE(?, login),
		   full_name     = COALESCE(?, full_name),
		   email         = COALESCE(?, email),
		   address       = COALESCE(?, address),
		   password_hash = COALESCE(?, password_hash),
		   role          = COALESCE(?, role)
		 WHERE id = ?`,
		nullable(patch.Login),
		nullable(patch.FullName),
		nullable(patch.Email),
		nullable(patch.Address),
		nullable(patch.PasswordHash),
		nullableString(patch.Role),
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return requireAffected(op, res)
}

// Delete removes the employee; tickets go with it through ON DELETE CASCADE.
func (r *EmployeeRepo) Delete(ctx context.Context, id int64) error {
	const op = "sqliterepo.EmployeeRepo.Delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = ?`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return requireAffected(op, res)
}

func (r *EmployeeRepo) getBy(ctx context.Context, op, where string, arg any) (*domain.Employee, error) {
	e, err := scanEmployee(r.db.QueryRowContext(ctx,
		`SELECT `+employeeColumns+` FROM employees WHERE `+where, arg,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return e, nil
}

func scanEmployee(row scanner) (*domain.Employee, error) {
	var (
		e         domain.Employee
		role      string
		createdAt time.Time
	)

	if err := row.Scan(
		&e.ID,
		&e.Login,
		&e.FullName,
		&e.Email,
		&e.Address,
		&e.PasswordHash,
		&role,
		&createdAt,
	); err != nil {
		return nil, err
	}

	e.Role = domain.Role(role)
	e.CreatedAt = createdAt.UTC()

	return &e, nil
}
