package sqliterepo

import (
	"context"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

type VenueRepo struct {
	db DB
}

func (r *VenueRepo) List(ctx context.Context) ([]domain.Venue, error) {
	const op = "sqliterepo.VenueRepo.List"

	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM venues ORDER BY id`)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	defer rows.Close()

	out := make([]domain.Venue, 0)
	for rows.Next() {
		var v domain.Venue
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, wrapDBErr(op, err)
		}
		out = append(out, v)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func (r *VenueRepo) Get(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "sqliterepo.VenueRepo.Get"

	var v domain.Venue
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM venues WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *VenueRepo) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "sqliterepo.VenueRepo.GetByName"

	var v domain.Venue
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name FROM venues WHERE name = ?`, name,
	).Scan(&v.ID, &v.Name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *VenueRepo) Create(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "sqliterepo.VenueRepo.Create"

	res, err := r.db.ExecContext(ctx, `INSERT INTO venues (name) VALUES (?)`, name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &domain.Venue{ID: id, Name: name}, nil
}

func (r *VenueRepo) Rename(ctx context.Context, id int64, name string) (*domain.Venue, error) {
	const op = "sqliterepo.VenueRepo.Rename"

	res, err := r.db.ExecContext(ctx, `UPDATE venues SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}
	if err := requireAffected(op, res); err != nil {
		return nil, err
	}

	return &domain.Venue{ID: id, Name: name}, nil
}

func (r *VenueRepo) Delete(ctx context.Context, id int64) error {
	const op = "sqliterepo.VenueRepo.Delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM venues WHERE id = ?`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return requireAffected(op, res)
}
