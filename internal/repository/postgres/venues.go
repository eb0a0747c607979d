package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

type VenueRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *VenueRepo) With(db DB) *VenueRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *VenueRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *VenueRepo) List(ctx context.Context) ([]domain.Venue, error) {
	const op = "postgresrepo.VenueRepo.List"

	db := r.handle()

	rows, err := db.Query(ctx,
		`SELECT id, name
		 FROM venues
		 ORDER BY id`,
	)
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

// Get retrieves a venue by its ID.
//
// Returns:
//   - error: repository.ErrNotFound if the venue does not exist.
func (r *VenueRepo) Get(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "postgresrepo.VenueRepo.Get"

	db := r.handle()

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, name
       	 FROM venues WHERE id = $1`,
		id,
	).Scan(&v.ID, &v.Name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *VenueRepo) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "postgresrepo.VenueRepo.GetByName"

	db := r.handle()

	var v domain.Venue
	err := db.QueryRow(ctx,
		`SELECT id, name
       	 FROM venues WHERE name = $1`,
		name,
	).Scan(&v.ID, &v.Name)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

// Create inserts a venue. A name already in use is reported as
// repository.ErrConflict by the unique index.
func (r *VenueRepo) Create(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "postgresrepo.VenueRepo.Create"

	db := r.handle()

	v := domain.Venue{Name: name}
	if err := db.QueryRow(ctx,
		`INSERT INTO venues(name)
       	 VALUES ($1)
     	 RETURNING id`,
		name,
	).Scan(&v.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *VenueRepo) Rename(ctx context.Context, id int64, name string) (*domain.Venue, error) {
	const op = "postgresrepo.VenueRepo.Rename"

	db := r.handle()

	var v domain.Venue
	if err := db.QueryRow(ctx,
		`UPDATE venues SET name = $2
		 WHERE id = $1
		 RETURNING id, name`,
		id, name,
	).Scan(&v.ID, &v.Name); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &v, nil
}

func (r *VenueRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgresrepo.VenueRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}
