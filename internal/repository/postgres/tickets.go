package postgresrepo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

const ticketColumns = `id, employee_id, holder_name, party_size, ticket_type, offer_kind, venue_name, created_at`

type TicketRepo struct {
	pool *pgxpool.Pool
	db   DB
}

func (r *TicketRepo) With(db DB) *TicketRepo {
	cp := *r
	cp.db = db
	return &cp
}

func (r *TicketRepo) handle() DB {
	if r.db != nil {
		return r.db
	}
	return r.pool
}

func (r *TicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.List"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+`
		 FROM tickets
		 ORDER BY id`,
	)
}

func (r *TicketRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.ListByEmployee"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+`
		 FROM tickets
		 WHERE employee_id = $1
		 ORDER BY id`,
		employeeID,
	)
}

// ListByVenueName returns tickets whose venue_name equals name exactly.
func (r *TicketRepo) ListByVenueName(ctx context.Context, name string) ([]domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.ListByVenueName"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+`
		 FROM tickets
		 WHERE venue_name = $1
		 ORDER BY id`,
		name,
	)
}

func (r *TicketRepo) CountByVenueName(ctx context.Context, name string) (int, error) {
	const op = "postgresrepo.TicketRepo.CountByVenueName"

	db := r.handle()

	var n int
	if err := db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tickets WHERE venue_name = $1`,
		name,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (r *TicketRepo) ListOrphaned(ctx context.Context) ([]domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.ListOrphaned"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+`
		 FROM tickets t
		 WHERE t.venue_name <> ''
		   AND NOT EXISTS (SELECT 1 FROM venues v WHERE v.name = t.venue_name)
		 ORDER BY t.id`,
	)
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.Get"

	db := r.handle()

	t, err := scanTicket(db.QueryRow(ctx,
		`SELECT `+ticketColumns+`
		 FROM tickets WHERE id = $1`,
		id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return t, nil
}

// Create inserts a ticket. An unknown employee is reported as
// repository.ErrForeignKey.
func (r *TicketRepo) Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	const op = "postgresrepo.TicketRepo.Create"

	db := r.handle()

	if err := db.QueryRow(ctx,
		`INSERT INTO tickets(employee_id, holder_name, party_size, ticket_type, offer_kind, venue_name, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		t.EmployeeID,
		t.HolderName,
		t.PartySize,
		string(t.TicketType),
		string(t.OfferKind),
		t.VenueName,
		t.CreatedAt,
	).Scan(&t.ID); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

// Update applies a partial update; nil patch fields keep their stored value.
func (r *TicketRepo) Update(ctx context.Context, id int64, patch domain.TicketPatch) error {
	const op = "postgresrepo.TicketRepo.Update"

	db := r.handle()

	tag, err := db.Exec(ctx,
		`UPDATE tickets SET
		   holder_name = COALESCE($2, holder_name),
		   party_size  = COALESCE($3, party_size),
		   ticket_type = COALESCE($4, ticket_type),
		   offer_kind  = COALESCE($5, offer_kind),
		   venue_name  = COALESCE($6, venue_name)
		 WHERE id = $1`,
		id,
		patch.HolderName,
		patch.PartySize,
		stringPtr(patch.TicketType),
		stringPtr(patch.OfferKind),
		patch.VenueName,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) Delete(ctx context.Context, id int64) error {
	const op = "postgresrepo.TicketRepo.Delete"

	db := r.handle()

	tag, err := db.Exec(ctx, `DELETE FROM tickets WHERE id = $1`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}

	return nil
}

func (r *TicketRepo) list(ctx context.Context, op, sql string, args ...any) ([]domain.Ticket, error) {
	db := r.handle()

	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	defer rows.Close()

	out := make([]domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, wrapDBErr(op, err)
		}

		out = append(out, *t)
	}

	if err := rows.Err(); err != nil {
		return nil, wrapDBErr(op, err)
	}

	return out, nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var (
		t                     domain.Ticket
		ticketType, offerKind string
	)

	if err := row.Scan(
		&t.ID,
		&t.EmployeeID,
		&t.HolderName,
		&t.PartySize,
		&ticketType,
		&offerKind,
		&t.VenueName,
		&t.CreatedAt,
	); err != nil {
		return nil, err
	}

	t.TicketType = domain.TicketType(ticketType)
	t.OfferKind = domain.OfferKind(offerKind)

	return &t, nil
}

func stringPtr[T ~string](v *T) *string {
	if v == nil {
		return nil
	}
	s := string(*v)
	return &s
}
