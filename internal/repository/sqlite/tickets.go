package sqliterepo

import (
	"context"
	"time"

	"github.com/kirinyoku/canteen-go/internal/domain"
)

const ticketColumns = `id, employee_id, holder_name, party_size, ticket_type, offer_kind, venue_name, created_at`

type TicketRepo struct {
	db DB
}

func (r *TicketRepo) List(ctx context.Context) ([]domain.Ticket, error) {
	const op = "sqliterepo.TicketRepo.List"

	return r.list(ctx, op, `SELECT `+ticketColumns+` FROM tickets ORDER BY id`)
}

func (r *TicketRepo) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Ticket, error) {
	const op = "sqliterepo.TicketRepo.ListByEmployee"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+` FROM tickets WHERE employee_id = ? ORDER BY id`,
		employeeID,
	)
}

// ListByVenueName uses "=" under the default BINARY collation, so the match
// is exact and case-sensitive.
func (r *TicketRepo) ListByVenueName(ctx context.Context, name string) ([]domain.Ticket, error) {
	const op = "sqliterepo.TicketRepo.ListByVenueName"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+` FROM tickets WHERE venue_name = ? ORDER BY id`,
		name,
	)
}

func (r *TicketRepo) CountByVenueName(ctx context.Context, name string) (int, error) {
	const op = "sqliterepo.TicketRepo.CountByVenueName"

	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tickets WHERE venue_name = ?`, name,
	).Scan(&n); err != nil {
		return 0, wrapDBErr(op, err)
	}

	return n, nil
}

func (r *TicketRepo) ListOrphaned(ctx context.Context) ([]domain.Ticket, error) {
	const op = "sqliterepo.TicketRepo.ListOrphaned"

	return r.list(ctx, op,
		`SELECT `+ticketColumns+`
		 FROM tickets t
		 WHERE t.venue_name <> ''
		   AND NOT EXISTS (SELECT 1 FROM venues v WHERE v.name = t.venue_name)
		 ORDER BY t.id`,
	)
}

func (r *TicketRepo) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "sqliterepo.TicketRepo.Get"

	t, err := scanTicket(r.db.QueryRowContext(ctx,
		`SELECT `+ticketColumns+` FROM tickets WHERE id = ?`, id,
	))
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return t, nil
}

func (r *TicketRepo) Create(ctx context.Context, t domain.Ticket) (*domain.Ticket, error) {
	const op = "sqliterepo.TicketRepo.Create"

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (employee_id, holder_name, party_size, ticket_type, offer_kind, venue_name, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.EmployeeID,
		t.HolderName,
		t.PartySize,
		string(t.TicketType),
		string(t.OfferKind),
		t.VenueName,
		t.CreatedAt.UTC(),
	)
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return nil, wrapDBErr(op, err)
	}

	return &t, nil
}

func (r *TicketRepo) Update(ctx context.Context, id int64, patch domain.TicketPatch) error {
	const op = "sqliterepo.TicketRepo.Update"

	res, err := r.db.ExecContext(ctx,
		`UPDATE tickets SET
		   holder_name = COALESCE(?, holder_name),
		   party_size  = COALESCE(?, party_size),
		   ticket_type = COALESCE(?, ticket_type),
		   offer_kind  = COALESCE(?, offer_kind),
		   venue_name  = COALESCE(?, venue_name)
		 WHERE id = ?`,
		nullable(patch.HolderName),
		nullable(patch.PartySize),
		nullableString(patch.TicketType),
		nullableString(patch.OfferKind),
		nullable(patch.VenueName),
		id,
	)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return requireAffected(op, res)
}

func (r *TicketRepo) Delete(ctx context.Context, id int64) error {
	const op = "sqliterepo.TicketRepo.Delete"

	res, err := r.db.ExecContext(ctx, `DELETE FROM tickets WHERE id = ?`, id)
	if err != nil {
		return wrapDBErr(op, err)
	}

	return requireAffected(op, res)
}

func (r *TicketRepo) list(ctx context.Context, op, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanTicket(row scanner) (*domain.Ticket, error) {
	var (
		t                     domain.Ticket
		ticketType, offerKind string
		createdAt             time.Time
	)

	if err := row.Scan(
		&t.ID,
		&t.EmployeeID,
		&t.HolderName,
		&t.PartySize,
		&ticketType,
		&offerKind,
		&t.VenueName,
		&createdAt,
	); err != nil {
		return nil, err
	}

	t.TicketType = domain.TicketType(ticketType)
	t.OfferKind = domain.OfferKind(offerKind)
	t.CreatedAt = createdAt.UTC()

	return &t, nil
}

// nullable turns a nil pointer into SQL NULL so COALESCE keeps the column.
func nullable[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullableString[T ~string](v *T) any {
	if v == nil {
		return nil
	}
	return string(*v)
}
