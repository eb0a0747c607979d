package tickets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
)

const (
	MinPartySize = 1
	MaxPartySize = 10
)

// Input carries the fields of a new ticket.
type Input struct {
	EmployeeID int64
	HolderName string
	PartySize  int
	TicketType domain.TicketType
	OfferKind  domain.OfferKind
	VenueName  string
}

type Service struct {
	store  repository.Store
	locker catalog.Locker
	clock  clock.Clock
	log    *slog.Logger
}

// New builds the ticket service. locker must be the one shared with the
// catalog service so that a ticket naming a venue cannot interleave with a
// rename or delete cascade.
func New(store repository.Store, locker catalog.Locker, c clock.Clock, log *slog.Logger) *Service {
	if locker == nil {
		locker = catalog.NewLocalLocker()
	}

	if c == nil {
		c = clock.NewSystem()
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store:  store,
		locker: locker,
		clock:  c,
		log:    log.With("component", "tickets"),
	}
}

func (s *Service) List(ctx context.Context) ([]domain.Ticket, error) {
	const op = "service.tickets.List"

	out, err := s.store.Tickets().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) ListByEmployee(ctx context.Context, employeeID int64) ([]domain.Ticket, error) {
	const op = "service.tickets.ListByEmployee"

	out, err := s.store.Tickets().ListByEmployee(ctx, employeeID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Ticket, error) {
	const op = "service.tickets.Get"

	t, err := s.store.Tickets().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapTicketErr(err))
	}

	return t, nil
}

// Create validates in and stores a new ticket stamped with the service clock.
//
// Returns:
//   - *domain.Ticket: the stored ticket.
//   - error: ErrInvalidTicket for malformed fields, ErrUnknownVenue if
//     VenueName names no venue, ErrEmployeeNotFound for an unknown employee.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Ticket, error) {
	const op = "service.tickets.Create"

	t, err := in.ticket()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	t.CreatedAt = s.clock.Now()

	var created *domain.Ticket
	err = s.withVenue(ctx, op, t.VenueName, func() error {
		var err error
		created, err = s.store.Tickets().Create(ctx, t)
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapTicketErr(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "ticket created",
		"ticket_id", created.ID,
		"employee_id", created.EmployeeID,
		"venue", created.VenueName,
	)

	return created, nil
}

// Update applies a partial update and returns the ticket as stored.
func (s *Service) Update(ctx context.Context, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	const op = "service.tickets.Update"

	patch, err := normalizePatch(patch)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	venue := ""
	if patch.VenueName != nil {
		venue = *patch.VenueName
	}

	err = s.withVenue(ctx, op, venue, func() error {
		if err := s.store.Tickets().Update(ctx, id, patch); err != nil {
			return fmt.Errorf("%s: %w", op, mapTicketErr(err))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.tickets.Delete"

	if err := s.store.Tickets().Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapTicketErr(err))
	}

	s.log.InfoContext(ctx, "ticket deleted", "ticket_id", id)

	return nil
}

// CreateOwn creates a ticket for the authenticated employee, ignoring any
// EmployeeID in in.
func (s *Service) CreateOwn(ctx context.Context, employeeID int64, in Input) (*domain.Ticket, error) {
	in.EmployeeID = employeeID
	return s.Create(ctx, in)
}

// UpdateOwn is Update restricted to the tickets of employeeID.
func (s *Service) UpdateOwn(ctx context.Context, employeeID, id int64, patch domain.TicketPatch) (*domain.Ticket, error) {
	const op = "service.tickets.UpdateOwn"

	if err := s.checkOwner(ctx, employeeID, id); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return s.Update(ctx, id, patch)
}

// DeleteOwn is Delete restricted to the tickets of employeeID.
func (s *Service) DeleteOwn(ctx context.Context, employeeID, id int64) error {
	const op = "service.tickets.DeleteOwn"

	if err := s.checkOwner(ctx, employeeID, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return s.Delete(ctx, id)
}

func (s *Service) checkOwner(ctx context.Context, employeeID, id int64) error {
	t, err := s.store.Tickets().Get(ctx, id)
	if err != nil {
		return mapTicketErr(err)
	}

	if t.EmployeeID != employeeID {
		return ErrForbidden
	}

	return nil
}

// withVenue runs write under the catalog lock after checking that venue
// exists. Writes without a venue skip both.
func (s *Service) withVenue(ctx context.Context, op, venue string, write func() error) error {
	if venue == "" {
		return write()
	}

	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		return fmt.Errorf("%s: lock catalog: %w", op, err)
	}
	defer unlock()

	if _, err := s.store.Venues().GetByName(ctx, venue); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%s: %w: %q", op, ErrUnknownVenue, venue)
		}
		return fmt.Errorf("%s: %w", op, err)
	}

	return write()
}

func (in Input) ticket() (domain.Ticket, error) {
	t := domain.Ticket{
		EmployeeID: in.EmployeeID,
		HolderName: strings.TrimSpace(in.HolderName),
		PartySize:  in.PartySize,
		TicketType: in.TicketType,
		OfferKind:  in.OfferKind,
		VenueName:  catalog.CanonicalName(in.VenueName),
	}

	if t.EmployeeID <= 0 {
		return t, invalid("employee_id is required")
	}
	if err := validateHolder(t.HolderName); err != nil {
		return t, err
	}
	if err := validatePartySize(t.PartySize); err != nil {
		return t, err
	}
	if !t.TicketType.Valid() {
		return t, invalid("ticket_type must be subsidized or non-subsidized")
	}
	if !t.OfferKind.Valid() {
		return t, invalid("offer_kind must be self-service or sandwich")
	}

	return t, nil
}

func normalizePatch(p domain.TicketPatch) (domain.TicketPatch, error) {
	if p.Empty() {
		return p, ErrEmptyPatch
	}

	if p.HolderName != nil {
		h := strings.TrimSpace(*p.HolderName)
		if err := validateHolder(h); err != nil {
			return p, err
		}
		p.HolderName = &h
	}
	if p.PartySize != nil {
		if err := validatePartySize(*p.PartySize); err != nil {
			return p, err
		}
	}
	if p.TicketType != nil && !p.TicketType.Valid() {
		return p, invalid("ticket_type must be subsidized or non-subsidized")
	}
	if p.OfferKind != nil && !p.OfferKind.Valid() {
		return p, invalid("offer_kind must be self-service or sandwich")
	}
	if p.VenueName != nil {
		v := catalog.CanonicalName(*p.VenueName)
		p.VenueName = &v
	}

	return p, nil
}

func validateHolder(h string) error {
	if h == "" {
		return invalid("holder_name is required")
	}
	return nil
}

func validatePartySize(n int) error {
	if n < MinPartySize || n > MaxPartySize {
		return invalid(fmt.Sprintf("party_size must be between %d and %d", MinPartySize, MaxPartySize))
	}
	return nil
}

func invalid(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidTicket, reason)
}

func mapTicketErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrTicketNotFound
	case errors.Is(err, repository.ErrForeignKey):
		return ErrEmployeeNotFound
	default:
		return err
	}
}
