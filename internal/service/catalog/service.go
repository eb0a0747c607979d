package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
	"github.com/kirinyoku/canteen-go/internal/uow"
)

// VenueCache caches the venue list. Venues calls load on a miss.
type VenueCache interface {
	Venues(ctx context.Context, load func(ctx context.Context) ([]domain.Venue, error)) ([]domain.Venue, error)
	InvalidateVenues(ctx context.Context) error
}

// ChangePublisher broadcasts committed catalog mutations.
type ChangePublisher interface {
	PublishCatalogChanged(ctx context.Context, change domain.CatalogChange) error
}

// AlertPublisher hands incomplete cascades to operators.
type AlertPublisher interface {
	PublishCascadeFailed(ctx context.Context, ev domain.CascadeFailedEvent) error
}

// Deps holds the collaborators of the Service. Store is required; a nil
// Locker falls back to a LocalLocker and the other collaborators are skipped
// when nil.
type Deps struct {
	Store   repository.Store
	Locker  Locker
	Cache   VenueCache
	Changes ChangePublisher
	Alerts  AlertPublisher
	Clock   clock.Clock
	Log     *slog.Logger
}

// Service keeps the venue_name copy on tickets consistent with the venue
// catalog. Catalog mutations commit before their ticket cascade starts.
type Service struct {
	store   repository.Store
	uow     *uow.UoW
	locker  Locker
	cache   VenueCache
	changes ChangePublisher
	alerts  AlertPublisher
	clock   clock.Clock
	log     *slog.Logger
}

func New(d Deps) *Service {
	if d.Locker == nil {
		d.Locker = NewLocalLocker()
	}

	if d.Clock == nil {
		d.Clock = clock.NewSystem()
	}

	if d.Log == nil {
		d.Log = slog.Default()
	}

	return &Service{
		store:   d.Store,
		uow:     uow.NewUoW(d.Store),
		locker:  d.Locker,
		cache:   d.Cache,
		changes: d.Changes,
		alerts:  d.Alerts,
		clock:   d.Clock,
		log:     d.Log.With("component", "catalog"),
	}
}

// ListVenues returns every venue ordered by id, through the cache when one
// is configured.
func (s *Service) ListVenues(ctx context.Context) ([]domain.Venue, error) {
	const op = "service.catalog.ListVenues"

	load := func(ctx context.Context) ([]domain.Venue, error) {
		return s.store.Venues().List(ctx)
	}

	var (
		venues []domain.Venue
		err    error
	)
	if s.cache != nil {
		venues, err = s.cache.Venues(ctx, load)
	} else {
		venues, err = load(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return venues, nil
}

func (s *Service) GetVenue(ctx context.Context, id int64) (*domain.Venue, error) {
	const op = "service.catalog.GetVenue"

	v, err := s.store.Venues().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapVenueErr(err))
	}

	return v, nil
}

// ListTicketsByVenue returns the tickets whose venue_name equals name. An
// empty name lists the tickets without a venue.
func (s *Service) ListTicketsByVenue(ctx context.Context, name string) ([]domain.Ticket, error) {
	const op = "service.catalog.ListTicketsByVenue"

	tickets, err := s.store.Tickets().ListByVenueName(ctx, CanonicalName(name))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return tickets, nil
}

// AddVenue creates a venue.
//
// Parameters:
//   - ctx: request-scoped context.
//   - name: venue name; normalised with NormalizeName.
//
// Returns:
//   - *domain.Venue: the created venue.
//   - error: ErrEmptyName or ErrNameTooLong before any store access,
//     ErrDuplicateName if the name is taken.
func (s *Service) AddVenue(ctx context.Context, name string) (*domain.Venue, error) {
	const op = "service.catalog.AddVenue"

	name, err := NormalizeName(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.lock(ctx, op)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var venue *domain.Venue
	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Store, after func(uow.AfterCommit)) error {
		v, err := tx.Venues().Create(ctx, name)
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapVenueErr(err))
		}
		venue = v

		after(s.changed(domain.CatalogChange{
			Kind:    domain.VenueAdded,
			VenueID: v.ID,
			Name:    v.Name,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "venue added", "venue_id", venue.ID, "name", venue.Name)

	return venue, nil
}

// RenameVenue renames a venue and then rewrites venue_name on every ticket
// that carried the old name.
//
// Parameters:
//   - ctx: request-scoped context.
//   - id: venue to rename.
//   - newName: new venue name; normalised with NormalizeName.
//
// Returns:
//   - *domain.RenameResult: the renamed venue and the cascade outcome. Tickets
//     that could not be updated are listed in Failures; that is not an error.
//   - error: ErrEmptyName or ErrNameTooLong, ErrVenueNotFound, or
//     ErrDuplicateName. On error no ticket has been touched.
func (s *Service) RenameVenue(ctx context.Context, id int64, newName string) (*domain.RenameResult, error) {
	const op = "service.catalog.RenameVenue"

	newName, err := NormalizeName(newName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	unlock, err := s.lock(ctx, op)
	if err != nil {
		return nil, err
	}
	defer unlock()

	var (
		old     domain.Venue
		renamed domain.Venue
	)
	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Store, after func(uow.AfterCommit)) error {
		current, err := tx.Venues().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapVenueErr(err))
		}
		old, renamed = *current, *current

		if current.Name == newName {
			return nil
		}

		other, err := tx.Venues().GetByName(ctx, newName)
		switch {
		case err == nil && other.ID != id:
			return fmt.Errorf("%s: %w", op, ErrDuplicateName)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("%s: %w", op, err)
		}

		v, err := tx.Venues().Rename(ctx, id, newName)
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapVenueErr(err))
		}
		renamed = *v

		after(s.changed(domain.CatalogChange{
			Kind:    domain.VenueRenamed,
			VenueID: v.ID,
			Name:    v.Name,
			OldName: old.Name,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &domain.RenameResult{Venue: renamed, OldName: old.Name}
	if old.Name == renamed.Name {
		return res, nil
	}

	tickets, err := s.store.Tickets().ListByVenueName(ctx, old.Name)
	if err != nil {
		res.CascadeError = err.Error()
		s.log.WarnContext(ctx, "rename cascade could not enumerate tickets",
			"venue_id", id, "old_name", old.Name, "err", err)
	} else {
		newRef := renamed.Name
		res.TicketsUpdated, res.Failures = s.cascade(ctx, tickets, domain.TicketPatch{VenueName: &newRef})
		res.TicketsFailed = len(res.Failures)
	}

	s.log.InfoContext(ctx, "venue renamed",
		"venue_id", id,
		"old_name", old.Name,
		"name", renamed.Name,
		"tickets_updated", res.TicketsUpdated,
		"tickets_failed", res.TicketsFailed,
	)

	if res.Partial() {
		s.alert(ctx, domain.CascadeFailedEvent{
			Operation:    domain.CascadeRename,
			VenueID:      id,
			VenueName:    renamed.Name,
			OldName:      old.Name,
			Failures:     res.Failures,
			CascadeError: res.CascadeError,
		})
	}

	return res, nil
}

// VenueUsage reports how many tickets reference the venue, so a caller can
// pick a delete policy before anything is committed.
func (s *Service) VenueUsage(ctx context.Context, id int64) (*domain.VenueUsage, error) {
	const op = "service.catalog.VenueUsage"

	v, err := s.store.Venues().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapVenueErr(err))
	}

	n, err := s.store.Tickets().CountByVenueName(ctx, v.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &domain.VenueUsage{Venue: *v, ReferencingTickets: n}, nil
}

// DeleteVenue removes a venue under the given policy.
//
// DeletePolicyBlock counts the referencing tickets and deletes in the same
// store transaction, refusing with a *VenueInUseError when the count is not
// zero. DeletePolicyClear enumerates the referencing tickets, deletes the
// venue and then clears venue_name on each of them, best-effort.
//
// Returns:
//   - *domain.DeleteResult: the cascade outcome.
//   - error: ErrInvalidPolicy, ErrVenueNotFound, or *VenueInUseError.
func (s *Service) DeleteVenue(ctx context.Context, id int64, policy domain.DeletePolicy) (*domain.DeleteResult, error) {
	const op = "service.catalog.DeleteVenue"

	if !policy.Valid() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPolicy)
	}

	unlock, err := s.lock(ctx, op)
	if err != nil {
		return nil, err
	}
	defer unlock()

	if policy == domain.DeletePolicyBlock {
		return s.deleteBlocking(ctx, id)
	}

	return s.deleteClearing(ctx, id)
}

func (s *Service) deleteBlocking(ctx context.Context, id int64) (*domain.DeleteResult, error) {
	const op = "service.catalog.DeleteVenue"

	res := &domain.DeleteResult{VenueID: id, Policy: domain.DeletePolicyBlock}

	err := s.uow.Do(ctx, func(ctx context.Context, tx repository.Store, after func(uow.AfterCommit)) error {
		v, err := tx.Venues().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("%s: %w", op, mapVenueErr(err))
		}
		res.VenueName = v.Name

		n, err := tx.Tickets().CountByVenueName(ctx, v.Name)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if n > 0 {
			return fmt.Errorf("%s: %w", op, &VenueInUseError{VenueID: id, Name: v.Name, Count: n})
		}

		if err := tx.Venues().Delete(ctx, id); err != nil {
			return fmt.Errorf("%s: %w", op, mapVenueErr(err))
		}

		after(s.changed(domain.CatalogChange{
			Kind:    domain.VenueDeleted,
			VenueID: id,
			Name:    v.Name,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "venue deleted", "venue_id", id, "name", res.VenueName, "policy", res.Policy)

	return res, nil
}

func (s *Service) deleteClearing(ctx context.Context, id int64) (*domain.DeleteResult, error) {
	const op = "service.catalog.DeleteVenue"

	v, err := s.store.Venues().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapVenueErr(err))
	}

	tickets, err := s.store.Tickets().ListByVenueName(ctx, v.Name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	err = s.uow.Do(ctx, func(ctx context.Context, tx repository.Store, after func(uow.AfterCommit)) error {
		if err := tx.Venues().Delete(ctx, id); err != nil {
			return fmt.Errorf("%s: %w", op, mapVenueErr(err))
		}

		after(s.changed(domain.CatalogChange{
			Kind:    domain.VenueDeleted,
			VenueID: id,
			Name:    v.Name,
		}))
		return nil
	})
	if err != nil {
		return nil, err
	}

	none := ""
	res := &domain.DeleteResult{
		VenueID:            id,
		VenueName:          v.Name,
		Policy:             domain.DeletePolicyClear,
		ReferencingTickets: len(tickets),
	}
	res.TicketsCleared, res.Failures = s.cascade(ctx, tickets, domain.TicketPatch{VenueName: &none})
	res.TicketsFailed = len(res.Failures)

	s.log.InfoContext(ctx, "venue deleted",
		"venue_id", id,
		"name", v.Name,
		"policy", res.Policy,
		"tickets_cleared", res.TicketsCleared,
		"tickets_failed", res.TicketsFailed,
	)

	if res.Partial() {
		s.alert(ctx, domain.CascadeFailedEvent{
			Operation: domain.CascadeDelete,
			VenueID:   id,
			VenueName: v.Name,
			Failures:  res.Failures,
		})
	}

	return res, nil
}

// Repair clears venue_name on every ticket that names a venue which no longer
// exists. A second run right after a clean one finds nothing.
func (s *Service) Repair(ctx context.Context) (*domain.RepairReport, error) {
	const op = "service.catalog.Repair"

	unlock, err := s.lock(ctx, op)
	if err != nil {
		return nil, err
	}
	defer unlock()

	orphaned, err := s.store.Tickets().ListOrphaned(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	none := ""
	rep := &domain.RepairReport{Orphaned: len(orphaned)}
	rep.Cleared, rep.Failures = s.cascade(ctx, orphaned, domain.TicketPatch{VenueName: &none})
	rep.Failed = len(rep.Failures)

	s.log.InfoContext(ctx, "repair scan finished",
		"orphaned", rep.Orphaned,
		"cleared", rep.Cleared,
		"failed", rep.Failed,
	)

	if rep.Failed > 0 {
		s.alert(ctx, domain.CascadeFailedEvent{
			Operation: domain.CascadeRepair,
			Failures:  rep.Failures,
		})
	}

	return rep, nil
}

// cascade applies patch to every ticket independently. A failed ticket is
// recorded and the loop moves on.
func (s *Service) cascade(
	ctx context.Context,
	tickets []domain.Ticket,
	patch domain.TicketPatch,
) (int, []domain.CascadeFailure) {
	var (
		done     int
		failures []domain.CascadeFailure
	)

	for _, t := range tickets {
		if err := s.store.Tickets().Update(ctx, t.ID, patch); err != nil {
			s.log.WarnContext(ctx, "ticket cascade update failed", "ticket_id", t.ID, "err", err)
			failures = append(failures, domain.CascadeFailure{TicketID: t.ID, Error: err.Error()})
			continue
		}
		done++
	}

	return done, failures
}

func (s *Service) lock(ctx context.Context, op string) (func(), error) {
	unlock, err := s.locker.Lock(ctx)
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		return nil, fmt.Errorf("%s: lock catalog: %w", op, err)
	}

	return unlock, nil
}

func (s *Service) changed(change domain.CatalogChange) uow.AfterCommit {
	return func(ctx context.Context) {
		change.TsUnix = s.clock.Now().Unix()

		if s.cache != nil {
			if err := s.cache.InvalidateVenues(ctx); err != nil {
				s.log.WarnContext(ctx, "invalidate venue cache", "err", err)
			}
		}

		if s.changes != nil {
			if err := s.changes.PublishCatalogChanged(ctx, change); err != nil {
				s.log.WarnContext(ctx, "publish catalog change", "kind", change.Kind, "err", err)
			}
		}
	}
}

func (s *Service) alert(ctx context.Context, ev domain.CascadeFailedEvent) {
	ev.OccurredAt = s.clock.Now()

	s.log.WarnContext(ctx, "cascade incomplete",
		"operation", ev.Operation,
		"venue_id", ev.VenueID,
		"failed", len(ev.Failures),
		"cascade_error", ev.CascadeError,
	)

	if s.alerts == nil {
		return
	}

	if err := s.alerts.PublishCascadeFailed(ctx, ev); err != nil {
		s.log.ErrorContext(ctx, "publish cascade alert", "operation", ev.Operation, "err", err)
	}
}

func mapVenueErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return ErrVenueNotFound
	case errors.Is(err, repository.ErrConflict):
		return ErrDuplicateName
	default:
		return err
	}
}
