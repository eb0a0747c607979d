package employees

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"unicode/utf8"

	"github.com/kirinyoku/canteen-go/internal/auth"
	"github.com/kirinyoku/canteen-go/internal/clock"
	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/repository"
)

const (
	MinLoginLength    = 3
	MinPasswordLength = 4
)

type Config struct {
	BcryptCost int
}

// RegisterInput carries a new employee. An empty Role registers a plain
// employee.
type RegisterInput struct {
	ID       int64
	Login    string
	FullName string
	Email    string
	Address  string
	Password string
	Role     domain.Role
}

// UpdateInput is a partial employee update. Nil fields are left unchanged.
type UpdateInput struct {
	Login    *string
	FullName *string
	Email    *string
	Address  *string
	Password *string
	Role     *domain.Role
}

// Session is the result of a successful login.
type Session struct {
	Token    auth.Token      `json:"token"`
	Employee domain.Employee `json:"employee"`
}

type Service struct {
	store  repository.Store
	tokens *auth.Issuer
	clock  clock.Clock
	cfg    Config
	log    *slog.Logger
}

func New(store repository.Store, tokens *auth.Issuer, c clock.Clock, log *slog.Logger, cfg Config) *Service {
	if c == nil {
		c = clock.NewSystem()
	}

	if log == nil {
		log = slog.Default()
	}

	return &Service{
		store:  store,
		tokens: tokens,
		clock:  c,
		cfg:    cfg,
		log:    log.With("component", "employees"),
	}
}

// Register creates an employee with a bcrypt-hashed password.
//
// Returns:
//   - *domain.Employee: the stored employee.
//   - error: ErrInvalidEmployee, ErrEmployeeExists for a taken id,
//     ErrEmailTaken or ErrLoginTaken.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Employee, error) {
	const op = "service.employees.Register"

	e := domain.Employee{
		ID:       in.ID,
		Login:    strings.TrimSpace(in.Login),
		FullName: strings.TrimSpace(in.FullName),
		Email:    strings.ToLower(strings.TrimSpace(in.Email)),
		Address:  strings.TrimSpace(in.Address),
		Role:     in.Role,
	}
	if e.Role == "" {
		e.Role = domain.RoleEmployee
	}

	if err := validateNew(e, in.Password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.checkAvailable(ctx, e.ID, e.Login, e.Email); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	hash, err := auth.HashPassword(in.Password, s.cfg.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	e.PasswordHash = hash
	e.CreatedAt = s.clock.Now()

	if err := s.store.Employees().Create(ctx, e); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, ErrEmployeeExists)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.InfoContext(ctx, "employee registered", "employee_id", e.ID, "role", e.Role)

	return &e, nil
}

// Login accepts either the login or the e-mail address as identifier.
func (s *Service) Login(ctx context.Context, identifier, password string) (*Session, error) {
	const op = "service.employees.Login"

	identifier = strings.TrimSpace(identifier)

	e, err := s.store.Employees().GetByLogin(ctx, identifier)
	if errors.Is(err, repository.ErrNotFound) {
		e, err = s.store.Employees().GetByEmail(ctx, strings.ToLower(identifier))
	}
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := auth.VerifyPassword(e.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	tok, err := s.tokens.Issue(e.ID, e.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Session{Token: tok, Employee: *e}, nil
}

func (s *Service) List(ctx context.Context) ([]domain.Employee, error) {
	const op = "service.employees.List"

	out, err := s.store.Employees().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*domain.Employee, error) {
	const op = "service.employees.Get"

	e, err := s.store.Employees().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapEmployeeErr(err))
	}

	return e, nil
}

func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*domain.Employee, error) {
	const op = "service.employees.Update"

	current, err := s.store.Employees().Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapEmployeeErr(err))
	}

	var patch domain.EmployeePatch

	if in.Login != nil {
		login := strings.TrimSpace(*in.Login)
		if err := validateLogin(login); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if login != current.Login {
			if err := s.checkAvailable(ctx, 0, login, ""); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		patch.Login = &login
	}

	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		if err := validateEmail(email); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if email != current.Email {
			if err := s.checkAvailable(ctx, 0, "", email); err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
		}
		patch.Email = &email
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		patch.FullName = &name
	}

	if in.Address != nil {
		addr := strings.TrimSpace(*in.Address)
		patch.Address = &addr
	}

	if in.Role != nil {
		if !in.Role.Valid() {
			return nil, fmt.Errorf("%s: %w: unknown role %q", op, ErrInvalidEmployee, *in.Role)
		}
		patch.Role = in.Role
	}

	if in.Password != nil {
		if err := validatePassword(*in.Password); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		hash, err := auth.HashPassword(*in.Password, s.cfg.BcryptCost)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		patch.PasswordHash = &hash
	}

	if err := s.store.Employees().Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			if patch.Email != nil {
				return nil, fmt.Errorf("%s: %w", op, ErrEmailTaken)
			}
			return nil, fmt.Errorf("%s: %w", op, ErrLoginTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, mapEmployeeErr(err))
	}

	return s.Get(ctx, id)
}

// Delete removes the employee. The store drops their tickets with them.
func (s *Service) Delete(ctx context.Context, id int64) error {
	const op = "service.employees.Delete"

	if err := s.store.Employees().Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapEmployeeErr(err))
	}

	s.log.InfoContext(ctx, "employee deleted", "employee_id", id)

	return nil
}

// checkAvailable reports which unique field is already taken. Zero values
// are skipped.
func (s *Service) checkAvailable(ctx context.Context, id int64, login, email string) error {
	repo := s.store.Employees()

	checks := []struct {
		skip   bool
		lookup func() (*domain.Employee, error)
		taken  error
	}{
		{id == 0, func() (*domain.Employee, error) { return repo.Get(ctx, id) }, ErrEmployeeExists},
		{login == "", func() (*domain.Employee, error) { return repo.GetByLogin(ctx, login) }, ErrLoginTaken},
		{email == "", func() (*domain.Employee, error) { return repo.GetByEmail(ctx, email) }, ErrEmailTaken},
	}

	for _, c := range checks {
		if c.skip {
			continue
		}
		_, err := c.lookup()
		switch {
		case err == nil:
			return c.taken
		case !errors.Is(err, repository.ErrNotFound):
			return err
		}
	}

	return nil
}

func validateNew(e domain.Employee, password string) error {
	if e.ID <= 0 {
		return fmt.Errorf("%w: id must be positive", ErrInvalidEmployee)
	}
	if err := validateLogin(e.Login); err != nil {
		return err
	}
	if e.FullName == "" {
		return fmt.Errorf("%w: full_name is required", ErrInvalidEmployee)
	}
	if err := validateEmail(e.Email); err != nil {
		return err
	}
	if !e.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidEmployee, e.Role)
	}
	return validatePassword(password)
}

func validateLogin(login string) error {
	if utf8.RuneCountInString(login) < MinLoginLength {
		return fmt.Errorf("%w: login must be at least %d characters", ErrInvalidEmployee, MinLoginLength)
	}
	return nil
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return fmt.Errorf("%w: email is not valid", ErrInvalidEmployee)
	}
	return nil
}

func validatePassword(p string) error {
	if utf8.RuneCountInString(p) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidEmployee, MinPasswordLength)
	}
	return nil
}

func mapEmployeeErr(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrEmployeeNotFound
	}
	return err
}
