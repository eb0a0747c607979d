package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kirinyoku/canteen-go/internal/domain"
	"github.com/kirinyoku/canteen-go/internal/service"
	"github.com/kirinyoku/canteen-go/internal/service/catalog"
	"github.com/kirinyoku/canteen-go/internal/service/employees"
)

// SeedFile is the YAML layout read by the seed command.
type SeedFile struct {
	Venues    []string       `yaml:"venues"`
	Employees []SeedEmployee `yaml:"employees"`
}

type SeedEmployee struct {
	ID       int64  `yaml:"id"`
	Login    string `yaml:"login"`
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

// SeedResult counts what a seed run created and what already existed.
type SeedResult struct {
	VenuesCreated    int `json:"venues_created"`
	VenuesSkipped    int `json:"venues_skipped"`
	EmployeesCreated int `json:"employees_created"`
	EmployeesSkipped int `json:"employees_skipped"`
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load venues and employees from a YAML file",
		Long: `Load venues and employees from a YAML file. Entries that already exist
are skipped, so the same file can be applied more than once.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			seed, err := readSeedFile(file)
			if err != nil {
				return err
			}

			rt, err := rootOpts.runtime(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := applySeed(cmd.Context(), rt.Services, seed)
			if err != nil {
				return err
			}

			return rootOpts.print(cmd.OutOrStdout(), res, func() string {
				return fmt.Sprintf("venues: %d created, %d skipped; employees: %d created, %d skipped",
					res.VenuesCreated, res.VenuesSkipped, res.EmployeesCreated, res.EmployeesSkipped)
			})
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "seed.yaml", "seed file")

	return cmd
}

func readSeedFile(path string) (*SeedFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var seed SeedFile
	if err := yaml.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file %s: %w", path, err)
	}

	return &seed, nil
}

func applySeed(ctx context.Context, svcs *service.Services, seed *SeedFile) (*SeedResult, error) {
	var res SeedResult

	for _, name := range seed.Venues {
		_, err := svcs.Catalog.AddVenue(ctx, name)
		switch {
		case err == nil:
			res.VenuesCreated++
		case errors.Is(err, catalog.ErrDuplicateName):
			res.VenuesSkipped++
		default:
			return nil, fmt.Errorf("venue %q: %w", name, err)
		}
	}

	for _, e := range seed.Employees {
		_, err := svcs.Employees.Register(ctx, employees.RegisterInput{
			ID:       e.ID,
			Login:    e.Login,
			FullName: e.FullName,
			Email:    e.Email,
			Address:  e.Address,
			Password: e.Password,
			Role:     domain.Role(e.Role),
		})
		switch {
		case err == nil:
			res.EmployeesCreated++
		case errors.Is(err, employees.ErrEmployeeExists),
			errors.Is(err, employees.ErrLoginTaken),
			errors.Is(err, employees.ErrEmailTaken):
			res.EmployeesSkipped++
		default:
			return nil, fmt.Errorf("employee %d: %w", e.ID, err)
		}
	}

	return &res, nil
}
