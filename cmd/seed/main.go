package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"mgtrako/internal/config"
	"mgtrako/internal/db"
	"mgtrako/internal/model"
	"mgtrako/internal/policy"
	"mgtrako/internal/repository"
	"mgtrako/internal/service"
	"mgtrako/internal/shipment"
)

// seedUser is a login created for local development.
type seedUser struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

var seedUsers = []seedUser{
	{Name: "Admin User", Email: "admin@mgtrako.local", Password: "adminpass", Role: model.RoleAdmin},
	{Name: "Customer Service", Email: "cs@mgtrako.local", Password: "cspass", Role: model.RoleCustomerService},
	{Name: "Warehouse", Email: "warehouse@mgtrako.local", Password: "whpass", Role: model.RoleWarehouse},
	{Name: "Report Runner", Email: "reports@mgtrako.local", Password: "rrpass", Role: model.RoleReportRunner},
	{Name: "Pending User", Email: "pending@mgtrako.local", Password: "pendingpass", Role: model.RolePending},
}

var seedParts = []service.PartInput{
	{PartNumber: "12345678", Description: "Wiring harness, front", Weight: decimal.RequireFromString("2.400"), Dimensions: "40x30x12"},
	{PartNumber: "23456789", Description: "Connector housing", Weight: decimal.RequireFromString("0.150"), Dimensions: "8x4x3"},
	{PartNumber: "34567890", Description: "Fuse box assembly", Weight: decimal.RequireFromString("1.100"), Dimensions: "20x15x9"},
	{PartNumber: "45678901", Description: "Sensor bracket", Weight: decimal.RequireFromString("0.320"), Dimensions: "12x6x2"},
}

func main() {
	var (
		count int
		reset bool
	)

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed users, catalog parts and sample must-go requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load()
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			gormDB, err := db.Open(db.Options{
				Driver:          cfg.DBDriver,
				DSN:             cfg.DatabaseDSN,
				MaxOpenConns:    cfg.DBMaxOpenConns,
				MaxIdleConns:    cfg.DBMaxIdleConns,
				ConnMaxLifetime: cfg.DBConnMaxLifetime,
			})
			if err != nil {
				return fmt.Errorf("connect to database: %w", err)
			}
			log.Println("Connected to database")

			return run(cmd.Context(), gormDB, count, reset)
		},
	}
	cmd.Flags().IntVar(&count, "count", 5, "number of sample requests to create")
	cmd.Flags().BoolVar(&reset, "clear", false, "drop and recreate all tables first")

	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, gormDB *gorm.DB, count int, reset bool) error {
	if reset {
		log.Println("Dropping all tables...")
		if err := db.Reset(gormDB); err != nil {
			return err
		}
	}
	if err := db.Migrate(gormDB); err != nil {
		return err
	}
	log.Println("Database migrations completed")

	store := repository.NewStore(gormDB)

	seeded, updated, err := seedAccounts(ctx, store.Users(), seedUsers)
	if err != nil {
		return fmt.Errorf("seed users: %w", err)
	}
	log.Printf("Users: %d created, %d updated", seeded, updated)

	parts, err := seedCatalog(ctx, store)
	if err != nil {
		return fmt.Errorf("seed parts: %w", err)
	}
	log.Printf("Catalog parts created: %d", parts)

	requests, err := seedRequests(ctx, store, count)
	if err != nil {
		return fmt.Errorf("seed requests: %w", err)
	}
	log.Printf("Sample requests created: %d", requests)

	log.Println("Seed completed successfully!")
	for _, u := range seedUsers {
		log.Printf("  - %-16s %s / %s", u.Role, u.Email, u.Password)
	}
	return nil
}

// seedAccounts creates the development users and restores the role of ones
// that already exist.
func seedAccounts(ctx context.Context, repo repository.UserRepository, users []seedUser) (seeded int, updated int, err error) {
	for _, u := range users {
		existing, err := repo.FindByEmail(ctx, u.Email)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return seeded, updated, fmt.Errorf("error checking user %s: %w", u.Email, err)
		}

		if existing != nil {
			if err := repo.UpdateRole(ctx, existing.ID, u.Role); err != nil {
				return seeded, updated, fmt.Errorf("error updating user %s: %w", u.Email, err)
			}
			updated++
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return seeded, updated, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		user := &model.User{Name: u.Name, Email: u.Email, PasswordHash: string(hash), Role: u.Role}
		if err := repo.Create(ctx, user); err != nil {
			return seeded, updated, fmt.Errorf("error creating user %s: %w", u.Email, err)
		}
		seeded++
	}
	return seeded, updated, nil
}

func seedCatalog(ctx context.Context, store repository.Store) (int, error) {
	admin, err := seedActor(ctx, store, model.RoleAdmin)
	if err != nil {
		return 0, err
	}
	parts := service.NewPartService(store, nil)

	created := 0
	for _, in := range seedParts {
		if _, err := store.Parts().FindByPartNumber(ctx, in.PartNumber); err == nil {
			continue
		}
		if _, err := parts.Create(ctx, admin, in); err != nil {
			return created, fmt.Errorf("create part %s: %w", in.PartNumber, err)
		}
		created++
	}
	return created, nil
}

// seedRequests raises count requests as customer service through the
// lifecycle service, so each one gets its creation log.
func seedRequests(ctx context.Context, store repository.Store, count int) (int, error) {
	cs, err := seedActor(ctx, store, model.RoleCustomerService)
	if err != nil {
		return 0, err
	}
	wh, err := seedActor(ctx, store, model.RoleWarehouse)
	if err != nil {
		return 0, err
	}
	requests := service.NewRequestService(store, nil, nil)

	for i := 0; i < count; i++ {
		first := seedParts[i%len(seedParts)]
		second := seedParts[(i+1)%len(seedParts)]
		in := service.RequestInput{
			ShipmentNumber: fmt.Sprintf("SHP-%05d", i+1),
			Plant:          fmt.Sprintf("P%03d", i%7+1),
			RouteInfo:      fmt.Sprintf("Route %d", i%3+1),
			Trailers: []shipment.TrailerGroup{
				{TrailerNumber: fmt.Sprintf("TRL-%03d", i%4+1), Parts: []shipment.PartLine{
					{PartNumber: first.PartNumber, Quantity: 24 * (i%3 + 1)},
					{PartNumber: second.PartNumber, Quantity: 10 + i},
				}},
			},
		}
		view, err := requests.Create(ctx, cs, in)
		if err != nil {
			return i, fmt.Errorf("create request %s: %w", in.ShipmentNumber, err)
		}

		if i%2 == 1 {
			status := service.UpdateStatusInput{Status: string(model.RequestStatusInProgress), Note: "Staged at dock"}
			if _, err := requests.UpdateStatus(ctx, wh, view.Request.ID, status); err != nil {
				return i, fmt.Errorf("update request %s: %w", in.ShipmentNumber, err)
			}
		}
	}
	return count, nil
}

func seedActor(ctx context.Context, store repository.Store, role model.Role) (policy.Actor, error) {
	for _, u := range seedUsers {
		if u.Role != role {
			continue
		}
		user, err := store.Users().FindByEmail(ctx, u.Email)
		if err != nil {
			return policy.Actor{}, fmt.Errorf("find %s user: %w", role, err)
		}
		return policy.Actor{ID: user.ID, Role: user.Role}, nil
	}
	return policy.Actor{}, fmt.Errorf("no seed user with role %s", role)
}
