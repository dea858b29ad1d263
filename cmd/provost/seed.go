package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/provosthq/provost/internal/auth"
	"github.com/provosthq/provost/internal/config"
	"github.com/provosthq/provost/internal/membership"
	"github.com/provosthq/provost/internal/principal"
	"github.com/provosthq/provost/internal/rbac"
	"github.com/provosthq/provost/internal/tenant"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed a demo tenant with one principal per role",
	RunE:  runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)
}

const (
	demoTenantName = "Research X Institute"
	demoTenantSlug = "research-x"
	demoPassword   = "Password123!"
)

type demoPrincipal struct {
	email     string
	firstName string
	lastName  string
	role      rbac.RoleKey
}

var demoPrincipals = []demoPrincipal{
	{"admin@research-x.test", "Priya", "Raman", rbac.RoleAdmin},
	{"supervisor@research-x.test", "Marcus", "Webb", rbac.RoleSupervisor},
	{"scholar@research-x.test", "Lin", "Zhao", rbac.RoleScholar},
	{"developer@research-x.test", "Tomas", "Keller", rbac.RoleDeveloper},
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	tenantStore := tenant.NewStore(pool)
	principalStore := principal.NewStore(pool)
	membershipStore := membership.NewStore(pool)

	// Check if seed has already run.
	if _, err := tenantStore.GetBySlug(ctx, demoTenantSlug); err == nil {
		slog.Info("demo tenant already exists, skipping seed")
		return nil
	} else if !errors.Is(err, tenant.ErrNotFound) {
		return fmt.Errorf("checking for demo tenant: %w", err)
	}

	hash, err := auth.HashPassword(demoPassword)
	if err != nil {
		return fmt.Errorf("hashing demo password: %w", err)
	}

	result, err := tenantStore.Provision(ctx, tenant.ProvisionInput{
		TenantName:   demoTenantName,
		TenantSlug:   demoTenantSlug,
		Email:        "dean@research-x.test",
		PasswordHash: hash,
		FirstName:    "Asha",
		LastName:     "Patel",
		DisplayName:  "Dean Asha Patel",
	})
	if err != nil {
		return fmt.Errorf("provisioning demo tenant: %w", err)
	}
	slog.Info("provisioned demo tenant", "slug", result.TenantSlug, "id", result.TenantID)

	for _, demo := range demoPrincipals {
		p, err := principalStore.Create(ctx, principal.CreatePrincipalInput{
			Email:           demo.email,
			PasswordHash:    hash,
			FirstName:       demo.firstName,
			LastName:        demo.lastName,
			DefaultTenantID: result.TenantID,
			ActiveTenantID:  result.TenantID,
		})
		if err != nil {
			return fmt.Errorf("creating principal %q: %w", demo.email, err)
		}

		roleID, err := tenantStore.RoleID(ctx, result.TenantID, demo.role)
		if err != nil {
			return err
		}

		if _, err := membershipStore.Create(ctx, membership.CreateMembershipInput{
			PrincipalID: p.ID,
			TenantID:    result.TenantID,
			RoleID:      roleID,
			Status:      membership.StatusActive,
			Primary:     true,
		}); err != nil {
			return fmt.Errorf("creating membership for %q: %w", demo.email, err)
		}
		slog.Info("created demo principal", "email", demo.email, "role", demo.role)
	}

	fmt.Printf("\n=== Demo Data Seeded ===\n")
	fmt.Printf("Tenant:    %s (/%s)\n", demoTenantName, demoTenantSlug)
	fmt.Printf("Founder:   dean@research-x.test (SUPER_ADMIN)\n")
	fmt.Printf("Accounts:  %d more, one per role\n", len(demoPrincipals))
	fmt.Printf("Password:  %s (all accounts)\n", demoPassword)
	fmt.Printf("\nTry it:\n")
	fmt.Printf("  curl -X POST http://localhost:8080/api/auth/login -d '{\"email\":\"dean@research-x.test\",\"password\":\"%s\"}'\n", demoPassword)

	return nil
}
