package seed

import (
	"context"
	"errors"
	"slices"
	"testing"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/user"
	"marketplace/internal/infrastructure/memory"
	"marketplace/internal/shared/auth"
)

func TestRun_SeedsEmptyStore(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	res, err := Run(ctx, store.Products(), store.Users(), "Pa$$w0rd")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Products != 3 || res.Users != 3 {
		t.Errorf("Run() = %+v, want 3 products and 3 users", res)
	}

	products, _ := store.Products().List(ctx)
	if len(products) != 3 || products[0].Name != "Super Mario World" {
		t.Errorf("products = %+v", products)
	}

	admin, err := store.Users().GetByUserName(ctx, "galkadi")
	if err != nil {
		t.Fatalf("GetByUserName(galkadi) error = %v", err)
	}
	if !slices.Contains(admin.Roles, access.RoleAdmin) {
		t.Error("galkadi should be an admin")
	}
	if err := auth.VerifyPassword(admin.PasswordHash, "Pa$$w0rd"); err != nil {
		t.Errorf("seeded password does not verify: %v", err)
	}

	bob, _ := store.Users().GetByUserName(ctx, "bob")
	if !slices.Equal(bob.Roles, []string{access.RoleUser}) {
		t.Errorf("bob roles = %v", bob.Roles)
	}
}

func TestRun_Idempotent(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	if _, err := Run(ctx, store.Products(), store.Users(), "pw"); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}
	res, err := Run(ctx, store.Products(), store.Users(), "pw")
	if err != nil {
		t.Fatalf("second Run() error = %v", err)
	}
	if res.Products != 0 || res.Users != 0 {
		t.Errorf("second Run() = %+v, want nothing created", res)
	}

	users, _ := store.Users().List(ctx)
	if len(users) != 3 {
		t.Errorf("len(users) = %d, want 3", len(users))
	}
}

func TestRun_KeepsExistingAccounts(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	hash, _ := auth.HashPassword("original")
	if _, err := store.Users().Create(ctx, user.CreateUserParams{UserName: "bob", PasswordHash: hash, Roles: []string{access.RoleUser}}); err != nil {
		t.Fatal(err)
	}

	res, err := Run(ctx, store.Products(), store.Users(), "seeded")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Users != 2 {
		t.Errorf("Users created = %d, want 2", res.Users)
	}

	bob, _ := store.Users().GetByUserName(ctx, "bob")
	if err := auth.VerifyPassword(bob.PasswordHash, "original"); err != nil {
		t.Error("existing account password was replaced")
	}
}

func TestRun_RequiresPassword(t *testing.T) {
	store := memory.NewStore()
	if _, err := Run(context.Background(), store.Products(), store.Users(), ""); err == nil {
		t.Error("Run() expected error for empty password")
	}
}

type failingUsers struct {
	user.Repository
}

func (failingUsers) GetByUserName(ctx context.Context, userName string) (*user.User, error) {
	return nil, errors.New("connection refused")
}

func TestRun_LookupFailure(t *testing.T) {
	store := memory.NewStore()
	_, err := Run(context.Background(), store.Products(), failingUsers{}, "pw")
	if err == nil {
		t.Fatal("Run() expected error when user lookup fails")
	}
}
