// Package seed loads the demo catalog and accounts into an empty store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/product"
	"marketplace/internal/domain/user"
	"marketplace/internal/shared/auth"
)

var Products = []product.Params{
	{Name: "Super Mario World", Description: "Super Nintendo (SNES) System"},
	{Name: "Donkey Kong 64", Description: "Donkey Kong 64 cartridge for the Nintendo 64"},
	{Name: "Half-Life 2: Collector's Edition", Description: "PC platform release of the 2004 wonder"},
}

type Account struct {
	UserName string
	Roles    []string
}

var Accounts = []Account{
	{UserName: "bob", Roles: []string{access.RoleUser}},
	{UserName: "sue", Roles: []string{access.RoleUser}},
	{UserName: "galkadi", Roles: []string{access.RoleAdmin}},
}

// Result counts what a run created.
type Result struct {
	Products int
	Users    int
}

// Run creates each seed product whose name is not yet taken and each seed
// account that does not exist, all sharing password. Running it twice is a
// no-op the second time.
func Run(ctx context.Context, products product.Repository, users user.Repository, password string) (Result, error) {
	var res Result
	if password == "" {
		return res, errors.New("seed password is required")
	}

	existing, err := products.List(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to list products: %w", err)
	}
	names := make(map[string]bool, len(existing))
	for _, p := range existing {
		names[p.Name] = true
	}

	for _, p := range Products {
		if names[p.Name] {
			continue
		}
		if _, err := products.Create(ctx, p); err != nil {
			return res, fmt.Errorf("failed to seed product %q: %w", p.Name, err)
		}
		res.Products++
	}

	var hash string
	for _, a := range Accounts {
		_, err := users.GetByUserName(ctx, a.UserName)
		if err == nil {
			continue
		}
		if !errors.Is(err, user.ErrUserNotFound) {
			return res, fmt.Errorf("failed to look up user %q: %w", a.UserName, err)
		}

		if hash == "" {
			if hash, err = auth.HashPassword(password); err != nil {
				return res, err
			}
		}
		_, err = users.Create(ctx, user.CreateUserParams{UserName: a.UserName, PasswordHash: hash, Roles: a.Roles})
		if err != nil && !errors.Is(err, user.ErrUserNameTaken) {
			return res, fmt.Errorf("failed to seed user %q: %w", a.UserName, err)
		}
		if err == nil {
			res.Users++
		}
	}

	log.Printf("Seed complete: %d products, %d users created", res.Products, res.Users)
	return res, nil
}
