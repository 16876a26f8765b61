package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"testing"
	"time"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/item"
	"marketplace/internal/domain/listing"
	"marketplace/internal/domain/product"
	"marketplace/internal/domain/user"
	"marketplace/internal/shared/config"
)

// openTestDB connects to the database named by the DB_* variables and
// applies the migrations. Tests using it are skipped unless DB_HOST is set.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	if os.Getenv("DB_HOST") == "" {
		t.Skip("DB_HOST not set; skipping postgres repository tests")
	}

	cfg, err := config.LoadForAdmin()
	if err != nil {
		t.Fatalf("LoadForAdmin() error = %v", err)
	}
	db, err := New(cfg.Database.ConnectionString(), PoolConfig{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return db
}

type fixture struct {
	owner   *user.User
	product *product.Product
	items   []*item.Item
	listing *listing.Listing
}

// newFixture stores one user, one product, n items and a listing, and
// removes them again when the test ends.
func newFixture(t *testing.T, db *DB, n int) fixture {
	t.Helper()
	ctx := context.Background()

	owner, err := NewUserRepository(db).Create(ctx, user.CreateUserParams{
		UserName:     fmt.Sprintf("repo-test-%d", time.Now().UnixNano()),
		PasswordHash: "x",
		Roles:        []string{access.RoleUser},
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	products := NewProductRepository(db)
	p, err := products.Create(ctx, product.Params{Name: "Donkey Kong 64", Description: "N64"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}

	f := fixture{owner: owner, product: p}
	items := NewItemRepository(db)
	for i := 0; i < n; i++ {
		it, err := items.Create(ctx, owner.ID, item.Params{Condition: "used", ProductID: p.ID})
		if err != nil {
			t.Fatalf("create item: %v", err)
		}
		f.items = append(f.items, it)
	}

	start := time.Now().UTC().Add(-time.Hour).Truncate(time.Microsecond)
	f.listing, err = NewListingRepository(db).Create(ctx, owner.ID, listing.Params{
		Name:        "cartridge",
		Description: "boxed",
		Price:       12.5,
		StartUTC:    start,
		EndUTC:      start.Add(48 * time.Hour),
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}

	t.Cleanup(func() {
		ctx := context.Background()
		db.ExecContext(ctx, `DELETE FROM listings WHERE owner_id = $1`, owner.ID)
		db.ExecContext(ctx, `DELETE FROM items WHERE owner_id = $1`, owner.ID)
		db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, p.ID)
		db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, owner.ID)
	})
	return f
}

func itemIDs(t *testing.T, repo *ListingRepository, listingID int64) []int64 {
	t.Helper()
	items, err := repo.ListItems(context.Background(), listingID)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	ids := make([]int64, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	return ids
}

func TestListingRepository_ReplaceItems(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db, 3)
	repo := NewListingRepository(db)
	ctx := context.Background()
	a, b, c := f.items[0].ID, f.items[1].ID, f.items[2].ID

	if err := repo.ReplaceItems(ctx, f.listing.ID, []int64{a, b}); err != nil {
		t.Fatalf("first ReplaceItems() error = %v", err)
	}
	if got := itemIDs(t, repo, f.listing.ID); !slices.Equal(got, []int64{a, b}) {
		t.Fatalf("after first replace = %v, want %v", got, []int64{a, b})
	}

	if err := repo.ReplaceItems(ctx, f.listing.ID, []int64{c}); err != nil {
		t.Fatalf("second ReplaceItems() error = %v", err)
	}
	if got := itemIDs(t, repo, f.listing.ID); !slices.Equal(got, []int64{c}) {
		t.Fatalf("after second replace = %v, want %v", got, []int64{c})
	}

	// An unknown id fails the whole replace and keeps the previous set.
	unknown := c + 1_000_000_000
	err := repo.ReplaceItems(ctx, f.listing.ID, []int64{a, unknown})
	var unknownErr *listing.UnknownItemsError
	if !errors.As(err, &unknownErr) || !slices.Equal(unknownErr.IDs, []int64{unknown}) {
		t.Fatalf("ReplaceItems() with unknown id error = %v", err)
	}
	if got := itemIDs(t, repo, f.listing.ID); !slices.Equal(got, []int64{c}) {
		t.Fatalf("after failed replace = %v, want %v", got, []int64{c})
	}

	if err := repo.ReplaceItems(ctx, f.listing.ID, nil); err != nil {
		t.Fatalf("empty ReplaceItems() error = %v", err)
	}
	if got := itemIDs(t, repo, f.listing.ID); len(got) != 0 {
		t.Fatalf("after empty replace = %v, want none", got)
	}
}

func TestListingRepository_ReplaceItemsMissingListing(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db, 1)
	repo := NewListingRepository(db)

	err := repo.ReplaceItems(context.Background(), f.listing.ID+1_000_000_000, []int64{f.items[0].ID})
	if !errors.Is(err, listing.ErrListingNotFound) {
		t.Fatalf("ReplaceItems() error = %v, want ErrListingNotFound", err)
	}
}

func TestListingRepository_RoundTrip(t *testing.T) {
	db := openTestDB(t)
	f := newFixture(t, db, 1)
	repo := NewListingRepository(db)
	ctx := context.Background()

	got, err := repo.GetByID(ctx, f.listing.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	want := f.listing
	if got.Name != want.Name || got.Price != want.Price || got.OwnerID != want.OwnerID ||
		!got.StartUTC.Equal(want.StartUTC) || !got.EndUTC.Equal(want.EndUTC) {
		t.Errorf("GetByID() = %+v, want %+v", got, f.listing)
	}

	if err := repo.ReplaceItems(ctx, f.listing.ID, []int64{f.items[0].ID}); err != nil {
		t.Fatalf("ReplaceItems() error = %v", err)
	}
	active, err := repo.ListActiveByProduct(ctx, f.product.ID, time.Now().UTC())
	if err != nil {
		t.Fatalf("ListActiveByProduct() error = %v", err)
	}
	if len(active) != 1 || active[0].ID != f.listing.ID {
		t.Errorf("ListActiveByProduct() = %v", active)
	}

	// Deleting the listing removes its association rows.
	if err := repo.Delete(ctx, f.listing.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM item_listings WHERE listing_id = $1`, f.listing.ID).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("association rows after delete = %d, want 0", n)
	}
}
