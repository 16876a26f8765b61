package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"marketplace/internal/domain/item"
	"marketplace/internal/domain/listing"
	"marketplace/internal/domain/product"
	"marketplace/internal/domain/user"
)

func itemIDs(t *testing.T, repo *ListingRepository, listingID int64) []int64 {
	t.Helper()
	items, err := repo.ListItems(context.Background(), listingID)
	if err != nil {
		t.Fatalf("ListItems() error = %v", err)
	}
	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return ids
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type fixture struct {
	store    *Store
	product  *product.Product
	items    []*item.Item
	listing  *listing.Listing
	listings *ListingRepository
}

func newFixture(t *testing.T, itemCount int) fixture {
	t.Helper()
	ctx := context.Background()
	s := NewStore()

	p, err := s.Products().Create(ctx, product.Params{Name: "a", Description: "asd"})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	f := fixture{store: s, product: p, listings: s.Listings()}
	for i := 0; i < itemCount; i++ {
		it, err := s.Items().Create(ctx, 1, item.Params{Condition: "Good", ProductID: p.ID})
		if err != nil {
			t.Fatalf("create item: %v", err)
		}
		f.items = append(f.items, it)
	}
	now := time.Now().UTC()
	f.listing, err = f.listings.Create(ctx, 1, listing.Params{
		Name:        "Good games",
		Description: "box",
		Price:       999,
		StartUTC:    now.Add(-time.Hour),
		EndUTC:      now.Add(time.Hour),
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return f
}

func TestReplaceItems_SecondSetSupersedesFirst(t *testing.T) {
	f := newFixture(t, 3)
	ctx := context.Background()
	a := []int64{f.items[0].ID, f.items[1].ID}
	b := []int64{f.items[1].ID, f.items[2].ID}

	if err := f.listings.ReplaceItems(ctx, f.listing.ID, a); err != nil {
		t.Fatalf("replace A: %v", err)
	}
	if got := itemIDs(t, f.listings, f.listing.ID); !equalIDs(got, a) {
		t.Fatalf("after A = %v, want %v", got, a)
	}

	if err := f.listings.ReplaceItems(ctx, f.listing.ID, b); err != nil {
		t.Fatalf("replace B: %v", err)
	}
	if got := itemIDs(t, f.listings, f.listing.ID); !equalIDs(got, b) {
		t.Fatalf("after B = %v, want exactly %v", got, b)
	}

	if err := f.listings.ReplaceItems(ctx, f.listing.ID, nil); err != nil {
		t.Fatalf("replace empty: %v", err)
	}
	if got := itemIDs(t, f.listings, f.listing.ID); len(got) != 0 {
		t.Fatalf("after empty = %v, want none", got)
	}
}

func TestReplaceItems_UnknownItemKeepsPriorSet(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	prior := []int64{f.items[0].ID}

	if err := f.listings.ReplaceItems(ctx, f.listing.ID, prior); err != nil {
		t.Fatalf("replace: %v", err)
	}

	err := f.listings.ReplaceItems(ctx, f.listing.ID, []int64{f.items[1].ID, 9999})
	var unknown *listing.UnknownItemsError
	if !errors.As(err, &unknown) {
		t.Fatalf("error = %v, want *UnknownItemsError", err)
	}
	if !equalIDs(unknown.IDs, []int64{9999}) {
		t.Errorf("unknown ids = %v", unknown.IDs)
	}
	if got := itemIDs(t, f.listings, f.listing.ID); !equalIDs(got, prior) {
		t.Errorf("association set = %v, want unchanged %v", got, prior)
	}
}

func TestReplaceItems_DuplicatesCollapse(t *testing.T) {
	f := newFixture(t, 1)
	id := f.items[0].ID

	if err := f.listings.ReplaceItems(context.Background(), f.listing.ID, []int64{id, id}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if got := itemIDs(t, f.listings, f.listing.ID); !equalIDs(got, []int64{id}) {
		t.Errorf("association set = %v, want [%d]", got, id)
	}
}

func TestReplaceItems_MissingListing(t *testing.T) {
	f := newFixture(t, 1)
	err := f.listings.ReplaceItems(context.Background(), 9999, []int64{f.items[0].ID})
	if !errors.Is(err, listing.ErrListingNotFound) {
		t.Errorf("error = %v, want ErrListingNotFound", err)
	}
}

func TestReplaceItems_ConcurrentReplacesNeverMix(t *testing.T) {
	f := newFixture(t, 4)
	a := []int64{f.items[0].ID, f.items[1].ID}
	b := []int64{f.items[2].ID, f.items[3].ID}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = f.listings.ReplaceItems(context.Background(), f.listing.ID, a)
		}()
		go func() {
			defer wg.Done()
			_ = f.listings.ReplaceItems(context.Background(), f.listing.ID, b)
		}()
	}
	wg.Wait()

	got := itemIDs(t, f.listings, f.listing.ID)
	if !equalIDs(got, a) && !equalIDs(got, b) {
		t.Errorf("association set = %v, want exactly %v or %v", got, a, b)
	}
}

func TestDeleteCascadesAssociations(t *testing.T) {
	f := newFixture(t, 2)
	ctx := context.Background()
	if err := f.listings.ReplaceItems(ctx, f.listing.ID, []int64{f.items[0].ID, f.items[1].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	if err := f.store.Items().Delete(ctx, f.items[0].ID); err != nil {
		t.Fatalf("delete item: %v", err)
	}
	if got := itemIDs(t, f.listings, f.listing.ID); !equalIDs(got, []int64{f.items[1].ID}) {
		t.Errorf("after item delete = %v", got)
	}

	if err := f.listings.Delete(ctx, f.listing.ID); err != nil {
		t.Fatalf("delete listing: %v", err)
	}
	if err := f.listings.Delete(ctx, f.listing.ID); !errors.Is(err, listing.ErrListingNotFound) {
		t.Errorf("second delete error = %v, want ErrListingNotFound", err)
	}
	if _, err := f.listings.ListItems(ctx, f.listing.ID); !errors.Is(err, listing.ErrListingNotFound) {
		t.Errorf("ListItems() after delete error = %v", err)
	}
}

func TestProductDeleteKeepsItems(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()

	if err := f.store.Products().Delete(ctx, f.product.ID); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	it, err := f.store.Items().GetByID(ctx, f.items[0].ID)
	if err != nil {
		t.Fatalf("item lookup after product delete: %v", err)
	}
	if it.ProductID != f.product.ID {
		t.Errorf("ProductID = %d, want %d", it.ProductID, f.product.ID)
	}
	if ok, _ := f.store.Products().Exists(ctx, f.product.ID); ok {
		t.Error("product still exists")
	}
}

func TestListActiveByProduct(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	now := time.Now().UTC()

	got, _ := f.listings.ListActiveByProduct(ctx, f.product.ID, now)
	if len(got) != 0 {
		t.Fatalf("listing without items matched: %v", got)
	}

	if err := f.listings.ReplaceItems(ctx, f.listing.ID, []int64{f.items[0].ID}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = f.listings.ListActiveByProduct(ctx, f.product.ID, now)
	if len(got) != 1 || got[0].ID != f.listing.ID {
		t.Fatalf("ListActiveByProduct() = %v", got)
	}

	got, _ = f.listings.ListActiveByProduct(ctx, f.product.ID, now.Add(2*time.Hour))
	if len(got) != 0 {
		t.Errorf("expired listing matched: %v", got)
	}
}

func TestUsers(t *testing.T) {
	repo := NewStore().Users()
	ctx := context.Background()

	u, err := repo.Create(ctx, user.CreateUserParams{UserName: "bob", PasswordHash: "h", Roles: []string{"User"}})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if _, err := repo.Create(ctx, user.CreateUserParams{UserName: "Bob"}); !errors.Is(err, user.ErrUserNameTaken) {
		t.Errorf("duplicate Create() error = %v, want ErrUserNameTaken", err)
	}

	got, err := repo.GetByUserName(ctx, "BOB")
	if err != nil || got.ID != u.ID {
		t.Fatalf("GetByUserName() = %v, %v", got, err)
	}
	got.Roles[0] = "Admin"
	again, _ := repo.GetByID(ctx, u.ID)
	if again.Roles[0] != "User" {
		t.Error("returned user aliases stored roles")
	}
	if _, err := repo.GetByID(ctx, 404); !errors.Is(err, user.ErrUserNotFound) {
		t.Errorf("GetByID() error = %v, want ErrUserNotFound", err)
	}
}
