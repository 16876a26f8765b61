package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"marketplace/internal/domain/item"
	"marketplace/internal/domain/listing"
	"marketplace/internal/domain/product"
	"marketplace/internal/domain/user"
)

// Store keeps every entity in process memory. All repositories returned by
// a Store share one lock, so a replace is never observed half applied.
type Store struct {
	mu sync.RWMutex

	products     map[int64]product.Product
	items        map[int64]item.Item
	listings     map[int64]listing.Listing
	itemListings map[int64][]int64
	users        map[int64]user.User

	sequence int64
}

func NewStore() *Store {
	return &Store{
		products:     make(map[int64]product.Product),
		items:        make(map[int64]item.Item),
		listings:     make(map[int64]listing.Listing),
		itemListings: make(map[int64][]int64),
		users:        make(map[int64]user.User),
	}
}

func (s *Store) Products() *ProductRepository { return &ProductRepository{s: s} }
func (s *Store) Items() *ItemRepository { return &ItemRepository{s: s} }
func (s *Store) Listings() *ListingRepository { return &ListingRepository{s: s} }
func (s *Store) Users() *UserRepository { return &UserRepository{s: s} }

func (s *Store) nextID() int64 {
	s.sequence++
	return s.sequence
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ProductRepository implements product.Repository.
type ProductRepository struct {
	s *Store
}

func (r *ProductRepository) Create(ctx context.Context, params product.Params) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p := product.Product{ID: r.s.nextID(), Name: params.Name, Description: params.Description}
	r.s.products[p.ID] = p
	return &p, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, id int64) (*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (r *ProductRepository) List(ctx context.Context) ([]*product.Product, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*product.Product, 0, len(r.s.products))
	for _, id := range sortedKeys(r.s.products) {
		p := r.s.products[id]
		out = append(out, &p)
	}
	return out, nil
}

func (r *ProductRepository) Update(ctx context.Context, id int64, params product.Params) (*product.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	p.Name = params.Name
	p.Description = params.Description
	r.s.products[id] = p
	return &p, nil
}

// Delete removes the product only. Items referencing it are kept.
func (r *ProductRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.products[id]; !ok {
		return product.ErrProductNotFound
	}
	delete(r.s.products, id)
	return nil
}

func (r *ProductRepository) Exists(ctx context.Context, id int64) (bool, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	_, ok := r.s.products[id]
	return ok, nil
}

// ItemRepository implements item.Repository.
type ItemRepository struct {
	s *Store
}

func (r *ItemRepository) Create(ctx context.Context, ownerID int64, params item.Params) (*item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it := item.Item{ID: r.s.nextID(), Condition: params.Condition, ProductID: params.ProductID, OwnerID: ownerID}
	r.s.items[it.ID] = it
	return &it, nil
}

func (r *ItemRepository) GetByID(ctx context.Context, id int64) (*item.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	it, ok := r.s.items[id]
	if !ok {
		return nil, item.ErrItemNotFound
	}
	return &it, nil
}

func (r *ItemRepository) List(ctx context.Context) ([]*item.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*item.Item, 0, len(r.s.items))
	for _, id := range sortedKeys(r.s.items) {
		it := r.s.items[id]
		out = append(out, &it)
	}
	return out, nil
}

func (r *ItemRepository) Update(ctx context.Context, id int64, params item.Params) (*item.Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	it, ok := r.s.items[id]
	if !ok {
		return nil, item.ErrItemNotFound
	}
	it.Condition = params.Condition
	it.ProductID = params.ProductID
	r.s.items[id] = it
	return &it, nil
}

// Delete removes the item and detaches it from every listing.
func (r *ItemRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.items[id]; !ok {
		return item.ErrItemNotFound
	}
	delete(r.s.items, id)
	for listingID, ids := range r.s.itemListings {
		r.s.itemListings[listingID] = slices.DeleteFunc(ids, func(v int64) bool { return v == id })
	}
	return nil
}

// ListingRepository implements listing.Repository.
type ListingRepository struct {
	s *Store
}

func (r *ListingRepository) Create(ctx context.Context, ownerID int64, params listing.Params) (*listing.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l := listing.Listing{
		ID:          r.s.nextID(),
		Name:        params.Name,
		Description: params.Description,
		Price:       params.Price,
		StartUTC:    params.StartUTC.UTC(),
		EndUTC:      params.EndUTC.UTC(),
		OwnerID:     ownerID,
	}
	r.s.listings[l.ID] = l
	return &l, nil
}

func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*listing.Listing, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	return &l, nil
}

func (r *ListingRepository) List(ctx context.Context) ([]*listing.Listing, error) {
	return r.filter(func(l *listing.Listing) bool { return true }), nil
}

func (r *ListingRepository) ListActive(ctx context.Context, now time.Time) ([]*listing.Listing, error) {
	return r.filter(func(l *listing.Listing) bool { return l.IsActive(now) }), nil
}

func (r *ListingRepository) ListActiveByProduct(ctx context.Context, productID int64, now time.Time) ([]*listing.Listing, error) {
	return r.filter(func(l *listing.Listing) bool {
		if !l.IsActive(now) {
			return false
		}
		for _, itemID := range r.s.itemListings[l.ID] {
			if r.s.items[itemID].ProductID == productID {
				return true
			}
		}
		return false
	}), nil
}

// filter runs keep under the read lock.
func (r *ListingRepository) filter(keep func(l *listing.Listing) bool) []*listing.Listing {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*listing.Listing, 0)
	for _, id := range sortedKeys(r.s.listings) {
		l := r.s.listings[id]
		if keep(&l) {
			out = append(out, &l)
		}
	}
	return out
}

func (r *ListingRepository) Update(ctx context.Context, id int64, params listing.Params) (*listing.Listing, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	l, ok := r.s.listings[id]
	if !ok {
		return nil, listing.ErrListingNotFound
	}
	l.Name = params.Name
	l.Description = params.Description
	l.Price = params.Price
	l.StartUTC = params.StartUTC.UTC()
	l.EndUTC = params.EndUTC.UTC()
	r.s.listings[id] = l
	return &l, nil
}

// Delete removes the listing and its association rows.
func (r *ListingRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.listings[id]; !ok {
		return listing.ErrListingNotFound
	}
	delete(r.s.listings, id)
	delete(r.s.itemListings, id)
	return nil
}

func (r *ListingRepository) ListItems(ctx context.Context, listingID int64) ([]*item.Item, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	if _, ok := r.s.listings[listingID]; !ok {
		return nil, listing.ErrListingNotFound
	}
	ids := slices.Clone(r.s.itemListings[listingID])
	slices.Sort(ids)
	out := make([]*item.Item, 0, len(ids))
	for _, id := range ids {
		it := r.s.items[id]
		out = append(out, &it)
	}
	return out, nil
}

// ReplaceItems swaps the association set under the write lock. Every check
// happens before the set is touched.
func (r *ListingRepository) ReplaceItems(ctx context.Context, listingID int64, itemIDs []int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, ok := r.s.listings[listingID]; !ok {
		return listing.ErrListingNotFound
	}

	var missing []int64
	next := make([]int64, 0, len(itemIDs))
	for _, id := range itemIDs {
		if _, ok := r.s.items[id]; !ok {
			missing = append(missing, id)
			continue
		}
		if !slices.Contains(next, id) {
			next = append(next, id)
		}
	}
	if len(missing) > 0 {
		return &listing.UnknownItemsError{IDs: missing}
	}

	r.s.itemListings[listingID] = next
	return nil
}

// UserRepository implements user.Repository.
type UserRepository struct {
	s *Store
}

func (r *UserRepository) Create(ctx context.Context, params user.CreateUserParams) (*user.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.UserName, params.UserName) {
			return nil, user.ErrUserNameTaken
		}
	}
	u := user.User{
		ID:           r.s.nextID(),
		UserName:     params.UserName,
		PasswordHash: params.PasswordHash,
		Roles:        slices.Clone(params.Roles),
		CreatedAt:    time.Now().UTC(),
	}
	r.s.users[u.ID] = u
	return cloneUser(u), nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *UserRepository) GetByUserName(ctx context.Context, userName string) (*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.UserName, userName) {
			return cloneUser(u), nil
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepository) List(ctx context.Context) ([]*user.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]*user.User, 0, len(r.s.users))
	for _, id := range sortedKeys(r.s.users) {
		out = append(out, cloneUser(r.s.users[id]))
	}
	return out, nil
}

func cloneUser(u user.User) *user.User {
	u.Roles = slices.Clone(u.Roles)
	return &u
}
