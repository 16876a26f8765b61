package main

import (
	"context"
	"fmt"
	"log"

	"marketplace/internal/domain/item"
	"marketplace/internal/domain/listing"
	"marketplace/internal/domain/product"
	"marketplace/internal/domain/user"
	"marketplace/internal/infrastructure/memory"
	"marketplace/internal/infrastructure/postgres"
	httphandlers "marketplace/internal/interfaces/http"
	"marketplace/internal/seed"
	"marketplace/internal/shared/auth"
	"marketplace/internal/shared/config"
)

// Dependencies holds all initialized application components.
type Dependencies struct {
	// DB is nil when the memory store is selected.
	DB     *postgres.DB
	Health httphandlers.Pinger

	// Handlers
	ProductHandler *httphandlers.ProductHandler
	ItemHandler    *httphandlers.ItemHandler
	ListingHandler *httphandlers.ListingHandler
	AuthHandler    *httphandlers.AuthHandler

	// Auth
	JWT *auth.JWT
}

type repositories struct {
	products product.Repository
	items    item.Repository
	listings listing.Repository
	users    user.Repository
}

// NewDependencies initializes all application dependencies.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, error) {
	deps := &Dependencies{}

	var repos repositories
	switch cfg.Store.Driver {
	case config.StoreDriverMemory:
		store := memory.NewStore()
		repos = repositories{
			products: store.Products(),
			items:    store.Items(),
			listings: store.Listings(),
			users:    store.Users(),
		}
		log.Println("Using in-memory store; data is lost on exit")

	default:
		db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		})
		if err != nil {
			return nil, err
		}
		log.Println("Connected to database")
		deps.DB = db
		deps.Health = db

		if cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, err
			}
		}

		repos = repositories{
			products: postgres.NewProductRepository(db),
			items:    postgres.NewItemRepository(db),
			listings: postgres.NewListingRepository(db),
			users:    postgres.NewUserRepository(db),
		}
	}

	if cfg.Seed.Enabled {
		if _, err := seed.Run(ctx, repos.products, repos.users, cfg.Seed.Password); err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to seed data: %w", err)
		}
	}

	// Initialize domain services
	productService := product.NewService(repos.products)
	itemService := item.NewService(repos.items, productService)
	listingService := listing.NewService(repos.listings, productService)

	// Initialize auth components
	deps.JWT = auth.NewJWT(cfg.JWT.Secret, cfg.JWT.TTL)

	// Initialize handlers
	deps.ProductHandler = httphandlers.NewProductHandler(productService, listingService)
	deps.ItemHandler = httphandlers.NewItemHandler(itemService)
	deps.ListingHandler = httphandlers.NewListingHandler(listingService)
	deps.AuthHandler = httphandlers.NewAuthHandler(repos.users, deps.JWT)

	return deps, nil
}

// Close releases all resources held by dependencies.
func (d *Dependencies) Close() {
	if d.DB != nil {
		d.DB.Close()
	}
}
