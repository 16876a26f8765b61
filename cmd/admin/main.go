package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"marketplace/internal/domain/access"
	"marketplace/internal/domain/user"
	"marketplace/internal/infrastructure/postgres"
	"marketplace/internal/seed"
	"marketplace/internal/shared/auth"
	"marketplace/internal/shared/config"
)

const usage = `Marketplace Admin CLI - Management commands for the Marketplace API

Usage:
  admin <command> [options]

Commands:
  migrate       Apply pending database migrations
  seed          Create the demo products and accounts that are missing
  create-user   Create a user account

Examples:
  # Bring the schema up to date
  admin migrate

  # Seed demo data with a shared password
  admin seed --password='Pa$$w0rd'

  # Create an administrator
  admin create-user --name=alice --password=secret --admin
`

func main() {
	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	command := os.Args[1]

	switch command {
	case "migrate":
		runMigrate(os.Args[2:])
	case "seed":
		runSeed(os.Args[2:])
	case "create-user":
		runCreateUser(os.Args[2:])
	case "help", "-h", "--help":
		fmt.Println(usage)
	default:
		fmt.Printf("Unknown command: %s\n\n", command)
		fmt.Println(usage)
		os.Exit(1)
	}
}

func runMigrate(args []string) {
	fs := flag.NewFlagSet("migrate", flag.ExitOnError)
	timeout := fs.Duration("timeout", 5*time.Minute, "Timeout for the operation (e.g., 30s, 5m)")
	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}

	db := connect()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	log.Println("Migrations applied")
}

func runSeed(args []string) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	password := fs.String("password", os.Getenv("SEED_PASSWORD"), "Password for the seeded accounts (default $SEED_PASSWORD)")
	migrate := fs.Bool("migrate", true, "Apply pending migrations first")
	timeout := fs.Duration("timeout", 5*time.Minute, "Timeout for the operation (e.g., 30s, 5m)")

	fs.Usage = func() {
		fmt.Println("Usage: admin seed [options]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if *password == "" {
		fmt.Println("Error: --password or SEED_PASSWORD is required")
		fs.Usage()
		os.Exit(1)
	}

	db := connect()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if *migrate {
		if err := db.Migrate(ctx); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
	}

	res, err := seed.Run(ctx, postgres.NewProductRepository(db), postgres.NewUserRepository(db), *password)
	if err != nil {
		log.Fatalf("Seed failed: %v", err)
	}
	fmt.Printf("Created %d products and %d users\n", res.Products, res.Users)
}

func runCreateUser(args []string) {
	fs := flag.NewFlagSet("create-user", flag.ExitOnError)
	name := fs.String("name", "", "User name (required)")
	password := fs.String("password", "", "Password (required)")
	admin := fs.Bool("admin", false, "Grant the Admin role instead of User")

	fs.Usage = func() {
		fmt.Println("Usage: admin create-user --name=<name> --password=<password> [--admin]")
		fmt.Println("\nOptions:")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	if strings.TrimSpace(*name) == "" || *password == "" {
		fmt.Println("Error: --name and --password are required")
		fs.Usage()
		os.Exit(1)
	}

	role := access.RoleUser
	if *admin {
		role = access.RoleAdmin
	}

	hash, err := auth.HashPassword(*password)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	db := connect()
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	u, err := postgres.NewUserRepository(db).Create(ctx, user.CreateUserParams{
		UserName:     strings.TrimSpace(*name),
		PasswordHash: hash,
		Roles:        []string{role},
	})
	if errors.Is(err, user.ErrUserNameTaken) {
		log.Fatalf("User %q already exists", *name)
	}
	if err != nil {
		log.Fatalf("Failed to create user: %v", err)
	}
	fmt.Printf("Created user %d (%s) with role %s\n", u.ID, u.UserName, role)
}

func connect() *postgres.DB {
	// Load configuration
	cfg, err := config.LoadForAdmin()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to database
	db, err := postgres.New(cfg.Database.ConnectionString(), postgres.PoolConfig{
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")
	return db
}
