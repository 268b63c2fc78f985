// seed inserts development sample data for local testing.
// Idempotent: skips inserts if the dev user (dev@example.com) already exists.
package main

import (
	"context"
	"log"
	"os"

	"user-account-backend/internal/config"
	"user-account-backend/internal/db"
	"user-account-backend/internal/security"
	userrepo "user-account-backend/internal/user/repository"
)

const (
	devUserEmail = "dev@example.com"
	devUsername  = "dev"
	devPassword  = "password123"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	users := userrepo.NewPostgresRepository(conn)
	ctx := context.Background()

	existing, err := users.GetByEmailOrUsername(ctx, devUserEmail)
	if err != nil {
		log.Fatalf("seed check: %v", err)
	}
	if existing != nil {
		log.Println("Seed already applied (dev@example.com exists). Skipping.")
		os.Exit(0)
	}

	hasher := security.NewHasher(cfg.BcryptCost)
	passwordHash, err := hasher.Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	user, err := users.Create(ctx, devUserEmail, devUsername, passwordHash)
	if err != nil {
		log.Fatalf("create dev user: %v", err)
	}
	if err := users.SetVerified(ctx, user.Email, true); err != nil {
		log.Fatalf("verify dev user: %v", err)
	}
	if _, err := conn.ExecContext(ctx, `UPDATE users SET role = 'admin' WHERE id = $1`, user.ID); err != nil {
		log.Fatalf("promote dev user: %v", err)
	}

	log.Println("Seed completed successfully.")
	log.Printf("Dev login: %s / %s", devUserEmail, devPassword)
}
