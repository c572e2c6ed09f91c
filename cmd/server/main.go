package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-accounts"
	"github.com/goliatone/go-accounts/middleware/jwtware"
	"github.com/goliatone/go-accounts/repository"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func main() {
	cfg, err := LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database open error: %v", err)
	}
	db := bun.NewDB(sqldb, sqlitedialect.New())

	ctx := context.Background()
	if err := createSchema(ctx, db); err != nil {
		log.Fatalf("schema error: %v", err)
	}

	tokenService, err := accounts.NewTokenService(
		[]byte(cfg.GetSigningKey()),
		cfg.GetTokenExpiration(),
		cfg.GetIssuer(),
		cfg.GetAudience(),
		nil,
	)
	if err != nil {
		log.Fatalf("token service error: %v", err)
	}

	repo := repository.NewRepositoryManager(db, nil)
	auther := accounts.NewAuther(repo, tokenService)

	app := fiber.New()

	protected := jwtware.New(jwtware.Config{
		TokenValidator: tokenService,
	})

	accounts.RegisterAuthRoutes(app, protected,
		accounts.WithAuther(auther),
		accounts.WithResetHandlers(repo),
	)

	go func() {
		if err := app.Listen(cfg.ServerAddress); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("database close error: %v", err)
	}
}

func createSchema(ctx context.Context, db *bun.DB) error {
	models := []any{
		(*accounts.Account)(nil),
		(*accounts.PasswordReset)(nil),
	}

	for _, model := range models {
		if _, err := db.NewCreateTable().
			Model(model).
			IfNotExists().
			Exec(ctx); err != nil {
			return err
		}
	}

	return nil
}
