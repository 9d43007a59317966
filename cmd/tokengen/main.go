// Command tokengen issues an access token for an existing user. It is meant
// for operators and local testing against a running database.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"order-service/internal/config"
	"order-service/internal/database"
	"order-service/internal/logger"
	"order-service/internal/repository"
	"order-service/internal/service"
)

func main() {
	userID := flag.String("user", "", "id of the user the token is issued for")
	ttl := flag.Duration("ttl", 0, "token lifetime (defaults to JWT_ACCESS_TTL)")
	flag.Parse()

	if err := run(*userID, *ttl); err != nil {
		slog.Error("tokengen failed", "error", err)
		os.Exit(1)
	}
}

func run(userID string, ttl time.Duration) error {
	if userID == "" {
		return fmt.Errorf("-user is required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.SetDefault(logger.New(os.Stderr, cfg.LogFormat, cfg.LogLevel))

	if ttl <= 0 {
		ttl = cfg.JWTAccessTTL
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	db, err := database.New(ctx, cfg.DatabaseURL, 1, 0)
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := repository.NewUserRepository(db.Pool).FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("find user %s: %w", userID, err)
	}

	tokens, err := service.NewTokenService(cfg.JWTSecret, ttl)
	if err != nil {
		return err
	}

	token, claims, err := tokens.Issue(user)
	if err != nil {
		return err
	}

	slog.Info("token issued", "user_id", user.ID, "role", user.Role, "expires_at", claims.ExpiresAt)
	fmt.Println(token)
	return nil
}
