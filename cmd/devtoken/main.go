// Command devtoken mints a signed access token for local testing against the
// configured JWT secret and issuer.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/forgeformula/storefront-backend/pkg/auth"
	"github.com/forgeformula/storefront-backend/pkg/config"
	"github.com/forgeformula/storefront-backend/pkg/logger"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "devtoken", Output: os.Stderr})
	_ = godotenv.Load()

	userID := flag.String("user", "dev-user", "user id placed in the subject claim")
	email := flag.String("email", "dev@example.com", "email claim")
	first := flag.String("first", "", "first name claim")
	last := flag.String("last", "", "last name claim")
	flag.Parse()

	ctx := context.Background()
	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}
	if cfg.App.IsProd() {
		logg.Error(ctx, "refusing to mint tokens in production", nil)
		os.Exit(1)
	}

	token, err := auth.MintAccessToken(cfg.JWT, time.Now(), auth.Identity{
		UserID:    *userID,
		Email:     *email,
		FirstName: *first,
		LastName:  *last,
	})
	if err != nil {
		logg.Error(ctx, "failed to mint token", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
