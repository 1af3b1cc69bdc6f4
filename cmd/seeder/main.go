// cmd/seeder/main.go
package main

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/unclebandit/medshare-backend/internal/app"
	"github.com/unclebandit/medshare-backend/internal/config"
	appErrors "github.com/unclebandit/medshare-backend/internal/errors"
	"github.com/unclebandit/medshare-backend/internal/logger"
	"github.com/unclebandit/medshare-backend/internal/model"
	"github.com/unclebandit/medshare-backend/internal/service"
)

type account struct {
	username string
	password string
	role     model.Role
}

func accounts(cfg config.SeedConfig) []account {
	return []account{
		{cfg.PublisherUsername, cfg.PublisherPassword, model.RolePublisher},
		{cfg.BrandUsername, cfg.BrandPassword, model.RoleBrandManager},
	}
}

// seed creates the missing accounts; existing usernames are left alone.
func seed(ctx context.Context, identity *service.IdentityService, list []account) (int, error) {
	created := 0
	for _, a := range list {
		if a.username == "" || a.password == "" {
			log.Warn().Str("role", string(a.role)).Msg("no credentials configured, skipping")
			continue
		}
		_, err := identity.Register(ctx, a.username, a.password, a.role)
		switch {
		case errors.Is(err, appErrors.ErrDuplicate):
			log.Info().Str("username", a.username).Msg("user already exists")
		case err != nil:
			return created, err
		default:
			created++
			log.Info().Str("username", a.username).Str("role", string(a.role)).Msg("user created")
		}
	}
	return created, nil
}

func main() {
	cfg := config.Load()
	logger.Setup(cfg.LogLevel, cfg.Environment)
	ctx := context.Background()

	repos, closeStores, err := app.OpenRepositories(ctx, cfg, true)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to prepare stores")
	}
	defer closeStores()
	log.Info().Msg("schemas applied")

	svc := service.New(repos, service.Options{})
	n, err := seed(ctx, svc.Identity, accounts(cfg.Seed))
	if err != nil {
		log.Fatal().Err(err).Msg("seeding failed")
	}
	log.Info().Int("created", n).Msg("seeding completed")
}
