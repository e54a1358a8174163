package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/soundwave-agency/agency-server/internal/config"
	"github.com/soundwave-agency/agency-server/internal/database"
	"github.com/soundwave-agency/agency-server/internal/model"
	"github.com/soundwave-agency/agency-server/internal/repository"
	"github.com/soundwave-agency/agency-server/internal/util"
)

// createmanager provisions a manager account. Managers have no sign-up flow.
func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "login email")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	if strings.TrimSpace(*name) == "" || *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: createmanager -name <name> -email <email> -password <password>")
		os.Exit(1)
	}

	normalized := util.NormalizeEmail(*email)
	if !util.IsValidEmail(normalized) {
		log.Fatal().Str("email", *email).Msg("invalid email")
	}
	if err := util.ValidatePassword(*password); err != nil {
		log.Fatal().Err(err).Msg("invalid password")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal().Msg("DATABASE_URL is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	hash, err := util.HashPassword(*password)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to hash password")
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	defer cancel()

	account, err := repository.NewAccountRepository(db.DB).Create(ctx, model.CreateAccountParams{
		Name:         strings.TrimSpace(*name),
		Email:        normalized,
		PasswordHash: hash,
		Role:         model.RoleManager,
		IsVerified:   true,
	})
	if err != nil {
		if _, ok := repository.IsUniqueViolation(err); ok {
			log.Fatal().Str("email", normalized).Msg("an account with this email already exists")
		}
		log.Fatal().Err(err).Msg("failed to create manager")
	}

	log.Info().Int64("id", account.ID).Str("email", account.Email).Msg("manager created")
}
