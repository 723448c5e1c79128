// Command bootstrap prepares a database for serving: it optionally applies
// the schema migrations, seeds the reserved Anonymous user and inserts the
// card-type catalogue. Safe to run repeatedly.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/cardmaker/cardmaker/internal/model"
	"github.com/cardmaker/cardmaker/internal/repository"
)

const defaultCardTypes = "Location,Magical item,Maze card"

type output struct {
	AnonymousUserID string   `json:"anonymous_user_id"`
	CardTypes       []string `json:"card_types"`
	Migrated        bool     `json:"migrated"`
}

func main() {
	var (
		databaseURL = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		cardTypes   = flag.String("card-types", defaultCardTypes, "Comma-separated card type names to seed")
		migrate     = flag.Bool("migrate", false, "Apply schema migrations before seeding")
		format      = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *databaseURL == "" {
		fmt.Fprintln(os.Stderr, "DATABASE_URL is required")
		os.Exit(1)
	}

	names := parseCardTypes(*cardTypes)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	repo, err := repository.New(ctx, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect database:", err)
		os.Exit(1)
	}
	defer repo.Close()

	if *migrate {
		if err := applyMigrations(ctx, repo); err != nil {
			fmt.Fprintln(os.Stderr, err.Error())
			os.Exit(1)
		}
	}

	anonymous, err := ensureAnonymousUser(ctx, repo)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	for _, name := range names {
		ct := &model.CardType{
			ID:   ulid.Make().String(),
			Name: name,
		}
		if err := repo.CreateCardType(ctx, ct); err != nil {
			fmt.Fprintln(os.Stderr, "create card type:", err)
			os.Exit(1)
		}
	}

	out := output{
		AnonymousUserID: anonymous.ID,
		CardTypes:       names,
		Migrated:        *migrate,
	}

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Printf("anonymous user: %s\n", out.AnonymousUserID)
		fmt.Printf("card types: %s\n", strings.Join(out.CardTypes, ", "))
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func parseCardTypes(input string) []string {
	parts := strings.Split(input, ",")
	names := make([]string, 0, len(parts))
	seen := make(map[string]bool)
	for _, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

func applyMigrations(ctx context.Context, repo *repository.Repository) error {
	entries, err := os.ReadDir("migrations")
	if err != nil {
		return fmt.Errorf("read migrations directory: %w", err)
	}

	var ups []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			ups = append(ups, entry.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		sql, err := os.ReadFile(filepath.Join("migrations", name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := repo.Pool().Exec(ctx, string(sql)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

// ensureAnonymousUser seeds the reserved default card owner. The row has
// no credentials, so it can never authenticate.
func ensureAnonymousUser(ctx context.Context, repo *repository.Repository) (*model.User, error) {
	existing, err := repo.GetAnonymousUser(ctx)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, fmt.Errorf("look up anonymous user: %w", err)
	}

	user := &model.User{
		ID:        ulid.Make().String(),
		Username:  model.AnonymousUsername,
		Anonymous: true,
		CreatedAt: time.Now().UTC(),
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create anonymous user: %w", err)
	}
	return user, nil
}
