//cmd/seeder/main.go
package main

import (
	"database/sql"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("no .env file found, relying on OS environment variables")
	}

	dsn := os.Getenv("DATABASE_URL")
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open DB")
	}
	defer db.Close()

	seedFiles := []string{
		"seed/schema.sql",
		"seed/sequences.sql",
		"seed/templates.sql",
	}

	for _, file := range seedFiles {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to read seed file")
		}

		if _, err := db.Exec(string(content)); err != nil {
			log.Fatal().Err(err).Str("file", file).Msg("failed to execute seed file")
		}
		log.Info().Str("file", file).Msg("seeded")
	}

	log.Info().Msg("database seeding completed")
}
