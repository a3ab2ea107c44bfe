package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/Div1912/Ageis/internal/logger"
	"github.com/Div1912/Ageis/internal/state"
)

// Drops and recreates the decision mirror tables. Destructive; intended for
// development databases only.
func main() {
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logger.Initialize(logLevel, "")
	log.Info().Msg("Starting database reset script...")

	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found or error loading .env file. Relying on OS environment variables.")
	}

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbPort := 5432
	if portStr := os.Getenv("DB_PORT"); portStr != "" {
		parsed, err := strconv.Atoi(portStr)
		if err != nil {
			log.Fatal().Err(err).Str("DB_PORT", portStr).Msg("Invalid DB_PORT")
		}
		dbPort = parsed
	}
	dbSSLMode := os.Getenv("DB_SSLMODE")
	if dbSSLMode == "" {
		dbSSLMode = "disable"
	}

	cfg := state.DBConfig{
		Host:     dbHost,
		Port:     dbPort,
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		DBName:   os.Getenv("DB_NAME"),
		SSLMode:  dbSSLMode,
	}

	if err := state.InitDB(cfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer state.CloseDB()

	fmt.Print("This will DROP the decisions table and all recorded history. Type 'yes' to continue: ")
	var answer string
	fmt.Scanln(&answer)
	if answer != "yes" {
		log.Info().Msg("Aborted, nothing dropped.")
		return
	}

	if _, err := state.DB.Exec(`DROP TABLE IF EXISTS decisions CASCADE;`); err != nil {
		log.Fatal().Err(err).Msg("Failed to drop decisions table")
	}
	log.Info().Msg("Dropped decisions table.")

	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to recreate schema")
	}
	log.Info().Msg("Database reset complete.")
}
