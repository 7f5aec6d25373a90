package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/guessle/guessle/internal/game"
	"github.com/guessle/guessle/internal/history"
	"github.com/guessle/guessle/internal/httpserver"
	"github.com/guessle/guessle/internal/store"
	"github.com/guessle/guessle/internal/words"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	list, err := words.Load(os.Getenv("WORDS_FILE"), game.DefaultWordLength)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load word list")
	}
	log.Info().Int("words", list.Len()).Msg("word list loaded")

	db, err := history.Open(getEnv("DB_PATH", "./data/guessle.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open history db")
	}
	defer db.Close()
	if err := history.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate history db")
	}

	srv := httpserver.New(list, store.NewMemoryStore(), db)
	port := getEnv("PORT", "5175")
	log.Info().Str("port", port).Msg("starting guessle server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
