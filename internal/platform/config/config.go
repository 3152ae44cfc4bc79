package config

import (
	"github.com/ilyakaznacheev/cleanenv"
)

// Config agrupa toda la configuración del servicio (solo env vars).
type Config struct {
	Port string `env:"PORT" env-default:"8080"`

	// Si DB_DSN está vacío, el router usa los repos in-memory (modo dev).
	DBDSN string `env:"DB_DSN" env-default:""`

	LogLevel  string `env:"LOG_LEVEL" env-default:"info"`
	LogFormat string `env:"LOG_FORMAT" env-default:"text"`
	AppName   string `env:"APP_NAME" env-default:"cattle-dental-health"`

	// Gateway de identidad. Vacío => modo dev (headers X-Debug-User-*).
	AuthBaseURL string `env:"AUTH_BASE_URL" env-default:""`
	AuthAPIKey  string `env:"AUTH_API_KEY" env-default:""`

	// Feed externo (Boviplan). ClientName viaja como query param "client".
	FeedBaseURL    string `env:"FEED_BASE_URL" env-default:"https://apicatwork.gerenteboviplan.com.br"`
	FeedClientName string `env:"FEED_CLIENT" env-default:"animaltools"`

	// Storage gestionado para migración de fotos. Vacío => migración apagada.
	MediaStoreBaseURL string `env:"MEDIA_STORE_BASE_URL" env-default:""`
	MediaStoreAPIKey  string `env:"MEDIA_STORE_API_KEY" env-default:""`
	MediaStoreBucket  string `env:"MEDIA_STORE_BUCKET" env-default:"animaltools-media"`
}

func Load() (Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
