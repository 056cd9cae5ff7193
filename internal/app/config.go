package app

import (
	"time"

	"github.com/yungbote/octal-backend/internal/data/db"
	"github.com/yungbote/octal-backend/internal/modules/learning/inference"
	"github.com/yungbote/octal-backend/internal/platform/envutil"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

type Config struct {
	Port        string
	Environment string
	Version     string

	DB db.Config

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	MasteryStreakThreshold int
	GraphRequireAcyclic    bool

	CORSAllowOrigins []string
	SeedExercises    bool
}

func LoadConfig(log *logger.Logger) Config {
	return Config{
		Port:                   envutil.String("PORT", "8080", log),
		Environment:            envutil.String("APP_ENV", "development", log),
		Version:                envutil.String("APP_VERSION", "dev", log),
		DB:                     db.ConfigFromEnv(log),
		JWTSecretKey:           envutil.String("JWT_SECRET_KEY", "defaultsecret", nil),
		AccessTokenTTL:         envutil.Seconds("ACCESS_TOKEN_TTL", 24*time.Hour, log),
		MasteryStreakThreshold: envutil.Int("MASTERY_STREAK_THRESHOLD", inference.DefaultStreakThreshold, log),
		GraphRequireAcyclic:    envutil.Bool("GRAPH_REQUIRE_ACYCLIC", false, log),
		CORSAllowOrigins:       envutil.List("CORS_ALLOW_ORIGINS", nil, log),
		SeedExercises:          envutil.Bool("SEED_EXERCISES", false, log),
	}
}

// Warnings lists settings that are fine for development but not production.
func (c Config) Warnings() []string {
	var out []string
	if c.JWTSecretKey == "defaultsecret" {
		out = append(out, "JWT_SECRET_KEY is unset; using the development default")
	}
	if c.MasteryStreakThreshold <= 0 {
		out = append(out, "MASTERY_STREAK_THRESHOLD must be positive; using the default")
	}
	return out
}
