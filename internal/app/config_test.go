package app

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/octal-backend/internal/data/db"
	"github.com/yungbote/octal-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, name := range []string{"PORT", "ACCESS_TOKEN_TTL", "MASTERY_STREAK_THRESHOLD", "GRAPH_REQUIRE_ACYCLIC", "CORS_ALLOW_ORIGINS", "DB_DRIVER", "JWT_SECRET_KEY"} {
		t.Setenv(name, "")
	}
	cfg := LoadConfig(logger.Nop())
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, 24*time.Hour, cfg.AccessTokenTTL)
	require.Equal(t, 2, cfg.MasteryStreakThreshold)
	require.False(t, cfg.GraphRequireAcyclic)
	require.Empty(t, cfg.CORSAllowOrigins)
	require.Equal(t, db.DriverPostgres, cfg.DB.Driver)
	require.Len(t, cfg.Warnings(), 1)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ACCESS_TOKEN_TTL", "60")
	t.Setenv("MASTERY_STREAK_THRESHOLD", "3")
	t.Setenv("GRAPH_REQUIRE_ACYCLIC", "true")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://octal.example, ,https://b.example")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("JWT_SECRET_KEY", "real-secret")

	cfg := LoadConfig(logger.Nop())
	require.Equal(t, "9000", cfg.Port)
	require.Equal(t, time.Minute, cfg.AccessTokenTTL)
	require.Equal(t, 3, cfg.MasteryStreakThreshold)
	require.True(t, cfg.GraphRequireAcyclic)
	require.Equal(t, []string{"https://octal.example", "https://b.example"}, cfg.CORSAllowOrigins)
	require.Equal(t, db.DriverSQLite, cfg.DB.Driver)
	require.Empty(t, cfg.Warnings())
}
