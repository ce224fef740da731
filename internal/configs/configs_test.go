package configs

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "ALLOWED_ORIGINS", "FRONTEND_URL", "AVATAR_URL_TEMPLATE",
		"MAX_CONTENT_BYTES", "MAX_DISPLAY_NAME", "EVENT_RATE", "EVENT_BURST", "JOIN_RATE", "JOIN_BURST",
	} {
		// Setenv registers the restore, Unsetenv makes the variable absent for the test.
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestLoadConfig_Defaults(t *testing.T) {
	req := require.New(t)
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := LoadConfig()
	req.NoError(err)

	req.True(cfg.IsDevelopment())
	req.Equal(3001, cfg.Port)
	req.Equal(DefaultAvatarURLTemplate, cfg.AvatarURLTemplate)
	req.Equal(5000, cfg.MaxContentBytes)
	req.Equal(64, cfg.MaxDisplayName)
	req.Empty(cfg.AllowedOrigins)
}

func TestLoadConfig_MergesOrigins(t *testing.T) {
	req := require.New(t)
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example ,, https://b.example/")
	t.Setenv("FRONTEND_URL", "https://a.example")

	cfg, err := LoadConfig()
	req.NoError(err)

	req.False(cfg.IsDevelopment())
	req.Equal([]string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"privileged port":       {"PORT": "80"},
		"non numeric port":      {"PORT": "abc"},
		"template without seed": {"AVATAR_URL_TEMPLATE": "https://example.com/avatar"},
		"zero content limit":    {"MAX_CONTENT_BYTES": "0"},
		"zero event burst":      {"EVENT_BURST": "0"},
		"production no origins": {"ENVIRONMENT": "production"},
	}

	for name, vars := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("ENVIRONMENT", "development")
			for k, v := range vars {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
