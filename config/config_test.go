package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "test-secret")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("ANALYSIS_CACHE_TTL", "2h")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, 9090, cfg.API.Port)
	assert.Equal(t, LLMProviderOpenAI, cfg.LLM.Provider)
	assert.Equal(t, 2*time.Hour, cfg.Analysis.CacheTTL)
	assert.Equal(t, 15*time.Minute, cfg.Cache.MarketDataTTL)
	assert.Equal(t, "gemini-2.0-flash", cfg.Gemini.BaseModel)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "missing jwt secret",
			env:     map[string]string{"AUTH_JWT_SECRET": ""},
			wantErr: "auth.jwt_secret is required",
		},
		{
			name:    "unknown llm provider",
			env:     map[string]string{"AUTH_JWT_SECRET": "x", "LLM_PROVIDER": "mystery"},
			wantErr: "unsupported llm.provider",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
