package main

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tahcohcat/questagram/config"
)

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:8081"})

	tests := []struct {
		name   string
		origin string
		want   bool
	}{
		{"no origin", "", true},
		{"allowed", "http://localhost:8081", true},
		{"same host", "http://example.com", true},
		{"foreign", "http://evil.test", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "http://example.com/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			assert.Equal(t, tt.want, check(r))
		})
	}

	assert.True(t, originChecker([]string{"*"})(httptest.NewRequest("GET", "/ws", nil)))
}

func TestNewAppSeedsDemoData(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	require.NoError(t, err)
	cfg.Database.Path = filepath.Join(t.TempDir(), "app.db")
	cfg.Auth.BcryptCost = 4

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.db.Close()

	var users int
	require.NoError(t, a.db.Get(&users, `SELECT COUNT(*) FROM users`))
	assert.Equal(t, 8, users)

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, 200, rec.Code)
}
