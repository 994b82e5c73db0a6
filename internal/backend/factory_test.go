package backend

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/amqp"
	"fintrack/internal/config"
	"fintrack/internal/core"
	"fintrack/internal/storage"
	"fintrack/internal/storage/memory"
)

func failingDial(string, string, string) (*amqp.Client, error) {
	return nil, errors.New("connection refused")
}

func newTestFactory() *DefaultFactory {
	f := NewFactory(nil).(*DefaultFactory)
	f.dial = failingDial
	return f
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := newTestFactory().CreateBackend(context.Background(), Config{Type: MemoryBackend})
	require.NoError(t, err)
	defer res.Cleanup()

	assert.IsType(t, &memory.Store{}, res.Store)
	assert.Nil(t, res.Publisher)
	assert.NoError(t, res.Ping(context.Background()))
}

func TestCreateSQLiteBackend(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "db", "fintrack.db")

	res, err := newTestFactory().CreateBackend(ctx, Config{Type: SQLiteBackend, SQLiteDBPath: path})
	require.NoError(t, err)

	assert.IsType(t, &storage.SQLiteRepository{}, res.Store)
	require.NoError(t, res.Ping(ctx))

	u, err := res.Store.CreateUser(ctx, core.User{Username: "ada"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	require.NoError(t, res.Cleanup())
}

func TestAMQPFailureHandling(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: MemoryBackend, AMQPURL: "amqp://localhost:1/", AMQPExchange: "x", AMQPQueue: "q"}

	res, err := newTestFactory().CreateBackend(ctx, cfg)
	require.NoError(t, err, "an optional broker only logs a warning")
	assert.Nil(t, res.Publisher)

	cfg.RequireAMQP = true
	_, err = newTestFactory().CreateBackend(ctx, cfg)
	assert.ErrorContains(t, err, "connection refused")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend}, false},
		{"sqlite", Config{Type: SQLiteBackend, SQLiteDBPath: "x.db"}, false},
		{"sqlite without path", Config{Type: SQLiteBackend}, true},
		{"sheets is no longer a store", Config{Type: "sheets"}, true},
		{"required amqp missing", Config{Type: MemoryBackend, RequireAMQP: true}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFromAppConfig(t *testing.T) {
	_, err := FromAppConfig(nil)
	assert.Error(t, err)

	app := &config.Config{DataBackend: "sqlite", SQLiteDBPath: "a.db", AMQPURL: "amqp://h/", AMQPExchange: "e", AMQPQueue: "q"}
	cfg, err := FromAppConfig(app)
	require.NoError(t, err)
	assert.Equal(t, Config{Type: SQLiteBackend, SQLiteDBPath: "a.db", AMQPURL: "amqp://h/", AMQPExchange: "e", AMQPQueue: "q"}, cfg)

	app.DataBackend = "postgres"
	_, err = FromAppConfig(app)
	assert.Error(t, err)

	assert.Equal(t, []string{"sqlite", "memory"}, GetBackendTypeStrings())
}
