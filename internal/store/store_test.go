package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/jsonload/internal/logging"
	"github.com/vvka-141/jsonload/internal/store"
	_ "github.com/vvka-141/jsonload/internal/store/sqlite"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

func TestOpen_SQLiteAlias(t *testing.T) {
	cfg := &jsonload.ConnectionConfig{Driver: "sqlite3", Path: filepath.Join(t.TempDir(), "adres.db")}

	st, err := store.Open(context.Background(), cfg, logging.NewNullLogger())
	require.NoError(t, err)
	defer st.Close()

	conn, err := st.Acquire(context.Background())
	require.NoError(t, err)
	conn.Release()
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := store.Open(context.Background(), &jsonload.ConnectionConfig{Driver: "oracle", Host: "h"}, logging.NewNullLogger())
	require.Error(t, err)

	var storageErr *jsonload.StorageError
	require.True(t, errors.As(err, &storageErr))
	assert.Equal(t, "open", storageErr.Op)
	assert.ErrorIs(t, err, jsonload.ErrUnsupportedDriver)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := store.Open(context.Background(), &jsonload.ConnectionConfig{Driver: "sqlite"}, logging.NewNullLogger())
	assert.ErrorIs(t, err, jsonload.ErrInvalidConfig)
	assert.False(t, errors.Is(err, jsonload.ErrConnectionFailed))
}

func TestDrivers_ListsRegistered(t *testing.T) {
	store.Register("registry-test-backend", func(ctx context.Context, cfg *jsonload.ConnectionConfig, logger jsonload.Logger) (jsonload.Store, error) {
		return nil, errors.New("not used")
	})

	drivers := store.Drivers()
	assert.Contains(t, drivers, "registry-test-backend")
	assert.Contains(t, drivers, "sqlite")
	assert.IsNonDecreasing(t, drivers)
}

func TestRegister_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		store.Register("sqlite", nil)
	})
}
