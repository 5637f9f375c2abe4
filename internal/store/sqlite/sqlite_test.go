package sqlite_test

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vvka-141/jsonload/internal/logging"
	"github.com/vvka-141/jsonload/internal/store"
	"github.com/vvka-141/jsonload/internal/store/sqlite"
	"github.com/vvka-141/jsonload/pkg/jsonload"
)

func openTemp(t *testing.T, poolSize int) (*jsonload.ConnectionConfig, *store.SQLStore) {
	t.Helper()
	cfg := &jsonload.ConnectionConfig{
		Driver:   "sqlite",
		Path:     filepath.Join(t.TempDir(), "nested", "adres.db"),
		PoolSize: poolSize,
	}
	st, err := sqlite.Open(context.Background(), cfg, logging.NewNullLogger())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return cfg, st
}

func record(adresNo int64) *jsonload.AddressRecord {
	return &jsonload.AddressRecord{
		AdresNo:        jsonload.NewInt(adresNo),
		IcKapiNo:       jsonload.NewText("3"),
		BinaNo:         jsonload.NewInt(1200),
		Adi:            jsonload.NewText("Çankaya"),
		AcikAdresModel: json.RawMessage(`{ "mahalle": "Kızılay",  "no": 5 }`),
	}
}

func insert(t *testing.T, st jsonload.Store, rec *jsonload.AddressRecord) error {
	ctx := context.Background()

	conn, err := st.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := tx.Insert(ctx, rec); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func count(t *testing.T, st jsonload.Store, adresNo int64) int64 {
	t.Helper()
	ctx := context.Background()

	conn, err := st.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	n, err := tx.CountByKey(ctx, adresNo)
	require.NoError(t, err)
	return n
}

func TestOpen_CreatesFileAndTable(t *testing.T) {
	_, st := openTemp(t, 3)

	assert.Equal(t, int64(0), count(t, st, 1))
	require.NoError(t, insert(t, st, record(1)))
	assert.Equal(t, int64(1), count(t, st, 1))
}

func TestOpen_IsIdempotent(t *testing.T) {
	cfg, st := openTemp(t, 1)
	require.NoError(t, insert(t, st, record(7)))
	require.NoError(t, st.Close())

	again, err := sqlite.Open(context.Background(), cfg, logging.NewNullLogger())
	require.NoError(t, err)
	defer again.Close()

	assert.Equal(t, int64(1), count(t, again, 7))
}

func TestOpen_PoolSize(t *testing.T) {
	cfg := &jsonload.ConnectionConfig{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "a.db"), PoolSize: 3}
	st, err := sqlite.Open(context.Background(), cfg, logging.NewNullLogger())
	require.NoError(t, err)
	defer st.Close()

	assert.Equal(t, 3, st.DB().Stats().MaxOpenConnections)
}

func TestInsert_StoresAllColumns(t *testing.T) {
	_, st := openTemp(t, 1)
	require.NoError(t, insert(t, st, record(42)))

	var (
		icKapiNo string
		binaNo   int64
		adi      string
		model    string
		katNo    *string
	)
	row := st.DB().QueryRow(`SELECT "icKapiNo", "binaNo", "adi", "acikAdresModel", "katNo" FROM data_json WHERE "adresNo" = 42`)
	require.NoError(t, row.Scan(&icKapiNo, &binaNo, &adi, &model, &katNo))

	assert.Equal(t, "3", icKapiNo)
	assert.Equal(t, int64(1200), binaNo)
	assert.Equal(t, "Çankaya", adi)
	assert.JSONEq(t, `{"mahalle":"Kızılay","no":5}`, model)
	assert.Equal(t, `{"mahalle":"Kızılay","no":5}`, model, "stored compact")
	assert.Nil(t, katNo)
}

func TestInsert_DuplicateKeyIsConflict(t *testing.T) {
	_, st := openTemp(t, 2)
	require.NoError(t, insert(t, st, record(5)))

	err := insert(t, st, record(5))
	require.Error(t, err)
	assert.True(t, errors.Is(err, jsonload.ErrKeyConflict), "got %v", err)
	assert.Equal(t, int64(1), count(t, st, 5))
}

func TestRollback_DiscardsInsert(t *testing.T) {
	_, st := openTemp(t, 1)
	ctx := context.Background()

	conn, err := st.Acquire(ctx)
	require.NoError(t, err)
	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, record(9)))
	require.NoError(t, tx.Rollback(ctx))
	conn.Release()
	conn.Release()

	assert.Equal(t, int64(0), count(t, st, 9))
}

func TestRollback_AfterCommitIsNoop(t *testing.T) {
	_, st := openTemp(t, 1)
	ctx := context.Background()

	conn, err := st.Acquire(ctx)
	require.NoError(t, err)
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.Insert(ctx, record(10)))
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, tx.Rollback(ctx))
}

func TestConcurrentWriters(t *testing.T) {
	_, st := openTemp(t, 5)

	var wg sync.WaitGroup
	errs := make(chan error, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int64) {
			defer wg.Done()
			// half the writers collide on the same key
			key := n
			if n%2 == 0 {
				key = 1000
			}
			errs <- insert(t, st, record(key))
		}(int64(i))
	}
	wg.Wait()
	close(errs)

	conflicts := 0
	for err := range errs {
		if err != nil {
			require.ErrorIs(t, err, jsonload.ErrKeyConflict)
			conflicts++
		}
	}
	assert.Equal(t, 24, conflicts)
	assert.Equal(t, int64(1), count(t, st, 1000))
}

func TestOpen_EmptyPath(t *testing.T) {
	_, err := sqlite.Open(context.Background(), &jsonload.ConnectionConfig{Driver: "sqlite"}, logging.NewNullLogger())
	assert.ErrorIs(t, err, jsonload.ErrInvalidConfig)
}

func TestDSN(t *testing.T) {
	dsn := sqlite.DSN("/tmp/adres.db")
	assert.Contains(t, dsn, "file:/tmp/adres.db?")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "busy_timeout")
}
