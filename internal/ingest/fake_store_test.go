package ingest_test

import (
	"context"
	"sync"
	"time"

	"github.com/vvka-141/jsonload/pkg/jsonload"
)

// fakeStore is an in-memory jsonload.Store with fault injection and
// concurrency accounting.
type fakeStore struct {
	mu   sync.Mutex
	rows map[int64]bool

	acquireErr error
	insertErr  error
	commitErr  error
	delay      time.Duration
	onInsert   func()

	active     int
	maxActive  int
	acquired   int
	released   int
	rolledBack int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[int64]bool)}
}

func (s *fakeStore) Acquire(ctx context.Context) (jsonload.Conn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	s.acquired++
	s.active++
	s.maxActive = max(s.maxActive, s.active)
	return &fakeConn{store: s}, nil
}

func (s *fakeStore) Close() error { return nil }

type fakeConn struct {
	store    *fakeStore
	released bool
}

func (c *fakeConn) Begin(ctx context.Context) (jsonload.Tx, error) {
	return &fakeTx{store: c.store}, nil
}

func (c *fakeConn) Release() {
	if c.released {
		return
	}
	c.released = true
	c.store.mu.Lock()
	defer c.store.mu.Unlock()
	c.store.released++
	c.store.active--
}

type fakeTx struct {
	store   *fakeStore
	pending int64
	done    bool
}

func (t *fakeTx) CountByKey(ctx context.Context, adresNo int64) (int64, error) {
	if t.store.delay > 0 {
		time.Sleep(t.store.delay)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.store.rows[adresNo] {
		return 1, nil
	}
	return 0, nil
}

func (t *fakeTx) Insert(ctx context.Context, rec *jsonload.AddressRecord) error {
	if t.store.onInsert != nil {
		t.store.onInsert()
	}
	if t.store.insertErr != nil {
		return t.store.insertErr
	}
	t.pending = rec.Key()
	return nil
}

func (t *fakeTx) Commit(ctx context.Context) error {
	if t.store.commitErr != nil {
		return t.store.commitErr
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rows[t.pending] = true
	t.done = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if t.done {
		return nil
	}
	t.done = true
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.store.rolledBack++
	return nil
}

var _ jsonload.Store = (*fakeStore)(nil)
