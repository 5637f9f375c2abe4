package logging

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type postedRecord struct {
	tag  string
	data map[string]interface{}
}

type fakePoster struct {
	mu     sync.Mutex
	posts  []postedRecord
	closed bool
}

func (f *fakePoster) Post(tag string, message interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts = append(f.posts, postedRecord{tag: tag, data: message.(map[string]interface{})})
	return nil
}

func (f *fakePoster) Close() error {
	f.closed = true
	return nil
}

func TestFluentLogger_Post(t *testing.T) {
	poster := &fakePoster{}
	logger := NewFluentLoggerWithClient(poster, false, map[string]interface{}{"run_id": "abc"})
	logger.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }

	logger.Info("sent %d", 10)
	logger.Verbose("skipped")
	logger.Error("boom")

	require.Len(t, poster.posts, 2)
	assert.Equal(t, "info", poster.posts[0].tag)
	assert.Equal(t, "sent 10", poster.posts[0].data["message"])
	assert.Equal(t, "abc", poster.posts[0].data["run_id"])
	assert.Equal(t, "2026-01-02T03:04:05Z", poster.posts[0].data["timestamp"])
	assert.Equal(t, "error", poster.posts[1].tag)

	require.NoError(t, logger.Close())
	assert.True(t, poster.closed)
}

func TestFluentLogger_RequiresPrefix(t *testing.T) {
	_, err := NewFluentLogger(FluentConfig{Host: "127.0.0.1", Port: 24224})
	assert.Error(t, err)
}
