package service

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/iliyamo/token-manager/internal/queue"
)

var stamp = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

// recorder is an EventPublisher that keeps every event.
type recorder struct {
	mu     sync.Mutex
	events []queue.CatalogEvent
}

func (r *recorder) Publish(_ context.Context, ev queue.CatalogEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func nop() *zap.Logger { return zap.NewNop() }
