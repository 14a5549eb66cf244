// Package storetest provides an in-memory SQLite document store and a
// recording wrapper for tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"diabeater-console/internal/store"
	"diabeater-console/pkg/apperror"
	"diabeater-console/pkg/models"
)

// NewSQLite returns a SQL store on a private in-memory database.
func NewSQLite(t testing.TB) *store.SQL {
	t.Helper()
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	s, err := store.NewSQL(db)
	require.NoError(t, err)
	return s
}

// ErrInjected is the cause wrapped into injected failures.
var ErrInjected = errors.New("injected store failure")

// Recorder counts calls per operation and can fail chosen operations.
// Keys are "<op>:<collection>", e.g. "update:meal_plans".
type Recorder struct {
	store.Store

	mu    sync.Mutex
	calls map[string]int
	fail  map[string]bool
}

func NewRecorder(inner store.Store) *Recorder {
	return &Recorder{Store: inner, calls: map[string]int{}, fail: map[string]bool{}}
}

func (r *Recorder) FailOn(op, collection string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[op+":"+collection] = true
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = map[string]int{}
	r.fail = map[string]bool{}
}

// Calls returns the count for one key, or the total when key is empty.
func (r *Recorder) Calls(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if key != "" {
		return r.calls[key]
	}
	total := 0
	for _, n := range r.calls {
		total += n
	}
	return total
}

func (r *Recorder) record(op, collection string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := op + ":" + collection
	r.calls[key]++
	if r.fail[key] {
		return apperror.Transient(key, ErrInjected)
	}
	return nil
}

func (r *Recorder) Query(ctx context.Context, collection string, filters ...store.Filter) ([]store.Document, error) {
	if err := r.record("query", collection); err != nil {
		return nil, err
	}
	return r.Store.Query(ctx, collection, filters...)
}

func (r *Recorder) Get(ctx context.Context, collection, id string) (store.Document, error) {
	if err := r.record("get", collection); err != nil {
		return store.Document{}, err
	}
	return r.Store.Get(ctx, collection, id)
}

func (r *Recorder) Add(ctx context.Context, collection string, data models.Record) (string, error) {
	if err := r.record("add", collection); err != nil {
		return "", err
	}
	return r.Store.Add(ctx, collection, data)
}

func (r *Recorder) Set(ctx context.Context, collection, id string, data models.Record) error {
	if err := r.record("set", collection); err != nil {
		return err
	}
	return r.Store.Set(ctx, collection, id, data)
}

func (r *Recorder) Update(ctx context.Context, collection, id string, partial models.Record) error {
	if err := r.record("update", collection); err != nil {
		return err
	}
	return r.Store.Update(ctx, collection, id, partial)
}

func (r *Recorder) Delete(ctx context.Context, collection, id string) error {
	if err := r.record("delete", collection); err != nil {
		return err
	}
	return r.Store.Delete(ctx, collection, id)
}
