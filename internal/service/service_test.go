package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/sweet_shop/internal/models"
	"github.com/Skotchmaster/sweet_shop/internal/repo"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection so every goroutine sees the same in-memory database
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Sweet{}))

	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []map[string]any
}

func (r *recordingPublisher) PublishEvent(_ context.Context, topic, _ string, event any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, _ := event.(map[string]any)
	if e == nil {
		e = map[string]any{}
	}
	e["_topic"] = topic
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		if typ, ok := e["type"].(string); ok {
			out = append(out, typ)
		}
	}
	return out
}

func newAuthService(t *testing.T) (*AuthService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &AuthService{
		Repo:      &repo.GormRepo{DB: newTestDB(t)},
		JWTSecret: []byte("test-jwt-secret"),
		AccessTTL: 30 * time.Minute,
		Events:    pub,
	}, pub
}

func newCatalogService(t *testing.T) (*CatalogService, *recordingPublisher) {
	t.Helper()
	pub := &recordingPublisher{}
	return &CatalogService{
		Repo:   &repo.GormRepo{DB: newTestDB(t)},
		Events: pub,
	}, pub
}
