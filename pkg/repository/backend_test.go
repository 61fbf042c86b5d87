package repository_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/repository/firestore"
	"github.com/secmon-lab/bastion/pkg/repository/memory"
	"github.com/secmon-lab/bastion/pkg/repository/rdb"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMemoryBackend(t *testing.T) interfaces.Repository {
	t.Helper()
	return memory.New()
}

func newFirestoreBackend(t *testing.T) interfaces.Repository {
	t.Helper()

	projectID := os.Getenv("TEST_FIRESTORE_PROJECT_ID")
	if projectID == "" {
		t.Skip("TEST_FIRESTORE_PROJECT_ID not set")
	}

	databaseID := os.Getenv("TEST_FIRESTORE_DATABASE_ID")
	if databaseID == "" {
		t.Skip("TEST_FIRESTORE_DATABASE_ID not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("test_%d", time.Now().UnixNano())
	repo, err := firestore.New(ctx, projectID, databaseID, firestore.WithCollectionPrefix(prefix))
	if err != nil {
		t.Fatalf("failed to create firestore repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close firestore repository: %v", err)
		}
	})
	return repo
}

func newSQLiteBackend(t *testing.T) interfaces.Repository {
	t.Helper()

	repo, err := rdb.NewSQLite(filepath.Join(t.TempDir(), "bastion.db"))
	if err != nil {
		t.Fatalf("failed to create sqlite repository: %v", err)
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close sqlite repository: %v", err)
		}
	})
	return repo
}

func newPostgresBackend(t *testing.T) interfaces.Repository {
	t.Helper()

	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_DSN not set")
	}

	repo, err := rdb.NewPostgres(dsn)
	if err != nil {
		t.Fatalf("failed to create postgres repository: %v", err)
	}

	// tables are shared across runs, start every test from an empty schema
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.Exec("TRUNCATE assessments, responses, scenarios RESTART IDENTITY").Error; err != nil {
		t.Fatalf("failed to truncate tables: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	t.Cleanup(func() {
		if err := repo.Close(); err != nil {
			t.Errorf("failed to close postgres repository: %v", err)
		}
	})
	return repo
}

// backends lists every repository implementation that must satisfy the same behavior
var backends = []struct {
	name    string
	newRepo func(t *testing.T) interfaces.Repository
}{
	{name: "Memory", newRepo: newMemoryBackend},
	{name: "Firestore", newRepo: newFirestoreBackend},
	{name: "SQLite", newRepo: newSQLiteBackend},
	{name: "Postgres", newRepo: newPostgresBackend},
}
