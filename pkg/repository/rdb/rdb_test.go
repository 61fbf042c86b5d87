package rdb_test

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/repository/rdb"
	"gorm.io/gorm"
)

var errRefused = errors.New("connection refused")

// flakyDialector refuses the first failures connection attempts
type flakyDialector struct {
	gorm.Dialector
	failures int
	attempts int
}

func (d *flakyDialector) Initialize(db *gorm.DB) error {
	d.attempts++
	if d.attempts <= d.failures {
		return errRefused
	}
	return d.Dialector.Initialize(db)
}

func TestNewRetriesConnection(t *testing.T) {
	t.Run("succeeds after transient failures", func(t *testing.T) {
		d := &flakyDialector{
			Dialector: sqlite.Open(filepath.Join(t.TempDir(), "bastion.db")),
			failures:  2,
		}

		repo, err := rdb.New(d, rdb.WithConnectRetry(3, time.Millisecond))
		gt.NoError(t, err).Required()
		t.Cleanup(func() { _ = repo.Close() })
		gt.Value(t, d.attempts).Equal(3)
	})

	t.Run("gives up after the last attempt", func(t *testing.T) {
		d := &flakyDialector{
			Dialector: sqlite.Open(filepath.Join(t.TempDir(), "bastion.db")),
			failures:  5,
		}

		_, err := rdb.New(d, rdb.WithConnectRetry(3, time.Millisecond))
		gt.Error(t, err).Is(errRefused)
		gt.Value(t, d.attempts).Equal(3)
	})

	t.Run("at least one attempt is made", func(t *testing.T) {
		d := &flakyDialector{
			Dialector: sqlite.Open(filepath.Join(t.TempDir(), "bastion.db")),
		}

		repo, err := rdb.New(d, rdb.WithConnectRetry(0, time.Millisecond))
		gt.NoError(t, err).Required()
		t.Cleanup(func() { _ = repo.Close() })
		gt.Value(t, d.attempts).Equal(1)
	})
}
