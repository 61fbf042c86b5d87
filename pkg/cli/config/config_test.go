package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/m-mizutani/gt"
	"github.com/secmon-lab/bastion/pkg/cli/config"
	"github.com/secmon-lab/bastion/pkg/domain/types"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
)

func TestRepositoryConfigure(t *testing.T) {
	ctx := context.Background()

	t.Run("memory backend", func(t *testing.T) {
		repo, err := config.NewRepositoryForTest(config.BackendMemory, "", "", "").Configure(ctx)
		gt.NoError(t, err).Required()
		gt.Value(t, repo).NotNil()
		gt.NoError(t, repo.Close())
	})

	t.Run("sqlite backend", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bastion.db")
		repo, err := config.NewRepositoryForTest(config.BackendSQLite, "", "", path).Configure(ctx)
		gt.NoError(t, err).Required()
		gt.NoError(t, repo.Close())
	})

	testCases := []struct {
		name    string
		backend string
		want    error
	}{
		{name: "firestore without project", backend: config.BackendFirestore, want: config.ErrMissingOption},
		{name: "postgres without DSN", backend: config.BackendPostgres, want: config.ErrMissingOption},
		{name: "sqlite without path", backend: config.BackendSQLite, want: config.ErrMissingOption},
		{name: "unknown backend", backend: "mysql", want: config.ErrInvalidBackend},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := config.NewRepositoryForTest(tc.backend, "", "", "").Configure(ctx)
			gt.Error(t, err).Is(tc.want)
		})
	}
}

func TestSlackConfigure(t *testing.T) {
	t.Run("disabled without token", func(t *testing.T) {
		cfg := config.NewSlackForTest("", "")
		gt.Bool(t, cfg.IsConfigured()).False()
		n, err := cfg.Configure("")
		gt.NoError(t, err).Required()
		gt.Value(t, n).Nil()
	})

	t.Run("requires channel", func(t *testing.T) {
		_, err := config.NewSlackForTest("xoxb-test", "").Configure("")
		gt.Error(t, err).Is(config.ErrMissingOption)
	})

	t.Run("builds notifier", func(t *testing.T) {
		n, err := config.NewSlackForTest("xoxb-test", "C0SEC").Configure("https://bastion.example.com")
		gt.NoError(t, err).Required()
		gt.Value(t, n).NotNil()
	})
}

func TestLoggerConfigure(t *testing.T) {
	prev := logging.Default()
	t.Cleanup(func() { logging.SetDefault(prev) })

	t.Run("rejects unknown level", func(t *testing.T) {
		_, err := config.NewLoggerForTest("verbose", "console", "stderr").Configure()
		gt.Error(t, err).Is(config.ErrInvalidLogLevel)
	})

	t.Run("rejects unknown format", func(t *testing.T) {
		_, err := config.NewLoggerForTest("info", "xml", "stderr").Configure()
		gt.Error(t, err).Is(config.ErrInvalidConfig)
	})

	t.Run("writes json to file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bastion.log")
		closer, err := config.NewLoggerForTest("debug", "json", path).Configure()
		gt.NoError(t, err).Required()

		logging.Default().Info("hello", "assessment_id", 1)
		closer()

		data, err := os.ReadFile(path)
		gt.NoError(t, err).Required()
		gt.String(t, string(data)).Contains(`"msg":"hello"`)
	})
}

func TestCatalogConfigure(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		registry, err := config.NewCatalogForTest(nil, nil).Configure()
		gt.NoError(t, err).Required()
		_, err = registry.Get(types.TemplateID("warehouse"))
		gt.NoError(t, err)
	})

	t.Run("missing template path", func(t *testing.T) {
		_, err := config.NewCatalogForTest(nil, []string{filepath.Join(t.TempDir(), "none.toml")}).Configure()
		gt.Value(t, err).NotNil()
	})
}
