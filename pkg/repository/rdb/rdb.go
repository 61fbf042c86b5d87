// Package rdb implements the repository on a relational database through
// gorm. PostgreSQL is the production target; SQLite serves local runs and tests.
package rdb

import (
	"time"

	"github.com/glebarez/sqlite"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/bastion/pkg/domain/interfaces"
	"github.com/secmon-lab/bastion/pkg/utils/logging"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ErrNotFound is returned when a row does not exist
var ErrNotFound = interfaces.ErrNotFound

type RDB struct {
	db         *gorm.DB
	assessment *assessmentRepository
	response   *responseRepository
	scenario   *scenarioRepository
}

var _ interfaces.Repository = &RDB{}

// Defaults for the initial connection, which is retried because the
// database may still be starting alongside the service.
const (
	DefaultConnectAttempts = 10
	DefaultConnectInterval = 2 * time.Second
)

type options struct {
	gorm     gorm.Config
	attempts int
	interval time.Duration
}

type Option func(*options)

// WithLogger replaces the gorm logger, which is silent by default
func WithLogger(l logger.Interface) Option {
	return func(o *options) {
		o.gorm.Logger = l
	}
}

// WithConnectRetry sets how many times the initial connection is attempted
// and the wait between attempts
func WithConnectRetry(attempts int, interval time.Duration) Option {
	return func(o *options) {
		o.attempts = attempts
		o.interval = interval
	}
}

// NewPostgres opens a PostgreSQL database by DSN
func NewPostgres(dsn string, opts ...Option) (*RDB, error) {
	return New(postgres.Open(dsn), opts...)
}

// NewSQLite opens a SQLite database file. ":memory:" is not supported because
// each pooled connection would see its own database.
func NewSQLite(path string, opts ...Option) (*RDB, error) {
	return New(sqlite.Open(path), opts...)
}

// New connects to the database, retrying failed attempts, and migrates the
// schema
func New(dialector gorm.Dialector, opts ...Option) (*RDB, error) {
	o := &options{
		gorm:     gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
		attempts: DefaultConnectAttempts,
		interval: DefaultConnectInterval,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.attempts < 1 {
		o.attempts = 1
	}

	db, err := connect(dialector, o)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&assessmentRow{}, &responseRow{}, &scenarioRow{}); err != nil {
		return nil, goerr.Wrap(err, "failed to migrate schema")
	}

	return &RDB{
		db:         db,
		assessment: &assessmentRepository{db: db},
		response:   &responseRepository{db: db},
		scenario:   &scenarioRepository{db: db},
	}, nil
}

func connect(dialector gorm.Dialector, o *options) (*gorm.DB, error) {
	log := logging.Default()

	var lastErr error
	for attempt := 1; attempt <= o.attempts; attempt++ {
		cfg := o.gorm
		db, err := gorm.Open(dialector, &cfg)
		if err == nil {
			log.Info("Connected to database", "dialect", dialector.Name(), "attempt", attempt)
			return db, nil
		}

		lastErr = err
		log.Warn("Failed to connect to database",
			"dialect", dialector.Name(),
			"attempt", attempt,
			"max_attempts", o.attempts,
			"error", err,
		)
		if attempt < o.attempts {
			time.Sleep(o.interval)
		}
	}

	return nil, goerr.Wrap(lastErr, "failed to open database",
		goerr.V("dialect", dialector.Name()),
		goerr.V("attempts", o.attempts),
	)
}

func (r *RDB) Assessment() interfaces.AssessmentRepository {
	return r.assessment
}

func (r *RDB) Response() interfaces.ResponseRepository {
	return r.response
}

func (r *RDB) Scenario() interfaces.ScenarioRepository {
	return r.scenario
}

func (r *RDB) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return goerr.Wrap(err, "failed to get database handle")
	}
	if err := sqlDB.Close(); err != nil {
		return goerr.Wrap(err, "failed to close database")
	}
	return nil
}
