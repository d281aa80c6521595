package repo

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/htol/bookstore/config"
	"github.com/htol/bookstore/logger"
	_ "github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// sqliteDriver is sqlite3 with lower() replaced by a Unicode-aware version.
// The built-in one only folds ASCII.
const sqliteDriver = "sqlite3_unicode"

func init() {
	sql.Register(sqliteDriver, &sqlite3.SQLiteDriver{
		ConnectHook: func(conn *sqlite3.SQLiteConn) error {
			return conn.RegisterFunc("lower", foldLower, true)
		},
	})
}

func foldLower(s string) string {
	return cases.Lower(language.Und).String(s)
}

// driverName maps a configured driver to the registered database/sql name.
func driverName(driver string) string {
	if driver == "sqlite3" {
		return sqliteDriver
	}
	return driver
}

type Repo struct {
	db     *sql.DB
	driver string
	sq     squirrel.StatementBuilderType
}

// Open connects to the configured database. It does not create tables;
// call Migrate for that.
func Open(cfg config.DatabaseConfig) (*Repo, error) {
	db, err := sql.Open(driverName(cfg.Driver), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}

	if cfg.InMemory() {
		// Every sqlite connection to :memory: is its own database.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
	} else {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxIdleConns)
		db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}

	var placeholder squirrel.PlaceholderFormat = squirrel.Question
	if cfg.Driver == "postgres" {
		placeholder = squirrel.Dollar
	}

	return &Repo{
		db:     db,
		driver: cfg.Driver,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(placeholder),
	}, nil
}

// GetStorage opens (or creates) a sqlite3 database at path with its schema
// in place. ":memory:" gives a private in-memory database.
func GetStorage(path string) *Repo {
	cfg := config.Default().Database
	cfg.Driver = "sqlite3"
	cfg.Path = path

	r, err := Open(cfg)
	if err != nil {
		logger.Error("Failed to open database", "path", path, "error", err)
		panic(err)
	}

	if err := r.Migrate(context.Background()); err != nil {
		logger.Error("Failed to create schema", "path", path, "error", err)
		panic(err)
	}

	return r
}

func (r *Repo) Close() error {
	if r.db != nil {
		logger.Info("Closing database connection")
		return r.db.Close()
	}
	return nil
}

func (r *Repo) Ping(ctx context.Context) error {
	if r.db != nil {
		return r.db.PingContext(ctx)
	}
	return sql.ErrConnDone
}

func (r *Repo) Driver() string { return r.driver }
