package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/goliatone/go-repository-bun"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"github.com/uptrace/bun/extra/bundebug"
)

// goose keeps its FS and dialect in package state
var migrateMu sync.Mutex

// RepositoryManager exposes all repositories
type RepositoryManager interface {
	repository.Validator
	repository.TransactionManager
	repository.DBProvider
	Migrate(ctx context.Context) error
	Users() Users
}

// OpenDatabase opens a bun database for dsn. postgres:// and postgresql://
// URLs use pgx, anything else is handed to the sqlite shim.
func OpenDatabase(dsn string, debug bool) (*bun.DB, error) {
	if dsn == "" {
		return nil, errors.New("database dsn must not be empty")
	}

	var db *bun.DB
	if isPostgresDSN(dsn) {
		sqldb, err := sql.Open("pgx", dsn)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	} else {
		sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		// sqlite serializes writers
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	if debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}

	return db, nil
}

func isPostgresDSN(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

type mngr struct {
	db     *bun.DB
	users  Users
	logger Logger
}

func NewRepositoryManager(db *bun.DB, logger Logger) RepositoryManager {
	if logger == nil {
		logger = defLogger{}
	}
	return &mngr{
		db:     db,
		users:  NewUsersRepository(db),
		logger: logger,
	}
}

func (m mngr) Validate() error {
	if m.db == nil {
		return errors.New("repository database should be initialized")
	}

	if m.users == nil {
		return errors.New("repository users should be initialized")
	}

	return nil
}

func (m mngr) MustValidate() {
	if err := m.Validate(); err != nil {
		log.Panic(err)
	}
}

func (m mngr) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
		return m.db.RunInTx(ctx, opts, f)
	}
}

// Migrate applies the embedded migrations
func (m mngr) Migrate(ctx context.Context) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	gooseDialect := "sqlite3"
	if m.db.Dialect().Name() == dialect.PG {
		gooseDialect = "postgres"
	}

	goose.SetBaseFS(GetMigrationsFS())
	goose.SetLogger(gooseLogger{m.logger})
	if err := goose.SetDialect(gooseDialect); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, m.db.DB, MigrationsDir); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	return nil
}

func (m mngr) Users() Users {
	return m.users
}

func (m mngr) DB() *bun.DB {
	return m.db
}

type gooseLogger struct {
	logger Logger
}

func (g gooseLogger) Printf(format string, v ...any) {
	g.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}

func (g gooseLogger) Fatalf(format string, v ...any) {
	msg := strings.TrimSpace(fmt.Sprintf(format, v...))
	g.logger.Error(msg)
	panic(msg)
}
