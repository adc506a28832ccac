package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"xtd/internal/emit"
	"xtd/internal/introspect"
	"xtd/internal/logger"
	"xtd/pkg/config"
)

type Extractor interface {

	// Extract reads the tables, columns and foreign keys of the connected database
	Extract(ctx context.Context, db *sql.DB) (introspect.Schema, error)
}

var dialects = map[string]Extractor{}

// Register makes an Extractor available under name.
func Register(name string, e Extractor) {
	dialects[strings.ToLower(name)] = e
}

// listRegistered returns the registered dialect keys (for diagnostics).
func listRegistered() []string {
	keys := make([]string, 0, len(dialects))
	for k := range dialects {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RegisteredDialects is a helper that allows callers to print registered dialects
func RegisteredDialects() []string {
	return listRegistered()
}

// Open connects to the database and checks the connection within timeoutSec.
// The returned context carries the same deadline and must be cancelled by the caller.
func Open(driver, dsn string, timeoutSec int) (*sql.DB, context.Context, context.CancelFunc, error) {
	driver = config.NormalizeDriver(driver)
	dbConn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, nil, nil, err
	}
	if driver == "sqlite" {
		// every connection to :memory: is a separate database
		dbConn.SetMaxOpenConns(1)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(timeoutSec)*time.Second)
	if err := dbConn.PingContext(ctx); err != nil {
		cancel()
		dbConn.Close()
		return nil, nil, nil, err
	}
	return dbConn, ctx, cancel, nil
}

func extractorFor(driver string) (Extractor, error) {
	driver = config.NormalizeDriver(driver)
	extractor, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("dialect not registered: %q (available: %v)", driver, listRegistered())
	}
	return extractor, nil
}

// ConnectAndExtract connects to the database and reads its schema.
func ConnectAndExtract(driver, dsn string, timeoutSec int) (introspect.Schema, error) {
	extractor, err := extractorFor(driver)
	if err != nil {
		return introspect.Schema{}, err
	}
	dbConn, ctx, cancel, err := Open(driver, dsn, timeoutSec)
	if err != nil {
		return introspect.Schema{}, err
	}
	defer cancel()
	defer dbConn.Close()
	return extractor.Extract(ctx, dbConn)
}

// Apply creates the tables of s in the connected database using the DDL
// dialect of driver. Statements run in one transaction where the database
// supports transactional DDL.
func Apply(ctx context.Context, dbConn *sql.DB, driver string, s introspect.Schema) error {
	stmts, err := emit.Statements(s, driver)
	if err != nil {
		return err
	}
	tx, err := dbConn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	for _, stmt := range stmts {
		logger.Debug("exec: %s", stmt)
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("create table: %w", err)
		}
	}
	return tx.Commit()
}

// ConnectApplyAndExtract creates the tables of s and reads the resulting
// schema back through the dialect's extractor.
func ConnectApplyAndExtract(driver, dsn string, timeoutSec int, s introspect.Schema) (introspect.Schema, error) {
	extractor, err := extractorFor(driver)
	if err != nil {
		return introspect.Schema{}, err
	}
	dbConn, ctx, cancel, err := Open(driver, dsn, timeoutSec)
	if err != nil {
		return introspect.Schema{}, err
	}
	defer cancel()
	defer dbConn.Close()
	if err := Apply(ctx, dbConn, driver, s); err != nil {
		return introspect.Schema{}, err
	}
	return extractor.Extract(ctx, dbConn)
}
