package testutil

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver

	"github.com/indevian-dev/stuwin-api/internal/migrate"
)

// TestingTB is the part of testing.TB the helpers need.
type TestingTB interface {
	Helper()
	Cleanup(func())
	Logf(format string, args ...any)
	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Skip(args ...any)
	Skipf(format string, args ...any)
}

// TestDBConfig locates the Postgres instance used by integration tests.
type TestDBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
}

// DefaultTestDBConfig reads TEST_DB_* and falls back to the local compose
// database on port 55432.
func DefaultTestDBConfig() TestDBConfig {
	return TestDBConfig{
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "55432"),
		User:     envOr("TEST_DB_USER", "stuwin"),
		Password: envOr("TEST_DB_PASSWORD", "stuwin"),
		DBName:   envOr("TEST_DB_NAME", "stuwin"),
	}
}

// DSN renders the config as a postgres URL. A non-empty schema becomes the
// connection's search_path.
func (c TestDBConfig) DSN(schema string) string {
	q := url.Values{}
	q.Set("sslmode", "disable")
	if schema != "" {
		q.Set("search_path", schema)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// SkipIfNoTestDB skips t when Postgres cannot be reached. With
// TEST_REQUIRE_DB or TEST_REQUIRE_INFRA set it fails instead.
func SkipIfNoTestDB(t TestingTB) {
	t.Helper()
	db, err := sql.Open("pgx", DefaultTestDBConfig().DSN(""))
	if err == nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = db.PingContext(ctx)
		cancel()
		_ = db.Close()
	}
	if err == nil {
		return
	}
	if envBool("TEST_REQUIRE_DB") || envBool("TEST_REQUIRE_INFRA") {
		t.Fatal("test database not available:", err)
	}
	t.Skip("test database not available:", err)
}

// SetupTestDB opens a connection bound to a fresh schema holding the
// migrated tables. The schema is dropped when the test ends.
func SetupTestDB(t TestingTB) *sql.DB {
	t.Helper()
	SkipIfNoTestDB(t)

	cfg := DefaultTestDBConfig()
	admin, err := sql.Open("pgx", cfg.DSN(""))
	if err != nil {
		t.Fatal("open admin db:", err)
	}

	schema := schemaName()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := admin.ExecContext(ctx, "CREATE SCHEMA "+schema); err != nil {
		_ = admin.Close()
		t.Fatalf("create schema %s: %v", schema, err)
	}

	db, err := sql.Open("pgx", cfg.DSN(schema))
	if err != nil {
		_ = admin.Close()
		t.Fatal("open schema db:", err)
	}
	db.SetMaxOpenConns(8)

	t.Cleanup(func() {
		_ = db.Close()
		dropCtx, dropCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer dropCancel()
		if _, err := admin.ExecContext(dropCtx, "DROP SCHEMA IF EXISTS "+schema+" CASCADE"); err != nil {
			t.Logf("drop schema %s: %v", schema, err)
		}
		_ = admin.Close()
	})

	if err := migrate.Run(ctx, db, slog.New(slog.DiscardHandler)); err != nil {
		t.Fatalf("migrate schema %s: %v", schema, err)
	}
	return db
}

// WithAutoDB runs fn against a freshly migrated test database.
func WithAutoDB(t TestingTB, fn func(*sql.DB)) {
	t.Helper()
	fn(SetupTestDB(t))
}

func schemaName() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("t_%d", time.Now().UnixNano())
	}
	return "t_" + hex.EncodeToString(b)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envBool(key string) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
