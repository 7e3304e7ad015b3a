//go:build integration

package integration

import (
	"fmt"
	"os"
	"testing"
	"time"
)

func pgConnString(t *testing.T) string {
	t.Helper()
	if uri := os.Getenv("EMRLAUNCH_TEST_PG_URI"); uri != "" {
		return uri
	}
	host := envOrDefault("EMRLAUNCH_TEST_PG_HOST", "localhost")
	port := envOrDefault("EMRLAUNCH_TEST_PG_PORT", "25432")
	db := envOrDefault("EMRLAUNCH_TEST_PG_DATABASE", "emrlaunch_test")
	user := envOrDefault("EMRLAUNCH_TEST_PG_USER", "postgres")
	pass := envOrDefault("EMRLAUNCH_TEST_PG_PASSWORD", "postgres")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, pass, host, port, db)
}

func mongoURI(t *testing.T) string {
	t.Helper()
	return envOrDefault("EMRLAUNCH_TEST_MONGO_URI", "mongodb://localhost:37017/?directConnection=true")
}

// uniqueName keeps concurrent runs against a shared server apart.
func uniqueName(prefix string) string {
	return fmt.Sprintf("%s_%d", prefix, time.Now().UnixNano())
}

func skipIfNoPostgres(t *testing.T) {
	t.Helper()
	if os.Getenv("EMRLAUNCH_TEST_PG_URI") == "" && os.Getenv("EMRLAUNCH_TEST_PG_HOST") == "" {
		t.Skip("skipping: EMRLAUNCH_TEST_PG_URI/HOST not set")
	}
}

func skipIfNoMongo(t *testing.T) {
	t.Helper()
	if os.Getenv("EMRLAUNCH_TEST_MONGO_URI") == "" {
		t.Skip("skipping: EMRLAUNCH_TEST_MONGO_URI not set")
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
