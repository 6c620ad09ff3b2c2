package testutil

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("defaults to the local compose database", func(t *testing.T) {
		for _, k := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(k, "")
		}
		cfg := DefaultTestDBConfig()
		assert.Equal(t, TestDBConfig{Host: "localhost", Port: "55432", User: "stuwin", Password: "stuwin", DBName: "stuwin"}, cfg)
	})

	t.Run("honours TEST_DB_* overrides", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "postgres")
		t.Setenv("TEST_DB_PORT", "5432")
		cfg := DefaultTestDBConfig()
		assert.Equal(t, "postgres", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
	})
}

func TestTestDBConfig_DSN(t *testing.T) {
	cfg := TestDBConfig{Host: "db", Port: "5432", User: "u", Password: "p@ss", DBName: "stuwin"}

	u, err := url.Parse(cfg.DSN("t_abc"))
	require.NoError(t, err)
	assert.Equal(t, "db:5432", u.Host)
	assert.Equal(t, "/stuwin", u.Path)
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss", pw)
	assert.Equal(t, "t_abc", u.Query().Get("search_path"))
	assert.Equal(t, "disable", u.Query().Get("sslmode"))

	u, err = url.Parse(cfg.DSN(""))
	require.NoError(t, err)
	assert.False(t, u.Query().Has("search_path"))
}

func TestEnvBool(t *testing.T) {
	for _, v := range []string{"1", "true", "YES", "y"} {
		t.Setenv("TESTUTIL_FLAG", v)
		assert.True(t, envBool("TESTUTIL_FLAG"), v)
	}
	t.Setenv("TESTUTIL_FLAG", "off")
	assert.False(t, envBool("TESTUTIL_FLAG"))
}
