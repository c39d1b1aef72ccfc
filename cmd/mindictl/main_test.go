package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "mindi.db"))
	t.Setenv("JWT_SECRET", "cli-test-secret-123456")
	t.Setenv("AI_MOCK", "true")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetArgs(args)
	root.SetIn(strings.NewReader(stdin))
	root.SetOut(&out)
	root.SetErr(&errOut)
	err := root.Execute()
	return out.String(), err
}

func TestSeedPlan(t *testing.T) {
	plan := seedPlan(5)
	require.Len(t, plan, 5)

	assert.Equal(t, 4, plan[0].Offset)
	assert.Equal(t, 0, plan[4].Offset)
	journals := 0
	for _, day := range plan {
		assert.Len(t, day.Moods, 2)
		if day.Journal != "" {
			journals++
		}
	}
	assert.Equal(t, 3, journals)
	assert.Equal(t, "calm", plan[0].Moods[0].MoodType)
	assert.Equal(t, "anxious", plan[0].Moods[1].MoodType)
}

func TestMigrateReportsSchemaVersion(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "migrate")
	require.NoError(t, err)
	assert.Equal(t, "Schema version 1 (sqlite)\n", out)
}

func TestSeedStatsAndInsight(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "seed", "--user", "demo", "--days", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user demo")
	assert.Contains(t, out, "Seeded 6 moods and 2 journal entries over 3 days for demo")

	out, err = run(t, "", "seed", "--user", "demo", "--days", "1")
	require.NoError(t, err)
	assert.NotContains(t, out, "Created user")

	out, err = run(t, "", "stats", "--user", "demo", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "MOOD")
	assert.Contains(t, out, "calm")

	out, err = run(t, "", "insight", "--user", "demo")
	require.NoError(t, err)
	assert.Contains(t, out, "Insight #1")
	assert.Contains(t, out, "Mock insight")

	_, err = run(t, "", "insight", "--user", "ghost")
	assert.ErrorContains(t, err, `no user named "ghost"`)
}

func TestSuggest(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "suggest", "calm", "-i", "4")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "Mock suggestion"), out)

	_, err = run(t, "", "suggest", "calm", "-i", "11")
	assert.Error(t, err)
}

func TestUserCreateReadsPipedPassword(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "secret-pass\n", "user", "create", "-u", "bob", "-e", "bob@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Created user bob (id 1)")

	_, err = run(t, "secret-pass\n", "user", "create", "-u", "bob", "-e", "other@example.com")
	assert.ErrorContains(t, err, "already registered")

	_, err = run(t, "123\n", "user", "create", "-u", "carol", "-e", "carol@example.com")
	assert.ErrorContains(t, err, "at least 6 characters")
}

func TestConfigShowRedactsSecrets(t *testing.T) {
	setupEnv(t)

	out, err := run(t, "", "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `jwt_secret = "<redacted>"`)
	assert.NotContains(t, out, "cli-test-secret-123456")
	assert.Contains(t, out, `database_driver = "sqlite"`)
}
