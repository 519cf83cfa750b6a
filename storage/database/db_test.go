package database

import (
	"database/sql"
	"errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRunMigrations(t *testing.T) {
	orig := gooseRunFunc
	defer func() { gooseRunFunc = orig }()

	var gotCmd, gotDir string
	var gotArgs []string
	var files []string
	gooseRunFunc = func(command string, _ *sql.DB, fsys fs.FS, dir string, args ...string) error {
		gotCmd, gotDir, gotArgs = command, dir, args
		files, _ = fs.Glob(fsys, dir+"/*.sql")
		return nil
	}

	assert.NoError(t, Migrate(nil))
	assert.Equal(t, "up", gotCmd)
	assert.Equal(t, migrationsDir, gotDir)
	assert.Empty(t, gotArgs)
	assert.Equal(t, []string{
		"migrations/00001_student.sql",
		"migrations/00002_progress.sql",
		"migrations/00003_encouragement_record.sql",
	}, files)

	assert.NoError(t, RunMigrations(nil, "down-to", "1"))
	assert.Equal(t, "down-to", gotCmd)
	assert.Equal(t, []string{"1"}, gotArgs)

	gooseRunFunc = func(string, *sql.DB, fs.FS, string, ...string) error { return errors.New("no such table") }
	err := RunMigrations(nil, "status")
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "running migrations status")
	}
}
