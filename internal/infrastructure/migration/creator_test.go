package migration

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("-- test"), 0o644))
	}
}

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"add rma tags", "add_rma_tags"},
		{"Add-RMA-Tags", "add_rma_tags"},
		{"add__rma__tags", "add_rma_tags"},
		{"Index 2", "index_2"},
		{"   spaces   ", "spaces"},
		{"special!@#$chars", "specialchars"},
		{"_leading", "leading"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, sanitizeName(tt.input))
		})
	}
}

func TestCreateMigration(t *testing.T) {
	t.Run("first migration is version 1", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "migrations")

		mf, err := CreateMigration(dir, "init", "core schema")
		require.NoError(t, err)
		assert.Equal(t, uint(1), mf.Version)
		assert.Equal(t, filepath.Join(dir, "000001_init.up.sql"), mf.UpPath)
		assert.Equal(t, filepath.Join(dir, "000001_init.down.sql"), mf.DownPath)

		up, err := os.ReadFile(mf.UpPath)
		require.NoError(t, err)
		assert.Contains(t, string(up), "-- Migration: init")
		assert.Contains(t, string(up), "core schema")

		down, err := os.ReadFile(mf.DownPath)
		require.NoError(t, err)
		assert.Contains(t, string(down), "(Rollback)")
	})

	t.Run("continues after the highest existing version", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "000001_init.up.sql", "000001_init.down.sql", "000009_tags.up.sql", "000009_tags.down.sql")

		mf, err := CreateMigration(dir, "Add RMA tags", "")
		require.NoError(t, err)
		assert.Equal(t, uint(10), mf.Version)
		assert.Equal(t, "000010_add_rma_tags.up.sql", filepath.Base(mf.UpPath))
	})

	t.Run("rejects a name without usable characters", func(t *testing.T) {
		_, err := CreateMigration(t.TempDir(), "!!!", "")
		require.Error(t, err)
	})
}

func TestListMigrations(t *testing.T) {
	t.Run("orders by numeric version", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir,
			"000010_late.up.sql", "000010_late.down.sql",
			"000002_second.up.sql",
			"000001_init.up.sql", "000001_init.down.sql",
		)

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init", "000002_second", "000010_late"}, names)
	})

	t.Run("ignores other files and directories", func(t *testing.T) {
		dir := t.TempDir()
		touch(t, dir, "000001_init.up.sql", "README.md", "notes.up.sql", ".gitkeep")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "000002_dir.up.sql"), 0o755))

		names, err := ListMigrations(dir)
		require.NoError(t, err)
		assert.Equal(t, []string{"000001_init"}, names)
	})

	t.Run("missing directory is empty", func(t *testing.T) {
		names, err := ListMigrations(filepath.Join(t.TempDir(), "absent"))
		require.NoError(t, err)
		assert.Empty(t, names)
	})
}

func TestRepositoryMigrationsArePaired(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "migrations")
	names, err := ListMigrations(dir)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	for _, n := range names {
		_, err := os.Stat(filepath.Join(dir, n+".down.sql"))
		assert.NoError(t, err, "missing down migration for %s", n)
	}
}
