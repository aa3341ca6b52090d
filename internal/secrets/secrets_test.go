// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(t *testing.T) string
		want   map[string]string
		errMsg string
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "nebius-api-key", "  nb_abc123  \n")
				writeFile(t, dir, "elevenlabs-api-key", "el_xyz789\n")
				return dir
			},
			want: map[string]string{
				"nebius-api-key":     "nb_abc123",
				"elevenlabs-api-key": "el_xyz789",
			},
		},
		{
			name: "returns empty map for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: map[string]string{},
		},
		{
			name: "skips empty files",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "nebius-api-key", "valid-key")
				writeFile(t, dir, "empty-key", "")
				writeFile(t, dir, "whitespace-only", "   \n\t  ")
				return dir
			},
			want: map[string]string{
				"nebius-api-key": "valid-key",
			},
		},
		{
			name: "skips dotfiles",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden-key", "secret")
				writeFile(t, dir, "elevenlabs-api-key", "el_real")
				return dir
			},
			want: map[string]string{
				"elevenlabs-api-key": "el_real",
			},
		},
		{
			name: "skips subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, "nebius-api-key", "nb_123")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: map[string]string{
				"nebius-api-key": "nb_123",
			},
		},
		{
			name: "returns empty map for empty directory",
			setup: func(t *testing.T) string {
				return t.TempDir()
			},
			want: map[string]string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := tt.setup(t)
			got, err := Load(dir)
			if tt.errMsg != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadUnreadableFile(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("root can read files without permission bits")
	}
	dir := t.TempDir()
	writeFile(t, dir, "good-key", "value123")

	// Create a file then remove read permission.
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	got, err := Load(dir)
	require.NoError(t, err)
	// The good file should still be returned; the bad file is skipped with a warning.
	assert.Equal(t, "value123", got["good-key"])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad, "unreadable file should not appear in result")
}

func TestFileKey(t *testing.T) {
	assert.Equal(t, "nebius-api-key", FileKey(NebiusAPIKey))
	assert.Equal(t, "elevenlabs-api-key", FileKey(ElevenLabsAPIKey))
}

func TestLookup(t *testing.T) {
	files := map[string]string{"nebius-api-key": "from-file"}

	t.Run("environment wins", func(t *testing.T) {
		t.Setenv(NebiusAPIKey, "from-env")
		v, ok := Lookup(NebiusAPIKey, files)
		assert.True(t, ok)
		assert.Equal(t, "from-env", v)
	})

	t.Run("falls back to file", func(t *testing.T) {
		t.Setenv(NebiusAPIKey, "")
		v, ok := Lookup(NebiusAPIKey, files)
		assert.True(t, ok)
		assert.Equal(t, "from-file", v)
	})

	t.Run("blank environment is missing", func(t *testing.T) {
		t.Setenv(ElevenLabsAPIKey, "   ")
		_, ok := Lookup(ElevenLabsAPIKey, files)
		assert.False(t, ok)
	})
}

func TestRequireMissing(t *testing.T) {
	t.Setenv(ElevenLabsAPIKey, "")

	_, err := Require(ElevenLabsAPIKey, nil)
	require.Error(t, err)

	var missing *MissingError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ElevenLabsAPIKey, missing.Setting)
	assert.Contains(t, err.Error(), "ELEVENLABS_API_KEY")
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
