// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets resolves API credentials. The process environment wins;
// otherwise a directory of plain-text files is consulted, where each filename
// is the key name and the file contents (trimmed) are the value.
//
// Environment names map to file names by lower-casing and replacing
// underscores with hyphens: NEBIUS_API_KEY reads .secrets/nebius-api-key.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Credential names consumed by explainor.
const (
	NebiusAPIKey     = "NEBIUS_API_KEY"
	ElevenLabsAPIKey = "ELEVENLABS_API_KEY"
)

// MissingError reports a required credential absent from both the
// environment and the secrets directory.
type MissingError struct {
	Setting string
}

func (e *MissingError) Error() string {
	return fmt.Sprintf("%s environment variable not set", e.Setting)
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}

// FileKey returns the secrets-directory filename for an environment name.
func FileKey(env string) string {
	return strings.ReplaceAll(strings.ToLower(env), "_", "-")
}

// Lookup returns the credential named env from the environment, falling back
// to files (as returned by Load).
func Lookup(env string, files map[string]string) (string, bool) {
	if v := strings.TrimSpace(os.Getenv(env)); v != "" {
		return v, true
	}
	if v, ok := files[FileKey(env)]; ok && v != "" {
		return v, true
	}
	return "", false
}

// Require is Lookup that fails with *MissingError.
func Require(env string, files map[string]string) (string, error) {
	v, ok := Lookup(env, files)
	if !ok {
		return "", &MissingError{Setting: env}
	}
	return v, nil
}
