// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets reads the converter's credentials from a key directory,
// .secrets/ by default. Each regular file holds one key: the file name is
// the key and the trimmed contents are its value.
//
// The only key read today is anthropic-api-key, used by the fallback
// classifier. An environment variable always wins over a key file.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// DefaultDir is the key directory read at startup.
const DefaultDir = ".secrets"

// AnthropicKey names the key file holding the classifier API key;
// AnthropicEnv is the environment variable that overrides it.
const (
	AnthropicKey = "anthropic-api-key"
	AnthropicEnv = "ANTHROPIC_API_KEY"
)

// maxKeySize bounds a key file. Anything larger is not a credential.
const maxKeySize = 64 << 10

// Keys maps key names to values.
type Keys map[string]string

// Load reads the key files in dir. A missing directory yields no keys and
// no error. Hidden and empty files are ignored; files that cannot be read
// or are too large to be a key are left out and named in skipped.
func Load(dir string) (keys Keys, skipped []string, err error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Keys{}, nil, nil
		}
		return nil, nil, fmt.Errorf("reading key directory %s: %w", dir, err)
	}

	keys = make(Keys)
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() || strings.HasPrefix(name, ".") {
			continue
		}
		if info, err := entry.Info(); err != nil || info.Size() > maxKeySize {
			skipped = append(skipped, name)
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			skipped = append(skipped, name)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			keys[name] = value
		}
	}
	return keys, skipped, nil
}

// Names returns the loaded key names in order.
func (k Keys) Names() []string {
	names := make([]string, 0, len(k))
	for name := range k {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the value for key, preferring a non-empty environment
// variable envVar. It returns "" when neither is set.
func (k Keys) Lookup(key, envVar string) string {
	if envVar != "" {
		if v := strings.TrimSpace(os.Getenv(envVar)); v != "" {
			return v
		}
	}
	return k[key]
}
