package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// CleanPath makes a path safe for use with filesystem syscalls. Relative
// paths stay relative, but sequences like "/../../.." collapse so they can
// no longer climb above the root.
func CleanPath(path string) string {
	if path == "" {
		return ""
	}
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		path = filepath.Clean(string(os.PathSeparator) + path)
		path, _ = filepath.Rel(string(os.PathSeparator), path)
	}
	return filepath.Clean(path)
}

// SearchExecutable resolves name against the colon-separated pathEnv and
// returns the first entry that exists as an executable regular file.
func SearchExecutable(name, pathEnv string) (string, error) {
	for _, prefix := range strings.Split(pathEnv, ":") {
		if prefix == "" {
			continue
		}
		candidate := filepath.Join(prefix, name)
		fi, err := os.Stat(candidate)
		if err != nil {
			continue
		}
		if fi.Mode().IsRegular() && fi.Mode().Perm()&0o111 != 0 {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("executable %q not found in PATH", name)
}
