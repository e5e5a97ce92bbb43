package config

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// envFileNames are read in order; earlier files win because variables that
// are already set are never overwritten.
var envFileNames = []string{".env.local", ".env"}

// envSearchDirs returns the working directory and the executable's directory.
func envSearchDirs() []string {
	var dirs []string
	if cwd, err := os.Getwd(); err == nil {
		dirs = append(dirs, cwd)
	}
	if exe, err := os.Executable(); err == nil {
		if dir := filepath.Dir(exe); dir != "" && (len(dirs) == 0 || dir != dirs[0]) {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// loadEnvFiles sets unset environment variables from the env files found in
// dirs and returns the paths it read.
func loadEnvFiles(dirs []string) []string {
	var read []string
	for _, dir := range dirs {
		for _, name := range envFileNames {
			path := filepath.Join(dir, name)
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			read = append(read, path)
			for _, kv := range parseEnvFile(data) {
				if _, set := os.LookupEnv(kv[0]); !set {
					_ = os.Setenv(kv[0], kv[1])
				}
			}
		}
	}
	return read
}

// parseEnvFile returns KEY=value pairs in file order. It accepts an optional
// "export " prefix, strips one pair of matching quotes, and drops a trailing
// " #" comment from unquoted values.
func parseEnvFile(data []byte) [][2]string {
	var out [][2]string
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" || strings.ContainsAny(key, " \t") {
			continue
		}
		out = append(out, [2]string{key, envValue(strings.TrimSpace(value))})
	}
	return out
}

func envValue(v string) string {
	if len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0] {
		return v[1 : len(v)-1]
	}
	if i := strings.Index(v, " #"); i >= 0 {
		v = strings.TrimSpace(v[:i])
	}
	return v
}
