package sandbox

import (
	"os"
	"path/filepath"
)

// projectMarkers maps marker files to the Docker image suited to the
// project's toolchain.
var projectMarkers = []struct {
	file  string
	image string
}{
	{"go.mod", "golang:alpine"},
	{"package.json", "node:alpine"},
	{"pyproject.toml", "python:alpine"},
	{"requirements.txt", "python:alpine"},
	{"Cargo.toml", "rust:alpine"},
}

// imageFor picks the Docker image for a workspace. A configured
// override wins; otherwise the image follows the detected toolchain.
func imageFor(dir string, config Config) string {
	if config.Image != "" {
		return config.Image
	}
	for _, m := range projectMarkers {
		if _, err := os.Stat(filepath.Join(dir, m.file)); err == nil {
			return m.image
		}
	}
	return "alpine:latest"
}
