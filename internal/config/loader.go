package config

import (
	"fmt"
	"io"
	"os"

	"sigs.k8s.io/yaml"
)

// maxConfigFileSize bounds how much of an operator config file this process
// will read, mirroring the teacher's readFileWithLimit guard in
// contrib/gomaxprocs-webhook/internal/config/loader.go.
const maxConfigFileSize = 1 * 1024 * 1024

func readFileWithLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("config file %s exceeds %d byte limit", path, limit)
	}
	return data, nil
}

// LoadOperatorFile overlays path's YAML content onto base: a field absent from
// the file keeps base's value, so a file needs only set what it wants to
// override. Duration fields are read in nanoseconds, since encoding/json
// (which sigs.k8s.io/yaml delegates to) has no special case for time.Duration.
func LoadOperatorFile(path string, base Operator) (Operator, error) {
	raw, err := readFileWithLimit(path, maxConfigFileSize)
	if err != nil {
		return base, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadAdmissionFile is LoadOperatorFile for the admission process's config.
func LoadAdmissionFile(path string, base Admission) (Admission, error) {
	raw, err := readFileWithLimit(path, maxConfigFileSize)
	if err != nil {
		return base, fmt.Errorf("reading %s: %w", path, err)
	}
	cfg := base
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return base, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}
