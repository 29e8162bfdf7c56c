package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// createOutputDir creates output/<scene> and returns its path
func createOutputDir(sceneName string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(sceneName), filepath.Ext(sceneName))
	if base == "" || base == "." || base == string(filepath.Separator) {
		base = "scene"
	}
	dir := filepath.Join("output", base)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	return dir, nil
}

// defaultSnapshotPath returns output/<scene>/render_<timestamp>.png
func defaultSnapshotPath(sceneName string, now time.Time) (string, error) {
	dir, err := createOutputDir(sceneName)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, fmt.Sprintf("render_%s.png", now.Format("20060102_150405"))), nil
}
