package batch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// writeFile writes data to outDir/name and returns the path written. The
// resolved path must stay inside outDir.
func writeFile(outDir, name string, data []byte) (string, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	outPath := filepath.Join(outDir, name)

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return "", fmt.Errorf("resolving output directory: %w", err)
	}
	absPath, err := filepath.Abs(outPath)
	if err != nil {
		return "", fmt.Errorf("resolving output path: %w", err)
	}
	if !strings.HasPrefix(absPath, absOut+string(filepath.Separator)) {
		return "", fmt.Errorf("path traversal blocked: %s", name)
	}

	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", outPath, err)
	}
	return outPath, nil
}
