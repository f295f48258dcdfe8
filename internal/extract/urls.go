package extract

import (
	"bufio"
	"os"
	"strings"

	"go.uber.org/zap"
)

// ReadURLFile reads a newline-delimited URL list. Blank lines are skipped.
// A read failure is logged and yields an empty list; the pipeline treats
// that the same as a file with no URLs.
func ReadURLFile(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		zap.L().Error("failed to read url file", zap.String("path", path), zap.Error(err))
		return nil
	}
	defer func() { _ = f.Close() }()

	var urls []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		zap.L().Error("failed to scan url file", zap.String("path", path), zap.Error(err))
		return nil
	}

	zap.L().Info("urls read from file", zap.String("path", path), zap.Int("urls", len(urls)))
	return urls
}
