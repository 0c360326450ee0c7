package corpus

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultMaxFileSize is the largest ingestion file read (32 MB).
const DefaultMaxFileSize int64 = 32 << 20

// DefaultIncludes are the file patterns ingested when none are configured.
var DefaultIncludes = []string{"**/*.json", "**/*.jsonl", "**/*.txt"}

// File is one ingestion file found by Discover.
type File struct {
	Path        string // Absolute path on disk.
	RelPath     string // Slash-separated path relative to the root.
	Size        int64
	ContentHash string // SHA-256 hex digest of the content.
}

// WalkConfig controls Discover.
type WalkConfig struct {
	RootDir     string
	Include     []string // Glob patterns; empty means DefaultIncludes.
	Exclude     []string
	MaxFileSize int64 // 0 means DefaultMaxFileSize.
}

// Discover walks cfg.RootDir and returns the ingestion files that pass the
// include/exclude filters, in lexical order. A root that is a single file is
// returned as is. Files with identical content are returned once.
func Discover(cfg WalkConfig) ([]File, error) {
	root, err := filepath.Abs(cfg.RootDir)
	if err != nil {
		return nil, fmt.Errorf("corpus: resolve root: %w", err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus: %w", err)
	}

	maxSize := cfg.MaxFileSize
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	includes := cfg.Include
	if len(includes) == 0 {
		includes = DefaultIncludes
	}

	if !info.IsDir() {
		f, err := newFile(root, filepath.Base(root), info.Size())
		if err != nil {
			return nil, err
		}
		return []File{f}, nil
	}

	var files []File
	seen := make(map[string]bool)

	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return nil
		}
		if d.IsDir() {
			if path != root && shouldExcludeDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		if !MatchesInclude(relPath, includes) || MatchesExclude(relPath, cfg.Exclude) {
			return nil
		}

		fi, err := d.Info()
		if err != nil || fi.Size() > maxSize {
			return nil
		}

		f, err := newFile(path, relPath, fi.Size())
		if err != nil {
			return nil
		}
		if seen[f.ContentHash] {
			return nil
		}
		seen[f.ContentHash] = true
		files = append(files, f)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus: traversal: %w", err)
	}
	return files, nil
}

func newFile(path, relPath string, size int64) (File, error) {
	hash, err := hashFile(path)
	if err != nil {
		return File{}, fmt.Errorf("corpus: hash %s: %w", relPath, err)
	}
	return File{
		Path:        path,
		RelPath:     filepath.ToSlash(relPath),
		Size:        size,
		ContentHash: hash,
	}, nil
}

// hashFile computes the SHA-256 digest of the given file.
func hashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

func shouldExcludeDir(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, excl := range defaultExcludeDirs {
		if strings.EqualFold(name, excl) {
			return true
		}
	}
	return false
}
