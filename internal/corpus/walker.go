// Package corpus indexes a directory of local documents so the refinement
// loop can ground its notes in material the user already has.
package corpus

import (
	"bufio"
	"crypto/sha256"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// Document is one discovered corpus file.
type Document struct {
	Path      string // relative to the corpus root
	Title     string
	Hash      string
	SizeBytes int64
	MtimeUnix int64
}

// maxDocumentBytes skips files too large to be prose worth indexing.
const maxDocumentBytes = 2 << 20

// DefaultIgnorePatterns are directories and files never worth indexing. The
// index's own directory is excluded so the watcher never reacts to its writes.
var DefaultIgnorePatterns = []string{
	".corpus.bleve",
	".git",
	"node_modules",
	"vendor",
	"dist",
	"build",
	"__pycache__",
	".cache",
	".idea",
	".vscode",
	".DS_Store",
}

// documentExtensions lists the file types treated as corpus documents.
var documentExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
	".rst":      true,
	".adoc":     true,
}

// IsDocument reports whether a path looks like an indexable document.
func IsDocument(path string) bool {
	return documentExtensions[strings.ToLower(filepath.Ext(path))]
}

// Walker discovers documents under a corpus root, honoring .gitignore.
type Walker struct {
	root          string
	ignoreMatcher gitignore.IgnoreParser
}

// NewWalker creates a walker rooted at the given directory.
func NewWalker(root string) (*Walker, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("corpus root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("corpus root %s is not a directory", root)
	}

	patterns := make([]string, 0, len(DefaultIgnorePatterns)+16)
	patterns = append(patterns, DefaultIgnorePatterns...)
	patterns = append(patterns, loadGitignorePatterns(root)...)

	return &Walker{
		root:          root,
		ignoreMatcher: gitignore.CompileIgnoreLines(patterns...),
	}, nil
}

// Ignores reports whether a relative path is excluded from the corpus.
func (w *Walker) Ignores(relPath string) bool {
	return w.ignoreMatcher.MatchesPath(relPath)
}

// Walk returns all indexable documents under the root. Unreadable files are
// skipped rather than failing the walk.
func (w *Walker) Walk() ([]Document, error) {
	var docs []Document
	err := filepath.WalkDir(w.root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil
		}
		if w.ignoreMatcher.MatchesPath(relPath) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsDocument(path) {
			return nil
		}

		doc, err := w.describe(path, relPath)
		if err != nil {
			return nil
		}
		docs = append(docs, *doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("corpus walk: %w", err)
	}
	return docs, nil
}

// describe stats and hashes one document.
func (w *Walker) describe(fullPath, relPath string) (*Document, error) {
	stat, err := os.Stat(fullPath)
	if err != nil {
		return nil, err
	}
	if stat.Size() > maxDocumentBytes {
		return nil, fmt.Errorf("document too large: %s", relPath)
	}

	file, err := os.Open(fullPath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, file); err != nil {
		return nil, err
	}

	return &Document{
		Path:      relPath,
		Title:     titleFromPath(relPath),
		Hash:      fmt.Sprintf("%x", hasher.Sum(nil)),
		SizeBytes: stat.Size(),
		MtimeUnix: stat.ModTime().Unix(),
	}, nil
}

// titleFromPath derives a human title from the file name.
func titleFromPath(relPath string) string {
	base := filepath.Base(relPath)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
	return strings.TrimSpace(base)
}

// loadGitignorePatterns collects patterns from every .gitignore under root.
func loadGitignorePatterns(root string) []string {
	var patterns []string
	filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || d.Name() != ".gitignore" {
			return nil
		}
		if lines, err := readGitignoreLines(path); err == nil {
			patterns = append(patterns, lines...)
		}
		return nil
	})
	return patterns
}

func readGitignoreLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var lines []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}
