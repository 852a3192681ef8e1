package discover

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/DeusData/builder-migrate/internal/lang"
)

// IGNORE_PATTERNS are directory names to skip during discovery.
var IGNORE_PATTERNS = map[string]bool{
	".cache": true, ".cargo": true, ".git": true, ".hg": true,
	".idea": true, ".svn": true, ".vscode": true, ".vs": true,
	"node_modules": true, "target": true, "vendor": true,
	"tmp": true, "temp": true,
}

// IgnoreFileName is the per-project ignore file, one glob per line.
const IgnoreFileName = ".migrateignore"

// FileInfo represents a discovered source file.
type FileInfo struct {
	Path     string        // absolute path
	RelPath  string        // relative to repo root, slash separated
	Language lang.Language // detected language
}

// Options configures file discovery.
type Options struct {
	IgnoreFile string   // path to an ignore file; defaults to <repo>/.migrateignore
	Ignore     []string // extra glob patterns
}

// matchIgnore reports whether pattern matches a path. A pattern ending in
// "/**" matches everything below that directory.
func matchIgnore(pattern, name, rel string) bool {
	if dir, ok := strings.CutSuffix(pattern, "/**"); ok {
		return rel == dir || strings.HasPrefix(rel, dir+"/")
	}
	if matched, _ := filepath.Match(pattern, name); matched {
		return true
	}
	matched, _ := filepath.Match(pattern, rel)
	return matched
}

func ignored(name, rel string, patterns []string) bool {
	for _, pattern := range patterns {
		if matchIgnore(pattern, name, rel) {
			return true
		}
	}
	return false
}

// shouldSkipDir returns true if the directory should be skipped during discovery.
func shouldSkipDir(name, rel string, extraIgnore []string) bool {
	if IGNORE_PATTERNS[name] {
		return true
	}
	return ignored(name, rel, extraIgnore)
}

// Discover walks a repository and returns all Rust source files.
func Discover(ctx context.Context, repoPath string, opts *Options) ([]FileInfo, error) {
	repoPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ignPath := filepath.Join(repoPath, IgnoreFileName)
	var extraIgnore []string
	if opts != nil {
		if opts.IgnoreFile != "" {
			ignPath = opts.IgnoreFile
		}
		extraIgnore = append(extraIgnore, opts.Ignore...)
	}
	fromFile, _ := loadIgnoreFile(ignPath)
	extraIgnore = append(extraIgnore, fromFile...)

	var files []FileInfo
	err = filepath.Walk(repoPath, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}

		rel, _ := filepath.Rel(repoPath, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && shouldSkipDir(info.Name(), rel, extraIgnore) {
				return filepath.SkipDir
			}
			return nil
		}
		if ignored(info.Name(), rel, extraIgnore) {
			return nil
		}

		l, ok := lang.LanguageForExtension(filepath.Ext(path))
		if !ok || l != lang.Rust {
			return nil
		}
		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l})
		return nil
	})
	return files, err
}

// IsCrateRoot reports whether dir holds one of the package indicator files
// of a supported language.
func IsCrateRoot(dir string) bool {
	for _, l := range lang.AllLanguages() {
		spec := lang.ForLanguage(l)
		if spec == nil {
			continue
		}
		for _, name := range spec.PackageIndicators {
			if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
				return true
			}
		}
	}
	return false
}

func loadIgnoreFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var patterns []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, scanner.Err()
}
