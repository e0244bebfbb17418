package factory

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FormatFor picks the decoder from a file extension.
func FormatFor(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	}
	return "", false
}

// LoadFiles expands every pattern (doublestar syntax, e.g. "configs/**/*.yaml"),
// merges the matched documents in path order and converts the result.
// Files with unknown extensions are skipped.
func (f *ConfigFactory) LoadFiles(patterns ...string) (*Bundle, error) {
	var paths []string
	seen := make(map[string]bool)
	for _, p := range patterns {
		matches, err := doublestar.FilepathGlob(p)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid pattern %q", p)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				paths = append(paths, m)
			}
		}
	}
	sort.Strings(paths)

	var doc Document
	for _, path := range paths {
		format, ok := FormatFor(path)
		if !ok {
			f.logger.Debug("skipping file with unknown extension", zap.String("path", path))
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		part, err := f.Decode(data, format)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		doc.Merge(part)
		f.logger.Debug("loaded configuration document", zap.String("path", path))
	}
	return f.FromDocument(doc)
}

// LoadFS is LoadFiles over a filesystem such as an embed.FS.
func (f *ConfigFactory) LoadFS(fsys fs.FS, pattern string) (*Bundle, error) {
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid pattern %q", pattern)
	}
	sort.Strings(matches)

	var doc Document
	for _, path := range matches {
		format, ok := FormatFor(path)
		if !ok {
			continue
		}
		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, errors.Wrapf(err, "failed to read %s", path)
		}
		part, err := f.Decode(data, format)
		if err != nil {
			return nil, errors.Wrap(err, path)
		}
		doc.Merge(part)
	}
	return f.FromDocument(doc)
}
