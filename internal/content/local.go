package content

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/domain"
)

// LocalSource serves workflow content from a directory on disk.
type LocalSource struct {
	baseDir string
	ext     string
	logger  *zap.Logger
}

// NewLocalSource builds a source rooted at baseDir.
func NewLocalSource(baseDir, ext string, logger *zap.Logger) *LocalSource {
	return &LocalSource{baseDir: baseDir, ext: ext, logger: logger}
}

// ListDirectory walks the local tree and returns folder records in the
// same shape the remote source produces. A missing root yields an empty
// listing.
func (s *LocalSource) ListDirectory() []domain.WorkflowFolder {
	perDir := make(map[string][]string)
	var order []string

	err := filepath.WalkDir(s.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(d.Name(), s.ext) {
			return nil
		}
		rel, err := filepath.Rel(s.baseDir, filepath.Dir(p))
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if name == "." {
			name = "/"
		}
		if _, ok := perDir[name]; !ok {
			order = append(order, name)
		}
		perDir[name] = append(perDir[name], d.Name())
		return nil
	})
	if err != nil {
		s.logger.Warn("local workflow scan failed", zap.String("dir", s.baseDir), zap.Error(err))
		return nil
	}

	folders := make([]domain.WorkflowFolder, 0, len(order))
	for _, name := range order {
		files := perDir[name]
		sort.Strings(files)
		folders = append(folders, domain.WorkflowFolder{Name: name, Files: files})
	}
	return folders
}

// Read returns the content of one local workflow file. Paths escaping the
// base directory and missing files map to ErrNotFound.
func (s *LocalSource) Read(relPath string) (string, error) {
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	if relPath == ".." || strings.HasPrefix(relPath, "../") || filepath.IsAbs(relPath) {
		return "", ErrNotFound
	}

	raw, err := os.ReadFile(filepath.Join(s.baseDir, filepath.FromSlash(relPath)))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(raw), nil
}
