package content

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/cache"
	"github.com/mionax/starfusion-manager/internal/domain"
	"github.com/mionax/starfusion-manager/internal/observability"
)

const (
	dirListKeyPrefix     = "dir_list:"
	fileContentKeyPrefix = "file_content:"
)

// RemoteSource serves workflow content from a remote host, memoizing the
// host's raw responses in the shared cache so repeated listings and
// fetches do not burn through the host's rate limit.
type RemoteSource struct {
	host    Host
	cache   cache.Cache
	metrics *observability.Metrics
	logger  *zap.Logger
	ext     string
}

// NewRemoteSource wires a host with the shared cache.
func NewRemoteSource(host Host, store cache.Cache, metrics *observability.Metrics, ext string, logger *zap.Logger) *RemoteSource {
	return &RemoteSource{host: host, cache: store, metrics: metrics, logger: logger, ext: ext}
}

// ListDirectory flattens the directory tree rooted at dirPath into folder
// records, depth first, parent before children, subdirectories in the
// order the host returned them. A failing subtree degrades to an empty
// result for that subtree rather than failing the whole listing.
func (s *RemoteSource) ListDirectory(ctx context.Context, dirPath string) []domain.WorkflowFolder {
	entries, err := s.listEntries(ctx, dirPath)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn("remote listing failed", zap.String("path", dirPath), zap.Error(err))
		}
		return nil
	}

	var files []string
	var dirs []string
	for _, entry := range entries {
		switch {
		case entry.Type == EntryTypeFile && strings.HasSuffix(entry.Name, s.ext):
			files = append(files, entry.Name)
		case entry.Type == EntryTypeDir:
			dirs = append(dirs, entry.Name)
		}
	}

	var folders []domain.WorkflowFolder
	if len(files) > 0 {
		name := dirPath
		if name == "" {
			name = "/"
		}
		folders = append(folders, domain.WorkflowFolder{Name: name, Files: files})
	}
	for _, dir := range dirs {
		folders = append(folders, s.ListDirectory(ctx, path.Join(dirPath, dir))...)
	}
	return folders
}

// listEntries returns the raw host listing for one directory, cached
// unfiltered so filtering changes never require cache invalidation.
func (s *RemoteSource) listEntries(ctx context.Context, dirPath string) ([]Entry, error) {
	key := dirListKeyPrefix + dirPath
	if raw, ok := s.cache.Get(ctx, key); ok {
		var entries []Entry
		if err := json.Unmarshal(raw, &entries); err == nil {
			s.metrics.RecordCacheHit("dir_list")
			return entries, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}
	s.metrics.RecordCacheMiss("dir_list")

	entries, err := s.host.List(ctx, dirPath)
	if err != nil {
		return nil, err
	}
	if raw, err := json.Marshal(entries); err == nil {
		s.cache.Set(ctx, key, raw)
	}
	return entries, nil
}

// Fetch returns the content of one remote file. ErrNotFound is passed
// through untouched so callers can distinguish absence from failure.
func (s *RemoteSource) Fetch(ctx context.Context, filePath string) (string, error) {
	key := fileContentKeyPrefix + filePath
	if raw, ok := s.cache.Get(ctx, key); ok {
		s.metrics.RecordCacheHit("file_content")
		return string(raw), nil
	}
	s.metrics.RecordCacheMiss("file_content")

	content, err := s.host.Read(ctx, strings.TrimPrefix(filePath, "/"))
	if err != nil {
		return "", err
	}
	s.cache.Set(ctx, key, []byte(content))
	return content, nil
}
