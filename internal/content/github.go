package content

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/mionax/starfusion-manager/internal/config"
	"github.com/mionax/starfusion-manager/internal/observability"
)

// GitHubClient implements Host against the GitHub repository contents API.
// Calls are throttled client-side because the API enforces rate limits.
type GitHubClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewGitHubClient builds a client for the configured owner/repo.
func NewGitHubClient(cfg config.GitHubConfig, metrics *observability.Metrics, logger *zap.Logger) *GitHubClient {
	logger.Info("github content host configured",
		zap.String("owner", cfg.Owner),
		zap.String("repo", cfg.Repo),
		zap.Float64("rate_per_second", cfg.RatePerSecond),
	)
	return &GitHubClient{
		baseURL:    fmt.Sprintf("https://api.github.com/repos/%s/%s/contents", cfg.Owner, cfg.Repo),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.RateBurst),
		metrics:    metrics,
		logger:     logger,
	}
}

type githubFile struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

// List returns the entries of a directory. A 404 maps to ErrNotFound.
func (c *GitHubClient) List(ctx context.Context, path string) ([]Entry, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		// An object response means the path is a file, not a directory.
		return nil, fmt.Errorf("unexpected listing payload for %q: %w", path, err)
	}
	return entries, nil
}

// Read returns the decoded content of one file. A directory path or a 404
// maps to ErrNotFound.
func (c *GitHubClient) Read(ctx context.Context, path string) (string, error) {
	body, err := c.get(ctx, path)
	if err != nil {
		return "", err
	}

	var file githubFile
	if err := json.Unmarshal(body, &file); err != nil {
		return "", ErrNotFound
	}
	if file.Type != EntryTypeFile {
		return "", ErrNotFound
	}

	// The contents API base64-encodes file payloads, with line breaks.
	encoded := strings.ReplaceAll(file.Content, "\n", "")
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode content of %q: %w", path, err)
	}
	return string(decoded), nil
}

func (c *GitHubClient) get(ctx context.Context, path string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	url := c.baseURL
	if path != "" {
		url = c.baseURL + "/" + strings.TrimPrefix(path, "/")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	if c.token != "" {
		req.Header.Set("Authorization", "token "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall("github", false)
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.metrics.RecordUpstreamCall("github", true)
		c.logger.Debug("github path not found", zap.String("path", path))
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		c.metrics.RecordUpstreamCall("github", false)
		c.logger.Warn("github request failed",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
		return nil, fmt.Errorf("github responded %d for %q", resp.StatusCode, path)
	}

	c.metrics.RecordUpstreamCall("github", true)
	return io.ReadAll(resp.Body)
}
