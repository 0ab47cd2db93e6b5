package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/cache"
	"github.com/mionax/starfusion-manager/internal/content"
	"github.com/mionax/starfusion-manager/internal/domain"
	"github.com/mionax/starfusion-manager/internal/entitlement"
	"github.com/mionax/starfusion-manager/internal/events"
	"github.com/mionax/starfusion-manager/internal/identity"
	"github.com/mionax/starfusion-manager/internal/observability"
	"github.com/mionax/starfusion-manager/pkg/util"
)

const (
	userWorkflowsKeyPrefix    = "user_workflows:"
	userEntitlementsKeyPrefix = "user_entitlements:"

	// userSubdir is the remote subtree holding user-exclusive workflows.
	userSubdir = "user_workflows"
)

// WorkflowService is the composition root for asset access: it combines
// resolved entitlements with content source listings and returns only what
// the caller may fetch.
type WorkflowService struct {
	provider   identity.Provider
	resolver   *entitlement.Resolver
	catalog    entitlement.Catalog
	remote     *content.RemoteSource
	local      *content.LocalSource
	store      cache.Cache
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	remoteBase string
	ext        string
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	Provider   identity.Provider
	Resolver   *entitlement.Resolver
	Catalog    entitlement.Catalog
	Remote     *content.RemoteSource
	Local      *content.LocalSource
	Store      cache.Cache
	Dispatcher events.Dispatcher
	Metrics    *observability.Metrics
	RemoteBase string
	Extension  string
}

// NewWorkflowService builds the service.
func NewWorkflowService(deps WorkflowDependencies, logger *zap.Logger) *WorkflowService {
	return &WorkflowService{
		provider:   deps.Provider,
		resolver:   deps.Resolver,
		catalog:    deps.Catalog,
		remote:     deps.Remote,
		local:      deps.Local,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		remoteBase: deps.RemoteBase,
		ext:        deps.Extension,
	}
}

// Entitlements resolves the user's effective workflow grants, memoizing
// the result per user id.
func (s *WorkflowService) Entitlements(ctx context.Context, userID, token string) (*entitlement.Entitlements, error) {
	key := userEntitlementsKeyPrefix + userID
	if raw, ok := s.store.Get(ctx, key); ok {
		cached := entitlement.NewEntitlements()
		if err := json.Unmarshal(raw, cached); err == nil {
			s.metrics.RecordCacheHit("user_entitlements")
			return cached, nil
		}
	}
	s.metrics.RecordCacheMiss("user_entitlements")

	raw, err := s.provider.CustomData(ctx, token)
	if err != nil {
		return nil, mapIdentityError(err)
	}

	resolved := s.resolver.Resolve(entitlement.ParseDocument(raw), s.catalog)
	if encoded, err := json.Marshal(resolved); err == nil {
		s.store.Set(ctx, key, encoded)
	}
	s.logger.Debug("entitlements resolved",
		zap.String("user_id", userID),
		zap.Int("workflows", resolved.Len()),
	)
	return resolved, nil
}

// AuthorizedListing returns the remote folders holding only the workflows
// the user may fetch. The public subtree comes first, then the user
// subtree, each in depth-first order; folders emptied by filtering are
// dropped. The filtered result is memoized per user.
func (s *WorkflowService) AuthorizedListing(ctx context.Context, userID, token string) ([]domain.WorkflowFolder, error) {
	key := userWorkflowsKeyPrefix + userID
	if raw, ok := s.store.Get(ctx, key); ok {
		var cached []domain.WorkflowFolder
		if err := json.Unmarshal(raw, &cached); err == nil {
			s.metrics.RecordCacheHit("user_workflows")
			return cached, nil
		}
	}
	s.metrics.RecordCacheMiss("user_workflows")

	resolved, err := s.Entitlements(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	merged := s.mergedListing(ctx)
	filtered := s.filterListing(merged, resolved)

	if encoded, err := json.Marshal(filtered); err == nil {
		s.store.Set(ctx, key, encoded)
	}
	return filtered, nil
}

// mergedListing joins the public subtree with the user subtree. The public
// scan starts at the remote base, so the nested user subtree is carved out
// of it and appended separately to keep the two subtrees distinct.
func (s *WorkflowService) mergedListing(ctx context.Context) []domain.WorkflowFolder {
	userBase := path.Join(s.remoteBase, userSubdir)

	var merged []domain.WorkflowFolder
	for _, folder := range s.remote.ListDirectory(ctx, s.remoteBase) {
		if folder.Name == userBase || strings.HasPrefix(folder.Name, userBase+"/") {
			continue
		}
		merged = append(merged, folder)
	}
	return append(merged, s.remote.ListDirectory(ctx, userBase)...)
}

func (s *WorkflowService) filterListing(folders []domain.WorkflowFolder, resolved *entitlement.Entitlements) []domain.WorkflowFolder {
	filtered := make([]domain.WorkflowFolder, 0, len(folders))
	for _, folder := range folders {
		var files []string
		for _, file := range folder.Files {
			if resolved.IsAuthorized(strings.TrimSuffix(file, s.ext)) {
				files = append(files, file)
			}
		}
		if len(files) > 0 {
			filtered = append(filtered, domain.WorkflowFolder{Name: folder.Name, Files: files})
		}
	}
	return filtered
}

// UserWorkflow fetches one workflow on the user's behalf. The entitlement
// check precedes the fetch: a valid credential without a grant yields
// Forbidden, not NotFound. The user subtree is tried first, then the
// public one.
func (s *WorkflowService) UserWorkflow(ctx context.Context, userID, token, relPath string) (string, error) {
	resolved, err := s.Entitlements(ctx, userID, token)
	if err != nil {
		return "", err
	}

	workflowID := strings.TrimSuffix(path.Base(relPath), s.ext)
	if !resolved.IsAuthorized(workflowID) {
		s.logger.Info("workflow access denied",
			zap.String("user_id", userID),
			zap.String("workflow_id", workflowID),
		)
		return "", util.NewForbidden("workflow not authorized")
	}

	contentStr, err := s.remote.Fetch(ctx, path.Join(s.remoteBase, userSubdir, relPath))
	if errors.Is(err, content.ErrNotFound) {
		contentStr, err = s.remote.Fetch(ctx, path.Join(s.remoteBase, relPath))
	}
	if err != nil {
		return "", mapContentError(err, "workflow")
	}
	return contentStr, nil
}

// CheckResult reports the authorization state of one workflow for one user.
type CheckResult struct {
	WorkflowID string  `json:"workflow_id"`
	Authorized bool    `json:"authorized"`
	ExpiresAt  *string `json:"expires_at"`
	Permanent  bool    `json:"permanent"`
}

// CheckWorkflow answers whether the user may access a workflow and until when.
func (s *WorkflowService) CheckWorkflow(ctx context.Context, userID, token, workflowID string) (*CheckResult, error) {
	resolved, err := s.Entitlements(ctx, userID, token)
	if err != nil {
		return nil, err
	}

	authorized := resolved.IsAuthorized(workflowID)
	expiry := resolved.Expiry(workflowID)
	return &CheckResult{
		WorkflowID: workflowID,
		Authorized: authorized,
		ExpiresAt:  expiry,
		Permanent:  authorized && expiry == nil,
	}, nil
}

// RemoteListing returns the unfiltered remote tree.
func (s *WorkflowService) RemoteListing(ctx context.Context) []domain.WorkflowFolder {
	return s.remote.ListDirectory(ctx, s.remoteBase)
}

// RemoteWorkflow fetches one file from the public remote subtree.
func (s *WorkflowService) RemoteWorkflow(ctx context.Context, relPath string) (string, error) {
	contentStr, err := s.remote.Fetch(ctx, path.Join(s.remoteBase, relPath))
	if err != nil {
		return "", mapContentError(err, "workflow")
	}
	return contentStr, nil
}

// LocalListing returns the local workflow tree.
func (s *WorkflowService) LocalListing() []domain.WorkflowFolder {
	return s.local.ListDirectory()
}

// LocalWorkflow reads one file from the local workflow directory.
func (s *WorkflowService) LocalWorkflow(relPath string) (string, error) {
	contentStr, err := s.local.Read(relPath)
	if err != nil {
		return "", mapContentError(err, "workflow")
	}
	return contentStr, nil
}

// ClearCache drops every cached listing, content payload and entitlement
// mapping. Administrative action, audited.
func (s *WorkflowService) ClearCache(ctx context.Context, userID string) error {
	if err := s.store.Clear(ctx); err != nil {
		return util.NewInternalError(err)
	}
	_ = s.dispatcher.Publish(ctx, events.New(events.EventCacheCleared, userID, nil))
	return nil
}

func mapContentError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, content.ErrNotFound):
		return util.NewNotFound(resource, nil)
	default:
		var domainErr *util.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return util.NewUpstreamUnavailable("content host", err)
	}
}

func mapIdentityError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, identity.ErrInvalidToken):
		return util.NewUnauthorized("invalid token")
	default:
		var domainErr *util.DomainError
		if errors.As(err, &domainErr) {
			return err
		}
		return util.NewUpstreamUnavailable("identity provider", err)
	}
}
