package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mionax/starfusion-manager/internal/config"
	"github.com/mionax/starfusion-manager/internal/domain"
	"github.com/mionax/starfusion-manager/internal/observability"
	"github.com/mionax/starfusion-manager/pkg/util"
)

// entitlementUDFKey is the custom-data field holding the user's
// entitlement document.
const entitlementUDFKey = "user_authing_info"

// starterPackageID is granted to every fresh registration.
const starterPackageID = "basic-tools"

// defaultAccessDays is how long a fresh registration keeps basic access.
const defaultAccessDays = 7

// AuthingClient talks to the Authing identity provider over HTTP. When
// the application secret is configured, token validation happens locally
// against the id token signature instead of a remote introspection call.
type AuthingClient struct {
	cfg        config.AuthingConfig
	httpClient *http.Client
	verifier   *TokenVerifier
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuthingClient builds the provider client.
func NewAuthingClient(cfg config.AuthingConfig, metrics *observability.Metrics, logger *zap.Logger) *AuthingClient {
	client := &AuthingClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		metrics:    metrics,
		logger:     logger,
	}
	if cfg.AppSecret != "" {
		client.verifier = NewTokenVerifier(cfg.AppSecret)
	}
	if !cfg.Enabled {
		logger.Warn("identity provider disabled, serving development identity")
	} else if cfg.AppID == "" {
		logger.Warn("identity provider enabled but AUTH_APP_ID is empty, validation will fail")
	}
	return client
}

// Validate checks a bearer token and returns the user behind it.
func (c *AuthingClient) Validate(ctx context.Context, token string) (*UserInfo, error) {
	if !c.cfg.Enabled {
		return devUser(), nil
	}
	if len(token) < 10 {
		return nil, ErrInvalidToken
	}

	if c.verifier != nil {
		if claims, err := c.verifier.Parse(token); err == nil {
			return claims.UserInfo(), nil
		}
		// Not a locally verifiable id token; fall through to the
		// provider, the token may still be an opaque access token.
	}

	var user UserInfo
	if err := c.get(ctx, "/api/v2/users/me", token, &user); err != nil {
		return nil, err
	}
	if user.ID == "" {
		return nil, ErrInvalidToken
	}
	return &user, nil
}

// CustomData fetches the raw entitlement document stored in the user's
// custom fields. The document arrives as a JSON string value; a missing
// field degrades to an empty payload, never an error the resolver cannot
// absorb.
func (c *AuthingClient) CustomData(ctx context.Context, token string) ([]byte, error) {
	if !c.cfg.Enabled {
		return devDocument(), nil
	}

	var fields map[string]json.RawMessage
	if err := c.get(ctx, "/api/v2/udfs/values", token, &fields); err != nil {
		return nil, err
	}

	raw, ok := fields[entitlementUDFKey]
	if !ok {
		c.logger.Debug("user has no entitlement document")
		return nil, nil
	}

	// Stored as a string-encoded JSON document; tolerate a plain object.
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err == nil {
		return []byte(encoded), nil
	}
	return raw, nil
}

type credentialsRequest struct {
	Username   string            `json:"username"`
	Password   string            `json:"password"`
	CustomData map[string]string `json:"customData,omitempty"`
}

type sessionResponse struct {
	UserInfo
	Token string `json:"token"`
}

// Login authenticates a username/password pair with the provider.
func (c *AuthingClient) Login(ctx context.Context, username, password string) (*Session, error) {
	if !c.cfg.Enabled {
		return &Session{User: *devUser(), Token: "dev-token"}, nil
	}

	var resp sessionResponse
	err := c.post(ctx, "/api/v2/login/username", credentialsRequest{Username: username, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.ID == "" || resp.Token == "" {
		return nil, ErrInvalidToken
	}
	return &Session{User: resp.UserInfo, Token: resp.Token}, nil
}

// Register creates a provider account seeded with the default entitlement
// document, then logs the new user in.
func (c *AuthingClient) Register(ctx context.Context, username, password string) (*Session, error) {
	if !c.cfg.Enabled {
		return &Session{User: *devUser(), Token: "dev-token"}, nil
	}

	doc, err := json.Marshal(defaultDocument(time.Now().UTC()))
	if err != nil {
		return nil, util.NewInternalError(err)
	}

	var created sessionResponse
	err = c.post(ctx, "/api/v2/register/username", credentialsRequest{
		Username:   username,
		Password:   password,
		CustomData: map[string]string{entitlementUDFKey: string(doc)},
	}, &created)
	if err != nil {
		return nil, err
	}
	if created.ID == "" {
		return nil, util.NewUpstreamUnavailable("identity provider", nil)
	}
	c.logger.Info("registered user with default entitlements", zap.String("user_id", created.ID))

	return c.Login(ctx, username, password)
}

// defaultDocument is the grant set every new registration starts with:
// time-boxed basic access plus the starter package, both expiring
// defaultAccessDays from now.
func defaultDocument(now time.Time) domain.EntitlementDocument {
	expiry := now.Add(defaultAccessDays * 24 * time.Hour).Format("2006-01-02T15:04:05.000Z")
	return domain.EntitlementDocument{
		BasicAccess: domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: &expiry},
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindTemp, ExpiresAt: &expiry}, PackageID: starterPackageID},
		},
		Workflows: []domain.DirectGrant{},
	}
}

func devUser() *UserInfo {
	return &UserInfo{ID: "dev_user_id", Username: "dev_user", Nickname: "Development User"}
}

func devDocument() []byte {
	doc, _ := json.Marshal(domain.EntitlementDocument{
		BasicAccess: domain.Grant{Kind: domain.GrantKindLifetime},
		Packages: []domain.PackageGrant{
			{Grant: domain.Grant{Kind: domain.GrantKindLifetime}, PackageID: starterPackageID},
		},
	})
	return doc
}

func (c *AuthingClient) get(ctx context.Context, path, token string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.AppHost+path, nil)
	if err != nil {
		return util.NewInternalError(err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return c.do(req, out)
}

func (c *AuthingClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return util.NewInternalError(err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AppHost+path, bytes.NewReader(payload))
	if err != nil {
		return util.NewInternalError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *AuthingClient) do(req *http.Request, out any) error {
	req.Header.Set("x-authing-app-id", c.cfg.AppID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.RecordUpstreamCall("authing", false)
		return util.NewUpstreamUnavailable("identity provider", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.metrics.RecordUpstreamCall("authing", true)
		return ErrInvalidToken
	case resp.StatusCode >= 400:
		c.metrics.RecordUpstreamCall("authing", false)
		c.logger.Warn("identity provider request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", resp.StatusCode),
		)
		return util.NewUpstreamUnavailable("identity provider",
			fmt.Errorf("status %d", resp.StatusCode))
	}
	c.metrics.RecordUpstreamCall("authing", true)

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return util.NewUpstreamUnavailable("identity provider", err)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return util.NewUpstreamUnavailable("identity provider", err)
	}
	return nil
}
