package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// tokenPair is the JWT pair issued by /api/auth/login and /api/auth/token.
type tokenPair struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

// TokenProviderImpl obtains and caches ThingsBoard JWT tokens. Tokens are
// cached on disk per tenant so repeated CLI runs do not re-login, and
// refreshed through the refresh endpoint when the access token is rejected.
type TokenProviderImpl struct {
	baseURL  string
	tenantID string
	username string
	password string
	cacheDir string
	client   *http.Client

	mu   sync.Mutex
	pair tokenPair
}

// NewTokenProvider creates a token provider for one tenant account.
// cacheDir may be empty to disable the on-disk cache.
func NewTokenProvider(baseURL, tenantID, username, password, cacheDir string) *TokenProviderImpl {
	return &TokenProviderImpl{
		baseURL:  strings.TrimRight(baseURL, "/"),
		tenantID: tenantID,
		username: username,
		password: password,
		cacheDir: cacheDir,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Token returns a bearer token, in order of preference: the in-memory token,
// the on-disk cached token, a refreshed token, or a fresh login.
func (p *TokenProviderImpl) Token(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pair.Token != "" {
		return p.pair.Token, nil
	}

	if cached, ok := p.loadCache(); ok {
		p.pair = cached
		return p.pair.Token, nil
	}

	if p.pair.RefreshToken != "" {
		if pair, err := p.refresh(ctx, p.pair.RefreshToken); err == nil {
			p.pair = pair
			p.saveCache()
			return p.pair.Token, nil
		}
		p.pair = tokenPair{}
	}

	pair, err := p.login(ctx)
	if err != nil {
		return "", err
	}
	p.pair = pair
	p.saveCache()
	return p.pair.Token, nil
}

// Invalidate discards the current access token, in memory and on disk. The
// refresh token is kept so the next Token call can try the refresh endpoint
// before falling back to a full login.
func (p *TokenProviderImpl) Invalidate() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.pair.Token = ""
	if p.cacheDir == "" {
		return nil
	}
	if err := os.Remove(p.cachePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing token cache: %w", err)
	}
	return nil
}

func (p *TokenProviderImpl) login(ctx context.Context) (tokenPair, error) {
	body, _ := json.Marshal(map[string]string{
		"username": p.username,
		"password": p.password,
	})
	return p.postAuth(ctx, "/api/auth/login", body, "login")
}

func (p *TokenProviderImpl) refresh(ctx context.Context, refreshToken string) (tokenPair, error) {
	body, _ := json.Marshal(map[string]string{
		"refreshToken": refreshToken,
	})
	return p.postAuth(ctx, "/api/auth/token", body, "token refresh")
}

func (p *TokenProviderImpl) postAuth(ctx context.Context, path string, body []byte, what string) (tokenPair, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return tokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return tokenPair{}, fmt.Errorf("%s request: %w", what, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return tokenPair{}, err
	}
	if resp.StatusCode != http.StatusOK {
		return tokenPair{}, fmt.Errorf("%s failed: HTTP %d: %s", what, resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var pair tokenPair
	if err := json.Unmarshal(data, &pair); err != nil {
		return tokenPair{}, fmt.Errorf("decoding %s response: %w", what, err)
	}
	if pair.Token == "" {
		return tokenPair{}, fmt.Errorf("%s response had no token", what)
	}
	return pair, nil
}

func (p *TokenProviderImpl) cachePath() string {
	tenant := p.tenantID
	if tenant == "" {
		tenant = "default"
	}
	return filepath.Join(p.cacheDir, fmt.Sprintf("tb_token_%s.json", tenant))
}

func (p *TokenProviderImpl) loadCache() (tokenPair, bool) {
	if p.cacheDir == "" {
		return tokenPair{}, false
	}
	data, err := os.ReadFile(p.cachePath())
	if err != nil {
		return tokenPair{}, false
	}
	var pair tokenPair
	if err := json.Unmarshal(data, &pair); err != nil || pair.Token == "" {
		return tokenPair{}, false
	}
	return pair, true
}

func (p *TokenProviderImpl) saveCache() {
	if p.cacheDir == "" {
		return
	}
	if err := os.MkdirAll(p.cacheDir, 0o700); err != nil {
		return
	}
	data, err := json.Marshal(p.pair)
	if err != nil {
		return
	}
	// best-effort cache, a failed write only costs a future login
	_ = os.WriteFile(p.cachePath(), data, 0o600)
}
