// Package session owns the OAuth credential and provides the single
// authenticated-request primitive the fetch layer builds on.
package session

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

// refreshSkew: tokens expiring within this window are refreshed proactively.
const refreshSkew = 60 * time.Second

// CredentialStore is the injected load/save collaborator for credentials.
type CredentialStore interface {
	LoadCredential(ctx context.Context) (*domain.Credential, error)
	SaveCredential(ctx context.Context, cred domain.Credential) error
}

// Manager holds the access/refresh token pair, refreshes it before expiry,
// and issues authenticated requests with a single 401-triggered retry.
// Concurrent callers near expiry share one refresh via singleflight.
type Manager struct {
	oauthCfg   *oauth2.Config
	store      CredentialStore
	httpClient *http.Client
	log        *zap.Logger

	group singleflight.Group

	mu   sync.Mutex
	cred *domain.Credential
}

// NewManager builds a session manager. The credential is loaded lazily from
// the store on first use.
func NewManager(oauthCfg *oauth2.Config, store CredentialStore, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		oauthCfg:   oauthCfg,
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        log,
	}
}

// SetHTTPClient overrides the transport. Mainly for tests.
func (m *Manager) SetHTTPClient(c *http.Client) { m.httpClient = c }

// SetCredential installs a credential directly, e.g. right after an OAuth
// exchange performed elsewhere.
func (m *Manager) SetCredential(ctx context.Context, cred domain.Credential) error {
	m.mu.Lock()
	m.cred = &cred
	m.mu.Unlock()
	if m.store != nil {
		if err := m.store.SaveCredential(ctx, cred); err != nil {
			return fmt.Errorf("could not persist credential: %w", err)
		}
	}
	return nil
}

func (m *Manager) currentCredential(ctx context.Context) (*domain.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cred == nil && m.store != nil {
		cred, err := m.store.LoadCredential(ctx)
		if err != nil {
			return nil, fmt.Errorf("could not load credential: %w", err)
		}
		m.cred = cred
	}
	if m.cred == nil || m.cred.AccessToken == "" {
		return nil, &AuthError{Reason: "not authenticated, no token available"}
	}
	c := *m.cred
	return &c, nil
}

// EnsureValidToken makes sure a non-expired token is available, refreshing
// proactively when expiry is within the skew window.
func (m *Manager) EnsureValidToken(ctx context.Context) error {
	cred, err := m.currentCredential(ctx)
	if err != nil {
		return err
	}

	if cred.Expiry.IsZero() || time.Until(cred.Expiry) > refreshSkew {
		return nil
	}

	m.log.Debug("token expired or expiring soon, refreshing",
		zap.String("component", "session"),
		zap.Time("expiry", cred.Expiry))
	return m.refresh(ctx)
}

// refresh exchanges the refresh token for a new access token. Concurrent
// callers collapse onto one in-flight refresh.
func (m *Manager) refresh(ctx context.Context) error {
	_, err, _ := m.group.Do("refresh", func() (any, error) {
		cred, err := m.currentCredential(ctx)
		if err != nil {
			return nil, err
		}
		if cred.RefreshToken == "" {
			return nil, &AuthError{Reason: "cannot refresh, no refresh token stored"}
		}

		ts := m.oauthCfg.TokenSource(ctx, &oauth2.Token{
			AccessToken:  cred.AccessToken,
			RefreshToken: cred.RefreshToken,
			TokenType:    "Bearer",
			Expiry:       time.Now().Add(-time.Minute), // force the source to refresh
		})
		token, err := ts.Token()
		if err != nil {
			return nil, &AuthError{Reason: "token refresh failed (access possibly revoked)", Err: err}
		}

		refreshed := domain.Credential{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		}
		if refreshed.RefreshToken == "" {
			refreshed.RefreshToken = cred.RefreshToken
		}

		m.mu.Lock()
		m.cred = &refreshed
		m.mu.Unlock()

		if m.store != nil {
			if err := m.store.SaveCredential(ctx, refreshed); err != nil {
				m.log.Error("could not persist refreshed credential",
					zap.String("component", "session"), zap.Error(err))
			}
		}

		m.log.Info("token refreshed", zap.String("component", "session"),
			zap.Time("expiry", refreshed.Expiry))
		return nil, nil
	})
	return err
}

// Do issues an authenticated request. On a 401 it refreshes once and retries
// once; any further failure propagates to the caller.
func (m *Manager) Do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	if err := m.EnsureValidToken(ctx); err != nil {
		return nil, err
	}

	resp, err := m.send(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()

		m.log.Info("received 401, refreshing token and retrying once",
			zap.String("component", "session"), zap.String("url", url))
		if err := m.refresh(ctx); err != nil {
			return nil, err
		}

		resp, err = m.send(ctx, method, url, body)
		if err != nil {
			return nil, err
		}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &RequestError{Status: resp.StatusCode, URL: url}
	}

	return resp, nil
}

// GetJSON issues an authenticated GET and decodes the JSON response body.
func (m *Manager) GetJSON(ctx context.Context, url string, out any) error {
	resp, err := m.Do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("could not decode response from %s: %w", url, err)
	}
	return nil
}

func (m *Manager) send(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("could not build request: %w", err)
	}

	cred, err := m.currentCredential(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", url, err)
	}
	return resp, nil
}
