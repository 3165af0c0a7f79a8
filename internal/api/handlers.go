package api

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jimallen/TasksAgent-sub000/internal/classifier"
	"github.com/jimallen/TasksAgent-sub000/internal/domain"
)

const oauthStateCookieName = "oauthstate"

// generateJWT creates a signed token for the single deployment owner.
func generateJWT() (string, error) {
	jwtKey := []byte(os.Getenv("JWT_SECRET_KEY"))
	if len(jwtKey) == 0 {
		return "", fmt.Errorf("JWT_SECRET_KEY is not set")
	}

	claims := jwt.MapClaims{
		"sub": "owner",
		"iss": "tasks-agent",
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(time.Hour * 24 * 7).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtKey)
	if err != nil {
		return "", fmt.Errorf("could not sign token: %w", err)
	}

	return tokenString, nil
}

func generateStateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// --- HEALTH ---

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// --- AUTH HANDLERS ---

// handleGoogleLogin starts the OAuth flow.
func (s *Server) handleGoogleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := generateStateToken()
		if err != nil {
			WriteJSONError(w, http.StatusInternalServerError, "Could not generate state token")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookieName,
			Value:    state,
			Expires:  time.Now().Add(10 * time.Minute),
			HttpOnly: true,
			Secure:   r.TLS != nil,
			SameSite: http.SameSiteLaxMode,
		})

		url := s.googleOAuthConfig.AuthCodeURL(state,
			oauth2.AccessTypeOffline,
			oauth2.SetAuthURLParam("prompt", "consent"))
		http.Redirect(w, r, url, http.StatusTemporaryRedirect)
	}
}

// handleGoogleCallback exchanges the code, stores the credential, and hands
// back an API token.
func (s *Server) handleGoogleCallback() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stateCookie, err := r.Cookie(oauthStateCookieName)
		if err != nil || r.URL.Query().Get("state") != stateCookie.Value {
			WriteJSONError(w, http.StatusBadRequest, "Invalid OAuth state")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			WriteJSONError(w, http.StatusBadRequest, "Missing authorization code")
			return
		}

		token, err := s.googleOAuthConfig.Exchange(r.Context(), code)
		if err != nil {
			s.log.Error("oauth exchange failed", zap.String("component", "api"), zap.Error(err))
			WriteJSONError(w, http.StatusInternalServerError, "Could not exchange authorization code")
			return
		}

		err = s.session.SetCredential(r.Context(), domain.Credential{
			AccessToken:  token.AccessToken,
			RefreshToken: token.RefreshToken,
			Expiry:       token.Expiry,
		})
		if err != nil {
			s.log.Error("could not store credential", zap.String("component", "api"), zap.Error(err))
			WriteJSONError(w, http.StatusInternalServerError, "Could not store credential")
			return
		}

		apiToken, err := generateJWT()
		if err != nil {
			WriteJSONError(w, http.StatusInternalServerError, "Could not create API token")
			return
		}

		WriteJSON(w, http.StatusOK, map[string]string{"token": apiToken})
	}
}

// --- STATUS ---

func (s *Server) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		authenticated := s.session.EnsureValidToken(r.Context()) == nil

		WriteJSON(w, http.StatusOK, map[string]any{
			"gmailAuthenticated": authenticated,
			"patternCount":       s.classifier.Registry().Len(),
		})
	}
}

// --- PATTERN HANDLERS ---

type patternView struct {
	Field    domain.RuleField `json:"field"`
	Pattern  string           `json:"pattern"`
	IsRegex  bool             `json:"isRegex"`
	Priority int              `json:"priority"`
	Service  domain.Service   `json:"service,omitempty"`
}

func (s *Server) handleGetPatterns() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules := s.classifier.Registry().Rules()

		views := make([]patternView, 0, len(rules))
		for _, rule := range rules {
			v := patternView{
				Field:    rule.Field,
				Pattern:  rule.Pattern,
				Priority: rule.Priority,
				Service:  rule.Service,
			}
			if rule.Regex != nil {
				v.Pattern = rule.Regex.String()
				v.IsRegex = true
			}
			views = append(views, v)
		}

		WriteJSON(w, http.StatusOK, views)
	}
}

type addPatternRequest struct {
	Field    domain.RuleField `json:"field"`
	Pattern  string           `json:"pattern"`
	IsRegex  bool             `json:"isRegex"`
	Priority int              `json:"priority"`
	Service  domain.Service   `json:"service"`
}

func (s *Server) handleAddPattern() http.HandlerFunc {
	validFields := map[domain.RuleField]bool{
		domain.RuleFieldSender:     true,
		domain.RuleFieldSubject:    true,
		domain.RuleFieldBody:       true,
		domain.RuleFieldAttachment: true,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		var req addPatternRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		if !validFields[req.Field] {
			WriteJSONError(w, http.StatusBadRequest, "Unknown rule field")
			return
		}
		if req.Pattern == "" {
			WriteJSONError(w, http.StatusBadRequest, "Pattern must not be empty")
			return
		}
		if req.Priority < 1 || req.Priority > 10 {
			WriteJSONError(w, http.StatusBadRequest, "Priority must be between 1 and 10")
			return
		}

		var rule classifier.Rule
		if req.IsRegex {
			var err error
			rule, err = classifier.NewRegexRule(req.Field, req.Pattern, req.Priority, req.Service)
			if err != nil {
				WriteJSONError(w, http.StatusBadRequest, "Invalid regular expression")
				return
			}
		} else {
			rule = classifier.NewLiteralRule(req.Field, req.Pattern, req.Priority, req.Service)
		}

		s.classifier.Registry().Add(rule)
		s.log.Info("added classification pattern",
			zap.String("component", "api"),
			zap.String("field", string(req.Field)),
			zap.Int("priority", req.Priority))

		WriteJSON(w, http.StatusCreated, map[string]int{"patternCount": s.classifier.Registry().Len()})
	}
}

// --- FILTER HANDLERS ---

func (s *Server) handleGetFilterCriteria() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		WriteJSON(w, http.StatusOK, s.filter.DefaultCriteria())
	}
}

func (s *Server) handleUpdateFilterCriteria() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var criteria domain.FilterCriteria
		if err := json.NewDecoder(r.Body).Decode(&criteria); err != nil {
			WriteJSONError(w, http.StatusBadRequest, "Invalid request body")
			return
		}

		s.filter.UpdateDefaultCriteria(criteria)
		WriteJSON(w, http.StatusOK, s.filter.DefaultCriteria())
	}
}

// --- LOG HANDLERS ---

func (s *Server) handleGetExtractionLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 500 {
				limit = n
			}
		}

		logs, err := s.store.GetExtractionLogs(r.Context(), limit)
		if err != nil {
			s.log.Error("could not load extraction logs", zap.String("component", "api"), zap.Error(err))
			WriteJSONError(w, http.StatusInternalServerError, "Could not load extraction logs")
			return
		}
		if logs == nil {
			logs = []domain.ExtractionLog{}
		}

		WriteJSON(w, http.StatusOK, logs)
	}
}
