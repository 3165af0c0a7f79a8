// Package api exposes the HTTP surface: OAuth login, pattern and filter
// management, and the extraction audit log.
package api

import (
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/jimallen/TasksAgent-sub000/internal/classifier"
	"github.com/jimallen/TasksAgent-sub000/internal/filter"
	"github.com/jimallen/TasksAgent-sub000/internal/session"
	"github.com/jimallen/TasksAgent-sub000/internal/store"
)

type Server struct {
	Router            *chi.Mux
	store             store.Storer
	session           *session.Manager
	classifier        *classifier.Classifier
	filter            *filter.Evaluator
	googleOAuthConfig *oauth2.Config
	log               *zap.Logger
}

func NewServer(
	s store.Storer,
	sess *session.Manager,
	cls *classifier.Classifier,
	flt *filter.Evaluator,
	oauthConfig *oauth2.Config,
	log *zap.Logger,
) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	server := &Server{
		Router:            chi.NewRouter(),
		store:             s,
		session:           sess,
		classifier:        cls,
		filter:            flt,
		googleOAuthConfig: oauthConfig,
		log:               log,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

func (s *Server) setupMiddleware() {
	allowedOrigins := strings.Split(os.Getenv("ALLOWED_ORIGINS"), ",")
	s.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.Router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth())

		r.Get("/auth/google/login", s.handleGoogleLogin())
		r.Get("/auth/google/callback", s.handleGoogleCallback())

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(s.authMiddleware)

			r.Get("/status", s.handleStatus())

			r.Get("/patterns", s.handleGetPatterns())
			r.Post("/patterns", s.handleAddPattern())

			r.Get("/filter/criteria", s.handleGetFilterCriteria())
			r.Put("/filter/criteria", s.handleUpdateFilterCriteria())

			r.Get("/logs", s.handleGetExtractionLogs())
		})
	})
}

// authMiddleware validates the JWT bearer token.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			WriteJSONError(w, http.StatusUnauthorized, "Missing authentication header")
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		jwtKey := []byte(os.Getenv("JWT_SECRET_KEY"))

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return jwtKey, nil
		})

		if err != nil || !token.Valid {
			WriteJSONError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		next.ServeHTTP(w, r)
	})
}
