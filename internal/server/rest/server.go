// Package rest exposes the HTTP API: thin request dispatch over the
// services layer, bearer-token authorization, and structured error bodies.
package rest

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ymatrosov/linkstash/internal/logging"
	"github.com/ymatrosov/linkstash/internal/server/auth"
	"github.com/ymatrosov/linkstash/internal/server/models"
	"github.com/ymatrosov/linkstash/internal/server/services"
)

// userService is the authentication surface the handlers need. The concrete
// implementation is services.UserService; tests provide stubs.
type userService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	ValidateCredentials(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, id auth.Identity) (string, error)
	GetMe(ctx context.Context, userID string) (*models.User, error)
	UpdateMe(ctx context.Context, userID string, input services.UpdateMeInput) (*models.User, error)
	DeleteMe(ctx context.Context, userID string) error
}

// linkService is the link-query surface the handlers need.
type linkService interface {
	Create(ctx context.Context, ownerID string, input services.CreateLinkInput) (*models.Link, error)
	List(ctx context.Context, ownerID string, q services.ListQuery) ([]*models.Link, error)
	Get(ctx context.Context, ownerID, id string) (*models.Link, error)
	Update(ctx context.Context, ownerID, id string, input services.UpdateLinkInput) (*models.Link, error)
	Archive(ctx context.Context, ownerID, id string) (*models.Link, error)
	Unarchive(ctx context.Context, ownerID, id string) (*models.Link, error)
	Remove(ctx context.Context, ownerID, id string) error
	GetRandom(ctx context.Context, ownerID string, archived bool) (*models.Link, error)
}

// Server hosts the HTTP endpoint.
type Server struct {
	address   string
	users     userService
	links     linkService
	logger    logging.Logger
	jwtSecret []byte
}

// NewServer wires the HTTP layer. The secret must match the one the token
// service signs with.
func NewServer(address string, l logging.Logger, us userService, ls linkService, secretKey string) *Server {
	return &Server{
		address:   address,
		users:     us,
		links:     ls,
		logger:    l.With("module", "rest_server"),
		jwtSecret: []byte(secretKey),
	}
}

// routes builds the router. Everything past /auth/register and /auth/login
// sits behind the bearer-token guard.
func (s *Server) routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/auth/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/auth/me", s.handleAuthMe)

		r.Get("/users/me", s.handleGetMe)
		r.Patch("/users/me", s.handleUpdateMe)
		r.Delete("/users/me", s.handleDeleteMe)

		r.Route("/links", func(r chi.Router) {
			r.Post("/", s.handleCreateLink)
			r.Get("/", s.handleListLinks)
			r.Get("/random", s.handleRandomLink)
			r.Get("/{id}", s.handleGetLink)
			r.Patch("/{id}", s.handleUpdateLink)
			r.Post("/{id}/archive", s.handleArchiveLink)
			r.Post("/{id}/unarchive", s.handleUnarchiveLink)
			r.Delete("/{id}", s.handleDeleteLink)
		})
	})

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.address,
		Handler: s.routes(),
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown error", "error", err.Error())
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
