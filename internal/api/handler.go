// Package api exposes the tracked catalog over HTTP: CRUD per entity kind,
// a storage connectivity probe, and a self-describing route listing.
package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"git-insights/internal/model"
)

// AccountStore is the persistence surface the handlers need for accounts.
type AccountStore interface {
	Create(ctx context.Context, account model.Account) (model.Account, error)
	Get(ctx context.Context, id uuid.UUID) (model.Account, error)
	List(ctx context.Context) ([]model.Account, error)
	Update(ctx context.Context, account model.Account) (model.Account, error)
	Remove(ctx context.Context, id uuid.UUID) (model.Account, error)
}

// RepositoryStore is the persistence surface the handlers need for
// repositories.
type RepositoryStore interface {
	Create(ctx context.Context, repo model.Repository) (model.Repository, error)
	Get(ctx context.Context, id uuid.UUID) (model.Repository, error)
	List(ctx context.Context) ([]model.Repository, error)
	Update(ctx context.Context, repo model.Repository) (model.Repository, error)
	Remove(ctx context.Context, id uuid.UUID) (model.Repository, error)
}

// Pinger probes storage connectivity for the health endpoint. Satisfied by
// *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler is the container for API dependencies.
type Handler struct {
	accounts AccountStore
	repos    RepositoryStore
	db       Pinger
	logger   *slog.Logger
}

// NewRouter creates and configures a chi router with all API routes.
func NewRouter(accounts AccountStore, repos RepositoryStore, db Pinger, logger *slog.Logger) http.Handler {
	h := &Handler{
		accounts: accounts,
		repos:    repos,
		db:       db,
		logger:   logger,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/health", h.healthCheck)
	r.Get("/routes", h.listRoutes)

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.listAccounts)
		r.Post("/", h.createAccount)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(requireUUID)
			r.Get("/", h.getAccount)
			r.Patch("/", h.updateAccount)
			r.Delete("/", h.removeAccount)
		})
	})

	r.Route("/repos", func(r chi.Router) {
		r.Get("/", h.listRepositories)
		r.Post("/", h.createRepository)
		r.Route("/{id}", func(r chi.Router) {
			r.Use(requireUUID)
			r.Get("/", h.getRepository)
			r.Patch("/", h.updateRepository)
			r.Delete("/", h.removeRepository)
		})
	})

	return r
}

// requireUUID rejects requests whose id path parameter is not a UUID before
// any handler runs.
func requireUUID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := uuid.Parse(chi.URLParam(r, "id")); err != nil {
			respondWithError(w, http.StatusBadRequest, "id must be a UUID")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func pathID(r *http.Request) uuid.UUID {
	// requireUUID already validated the parameter.
	id, _ := uuid.Parse(chi.URLParam(r, "id"))
	return id
}

// healthCheck probes storage connectivity.
// GET /health
func (h *Handler) healthCheck(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		h.logger.Error("health check failed", "error", err)
		respondWithJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":   "healthy",
		"database": "connected",
	})
}

type routeInfo struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

// listRoutes describes every endpoint the service exposes.
// GET /routes
func (h *Handler) listRoutes(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]any{
		"service": "git-insights",
		"version": "1.0.0",
		"endpoints": []routeInfo{
			{"/health", http.MethodGet, "Health check - verifies database connectivity"},
			{"/routes", http.MethodGet, "Lists all available API endpoints"},
			{"/accounts", http.MethodGet, "Get all accounts"},
			{"/accounts", http.MethodPost, "Create a new account"},
			{"/accounts/{id}", http.MethodGet, "Get an account by ID"},
			{"/accounts/{id}", http.MethodPatch, "Update an account's metrics by ID"},
			{"/accounts/{id}", http.MethodDelete, "Soft delete an account by ID"},
			{"/repos", http.MethodGet, "Get all repositories"},
			{"/repos", http.MethodPost, "Create a new repository"},
			{"/repos/{id}", http.MethodGet, "Get a repository by ID"},
			{"/repos/{id}", http.MethodPatch, "Update a repository's metrics by ID"},
			{"/repos/{id}", http.MethodDelete, "Soft delete a repository by ID"},
		},
	})
}

type createAccountRequest struct {
	Name      string `json:"name"`
	Followers *int   `json:"followers"`
}

type createRepositoryRequest struct {
	Name        string    `json:"name"`
	AccountID   uuid.UUID `json:"account_id"`
	Clones      *int      `json:"clones"`
	Forks       *int      `json:"forks"`
	Stars       *int      `json:"stars"`
	Subscribers *int      `json:"subscribers"`
	Views       *int64    `json:"views"`
}

// updateMetricsRequest carries the optional counter overrides accepted by
// both PATCH endpoints; absent fields keep their stored values.
type updateMetricsRequest struct {
	Followers   *int   `json:"followers"`
	Clones      *int   `json:"clones"`
	Forks       *int   `json:"forks"`
	Stars       *int   `json:"stars"`
	Subscribers *int   `json:"subscribers"`
	Views       *int64 `json:"views"`
}

// GET /accounts
func (h *Handler) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.accounts.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list accounts", "error", err)
		respondWithError(w, statusForError(err), "failed to list accounts")
		return
	}
	respondWithJSON(w, http.StatusOK, accounts)
}

// POST /accounts
func (h *Handler) createAccount(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[createAccountRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}

	account := model.Account{
		// Names are stored lowercase.
		Name: strings.ToLower(req.Name),
	}
	if req.Followers != nil {
		account.Followers = *req.Followers
	}

	created, err := h.accounts.Create(r.Context(), account)
	if err != nil {
		h.logger.Error("failed to create account", "name", account.Name, "error", err)
		respondWithError(w, statusForError(err), "failed to create account")
		return
	}

	h.logger.Info("created account", "id", created.ID, "name", created.Name)
	respondWithJSON(w, http.StatusCreated, created)
}

// GET /accounts/{id}
func (h *Handler) getAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.Get(r.Context(), pathID(r))
	if err != nil {
		respondWithError(w, statusForError(err), "account not found")
		return
	}
	respondWithJSON(w, http.StatusOK, account)
}

// PATCH /accounts/{id}
func (h *Handler) updateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[updateMetricsRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	account, err := h.accounts.Get(r.Context(), pathID(r))
	if err != nil {
		respondWithError(w, statusForError(err), "account not found")
		return
	}

	if req.Followers != nil {
		account.Followers = *req.Followers
	}

	updated, err := h.accounts.Update(r.Context(), account)
	if err != nil {
		h.logger.Error("failed to update account", "id", account.ID, "error", err)
		respondWithError(w, statusForError(err), "failed to update account")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// DELETE /accounts/{id}
func (h *Handler) removeAccount(w http.ResponseWriter, r *http.Request) {
	removed, err := h.accounts.Remove(r.Context(), pathID(r))
	if err != nil {
		h.logger.Error("failed to remove account", "id", chi.URLParam(r, "id"), "error", err)
		respondWithError(w, statusForError(err), "failed to remove account")
		return
	}
	h.logger.Info("soft deleted account", "id", removed.ID, "name", removed.Name)
	respondWithJSON(w, http.StatusOK, removed)
}

// GET /repos
func (h *Handler) listRepositories(w http.ResponseWriter, r *http.Request) {
	repos, err := h.repos.List(r.Context())
	if err != nil {
		h.logger.Error("failed to list repositories", "error", err)
		respondWithError(w, statusForError(err), "failed to list repositories")
		return
	}
	respondWithJSON(w, http.StatusOK, repos)
}

// POST /repos
func (h *Handler) createRepository(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[createRepositoryRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Name == "" {
		respondWithError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.AccountID == uuid.Nil {
		respondWithError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	repo := model.Repository{
		Name:      strings.ToLower(req.Name),
		AccountID: req.AccountID,
	}
	if req.Clones != nil {
		repo.Clones = *req.Clones
	}
	if req.Forks != nil {
		repo.Forks = *req.Forks
	}
	if req.Stars != nil {
		repo.Stars = *req.Stars
	}
	if req.Subscribers != nil {
		repo.Subscribers = *req.Subscribers
	}
	if req.Views != nil {
		repo.Views = *req.Views
	}

	created, err := h.repos.Create(r.Context(), repo)
	if err != nil {
		h.logger.Error("failed to create repository", "name", repo.Name, "error", err)
		respondWithError(w, statusForError(err), "failed to create repository")
		return
	}

	h.logger.Info("created repository", "id", created.ID, "name", created.Name)
	respondWithJSON(w, http.StatusCreated, created)
}

// GET /repos/{id}
func (h *Handler) getRepository(w http.ResponseWriter, r *http.Request) {
	repo, err := h.repos.Get(r.Context(), pathID(r))
	if err != nil {
		respondWithError(w, statusForError(err), "repository not found")
		return
	}
	respondWithJSON(w, http.StatusOK, repo)
}

// PATCH /repos/{id}
func (h *Handler) updateRepository(w http.ResponseWriter, r *http.Request) {
	req, err := decodeJSON[updateMetricsRequest](r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	repo, err := h.repos.Get(r.Context(), pathID(r))
	if err != nil {
		respondWithError(w, statusForError(err), "repository not found")
		return
	}

	if req.Clones != nil {
		repo.Clones = *req.Clones
	}
	if req.Forks != nil {
		repo.Forks = *req.Forks
	}
	if req.Stars != nil {
		repo.Stars = *req.Stars
	}
	if req.Subscribers != nil {
		repo.Subscribers = *req.Subscribers
	}
	if req.Views != nil {
		repo.Views = *req.Views
	}

	updated, err := h.repos.Update(r.Context(), repo)
	if err != nil {
		h.logger.Error("failed to update repository", "id", repo.ID, "error", err)
		respondWithError(w, statusForError(err), "failed to update repository")
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

// DELETE /repos/{id}
func (h *Handler) removeRepository(w http.ResponseWriter, r *http.Request) {
	removed, err := h.repos.Remove(r.Context(), pathID(r))
	if err != nil {
		h.logger.Error("failed to remove repository", "id", chi.URLParam(r, "id"), "error", err)
		respondWithError(w, statusForError(err), "failed to remove repository")
		return
	}
	h.logger.Info("soft deleted repository", "id", removed.ID, "name", removed.Name)
	respondWithJSON(w, http.StatusOK, removed)
}
