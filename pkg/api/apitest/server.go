// Package apitest serves the marketplace REST API over an api.Client so clients can
// be exercised against real HTTP without the production backend.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	dashboard "github.com/goliatone/go-fundboard/components/dashboard"
	"github.com/goliatone/go-fundboard/pkg/api"
)

// Options configures the fake backend.
type Options struct {
	Client api.Client
	// SigningKey enables bearer token checks on /admin routes when set.
	SigningKey []byte
	Logger     *zap.Logger
}

// Server is an http.Handler exposing the marketplace API.
type Server struct {
	client api.Client
	key    []byte
	logger *zap.Logger
	router chi.Router
}

// New builds the fake backend router.
func New(opts Options) (*Server, error) {
	if opts.Client == nil {
		return nil, errors.New("apitest: client is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{client: opts.Client, key: opts.SigningKey, logger: logger}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(middleware.Recoverer)

	r.Post("/auth/login", s.login)
	r.Post("/checkout/verify", s.verifyCheckout)
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Group(func(r chi.Router) {
		r.Use(s.authenticate)
		r.Post("/files", s.uploadFiles)
		r.Route("/admin", func(r chi.Router) {
			r.Get("/contacts", s.listContacts)
			r.Get("/dashboard/stats", s.stats)
			r.Get("/banner-projects", s.bannerProjects)
			r.Post("/banner-projects", s.setBannerProjects)
			r.Get("/projects", s.listProjects)
			r.Get("/projects/{id}", s.getProject)
			r.Patch("/projects/{id}", s.updateProject)
			r.Post("/projects/{id}/publish", s.publishProject)
			r.Delete("/projects/{id}", s.deleteProject)
			r.Get("/videos", s.listVideos)
			r.Patch("/videos/{id}", s.updateVideo)
			r.Delete("/videos/{id}", s.deleteVideo)
			r.Get("/payments", s.listPayments)
		})
	})
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(api.RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(api.RequestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if len(s.key) == 0 {
			next.ServeHTTP(w, r)
			return
		}
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, "認証が必要です")
			return
		}
		_, err := jwt.Parse(raw, func(*jwt.Token) (any, error) { return s.key, nil },
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil {
			s.logger.Debug("rejected token", zap.Error(err))
			writeError(w, http.StatusUnauthorized, "認証が必要です")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listContacts(w http.ResponseWriter, r *http.Request) {
	contacts, err := s.client.ListContacts(r.Context(), search(r))
	s.respond(w, r, map[string]any{"contacts": contacts}, err)
}

func (s *Server) stats(w http.ResponseWriter, r *http.Request) {
	rng, err := dashboard.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	stats, err := s.client.FetchStats(r.Context(), rng)
	s.respond(w, r, stats, err)
}

func (s *Server) bannerProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.client.ListBannerProjects(r.Context())
	s.respond(w, r, projects, err)
}

// setBannerProjects accepts a bare array or {"projectIds": [...]}.
func (s *Server) setBannerProjects(w http.ResponseWriter, r *http.Request) {
	var raw json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		var body struct {
			ProjectIDs []string `json:"projectIds"`
		}
		if err := json.Unmarshal(raw, &body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}
		ids = body.ProjectIDs
	}
	projects, err := s.client.SetBannerProjects(r.Context(), ids)
	s.respond(w, r, projects, err)
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.client.ListProjects(r.Context(), search(r))
	s.respond(w, r, projects, err)
}

func (s *Server) getProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.client.GetProject(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, project, err)
}

func (s *Server) updateProject(w http.ResponseWriter, r *http.Request) {
	var update api.ProjectUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	project, err := s.client.UpdateProject(r.Context(), chi.URLParam(r, "id"), update)
	s.respond(w, r, project, err)
}

func (s *Server) publishProject(w http.ResponseWriter, r *http.Request) {
	project, err := s.client.PublishProject(r.Context(), chi.URLParam(r, "id"))
	s.respond(w, r, project, err)
}

func (s *Server) deleteProject(w http.ResponseWriter, r *http.Request) {
	s.respondEmpty(w, r, s.client.DeleteProject(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) listVideos(w http.ResponseWriter, r *http.Request) {
	videos, err := s.client.ListVideos(r.Context(), search(r))
	s.respond(w, r, videos, err)
}

func (s *Server) updateVideo(w http.ResponseWriter, r *http.Request) {
	var update api.VideoUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	video, err := s.client.UpdateVideo(r.Context(), chi.URLParam(r, "id"), update)
	s.respond(w, r, video, err)
}

func (s *Server) deleteVideo(w http.ResponseWriter, r *http.Request) {
	s.respondEmpty(w, r, s.client.DeleteVideo(r.Context(), chi.URLParam(r, "id")))
}

func (s *Server) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := s.client.ListPayments(r.Context(), search(r))
	s.respond(w, r, map[string]any{"payments": payments}, err)
}

func (s *Server) verifyCheckout(w http.ResponseWriter, r *http.Request) {
	var body struct {
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	confirmation, err := s.client.VerifyCheckout(r.Context(), body.SessionID)
	s.respond(w, r, confirmation, err)
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	resp, err := s.client.Login(r.Context(), body.Email, body.Password)
	s.respond(w, r, resp, err)
}

func (s *Server) uploadFiles(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	headers := r.MultipartForm.File["files"]
	files := make([]api.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("open %s", h.Filename))
			return
		}
		defer f.Close()
		files = append(files, api.UploadFile{Name: h.Filename, ContentType: h.Header.Get("Content-Type"), Body: f})
	}
	media, err := s.client.UploadFiles(r.Context(), files)
	s.respond(w, r, map[string]any{"files": media}, err)
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, payload any, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, payload)
}

func (s *Server) respondEmpty(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := err.Error()
	var apiErr *dashboard.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.Status
		message = apiErr.Message
	}
	s.logger.Debug("request failed",
		zap.String("method", r.Method), zap.String("path", r.URL.Path),
		zap.Int("status", status), zap.Error(err))
	writeError(w, status, message)
}

func search(r *http.Request) string {
	return r.URL.Query().Get("search")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}
