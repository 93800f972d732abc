package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lakelandsports/cms/internal/server/models"
)

type postResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Body      string    `json:"body"`
	Published bool      `json:"published"`
	AuthorID  string    `json:"authorId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Body:      p.Body,
		Published: p.Published,
		AuthorID:  p.AuthorID,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

// handleListPosts serves the public news feed: published posts only.
func (s *Server) handleListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := s.posts.List(ctx, true)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{"posts": out})
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := s.posts.GetBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	if !post.Published {
		// Drafts exist only for the dashboard; the public URL 404s.
		s.writeErrorCode(ctx, w, http.StatusNotFound, "not_found", "resource not found")
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, toPostResponse(post))
}

// handleAdminListPosts includes drafts; the dashboard edits unpublished work.
func (s *Server) handleAdminListPosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	posts, err := s.posts.List(ctx, false)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}

	out := make([]postResponse, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostResponse(p))
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]any{"posts": out})
}

type postRequest struct {
	Title     string `json:"title" validate:"required,min=3,max=200"`
	Body      string `json:"body" validate:"required"`
	Published bool   `json:"published"`
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	claims := claimsFrom(ctx)
	post, err := s.posts.Create(ctx, claims.UserID, req.Title, req.Body, req.Published)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusCreated, toPostResponse(post))
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req postRequest
	if !s.decodeValid(w, r, &req) {
		return
	}

	post, err := s.posts.Update(ctx, chi.URLParam(r, "id"), req.Title, req.Body, req.Published)
	if err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, toPostResponse(post))
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := s.posts.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		s.writeError(ctx, w, err)
		return
	}
	s.writeJSON(ctx, w, http.StatusOK, map[string]string{"message": "post deleted"})
}
