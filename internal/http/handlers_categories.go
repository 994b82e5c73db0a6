package http

import (
	"net/http"

	"fintrack/internal/core"
)

type categoryRequest struct {
	Name  string            `json:"name"`
	Kind  core.CategoryKind `json:"transaction_type"`
	Color string            `json:"color"`
	Icon  string            `json:"icon"`
}

func (req categoryRequest) category() core.Category {
	return core.Category{
		Name:  sanitizeInput(req.Name),
		Kind:  req.Kind,
		Color: sanitizeInput(req.Color),
		Icon:  sanitizeInput(req.Icon),
	}
}

type tagRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request, userID int64) error {
	categories, err := s.deps.Categories.List(r.Context(), userID)
	if err != nil {
		return err
	}
	if categories == nil {
		categories = []core.Category{}
	}
	writeJSON(w, http.StatusOK, categories)
	return nil
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := s.deps.Categories.Create(r.Context(), userID, req.category())
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateCategory(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req categoryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	c := req.category()
	c.ID = id
	updated, err := s.deps.Categories.Update(r.Context(), userID, c)
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Categories.Delete(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}

func (s *Server) handleListTags(w http.ResponseWriter, r *http.Request, userID int64) error {
	tags, err := s.deps.Categories.ListTags(r.Context(), userID)
	if err != nil {
		return err
	}
	if tags == nil {
		tags = []core.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
	return nil
}

func (s *Server) handleCreateTag(w http.ResponseWriter, r *http.Request, userID int64) error {
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	created, err := s.deps.Categories.CreateTag(r.Context(), userID, core.Tag{
		Name:  sanitizeInput(req.Name),
		Color: sanitizeInput(req.Color),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusCreated, created)
	return nil
}

func (s *Server) handleUpdateTag(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	var req tagRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return err
	}
	updated, err := s.deps.Categories.UpdateTag(r.Context(), userID, core.Tag{
		ID:    id,
		Name:  sanitizeInput(req.Name),
		Color: sanitizeInput(req.Color),
	})
	if err != nil {
		return err
	}
	writeJSON(w, http.StatusOK, updated)
	return nil
}

func (s *Server) handleDeleteTag(w http.ResponseWriter, r *http.Request, userID int64) error {
	id, err := pathID(r, "id")
	if err != nil {
		return err
	}
	if err := s.deps.Categories.DeleteTag(r.Context(), userID, id); err != nil {
		return err
	}
	w.WriteHeader(http.StatusNoContent)
	return nil
}
