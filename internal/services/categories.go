package services

import (
	"context"
	"fmt"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/ports"
)

// CategoryStore is the storage the category service needs.
type CategoryStore interface {
	ports.CategoryStore
	ports.TagStore
}

type CategoryService struct {
	store CategoryStore
}

func NewCategoryService(store CategoryStore) *CategoryService {
	return &CategoryService{store: store}
}

func (s *CategoryService) Create(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	c.UserID = userID
	c.Name = strings.TrimSpace(c.Name)
	c.IsDefault = false
	if c.Color == "" {
		c.Color = core.DefaultCategoryColor
	}
	if c.Icon == "" {
		c.Icon = core.DefaultCategoryIcon
	}
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.store.CreateCategory(ctx, c)
}

func (s *CategoryService) List(ctx context.Context, userID int64) ([]core.Category, error) {
	return s.store.ListCategories(ctx, userID)
}

// Update replaces the editable fields. Blank colour or icon keep the stored value.
func (s *CategoryService) Update(ctx context.Context, userID int64, c core.Category) (core.Category, error) {
	existing, err := s.store.GetCategory(ctx, userID, c.ID)
	if err != nil {
		return core.Category{}, err
	}
	existing.Name = strings.TrimSpace(c.Name)
	existing.Kind = c.Kind
	if c.Color != "" {
		existing.Color = c.Color
	}
	if c.Icon != "" {
		existing.Icon = c.Icon
	}
	if err := existing.Validate(); err != nil {
		return core.Category{}, err
	}
	return s.store.UpdateCategory(ctx, existing)
}

func (s *CategoryService) Delete(ctx context.Context, userID, id int64) error {
	return s.store.DeleteCategory(ctx, userID, id)
}

func (s *CategoryService) CreateTag(ctx context.Context, userID int64, t core.Tag) (core.Tag, error) {
	t.UserID = userID
	t.Name = strings.TrimSpace(t.Name)
	if t.Color == "" {
		t.Color = core.DefaultTagColor
	}
	if err := t.Validate(); err != nil {
		return core.Tag{}, err
	}
	return s.store.CreateTag(ctx, t)
}

func (s *CategoryService) ListTags(ctx context.Context, userID int64) ([]core.Tag, error) {
	return s.store.ListTags(ctx, userID)
}

// UpdateTag renames or recolours a tag. A blank colour keeps the stored one.
func (s *CategoryService) UpdateTag(ctx context.Context, userID int64, t core.Tag) (core.Tag, error) {
	tags, err := s.store.ListTags(ctx, userID)
	if err != nil {
		return core.Tag{}, err
	}
	var existing *core.Tag
	for i := range tags {
		if tags[i].ID == t.ID {
			existing = &tags[i]
			break
		}
	}
	if existing == nil {
		return core.Tag{}, fmt.Errorf("tag %d: %w", t.ID, core.ErrNotFound)
	}
	existing.Name = strings.TrimSpace(t.Name)
	if t.Color != "" {
		existing.Color = t.Color
	}
	if err := existing.Validate(); err != nil {
		return core.Tag{}, err
	}
	return s.store.UpdateTag(ctx, *existing)
}

func (s *CategoryService) DeleteTag(ctx context.Context, userID, id int64) error {
	return s.store.DeleteTag(ctx, userID, id)
}
