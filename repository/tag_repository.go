package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/models"
)

// TagRepository handles database operations for Tag entities
type TagRepository struct {
	DB *gorm.DB
}

// NewTagRepository creates a new instance of TagRepository
func NewTagRepository(db *gorm.DB) *TagRepository {
	return &TagRepository{DB: db}
}

// ListNames returns every tag name in ascending order
func (r *TagRepository) ListNames(ctx context.Context) ([]string, error) {
	names := []string{}
	err := r.DB.WithContext(ctx).Model(&models.Tag{}).Order(database.TagOrderNameAsc).Pluck("name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list tags: %w", err)
	}
	return names, nil
}
