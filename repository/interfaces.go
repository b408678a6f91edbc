package repository

import (
	"context"

	"github.com/jmarc580625/familly-nexus/models"
)

// PersonRepositoryInterface defines the methods for person data operations
type PersonRepositoryInterface interface {
	Create(ctx context.Context, person *models.Person) error
	GetByID(ctx context.Context, id uint) (*models.Person, error)
	List(ctx context.Context, filter map[string]interface{}) ([]models.Person, error)
	Update(ctx context.Context, id uint, mutate func(*models.Person) error) (*models.Person, error)
	Delete(ctx context.Context, id uint) error
	Search(ctx context.Context, criteria PersonCriteria) ([]models.Person, error)
	SearchText(ctx context.Context, terms []string, limit int) ([]models.Person, error)
}

// PhotoRepositoryInterface defines the methods for photo data operations
type PhotoRepositoryInterface interface {
	Create(ctx context.Context, photo *models.Photo, tagNames []string, personIDs []uint) error
	GetByID(ctx context.Context, id uint) (*models.Photo, error)
	Filter(ctx context.Context, criteria PhotoCriteria) ([]models.Photo, error)
	SearchText(ctx context.Context, terms []string, limit int) ([]models.Photo, error)
	Delete(ctx context.Context, id uint) error
}

// TagRepositoryInterface defines the methods for tag data operations
type TagRepositoryInterface interface {
	ListNames(ctx context.Context) ([]string, error)
}
