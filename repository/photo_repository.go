package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/models"
)

// PhotoRepository handles database operations for Photo entities and their
// tag and person associations
type PhotoRepository struct {
	DB *gorm.DB
}

// NewPhotoRepository creates a new instance of PhotoRepository
func NewPhotoRepository(db *gorm.DB) *PhotoRepository {
	return &PhotoRepository{DB: db}
}

// Create inserts the photo in a single transaction. Each tag name is looked
// up or created; person ids that do not exist are dropped. On success photo
// carries its ID, Tags and People.
func (r *PhotoRepository) Create(ctx context.Context, photo *models.Photo, tagNames []string, personIDs []uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tags := make([]models.Tag, 0, len(tagNames))
		for _, name := range tagNames {
			tag := models.Tag{Name: name}
			if err := tx.Where(models.Tag{Name: name}).FirstOrCreate(&tag).Error; err != nil {
				return fmt.Errorf("failed to resolve tag '%s': %w", name, err)
			}
			tags = append(tags, tag)
		}

		people := []models.Person{}
		if len(personIDs) > 0 {
			err := tx.Where("id IN ?", personIDs).Order(database.PersonOrderNameAsc).Find(&people).Error
			if err != nil {
				return fmt.Errorf("failed to resolve people %v: %w", personIDs, err)
			}
		}

		photo.Tags = tags
		photo.People = people
		if err := tx.Omit("Tags.*", "People.*").Create(photo).Error; err != nil {
			return fmt.Errorf("failed to create photo record for %s: %w", photo.StorageKey, err)
		}
		return nil
	})
}

// preloaded returns a query that loads tags and people alongside photos.
func (r *PhotoRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.DB.WithContext(ctx).
		Preload("Tags", func(db *gorm.DB) *gorm.DB { return db.Order(database.TagOrderNameAsc) }).
		Preload("People", func(db *gorm.DB) *gorm.DB { return db.Order(database.PersonOrderNameAsc) })
}

// GetByID retrieves a photo by its ID with tags and people
func (r *PhotoRepository) GetByID(ctx context.Context, id uint) (*models.Photo, error) {
	var photo models.Photo
	err := r.preloaded(ctx).First(&photo, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get photo by ID %d: %w", id, err)
	}
	return &photo, nil
}

// Filter returns the photos matching every applied criterion, most recently
// taken first.
func (r *PhotoRepository) Filter(ctx context.Context, criteria PhotoCriteria) ([]models.Photo, error) {
	conds := sq.And{}

	if len(criteria.Tags) > 0 {
		tags := uniqueStrings(criteria.Tags)
		carriesAll := database.Builder.Select("photo_id").
			From("photo_tags").
			Where(sq.Eq{"tag_name": tags}).
			GroupBy("photo_id").
			Having("COUNT(DISTINCT tag_name) = ?", len(tags))
		conds = append(conds, database.InSubquery("photos.id", carriesAll))
	}
	if len(criteria.People) > 0 {
		withAny := database.Builder.Select("photo_id").
			From("photo_people").
			Where(sq.Eq{"person_id": criteria.People})
		conds = append(conds, database.InSubquery("photos.id", withAny))
	}
	if criteria.StartDate != nil {
		conds = append(conds, sq.GtOrEq{"photos.date_taken": criteria.StartDate.UTC()})
	}
	if criteria.EndDate != nil {
		conds = append(conds, sq.LtOrEq{"photos.date_taken": criteria.EndDate.UTC()})
	}
	if strings.TrimSpace(criteria.Location) != "" {
		conds = append(conds, database.LowerLike("photos.location_name", database.ContainsPattern(criteria.Location)))
	}

	var cond sq.Sqlizer
	if len(conds) > 0 {
		cond = conds
	}
	photos, err := r.findWhere(ctx, cond, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to filter photos: %w", err)
	}
	return photos, nil
}

// SearchText returns the photos where any term is a case-insensitive
// substring of the title, description, location, one of the tag names or the
// first or last name of one of the people.
func (r *PhotoRepository) SearchText(ctx context.Context, terms []string, limit int) ([]models.Photo, error) {
	if len(terms) == 0 {
		return []models.Photo{}, nil
	}

	or := sq.Or{}
	for _, term := range terms {
		pattern := database.ContainsPattern(term)
		byTag := database.Builder.Select("photo_tags.photo_id").
			From("photo_tags").
			Where(database.LowerLike("photo_tags.tag_name", pattern))
		byPerson := database.Builder.Select("photo_people.photo_id").
			From("photo_people").
			Join("people ON people.id = photo_people.person_id").
			Where(sq.Or{
				database.LowerLike("people.first_name", pattern),
				database.LowerLike("people.last_name", pattern),
			})

		or = append(or,
			database.ContainsAny(term, "photos.title", "photos.description", "photos.location_name"),
			database.InSubquery("photos.id", byTag),
			database.InSubquery("photos.id", byPerson),
		)
	}

	photos, err := r.findWhere(ctx, or, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search photos for %v: %w", terms, err)
	}
	return photos, nil
}

func (r *PhotoRepository) findWhere(ctx context.Context, cond sq.Sqlizer, limit int) ([]models.Photo, error) {
	query := r.preloaded(ctx).Model(&models.Photo{})
	if cond != nil {
		where, args, err := database.Predicate(cond)
		if err != nil {
			return nil, err
		}
		query = query.Where(where, args...)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	photos := []models.Photo{}
	if err := query.Order(database.PhotoOrderDateTakenDesc).Find(&photos).Error; err != nil {
		return nil, err
	}
	return photos, nil
}

// Delete removes the photo record and its tag and person associations.
func (r *PhotoRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, joinTable := range []string{"photo_tags", "photo_people"} {
			sql, args, err := database.Builder.Delete(joinTable).Where(sq.Eq{"photo_id": id}).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build SQL query for %s: %w", joinTable, err)
			}
			if err := tx.Exec(sql, args...).Error; err != nil {
				return fmt.Errorf("failed to delete %s rows of photo ID %d: %w", joinTable, id, err)
			}
		}

		result := tx.Delete(&models.Photo{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete photo ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
