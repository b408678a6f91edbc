package repository

import (
	"context"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/models"
)

// personColumns are the columns a partial update may write.
var personColumns = []string{"first_name", "last_name", "birth_date", "death_date", "description"}

// PersonRepository handles database operations for Person entities
type PersonRepository struct {
	DB *gorm.DB
}

// NewPersonRepository creates a new instance of PersonRepository
func NewPersonRepository(db *gorm.DB) *PersonRepository {
	return &PersonRepository{DB: db}
}

// Create creates a new person record in the database
func (r *PersonRepository) Create(ctx context.Context, person *models.Person) error {
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(person).Error
	})
	if err != nil {
		return fmt.Errorf("failed to create person %s %s: %w", person.FirstName, person.LastName, err)
	}
	return nil
}

// GetByID retrieves a person by their ID
func (r *PersonRepository) GetByID(ctx context.Context, id uint) (*models.Person, error) {
	var person models.Person
	err := r.DB.WithContext(ctx).First(&person, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get person by ID %d: %w", id, err)
	}
	return &person, nil
}

// List retrieves the people whose columns equal every value in filter. An
// empty filter returns everyone.
func (r *PersonRepository) List(ctx context.Context, filter map[string]interface{}) ([]models.Person, error) {
	people := []models.Person{}
	query := r.DB.WithContext(ctx).Model(&models.Person{})
	if len(filter) > 0 {
		query = query.Where(filter)
	}
	if err := query.Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to list people: %w", err)
	}
	return people, nil
}

// Update loads the person, applies mutate and writes every updatable column
// back inside one transaction. An error returned by mutate aborts the update
// and is returned unchanged.
func (r *PersonRepository) Update(ctx context.Context, id uint, mutate func(*models.Person) error) (*models.Person, error) {
	var person models.Person
	var mutateErr error
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&person, id).Error; err != nil {
			return err
		}
		if mutateErr = mutate(&person); mutateErr != nil {
			return mutateErr
		}
		return tx.Model(&person).Select(personColumns).Updates(&person).Error
	})
	if err != nil {
		if mutateErr != nil {
			return nil, mutateErr
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update person ID %d: %w", id, err)
	}
	return &person, nil
}

// Delete removes a person by their ID along with their photo associations.
// Photos themselves are kept.
func (r *PersonRepository) Delete(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sql, args, err := database.Builder.Delete("photo_people").Where(sq.Eq{"person_id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("failed to build SQL query for person associations: %w", err)
		}
		if err := tx.Exec(sql, args...).Error; err != nil {
			return fmt.Errorf("failed to delete photo associations of person ID %d: %w", id, err)
		}

		result := tx.Delete(&models.Person{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete person ID %d: %w", id, result.Error)
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// Search applies the structured criteria, ordered by first then last name.
func (r *PersonRepository) Search(ctx context.Context, criteria PersonCriteria) ([]models.Person, error) {
	conds := sq.And{}
	if criteria.BirthDateStart != nil {
		conds = append(conds, sq.GtOrEq{"people.birth_date": *criteria.BirthDateStart})
	}
	if criteria.BirthDateEnd != nil {
		conds = append(conds, sq.LtOrEq{"people.birth_date": *criteria.BirthDateEnd})
	}
	if criteria.DeathDateStart != nil {
		conds = append(conds, sq.GtOrEq{"people.death_date": *criteria.DeathDateStart})
	}
	if criteria.DeathDateEnd != nil {
		conds = append(conds, sq.LtOrEq{"people.death_date": *criteria.DeathDateEnd})
	}
	if criteria.Living != nil {
		if *criteria.Living {
			conds = append(conds, sq.Eq{"people.death_date": nil})
		} else {
			conds = append(conds, sq.NotEq{"people.death_date": nil})
		}
	}

	query := r.DB.WithContext(ctx).Model(&models.Person{})
	if len(conds) > 0 {
		where, args, err := database.Predicate(conds)
		if err != nil {
			return nil, err
		}
		query = query.Where(where, args...)
	}

	people := []models.Person{}
	if err := query.Order(database.PersonOrderNameAsc).Find(&people).Error; err != nil {
		return nil, fmt.Errorf("failed to search people: %w", err)
	}
	return people, nil
}

// SearchText returns the people for whom any term is a case-insensitive
// substring of first name, last name or description.
func (r *PersonRepository) SearchText(ctx context.Context, terms []string, limit int) ([]models.Person, error) {
	people := []models.Person{}
	if len(terms) == 0 {
		return people, nil
	}

	or := make(sq.Or, 0, len(terms))
	for _, term := range terms {
		or = append(or, database.ContainsAny(term, "people.first_name", "people.last_name", "people.description"))
	}
	where, args, err := database.Predicate(or)
	if err != nil {
		return nil, err
	}

	err = r.DB.WithContext(ctx).
		Where(where, args...).
		Order(database.PersonOrderNameAsc).
		Limit(limit).
		Find(&people).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search people for %v: %w", terms, err)
	}
	return people, nil
}
