package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"gorm.io/gorm"

	"github.com/jmarc580625/familly-nexus/database"
	"github.com/jmarc580625/familly-nexus/models"
	"github.com/jmarc580625/familly-nexus/repository"
)

// PersonCriteria is the structured person search input.
type PersonCriteria = repository.PersonCriteria

// PersonService implements the person catalog operations
type PersonService struct {
	people repository.PersonRepositoryInterface
}

// NewPersonService creates a person service backed by the context's database
func NewPersonService(sc *ServiceContext) *PersonService {
	return &PersonService{people: repository.NewPersonRepository(sc.DB)}
}

// Create validates fields and persists a new person
func (s *PersonService) Create(ctx context.Context, fields PersonFields) (*models.Person, error) {
	if missing := fields.missingRequired(); len(missing) > 0 {
		return nil, validationError("missing required fields: %s", strings.Join(missing, ", "))
	}
	setters, err := fields.setters()
	if err != nil {
		return nil, err
	}

	person := &models.Person{}
	for _, set := range setters {
		set(person)
	}
	if err := s.people.Create(ctx, person); err != nil {
		return nil, internalError("failed to create person", err)
	}
	log.Printf("person service: created person %d (%s %s)", person.ID, person.FirstName, person.LastName)
	return person, nil
}

// Get returns the person with the given id
func (s *PersonService) Get(ctx context.Context, id uint) (*models.Person, error) {
	person, err := s.people.GetByID(ctx, id)
	if err != nil {
		return nil, personLookupError(id, err)
	}
	return person, nil
}

// List returns the people matching every recognized filter field exactly.
// Unrecognized fields are ignored.
func (s *PersonService) List(ctx context.Context, filter map[string]string) ([]models.Person, error) {
	columns, err := personFilter(filter)
	if err != nil {
		return nil, err
	}
	people, err := s.people.List(ctx, columns)
	if err != nil {
		return nil, internalError("failed to list people", err)
	}
	return people, nil
}

// Update applies the recognized fields to an existing person
func (s *PersonService) Update(ctx context.Context, id uint, fields PersonFields) (*models.Person, error) {
	setters, parseErr := fields.setters()
	person, err := s.people.Update(ctx, id, func(p *models.Person) error {
		if parseErr != nil {
			return parseErr
		}
		if len(setters) == 0 {
			return validationError("no updatable fields provided")
		}
		for _, set := range setters {
			set(p)
		}
		return nil
	})
	if err != nil {
		var se *Error
		if errors.As(err, &se) {
			return nil, se
		}
		return nil, personLookupError(id, err)
	}
	return person, nil
}

// Delete removes a person; their photos are kept
func (s *PersonService) Delete(ctx context.Context, id uint) error {
	if err := s.people.Delete(ctx, id); err != nil {
		return personLookupError(id, err)
	}
	log.Printf("person service: deleted person %d", id)
	return nil
}

// Search runs the structured person search ordered by name
func (s *PersonService) Search(ctx context.Context, criteria PersonCriteria) ([]models.Person, error) {
	if criteria.RelatedTo != nil {
		log.Printf("person service: related_to=%d ignored, relationships are not tracked", *criteria.RelatedTo)
	}
	people, err := s.people.Search(ctx, criteria)
	if err != nil {
		return nil, internalError("failed to search people", err)
	}
	return people, nil
}

// FreeTextSearch matches whitespace separated terms against names and
// descriptions. A blank query returns no results.
func (s *PersonService) FreeTextSearch(ctx context.Context, query string) ([]models.Person, error) {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return []models.Person{}, nil
	}
	people, err := s.people.SearchText(ctx, terms, database.SearchResultLimit)
	if err != nil {
		return nil, internalError("failed to search people", err)
	}
	return people, nil
}

func personLookupError(id uint, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFoundError("person %d not found", id)
	}
	return internalError(fmt.Sprintf("failed to access person %d", id), err)
}
