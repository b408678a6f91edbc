package services

import (
	"sort"
	"strconv"
	"strings"

	"gorm.io/datatypes"

	"github.com/jmarc580625/familly-nexus/models"
)

// PersonFields carries person attributes decoded from a JSON object. Only the
// keys listed in personFieldParsers are applied; anything else is ignored.
type PersonFields map[string]interface{}

type personSetter func(*models.Person)

var personFieldParsers = []struct {
	name  string
	parse func(field string, value interface{}) (personSetter, error)
}{
	{"first_name", parseName(func(p *models.Person, v string) { p.FirstName = v })},
	{"last_name", parseName(func(p *models.Person, v string) { p.LastName = v })},
	{"birth_date", parseOptionalDate(func(p *models.Person, d *datatypes.Date) { p.BirthDate = d })},
	{"death_date", parseOptionalDate(func(p *models.Person, d *datatypes.Date) { p.DeathDate = d })},
	{"description", parseOptionalText(func(p *models.Person, s *string) { p.Description = s })},
}

var requiredPersonFields = []string{"first_name", "last_name"}

// setters validates every recognized field and returns one setter per field
// present.
func (f PersonFields) setters() ([]personSetter, error) {
	setters := make([]personSetter, 0, len(personFieldParsers))
	for _, field := range personFieldParsers {
		value, ok := f[field.name]
		if !ok {
			continue
		}
		setter, err := field.parse(field.name, value)
		if err != nil {
			return nil, err
		}
		setters = append(setters, setter)
	}
	return setters, nil
}

// missingRequired lists the required fields that are absent or blank.
func (f PersonFields) missingRequired() []string {
	var missing []string
	for _, name := range requiredPersonFields {
		if s, ok := f[name].(string); !ok || strings.TrimSpace(s) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func parseName(set func(*models.Person, string)) func(string, interface{}) (personSetter, error) {
	return func(field string, value interface{}) (personSetter, error) {
		s, ok := value.(string)
		if !ok || strings.TrimSpace(s) == "" {
			return nil, validationError("%s must be a non-empty string", field)
		}
		s = strings.TrimSpace(s)
		return func(p *models.Person) { set(p, s) }, nil
	}
}

func parseOptionalDate(set func(*models.Person, *datatypes.Date)) func(string, interface{}) (personSetter, error) {
	return func(field string, value interface{}) (personSetter, error) {
		if value == nil {
			return func(p *models.Person) { set(p, nil) }, nil
		}
		s, ok := value.(string)
		if !ok {
			return nil, validationError("%s must be a date formatted as %s", field, models.DateLayout)
		}
		if strings.TrimSpace(s) == "" {
			return func(p *models.Person) { set(p, nil) }, nil
		}
		d, err := models.ParseDate(strings.TrimSpace(s))
		if err != nil {
			return nil, validationError("%s must be a date formatted as %s", field, models.DateLayout)
		}
		return func(p *models.Person) { set(p, &d) }, nil
	}
}

func parseOptionalText(set func(*models.Person, *string)) func(string, interface{}) (personSetter, error) {
	return func(field string, value interface{}) (personSetter, error) {
		if value == nil {
			return func(p *models.Person) { set(p, nil) }, nil
		}
		s, ok := value.(string)
		if !ok {
			return nil, validationError("%s must be a string", field)
		}
		return func(p *models.Person) { set(p, &s) }, nil
	}
}

// personFilterParsers convert list filter values to column values.
var personFilterParsers = map[string]func(string) (interface{}, error){
	"id": func(v string) (interface{}, error) {
		id, err := strconv.ParseUint(v, 10, 64)
		return uint(id), err
	},
	"first_name":  func(v string) (interface{}, error) { return v, nil },
	"last_name":   func(v string) (interface{}, error) { return v, nil },
	"description": func(v string) (interface{}, error) { return v, nil },
	"birth_date":  func(v string) (interface{}, error) { return models.ParseDate(v) },
	"death_date":  func(v string) (interface{}, error) { return models.ParseDate(v) },
}

// personFilter keeps the recognized filter fields, typed for the query.
func personFilter(filter map[string]string) (map[string]interface{}, error) {
	names := make([]string, 0, len(filter))
	for name := range filter {
		names = append(names, name)
	}
	sort.Strings(names)

	columns := make(map[string]interface{}, len(filter))
	for _, name := range names {
		parse, ok := personFilterParsers[name]
		if !ok {
			continue
		}
		value, err := parse(filter[name])
		if err != nil {
			return nil, validationError("invalid value %q for filter %s", filter[name], name)
		}
		columns[name] = value
	}
	return columns, nil
}
