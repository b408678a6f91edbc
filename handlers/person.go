package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/jmarc580625/familly-nexus/realtime"
	"github.com/jmarc580625/familly-nexus/services"
)

type PersonHandler struct {
	Service *services.PersonService
	Hub     *realtime.Hub
}

func decodePersonFields(r *http.Request) (services.PersonFields, error) {
	var fields services.PersonFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		return nil, err
	}
	if fields == nil {
		fields = services.PersonFields{}
	}
	return fields, nil
}

func (ph *PersonHandler) CreatePerson(w http.ResponseWriter, r *http.Request) {
	fields, err := decodePersonFields(r)
	if err != nil {
		writeValidationError(w, "Invalid request body: "+err.Error())
		return
	}

	person, err := ph.Service.Create(r.Context(), fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ph.Hub.Publish(realtime.EventPerson, person.ID, realtime.StatusCreated)
	writeJSON(w, http.StatusCreated, person)
}

func (ph *PersonHandler) ListPeople(w http.ResponseWriter, r *http.Request) {
	filter := make(map[string]string)
	for name, values := range r.URL.Query() {
		if len(values) > 0 {
			filter[name] = values[0]
		}
	}

	people, err := ph.Service.List(r.Context(), filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

// SearchPeople runs a free-text search when q is present and a structured
// search otherwise.
func (ph *PersonHandler) SearchPeople(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	if query.Has("q") {
		people, err := ph.Service.FreeTextSearch(r.Context(), query.Get("q"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, people)
		return
	}

	var criteria services.PersonCriteria
	var err error
	if criteria.BirthDateStart, err = parseDateParam(query, "birth_date_start"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if criteria.BirthDateEnd, err = parseDateParam(query, "birth_date_end"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if criteria.DeathDateStart, err = parseDateParam(query, "death_date_start"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if criteria.DeathDateEnd, err = parseDateParam(query, "death_date_end"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if criteria.Living, err = parseBoolParam(query, "living"); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if raw := strings.TrimSpace(query.Get("related_to")); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeValidationError(w, "invalid related_to: "+strconv.Quote(raw))
			return
		}
		related := uint(id)
		criteria.RelatedTo = &related
	}

	people, err := ph.Service.Search(r.Context(), criteria)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, people)
}

func (ph *PersonHandler) GetPerson(w http.ResponseWriter, r *http.Request) {
	personID, err := parseIDParam(r, "person_id")
	if err != nil {
		writeValidationError(w, "Invalid person ID format")
		return
	}

	person, err := ph.Service.Get(r.Context(), personID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, person)
}

func (ph *PersonHandler) UpdatePerson(w http.ResponseWriter, r *http.Request) {
	personID, err := parseIDParam(r, "person_id")
	if err != nil {
		writeValidationError(w, "Invalid person ID format")
		return
	}

	fields, err := decodePersonFields(r)
	if err != nil {
		writeValidationError(w, "Invalid request body: "+err.Error())
		return
	}

	person, err := ph.Service.Update(r.Context(), personID, fields)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	ph.Hub.Publish(realtime.EventPerson, person.ID, realtime.StatusUpdated)
	writeJSON(w, http.StatusOK, person)
}

func (ph *PersonHandler) DeletePerson(w http.ResponseWriter, r *http.Request) {
	personID, err := parseIDParam(r, "person_id")
	if err != nil {
		writeValidationError(w, "Invalid person ID format")
		return
	}

	if err := ph.Service.Delete(r.Context(), personID); err != nil {
		writeServiceError(w, err)
		return
	}

	ph.Hub.Publish(realtime.EventPerson, personID, realtime.StatusDeleted)
	writeJSON(w, http.StatusOK, map[string]uint{"id": personID})
}
