package database

// Result orderings used by the catalog queries. The trailing id keeps ties
// deterministic.
const (
	PhotoOrderDateTakenDesc = "photos.date_taken DESC, photos.id DESC"
	PersonOrderNameAsc      = "people.first_name ASC, people.last_name ASC, people.id ASC"
	TagOrderNameAsc         = "tags.name ASC"
)

// SearchResultLimit caps free-text search results.
const SearchResultLimit = 50
