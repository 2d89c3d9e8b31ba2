package types

// Subject is a person, creature or anything else the campaign tracks by name.
type Subject struct {
	Name        string `json:"name"`
	Description string `json:"description"` // Markdown, rendered by the caller.
}

// Place is a location. Places form a tree through ParentPlace.
type Place struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ParentPlace OptionalKey `json:"parent_place"`
}

// Event is something that happened in the campaign. RecordDate is the wall
// clock time the entry was made (unix seconds); ReferredDate is the in-world
// date as the players wrote it and is never parsed.
type Event struct {
	RecordDate   uint64 `json:"record_date"`
	ReferredDate string `json:"refered_date"`
	Description  string `json:"description"`
}

// Group is a faction, party or organisation. Groups nest through ParentGroup.
type Group struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	ParentGroup OptionalKey `json:"parent_group"`
}

// Tag is a bare label attached to events.
type Tag struct {
	Name string `json:"name"`
}

// Label returns the text a listing shows for the record.
func (s Subject) Label() string { return s.Name }

// Label returns the text a listing shows for the record.
func (p Place) Label() string { return p.Name }

// Label returns the in-world date, falling back to the description.
func (e Event) Label() string {
	if e.ReferredDate != "" {
		return e.ReferredDate
	}
	return e.Description
}

// Label returns the text a listing shows for the record.
func (g Group) Label() string { return g.Name }

// Label returns the text a listing shows for the record.
func (t Tag) Label() string { return t.Name }
