package types

import (
	"fmt"
	"strings"
)

// Kind names an entity kind. The value doubles as the SQLite table name.
type Kind string

// Entity kinds.
const (
	KindSubject Kind = "subjects"
	KindPlace   Kind = "places"
	KindEvent   Kind = "events"
	KindGroup   Kind = "groups"
	KindTag     Kind = "tags"
)

// Kinds lists every entity kind in schema creation order.
var Kinds = []Kind{
	KindSubject,
	KindPlace,
	KindEvent,
	KindGroup,
	KindTag,
}

// singular names accepted on input and used in messages.
var singular = map[Kind]string{
	KindSubject: "subject",
	KindPlace:   "place",
	KindEvent:   "event",
	KindGroup:   "group",
	KindTag:     "tag",
}

// Table returns the SQLite table holding records of this kind.
func (k Kind) Table() string { return string(k) }

// Singular returns the human-readable singular name, e.g. "place".
func (k Kind) Singular() string { return singular[k] }

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	_, ok := singular[k]
	return ok
}

// ParseKind accepts a singular or plural kind name, case-insensitively.
func ParseKind(s string) (Kind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range singular {
		if s == name || s == string(k) {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
}
