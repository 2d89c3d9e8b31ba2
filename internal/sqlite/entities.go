package sqlite

import (
	"fmt"
	"math"

	"github.com/mesh-intelligence/campman/pkg/types"
)

// entity describes how one record type maps onto its table. Table[T] builds
// all of its statements from this description, so every kind gets the same
// operations.
type entity[T any] struct {
	kind types.Kind

	// columns lists the mutable columns, in the order values and fields
	// return them.
	columns []string

	nameCol   string // exact and substring name lookups; empty if none
	descCol   string // substring description lookups; empty if none
	parentCol string // self-referencing parent; empty if the kind is flat

	values func(*T) []any
	fields func(*T) []any
	parent func(*T) types.OptionalKey

	// validate rejects values the columns cannot hold; nil accepts all.
	validate func(*T) error
}

var subjectEntity = &entity[types.Subject]{
	kind:    types.KindSubject,
	columns: []string{"name", "description"},
	nameCol: "name",
	descCol: "description",
	values:  func(s *types.Subject) []any { return []any{s.Name, s.Description} },
	fields:  func(s *types.Subject) []any { return []any{&s.Name, &s.Description} },
}

var placeEntity = &entity[types.Place]{
	kind:      types.KindPlace,
	columns:   []string{"name", "description", "parent_place"},
	nameCol:   "name",
	descCol:   "description",
	parentCol: "parent_place",
	values:    func(p *types.Place) []any { return []any{p.Name, p.Description, p.ParentPlace} },
	fields:    func(p *types.Place) []any { return []any{&p.Name, &p.Description, &p.ParentPlace} },
	parent:    func(p *types.Place) types.OptionalKey { return p.ParentPlace },
}

var eventEntity = &entity[types.Event]{
	kind:    types.KindEvent,
	columns: []string{"record_date", "refered_date", "description"},
	descCol: "description",
	values:  func(e *types.Event) []any { return []any{int64(e.RecordDate), e.ReferredDate, e.Description} },
	fields:  func(e *types.Event) []any { return []any{&e.RecordDate, &e.ReferredDate, &e.Description} },
	validate: func(e *types.Event) error {
		// record_date is a signed 64-bit column.
		if e.RecordDate > math.MaxInt64 {
			return fmt.Errorf("record date %d: %w", e.RecordDate, types.ErrOutOfRange)
		}
		return nil
	},
}

var groupEntity = &entity[types.Group]{
	kind:      types.KindGroup,
	columns:   []string{"name", "description", "parent_group"},
	nameCol:   "name",
	descCol:   "description",
	parentCol: "parent_group",
	values:    func(g *types.Group) []any { return []any{g.Name, g.Description, g.ParentGroup} },
	fields:    func(g *types.Group) []any { return []any{&g.Name, &g.Description, &g.ParentGroup} },
	parent:    func(g *types.Group) types.OptionalKey { return g.ParentGroup },
}

var tagEntity = &entity[types.Tag]{
	kind:    types.KindTag,
	columns: []string{"name"},
	nameCol: "name",
	values:  func(t *types.Tag) []any { return []any{t.Name} },
	fields:  func(t *types.Tag) []any { return []any{&t.Name} },
}
