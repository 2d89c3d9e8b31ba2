// Package sqlite implements the campaign store on an embedded SQLite file.
// The store owns a single connection for the length of an editing session
// and exposes typed CRUD, substring search and link-row operations for every
// entity kind.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/campman/pkg/types"
)

// Entity table DDL. Column names match campaign files written by earlier
// releases; parent columns reference their own table.
const (
	createSubjects = `CREATE TABLE subjects (
    id INTEGER PRIMARY KEY,
    name TEXT,
    description TEXT
);`

	createPlaces = `CREATE TABLE places (
    id INTEGER PRIMARY KEY,
    name TEXT,
    description TEXT,
    parent_place INTEGER,
    FOREIGN KEY (parent_place) REFERENCES places(id)
);`

	createEvents = `CREATE TABLE events (
    id INTEGER PRIMARY KEY,
    record_date INTEGER,
    refered_date TEXT,
    description TEXT
);`

	createGroups = `CREATE TABLE groups (
    id INTEGER PRIMARY KEY,
    name TEXT,
    description TEXT,
    parent_group INTEGER,
    FOREIGN KEY (parent_group) REFERENCES groups(id)
);`

	createTags = `CREATE TABLE tags (
    id INTEGER PRIMARY KEY,
    name TEXT
);`
)

// Index DDL for name lookups and parent walks.
const (
	idxSubjectsName = `CREATE INDEX idx_subjects_name ON subjects(name);`
	idxPlacesName   = `CREATE INDEX idx_places_name ON places(name);`
	idxPlacesParent = `CREATE INDEX idx_places_parent ON places(parent_place);`
	idxGroupsName   = `CREATE INDEX idx_groups_name ON groups(name);`
	idxGroupsParent = `CREATE INDEX idx_groups_parent ON groups(parent_group);`
	idxTagsName     = `CREATE INDEX idx_tags_name ON tags(name);`
)

// entityDDL lists the entity tables. They are created before any link table
// so the schema stays valid with foreign-key enforcement on.
var entityDDL = []string{
	createSubjects,
	createPlaces,
	createEvents,
	createGroups,
	createTags,
}

var indexDDL = []string{
	idxSubjectsName,
	idxPlacesName,
	idxPlacesParent,
	idxGroupsName,
	idxGroupsParent,
	idxTagsName,
}

// linkDDL returns the CREATE TABLE and index statements for one link pair.
// Identifiers come from types.LinkPairs only.
func linkDDL(p types.LinkPair) []string {
	table := p.Table()
	return []string{
		fmt.Sprintf(`CREATE TABLE %s (
    kfrom INTEGER,
    kto INTEGER,
    FOREIGN KEY (kfrom) REFERENCES %s(id),
    FOREIGN KEY (kto) REFERENCES %s(id)
);`, table, p.From.Table(), p.To.Table()),
		fmt.Sprintf(`CREATE INDEX idx_%s_from ON %s(kfrom);`, table, table),
		fmt.Sprintf(`CREATE INDEX idx_%s_to ON %s(kto);`, table, table),
	}
}

// schemaDDL returns every statement needed to lay out a fresh store, in
// execution order.
func schemaDDL() []string {
	stmts := make([]string, 0, len(entityDDL)+len(indexDDL)+3*len(types.LinkPairs))
	stmts = append(stmts, entityDDL...)
	stmts = append(stmts, indexDDL...)
	for _, p := range types.LinkPairs {
		stmts = append(stmts, linkDDL(p)...)
	}
	return stmts
}

// expectedTables lists every table a campaign store must contain.
func expectedTables() []string {
	names := make([]string, 0, len(types.Kinds)+len(types.LinkPairs))
	for _, k := range types.Kinds {
		names = append(names, k.Table())
	}
	for _, p := range types.LinkPairs {
		names = append(names, p.Table())
	}
	return names
}

// tableColumns maps each table to its full column list, key first. The
// archive uses it to move rows in and out of JSONL; entity tables come before
// link tables.
func tableColumns() []tableSpec {
	specs := []tableSpec{
		{table: types.KindSubject.Table(), columns: []string{"id", "name", "description"}},
		{table: types.KindPlace.Table(), columns: []string{"id", "name", "description", "parent_place"}},
		{table: types.KindEvent.Table(), columns: []string{"id", "record_date", "refered_date", "description"}},
		{table: types.KindGroup.Table(), columns: []string{"id", "name", "description", "parent_group"}},
		{table: types.KindTag.Table(), columns: []string{"id", "name"}},
	}
	for _, p := range types.LinkPairs {
		specs = append(specs, tableSpec{table: p.Table(), columns: []string{"kfrom", "kto"}})
	}
	return specs
}

type tableSpec struct {
	table   string
	columns []string
}

// createSchema runs the full layout inside one transaction. A failure leaves
// no tables behind.
func createSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning schema transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schemaDDL() {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema: %w", err)
	}
	return nil
}

// verifySchema checks that every expected table exists. It does not look at
// columns or versions.
func verifySchema(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, "SELECT name FROM sqlite_master WHERE type = 'table'")
	if err != nil {
		return fmt.Errorf("reading schema: %w", err)
	}
	defer rows.Close()

	found := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("scanning table name: %w", err)
		}
		found[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating tables: %w", err)
	}

	for _, name := range expectedTables() {
		if !found[name] {
			return fmt.Errorf("%w: missing table %s", types.ErrSchemaMismatch, name)
		}
	}
	return nil
}
