package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/mesh-intelligence/campman/pkg/types"
)

// Table gives typed access to the records of one entity kind.
type Table[T any] struct {
	store *Store
	e     *entity[T]

	selectSQL string // SELECT id, <columns> FROM <table>
	insertSQL string
	updateSQL string
}

func newTable[T any](s *Store, e *entity[T]) *Table[T] {
	table := e.kind.Table()
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(e.columns)), ", ")
	assignments := make([]string, len(e.columns))
	for i, c := range e.columns {
		assignments[i] = c + " = ?"
	}

	return &Table[T]{
		store:     s,
		e:         e,
		selectSQL: fmt.Sprintf("SELECT id, %s FROM %s", strings.Join(e.columns, ", "), table),
		insertSQL: fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(e.columns, ", "), placeholders),
		updateSQL: fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", table, strings.Join(assignments, ", ")),
	}
}

// Kind returns the entity kind stored in this table.
func (t *Table[T]) Kind() types.Kind { return t.e.kind }

// Insert writes a new record and returns it with the key the store assigned.
// A parent reference, if set, must point at an existing record of the same
// kind.
func (t *Table[T]) Insert(ctx context.Context, rec T) (types.Keyed[T], error) {
	var out types.Keyed[T]
	if err := t.validate(&rec); err != nil {
		return out, err
	}
	err := t.store.do(func(db *sql.DB) error {
		if err := t.checkParent(ctx, db, 0, &rec); err != nil {
			return err
		}

		res, err := db.ExecContext(ctx, t.insertSQL, t.e.values(&rec)...)
		if err != nil {
			return fmt.Errorf("inserting %s: %w", t.e.kind.Singular(), err)
		}
		if err := expectOneRow(res); err != nil {
			return fmt.Errorf("inserting %s: %w", t.e.kind.Singular(), err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("reading %s key: %w", t.e.kind.Singular(), err)
		}
		out = types.Keyed[T]{Key: types.Key(id), Value: rec}
		return nil
	})
	return out, err
}

// Update overwrites every mutable column of the record with rec.Key.
// Returns ErrNotFound if no such record exists, ErrParentNotFound or
// ErrCycle if the new parent is unusable.
func (t *Table[T]) Update(ctx context.Context, rec types.Keyed[T]) error {
	if !rec.Key.Valid() {
		return fmt.Errorf("updating %s: %w: %d", t.e.kind.Singular(), types.ErrInvalidKey, rec.Key)
	}
	if err := t.validate(&rec.Value); err != nil {
		return err
	}

	return t.store.do(func(db *sql.DB) error {
		if err := t.checkParent(ctx, db, rec.Key, &rec.Value); err != nil {
			return err
		}

		args := append(t.e.values(&rec.Value), int64(rec.Key))
		res, err := db.ExecContext(ctx, t.updateSQL, args...)
		if err != nil {
			return fmt.Errorf("updating %s %d: %w", t.e.kind.Singular(), rec.Key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("updating %s %d: %w", t.e.kind.Singular(), rec.Key, err)
		}
		if n == 0 {
			return fmt.Errorf("updating %s %d: %w", t.e.kind.Singular(), rec.Key, types.ErrNotFound)
		}
		return nil
	})
}

// Get returns the record with the given key.
func (t *Table[T]) Get(ctx context.Context, key types.Key) (types.Keyed[T], error) {
	var out types.Keyed[T]
	err := t.store.do(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, t.selectSQL+" WHERE id = ?", int64(key))
		rec, err := t.scan(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s %d: %w", t.e.kind.Singular(), key, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("getting %s %d: %w", t.e.kind.Singular(), key, err)
		}
		out = rec
		return nil
	})
	return out, err
}

// GetByName returns the record whose name equals name exactly. Names are not
// unique; when several records match, the one with the lowest key wins.
func (t *Table[T]) GetByName(ctx context.Context, name string) (types.Keyed[T], error) {
	var out types.Keyed[T]
	if t.e.nameCol == "" {
		return out, fmt.Errorf("%s by name: %w", t.e.kind.Singular(), types.ErrNotSearchable)
	}

	err := t.store.do(func(db *sql.DB) error {
		row := db.QueryRowContext(ctx,
			t.selectSQL+" WHERE "+t.e.nameCol+" = ? ORDER BY id LIMIT 1", name)
		rec, err := t.scan(row)
		if err == sql.ErrNoRows {
			return fmt.Errorf("%s %q: %w", t.e.kind.Singular(), name, types.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("getting %s %q: %w", t.e.kind.Singular(), name, err)
		}
		out = rec
		return nil
	})
	return out, err
}

// QueryName returns every record whose name contains substr, ignoring ASCII
// case, ordered by key. An empty substr matches every record.
func (t *Table[T]) QueryName(ctx context.Context, substr string) ([]types.Keyed[T], error) {
	if t.e.nameCol == "" {
		return nil, fmt.Errorf("%s name search: %w", t.e.kind.Singular(), types.ErrNotSearchable)
	}
	return t.queryContains(ctx, t.e.nameCol, substr)
}

// QueryDescription returns every record whose description contains substr,
// ignoring ASCII case, ordered by key. An empty substr matches every record.
func (t *Table[T]) QueryDescription(ctx context.Context, substr string) ([]types.Keyed[T], error) {
	if t.e.descCol == "" {
		return nil, fmt.Errorf("%s description search: %w", t.e.kind.Singular(), types.ErrNotSearchable)
	}
	return t.queryContains(ctx, t.e.descCol, substr)
}

// List returns every record ordered by key.
func (t *Table[T]) List(ctx context.Context) ([]types.Keyed[T], error) {
	var out []types.Keyed[T]
	err := t.store.do(func(db *sql.DB) error {
		var err error
		out, err = t.queryRows(ctx, db, t.selectSQL+" ORDER BY id")
		return err
	})
	return out, err
}

// Delete removes the record and every link row that references it. Returns
// ErrHasChildren while other records name it as their parent.
func (t *Table[T]) Delete(ctx context.Context, key types.Key) error {
	kind := t.e.kind
	return t.store.inTx(ctx, func(tx *sql.Tx) error {
		if t.e.parentCol != "" {
			var children int
			err := tx.QueryRowContext(ctx,
				"SELECT COUNT(*) FROM "+kind.Table()+" WHERE "+t.e.parentCol+" = ?", int64(key),
			).Scan(&children)
			if err != nil {
				return fmt.Errorf("counting children of %s %d: %w", kind.Singular(), key, err)
			}
			if children > 0 {
				return fmt.Errorf("deleting %s %d: %w (%d)", kind.Singular(), key, types.ErrHasChildren, children)
			}
		}

		if err := deleteLinksOf(ctx, tx, types.Ref{Kind: kind, Key: key}); err != nil {
			return err
		}

		res, err := tx.ExecContext(ctx, "DELETE FROM "+kind.Table()+" WHERE id = ?", int64(key))
		if err != nil {
			if IsConstraint(err) {
				return fmt.Errorf("deleting %s %d: %w: %w", kind.Singular(), key, types.ErrHasChildren, err)
			}
			return fmt.Errorf("deleting %s %d: %w", kind.Singular(), key, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("deleting %s %d: %w", kind.Singular(), key, err)
		}
		if n == 0 {
			return fmt.Errorf("%s %d: %w", kind.Singular(), key, types.ErrNotFound)
		}
		return nil
	})
}

// queryContains runs a case-insensitive LIKE over col. Wildcards in substr
// are escaped so they match literally.
func (t *Table[T]) queryContains(ctx context.Context, col, substr string) ([]types.Keyed[T], error) {
	var out []types.Keyed[T]
	err := t.store.do(func(db *sql.DB) error {
		var err error
		out, err = t.queryRows(ctx, db,
			t.selectSQL+" WHERE "+col+` LIKE ? ESCAPE '\' ORDER BY id`,
			"%"+escapeLike(substr)+"%")
		return err
	})
	return out, err
}

func (t *Table[T]) queryRows(ctx context.Context, q querier, query string, args ...any) ([]types.Keyed[T], error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", t.e.kind.Table(), err)
	}
	defer rows.Close()

	results := []types.Keyed[T]{}
	for rows.Next() {
		rec, err := t.scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning %s: %w", t.e.kind.Singular(), err)
		}
		results = append(results, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", t.e.kind.Table(), err)
	}
	return results, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (t *Table[T]) scan(row scanner) (types.Keyed[T], error) {
	var rec types.Keyed[T]
	var id int64
	dest := append([]any{&id}, t.e.fields(&rec.Value)...)
	if err := row.Scan(dest...); err != nil {
		return rec, err
	}
	rec.Key = types.Key(id)
	return rec, nil
}

func (t *Table[T]) validate(rec *T) error {
	if t.e.validate == nil {
		return nil
	}
	if err := t.e.validate(rec); err != nil {
		return fmt.Errorf("writing %s: %w", t.e.kind.Singular(), err)
	}
	return nil
}

// checkParent validates rec's parent reference. self is the key rec is being
// written under, or 0 for an insert.
func (t *Table[T]) checkParent(ctx context.Context, q querier, self types.Key, rec *T) error {
	if t.e.parent == nil {
		return nil
	}
	parent, ok := t.e.parent(rec).Get()
	if !ok {
		return nil
	}

	kind := t.e.kind
	exists, err := rowExists(ctx, q, kind, parent)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%s parent %d: %w", kind.Singular(), parent, types.ErrParentNotFound)
	}
	if self == 0 {
		return nil
	}

	// Walk up from the new parent; reaching self means the record would
	// become its own ancestor.
	seen := map[types.Key]bool{}
	for cur := parent; ; {
		if cur == self {
			return fmt.Errorf("%s %d under %d: %w", kind.Singular(), self, parent, types.ErrCycle)
		}
		if seen[cur] {
			return nil
		}
		seen[cur] = true

		var next types.OptionalKey
		err := q.QueryRowContext(ctx,
			"SELECT "+t.e.parentCol+" FROM "+kind.Table()+" WHERE id = ?", int64(cur),
		).Scan(&next)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return fmt.Errorf("walking %s ancestors: %w", kind.Singular(), err)
		}
		k, ok := next.Get()
		if !ok {
			return nil
		}
		cur = k
	}
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != 1 {
		return fmt.Errorf("expected 1 row written, got %d", n)
	}
	return nil
}

// escapeLike escapes LIKE wildcards using backslash as the escape character.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
