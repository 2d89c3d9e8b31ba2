package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mesh-intelligence/campman/pkg/types"
)

// InsertLink associates a with b. The kinds must form a declared link pair
// in either order; both records must exist. Duplicate links are allowed.
func (s *Store) InsertLink(ctx context.Context, a, b types.Ref) error {
	pair, swapped, err := types.FindLinkPair(a.Kind, b.Kind)
	if err != nil {
		return err
	}
	if swapped {
		a, b = b, a
	}

	return s.do(func(db *sql.DB) error {
		for _, r := range []types.Ref{a, b} {
			ok, err := rowExists(ctx, db, r.Kind, r.Key)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("linking %s: %w", r, types.ErrNotFound)
			}
		}

		res, err := db.ExecContext(ctx,
			"INSERT INTO "+pair.Table()+" (kfrom, kto) VALUES (?, ?)", int64(a.Key), int64(b.Key))
		if err != nil {
			if IsConstraint(err) {
				return fmt.Errorf("linking %s to %s: %w: %w", a, b, types.ErrNotFound, err)
			}
			return fmt.Errorf("linking %s to %s: %w", a, b, err)
		}
		return expectOneRow(res)
	})
}

// DeleteLink removes every link between a and b and returns how many rows
// went away. Returns ErrNotFound if there were none.
func (s *Store) DeleteLink(ctx context.Context, a, b types.Ref) (int64, error) {
	pair, swapped, err := types.FindLinkPair(a.Kind, b.Kind)
	if err != nil {
		return 0, err
	}
	if swapped {
		a, b = b, a
	}

	var removed int64
	err = s.do(func(db *sql.DB) error {
		query, args := linkMatch(pair, a, b)
		res, err := db.ExecContext(ctx, "DELETE FROM "+pair.Table()+" WHERE "+query, args...)
		if err != nil {
			return fmt.Errorf("unlinking %s from %s: %w", a, b, err)
		}
		removed, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("unlinking %s from %s: %w", a, b, err)
		}
		if removed == 0 {
			return fmt.Errorf("link %s to %s: %w", a, b, types.ErrNotFound)
		}
		return nil
	})
	return removed, err
}

// CountLinks returns how many link rows join a and b.
func (s *Store) CountLinks(ctx context.Context, a, b types.Ref) (int, error) {
	pair, swapped, err := types.FindLinkPair(a.Kind, b.Kind)
	if err != nil {
		return 0, err
	}
	if swapped {
		a, b = b, a
	}

	var n int
	err = s.do(func(db *sql.DB) error {
		query, args := linkMatch(pair, a, b)
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM "+pair.Table()+" WHERE "+query, args...).Scan(&n); err != nil {
			return fmt.Errorf("counting links %s to %s: %w", a, b, err)
		}
		return nil
	})
	return n, err
}

// Links returns every record linked to r, looking at both columns of every
// link table r's kind takes part in. Results follow the declaration order of
// types.LinkPairs, then row order; duplicates are kept.
func (s *Store) Links(ctx context.Context, r types.Ref) ([]types.Ref, error) {
	if !r.Kind.Valid() {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidKind, r.Kind)
	}

	out := []types.Ref{}
	err := s.do(func(db *sql.DB) error {
		for _, p := range types.LinkPairs {
			if p.From == r.Kind {
				refs, err := linkEnds(ctx, db, p, "kto", "kfrom", p.To, r.Key, false)
				if err != nil {
					return err
				}
				out = append(out, refs...)
			}
			if p.To == r.Kind {
				// A self-link was already read through kfrom.
				refs, err := linkEnds(ctx, db, p, "kfrom", "kto", p.From, r.Key, p.From == p.To)
				if err != nil {
					return err
				}
				out = append(out, refs...)
			}
		}
		return nil
	})
	return out, err
}

// linkMatch builds the WHERE clause selecting links between a and b, which
// are already in from/to order. Links within one kind are matched in both
// directions.
func linkMatch(pair types.LinkPair, a, b types.Ref) (string, []any) {
	if pair.From == pair.To {
		return "(kfrom = ? AND kto = ?) OR (kfrom = ? AND kto = ?)",
			[]any{int64(a.Key), int64(b.Key), int64(b.Key), int64(a.Key)}
	}
	return "kfrom = ? AND kto = ?", []any{int64(a.Key), int64(b.Key)}
}

// linkEnds selects the other endpoint (col) of every row in p whose match
// column equals key. skipSelf leaves out rows joining key to itself.
func linkEnds(ctx context.Context, q querier, p types.LinkPair, col, match string, kind types.Kind, key types.Key, skipSelf bool) ([]types.Ref, error) {
	where := match + " = ?"
	if skipSelf {
		where += " AND kfrom <> kto"
	}
	rows, err := q.QueryContext(ctx,
		"SELECT "+col+" FROM "+p.Table()+" WHERE "+where+" ORDER BY rowid", int64(key))
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", p.Table(), err)
	}
	defer rows.Close()

	var refs []types.Ref
	for rows.Next() {
		var k int64
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scanning %s: %w", p.Table(), err)
		}
		refs = append(refs, types.Ref{Kind: kind, Key: types.Key(k)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating %s: %w", p.Table(), err)
	}
	return refs, nil
}

// deleteLinksOf removes every link row that has r at either end.
func deleteLinksOf(ctx context.Context, q querier, r types.Ref) error {
	for _, p := range types.LinkPairs {
		if p.From == r.Kind {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+p.Table()+" WHERE kfrom = ?", int64(r.Key)); err != nil {
				return fmt.Errorf("deleting links of %s: %w", r, err)
			}
		}
		if p.To == r.Kind {
			if _, err := q.ExecContext(ctx, "DELETE FROM "+p.Table()+" WHERE kto = ?", int64(r.Key)); err != nil {
				return fmt.Errorf("deleting links of %s: %w", r, err)
			}
		}
	}
	return nil
}
