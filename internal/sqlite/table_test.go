package sqlite

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/campman/pkg/types"
)

func names[T interface{ Label() string }](recs []types.Keyed[T]) []string {
	out := make([]string, len(recs))
	for i, r := range recs {
		out[i] = r.Value.Label()
	}
	return out
}

func TestInsertThenGetByName(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Subjects().Insert(ctx, types.Subject{Name: "Bob", Description: "a baker"})
	require.NoError(t, err)

	aria, err := s.Subjects().Insert(ctx, types.Subject{Name: "Aria", Description: "a wanderer"})
	require.NoError(t, err)
	assert.True(t, aria.Key.Valid())
	assert.NotEqual(t, first.Key, aria.Key)

	got, err := s.Subjects().GetByName(ctx, "Aria")
	require.NoError(t, err)
	assert.Equal(t, aria.Key, got.Key)
	assert.Equal(t, "Aria", got.Value.Name)
	assert.Equal(t, "a wanderer", got.Value.Description)

	_, err = s.Subjects().GetByName(ctx, "aria")
	assert.ErrorIs(t, err, types.ErrNotFound, "exact lookup is case-sensitive")
}

func TestGetByName_LowestKeyWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.Groups().Insert(ctx, types.Group{Name: "Watch", Description: "city"})
	require.NoError(t, err)
	_, err = s.Groups().Insert(ctx, types.Group{Name: "Watch", Description: "night"})
	require.NoError(t, err)

	got, err := s.Groups().GetByName(ctx, "Watch")
	require.NoError(t, err)
	assert.Equal(t, first.Key, got.Key)
	assert.Equal(t, "city", got.Value.Description)
}

func TestGetByName_Unsupported(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Events().GetByName(context.Background(), "anything")
	assert.ErrorIs(t, err, types.ErrNotSearchable)
}

func TestGet_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Tags().Get(context.Background(), 42)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	rec, err := s.Subjects().Insert(ctx, types.Subject{Name: "Aria", Description: "a wanderer"})
	require.NoError(t, err)

	t.Run("repeating an update is idempotent", func(t *testing.T) {
		rec.Value.Description = "a knight"
		require.NoError(t, s.Subjects().Update(ctx, rec))
		once, err := s.Subjects().Get(ctx, rec.Key)
		require.NoError(t, err)

		require.NoError(t, s.Subjects().Update(ctx, rec))
		twice, err := s.Subjects().Get(ctx, rec.Key)
		require.NoError(t, err)

		assert.Equal(t, once, twice)
		assert.Equal(t, "a knight", twice.Value.Description)
	})

	t.Run("latest value wins", func(t *testing.T) {
		rec.Value.Description = "a queen"
		require.NoError(t, s.Subjects().Update(ctx, rec))
		got, err := s.Subjects().Get(ctx, rec.Key)
		require.NoError(t, err)
		assert.Equal(t, "a queen", got.Value.Description)
	})

	t.Run("missing key is not found", func(t *testing.T) {
		err := s.Subjects().Update(ctx, types.Keyed[types.Subject]{Key: 999, Value: types.Subject{Name: "ghost"}})
		assert.ErrorIs(t, err, types.ErrNotFound)
	})

	t.Run("zero key is invalid", func(t *testing.T) {
		err := s.Subjects().Update(ctx, types.Keyed[types.Subject]{Value: types.Subject{Name: "ghost"}})
		assert.ErrorIs(t, err, types.ErrInvalidKey)
	})

	t.Run("only the keyed row changes", func(t *testing.T) {
		other, err := s.Subjects().Insert(ctx, types.Subject{Name: "Bob", Description: "a baker"})
		require.NoError(t, err)
		rec.Value.Name = "Aria the Bold"
		require.NoError(t, s.Subjects().Update(ctx, rec))

		got, err := s.Subjects().Get(ctx, other.Key)
		require.NoError(t, err)
		assert.Equal(t, other, got)
	})
}

func TestOptionalParentRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root, err := s.Places().Insert(ctx, types.Place{Name: "Realm"})
	require.NoError(t, err)
	got, err := s.Places().Get(ctx, root.Key)
	require.NoError(t, err)
	assert.False(t, got.Value.ParentPlace.IsSet())

	var raw any
	require.NoError(t, s.db.QueryRow("SELECT parent_place FROM places WHERE id = ?", int64(root.Key)).Scan(&raw))
	assert.Nil(t, raw, "absent parent is stored as NULL")

	child, err := s.Places().Insert(ctx, types.Place{Name: "Town", ParentPlace: types.SomeKey(root.Key)})
	require.NoError(t, err)
	got, err = s.Places().Get(ctx, child.Key)
	require.NoError(t, err)
	parent, ok := got.Value.ParentPlace.Get()
	require.True(t, ok)
	assert.Equal(t, root.Key, parent)
}

func TestOptionalParent_LegacyNullText(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Older files bound a missing parent as the text "NULL".
	_, err := s.db.Exec("PRAGMA foreign_keys = OFF")
	require.NoError(t, err)
	res, err := s.db.Exec("INSERT INTO groups (name, description, parent_group) VALUES ('Crown', '', 'NULL')")
	require.NoError(t, err)
	_, err = s.db.Exec("PRAGMA foreign_keys = ON")
	require.NoError(t, err)
	id, err := res.LastInsertId()
	require.NoError(t, err)

	got, err := s.Groups().Get(ctx, types.Key(id))
	require.NoError(t, err)
	assert.Equal(t, "Crown", got.Value.Name)
	assert.False(t, got.Value.ParentGroup.IsSet())
}

func TestParentValidation(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Places().Insert(ctx, types.Place{Name: "Orphan", ParentPlace: types.SomeKey(77)})
	assert.ErrorIs(t, err, types.ErrParentNotFound)

	a, err := s.Groups().Insert(ctx, types.Group{Name: "Empire"})
	require.NoError(t, err)
	b, err := s.Groups().Insert(ctx, types.Group{Name: "Legion", ParentGroup: types.SomeKey(a.Key)})
	require.NoError(t, err)
	c, err := s.Groups().Insert(ctx, types.Group{Name: "Cohort", ParentGroup: types.SomeKey(b.Key)})
	require.NoError(t, err)

	t.Run("own parent", func(t *testing.T) {
		a.Value.ParentGroup = types.SomeKey(a.Key)
		assert.ErrorIs(t, s.Groups().Update(ctx, a), types.ErrCycle)
	})

	t.Run("descendant as parent", func(t *testing.T) {
		a.Value.ParentGroup = types.SomeKey(c.Key)
		assert.ErrorIs(t, s.Groups().Update(ctx, a), types.ErrCycle)
	})

	t.Run("missing parent on update", func(t *testing.T) {
		a.Value.ParentGroup = types.SomeKey(500)
		assert.ErrorIs(t, s.Groups().Update(ctx, a), types.ErrParentNotFound)
	})

	t.Run("reparent sideways", func(t *testing.T) {
		c.Value.ParentGroup = types.SomeKey(a.Key)
		require.NoError(t, s.Groups().Update(ctx, c))
		got, err := s.Groups().Get(ctx, c.Key)
		require.NoError(t, err)
		assert.Equal(t, types.SomeKey(a.Key), got.Value.ParentGroup)
	})
}

func TestSubstringSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []string{"Aria", "Mariana", "Bob"} {
		_, err := s.Subjects().Insert(ctx, types.Subject{Name: n, Description: "lives in " + n + "ville"})
		require.NoError(t, err)
	}

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "lowercase", query: "ria", want: []string{"Aria", "Mariana"}},
		{name: "uppercase", query: "RIA", want: []string{"Aria", "Mariana"}},
		{name: "empty matches all", query: "", want: []string{"Aria", "Mariana", "Bob"}},
		{name: "no match", query: "zed", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Subjects().QueryName(ctx, tt.query)
			require.NoError(t, err)
			assert.ElementsMatch(t, tt.want, names(got))
		})
	}

	t.Run("results follow key order", func(t *testing.T) {
		got, err := s.Subjects().QueryName(ctx, "")
		require.NoError(t, err)
		assert.Equal(t, []string{"Aria", "Mariana", "Bob"}, names(got))
	})

	t.Run("description", func(t *testing.T) {
		got, err := s.Subjects().QueryDescription(ctx, "BOBVILLE")
		require.NoError(t, err)
		assert.Equal(t, []string{"Bob"}, names(got))
	})
}

func TestSubstringSearch_Wildcards(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, n := range []string{"100% pure", "1000 men", "snake_case", "snakes"} {
		_, err := s.Tags().Insert(ctx, types.Tag{Name: n})
		require.NoError(t, err)
	}

	got, err := s.Tags().QueryName(ctx, "0%")
	require.NoError(t, err)
	assert.Equal(t, []string{"100% pure"}, names(got))

	got, err = s.Tags().QueryName(ctx, "e_c")
	require.NoError(t, err)
	assert.Equal(t, []string{"snake_case"}, names(got))
}

func TestSearch_UnsupportedColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Events().QueryName(ctx, "x")
	assert.ErrorIs(t, err, types.ErrNotSearchable)
	_, err = s.Tags().QueryDescription(ctx, "x")
	assert.ErrorIs(t, err, types.ErrNotSearchable)

	_, err = s.Events().Insert(ctx, types.Event{RecordDate: 1, ReferredDate: "Day 1", Description: "Arrival at the keep"})
	require.NoError(t, err)
	got, err := s.Events().QueryDescription(ctx, "keep")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Day 1", got[0].Value.ReferredDate)
}

func TestList(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	empty, err := s.Places().List(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)
	assert.NotNil(t, empty)

	_, err = s.Places().Insert(ctx, types.Place{Name: "North"})
	require.NoError(t, err)
	_, err = s.Places().Insert(ctx, types.Place{Name: "South"})
	require.NoError(t, err)

	all, err := s.Places().List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"North", "South"}, names(all))
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	root, err := s.Places().Insert(ctx, types.Place{Name: "Realm"})
	require.NoError(t, err)
	town, err := s.Places().Insert(ctx, types.Place{Name: "Town", ParentPlace: types.SomeKey(root.Key)})
	require.NoError(t, err)
	hero, err := s.Subjects().Insert(ctx, types.Subject{Name: "Hero"})
	require.NoError(t, err)

	heroRef := types.Ref{Kind: types.KindSubject, Key: hero.Key}
	townRef := types.Ref{Kind: types.KindPlace, Key: town.Key}
	require.NoError(t, s.InsertLink(ctx, heroRef, townRef))

	t.Run("parent with children is refused", func(t *testing.T) {
		assert.ErrorIs(t, s.Places().Delete(ctx, root.Key), types.ErrHasChildren)
		_, err := s.Places().Get(ctx, root.Key)
		require.NoError(t, err)
	})

	t.Run("delete removes links", func(t *testing.T) {
		require.NoError(t, s.Places().Delete(ctx, town.Key))
		_, err := s.Places().Get(ctx, town.Key)
		assert.ErrorIs(t, err, types.ErrNotFound)

		links, err := s.Links(ctx, heroRef)
		require.NoError(t, err)
		assert.Empty(t, links)
	})

	t.Run("childless parent can go", func(t *testing.T) {
		require.NoError(t, s.Places().Delete(ctx, root.Key))
	})

	t.Run("missing key", func(t *testing.T) {
		assert.ErrorIs(t, s.Places().Delete(ctx, root.Key), types.ErrNotFound)
	})
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `a\%b\_c\\d`, escapeLike(`a%b_c\d`))
	assert.Equal(t, "plain", escapeLike("plain"))
}

func TestEventRecordDateRange(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	ok, err := s.Events().Insert(ctx, types.Event{RecordDate: math.MaxInt64, ReferredDate: "End of days"})
	require.NoError(t, err)

	_, err = s.Events().Insert(ctx, types.Event{RecordDate: math.MaxUint64, ReferredDate: "Beyond"})
	assert.ErrorIs(t, err, types.ErrOutOfRange)

	ok.Value.RecordDate = math.MaxInt64 + 1
	assert.ErrorIs(t, s.Events().Update(ctx, ok), types.ErrOutOfRange)

	all, err := s.Events().List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, uint64(math.MaxInt64), all[0].Value.RecordDate)

	got, err := s.Events().QueryDescription(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
