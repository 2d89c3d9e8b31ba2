package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/campman/internal/sqlite"
	"github.com/mesh-intelligence/campman/pkg/types"
)

// Record flag names shared by add and update.
const (
	flagName         = "name"
	flagDescription  = "description"
	flagParent       = "parent"
	flagRecordDate   = "record-date"
	flagReferredDate = "referred-date"
)

var recordFlagNames = []string{flagName, flagDescription, flagParent, flagRecordDate, flagReferredDate}

// recordFields holds the values of the record flags.
type recordFields struct {
	name         string
	description  string
	parent       string
	recordDate   uint64
	referredDate string

	changed func(name string) bool
}

func (f *recordFields) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.name, flagName, "", "record name")
	fs.StringVar(&f.description, flagDescription, "", "record description")
	fs.StringVar(&f.parent, flagParent, "", `parent key for places and groups ("none" clears it)`)
	fs.Uint64Var(&f.recordDate, flagRecordDate, 0, "event entry time in unix seconds (default: now)")
	fs.StringVar(&f.referredDate, flagReferredDate, "", "in-world date of an event")
	f.changed = fs.Changed
}

// only rejects record flags that kind does not have.
func (f *recordFields) only(kind types.Kind, allowed ...string) error {
	for _, name := range recordFlagNames {
		if !f.changed(name) {
			continue
		}
		ok := false
		for _, a := range allowed {
			if a == name {
				ok = true
				break
			}
		}
		if !ok {
			return usageErrorf("--%s does not apply to %s", name, kind)
		}
	}
	return nil
}

func parseParent(s string) (types.OptionalKey, error) {
	if s == "" || strings.EqualFold(s, "none") {
		return types.NoKey(), nil
	}
	k, err := types.ParseKey(s)
	if err != nil {
		return types.NoKey(), fmt.Errorf("--parent: %w", err)
	}
	return types.SomeKey(k), nil
}

func applySubject(r *types.Subject, f *recordFields) error {
	if err := f.only(types.KindSubject, flagName, flagDescription); err != nil {
		return err
	}
	if f.changed(flagName) {
		r.Name = f.name
	}
	if f.changed(flagDescription) {
		r.Description = f.description
	}
	return nil
}

func applyPlace(r *types.Place, f *recordFields) error {
	if err := f.only(types.KindPlace, flagName, flagDescription, flagParent); err != nil {
		return err
	}
	if f.changed(flagName) {
		r.Name = f.name
	}
	if f.changed(flagDescription) {
		r.Description = f.description
	}
	if f.changed(flagParent) {
		p, err := parseParent(f.parent)
		if err != nil {
			return err
		}
		r.ParentPlace = p
	}
	return nil
}

func applyEvent(r *types.Event, f *recordFields) error {
	if err := f.only(types.KindEvent, flagDescription, flagRecordDate, flagReferredDate); err != nil {
		return err
	}
	if f.changed(flagRecordDate) {
		r.RecordDate = f.recordDate
	}
	if f.changed(flagReferredDate) {
		r.ReferredDate = f.referredDate
	}
	if f.changed(flagDescription) {
		r.Description = f.description
	}
	return nil
}

func applyGroup(r *types.Group, f *recordFields) error {
	if err := f.only(types.KindGroup, flagName, flagDescription, flagParent); err != nil {
		return err
	}
	if f.changed(flagName) {
		r.Name = f.name
	}
	if f.changed(flagDescription) {
		r.Description = f.description
	}
	if f.changed(flagParent) {
		p, err := parseParent(f.parent)
		if err != nil {
			return err
		}
		r.ParentGroup = p
	}
	return nil
}

func applyTag(r *types.Tag, f *recordFields) error {
	if err := f.only(types.KindTag, flagName); err != nil {
		return err
	}
	if f.changed(flagName) {
		r.Name = f.name
	}
	return nil
}

// record is one stored entity as the commands print it.
type record struct {
	Kind  types.Kind `json:"kind"`
	Key   types.Key  `json:"key"`
	Value any        `json:"value"`

	label string
}

// recordTable is the kind-independent view of a sqlite.Table the commands
// work against.
type recordTable interface {
	add(ctx context.Context, f *recordFields) (record, error)
	update(ctx context.Context, key types.Key, f *recordFields) (record, error)
	get(ctx context.Context, key types.Key) (record, error)
	byName(ctx context.Context, name string) (record, error)
	search(ctx context.Context, column, text string) ([]record, error)
	remove(ctx context.Context, key types.Key) error
}

type labeled interface{ Label() string }

type tableAdapter[T labeled] struct {
	t     *sqlite.Table[T]
	apply func(rec *T, f *recordFields) error
	fresh func() T
}

func (a tableAdapter[T]) wrap(k types.Keyed[T]) record {
	return record{Kind: a.t.Kind(), Key: k.Key, Value: k.Value, label: k.Value.Label()}
}

func (a tableAdapter[T]) add(ctx context.Context, f *recordFields) (record, error) {
	var rec T
	if a.fresh != nil {
		rec = a.fresh()
	}
	if err := a.apply(&rec, f); err != nil {
		return record{}, err
	}
	k, err := a.t.Insert(ctx, rec)
	if err != nil {
		return record{}, err
	}
	return a.wrap(k), nil
}

func (a tableAdapter[T]) update(ctx context.Context, key types.Key, f *recordFields) (record, error) {
	cur, err := a.t.Get(ctx, key)
	if err != nil {
		return record{}, err
	}
	if err := a.apply(&cur.Value, f); err != nil {
		return record{}, err
	}
	if err := a.t.Update(ctx, cur); err != nil {
		return record{}, err
	}
	return a.wrap(cur), nil
}

func (a tableAdapter[T]) get(ctx context.Context, key types.Key) (record, error) {
	k, err := a.t.Get(ctx, key)
	if err != nil {
		return record{}, err
	}
	return a.wrap(k), nil
}

func (a tableAdapter[T]) byName(ctx context.Context, name string) (record, error) {
	k, err := a.t.GetByName(ctx, name)
	if err != nil {
		return record{}, err
	}
	return a.wrap(k), nil
}

func (a tableAdapter[T]) search(ctx context.Context, column, text string) ([]record, error) {
	var (
		found []types.Keyed[T]
		err   error
	)
	switch column {
	case "name":
		found, err = a.t.QueryName(ctx, text)
	case "description":
		found, err = a.t.QueryDescription(ctx, text)
	default:
		return nil, usageErrorf("--in must be name or description, got %q", column)
	}
	if err != nil {
		return nil, err
	}
	out := make([]record, len(found))
	for i, k := range found {
		out[i] = a.wrap(k)
	}
	return out, nil
}

func (a tableAdapter[T]) remove(ctx context.Context, key types.Key) error {
	return a.t.Delete(ctx, key)
}

// tableFor returns the table of s that stores kind.
func tableFor(s *sqlite.Store, kind types.Kind) (recordTable, error) {
	switch kind {
	case types.KindSubject:
		return tableAdapter[types.Subject]{t: s.Subjects(), apply: applySubject}, nil
	case types.KindPlace:
		return tableAdapter[types.Place]{t: s.Places(), apply: applyPlace}, nil
	case types.KindEvent:
		return tableAdapter[types.Event]{t: s.Events(), apply: applyEvent, fresh: func() types.Event {
			return types.Event{RecordDate: uint64(time.Now().Unix())}
		}}, nil
	case types.KindGroup:
		return tableAdapter[types.Group]{t: s.Groups(), apply: applyGroup}, nil
	case types.KindTag:
		return tableAdapter[types.Tag]{t: s.Tags(), apply: applyTag}, nil
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidKind, kind)
	}
}

// parseRef parses a kind argument and a key argument.
func parseRef(kindArg, keyArg string) (types.Ref, error) {
	kind, err := types.ParseKind(kindArg)
	if err != nil {
		return types.Ref{}, err
	}
	key, err := types.ParseKey(keyArg)
	if err != nil {
		return types.Ref{}, err
	}
	return types.Ref{Kind: kind, Key: key}, nil
}
