package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/campman/internal/sqlite"
	"github.com/mesh-intelligence/campman/pkg/types"
)

const kindsHelp = "Kinds: subject, place, event, group, tag (singular or plural)."

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

func rangeArgs(lo, hi int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.RangeArgs(lo, hi)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// withTable opens the campaign and hands fn the table for kindArg.
func (a *app) withTable(cmd *cobra.Command, kindArg string, fn func(ctx context.Context, t recordTable) error) error {
	kind, err := types.ParseKind(kindArg)
	if err != nil {
		return err
	}
	return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
		t, err := tableFor(s, kind)
		if err != nil {
			return err
		}
		return fn(ctx, t)
	})
}

func newAddCmd(a *app) *cobra.Command {
	var f recordFields
	cmd := &cobra.Command{
		Use:   "add <kind>",
		Short: "Add a record",
		Long: "Add inserts a new record and prints the key it was stored under.\n" + kindsHelp + `

Example:
  campman add subject --name Aria --description "a wanderer"
  campman add place --name Town --parent 1
  campman add event --referred-date "Spring, year 3" --description "The fair"`,
		Args: exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args[0], func(ctx context.Context, t recordTable) error {
				r, err := t.add(ctx, &f)
				if err != nil {
					return err
				}
				a.log.Info("record added", zap.String("kind", string(r.Kind)), zap.Int64("key", int64(r.Key)))
				return a.emit(cmd, r, func(w io.Writer) { writeRow(w, r) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newUpdateCmd(a *app) *cobra.Command {
	var f recordFields
	cmd := &cobra.Command{
		Use:   "update <kind> <key>",
		Short: "Change fields of a record",
		Long: "Update overwrites the fields named by flags and keeps the rest.\n" + kindsHelp + `

Example:
  campman update subject 3 --description "a knight"
  campman update place 2 --parent none`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := types.ParseKey(args[1])
			if err != nil {
				return err
			}
			return a.withTable(cmd, args[0], func(ctx context.Context, t recordTable) error {
				r, err := t.update(ctx, key, &f)
				if err != nil {
					return err
				}
				a.log.Info("record updated", zap.String("kind", string(r.Kind)), zap.Int64("key", int64(r.Key)))
				return a.emit(cmd, r, func(w io.Writer) { writeDetail(w, r) })
			})
		},
	}
	f.register(cmd)
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get <kind> <key>",
		Short: "Show a record by key",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := types.ParseKey(args[1])
			if err != nil {
				return err
			}
			return a.withTable(cmd, args[0], func(ctx context.Context, t recordTable) error {
				r, err := t.get(ctx, key)
				if err != nil {
					return err
				}
				return a.emit(cmd, r, func(w io.Writer) { writeDetail(w, r) })
			})
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <kind> <name>",
		Short: "Show a record by exact name",
		Long:  "Show finds the record whose name matches exactly. When several share the name, the oldest wins.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withTable(cmd, args[0], func(ctx context.Context, t recordTable) error {
				r, err := t.byName(ctx, args[1])
				if err != nil {
					return err
				}
				return a.emit(cmd, r, func(w io.Writer) { writeDetail(w, r) })
			})
		},
	}
}

func newSearchCmd(a *app) *cobra.Command {
	var column string
	cmd := &cobra.Command{
		Use:   "search <kind> [text]",
		Short: "List records whose name or description contains text",
		Long: "Search matches text anywhere in the chosen column, ignoring case.\n" +
			"Without text every record of the kind is listed.\n" + kindsHelp,
		Args: rangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			if len(args) == 2 {
				text = args[1]
			}
			return a.withTable(cmd, args[0], func(ctx context.Context, t recordTable) error {
				found, err := t.search(ctx, strings.ToLower(column), text)
				if err != nil {
					return err
				}
				a.log.Debug("search done", zap.String("in", column), zap.Int("matches", len(found)))
				return a.emit(cmd, found, func(w io.Writer) {
					for _, r := range found {
						writeRow(w, r)
					}
				})
			})
		},
	}
	cmd.Flags().StringVar(&column, "in", "name", "column to search: name or description")
	return cmd
}

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <kind> <key>",
		Short: "Remove a record and its links",
		Long:  "Delete removes the record and every link to it. Places and groups that still have children are refused.",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0], args[1])
			if err != nil {
				return err
			}
			return a.withTable(cmd, args[0], func(ctx context.Context, t recordTable) error {
				if err := t.remove(ctx, ref.Key); err != nil {
					return err
				}
				a.log.Info("record deleted", zap.Stringer("ref", ref))
				return a.emit(cmd, ref, func(w io.Writer) { fmt.Fprintf(w, "Deleted %s\n", ref) })
			})
		},
	}
}
