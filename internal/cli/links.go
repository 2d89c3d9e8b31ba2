package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mesh-intelligence/campman/internal/sqlite"
	"github.com/mesh-intelligence/campman/pkg/types"
)

const linkPairsHelp = `Linkable kinds:
  subject - subject, subject - group, subject - place,
  event - subject, event - group, event - place, event - tag,
  place - group`

func newLinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "link <kind> <key> <kind> <key>",
		Short: "Link two records",
		Long:  "Link associates two records. Either order works.\n" + linkPairsHelp,
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRefPair(args)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				if err := s.InsertLink(ctx, from, to); err != nil {
					return err
				}
				a.log.Info("link added", zap.Stringer("from", from), zap.Stringer("to", to))
				return a.emit(cmd, []types.Ref{from, to}, func(w io.Writer) {
					fmt.Fprintf(w, "Linked %s to %s\n", from, to)
				})
			})
		},
	}
}

func newUnlinkCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <kind> <key> <kind> <key>",
		Short: "Remove every link between two records",
		Args:  exactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			from, to, err := parseRefPair(args)
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				n, err := s.DeleteLink(ctx, from, to)
				if err != nil {
					return err
				}
				a.log.Info("links removed", zap.Stringer("from", from), zap.Stringer("to", to), zap.Int64("count", n))
				return a.emit(cmd, map[string]int64{"removed": n}, func(w io.Writer) {
					fmt.Fprintf(w, "Removed %d link(s) between %s and %s\n", n, from, to)
				})
			})
		},
	}
}

func newLinksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "links <kind> <key>",
		Short: "List the records linked to a record",
		Args:  exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := parseRef(args[0], args[1])
			if err != nil {
				return err
			}
			return a.withStore(cmd, func(ctx context.Context, s *sqlite.Store) error {
				t, err := tableFor(s, ref.Kind)
				if err != nil {
					return err
				}
				if _, err := t.get(ctx, ref.Key); err != nil {
					return err
				}
				refs, err := s.Links(ctx, ref)
				if err != nil {
					return err
				}
				return a.emit(cmd, refs, func(w io.Writer) {
					for _, r := range refs {
						fmt.Fprintln(w, r)
					}
				})
			})
		},
	}
}

func parseRefPair(args []string) (types.Ref, types.Ref, error) {
	from, err := parseRef(args[0], args[1])
	if err != nil {
		return types.Ref{}, types.Ref{}, err
	}
	to, err := parseRef(args[2], args[3])
	if err != nil {
		return types.Ref{}, types.Ref{}, err
	}
	return from, to, nil
}
