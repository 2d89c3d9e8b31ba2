package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/campman/pkg/types"
)

// emit writes v as indented JSON in --json mode, otherwise calls text.
func (a *app) emit(cmd *cobra.Command, v any, text func(w io.Writer)) error {
	w := cmd.OutOrStdout()
	if a.flags.jsonMode {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	text(w)
	return nil
}

// writeRow prints the one-line form of r.
func writeRow(w io.Writer, r record) {
	fmt.Fprintf(w, "%s\t%d\t%s\n", r.Kind.Singular(), r.Key, r.label)
}

// writeDetail prints every field of r, one per line.
func writeDetail(w io.Writer, r record) {
	fmt.Fprintf(w, "%s %d\n", r.Kind.Singular(), r.Key)
	field := func(name, value string) {
		fmt.Fprintf(w, "  %-13s %s\n", name+":", value)
	}
	switch v := r.Value.(type) {
	case types.Subject:
		field("name", v.Name)
		field("description", v.Description)
	case types.Place:
		field("name", v.Name)
		field("description", v.Description)
		field("parent", v.ParentPlace.String())
	case types.Event:
		field("record date", fmt.Sprint(v.RecordDate))
		field("referred date", v.ReferredDate)
		field("description", v.Description)
	case types.Group:
		field("name", v.Name)
		field("description", v.Description)
		field("parent", v.ParentGroup.String())
	case types.Tag:
		field("name", v.Name)
	}
}
