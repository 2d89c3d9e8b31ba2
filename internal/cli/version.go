package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/campman/pkg/campman"
)

const modulePath = "github.com/mesh-intelligence/campman"

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the campman version",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "campman v%s\nmodule: %s\n", campman.Version, modulePath)
			return nil
		},
	}
}
