package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Populated by the linker at release time.
var (
	version = "dev"
	commit  = "unknown"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print version information",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprintf(cmd.OutOrStdout(), "showgrab %s (%s) %s/%s\n",
				version, commit, runtime.GOOS, runtime.GOARCH)
			return nil
		},
	}
}
