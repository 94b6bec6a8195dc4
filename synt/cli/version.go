package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	internal "github.com/stabla/syntegrity/synt"
)

// Version is set at build time via -ldflags.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%s %s (%s/%s)\n", internal.DefaultAppName, Version, runtime.GOOS, runtime.GOARCH)
	},
}
