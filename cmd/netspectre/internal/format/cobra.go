package format

import (
	"strconv"

	"github.com/spf13/cobra"
)

// FromCommand returns a Formatter bound to the command's streams. Mode and
// quiet come from the --output and --quiet flags. noColor is the resolved
// log.no_color setting, which may have been set by flag, environment or
// config file.
func FromCommand(cmd *cobra.Command, noColor bool) Formatter {
	mode := ModeTable
	if fl := cmd.Flags().Lookup("output"); fl != nil {
		mode = ParseMode(fl.Value.String())
	}

	var quiet bool
	if fl := cmd.Flags().Lookup("quiet"); fl != nil {
		quiet, _ = strconv.ParseBool(fl.Value.String())
	}

	return New(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode, quiet, !noColor)
}
