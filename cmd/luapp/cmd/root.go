package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/luapp-lang/luapp"
)

var opts luapp.Options

var rootCmd = &cobra.Command{
	Use:   "luapp [flags] [--] path...",
	Short: "Preprocess Lua files with inline metaprograms",
	Long: `luapp is a source-to-source preprocessor for Lua.

Input files mix ordinary Lua with metacode introduced by a '!' sigil.
The metacode runs at preprocess time and decides what ends up in the
output file:

  Meta line            !<statement>        runs <statement>
  Meta block           !( <statements> )   runs the statements
  Meta inline value    !( <expression> )   inserts the serialized value
  Meta inline code     !!( <expression> )  inserts the string verbatim

Each input path produces a sibling output file carrying the configured
output extension (default .lua).`,
	Version:       luapp.Version,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(_ *cobra.Command, args []string) error {
		p, err := luapp.NewProcessor(opts)
		if err != nil {
			return err
		}
		defer p.Close()
		return p.ProcessPaths(args)
	},
}

// Execute runs the root command, printing any failure in the
// diagnostic format and exiting non-zero.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, luapp.FormatError(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&opts.Handler, "handler", "", "path of a Lua message handler")
	rootCmd.Flags().BoolVar(&opts.LineNumbers, "linenumbers", false, "interleave --[[@N]] line annotations in the output")
	rootCmd.Flags().StringVar(&opts.OutputExtension, "outputextension", "lua", "extension of the produced files")
	rootCmd.Flags().StringVar(&opts.SaveInfo, "saveinfo", "", "write a processing record to this path")
	rootCmd.Flags().BoolVar(&opts.Silent, "silent", false, "suppress per-file chatter on stdout")
	rootCmd.Flags().BoolVar(&opts.Debug, "debug", false, "keep intermediate metaprogram files; escape newlines in serialized strings")
}
