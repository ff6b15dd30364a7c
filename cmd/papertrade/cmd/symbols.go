package cmd

import (
	"fmt"
	"strings"

	"github.com/rustyeddy/papertrade/market"
	"github.com/spf13/cobra"
)

var symbolsCmd = &cobra.Command{
	Use:   "symbols [keyword]",
	Short: "Look up TSE symbols by code or name",
	Long: `Search the symbol directory by code, Japanese or English name, or alias.
Full-width input is folded to half-width before matching.

Examples:
  papertrade symbols
  papertrade symbols トヨタ
  papertrade symbols sony`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSymbols,
}

func init() {
	rootCmd.AddCommand(symbolsCmd)
}

func runSymbols(cmd *cobra.Command, args []string) error {
	keyword := strings.Join(args, " ")
	found := market.Search(keyword)
	if len(found) == 0 {
		return fmt.Errorf("no symbol matches %q", keyword)
	}
	out := cmd.OutOrStdout()
	for _, in := range found {
		fmt.Fprintf(out, "%-8s %-20s %s\n", in.Code, in.Name, in.EnglishName)
	}
	return nil
}
