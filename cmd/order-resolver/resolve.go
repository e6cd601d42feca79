package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve [file]",
	Short: "Resolve identifiers from a file or stdin and print the result",
	Long: `resolve reads a raw identifier list from the given file (or stdin when no
file is given), resolves it against the upstream search API, and prints the
result as JSON: matched record ids, their encoded form, and the identifiers
that matched nothing.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("upstream.token")
		if token == "" {
			return fmt.Errorf("an upstream token is required (--token or ORDER_RESOLVER_UPSTREAM_TOKEN)")
		}

		var raw []byte
		var err error
		if len(args) == 1 {
			raw, err = os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read input file: %w", err)
			}
		} else {
			raw, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
		}

		eng, err := buildResolver()
		if err != nil {
			return err
		}

		result, err := eng.Resolve(cmd.Context(), string(raw), token)
		if err != nil {
			return err
		}

		out := json.NewEncoder(os.Stdout)
		out.SetIndent("", "  ")
		return out.Encode(result)
	},
}

func init() {
	resolveCmd.Flags().String("token", "", "upstream bearer token")
	viper.BindPFlag("upstream.token", resolveCmd.Flags().Lookup("token"))
}
