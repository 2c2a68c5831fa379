package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/greut/picture/svg"
	"github.com/spf13/cobra"
)

func newSVGCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "svg <file>",
		Short: "Optimize vector markup, - reads from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := log.FromContext(cmd.Context())

			var buffer []byte
			var err error
			if args[0] == "-" {
				buffer, err = io.ReadAll(cmd.InOrStdin())
			} else {
				buffer, err = os.ReadFile(args[0])
			}
			if err != nil {
				return err
			}

			content := svg.NewOptimizer(true, logger).Optimize(string(buffer))
			logger.Info("optimized", "before", len(buffer), "after", len(content))

			if output == "" {
				_, err = fmt.Fprintln(cmd.OutOrStdout(), content)
				return err
			}
			return os.WriteFile(output, []byte(content), 0o644)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this file instead of stdout")
	return cmd
}
