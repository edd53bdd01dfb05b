// ABOUTME: parse and normalize subcommands for parsectl
// ABOUTME: Prints parse results as indented JSON or as markdown

package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"linkparse-api/linkparse"
)

func newParseCmd(flags *rootFlags) *cobra.Command {
	var (
		markdown bool
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "parse <url>",
		Short: "Parse a link and print the result",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), flags.timeout)
			defer cancel()

			var opts []linkparse.ParseOption
			if force {
				opts = append(opts, linkparse.WithForceRefresh())
			}

			result, err := client.Parse(ctx, args[0], opts...)
			if err != nil {
				return fmt.Errorf("parse %s: %w", args[0], err)
			}

			if markdown && !result.IsWebview() {
				text, err := result.Markdown()
				if err != nil {
					return fmt.Errorf("convert to markdown: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "# %s\n\n%s\n", result.Title, text)
				return nil
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().BoolVar(&markdown, "markdown", false, "print article content as markdown")
	cmd.Flags().BoolVar(&force, "force", false, "skip low-confidence cache entries")
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize <url>",
		Short: "Print the canonical form used as the cache key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := linkparse.Normalize(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), normalized)
			return nil
		},
	}
}

func newStrategiesCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List registered strategies in selection order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := flags.client()
			if err != nil {
				return err
			}
			defer client.Close()

			for _, name := range client.Strategies() {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
