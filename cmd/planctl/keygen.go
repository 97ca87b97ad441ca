package main

import (
	"errors"
	"fmt"

	"github.com/arnavshah/capacity-planner-go/pkg/auth"
	"github.com/spf13/cobra"
)

func newKeygenCmd(getenv func(string) string) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "keygen <name>",
		Short: "Print an HMAC-signed engine API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				secret = getenv("API_MASTER_SECRET")
			}
			if secret == "" {
				return errors.New("API_MASTER_SECRET not found in environment or .env")
			}

			key := auth.GenerateHMACKey([]byte(secret), args[0])
			fmt.Fprintf(cmd.OutOrStdout(), "Generated Key for %s:\n%s\n", args[0], key)
			return nil
		},
	}

	cmd.Flags().StringVar(&secret, "secret", "", "Master secret (defaults to API_MASTER_SECRET)")
	return cmd
}
