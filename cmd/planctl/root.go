package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// newRootCmd creates the top-level "planctl" command. getenv supplies the
// master secret for keygen.
func newRootCmd(getenv func(string) string) *cobra.Command {
	root := &cobra.Command{
		Use:          "planctl",
		Short:        "Offline capacity planning and key tooling",
		SilenceUsage: true,
	}

	root.AddCommand(
		newKeygenCmd(getenv),
		newCapacityCmd(),
		newCascadeCmd(),
	)
	return root
}

func readJSON(path string, v any) error {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}
	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
