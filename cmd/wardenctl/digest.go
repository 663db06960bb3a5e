package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wardenlab/wardenctl/store"
)

var digestCmd = &cobra.Command{
	Use:   "digest <policy>",
	Short: "Print the sha256 digest of a policy module",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		wasmBytes, err := loadPolicyBytes(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s@sha256:%s\n", args[0], store.Digest(wasmBytes))
		return nil
	},
}
