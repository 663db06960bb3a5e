package main

import (
	"github.com/spf13/cobra"
)

var rmCmd = &cobra.Command{
	Use:   "rm <uri_or_sha_prefix>",
	Short: "Remove a policy from the local store",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		s, err := openDefaultStore()
		if err != nil {
			return err
		}
		return s.Remove(args[0])
	},
}
