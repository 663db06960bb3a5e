package main

import (
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var policiesCmd = &cobra.Command{
	Use:   "policies",
	Short: "List the policies in the local store",
	Args:  cobra.NoArgs,
	RunE:  runPolicies,
}

func runPolicies(_ *cobra.Command, _ []string) error {
	s, err := openDefaultStore()
	if err != nil {
		return err
	}
	entries, err := s.List()
	if err != nil {
		return err
	}

	table := tablewriter.NewTable(os.Stdout)
	table.Header("Policy", "SHA256")
	for _, e := range entries {
		if err := table.Append(e.URI, e.Digest[:12]); err != nil {
			return err
		}
	}
	return table.Render()
}
