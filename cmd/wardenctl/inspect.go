package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wardenlab/wardenctl/policy"
)

var inspectOutputJSON bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <policy>",
	Short: "Show the metadata embedded in a policy module",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectOutputJSON, "json", false, "print metadata as JSON instead of YAML")
}

func runInspect(cmd *cobra.Command, args []string) error {
	wasmBytes, err := loadPolicyBytes(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	meta, err := policy.ReadMetadata(wasmBytes)
	if err != nil {
		return err
	}
	if meta == nil {
		return fmt.Errorf("policy carries no metadata; annotate it first")
	}

	if inspectOutputJSON {
		return printJSON(meta)
	}
	data, err := yaml.Marshal(meta)
	if err != nil {
		return err
	}
	fmt.Print(string(data))
	return nil
}
