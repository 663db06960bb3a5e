package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wardenlab/wardenctl/fetcher"
)

var pullOutputPath string

var pullCmd = &cobra.Command{
	Use:   "pull <uri>",
	Short: "Download a policy module into the local store",
	Long: `Download a policy module from a file://, http(s):// or registry:// source.
Registry URIs without a tag default to :latest. The module is stored under
its sha256 digest unless --output-path redirects it to a plain file.`,
	Args: cobra.ExactArgs(1),
	RunE: runPull,
}

func init() {
	pullCmd.Flags().StringVarP(&pullOutputPath, "output-path", "o", "", "write the module to this path instead of the store")
}

func runPull(cmd *cobra.Command, args []string) error {
	uri, err := fetcher.NormalizeURI(args[0])
	if err != nil {
		return err
	}

	data, err := fetcher.New().Fetch(cmd.Context(), uri)
	if err != nil {
		return err
	}

	if pullOutputPath != "" {
		if err := os.WriteFile(pullOutputPath, data, 0o644); err != nil {
			return fmt.Errorf("cannot write policy module: %w", err)
		}
		fmt.Printf("Policy written to %s\n", pullOutputPath)
		return nil
	}

	s, err := openDefaultStore()
	if err != nil {
		return err
	}
	digest, err := s.Add(uri, data)
	if err != nil {
		return err
	}
	fmt.Printf("Policy stored as sha256:%s\n", digest)
	return nil
}
