package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wardenlab/wardenctl/store"
)

var verifyDigest string

var verifyCmd = &cobra.Command{
	Use:   "verify <policy>",
	Short: "Verify a policy module against an expected digest",
	Long: `Compare the sha256 digest of a policy module with the expected one. This is
a local integrity check; signature verification against a keyless trust root
is delegated to external tooling.`,
	Args: cobra.ExactArgs(1),
	RunE: runVerify,
}

func init() {
	verifyCmd.Flags().StringVar(&verifyDigest, "digest", "", "expected sha256 digest (with or without the sha256: prefix)")
	_ = verifyCmd.MarkFlagRequired("digest")
}

func runVerify(cmd *cobra.Command, args []string) error {
	wasmBytes, err := loadPolicyBytes(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	expected := strings.TrimPrefix(verifyDigest, "sha256:")
	actual := store.Digest(wasmBytes)
	if actual != expected {
		return fmt.Errorf("digest mismatch: policy is sha256:%s, expected sha256:%s", actual, expected)
	}
	fmt.Println("Policy verified")
	return nil
}
