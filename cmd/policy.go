/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/wtthornton/LocalMCP/internal/config"
	"github.com/wtthornton/LocalMCP/internal/policy"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Work with quality requirement policies",
	Long: `Quality requirements are produced by Rego policies: the built-in rules plus any
.rego files in .localmcp/policies. A project rule can add requirements for its own
conventions, such as "every API handler needs rate limiting".`,
}

var policyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List project policy files",
	RunE:  runPolicyList,
}

var policyTestCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the Rego tests of built-in and project policies",
	RunE:  runPolicyTest,
}

func init() {
	rootCmd.AddCommand(policyCmd)
	policyCmd.AddCommand(policyListCmd, policyTestCmd)
}

func runPolicyList(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEnhanceConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	files, err := policy.NewLoader(afero.NewOsFs(), cfg.PoliciesDir).LoadAll()
	if err != nil {
		return err
	}
	if isJSON() {
		return printJSON(cmd.OutOrStdout(), files)
	}
	out := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintf(out, "No project policies in %s; the built-in rules apply.\n", cfg.PoliciesDir)
		return nil
	}
	for _, f := range files {
		kind := "rules"
		if f.IsTest() {
			kind = "tests"
		}
		fmt.Fprintf(out, "  %s (%s)\n", f.Path, kind)
	}
	return nil
}

func runPolicyTest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadEnhanceConfig("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	summary, err := policy.NewTestRunner(nil, cfg.PoliciesDir).Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("run tests: %w", err)
	}

	out := cmd.OutOrStdout()
	if isJSON() {
		if err := printJSON(out, summary); err != nil {
			return err
		}
	} else {
		for _, result := range summary.Results {
			name := result.Name
			if idx := strings.LastIndex(name, "."); idx > 0 {
				name = name[idx+1:]
			}
			switch {
			case result.Passed:
				fmt.Fprintf(out, "  ✓ %s (%s)\n", name, result.Duration.Round(time.Millisecond))
			case result.Failed:
				fmt.Fprintf(out, "  ✗ %s: FAIL\n", name)
			case result.Error != "":
				fmt.Fprintf(out, "  ✗ %s: %s\n", name, result.Error)
			case result.Skipped:
				fmt.Fprintf(out, "  - %s: skipped\n", name)
			}
		}
		fmt.Fprintln(out, summary.FormatSummary())
	}

	if !summary.AllPassed() {
		return fmt.Errorf("policy tests failed: %d failures, %d errors", summary.Failed, summary.Errored)
	}
	return nil
}
