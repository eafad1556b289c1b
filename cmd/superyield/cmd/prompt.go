package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"superyield/internal/domain"
	"superyield/internal/prompt"
)

var promptFile string

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the policy and situation text for a request file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := readRequestFile(promptFile)
		if err != nil {
			return err
		}
		state := domain.VaultState{}
		if req.VaultState != nil {
			state = *req.VaultState
		}
		w := cmd.OutOrStdout()
		fmt.Fprintln(w, "=== POLICY ===")
		fmt.Fprintln(w, prompt.BuildContext(req.Constraints.Resolve()))
		fmt.Fprintln(w, "=== SITUATION ===")
		fmt.Fprintln(w, prompt.BuildSituation(state, req.Opportunities))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptFile, "file", "f", "", "path to the request JSON (required)")
	_ = promptCmd.MarkFlagRequired("file")
}
