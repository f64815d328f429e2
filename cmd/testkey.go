package main

import (
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var (
	testKeyAPIKey string
	testKeyReal   bool
)

var testKeyCmd = &cobra.Command{
	Use:   "test-key",
	Short: "Check whether a BotConversa API key is accepted",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, factory := backendFactory(cfg, testKeyReal || cfg.BotConversa.RealMode)
		st, err := factory(testKeyAPIKey).TestKey(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "test key")
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return eris.Wrap(err, "encode result")
		}
		if !st.OK {
			return eris.New("api key rejected")
		}
		return nil
	},
}

func init() {
	testKeyCmd.Flags().StringVar(&testKeyAPIKey, "api-key", "", "BotConversa API key")
	testKeyCmd.Flags().BoolVar(&testKeyReal, "real", false, "use the live BotConversa API regardless of config")
	_ = testKeyCmd.MarkFlagRequired("api-key")
	rootCmd.AddCommand(testKeyCmd)
}
