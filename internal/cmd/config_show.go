package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage Maestro configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the resolved configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		_, span := tracer.Start(cmd.Context(), "config.show")
		defer span.End()

		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "listen_addr:         %s\n", cfg.ListenAddr)
		fmt.Fprintf(out, "data_dir:            %s\n", cfg.DataDir)
		fmt.Fprintf(out, "redis_url:           %s\n", orUnset(cfg.RedisURL))
		fmt.Fprintf(out, "store_timeout:       %s\n", cfg.StoreTimeout)
		fmt.Fprintf(out, "plan_ttl:            %s\n", cfg.PlanTTL)
		fmt.Fprintf(out, "idempotency_ttl:     %s\n", cfg.IdempotencyTTL)
		fmt.Fprintf(out, "global_rpm:          %d\n", cfg.GlobalRPM)
		fmt.Fprintf(out, "openai_api_key:      %s\n", maskSecret(cfg.OpenAIAPIKey))
		fmt.Fprintf(out, "intents_path:        %s\n", orUnset(cfg.IntentsPath))
		fmt.Fprintf(out, "single_node:         %t\n", cfg.SingleNode())

		return nil
	},
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}

// maskSecret keeps only a short prefix so the operator can tell keys apart
// without the full value landing in a terminal scrollback.
func maskSecret(v string) string {
	if v == "" {
		return "(unset)"
	}
	if len(v) <= 8 {
		return "****"
	}
	return v[:4] + "****"
}

func init() {
	configCmd.AddCommand(configShowCmd)
	rootCmd.AddCommand(configCmd)
}
