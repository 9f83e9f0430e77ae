package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/codeguardian-ai/codeguardian/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the active configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		// Secrets are omitted from the printout.
		cfg.Git.GitHubToken = redact(cfg.Git.GitHubToken)
		cfg.Git.GitLabToken = redact(cfg.Git.GitLabToken)
		cfg.Git.WebhookSecret = redact(cfg.Git.WebhookSecret)
		cfg.AI.AnthropicKey = redact(cfg.AI.AnthropicKey)
		cfg.Notify.Email.Password = redact(cfg.Notify.Email.Password)
		cfg.Notify.Webhook.Secret = redact(cfg.Notify.Webhook.Secret)

		out, err := json.MarshalIndent(cfg, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}

func redact(s string) string {
	if s == "" {
		return ""
	}
	return "********"
}
