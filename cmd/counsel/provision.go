package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bufetemejia/counsel"
	"github.com/bufetemejia/counsel/pkg/domain"
)

var provisionCmd = &cobra.Command{
	Use:   "provision",
	Short: "Register the assistant with the reasoning runtime",
	Long: `Creates the assistant on the runtime with the legal drafting brief and
the search capability, and prints the assistant id to put into
runtime.assistant_id.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		if cfg.Runtime.APIKey == "" {
			return fmt.Errorf("runtime.api_key is required (or set OPENAI_API_KEY)")
		}

		name, _ := cmd.Flags().GetString("name")
		instructions := domain.DefaultAssistantInstructions
		if path, _ := cmd.Flags().GetString("instructions"); path != "" {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading instructions file: %w", err)
			}
			instructions = string(data)
		}

		app := counsel.New(cfg)
		defer app.Close()

		id, err := app.Provisioner.ProvisionAssistant(cmd.Context(), name, instructions, []domain.Tool{domain.SearchLegalBasisTool()})
		if err != nil {
			return fmt.Errorf("provisioning assistant: %w", err)
		}

		fmt.Printf("Assistant provisioned: %s\n", id)
		fmt.Println("Set runtime.assistant_id in your config (or COUNSEL_ASSISTANT_ID) to this id.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(provisionCmd)
	provisionCmd.Flags().String("name", domain.DefaultAssistantName, "Assistant display name")
	provisionCmd.Flags().String("instructions", "", "Path to a custom instructions file")
}
