package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/baseguide/baseguide/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a config file interactively",
	Long: `Walk through prompts to create a Baseguide configuration file at
~/.baseguide/baseguide.yaml. Secrets may be given as literal values or as
references like ${ENV:AIRTABLE_TOKEN}, ${VAULT:path#key}, or ${AWS_SM:name}.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		reader := bufio.NewReader(os.Stdin)

		fmt.Println("Baseguide Configuration Setup")
		fmt.Println("=============================")
		fmt.Println()

		fmt.Println("Airtable")
		fmt.Println("--------")
		accessToken := prompt(reader, "Personal access token (or secret reference)", "${ENV:AIRTABLE_ACCESS_TOKEN}")
		baseID := prompt(reader, "Base ID (appXXXXXXXXXXXXXX)", "")
		fmt.Println()

		fmt.Println("Gemini (optional, leave empty to skip narrative guidance)")
		fmt.Println("--------------------------------------------------------")
		geminiKey := prompt(reader, "API key (or secret reference)", "")
		geminiModel := ""
		if geminiKey != "" {
			geminiModel = prompt(reader, "Model", "gemini-2.5-pro")
		}
		fmt.Println()

		cfg := &config.Config{
			Version: config.CurrentVersion,
			Airtable: config.AirtableConfig{
				AccessToken: accessToken,
				BaseID:      baseID,
			},
			Gemini: config.GeminiConfig{
				APIKey: geminiKey,
				Model:  geminiModel,
			},
		}

		cfgPath := config.ExpandHome(config.DefaultPath)
		if cfgFile != "" {
			cfgPath = cfgFile
		}

		if err := cfg.Save(cfgPath); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}

		fmt.Printf("Config written to %s\n", cfgPath)
		fmt.Println()
		fmt.Println("Next steps:")
		fmt.Println("  baseguide fetch      — Retrieve and store the base schema")
		fmt.Println("  baseguide analyze    — Run the full analysis and write a report")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func prompt(reader *bufio.Reader, label, defaultVal string) string {
	if defaultVal != "" {
		fmt.Printf("  %s [%s]: ", label, defaultVal)
	} else {
		fmt.Printf("  %s: ", label)
	}
	input, _ := reader.ReadString('\n')
	input = strings.TrimSpace(input)
	if input == "" {
		return defaultVal
	}
	return input
}
