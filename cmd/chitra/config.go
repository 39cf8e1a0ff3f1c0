package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigCmd creates the config command for inspecting and initializing
// configuration.
func ConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := yaml.Marshal(AppConfig)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(data))
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the current configuration to <data_dir>/config.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := AppConfig.Save(); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			fmt.Printf("Config written to %s/config.yaml\n", AppConfig.DataDir)
			return nil
		},
	})

	return cmd
}
