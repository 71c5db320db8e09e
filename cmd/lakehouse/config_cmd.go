// File: cmd/lakehouse/config_cmd.go
package main

import (
	"fmt"
	"sort"
	"strings"

	"lakehouse/internal/config"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *appContainer) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration settings",
		Long: fmt.Sprintf(`Manage the defaults lakehouse falls back to when a descriptor leaves them out,
and where state is stored. You can set, get, list, and delete configuration values.

Supported keys: %s`, strings.Join(config.SupportedKeys(), ", ")),
		Annotations: map[string]string{skipConfigCheck: "true"},
	}

	configSetCmd := &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration key-value pair",
		Long:  `Sets a configuration value. For example: 'lakehouse config set state.backend gcs'`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			value := args[1]

			if err := app.ConfigManager.SetValue(key, value); err != nil {
				return fmt.Errorf("error setting configuration: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration set: %s = %s\n", key, value)
			return nil
		},
	}

	configGetCmd := &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value by key",
		Long:  `Retrieves the effective value for a given key, including defaults and LAKEHOUSE_* environment overrides. For example: 'lakehouse config get gcp.project'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			value, exists := app.ConfigManager.GetValue(key)

			if !exists || value == "" {
				return fmt.Errorf("configuration key '%s' not found or not set", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}

	configDeleteCmd := &cobra.Command{
		Use:   "delete [key]",
		Short: "Delete a configuration value by key",
		Long:  `Deletes a configuration value for a given key. For example: 'lakehouse config delete gcp.project'`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := strings.ToLower(args[0])
			deleted, err := app.ConfigManager.DeleteValue(key)

			if err != nil {
				return fmt.Errorf("error deleting configuration: %w", err)
			}

			if !deleted {
				return fmt.Errorf("configuration key '%s' not found", key)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration key '%s' deleted\n", key)
			return nil
		},
	}

	configListCmd := &cobra.Command{
		Use:   "list",
		Short: "List all current configuration values",
		Long:  `Displays all the key-value pairs currently stored in the configuration file.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			settings := visibleSettings(flattenConfigMap(app.ConfigManager.GetAllSettings()))

			if len(settings) == 0 {
				fmt.Fprintln(out, "No configuration values set. Use 'lakehouse config set <key> <value>'.")
				return nil
			}

			keys := make([]string, 0, len(settings))
			for k := range settings {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			fmt.Fprintf(out, "Current configuration (%s):\n", app.ConfigManager.Path())
			for _, k := range keys {
				fmt.Fprintf(out, "  %s = %v\n", k, settings[k])
			}

			return nil
		},
	}

	configCmd.AddCommand(configSetCmd, configGetCmd, configDeleteCmd, configListCmd)
	return configCmd
}

// Drops unset values so only meaningful settings are listed
func visibleSettings(flat map[string]interface{}) map[string]interface{} {
	visible := make(map[string]interface{})
	for k, v := range flat {
		if s, ok := v.(string); ok {
			if s != "" {
				visible[k] = v
			}
		} else if v != nil {
			visible[k] = v
		}
	}
	return visible
}

// Recursively flattens a nested map (like Viper's config) into a flat map with dot notation keys
func flattenConfigMap(nestedMap map[string]interface{}) map[string]interface{} {
	flattenedMap := make(map[string]interface{})

	var flatten func(string, interface{})
	flatten = func(prefix string, value interface{}) {
		switch v := value.(type) {
		case map[string]interface{}:
			for k, val := range v {
				newPrefix := k
				if prefix != "" {
					newPrefix = prefix + "." + k
				}
				flatten(newPrefix, val)
			}
		default:
			if prefix != "" {
				flattenedMap[prefix] = value
			}
		}
	}

	flatten("", nestedMap)
	return flattenedMap
}
