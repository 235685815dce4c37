package cliflag

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// AddPersistentStringFlag adds a string flag to the command and its subcommands
func AddPersistentStringFlag(c *cobra.Command, flag string, value string, description string, isRequired bool) {
	c.PersistentFlags().String(flag, value, formatDescription(description, isRequired))
	if isRequired {
		_ = c.MarkPersistentFlagRequired(flag)
	}
}

// AddStringFlag adds a string flag to the command
func AddStringFlag(c *cobra.Command, flag string, value string, description string, isRequired bool) {
	c.Flags().String(flag, value, formatDescription(description, isRequired))
	markRequired(c, flag, isRequired)
}

// AddBoolFlag adds a bool flag to the command
func AddBoolFlag(c *cobra.Command, flag string, value bool, description string) {
	c.Flags().Bool(flag, value, description)
}

// AddDurationFlag adds a duration flag to the command
func AddDurationFlag(c *cobra.Command, flag string, value time.Duration, description string) {
	c.Flags().Duration(flag, value, description)
}

// formatDescription adds required suffix to description if needed
func formatDescription(description string, isRequired bool) string {
	const requiredSuffix = " (required)"
	if isRequired {
		return fmt.Sprintf("%s%s", description, requiredSuffix)
	}
	return description
}

// markRequired marks flag as required if needed, ignoring errors
func markRequired(c *cobra.Command, flag string, isRequired bool) {
	if isRequired {
		_ = c.MarkFlagRequired(flag)
	}
}
