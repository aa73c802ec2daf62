// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "gohr-admin",
	Short: "GoHR-Admin is a web-based HR portal with directory integration",
	Long: `GoHR-Admin is a web-based HR portal that keeps employee records,
local identities and the corporate directory service in sync: account
provisioning, link suggestions and directory-backed authentication.`,
	Args: cobra.OnlyValidArgs,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
