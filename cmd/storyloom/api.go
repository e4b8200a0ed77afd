package main

import (
	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Storyloom server via HTTP.

These commands require a running server (storyloom serve).
Use --server to specify a custom server URL.

Examples:
  storyloom api health                   # Check server health
  storyloom api works submit "a topic"   # Start generating a story
  storyloom api works get <id>           # Poll generation progress`,
}

var worksCmd = &cobra.Command{
	Use:   "works",
	Short: "Work management commands",
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:8080", "Server URL",
	)

	// Health endpoints at top level of api
	apiCmd.AddCommand((&endpoints.HealthEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ReadyEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.StatusEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.SwaggerEndpoint{}).Command(getServerURL))
	apiCmd.AddCommand((&endpoints.ImageEndpoint{}).Command(getServerURL))

	// Works as subcommand group
	for _, ep := range endpoints.WorkCommands() {
		worksCmd.AddCommand(ep.Command(getServerURL))
	}

	apiCmd.AddCommand(worksCmd)
	rootCmd.AddCommand(apiCmd)
}
