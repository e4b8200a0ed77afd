package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/storyloom/storyloom/internal/config"
	"github.com/storyloom/storyloom/internal/genai"
	"github.com/storyloom/storyloom/internal/home"
	"github.com/storyloom/storyloom/internal/pipeline"
	"github.com/storyloom/storyloom/internal/server"
	"github.com/storyloom/storyloom/internal/store"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Storyloom server",
	Long: `Start the Storyloom HTTP server.

Generation requests run in the background; submitted works are persisted
after every pipeline stage so clients can poll partial progress.

The server provides:
  - /health       - Basic server health check
  - /ready        - Readiness check (includes store status)
  - /api/works    - Submit, list, poll, delete, and export works

Examples:
  storyloom serve                    # Start on default port 8080
  storyloom serve --port 3000        # Start on custom port
  storyloom serve --host 0.0.0.0     # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config with hot reload
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()
		cfg := cm.Get()

		// Open the content store
		st, err := store.Open(h.DatabasePath())
		if err != nil {
			return err
		}
		defer st.Close()

		// Construct the generative backend
		gen := genai.NewOpenAIGenerator(genai.OpenAIConfig{
			APIKey:     cfg.ResolvedAPIKey(),
			TextModel:  cfg.OpenAI.TextModel,
			ImageModel: cfg.OpenAI.ImageModel,
			ImageSize:  cfg.OpenAI.ImageSize,
			RateLimit:  cfg.OpenAI.RateLimit,
			MaxRetries: cfg.OpenAI.MaxRetries,
			Timeout:    cfg.OpenAI.CallTimeout(),
			Logger:     logger,
		}, h)

		runner := pipeline.NewRunner(st, gen, pipeline.Config{
			RunTimeout:        cfg.Pipeline.RunTimeout(),
			CallTimeout:       cfg.OpenAI.CallTimeout(),
			ScriptPrefixLimit: cfg.Pipeline.ScriptPrefixLimit,
		}, logger)

		host := serveHost
		if host == "" {
			host = cfg.Server.Host
		}
		port := servePort
		if port == "" {
			port = cfg.Server.Port
		}

		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Store:         st,
			Runner:        runner,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config)")
	serveCmd.Flags().StringVar(&servePort, "port", "", "Port to listen on (default from config)")

	rootCmd.AddCommand(serveCmd)
}
