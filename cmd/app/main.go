// File: cmd/app/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"portfolio-ai-chat/internal/config"
	"portfolio-ai-chat/internal/domain/model"
	"portfolio-ai-chat/internal/domain/ports/adapter"
	backendAdapters "portfolio-ai-chat/internal/infra/adapters/backend"
	"portfolio-ai-chat/internal/infra/api"
	"portfolio-ai-chat/internal/infra/logging"
	"portfolio-ai-chat/internal/infra/metrics"
	"portfolio-ai-chat/internal/infra/tui"
	"portfolio-ai-chat/internal/usecase"
)

var (
	cfgPath string
	devMode bool

	cfg *config.Config
	log *zerolog.Logger
)

func main() {
	root := &cobra.Command{
		Use:   "portfolio-ai-chat",
		Short: "Terminal client for the portfolio AI chat backend",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = config.LoadConfig(cfgPath, devMode)
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			log = logging.New(cfg.Log, cfg.Runtime.Dev)
			metrics.MustRegister()
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config file")
	root.PersistentFlags().BoolVar(&devMode, "dev", false, "developer mode (scripted backend, no network)")

	root.AddCommand(chatCmd(), docCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newBackend picks the real HTTP adapter or the scripted one in dev mode.
func newBackend() (adapter.BackendAdapter, error) {
	if cfg.Runtime.Dev {
		log.Info().Msg("[DEV MODE] using scripted backend")
		return backendAdapters.NewScriptedBackend(log), nil
	}
	return backendAdapters.NewHTTPAdapter(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
}

// startDebugServer serves /metrics and /health when configured.
func startDebugServer(ctx context.Context) func() {
	if cfg.Metrics.Port <= 0 {
		return func() {}
	}
	srv := api.NewServer(cfg.Metrics.Port, log)
	srv.Start()
	return func() { _ = srv.Shutdown(ctx) }
}

func chatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Open the plain chat view",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			stopDebug := startDebugServer(ctx)
			defer stopDebug()

			be, err := newBackend()
			if err != nil {
				return err
			}

			var seed []model.Message
			if cfg.UI.Greeting != "" {
				seed = append(seed, model.NewMessage(model.RoleAssistant, cfg.UI.Greeting))
			}
			engine := usecase.NewChatEngine(be.StreamChat, cfg.Backend.HistoryWindow, log, seed...)

			m := tui.NewChatModel(ctx, engine, cfg.UI.Theme, log)
			_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			engine.Cancel()
			return err
		},
	}
}

func docCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doc <file.pdf>",
		Short: "Open the document Q&A view for a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			stopDebug := startDebugServer(ctx)
			defer stopDebug()

			be, err := newBackend()
			if err != nil {
				return err
			}
			doc := usecase.NewDocChat(be, cfg.Backend.HistoryWindow, log)

			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open document: %w", err)
			}
			uploadErr := doc.Upload(ctx, args[0], f)
			_ = f.Close()
			if uploadErr != nil {
				return uploadErr
			}

			m := tui.NewChatModel(ctx, doc, cfg.UI.Theme, log)
			_, runErr := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()

			// Best-effort release of the server-side document, on its own
			// deadline since ctx may already be gone.
			cleanupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			doc.Teardown(cleanupCtx)
			return runErr
		},
	}
}
