package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/naga-ia/agente/backend/internal/config"
	"github.com/naga-ia/agente/backend/internal/handler"
	"github.com/naga-ia/agente/backend/internal/model/persona"
	"github.com/naga-ia/agente/backend/internal/service/ai"
	"github.com/naga-ia/agente/backend/internal/service/chat"
	"github.com/naga-ia/agente/backend/internal/service/knowledge"
)

func main() {
	log.Logger = zerolog.New(zerolog.NewConsoleWriter()).With().Timestamp().Logger()

	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port     string
		dataDir  string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:          "naga-api",
		Short:        "Naga customer support backend",
		Long:         "Answers customer questions through a chat-completion model and maintains the question/answer knowledge base.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file
			if err := godotenv.Load(); err != nil {
				log.Warn().Err(err).Msg("failed to load .env file, continuing with system environment variables only")
			}

			cfg, err := config.Load()
			if err != nil {
				log.Error().Err(err).Msg("failed to load configuration")
				return err
			}
			if err := applyFlags(cfg, port, dataDir, logLevel); err != nil {
				log.Error().Err(err).Msg("invalid flags")
				return err
			}
			zerolog.SetGlobalLevel(cfg.Log.Level)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return run(ctx, cfg)
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port or address (overrides PORT)")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding the knowledge base and logs (overrides DATA_DIR)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "log level (overrides LOG_LEVEL)")
	return cmd
}

func applyFlags(cfg *config.Config, port, dataDir, logLevel string) error {
	if port != "" {
		addr, err := config.ParseAddr(port)
		if err != nil {
			return err
		}
		cfg.Server.Addr = addr
	}
	if dataDir != "" {
		cfg.Data.Dir = dataDir
	}
	if logLevel != "" {
		level, err := config.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		cfg.Log.Level = level
	}
	return nil
}

func run(ctx context.Context, cfg *config.Config) error {
	personaStore := persona.NewFileStore(cfg.Data.PromptPath())
	store := knowledge.NewStore(cfg.Data.KnowledgePath(), cfg.Data.AuditPath())
	unanswered := knowledge.NewUnansweredLog(cfg.Data.UnansweredPath())

	chatModel, err := cfg.AI.NewChatModel(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize chat model")
		return err
	}
	log.Info().Str("provider", cfg.AI.Provider).Str("model", cfg.AI.Model).Msg("chat model initialized")

	chatService := chat.NewService(
		ai.NewComposer(personaStore),
		ai.NewClient(chatModel, cfg.AI.Timeout),
		store,
	)

	// An unreadable knowledge base is fatal at startup.
	if err := chatService.Reload(ctx); err != nil {
		log.Error().Err(err).Str("path", cfg.Data.KnowledgePath()).Msg("failed to load knowledge base")
		return err
	}
	store.SetReloadFunc(func() {
		if err := chatService.Reload(context.Background()); err != nil {
			log.Error().Err(err).Msg("knowledge reload after edit failed")
		}
	})

	router := handler.NewRouter(personaStore, store, unanswered, chatService)

	return startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) error {
	addr := serverCfg.Addr
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info().Str("addr", addr).Msg("Naga backend listening")
	if err := runServer(ctx, srv); err != nil {
		log.Error().Err(err).Msg("server error")
		return err
	}
	return nil
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
