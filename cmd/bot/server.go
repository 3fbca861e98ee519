package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"partybot"
	"partybot/internal/config"
	"partybot/internal/discord"
	"partybot/internal/dispatch"
	"partybot/internal/game"
	"partybot/internal/handlers"
	"partybot/internal/metadata"
	"partybot/internal/store"

	"go.uber.org/zap"
)

// app is the wired bot: Discord gateway, game dispatcher and the optional
// spectator server.
type app struct {
	cfg        *config.BotConfig
	logger     *zap.Logger
	bot        *discord.Bot
	dispatcher *dispatch.Dispatcher
	handler    *handlers.Handler
	server     *http.Server
	cookies    *metadata.BrowserCookies
}

// loadQuestions reads the trivia bank from path, or the built-in bank when
// path is empty.
func loadQuestions(path string) (*game.QuestionBank, error) {
	if path != "" {
		return game.LoadQuestions(path)
	}
	bank, err := game.ParseQuestions(bytes.NewReader(partybot.QuestionsYAML))
	if err != nil {
		return nil, fmt.Errorf("embedded questions: %w", err)
	}
	return bank, nil
}

// buildApp wires every component. Nothing connects to the network until run.
func buildApp(ctx context.Context, cfg *config.BotConfig, logger *zap.Logger, opts ...discord.Option) (*app, error) {
	bank, err := loadQuestions(cfg.Games.QuestionsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}

	bot, err := discord.NewBot(cfg.Discord, logger.Named("discord"), opts...)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, bot: bot}

	dispatchOpts := []dispatch.Option{dispatch.WithVoice(bot.Voice())}
	if cfg.Spotify.Configured() {
		playlist, err := metadata.NewSpotifyPlaylist(ctx, cfg.Spotify, logger.Named("spotify"))
		if err != nil {
			return nil, err
		}
		if cfg.YouTube.UseCookies {
			a.cookies = metadata.NewBrowserCookies(cfg.YouTube, logger.Named("cookies"))
		}
		resolver := metadata.NewYTDLPResolver(cfg.YouTube, a.cookies, logger.Named("yt-dlp"))
		dispatchOpts = append(dispatchOpts, dispatch.WithPlaylist(playlist), dispatch.WithResolver(resolver))
	} else {
		logger.Info("Spotify credentials not set, guess the song is disabled")
	}

	bus := handlers.NewEventBus()
	notifier := game.Notifiers{bot.Notifier(), bus}
	a.dispatcher = dispatch.New(store.NewMemoryStore(), bank, notifier, cfg.Games, logger.Named("dispatch"), dispatchOpts...)

	a.handler = handlers.New(a.dispatcher, bus, logger.Named("http"), cfg.Server.PublicURL)
	if cfg.Server.Enabled {
		router := handlers.SetupRouter(a.handler, &cfg.Server, logger.Named("http"), nil)
		a.server = newHTTPServer(&cfg.Server, router)
	}

	logger.Info("bot configured",
		zap.Int("topics", len(bank.Topics())),
		zap.Strings("games", a.dispatcher.Games()),
		zap.Bool("spectator", a.server != nil))
	return a, nil
}

func newHTTPServer(cfg *config.ServerSettings, h http.Handler) *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout, // 0 for SSE support
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// run serves until ctx is canceled or a component fails, then shuts down.
func (a *app) run(ctx context.Context) error {
	serverErr := make(chan error, 1)
	if a.server != nil {
		go func() {
			a.logger.Info("starting spectator server", zap.String("addr", a.server.Addr))
			if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				serverErr <- err
			}
		}()
	}

	botCtx, stopBot := context.WithCancel(context.WithoutCancel(ctx))
	defer stopBot()
	botErr := make(chan error, 1)
	go func() {
		botErr <- a.bot.Run(botCtx, a.dispatcher)
	}()

	var err error
	botDone := false
	select {
	case <-ctx.Done():
		a.logger.Info("shutting down")
	case err = <-serverErr:
		err = fmt.Errorf("spectator server failed: %w", err)
	case err = <-botErr:
		botDone = true
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	// the final leaderboard goes out before the gateway closes
	a.dispatcher.Shutdown(shutdownCtx)
	stopBot()
	if !botDone {
		if runErr := <-botErr; err == nil {
			err = runErr
		}
	}

	if shutdownErr := a.shutdown(shutdownCtx); err == nil {
		err = shutdownErr
	}
	return err
}

// shutdown stops the spectator server and removes temporary files.
func (a *app) shutdown(ctx context.Context) error {
	if a.cookies != nil {
		a.cookies.Close()
	}
	if a.server == nil {
		return nil
	}
	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	a.logger.Info("server gracefully stopped")
	return nil
}
