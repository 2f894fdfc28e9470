package main

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/ptit-hub/study-assistant/internal/infrastructure/external/telegram"
	telegrambot "github.com/ptit-hub/study-assistant/internal/interface/telegram"
)

func (c *cli) botCmd() *cobra.Command {
	var dropPending bool

	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Answer questions in Telegram private chats (long polling)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.runBot(cmd.Context(), dropPending)
		},
	}
	cmd.Flags().BoolVar(&dropPending, "drop-pending", false, "Discard messages that arrived while the bot was offline")
	return cmd
}

func (c *cli) runBot(ctx context.Context, dropPending bool) error {
	cfg, log := c.cfg, c.logger
	if !cfg.Telegram.Enabled() {
		return errors.New("TELEGRAM_BOT_TOKEN is not set")
	}

	comps, err := build(ctx, cfg, log, buildOptions{turnLog: true, waitForDeps: true})
	if err != nil {
		return err
	}
	defer comps.close()

	tc := telegram.DefaultClientConfig(cfg.Telegram.Token)
	tc.PollTimeout = cfg.Telegram.PollTimeout
	tc.Logger = log
	client := telegram.NewClient(tc)

	me, err := client.GetMe(ctx)
	if err != nil {
		return err
	}
	if err := client.DeleteWebhook(ctx, dropPending); err != nil {
		return err
	}

	botCfg := telegrambot.DefaultBotConfig()
	botCfg.RateLimitPerMinute = cfg.Telegram.RateLimitPerMinute
	botCfg.RateLimitBurst = cfg.Telegram.RateLimitBurst
	botCfg.MaxConcurrent = cfg.Telegram.MaxConcurrent

	bot := telegrambot.NewBot(botCfg, telegrambot.BotDependencies{
		Chat:   comps.engine,
		Sender: client,
		Logger: log,
	})

	// Polling stops on the signal; answers already in flight get
	// ShutdownTimeout to finish.
	turnCtx, cancelTurns := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelTurns()
	stop := context.AfterFunc(ctx, func() {
		time.AfterFunc(cfg.App.ShutdownTimeout, cancelTurns)
	})
	defer stop()

	log.Info("telegram bot started", "username", me.Username)
	err = client.StartPolling(ctx, func(_ context.Context, updates []telegram.Update) {
		bot.HandleBatch(turnCtx, updates)
	})

	if comps.turns != nil {
		if n := comps.turns.Dropped(); n > 0 {
			log.Warn("turn log dropped turns while running", "dropped", n)
		}
	}
	log.Info("telegram bot stopped")
	return err
}
