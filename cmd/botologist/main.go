package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"time"

	"github.com/andrewdodd13/botologist/internal/bot"
	"github.com/andrewdodd13/botologist/internal/config"
	"github.com/andrewdodd13/botologist/internal/httpd"
	"github.com/andrewdodd13/botologist/internal/output"
	"github.com/andrewdodd13/botologist/internal/plugins"
	"github.com/andrewdodd13/botologist/internal/shutdown"
	"github.com/andrewdodd13/botologist/internal/storage"
)

// version is overridden at build time via -ldflags
var version = "dev"

const farewell = "Terminating, probably back soon!"

func main() {
	configPath := flag.String("config", "config/botologist.toml", "path to the configuration file")
	flag.Parse()

	logger := output.NewColorLogger(false)
	logger.Info("botologist %s starting", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Success("Configuration loaded from %s", *configPath)

	out, err := output.NewOutput(filepath.Join(cfg.Bot.StorageDir, "error.log"), cfg.Bot.Verbose)
	if err != nil {
		logger.Error("Failed to initialize error logging: %v", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.Bot.StorageDir)
	if err != nil {
		logger.Error("Failed to open storage: %v", err)
		os.Exit(1)
	}
	logger.Success("Storage opened in %s", cfg.Bot.StorageDir)

	b, err := bot.New(cfg, out, store, plugins.All(), version)
	if err != nil {
		logger.Error("Failed to build bot: %v", err)
		_ = store.Close()
		os.Exit(1)
	}

	var statusServer *httpd.Server
	if cfg.HTTP.Port > 0 {
		statusServer = httpd.New(cfg.HTTP.Host, cfg.HTTP.Port, out.Logger, func() httpd.Status {
			return currentStatus(b)
		})
		statusServer.Start()
	}

	shutdownHandler := shutdown.NewHandler(out.Logger, 5*time.Second)
	shutdownHandler.Register("quit irc", func() error {
		b.Stop(farewell)
		// give the QUIT a moment to reach the server
		time.Sleep(500 * time.Millisecond)
		return nil
	})
	if statusServer != nil {
		shutdownHandler.Register("stop status server", func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			return statusServer.Stop(ctx)
		})
	}
	shutdownHandler.Register("close storage", store.Close)

	b.Run()
	logger.Success("Bot running as %s, connecting to %s", cfg.Server.Nick, cfg.Server.Address)

	shutdownHandler.Wait()
	<-shutdownHandler.Done()
}

// currentStatus snapshots the bot state for the status endpoint
func currentStatus(b *bot.Bot) httpd.Status {
	overviews := b.ChannelOverviews()
	channels := make([]httpd.ChannelStatus, len(overviews))
	for i, o := range overviews {
		channels[i] = httpd.ChannelStatus{
			Name:  o.Name,
			Users: o.UserCount,
			Nicks: o.Nicks,
		}
	}
	return httpd.Status{
		Nick:          b.Nick(),
		Version:       b.Version(),
		UptimeSeconds: int64(b.Uptime().Seconds()),
		Channels:      channels,
	}
}
