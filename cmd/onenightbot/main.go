package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"log/slog"

	"github.com/onenight/onenightbot/core/bootstrap"
	"github.com/onenight/onenightbot/core/buildinfo"
	coreconfig "github.com/onenight/onenightbot/core/config"
	"github.com/onenight/onenightbot/core/logger"
	tg "github.com/onenight/onenightbot/core/telegram"
	"github.com/onenight/onenightbot/core/telegram/router"
	tgsender "github.com/onenight/onenightbot/core/telegram/sender"

	"github.com/onenight/onenightbot/bot/form"
	"github.com/onenight/onenightbot/bot/handlers"
	"github.com/onenight/onenightbot/bot/settings"
	"github.com/onenight/onenightbot/bot/storage"

	tele "gopkg.in/telebot.v4"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("onenightbot %s (%s %s)\n", buildinfo.Version, buildinfo.Commit, buildinfo.Date)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, "onenightbot:", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := coreconfig.Load(configPath)
	if err != nil {
		return err
	}

	boot, err := bootstrap.Run(bootstrap.Options{Config: cfg})
	if err != nil {
		return err
	}
	defer boot.DB.Close()
	defer logger.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "main", "start",
		slog.String("version", buildinfo.Version),
		slog.String("commit", buildinfo.Commit),
	)

	store := storage.New(boot.DB)
	cache := settings.New(store,
		time.Duration(cfg.Settings.CacheTTLSeconds)*time.Second,
		settings.Values{
			SupportUsername: cfg.Settings.SupportFallback,
			PaymentCard:     cfg.Settings.CardFallback,
		})

	sessions := form.NewStore()
	engine := form.NewEngine(sessions)
	go sessions.Run(ctx, time.Duration(cfg.Form.SweepSeconds)*time.Second)

	h := handlers.New(cfg, store, cache, engine)
	reg := tg.NewRegistry()
	h.Register(reg)

	rejectAdmin := func(c tele.Context) error {
		return c.Send("❌ У вас нет доступа к админ панели")
	}

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		AdminIDs:      cfg.Telegram.AdminIDs,
		OnAdminReject: rejectAdmin,
	})
	routes = append(routes, router.CallbackRoute(reg))
	routes = append(routes, router.MessageRoutes(h, reg, router.MessageOptions{
		UnknownText: h.UnknownText,
	})...)

	return tg.Run(ctx, tg.RunOptions{
		Config:      cfg,
		Registry:    reg,
		Middlewares: tg.DefaultMiddlewares(cfg, nil),
		Routes:      routes,
		DispatcherOptions: tgsender.Options{
			MaxRetries:   3,
			RetryBackoff: 2 * time.Second,
		},
		OnStart: func(ctx context.Context, bot *tele.Bot) error {
			h.SetBot(bot)
			return nil
		},
	})
}
