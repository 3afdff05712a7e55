package main

import (
	"context"
	"errors"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"
	_ "time/tzdata"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/slavuta-ads/adsbot/internal/access"
	"github.com/slavuta-ads/adsbot/internal/adapters"
	"github.com/slavuta-ads/adsbot/internal/adapters/llm/gemini"
	"github.com/slavuta-ads/adsbot/internal/adapters/llm/openai"
	"github.com/slavuta-ads/adsbot/internal/bot"
	"github.com/slavuta-ads/adsbot/internal/config"
	"github.com/slavuta-ads/adsbot/internal/db"
	"github.com/slavuta-ads/adsbot/internal/db/sqlite"
	"github.com/slavuta-ads/adsbot/internal/event"
	"github.com/slavuta-ads/adsbot/internal/infra"
	"github.com/slavuta-ads/adsbot/internal/infrastructure/telegram"
	"github.com/slavuta-ads/adsbot/internal/lifecycle"
	"github.com/slavuta-ads/adsbot/internal/listing"
	"github.com/slavuta-ads/adsbot/internal/observability"
	"github.com/slavuta-ads/adsbot/internal/policy/permissions"
	"github.com/slavuta-ads/adsbot/internal/scheduler"
	"github.com/slavuta-ads/adsbot/internal/screening"
	"github.com/slavuta-ads/adsbot/internal/session"
	"github.com/slavuta-ads/adsbot/internal/stats"
)

const stopTimeout = 15 * time.Second

func main() {
	log.SetFormatter(&config.NbFormatter{})
	log.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err.Error()).Fatal("cant load config")
	}
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	go func() {
		select {
		case <-ctx.Done():
		case _, ok := <-infra.MonitorExecutable(ctx, infra.DefaultExecCheckInterval):
			if ok {
				log.Warn("executable file was modified, shutting down")
				cancel()
			}
		}
	}()

	if err := run(ctx, cfg); err != nil {
		log.WithField("error", err.Error()).Fatal("bot stopped with error")
	}
	log.Info("bot stopped")
}

func run(ctx context.Context, cfg config.Config) error {
	entry := log.WithField("object", "main")

	workDir, err := infra.GetWorkDir(cfg.DotPath)
	if err != nil {
		return err
	}
	location, err := cfg.Location()
	if err != nil {
		return err
	}

	shutdownTracing := observability.Init()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		_ = shutdownTracing(shutdownCtx)
	}()

	dbClient, err := sqlite.NewSQLiteClient(ctx, workDir, "bot.db")
	if err != nil {
		return err
	}
	store, closeStore, err := openBlacklistStore(cfg, workDir, dbClient)
	if err != nil {
		_ = dbClient.Close()
		return err
	}
	closeStorage := sync.OnceValue(func() error {
		return errors.Join(closeStore.Close(), dbClient.Close())
	})
	defer func() { _ = closeStorage() }()

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	entry.WithField("username", botAPI.Self.UserName).Info("authorized")

	sender := telegram.NewOperations(botAPI, telegram.Keyboards{
		FormURL:  cfg.Listing.FormURL,
		Language: cfg.DefaultLanguage,
	})

	gate := access.NewGate(store, sender, access.Options{
		Language:  cfg.DefaultLanguage,
		RulesLink: cfg.Listing.RulesLink,
	})
	advisor, closeAdvisor, err := newAdvisor(ctx, cfg)
	if err != nil {
		entry.WithField("error", err.Error()).Warn("llm screening disabled")
	}
	defer func() { _ = closeAdvisor.Close() }()

	roster := permissions.NewRoster(cfg.AdminIDs, cfg.ModeratorIDs)
	daily := stats.NewDaily()
	machine := session.NewMachine(gate, sender, daily, advisor, session.Config{
		Language:   cfg.DefaultLanguage,
		Admins:     roster.Admins(),
		Moderators: roster.Moderators(),
		Renderer:   listing.Renderer{BotHandle: cfg.Listing.BotHandle},
	})
	dispatcher := bot.NewDispatcher(gate, machine, sender, roster, daily, dbClient, bot.Options{
		Language:    cfg.DefaultLanguage,
		Channel:     cfg.Listing.Channel,
		PaymentCard: cfg.Listing.PaymentCard,
		Location:    location,
	})

	bus := event.NewBus(cfg.Workers, event.DefaultQueueSize, dispatcher.Handle)
	jobs := scheduler.New(gate, daily, sender, scheduler.Options{
		Location: location,
		Admins:   roster.Admins(),
		Language: cfg.DefaultLanguage,
		Status: func() log.Fields {
			return log.Fields{
				"active_sessions":   machine.Active(),
				"blacklist_size":    len(gate.ViewBlacklist(time.Now())),
				"submissions_today": daily.Snapshot().Total(),
			}
		},
	})

	runtime := lifecycle.NewRuntime(
		lifecycle.Hooks{Name: "storage", OnStop: func(context.Context) error { return closeStorage() }},
		lifecycle.Hooks{Name: "blacklist", OnStart: gate.Load},
		observability.NewServer(cfg.HTTPAddr),
		bus,
		jobs,
		telegram.NewPoller(botAPI, bus),
	)
	entry.Info("bot started")
	return runtime.Run(ctx, stopTimeout)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openBlacklistStore(cfg config.Config, workDir string, kv db.Client) (access.Store, io.Closer, error) {
	switch cfg.Blacklist.Backend {
	case "sqlite":
		return access.NewKVStore(kv), nopCloser{}, nil
	case "bolt":
		store, err := access.OpenBoltStore(filepath.Join(workDir, "blacklist.bolt"))
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		path := cfg.Blacklist.File
		if !filepath.IsAbs(path) {
			path = filepath.Join(workDir, path)
		}
		return access.NewFileStore(path), nopCloser{}, nil
	}
}

func newAdvisor(ctx context.Context, cfg config.Config) (session.Advisor, io.Closer, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nopCloser{}, nil
	}
	logger := log.WithField("object", "LLM")

	var (
		model  adapters.LLM
		closer io.Closer = nopCloser{}
	)
	switch cfg.LLM.Type {
	case "gemini":
		client, err := gemini.NewGemini(ctx, cfg.LLM.APIKey, cfg.LLM.Model, logger)
		if err != nil {
			return nil, closer, err
		}
		model, closer = client, client
	default:
		model = openai.NewOpenAI(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL, logger)
	}
	return screening.New(model, cfg.LLM.Timeout, cfg.DefaultLanguage), closer, nil
}
