package config

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/sethvargo/go-envconfig"
	log "github.com/sirupsen/logrus"
)

const envPrefix = "ADS_"

type (
	Config struct {
		TelegramAPIToken string  `env:"TOKEN,required"`
		DefaultLanguage  string  `env:"LANG,default=uk"`
		LogLevel         int     `env:"LOG_LEVEL,default=4"`
		DotPath          string  `env:"DOT_PATH,default=~/.adsbot"`
		AdminIDs         []int64 `env:"ADMIN_IDS,required"`
		ModeratorIDs     []int64 `env:"MODERATOR_IDS,required"`
		Workers          int     `env:"WORKERS,default=8"`
		HTTPAddr         string  `env:"HTTP_ADDR,default=127.0.0.1:1488"`
		Timezone         string  `env:"TIMEZONE,default=Europe/Kyiv"`
		Listing          Listing
		Blacklist        Blacklist
		LLM              LLM
	}

	// Listing holds the public-facing copy parameters of the classifieds channel.
	Listing struct {
		FormURL     string `env:"BASE_URL,required"`
		Channel     string `env:"CHANNEL,default=@slavuta_ads"`
		BotHandle   string `env:"BOT_HANDLE,default=@slavuta_ads_bot"`
		RulesLink   string `env:"RULES_LINK"`
		PaymentCard string `env:"PAYMENT_CARD"`
	}

	Blacklist struct {
		Backend string `env:"BLACKLIST_BACKEND,default=file"`
		File    string `env:"BLACKLIST_FILE,default=blacklist.json"`
	}

	LLM struct {
		APIKey  string        `env:"LLM_API_KEY"`
		Model   string        `env:"LLM_API_MODEL,default=gpt-4o-mini"`
		BaseURL string        `env:"LLM_API_URL,default=https://api.openai.com/v1"`
		Type    string        `env:"LLM_API_TYPE,default=openai"`
		Timeout time.Duration `env:"LLM_TIMEOUT,default=8s"`
	}
)

var (
	once         sync.Once
	globalConfig = &Config{}
	globalErr    error
)

func Load() (Config, error) {
	once.Do(func() {
		cfg, err := Parse(context.Background(), envconfig.OsLookuper())
		if err != nil {
			globalErr = err
			return
		}
		log.Traceln("loaded config")
		globalConfig = cfg
	})
	return *globalConfig, globalErr
}

// Parse reads the prefixed configuration from the given lookuper.
func Parse(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	cfg := &Config{}
	envcfg := envconfig.Config{
		Lookuper: envconfig.PrefixLookuper(envPrefix, lookuper),
		Target:   cfg,
	}
	if err := envconfig.ProcessWith(ctx, &envcfg); err != nil {
		return nil, fmt.Errorf("process env config: %w", err)
	}
	dotPath, err := homedir.Expand(cfg.DotPath)
	if err != nil {
		return nil, fmt.Errorf("expand dot path: %w", err)
	}
	cfg.DotPath = dotPath
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	switch cfg.Blacklist.Backend {
	case "file", "sqlite", "bolt":
	default:
		return nil, fmt.Errorf("unknown blacklist backend %q", cfg.Blacklist.Backend)
	}
	return cfg, nil
}

// Location resolves the scheduling time zone, falling back to the legacy Kyiv name.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err == nil {
		return loc, nil
	}
	if c.Timezone == "Europe/Kyiv" {
		if legacy, legacyErr := time.LoadLocation("Europe/Kiev"); legacyErr == nil {
			return legacy, nil
		}
	}
	return nil, fmt.Errorf("load location %q: %w", c.Timezone, err)
}
