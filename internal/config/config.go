package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "FOUNTAIN"
	defaultHTTPAddress      = "0.0.0.0:8080"
	defaultDatabasePath     = "fountain.db"
	defaultLocalStorePath   = "fountain-local.db"
	defaultLogLevel         = "info"
	defaultSessionIssuer    = "fountain-auth"
	defaultStorageURL       = "https://api.grove.storage"
	defaultLedgerURL        = "https://rpc.lens.xyz"
	defaultCampaignURL      = "http://127.0.0.1:9000"
	defaultCampaignListSlug = "subscribers"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress      string
	DatabasePath     string
	LocalStorePath   string
	LogLevel         string
	SessionSecret    string
	SessionIssuer    string
	StorageURL       string
	LedgerURL        string
	CampaignURL      string
	CampaignAPIKey   string
	CampaignListSlug string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("local.path", defaultLocalStorePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("session.issuer", defaultSessionIssuer)
	configViper.SetDefault("storage.url", defaultStorageURL)
	configViper.SetDefault("ledger.url", defaultLedgerURL)
	configViper.SetDefault("campaign.url", defaultCampaignURL)
	configViper.SetDefault("campaign.list_slug", defaultCampaignListSlug)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		LocalStorePath:   configViper.GetString("local.path"),
		LogLevel:         configViper.GetString("log.level"),
		SessionSecret:    configViper.GetString("session.signing_secret"),
		SessionIssuer:    configViper.GetString("session.issuer"),
		StorageURL:       configViper.GetString("storage.url"),
		LedgerURL:        configViper.GetString("ledger.url"),
		CampaignURL:      configViper.GetString("campaign.url"),
		CampaignAPIKey:   configViper.GetString("campaign.api_key"),
		CampaignListSlug: configViper.GetString("campaign.list_slug"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SessionSecret) == "" {
		return fmt.Errorf("session.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.LocalStorePath) == "" {
		return fmt.Errorf("local.path is required")
	}
	if strings.TrimSpace(c.StorageURL) == "" {
		return fmt.Errorf("storage.url is required")
	}
	if strings.TrimSpace(c.LedgerURL) == "" {
		return fmt.Errorf("ledger.url is required")
	}
	return nil
}
