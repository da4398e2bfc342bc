package main

import (
	"fmt"
	"net/url"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/janhq/sessions-api/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration commands",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the environment configuration and print the effective values",
	RunE:  runConfigValidate,
}

func init() {
	configCmd.AddCommand(configValidateCmd)
}

type effectiveConfig struct {
	Backend      string   `yaml:"backend"`
	HTTPPort     int      `yaml:"http_port"`
	Mongo        string   `yaml:"mongo,omitempty"`
	Postgres     string   `yaml:"postgres,omitempty"`
	Redis        string   `yaml:"redis,omitempty"`
	CacheTTL     string   `yaml:"cache_ttl,omitempty"`
	CORSOrigins  []string `yaml:"cors_origins"`
	StaticDir    string   `yaml:"static_dir,omitempty"`
	Metrics      bool     `yaml:"metrics"`
	Tracing      bool     `yaml:"tracing"`
	AuthOnWrites bool     `yaml:"auth_on_writes"`
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	loadEnvFiles()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(summarize(cfg))
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), string(out))
	return nil
}

func summarize(cfg *config.Config) effectiveConfig {
	eff := effectiveConfig{
		Backend:      cfg.StoreBackend,
		HTTPPort:     cfg.HTTPPort,
		CORSOrigins:  cfg.CORSAllowedOrigins,
		StaticDir:    cfg.StaticDir,
		Metrics:      cfg.MetricsEnabled,
		Tracing:      cfg.EnableTracing,
		AuthOnWrites: cfg.AuthEnabled,
	}
	switch cfg.StoreBackend {
	case config.BackendMongo:
		eff.Mongo = redact(cfg.MongoURI) + " " + cfg.MongoDatabase + "." + cfg.MongoCollection
	case config.BackendPostgres:
		eff.Postgres = redact(cfg.PostgresDSN())
	}
	if cfg.RedisURL != "" {
		eff.Redis = redact(cfg.RedisURL)
		eff.CacheTTL = cfg.CacheTTL.String()
	}
	return eff
}

// redact hides the password of URL-shaped connection strings.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return "<redacted>"
	}
	return u.Redacted()
}
