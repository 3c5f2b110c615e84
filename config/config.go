// Copyright (c) Graphwise. All rights reserved.

// Package config loads and validates the TTYG client configuration.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables prefixed TTYG_ (e.g. TTYG_GRAPHDB_PASSWORD)
//  2. The YAML config file (client.yaml by default)
//  3. Built-in defaults
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

var (
	// ErrMissingOpenAIKey indicates no OpenAI API key is configured and no
	// Azure AD fallback applies.
	ErrMissingOpenAIKey = errors.New("missing OpenAI API key")

	// ErrMissingGraphDBURL indicates the GraphDB endpoint is not configured.
	ErrMissingGraphDBURL = errors.New("missing GraphDB URL")

	// ErrMissingGraphDBUsername indicates the GraphDB username is not configured.
	ErrMissingGraphDBUsername = errors.New("missing GraphDB username")

	// ErrMissingInstallationID indicates the TTYG installation ID is not configured.
	ErrMissingInstallationID = errors.New("missing TTYG installation ID")

	// ErrInvalidToolRounds indicates the tool round cap is out of range.
	ErrInvalidToolRounds = errors.New("invalid max tool rounds")
)

// OpenAI configures the assistant service connection.
type OpenAI struct {
	APIKey          string `mapstructure:"api_key"`
	APIURL          string `mapstructure:"api_url"`
	AzureAPIVersion string `mapstructure:"azure_api_version"`
}

// Azure reports whether the endpoint is an Azure OpenAI deployment.
func (o OpenAI) Azure() bool {
	return strings.Contains(o.APIURL, "azure.com")
}

// GraphDB configures the graph-query service connection.
type GraphDB struct {
	URL            string `mapstructure:"url"`
	Username       string `mapstructure:"username"`
	Password       string `mapstructure:"password"`
	AuthHeader     string `mapstructure:"auth_header"`
	InstallationID string `mapstructure:"installation_id"`
}

// Chat configures the conversation loop.
type Chat struct {
	MaxToolRounds  int           `mapstructure:"max_tool_rounds"`
	PollInterval   time.Duration `mapstructure:"poll_interval"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
	ThreadsFile    string        `mapstructure:"threads_file"`
}

// Config is the validated client configuration.
type Config struct {
	OpenAI  OpenAI  `mapstructure:"openai"`
	GraphDB GraphDB `mapstructure:"graphdb"`
	Chat    Chat    `mapstructure:"chat"`
}

// Load reads the config file at path, applies TTYG_* environment overrides
// and defaults, and validates the result.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	v.SetDefault("chat.max_tool_rounds", 10)
	v.SetDefault("chat.poll_interval", time.Second)
	v.SetDefault("chat.request_timeout", 60*time.Second)
	v.SetDefault("chat.threads_file", "threads.yaml")

	v.SetEnvPrefix("TTYG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys to Unmarshal: a key
	// absent from both the file and the defaults would be dropped. Bind every
	// known key so e.g. TTYG_GRAPHDB_PASSWORD works without a password entry
	// in the file.
	for _, key := range []string{
		"openai.api_key",
		"openai.api_url",
		"openai.azure_api_version",
		"graphdb.url",
		"graphdb.username",
		"graphdb.password",
		"graphdb.auth_header",
		"graphdb.installation_id",
	} {
		v.MustBindEnv(key)
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for completeness.
func (c *Config) Validate() error {
	if c.OpenAI.APIKey == "" && !c.OpenAI.Azure() {
		return ErrMissingOpenAIKey
	}
	if c.GraphDB.URL == "" {
		return ErrMissingGraphDBURL
	}
	if c.GraphDB.Username == "" {
		return ErrMissingGraphDBUsername
	}
	if c.GraphDB.InstallationID == "" {
		return ErrMissingInstallationID
	}
	if c.Chat.MaxToolRounds < 1 || c.Chat.MaxToolRounds > 100 {
		return fmt.Errorf("%w: %d (want 1-100)", ErrInvalidToolRounds, c.Chat.MaxToolRounds)
	}
	return nil
}
