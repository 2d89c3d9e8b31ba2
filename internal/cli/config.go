package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	// CAMPMAN_CAMPAIGN and CAMPMAN_LOG_LEVEL override the file.
	envPrefix = "CAMPMAN"

	cfgKeyCampaign = "campaign"
	cfgKeyLogLevel = "log_level"

	defaultLogLevel = "info"
)

const configHeader = "# campman configuration\n" +
	"# campaign: path of the campaign file used when --campaign is not given\n" +
	"# log_level: debug, info, warn or error\n"

// configFile is the on-disk shape of config.yaml.
type configFile struct {
	Campaign string `yaml:"campaign,omitempty"`
	LogLevel string `yaml:"log_level"`
}

// loadConfig reads config.yaml from configDir using Viper. It creates the
// directory and a default config.yaml on first run.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}

	v := viper.New()
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyCampaign, "")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// ensureDefaultConfigFile writes config.yaml with default values if it does
// not exist yet.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, configFileExt)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return writeConfigFile(path, configFile{LogLevel: defaultLogLevel})
}

// saveCampaign records campaign as the default campaign in config.yaml,
// keeping the other settings.
func saveCampaign(configDir, campaign string) error {
	path := filepath.Join(configDir, configFileExt)
	cfg := configFile{LogLevel: defaultLogLevel}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return fmt.Errorf("parse config: %w", err)
		}
	}
	cfg.Campaign = campaign
	return writeConfigFile(path, cfg)
}

func writeConfigFile(path string, cfg configFile) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, append([]byte(configHeader), data...), 0o644)
}
