package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	HTTPPort        int      `mapstructure:"http_port"`
	LogLevel        string   `mapstructure:"log_level"`
	DatabaseDriver  string   `mapstructure:"database_driver"` // "sqlite" or "mysql"
	DatabaseURL     string   `mapstructure:"database_url"`
	SessionSecret   string   `mapstructure:"session_secret"`
	SessionTTLHours int      `mapstructure:"session_ttl_hours"`
	UploadDir       string   `mapstructure:"upload_dir"`
	AllowedExts     []string `mapstructure:"allowed_extensions"`
}

var AppConfig Config

const defaultSessionSecret = "default-very-insecure-secret-key"

func InitConfig() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Environment variable overrides
	viper.SetEnvPrefix("ANIMELOG")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Set default values
	viper.SetDefault("http_port", 8080)
	viper.SetDefault("log_level", "info")
	viper.SetDefault("database_driver", "sqlite")
	viper.SetDefault("database_url", "animelog.db")
	viper.SetDefault("session_secret", defaultSessionSecret)
	viper.SetDefault("session_ttl_hours", 24)
	viper.SetDefault("upload_dir", "static/uploads")
	viper.SetDefault("allowed_extensions", []string{"png", "jpg", "jpeg", "gif"})

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			fmt.Println("Config file not found, using defaults and environment variables.")
		} else {
			panic(fmt.Errorf("fatal error reading config file: %w", err))
		}
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		panic(fmt.Errorf("unable to decode config into struct: %w", err))
	}

	if AppConfig.SessionSecret == defaultSessionSecret {
		fmt.Println("WARNING: Using default insecure session secret key!")
	}
}
