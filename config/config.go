package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Mail     Mail
	App      App
}

type Server struct {
	Port string
}
type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}
type Mail struct {
	From string
}

// App carries the marking-workflow settings: the institution line printed on
// reports, the public base URL embedded in emails, and the signing secret
// plus lifetime for marker magic links.
type App struct {
	Institution  string
	BaseURL      string
	TokenSecret  string
	MagicLinkTTL time.Duration
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("MAIL_FROM", "marking@example.edu")
	viper.SetDefault("APP_BASE_URL", "http://localhost:8080")
	viper.SetDefault("MAGIC_LINK_TTL_HOURS", 336)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Mail.From = viper.GetString("MAIL_FROM")

	config.App.Institution = viper.GetString("APP_INSTITUTION")
	config.App.BaseURL = viper.GetString("APP_BASE_URL")
	config.App.TokenSecret = viper.GetString("APP_TOKEN_SECRET")
	config.App.MagicLinkTTL = time.Duration(viper.GetInt("MAGIC_LINK_TTL_HOURS")) * time.Hour

	log.Info().Str("port", config.Server.Port).Str("base_url", config.App.BaseURL).Msg("Config loaded")
	return &config, nil
}
