package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port string `mapstructure:"port"`
		// URL is the public base URL used in verification and reset links.
		URL string `mapstructure:"url"`
	} `mapstructure:"server"`
	Database struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
	} `mapstructure:"database"`
	Redis struct {
		Host     string `mapstructure:"host"`
		Port     string `mapstructure:"port"`
		Password string `mapstructure:"password"`
	} `mapstructure:"redis"`
	JWT struct {
		Access struct {
			SecretKey     string `mapstructure:"secret_key"`
			ExpireMinutes int    `mapstructure:"expire_minutes"`
		} `mapstructure:"access"`
		Refresh struct {
			SecretKey  string `mapstructure:"secret_key"`
			ExpireDays int    `mapstructure:"expire_days"`
			CookieName string `mapstructure:"cookie_name"`
		} `mapstructure:"refresh"`
	} `mapstructure:"jwt"`
	OneTimeToken struct {
		ExpireMinutes int `mapstructure:"expire_minutes"`
	} `mapstructure:"one_time_token"`
	Email struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		From     string `mapstructure:"from"`
	} `mapstructure:"email"`
}

var AppConfig Config

func LoadConfig(path string) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yml")

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Fatalf("Error reading config file, %s", err)
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Unable to decode into struct, %v", err)
	}
}
