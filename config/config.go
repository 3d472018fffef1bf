package config

import (
	logger "github.com/Bparsons0904/goLogger"
	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion   string `mapstructure:"GENERAL_VERSION"`
	Environment      string `mapstructure:"ENVIRONMENT"`
	ServerPort       int    `mapstructure:"SERVER_PORT"`
	DataPath         string `mapstructure:"DATA_PATH"`
	BackupPath       string `mapstructure:"BACKUP_PATH"`
	BackupRetention  int    `mapstructure:"BACKUP_RETENTION"`
	SchedulerEnabled bool   `mapstructure:"SCHEDULER_ENABLED"`
	CorsAllowOrigins string `mapstructure:"CORS_ALLOW_ORIGINS"`
	DefaultPageSize  int    `mapstructure:"DEFAULT_PAGE_SIZE"`
}

func New() (Config, error) {
	log := logger.New("config").Function("New")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DATA_PATH", "BACKUP_PATH", "BACKUP_RETENTION", "SCHEDULER_ENABLED",
		"CORS_ALLOW_ORIGINS", "DEFAULT_PAGE_SIZE",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	if viper.IsSet("SERVER_PORT") && viper.IsSet("DATA_PATH") {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	setDefaults()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info("Successfully initialized config",
		"port", config.ServerPort,
		"dataPath", config.DataPath,
		"environment", config.Environment,
	)
	return config, nil
}

func setDefaults() {
	viper.SetDefault("GENERAL_VERSION", "dev")
	viper.SetDefault("ENVIRONMENT", "development")
	viper.SetDefault("DATA_PATH", "spooltrack.db")
	viper.SetDefault("BACKUP_PATH", "backups")
	viper.SetDefault("BACKUP_RETENTION", 14)
	viper.SetDefault("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	viper.SetDefault("DEFAULT_PAGE_SIZE", 25)
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.DataPath == "" {
		return log.ErrMsg("Fatal error: DATA_PATH is required")
	}

	switch config.DefaultPageSize {
	case 10, 25, 50, 100:
	default:
		return log.Error(
			"Fatal error: DEFAULT_PAGE_SIZE must be one of 10, 25, 50, 100",
			"pageSize", config.DefaultPageSize,
		)
	}

	if config.SchedulerEnabled && config.BackupPath == "" {
		return log.ErrMsg("Fatal error: BACKUP_PATH required when scheduler is enabled")
	}

	return nil
}
