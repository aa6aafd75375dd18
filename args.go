package main

import (
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"gavel/api"
	"gavel/engine"
)

func ParseArgs() Args {
	// server config
	pflag.String("server-url", "0.0.0.0:8080", "")

	// db config
	pflag.String("db-user", "", "")
	pflag.String("db-password", "", "")
	pflag.String("db-host", "", "")
	pflag.Int("db-port", 5432, "")
	pflag.String("db-database", "", "")
	pflag.String("db-schema", "public", "")

	// s3 config
	pflag.String("s3-endpoint", "", "")
	pflag.String("s3-bucket", "", "")
	pflag.String("s3-public-base-url", "", "")
	pflag.String("s3-access-key-id", "", "")
	pflag.String("s3-secret-access-key", "", "")

	// smtp config
	pflag.String("smtp-host", "", "")
	pflag.Int("smtp-port", 587, "")
	pflag.String("smtp-username", "", "")
	pflag.String("smtp-password", "", "")
	pflag.String("smtp-from", "", "")

	// settlement config
	pflag.Float64("commission-rate", engine.DefaultCommissionRate, "")
	pflag.Duration("close-sweep-period", 10*time.Second, "")
	pflag.Duration("settle-sweep-period", 10*time.Second, "")

	// bind pflag to viper
	pflag.Parse()
	viper.BindPFlags(pflag.CommandLine)
	viper.AutomaticEnv()
	viper.SetEnvPrefix("GAVEL")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))

	// initial arguments
	return Args{
		ServerURL: viper.GetString("server-url"),
		ServerConfig: api.ServerConfig{
			DB: api.DBConfig{
				User:     viper.GetString("db-user"),
				Password: viper.GetString("db-password"),
				Host:     viper.GetString("db-host"),
				Port:     viper.GetInt("db-port"),
				Database: viper.GetString("db-database"),
				Schema:   viper.GetString("db-schema"),
			},
			S3: api.S3Config{
				Endpoint:        viper.GetString("s3-endpoint"),
				Bucket:          viper.GetString("s3-bucket"),
				PublicBaseURL:   viper.GetString("s3-public-base-url"),
				AccessKeyID:     viper.GetString("s3-access-key-id"),
				SecretAccessKey: viper.GetString("s3-secret-access-key"),
			},
			SMTP: api.SMTPConfig{
				Host:     viper.GetString("smtp-host"),
				Port:     viper.GetInt("smtp-port"),
				Username: viper.GetString("smtp-username"),
				Password: viper.GetString("smtp-password"),
				From:     viper.GetString("smtp-from"),
			},
			Settlement: api.SettlementConfig{
				CommissionRate: viper.GetFloat64("commission-rate"),
				ClosePeriod:    viper.GetDuration("close-sweep-period"),
				SettlePeriod:   viper.GetDuration("settle-sweep-period"),
			},
		},
	}
}

type Args struct {
	ServerURL    string
	ServerConfig api.ServerConfig
}

func (args Args) Validate() bool {
	return args.ServerURL != "" &&
		args.ServerConfig.DB.Host != "" &&
		args.ServerConfig.DB.User != "" &&
		args.ServerConfig.DB.Database != "" &&
		args.ServerConfig.Settlement.ClosePeriod > 0 &&
		args.ServerConfig.Settlement.SettlePeriod > 0
}
