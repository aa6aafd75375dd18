package api

import "time"

type ServerConfig struct {
	DB         DBConfig
	S3         S3Config
	SMTP       SMTPConfig
	Settlement SettlementConfig
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     int
	Database string
	Schema   string
}

type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string
	Bucket          string
	PublicBaseURL   string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type SettlementConfig struct {
	// CommissionRate is the fraction of a winning bid owed as commission.
	CommissionRate float64
	// ClosePeriod triggers the auction close sweep.
	ClosePeriod time.Duration
	// SettlePeriod triggers the payment-proof settlement sweep.
	SettlePeriod time.Duration
}
