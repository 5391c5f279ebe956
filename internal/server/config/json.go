package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/ashdiag/internal/flagx"
	"github.com/dmitrijs2005/ashdiag/internal/timex"
)

// JsonConfig is the DTO read from the JSON config file. Durations use
// timex.Duration so both "15m" and integer nanoseconds are accepted.
// Zero values leave the corresponding Config field untouched.
type JsonConfig struct {
	HTTPAddr           string         `json:"http_addr"`
	StorageDriver      string         `json:"storage_driver"`
	DataDir            string         `json:"data_dir"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	AdminPasswordHash  string         `json:"admin_password_hash"`
	AdminTokenValidity timex.Duration `json:"admin_token_validity"`
	SessionTTL         timex.Duration `json:"session_ttl"`
	KeyValidityDays    int            `json:"key_validity_days"`
	MaxFailedAttempts  int            `json:"max_failed_attempts"`
	LockoutDuration    timex.Duration `json:"lockout_duration"`
	AttemptWindow      timex.Duration `json:"attempt_window"`
	KeyAttemptCeiling  int            `json:"key_attempt_ceiling"`
	OperatorEmail      string         `json:"operator_email"`
	SMTPAddr           string         `json:"smtp_addr"`
	SMTPUser           string         `json:"smtp_user"`
	SMTPPassword       string         `json:"smtp_password"`
	SMTPFrom           string         `json:"smtp_from"`
	SMTPFromName       string         `json:"smtp_from_name"`
	S3Bucket           string         `json:"s3_bucket"`
	S3Region           string         `json:"s3_region"`
	S3BaseEndpoint     string         `json:"s3_base_endpoint"`
	S3RootUser         string         `json:"s3_root_user"`
	S3RootPassword     string         `json:"s3_root_password"`
	AllowedOrigins     []string       `json:"allowed_origins"`
	TrustedProxies     []string       `json:"trusted_proxies"`
}

// parseJson loads the file named by -c/-config into config. Without the flag
// nothing is loaded. Unreadable or invalid files panic.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.StorageDriver, c.StorageDriver)
	setString(&config.DataDir, c.DataDir)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminPasswordHash, c.AdminPasswordHash)
	setString(&config.OperatorEmail, c.OperatorEmail)
	setString(&config.SMTPAddr, c.SMTPAddr)
	setString(&config.SMTPUser, c.SMTPUser)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SMTPFrom, c.SMTPFrom)
	setString(&config.SMTPFromName, c.SMTPFromName)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)

	if c.AdminTokenValidity.Duration > 0 {
		config.AdminTokenValidity = c.AdminTokenValidity.Duration
	}
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}
	if c.LockoutDuration.Duration > 0 {
		config.LockoutDuration = c.LockoutDuration.Duration
	}
	if c.AttemptWindow.Duration > 0 {
		config.AttemptWindow = c.AttemptWindow.Duration
	}
	if c.KeyValidityDays > 0 {
		config.KeyValidityDays = c.KeyValidityDays
	}
	if c.MaxFailedAttempts > 0 {
		config.MaxFailedAttempts = c.MaxFailedAttempts
	}
	if c.KeyAttemptCeiling > 0 {
		config.KeyAttemptCeiling = c.KeyAttemptCeiling
	}
	if len(c.AllowedOrigins) > 0 {
		config.AllowedOrigins = append([]string(nil), c.AllowedOrigins...)
	}
	if len(c.TrustedProxies) > 0 {
		config.TrustedProxies = append([]string(nil), c.TrustedProxies...)
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
