package config

import (
	"flag"
	"os"

	"github.com/dmitrijs2005/ashdiag/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-r string   storage driver: file or postgres
//	-f string   data directory for the file driver
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret key
//	-w string   admin password bcrypt hash
//	-t int      admin token validity, minutes
//	-l int      session TTL, minutes
//	-k int      validity of generated keys, days
//	-m int      failed attempts before lockout
//	-o int      lockout duration, minutes
//	-n int      per-key verification attempt ceiling
//	-e string   operator e-mail for notifications
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-r", "-f", "-d", "-s", "-w", "-t", "-l", "-k", "-m", "-o", "-n", "-e",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.StorageDriver, "r", config.StorageDriver, "storage driver (file|postgres)")
	fs.StringVar(&config.DataDir, "f", config.DataDir, "data directory for the file driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminPasswordHash, "w", config.AdminPasswordHash, "admin password bcrypt hash")

	applyTokenValidity := flagx.MinutesVar(fs, &config.AdminTokenValidity, "t", "admin token validity (in minutes)")
	applySessionTTL := flagx.MinutesVar(fs, &config.SessionTTL, "l", "session TTL (in minutes)")

	fs.IntVar(&config.KeyValidityDays, "k", config.KeyValidityDays, "validity of generated keys (in days)")
	fs.IntVar(&config.MaxFailedAttempts, "m", config.MaxFailedAttempts, "failed attempts before lockout")

	applyLockout := flagx.MinutesVar(fs, &config.LockoutDuration, "o", "lockout duration (in minutes)")

	fs.IntVar(&config.KeyAttemptCeiling, "n", config.KeyAttemptCeiling, "per-key verification attempt ceiling")
	fs.StringVar(&config.OperatorEmail, "e", config.OperatorEmail, "operator e-mail")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	applyTokenValidity()
	applySessionTTL()
	applyLockout()
}
