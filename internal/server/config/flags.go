package config

import (
	"flag"
	"os"
	"time"

	"github.com/lakelandsports/cms/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   HTTP bind address (e.g., ":8080")
//	-d string   PostgreSQL DSN
//	-s string   session JWT HMAC secret
//	-v int      session validity, hours
//	-k string   hex-encoded settings encryption key
//	-n string   environment ("development" or "production")
//	-l string   externally reachable base URL
//	-u string   S3 root user
//	-p string   S3 root password
//	-b string   S3 bucket name
//	-g string   S3 region
//	-e string   S3 base endpoint
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with the -c/-config flags handled by
// the JSON overlay.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-d", "-s", "-v", "-k", "-n", "-l", "-u", "-p", "-b", "-g", "-e"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrHTTP, "a", config.EndpointAddrHTTP, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionSecret, "s", config.SessionSecret, "session secret")

	sessionValidity := fs.Int("v", int(config.SessionValidity.Hours()), "session validity (in hours)")

	fs.StringVar(&config.SettingsKey, "k", config.SettingsKey, "settings encryption key (hex)")
	fs.StringVar(&config.Environment, "n", config.Environment, "environment")
	fs.StringVar(&config.BaseURL, "l", config.BaseURL, "base URL")
	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionValidity = time.Duration(*sessionValidity) * time.Hour
}
