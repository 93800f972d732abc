package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/lakelandsports/cms/internal/flagx"
	"github.com/lakelandsports/cms/internal/timex"
)

// JsonConfig mirrors Config for JSON unmarshalling. It uses timex.Duration
// for interval fields, which parses both string values such as "168h" and
// integer nanoseconds. After unmarshalling, its fields are copied into the
// runtime Config.
type JsonConfig struct {
	EndpointAddrHTTP string         `json:"endpoint_addr_http"`
	DatabaseDSN      string         `json:"database_dsn"`
	SessionSecret    string         `json:"session_secret"`
	SessionValidity  timex.Duration `json:"session_validity"`
	SettingsKey      string         `json:"settings_key"`
	Environment      string         `json:"environment"`
	BaseURL          string         `json:"base_url"`
	CaptchaEndpoint  string         `json:"captcha_endpoint"`
	CaptchaFailOpen  *bool          `json:"captcha_fail_open"`
	S3RootUser       string         `json:"s3_root_user"`
	S3RootPassword   string         `json:"s3_root_password"`
	S3Bucket         string         `json:"s3_bucket"`
	S3Region         string         `json:"s3_region"`
	S3BaseEndpoint   string         `json:"s3_base_endpoint"`
}

// parseJson loads configuration values from the JSON file named by the
// -c/-config flags, if any. A missing flag means no JSON overlay; an
// unreadable or invalid file panics, matching the fail-fast startup policy.
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

	if c.EndpointAddrHTTP != "" {
		config.EndpointAddrHTTP = c.EndpointAddrHTTP
	}
	if c.DatabaseDSN != "" {
		config.DatabaseDSN = c.DatabaseDSN
	}
	if c.SessionSecret != "" {
		config.SessionSecret = c.SessionSecret
	}
	if c.SessionValidity.Duration != 0 {
		config.SessionValidity = time.Duration(c.SessionValidity.Duration)
	}
	if c.SettingsKey != "" {
		config.SettingsKey = c.SettingsKey
	}
	if c.Environment != "" {
		config.Environment = c.Environment
	}
	if c.BaseURL != "" {
		config.BaseURL = c.BaseURL
	}
	if c.CaptchaEndpoint != "" {
		config.CaptchaEndpoint = c.CaptchaEndpoint
	}
	if c.CaptchaFailOpen != nil {
		config.CaptchaFailOpen = *c.CaptchaFailOpen
	}
	if c.S3RootUser != "" {
		config.S3RootUser = c.S3RootUser
	}
	if c.S3RootPassword != "" {
		config.S3RootPassword = c.S3RootPassword
	}
	if c.S3Bucket != "" {
		config.S3Bucket = c.S3Bucket
	}
	if c.S3Region != "" {
		config.S3Region = c.S3Region
	}
	if c.S3BaseEndpoint != "" {
		config.S3BaseEndpoint = c.S3BaseEndpoint
	}
}
