/*
Copyright 2026.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const (
	DefaultSMTPPort    = 587
	DefaultSMTPTimeout = 30 * time.Second
	DefaultSiteName    = "Городской кадастр недвижимости"
	DefaultConfigPath  = "./config.yaml"
)

// Environment variable names understood by LoadFromEnv.
const (
	EnvSMTPHost               = "SMTP_HOST"
	EnvSMTPPort               = "SMTP_PORT"
	EnvSMTPUser               = "SMTP_USER"
	EnvSMTPPassword           = "SMTP_PASSWORD"
	EnvEmailTo                = "EMAIL_TO"
	EnvSMTPTimeout            = "SMTP_TIMEOUT"
	EnvSMTPInsecureSkipVerify = "SMTP_INSECURE_SKIP_VERIFY"
	EnvSiteName               = "SITE_NAME"
	EnvPlainTextAlternative   = "SMTP_PLAIN_TEXT_ALTERNATIVE"
)

// ErrIncomplete is returned by Delivery.Validate when a required setting is absent.
var ErrIncomplete = errors.New("email delivery settings are incomplete")

// Delivery holds the SMTP relay and recipient settings used to send notifications.
type Delivery struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	// Recipient receives every submission.
	Recipient string `yaml:"recipient"`
	// Timeout bounds the whole SMTP exchange (dial, STARTTLS, auth, send).
	Timeout            time.Duration `yaml:"timeout"`
	InsecureSkipVerify bool          `yaml:"insecureSkipVerify"`
	// SiteName is printed in the footer of every notification.
	SiteName string `yaml:"siteName"`
	// PlainTextAlternative adds a text/plain part in front of the HTML body.
	PlainTextAlternative bool `yaml:"plainTextAlternative"`
}

type Server struct {
	ListenAddress  string   `yaml:"listenAddress"`
	ContactPath    string   `yaml:"contactPath"`
	StaticDir      string   `yaml:"staticDir"`
	TLSCertFile    string   `yaml:"tlsCertFile"`
	TLSKeyFile     string   `yaml:"tlsKeyFile"`
	TrustedProxies []string `yaml:"trustedProxies"`
}

type Config struct {
	Server   Server   `yaml:"server"`
	Delivery Delivery `yaml:"delivery"`
}

// Missing returns the environment names of the required settings that are empty.
func (d Delivery) Missing() []string {
	var missing []string
	if d.Host == "" {
		missing = append(missing, EnvSMTPHost)
	}
	if d.User == "" {
		missing = append(missing, EnvSMTPUser)
	}
	if d.Password == "" {
		missing = append(missing, EnvSMTPPassword)
	}
	if d.Recipient == "" {
		missing = append(missing, EnvEmailTo)
	}
	return missing
}

// Complete reports whether every required delivery setting is present.
func (d Delivery) Complete() bool {
	return len(d.Missing()) == 0
}

// Validate returns an error wrapping ErrIncomplete that names the missing settings.
func (d Delivery) Validate() error {
	if missing := d.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrIncomplete, strings.Join(missing, ", "))
	}
	return nil
}

// Addr returns the host:port of the SMTP relay.
func (d Delivery) Addr() string {
	return fmt.Sprintf("%s:%d", d.Host, d.Port)
}

// Redacted returns a copy safe for logging.
func (d Delivery) Redacted() Delivery {
	if d.Password != "" {
		d.Password = "REDACTED"
	}
	return d
}

// Defaults fills optional settings that were left unset.
func (d *Delivery) Defaults() {
	if d.Port == 0 {
		d.Port = DefaultSMTPPort
	}
	if d.Timeout <= 0 {
		d.Timeout = DefaultSMTPTimeout
	}
	if d.SiteName == "" {
		d.SiteName = DefaultSiteName
	}
}

// LoadFromEnv builds the delivery settings from the process environment only.
func LoadFromEnv() (Delivery, error) {
	var d Delivery
	if err := applyEnv(&d); err != nil {
		return d, err
	}
	d.Defaults()
	return d, nil
}

// Load reads the YAML configuration file and then applies environment overrides.
// If configPath is empty, defaults to "./config.yaml"; a missing default file is not an error.
func Load(configPath ...string) (Config, error) {
	path := DefaultConfigPath
	explicit := false
	if len(configPath) > 0 && configPath[0] != "" {
		path = configPath[0]
		explicit = true
	}

	var config Config

	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(content, &config); err != nil {
			return config, fmt.Errorf("error unmarshaling YAML %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return config, fmt.Errorf("trying to open config file %s: %w", path, err)
	}

	if err := applyEnv(&config.Delivery); err != nil {
		return config, err
	}
	config.Delivery.Defaults()
	return config, nil
}

// LoadDotEnv loads KEY=value pairs from a .env file into the process environment.
// Variables that are already set win over the file.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

func applyEnv(d *Delivery) error {
	if v, ok := lookup(EnvSMTPHost); ok {
		d.Host = v
	}
	if v, ok := lookup(EnvSMTPUser); ok {
		d.User = v
	}
	if v, ok := lookup(EnvSMTPPassword); ok {
		d.Password = v
	}
	if v, ok := lookup(EnvEmailTo); ok {
		d.Recipient = v
	}
	if v, ok := lookup(EnvSiteName); ok {
		d.SiteName = v
	}
	if v, ok := lookup(EnvSMTPPort); ok {
		port, err := strconv.Atoi(v)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid %s %q: expected a TCP port number", EnvSMTPPort, v)
		}
		d.Port = port
	}
	if v, ok := lookup(EnvSMTPTimeout); ok {
		timeout, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", EnvSMTPTimeout, v, err)
		}
		d.Timeout = timeout
	}
	if v, ok := lookup(EnvSMTPInsecureSkipVerify); ok {
		d.InsecureSkipVerify = parseBool(v, d.InsecureSkipVerify)
	}
	if v, ok := lookup(EnvPlainTextAlternative); ok {
		d.PlainTextAlternative = parseBool(v, d.PlainTextAlternative)
	}
	return nil
}

// parseBool accepts true/1/yes and false/0/no; anything else keeps def.
func parseBool(v string, def bool) bool {
	switch strings.ToLower(v) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

// lookup treats set-but-empty variables as unset.
func lookup(key string) (string, bool) {
	v, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}
