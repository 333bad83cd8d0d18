package cli

import (
	"os"
	"strings"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/pr-poehali-dev/cad-engineer-website/pkg/config"
)

// Environment fallbacks for the command line flags.
const (
	EnvConfigPath    = "CONTACTFORM_CONFIG_PATH"
	EnvEnvFile       = "CONTACTFORM_ENV_FILE"
	EnvDebug         = "CONTACTFORM_DEBUG"
	EnvListenAddress = "LISTEN_ADDRESS"
	EnvContactPath   = "CONTACT_PATH"
	EnvStaticDir     = "STATIC_DIR"
	EnvTLSCertFile   = "TLS_CERT_FILE"
	EnvTLSKeyFile    = "TLS_KEY_FILE"
)

// GlobalFlags are shared by every command.
type GlobalFlags struct {
	ConfigPath string
	EnvFile    string
	Debug      bool
}

// Bind registers the flags on fs. Defaults come from the environment.
func (g *GlobalFlags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&g.ConfigPath, "config", getEnvString(EnvConfigPath, ""),
		"Path to the YAML configuration file (default "+config.DefaultConfigPath+" when present)")
	fs.StringVar(&g.EnvFile, "env-file", getEnvString(EnvEnvFile, ""),
		"Load environment variables from this .env file before reading the configuration")
	fs.BoolVar(&g.Debug, "debug", getEnvBool(EnvDebug, false), "Enable debug level logging")
}

// ServeFlags override the server section of the configuration file.
// Empty values leave the file (or built-in default) in place.
type ServeFlags struct {
	ListenAddress string
	ContactPath   string
	StaticDir     string
	TLSCertFile   string
	TLSKeyFile    string
}

func (s *ServeFlags) Bind(fs *pflag.FlagSet) {
	fs.StringVar(&s.ListenAddress, "listen-address", getEnvString(EnvListenAddress, ""),
		"The address the HTTP server binds to (default :8080)")
	fs.StringVar(&s.ContactPath, "contact-path", getEnvString(EnvContactPath, ""),
		"URL path of the contact endpoint (default /api/contact)")
	fs.StringVar(&s.StaticDir, "static-dir", getEnvString(EnvStaticDir, ""),
		"Directory with the built website to serve next to the API")
	fs.StringVar(&s.TLSCertFile, "tls-cert-file", getEnvString(EnvTLSCertFile, ""),
		"TLS certificate file; HTTPS is enabled when both certificate and key are set")
	fs.StringVar(&s.TLSKeyFile, "tls-key-file", getEnvString(EnvTLSKeyFile, ""),
		"TLS private key file")
}

// Apply copies the non-empty flag values onto cfg.
func (s ServeFlags) Apply(cfg *config.Server) {
	if s.ListenAddress != "" {
		cfg.ListenAddress = s.ListenAddress
	}
	if s.ContactPath != "" {
		cfg.ContactPath = s.ContactPath
	}
	if s.StaticDir != "" {
		cfg.StaticDir = s.StaticDir
	}
	if s.TLSCertFile != "" {
		cfg.TLSCertFile = s.TLSCertFile
	}
	if s.TLSKeyFile != "" {
		cfg.TLSKeyFile = s.TLSKeyFile
	}
}

// Print logs the effective configuration. The SMTP password is redacted.
func Print(log *zap.SugaredLogger, cfg config.Config) {
	d := cfg.Delivery.Redacted()
	log.Infow("Configuration",
		// HTTP server
		"listen_address", cfg.Server.ListenAddress,
		"contact_path", cfg.Server.ContactPath,
		"static_dir", cfg.Server.StaticDir,
		"tls", cfg.Server.TLSCertFile != "" && cfg.Server.TLSKeyFile != "",
		// SMTP delivery
		"smtp_host", d.Host,
		"smtp_port", d.Port,
		"smtp_user", d.User,
		"smtp_password", d.Password,
		"smtp_timeout", d.Timeout.String(),
		"smtp_insecure_skip_verify", d.InsecureSkipVerify,
		"email_to", d.Recipient,
		"site_name", d.SiteName,
		"missing", cfg.Delivery.Missing(),
	)
}

// getEnvString returns the value of an environment variable, or the provided default if not set.
func getEnvString(key, defaultVal string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return defaultVal
}

// getEnvBool returns the value of an environment variable as a bool, or the provided default if not set.
// Valid true values are "true", "1", "yes" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}
