// Package config loads the contact form service configuration: SMTP delivery
// settings from the environment (optionally seeded from a .env file) and server
// settings from an optional YAML file.
package config
