// Package metrics defines the Prometheus metrics of the contact form service:
// submissions by outcome and SMTP delivery success, failure and latency.
package metrics
