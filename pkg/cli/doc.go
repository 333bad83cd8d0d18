// Package cli builds the contactform command tree (serve, lambda, send-test,
// version) and the flag set of each command, with environment variable
// fallbacks for every flag.
package cli
