// Package server hosts the contact endpoint on a gin engine together with the
// health probe, the metrics endpoint and, optionally, the static website.
package server
