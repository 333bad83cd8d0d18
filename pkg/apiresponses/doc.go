// Package apiresponses builds the JSON responses of the contact endpoint
// (preflight, validation, configuration and delivery errors, success) in a
// platform-neutral form and writes them through gin.
package apiresponses
