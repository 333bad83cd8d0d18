// Package mail composes the contact notification (HTML template with a
// plain-text alternative) and delivers it through an authenticated STARTTLS
// SMTP session.
package mail
