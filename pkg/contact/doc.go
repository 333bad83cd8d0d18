// Package contact implements the contact form endpoint: method dispatch,
// submission validation, notification composition and delivery, with every
// outcome mapped to a JSON response.
package contact
