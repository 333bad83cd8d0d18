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

package contact

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedBody indicates a non-empty body that is not a JSON object.
	ErrMalformedBody = errors.New("request body is not a JSON object")

	// ErrMissingFields indicates that a required form field is empty.
	ErrMissingFields = errors.New("required form fields are missing")
)

// Submission is one contact form entry. Name, Phone and Message are required.
type Submission struct {
	Name    string
	Phone   string
	Email   string
	Message string
}

// ParseSubmission decodes a request body. An empty body yields an empty
// submission; anything other than a JSON object wraps ErrMalformedBody.
func ParseSubmission(body []byte) (Submission, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Submission{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Submission{}, fmt.Errorf("%w: %v", ErrMalformedBody, err)
	}
	if fields == nil {
		return Submission{}, fmt.Errorf("%w: got null", ErrMalformedBody)
	}
	if dec.More() {
		return Submission{}, fmt.Errorf("%w: trailing data after object", ErrMalformedBody)
	}

	return Submission{
		Name:    field(fields, "name"),
		Phone:   field(fields, "phone"),
		Email:   field(fields, "email"),
		Message: field(fields, "message"),
	}, nil
}

// field returns the value of key as text: strings verbatim, numbers and
// booleans in their JSON form, missing keys and null as "".
func field(fields map[string]any, key string) string {
	switch v := fields[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "true"
		}
		return "false"
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

// Missing returns the JSON names of the required fields that are empty.
// Whitespace is content; only "" counts as missing.
func (s Submission) Missing() []string {
	var missing []string
	if s.Name == "" {
		missing = append(missing, "name")
	}
	if s.Phone == "" {
		missing = append(missing, "phone")
	}
	if s.Message == "" {
		missing = append(missing, "message")
	}
	return missing
}

// Validate wraps ErrMissingFields when a required field is empty.
func (s Submission) Validate() error {
	if missing := s.Missing(); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", "))
	}
	return nil
}
