// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package auth

import "strings"

// BaseField is the field name used for errors that are not tied to an input.
const BaseField = "base"

// FieldError is a single validation message attached to a field.
type FieldError struct {
	Field   string
	Message string
}

// Errors is an ordered multimap of field names to validation messages.
// Insertion order is preserved across fields. The zero value is empty and
// ready to use.
type Errors struct {
	entries []FieldError
}

// Add appends a message for field.
func (e *Errors) Add(field, message string) {
	e.entries = append(e.entries, FieldError{Field: field, Message: message})
}

// AddToBase appends a message that applies to the attempt as a whole.
func (e *Errors) AddToBase(message string) {
	e.Add(BaseField, message)
}

// Empty reports whether no messages have been recorded.
func (e *Errors) Empty() bool {
	return len(e.entries) == 0
}

// Len returns the number of recorded messages.
func (e *Errors) Len() int {
	return len(e.entries)
}

// On returns the messages recorded for field, in insertion order.
func (e *Errors) On(field string) []string {
	var out []string
	for _, fe := range e.entries {
		if fe.Field == field {
			out = append(out, fe.Message)
		}
	}
	return out
}

// All returns a copy of every recorded message, in insertion order.
func (e *Errors) All() []FieldError {
	out := make([]FieldError, len(e.entries))
	copy(out, e.entries)
	return out
}

// FullMessages renders each entry as a sentence, prefixing field messages
// with a humanized field name.
func (e *Errors) FullMessages() []string {
	out := make([]string, 0, len(e.entries))
	for _, fe := range e.entries {
		if fe.Field == BaseField {
			out = append(out, fe.Message)
			continue
		}
		out = append(out, humanize(fe.Field)+" "+fe.Message)
	}
	return out
}

// Clear removes every message.
func (e *Errors) Clear() {
	e.entries = nil
}

func humanize(field string) string {
	s := strings.ReplaceAll(field, "_", " ")
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
