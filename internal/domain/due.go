package domain

import (
	"fmt"
	"strings"
	"time"
)

// DueLayout is the user-facing due date format (YYYY.MM.DD@hh:mm).
const DueLayout = "2006.01.02@15:04"

// ParseDueDate parses strict YYYY.MM.DD@hh:mm text into a UTC time.
func ParseDueDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	if !dueShape(text) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, text)
	}
	due, err := time.Parse(DueLayout, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDueDate, text)
	}
	return due.UTC(), nil
}

// FormatDueDate renders t in the due date format.
func FormatDueDate(t time.Time) string {
	return t.UTC().Format(DueLayout)
}

// dueShape checks digit counts and separators before calendar validation.
func dueShape(text string) bool {
	if len(text) != len(DueLayout) {
		return false
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch i {
		case 4, 7:
			if c != '.' {
				return false
			}
		case 10:
			if c != '@' {
				return false
			}
		case 13:
			if c != ':' {
				return false
			}
		default:
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// parseOptionalDue parses text, treating blank input as no due date.
func parseOptionalDue(text string) (*time.Time, error) {
	if strings.TrimSpace(text) == "" {
		return nil, nil
	}
	due, err := ParseDueDate(text)
	if err != nil {
		return nil, err
	}
	return &due, nil
}
