package roster

import (
	"fmt"
	"strings"
)

// Division identifies one classroom: department, study year and section.
type Division struct {
	Department string
	Year       string
	Section    string
}

// ParseDivisionCode parses "DEPT-YEAR-SECTION" (case-insensitive, e.g. "cs-se-a").
func ParseDivisionCode(code string) (Division, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) != 3 {
		return Division{}, fmt.Errorf("%w: %q", ErrInvalidDivisionCode, code)
	}
	for i, p := range parts {
		p = strings.ToUpper(strings.TrimSpace(p))
		if !validSegment(p) {
			return Division{}, fmt.Errorf("%w: %q", ErrInvalidDivisionCode, code)
		}
		parts[i] = p
	}
	return Division{Department: parts[0], Year: parts[1], Section: parts[2]}, nil
}

// ComposeDivisionCode builds a normalized code from its parts.
func ComposeDivisionCode(department, year, section string) (string, error) {
	d, err := ParseDivisionCode(department + "-" + year + "-" + section)
	if err != nil {
		return "", err
	}
	return d.Code(), nil
}

// NormalizeDivisionCode returns the canonical spelling of code.
func NormalizeDivisionCode(code string) (string, error) {
	d, err := ParseDivisionCode(code)
	if err != nil {
		return "", err
	}
	return d.Code(), nil
}

// Code renders the canonical "DEPT-YEAR-SECTION" form.
func (d Division) Code() string {
	return d.Department + "-" + d.Year + "-" + d.Section
}

// Title renders a display label such as "CS SE A".
func (d Division) Title() string {
	return d.Department + " " + d.Year + " " + d.Section
}

func validSegment(s string) bool {
	if s == "" || len(s) > 16 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
