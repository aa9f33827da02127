package logger

import (
	"fmt"
	"regexp"
	"strings"
)

const maskValue = "***REDACTED***"

// defaultSensitiveFields are the column name fragments that trigger
// parameter masking when they appear in a statement.
var defaultSensitiveFields = []string{
	"password", "passwd", "pwd",
	"token", "api_key", "apikey", "api_token",
	"secret", "auth", "authorization",
	"credit_card", "card_number", "cvv", "cvc",
	"ssn", "social_security",
	"private_key", "priv_key",
}

// Sanitizer masks query parameters before they reach a log line. Detection
// is by sensitive column names appearing in the SQL text; when any match,
// every parameter of that statement is masked rather than guessing which
// placeholder feeds which column.
type Sanitizer struct {
	patterns []*regexp.Regexp
}

// NewSanitizer builds a sanitizer for the given sensitive field names.
// A nil or empty list selects the default set.
func NewSanitizer(sensitiveFields []string) *Sanitizer {
	if len(sensitiveFields) == 0 {
		sensitiveFields = defaultSensitiveFields
	}

	patterns := make([]*regexp.Regexp, 0, len(sensitiveFields))
	for _, field := range sensitiveFields {
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(field)+`\b`))
	}
	return &Sanitizer{patterns: patterns}
}

func (s *Sanitizer) sqlIsSensitive(sql string) bool {
	for _, p := range s.patterns {
		if p.MatchString(sql) {
			return true
		}
	}
	return false
}

// MaskParams returns the parameters with sensitive values replaced by a
// redaction marker. The input slice is never modified.
func (s *Sanitizer) MaskParams(sql string, params []any) []any {
	if len(params) == 0 || !s.sqlIsSensitive(sql) {
		return params
	}

	masked := make([]any, len(params))
	for i := range params {
		masked[i] = maskValue
	}
	return masked
}

// FormatParams renders parameters as one bracketed string for a log field.
// Mask first; FormatParams does not redact on its own.
func (s *Sanitizer) FormatParams(params []any) string {
	if len(params) == 0 {
		return "[]"
	}

	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = formatValue(p)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// formatValue truncates long values so a bulk insert cannot flood the log.
func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}

	str := fmt.Sprintf("%v", v)
	const maxLen = 100
	if len(str) > maxLen {
		return str[:maxLen] + "..."
	}
	return str
}
