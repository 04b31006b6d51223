package errors

import (
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, the underlying cause chain is appended.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	se, ok := err.(*ScoutError)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder
	sb.WriteString("Error: ")
	sb.WriteString(se.Message)
	sb.WriteString("\n")

	if se.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(se.Suggestion)
		sb.WriteString("\n")
	}

	if debug && se.Cause != nil {
		sb.WriteString(fmt.Sprintf("\nCause: %v\n", se.Cause))
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", se.Code))
	return sb.String()
}

// FormatForCLI formats an error for terminal display: message, optional
// suggestion, code.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	se, ok := err.(*ScoutError)
	if !ok {
		se = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Error: %s\n", se.Message))
	if se.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("  hint: %s\n", se.Suggestion))
	}
	sb.WriteString(fmt.Sprintf("  code: %s", se.Code))
	return sb.String()
}

// LogFields returns the error's structured attributes in slog key-value
// order, for logger.Error("...", LogFields(err)...).
func LogFields(err error) []any {
	se, ok := err.(*ScoutError)
	if !ok {
		return []any{"error", err.Error()}
	}
	fields := []any{
		"error", se.Message,
		"code", se.Code,
		"category", string(se.Category),
		"severity", string(se.Severity),
	}
	for k, v := range se.Details {
		fields = append(fields, "detail_"+k, v)
	}
	return fields
}
