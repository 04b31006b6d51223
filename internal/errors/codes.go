// Package errors provides structured error handling for tilescout.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: World data errors (snapshots, tile universe)
//   - 4XX: Validation errors (filter definitions)
//   - 5XX: Internal errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryWorld indicates world data errors.
	CategoryWorld Category = "WORLD"
	// CategoryValidation indicates filter validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigNotFound = "ERR_101_CONFIG_NOT_FOUND"
	ErrCodeConfigInvalid  = "ERR_102_CONFIG_INVALID"
	ErrCodePresetUnknown  = "ERR_103_PRESET_UNKNOWN"

	// World data errors (200-299)
	ErrCodeSnapshotNotFound = "ERR_201_SNAPSHOT_NOT_FOUND"
	ErrCodeSnapshotCorrupt  = "ERR_202_SNAPSHOT_CORRUPT"
	ErrCodeWorldEmpty       = "ERR_203_WORLD_EMPTY"

	// Validation errors (400-499)
	ErrCodeInvalidFilter     = "ERR_401_INVALID_FILTER"
	ErrCodeDuplicateFilterID = "ERR_402_DUPLICATE_FILTER_ID"
	ErrCodeInvalidSettings   = "ERR_403_INVALID_SETTINGS"

	// Internal errors (500-599)
	ErrCodeInternal     = "ERR_501_INTERNAL"
	ErrCodeSearchFailed = "ERR_502_SEARCH_FAILED"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	// Numeric portion, e.g. "101" from "ERR_101_CONFIG_NOT_FOUND"
	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryWorld
	case '4':
		return CategoryValidation
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeSnapshotCorrupt:
		return SeverityFatal
	default:
		return SeverityError
	}
}
