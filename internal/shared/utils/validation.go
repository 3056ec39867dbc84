package utils

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String length limits
const (
	MaxCommandLength = 4096
	MaxScanNameLen   = 256
)

// ScanNamePattern allows the characters scan directories are built from
var ScanNamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}

	if value == "" && !required {
		return nil // Optional field, empty is OK
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}

	// Check for null bytes (security issue)
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}

	return nil
}

// ValidateCommand validates a raw command line before it is queued. Syntax
// is the tokenizer's business; this guards size and charset only.
func ValidateCommand(line string) error {
	if err := ValidateString(line, "command", 1, MaxCommandLength, true); err != nil {
		return err
	}

	for _, r := range line {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("command contains control characters")
		}
	}

	return nil
}

// ValidateScanName validates a scan directory name from a request path
func ValidateScanName(name string) error {
	if err := ValidateString(name, "scan name", 1, MaxScanNameLen, true); err != nil {
		return err
	}

	if !ScanNamePattern.MatchString(name) {
		return fmt.Errorf("scan name contains invalid characters")
	}
	if strings.HasPrefix(name, ".") {
		return fmt.Errorf("scan name must not start with a dot")
	}

	return nil
}
