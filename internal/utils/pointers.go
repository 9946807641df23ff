package utils

import "strings"

func StringPtr(s string) *string {
	return &s
}

// TrimmedStringPtr returns nil for blank input so optional text is stored as
// JSON null instead of an empty string.
func TrimmedStringPtr(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func IntPtr(i int) *int {
	return &i
}

func PtrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func PtrInt(i *int) int {
	if i == nil {
		return 0
	}
	return *i
}
