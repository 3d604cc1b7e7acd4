package utils

import (
	"fmt"
	"time"
)

// ParseOptionalTime parses an RFC3339 query value. An empty value yields nil.
func ParseOptionalTime(name, raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' timestamp format, use RFC3339 (e.g., 2006-01-02T15:04:05Z)", name)
	}
	return &t, nil
}
