package common

import (
	"path/filepath"
	"strings"
	"time"
)

// PathUtils provides common path manipulation functions
type PathUtils struct{}

// NewPathUtils creates a new path utils instance
func NewPathUtils() *PathUtils {
	return &PathUtils{}
}

// NormalizePath normalizes a file path for consistent comparison
func (pu *PathUtils) NormalizePath(path string) string {
	if path == "" {
		return ""
	}

	// Convert backslashes to forward slashes
	normalized := strings.ReplaceAll(path, "\\", "/")

	// Clean the path
	normalized = filepath.Clean(normalized)

	// Convert to forward slashes for consistency
	normalized = filepath.ToSlash(normalized)

	// Remove trailing slash unless it's the root
	if len(normalized) > 1 && strings.HasSuffix(normalized, "/") {
		normalized = strings.TrimSuffix(normalized, "/")
	}

	return normalized
}

// IsSubpath checks if child is a subpath of parent
func (pu *PathUtils) IsSubpath(parent, child string) bool {
	parent = pu.NormalizePath(parent)
	child = pu.NormalizePath(child)

	if parent == child {
		return true
	}

	if parent == "/" {
		return strings.HasPrefix(child, "/")
	}

	return strings.HasPrefix(child, parent+"/")
}

// GetRelativePath returns the path of child relative to parent, in slash form
func (pu *PathUtils) GetRelativePath(parent, child string) (string, error) {
	rel, err := filepath.Rel(parent, child)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// TimeUtils provides common time-related functions
type TimeUtils struct{}

// NewTimeUtils creates a new time utils instance
func NewTimeUtils() *TimeUtils {
	return &TimeUtils{}
}

// GetCurrentTime returns the current time
func (tu *TimeUtils) GetCurrentTime() time.Time {
	return time.Now()
}

// GetCurrentTimestamp returns the current time as a Unix timestamp in milliseconds
func (tu *TimeUtils) GetCurrentTimestamp() int64 {
	return time.Now().UnixMilli()
}
