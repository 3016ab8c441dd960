package utils

import (
	"fmt"
	"mime/multipart"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gorm.io/gorm"
)

var (
	emailRe    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9_\-]{3,30}$`)
	digitRe    = regexp.MustCompile(`[0-9]`)
	upperRe    = regexp.MustCompile(`[A-Z]`)
	lowerRe    = regexp.MustCompile(`[a-z]`)
)

// IsValidID reports whether s is a well-formed record identifier (a positive
// decimal integer, the key format of the relational store).
func IsValidID(s string) bool {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	return err == nil && n > 0
}

// IsValidEmail reports whether s looks like an email address. Never panics;
// empty and malformed inputs are simply false.
func IsValidEmail(s string) bool {
	return s != "" && emailRe.MatchString(s)
}

// IsValidURL reports whether s is an absolute http(s) URL.
func IsValidURL(s string) bool {
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// IsValidDate reports whether s is a YYYY-MM-DD calendar date.
func IsValidDate(s string) bool {
	if s == "" {
		return false
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// IsValidUsername reports whether s is 3-30 chars of letters, digits, '_' or '-'.
func IsValidUsername(s string) bool {
	return usernameRe.MatchString(s)
}

// IsStrongPassword enforces the registration policy: at least 6 characters
// containing an upper-case letter, a lower-case letter, and a digit.
func IsStrongPassword(s string) bool {
	return len(s) >= 6 && upperRe.MatchString(s) && lowerRe.MatchString(s) && digitRe.MatchString(s)
}

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// ResolvePagination parses page and limit query values, accepting numeric
// strings and applying defaults (page 1, limit 10) when absent. Resolving
// already-normalized values returns them unchanged.
func ResolvePagination(pageStr, limitStr string) (int, int, error) {
	page := defaultPage
	if s := strings.TrimSpace(pageStr); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, ValidationError("page must be a number")
		}
		page = n
	}
	limit := defaultLimit
	if s := strings.TrimSpace(limitStr); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, ValidationError("limit must be a number")
		}
		limit = n
	}

	if page < 1 {
		return 0, 0, ValidationError("page must be at least 1")
	}
	if limit < 1 || limit > maxLimit {
		return 0, 0, ValidationError(fmt.Sprintf("limit must be between 1 and %d", maxLimit))
	}
	return page, limit, nil
}

// NormalizeSearchQuery trims the search term and enforces length bounds.
func NormalizeSearchQuery(q string) (string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return "", ValidationError("search query is required")
	}
	if len(q) < 2 {
		return "", ValidationError("search query must be at least 2 characters")
	}
	if len(q) > 100 {
		return "", ValidationError("search query must be at most 100 characters")
	}
	return q, nil
}

// DefaultUploadTypes is the image allow-list applied when ValidateUpload gets
// no explicit types.
var DefaultUploadTypes = []string{"image/jpeg", "image/png", "image/gif"}

// ValidateUpload checks an uploaded file against a mime allow-list and a byte
// limit. A zero maxBytes means the configured default of 5 MiB.
func ValidateUpload(header *multipart.FileHeader, allowedTypes []string, maxBytes int64) error {
	if header == nil {
		return ValidationError("no file uploaded")
	}
	if len(allowedTypes) == 0 {
		allowedTypes = DefaultUploadTypes
	}
	if maxBytes <= 0 {
		maxBytes = 5 * 1024 * 1024
	}

	contentType := header.Header.Get("Content-Type")
	allowed := false
	for _, t := range allowedTypes {
		if strings.EqualFold(contentType, t) {
			allowed = true
			break
		}
	}
	if !allowed {
		return ValidationError("file type " + contentType + " is not allowed")
	}
	if header.Size > maxBytes {
		return ValidationError(fmt.Sprintf("file exceeds the %d byte limit", maxBytes))
	}
	return nil
}

// EnsureUnique fails with a conflict when another row of model already holds
// value in field. excludeID skips the record being updated. Storage errors
// propagate unchanged.
func EnsureUnique(db *gorm.DB, model interface{}, field, value string, excludeID uint) error {
	query := db.Model(model).Where(field+" = ?", value)
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ConflictError(field + " already exists")
	}
	return nil
}
