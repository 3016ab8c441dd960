package utils

import (
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

var (
	slugInvalidChars   = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugMultipleHyphen = regexp.MustCompile(`-{2,}`)
	slugWhitespace     = regexp.MustCompile(`\s+`)
)

// Slugify creates a URL-friendly slug from the given string.
// Example: "Hello, World! 2026" -> "hello-world-2026"
func Slugify(s string) string {
	result := strings.ToLower(strings.TrimSpace(s))
	result = slugInvalidChars.ReplaceAllString(result, "")
	result = slugWhitespace.ReplaceAllString(result, "-")
	result = slugMultipleHyphen.ReplaceAllString(result, "-")
	return strings.Trim(result, "-")
}

// UniqueSlug derives a slug from title and suffixes it with a counter until
// no other row of model holds it. excludeID skips the record being updated.
func UniqueSlug(db *gorm.DB, model interface{}, title string, excludeID uint) (string, error) {
	base := Slugify(title)
	if base == "" {
		base = "untitled"
	}

	slug := base
	for i := 2; ; i++ {
		query := db.Model(model).Where("slug = ?", slug)
		if excludeID != 0 {
			query = query.Where("id <> ?", excludeID)
		}
		var count int64
		if err := query.Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}
