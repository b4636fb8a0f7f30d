// Package htmlsanitize cleans HTML submitted through the admin and public APIs.
// It uses bluemonday to strip dangerous markup while preserving safe formatting.
package htmlsanitize

import (
	"html"
	"strings"
	"sync"

	"github.com/dalemusser/stratacms/internal/domain/models"
	"github.com/microcosm-cc/bluemonday"
)

var (
	// policy is the shared bluemonday policy for rich course descriptions.
	policy     *bluemonday.Policy
	policyOnce sync.Once

	strict     *bluemonday.Policy
	strictOnce sync.Once
)

// getPolicy returns the shared rich-text policy, creating it on first use.
func getPolicy() *bluemonday.Policy {
	policyOnce.Do(func() {
		policy = bluemonday.UGCPolicy()

		// Syllabus tables
		policy.AllowElements("table", "thead", "tbody", "tfoot", "tr", "th", "td")
		policy.AllowAttrs("colspan", "rowspan").OnElements("th", "td")
		policy.AllowAttrs("class").OnElements("table", "th", "td", "tr")

		policy.AllowElements("u", "s", "sub", "sup", "mark")
		policy.AllowDataAttributes()
		policy.AllowAttrs("style").OnElements("table", "th", "td")
	})
	return policy
}

func getStrict() *bluemonday.Policy {
	strictOnce.Do(func() {
		strict = bluemonday.StrictPolicy()
	})
	return strict
}

// Sanitize cleans HTML input, removing potentially dangerous elements and attributes.
// It preserves safe formatting like bold, italic, lists, links, and tables.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return getPolicy().Sanitize(s)
}

// StripTags removes all markup and returns plain text. Entities produced by
// the strict policy are decoded again so "Q&A" stays "Q&A".
func StripTags(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(getStrict().Sanitize(s)))
}

// IsPlainText reports whether content contains no markup.
func IsPlainText(content string) bool {
	if content == "" {
		return true
	}
	return !strings.Contains(content, "<") || !strings.Contains(content, ">")
}

// SanitizeContent cleans the HTML-bearing fields of every course and
// category in place. Plain-text fields that contain no markup are left
// byte-for-byte unchanged.
func SanitizeContent(c *models.SiteContent) {
	if c == nil {
		return
	}
	for i := range c.Courses {
		course := &c.Courses[i]
		course.Description = Sanitize(course.Description)
		course.ShortDescription = sanitizeIfMarkup(course.ShortDescription)
		course.Subtitle = stripIfMarkup(course.Subtitle)
		course.Title = stripIfMarkup(course.Title)
	}
	for k, cat := range c.CourseCategories {
		cat.Name = stripIfMarkup(cat.Name)
		cat.Description = sanitizeIfMarkup(cat.Description)
		c.CourseCategories[k] = cat
	}
}

func sanitizeIfMarkup(s string) string {
	if IsPlainText(s) {
		return s
	}
	return Sanitize(s)
}

func stripIfMarkup(s string) string {
	if IsPlainText(s) {
		return s
	}
	return StripTags(s)
}
