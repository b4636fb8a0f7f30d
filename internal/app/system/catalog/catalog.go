// internal/app/system/catalog/catalog.go

// Package catalog keeps course category references consistent with the
// category map stored alongside them in the site content document.
//
// Every operation reads the latest revision, edits a copy, and writes the
// whole document back through the content store with the revision's draft
// flag unchanged.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
)

// ContentStore is the part of the content store the maintainer needs.
type ContentStore interface {
	GetContent(ctx context.Context) *models.SiteContent
	SaveContent(ctx context.Context, content *models.SiteContent, user string, isDraft bool) bool
	Exists(ctx context.Context) (bool, error)
}

// ErrUnavailable is returned instead of a NotFoundError when the content
// could not be read, since reads then degrade to the empty document.
var ErrUnavailable = errors.New("site content unavailable")

// NotFoundError reports a category or course slug that does not exist.
type NotFoundError struct {
	Kind string // "category" or "course"
	Slug string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Slug)
}

// ValidationError lists everything wrong with a request or document.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid content: " + strings.Join(e.Problems, "; ")
}

// DeleteResult is returned by DeleteCategory.
type DeleteResult struct {
	Removed             bool     `json:"removed"`
	AffectedCourseSlugs []string `json:"affected_course_slugs"`
}

// Maintainer applies category edits to the site content document.
type Maintainer struct {
	store  ContentStore
	logger *zap.Logger
}

// New creates a Maintainer.
func New(store ContentStore, logger *zap.Logger) *Maintainer {
	return &Maintainer{store: store, logger: logger}
}

// DeleteCategory removes a category and strips it from every course that
// references it. Courses themselves are kept. Removed mirrors the result of
// the save; AffectedCourseSlugs follows course order.
func (m *Maintainer) DeleteCategory(ctx context.Context, slug, user string) (DeleteResult, error) {
	current := m.store.GetContent(ctx)
	if _, ok := current.CourseCategories[slug]; !ok {
		return DeleteResult{}, m.notFound(ctx, "category", slug)
	}

	next := current.Clone()
	delete(next.CourseCategories, slug)

	affected := []string{}
	for i := range next.Courses {
		c := &next.Courses[i]
		if !c.HasCategory(slug) {
			continue
		}
		kept := make([]string, 0, len(c.Categories)-1)
		for _, s := range c.Categories {
			if s != slug {
				kept = append(kept, s)
			}
		}
		c.Categories = kept
		affected = append(affected, c.Slug)
	}

	saved := m.store.SaveContent(ctx, next, user, current.IsDraft)
	if saved {
		m.logger.Info("category deleted",
			zap.String("category", slug),
			zap.Strings("affected_courses", affected),
			zap.String("user", user))
	}
	return DeleteResult{Removed: saved, AffectedCourseSlugs: affected}, nil
}

// AssignCategories replaces a course's category set. Duplicates are dropped
// and first-seen order is kept.
func (m *Maintainer) AssignCategories(ctx context.Context, courseSlug string, categorySlugs []string, user string) (bool, error) {
	current := m.store.GetContent(ctx)

	idx := current.CourseIndex(courseSlug)
	if idx < 0 {
		return false, m.notFound(ctx, "course", courseSlug)
	}

	var problems []string
	seen := make(map[string]bool, len(categorySlugs))
	cats := make([]string, 0, len(categorySlugs))
	for _, s := range categorySlugs {
		if _, ok := current.CourseCategories[s]; !ok {
			problems = append(problems, fmt.Sprintf("unknown category %q", s))
			continue
		}
		if !seen[s] {
			seen[s] = true
			cats = append(cats, s)
		}
	}
	if len(problems) > 0 {
		return false, &ValidationError{Problems: problems}
	}

	next := current.Clone()
	next.Courses[idx].Categories = cats
	return m.store.SaveContent(ctx, next, user, current.IsDraft), nil
}

func (m *Maintainer) notFound(ctx context.Context, kind, slug string) error {
	if _, err := m.store.Exists(ctx); err != nil {
		m.logger.Error("site content unreadable", zap.String(kind, slug), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &NotFoundError{Kind: kind, Slug: slug}
}

// DanglingReference is a course category entry with no matching category.
type DanglingReference struct {
	CourseSlug   string `json:"course_slug"`
	CategorySlug string `json:"category_slug"`
}

// DanglingReferences lists every course category entry that is not a key of
// CourseCategories, in course order.
func DanglingReferences(c *models.SiteContent) []DanglingReference {
	var out []DanglingReference
	for _, course := range c.Courses {
		for _, s := range course.Categories {
			if _, ok := c.CourseCategories[s]; !ok {
				out = append(out, DanglingReference{CourseSlug: course.Slug, CategorySlug: s})
			}
		}
	}
	return out
}

// Validate checks the referential invariants of a whole document:
// category keys match their slugs, course slugs are present and unique,
// and every course category reference resolves.
func Validate(c *models.SiteContent) error {
	if c == nil {
		return &ValidationError{Problems: []string{"content is empty"}}
	}
	var problems []string

	keys := make([]string, 0, len(c.CourseCategories))
	for k := range c.CourseCategories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if k == "" {
			problems = append(problems, "category with empty key")
			continue
		}
		if got := c.CourseCategories[k].Slug; got != k {
			problems = append(problems, fmt.Sprintf("category %q has slug %q", k, got))
		}
	}

	seen := make(map[string]bool, len(c.Courses))
	for i, course := range c.Courses {
		switch {
		case course.Slug == "":
			problems = append(problems, fmt.Sprintf("course #%d has no slug", i+1))
		case seen[course.Slug]:
			problems = append(problems, fmt.Sprintf("duplicate course slug %q", course.Slug))
		}
		seen[course.Slug] = true
	}

	for _, d := range DanglingReferences(c) {
		problems = append(problems, fmt.Sprintf("course %q references unknown category %q", d.CourseSlug, d.CategorySlug))
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
