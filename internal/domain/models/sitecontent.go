// internal/domain/models/sitecontent.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SiteContentType is the discriminator value stored in the "type" field of
// the authoritative site content document.
const SiteContentType = "site_content"

// DefaultInstituteName is used when no content has ever been saved.
const DefaultInstituteName = "Training Institute"

// Section is a free-form nested structure (institute, blog, meta, ...).
// The store passes it through untouched.
type Section map[string]any

// SiteContent is the single document holding all website content.
// It is always replaced wholesale; nothing patches individual fields.
type SiteContent struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Type string             `bson:"type" json:"-"`

	Courses          []Course            `bson:"courses" json:"courses"`
	CourseCategories map[string]Category `bson:"courseCategories" json:"courseCategories"`

	Institute     Section   `bson:"institute,omitempty" json:"institute,omitempty"`
	LearningPaths []Section `bson:"learningPaths,omitempty" json:"learningPaths,omitempty"`
	Blog          Section   `bson:"blog,omitempty" json:"blog,omitempty"`
	Meta          Section   `bson:"meta,omitempty" json:"meta,omitempty"`

	// Write stamps, set by the content store on every save. Revision orders
	// saves whose updated_at stamps fall in the same millisecond.
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
	Revision  int64     `bson:"revision" json:"revision"`
	User      string    `bson:"user" json:"user"`
	IsDraft   bool      `bson:"is_draft" json:"is_draft"`
}

// NewerThan reports whether c was saved after other.
func (c *SiteContent) NewerThan(other *SiteContent) bool {
	if !c.UpdatedAt.Equal(other.UpdatedAt) {
		return c.UpdatedAt.After(other.UpdatedAt)
	}
	return c.Revision > other.Revision
}

// Course is an entry of SiteContent.Courses.
type Course struct {
	Slug             string   `bson:"slug" json:"slug"`
	Title            string   `bson:"title" json:"title"`
	Subtitle         string   `bson:"subtitle,omitempty" json:"subtitle,omitempty"`
	ShortDescription string   `bson:"shortDescription,omitempty" json:"shortDescription,omitempty"`
	Description      string   `bson:"description,omitempty" json:"description,omitempty"`
	Duration         string   `bson:"duration,omitempty" json:"duration,omitempty"`
	Level            string   `bson:"level,omitempty" json:"level,omitempty"`
	Image            string   `bson:"image,omitempty" json:"image,omitempty"`
	Featured         bool     `bson:"featured" json:"featured"`
	Order            int      `bson:"order" json:"order"`
	Categories       []string `bson:"categories" json:"categories"`
	Visible          bool     `bson:"visible" json:"visible"`
}

// HasCategory reports whether the course references the given category slug.
func (c *Course) HasCategory(slug string) bool {
	for _, s := range c.Categories {
		if s == slug {
			return true
		}
	}
	return false
}

// Category is a value of SiteContent.CourseCategories. Slug must equal the
// map key it is stored under.
type Category struct {
	Name        string `bson:"name" json:"name"`
	Slug        string `bson:"slug" json:"slug"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Order       int    `bson:"order" json:"order"`
	Visible     bool   `bson:"visible" json:"visible"`
}

// EmptySiteContent returns the minimal valid document served when nothing has
// been stored yet or the store is unreachable.
func EmptySiteContent(instituteName string) *SiteContent {
	if instituteName == "" {
		instituteName = DefaultInstituteName
	}
	return &SiteContent{
		Type:             SiteContentType,
		Courses:          []Course{},
		CourseCategories: map[string]Category{},
		Institute:        Section{"name": instituteName},
	}
}

// Normalize replaces nil collections with empty ones so the document always
// serializes as `[]` / `{}` rather than null.
func (c *SiteContent) Normalize() {
	if c.Courses == nil {
		c.Courses = []Course{}
	}
	if c.CourseCategories == nil {
		c.CourseCategories = map[string]Category{}
	}
	for i := range c.Courses {
		if c.Courses[i].Categories == nil {
			c.Courses[i].Categories = []string{}
		}
	}
}

// CourseIndex returns the position of the course with the given slug, or -1.
func (c *SiteContent) CourseIndex(slug string) int {
	for i := range c.Courses {
		if c.Courses[i].Slug == slug {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the typed parts of the document. Sections are
// copied at the top level only; their nested values are treated as immutable.
func (c *SiteContent) Clone() *SiteContent {
	out := *c
	out.Courses = make([]Course, len(c.Courses))
	for i, course := range c.Courses {
		course.Categories = append([]string(nil), course.Categories...)
		out.Courses[i] = course
	}
	out.CourseCategories = make(map[string]Category, len(c.CourseCategories))
	for k, v := range c.CourseCategories {
		out.CourseCategories[k] = v
	}
	out.Institute = cloneSection(c.Institute)
	out.Blog = cloneSection(c.Blog)
	out.Meta = cloneSection(c.Meta)
	if c.LearningPaths != nil {
		out.LearningPaths = make([]Section, len(c.LearningPaths))
		for i, s := range c.LearningPaths {
			out.LearningPaths[i] = cloneSection(s)
		}
	}
	return &out
}

func cloneSection(s Section) Section {
	if s == nil {
		return nil
	}
	out := make(Section, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
