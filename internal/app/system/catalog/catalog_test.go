package catalog

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/dalemusser/stratacms/internal/app/store/audit"
	contentstore "github.com/dalemusser/stratacms/internal/app/store/content"
	"github.com/dalemusser/stratacms/internal/app/store/docstore"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
)

func newTestMaintainer(t *testing.T, seed *models.SiteContent, draft bool) (*Maintainer, *contentstore.Store, *docstore.Memory) {
	t.Helper()
	mem := docstore.NewMemory()
	store := contentstore.NewWithCollections(mem, audit.NewWithCollection(docstore.NewMemory()), zap.NewNop())
	if seed != nil && !store.SaveContent(context.Background(), seed, "seed", draft) {
		t.Fatal("seeding content failed")
	}
	return New(store, zap.NewNop()), store, mem
}

func catalogContent() *models.SiteContent {
	return &models.SiteContent{
		Courses: []models.Course{
			{Slug: "rhcsa", Title: "RHCSA", Categories: []string{"redhat", "linux"}, Visible: true},
			{Slug: "ccna", Title: "CCNA", Categories: []string{"networking"}, Visible: true},
			{Slug: "rhce", Title: "RHCE", Categories: []string{"redhat"}, Visible: true},
		},
		CourseCategories: map[string]models.Category{
			"redhat":     {Name: "Red Hat", Slug: "redhat", Visible: true},
			"linux":      {Name: "Linux", Slug: "linux", Visible: true},
			"networking": {Name: "Networking", Slug: "networking", Visible: true},
		},
		Institute: models.Section{"name": "Acme"},
	}
}

func TestDeleteCategory_SingleCourseScenario(t *testing.T) {
	seed := &models.SiteContent{
		Courses:          []models.Course{{Slug: "rhcsa", Title: "RHCSA", Categories: []string{"redhat"}}},
		CourseCategories: map[string]models.Category{"redhat": {Name: "Red Hat", Slug: "redhat"}},
	}
	m, store, _ := newTestMaintainer(t, seed, false)
	ctx := context.Background()

	res, err := m.DeleteCategory(ctx, "redhat", "admin")
	if err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	want := DeleteResult{Removed: true, AffectedCourseSlugs: []string{"rhcsa"}}
	if !reflect.DeepEqual(res, want) {
		t.Errorf("DeleteCategory() = %+v, want %+v", res, want)
	}

	got := store.GetContent(ctx)
	if len(got.CourseCategories) != 0 {
		t.Errorf("courseCategories = %+v, want {}", got.CourseCategories)
	}
	if len(got.Courses) != 1 {
		t.Fatalf("courses = %d, want the course kept", len(got.Courses))
	}
	if got.Courses[0].Categories == nil || len(got.Courses[0].Categories) != 0 {
		t.Errorf("course categories = %#v, want []", got.Courses[0].Categories)
	}
}

func TestDeleteCategory_CascadesToEveryReferencingCourse(t *testing.T) {
	m, store, _ := newTestMaintainer(t, catalogContent(), false)
	ctx := context.Background()

	res, err := m.DeleteCategory(ctx, "redhat", "admin")
	if err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if !reflect.DeepEqual(res.AffectedCourseSlugs, []string{"rhcsa", "rhce"}) {
		t.Errorf("affected = %v, want [rhcsa rhce]", res.AffectedCourseSlugs)
	}

	got := store.GetContent(ctx)
	for _, c := range got.Courses {
		if c.HasCategory("redhat") {
			t.Errorf("course %q still references redhat", c.Slug)
		}
	}
	if !reflect.DeepEqual(got.Courses[0].Categories, []string{"linux"}) {
		t.Errorf("rhcsa categories = %v, want [linux]", got.Courses[0].Categories)
	}
	if !reflect.DeepEqual(got.Courses[1].Categories, []string{"networking"}) {
		t.Errorf("ccna categories = %v, want untouched", got.Courses[1].Categories)
	}
	if refs := DanglingReferences(got); len(refs) != 0 {
		t.Errorf("dangling references after delete: %+v", refs)
	}
}

func TestDeleteCategory_Unreferenced(t *testing.T) {
	seed := catalogContent()
	seed.CourseCategories["unused"] = models.Category{Name: "Unused", Slug: "unused"}
	m, _, _ := newTestMaintainer(t, seed, false)

	res, err := m.DeleteCategory(context.Background(), "unused", "admin")
	if err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if !res.Removed || len(res.AffectedCourseSlugs) != 0 || res.AffectedCourseSlugs == nil {
		t.Errorf("DeleteCategory() = %#v, want removed with empty affected list", res)
	}
}

func TestDeleteCategory_NotFoundLeavesContentUnchanged(t *testing.T) {
	m, store, _ := newTestMaintainer(t, catalogContent(), false)
	ctx := context.Background()
	before := store.GetContent(ctx)

	_, err := m.DeleteCategory(ctx, "does-not-exist", "admin")
	var nf *NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("DeleteCategory() error = %v, want *NotFoundError", err)
	}
	if nf.Kind != "category" || nf.Slug != "does-not-exist" {
		t.Errorf("NotFoundError = %+v", nf)
	}

	after := store.GetContent(ctx)
	if !reflect.DeepEqual(before, after) {
		t.Error("content changed after failed delete")
	}
}

func TestDeleteCategory_KeepsDraftFlag(t *testing.T) {
	m, store, _ := newTestMaintainer(t, catalogContent(), true)
	ctx := context.Background()

	if _, err := m.DeleteCategory(ctx, "linux", "admin"); err != nil {
		t.Fatalf("DeleteCategory() error = %v", err)
	}
	if got := store.GetContent(ctx); !got.IsDraft {
		t.Error("edit of a draft revision was published")
	}
	if pub := store.GetPublishedContent(ctx); len(pub.Courses) != 0 {
		t.Error("draft edit leaked into published content")
	}
}

func TestStorageOutageIsNotNotFound(t *testing.T) {
	m, _, mem := newTestMaintainer(t, catalogContent(), false)
	ctx := context.Background()
	mem.FailWith(errors.New("unreachable"))

	_, err := m.DeleteCategory(ctx, "redhat", "admin")
	var nf *NotFoundError
	if !errors.Is(err, ErrUnavailable) || errors.As(err, &nf) {
		t.Errorf("DeleteCategory() error = %v, want ErrUnavailable", err)
	}

	_, err = m.AssignCategories(ctx, "rhcsa", []string{"linux"}, "admin")
	if !errors.Is(err, ErrUnavailable) || errors.As(err, &nf) {
		t.Errorf("AssignCategories() error = %v, want ErrUnavailable", err)
	}

	mem.FailWith(nil)
	if _, err := m.DeleteCategory(ctx, "ghost", "admin"); !errors.As(err, &nf) {
		t.Errorf("DeleteCategory(ghost) error = %v, want *NotFoundError once storage is back", err)
	}
}

func TestAssignCategories(t *testing.T) {
	m, store, _ := newTestMaintainer(t, catalogContent(), false)
	ctx := context.Background()

	ok, err := m.AssignCategories(ctx, "ccna", []string{"linux", "networking", "linux"}, "admin")
	if err != nil || !ok {
		t.Fatalf("AssignCategories() = (%v, %v), want (true, nil)", ok, err)
	}

	got := store.GetContent(ctx)
	if !reflect.DeepEqual(got.Courses[1].Categories, []string{"linux", "networking"}) {
		t.Errorf("ccna categories = %v, want [linux networking]", got.Courses[1].Categories)
	}
	if got.User != "admin" {
		t.Errorf("User = %q, want admin", got.User)
	}
}

func TestAssignCategories_Clear(t *testing.T) {
	m, store, _ := newTestMaintainer(t, catalogContent(), false)
	ctx := context.Background()

	ok, err := m.AssignCategories(ctx, "rhcsa", nil, "admin")
	if err != nil || !ok {
		t.Fatalf("AssignCategories() = (%v, %v)", ok, err)
	}
	if cats := store.GetContent(ctx).Courses[0].Categories; len(cats) != 0 {
		t.Errorf("categories = %v, want []", cats)
	}
}

func TestAssignCategories_Errors(t *testing.T) {
	m, store, _ := newTestMaintainer(t, catalogContent(), false)
	ctx := context.Background()
	before := store.GetContent(ctx)

	_, err := m.AssignCategories(ctx, "nope", []string{"linux"}, "admin")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Kind != "course" {
		t.Errorf("unknown course: error = %v, want course NotFoundError", err)
	}

	_, err = m.AssignCategories(ctx, "rhcsa", []string{"linux", "ghost", "phantom"}, "admin")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("unknown category: error = %v, want *ValidationError", err)
	}
	if len(ve.Problems) != 2 {
		t.Errorf("problems = %v, want 2", ve.Problems)
	}

	if after := store.GetContent(ctx); !reflect.DeepEqual(before, after) {
		t.Error("content changed after rejected assignment")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *models.SiteContent)
		wantErr string
	}{
		{"valid", func(c *models.SiteContent) {}, ""},
		{"slug mismatch", func(c *models.SiteContent) {
			c.CourseCategories["linux"] = models.Category{Name: "Linux", Slug: "gnu-linux"}
		}, `category "linux" has slug "gnu-linux"`},
		{"dangling reference", func(c *models.SiteContent) {
			c.Courses[1].Categories = append(c.Courses[1].Categories, "cloud")
		}, `course "ccna" references unknown category "cloud"`},
		{"duplicate course", func(c *models.SiteContent) {
			c.Courses[2].Slug = "rhcsa"
		}, `duplicate course slug "rhcsa"`},
		{"missing course slug", func(c *models.SiteContent) {
			c.Courses[0].Slug = ""
		}, "course #1 has no slug"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := catalogContent()
			tt.mutate(c)
			err := Validate(c)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to mention %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidate_Nil(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("Validate(nil) = nil, want error")
	}
}
