package contentapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/stratacms/internal/app/store/audit"
	contentstore "github.com/dalemusser/stratacms/internal/app/store/content"
	"github.com/dalemusser/stratacms/internal/app/store/docstore"
	"github.com/dalemusser/stratacms/internal/domain/models"
	"go.uber.org/zap"
)

func catalogContent() *models.SiteContent {
	return &models.SiteContent{
		Courses: []models.Course{
			{Slug: "rhcsa", Title: "RHCSA", Categories: []string{"redhat", "internal"}, Visible: true, Featured: true},
			{Slug: "rhce", Title: "RHCE", Categories: []string{"redhat"}, Visible: true},
			{Slug: "secret-beta", Title: "Beta", Categories: []string{"redhat"}, Visible: false},
			{Slug: "aws-saa", Title: "AWS SAA", Categories: []string{"cloud"}, Visible: true},
		},
		CourseCategories: map[string]models.Category{
			"redhat":   {Name: "Red Hat", Slug: "redhat", Order: 2, Visible: true},
			"cloud":    {Name: "Cloud", Slug: "cloud", Order: 1, Visible: true},
			"internal": {Name: "Internal", Slug: "internal", Order: 0, Visible: false},
		},
		Institute: models.Section{"name": "Acme Training"},
	}
}

func newTestServer(t *testing.T) (http.Handler, *contentstore.Store, *docstore.Memory) {
	t.Helper()
	mem := docstore.NewMemory()
	store := contentstore.NewWithCollections(mem, audit.NewWithCollection(docstore.NewMemory()), zap.NewNop())
	return Routes(NewHandler(store, zap.NewNop())), store, mem
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if out != nil && rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return rec.Code
}

func TestContent_EmptyStore(t *testing.T) {
	h, _, _ := newTestServer(t)

	var pc PublicContent
	if code := get(t, h, "/content", &pc); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if pc.Courses == nil || len(pc.Courses) != 0 || pc.CourseCategories == nil {
		t.Errorf("empty content = %+v", pc)
	}
	if pc.Institute["name"] != models.DefaultInstituteName {
		t.Errorf("institute = %v", pc.Institute)
	}
}

func TestContent_HidesInvisibleAndDrafts(t *testing.T) {
	h, store, _ := newTestServer(t)
	ctx := context.Background()

	if !store.SaveContent(ctx, catalogContent(), "admin", false) {
		t.Fatal("save published failed")
	}
	draft := catalogContent()
	draft.Courses = append(draft.Courses, models.Course{Slug: "draft-only", Visible: true})
	if !store.SaveContent(ctx, draft, "admin", true) {
		t.Fatal("save draft failed")
	}

	var pc PublicContent
	get(t, h, "/content", &pc)

	slugs := map[string]bool{}
	for _, c := range pc.Courses {
		slugs[c.Slug] = true
	}
	if slugs["secret-beta"] || slugs["draft-only"] {
		t.Errorf("hidden or draft course served: %v", slugs)
	}
	if len(pc.Courses) != 3 {
		t.Errorf("courses = %d, want 3", len(pc.Courses))
	}
	if _, ok := pc.CourseCategories["internal"]; ok {
		t.Error("hidden category served")
	}
	if got := pc.Courses[0].Categories; len(got) != 1 || got[0] != "redhat" {
		t.Errorf("rhcsa categories = %v, want [redhat]", got)
	}
	if pc.UpdatedAt == nil {
		t.Error("updated_at should be set")
	}
}

func TestCourses_Filters(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.SaveContent(context.Background(), catalogContent(), "admin", false)

	tests := []struct {
		path string
		want []string
	}{
		{"/courses", []string{"rhcsa", "rhce", "aws-saa"}},
		{"/courses?category=redhat", []string{"rhcsa", "rhce"}},
		{"/courses?category=internal", []string{}},
		{"/courses?featured=true", []string{"rhcsa"}},
		{"/courses?category=cloud&featured=true", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var out struct {
				Courses []models.Course `json:"courses"`
			}
			if code := get(t, h, tt.path, &out); code != http.StatusOK {
				t.Fatalf("status = %d", code)
			}
			if len(out.Courses) != len(tt.want) {
				t.Fatalf("courses = %d, want %v", len(out.Courses), tt.want)
			}
			for i, c := range out.Courses {
				if c.Slug != tt.want[i] {
					t.Errorf("course[%d] = %s, want %s", i, c.Slug, tt.want[i])
				}
			}
		})
	}
}

func TestCourse_Detail(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.SaveContent(context.Background(), catalogContent(), "admin", false)

	var d CourseDetail
	if code := get(t, h, "/courses/rhcsa", &d); code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	if d.Course.Title != "RHCSA" || len(d.Categories) != 1 || d.Categories[0].Name != "Red Hat" {
		t.Errorf("detail = %+v", d)
	}

	for _, slug := range []string{"secret-beta", "nope"} {
		if code := get(t, h, "/courses/"+slug, nil); code != http.StatusNotFound {
			t.Errorf("/courses/%s status = %d, want 404", slug, code)
		}
	}
}

func TestCategories_OrderedWithCounts(t *testing.T) {
	h, store, _ := newTestServer(t)
	store.SaveContent(context.Background(), catalogContent(), "admin", false)

	var out struct {
		Categories []CategoryView `json:"categories"`
	}
	get(t, h, "/categories", &out)

	if len(out.Categories) != 2 {
		t.Fatalf("categories = %+v, want 2 visible", out.Categories)
	}
	if out.Categories[0].Slug != "cloud" || out.Categories[1].Slug != "redhat" {
		t.Errorf("order = %s, %s", out.Categories[0].Slug, out.Categories[1].Slug)
	}
	if out.Categories[0].CourseCount != 1 || out.Categories[1].CourseCount != 2 {
		t.Errorf("counts = %d, %d; want 1, 2", out.Categories[0].CourseCount, out.Categories[1].CourseCount)
	}
}

func TestContent_StorageFailureServesEmpty(t *testing.T) {
	h, store, mem := newTestServer(t)
	store.SaveContent(context.Background(), catalogContent(), "admin", false)
	mem.FailWith(errors.New("server selection timeout"))

	var pc PublicContent
	if code := get(t, h, "/content", &pc); code != http.StatusOK {
		t.Fatalf("status = %d, want 200", code)
	}
	if len(pc.Courses) != 0 {
		t.Errorf("courses = %d, want empty catalog", len(pc.Courses))
	}
}

func TestProject_DoesNotMutate(t *testing.T) {
	c := catalogContent()
	_ = Project(c)
	if len(c.Courses) != 4 || len(c.Courses[0].Categories) != 2 || len(c.CourseCategories) != 3 {
		t.Error("Project() modified its input")
	}
}
