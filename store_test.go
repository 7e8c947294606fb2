package folio

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	s, err := NewStore(filepath.Join(t.TempDir(), "data", "test.db"), logger)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mustCreate(t *testing.T, s *Store, e ContentEntry) int64 {
	t.Helper()
	id, err := s.CreateContent(context.Background(), e)
	if err != nil {
		t.Fatalf("CreateContent(%q) failed: %v", e.Title, err)
	}
	return id
}

func titles(entries []ContentEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Title
	}
	return out
}

func TestNewStoreSeedsProfile(t *testing.T) {
	s := setupTestStore(t)

	p, err := s.Profile(context.Background())
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	for _, key := range []string{ProfileName, ProfileTagline, ProfileBio, ProfileEmail, ProfileLinkedIn, ProfileTwitter} {
		if p.Get(key) == "" {
			t.Errorf("seeded profile missing %q", key)
		}
	}
	if p.Get(ProfileAboutImages) != "" {
		t.Errorf("about_images should start empty, got %q", p.Get(ProfileAboutImages))
	}
}

func TestNewStoreReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	s, err := NewStore(path, nil)
	if err != nil {
		t.Fatalf("NewStore failed: %v", err)
	}
	if err := s.SetProfile(context.Background(), ProfileField{Key: ProfileName, Value: "Changed"}); err != nil {
		t.Fatalf("SetProfile failed: %v", err)
	}
	s.Close()

	s, err = NewStore(path, nil)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer s.Close()

	name, err := s.ProfileValue(context.Background(), ProfileName)
	if err != nil {
		t.Fatalf("ProfileValue failed: %v", err)
	}
	if name != "Changed" {
		t.Errorf("name = %q after reopen, want %q (seed must not overwrite)", name, "Changed")
	}
}

func TestCreateAndGetContent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	entry := ContentEntry{
		Title:       "Data centres and water",
		Summary:     "How *cooling* works",
		Type:        TypeWriting,
		Subtype:     "Feature",
		Publication: "Dataquest",
		URL:         "https://example.com/story",
		Date:        "2023-04-12",
		Featured:    true,
		Category:    "Technology",
		ImageURL:    "/static/uploads/1_cover.jpg",
	}
	id := mustCreate(t, s, entry)

	got, err := s.GetContent(ctx, id)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	entry.ID = id
	if got != entry {
		t.Errorf("GetContent = %+v, want %+v", got, entry)
	}
}

func TestGetContentNotFound(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.GetContent(context.Background(), 999)
	if !eris.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateContentOverwritesAllFields(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, ContentEntry{Title: "Old", Type: TypeWriting, Date: "2022-01-01", Featured: true, Category: "Old"})
	updated := ContentEntry{ID: id, Title: "New", Type: TypeMultimedia, Subtype: "Video", Date: "2022-02-02"}
	if err := s.UpdateContent(ctx, updated); err != nil {
		t.Fatalf("UpdateContent failed: %v", err)
	}

	got, err := s.GetContent(ctx, id)
	if err != nil {
		t.Fatalf("GetContent failed: %v", err)
	}
	if got != updated {
		t.Errorf("after update = %+v, want %+v", got, updated)
	}
}

func TestUpdateContentMissing(t *testing.T) {
	s := setupTestStore(t)

	err := s.UpdateContent(context.Background(), ContentEntry{ID: 42, Title: "Ghost", Type: TypeWriting})
	if !eris.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteContentIsIdempotent(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	id := mustCreate(t, s, ContentEntry{Title: "Short lived", Type: TypeWriting, Date: "2024-01-01"})
	if err := s.DeleteContent(ctx, id); err != nil {
		t.Fatalf("DeleteContent failed: %v", err)
	}
	if _, err := s.GetContent(ctx, id); !eris.Is(err, ErrNotFound) {
		t.Fatalf("entry still present after delete: %v", err)
	}
	if err := s.DeleteContent(ctx, id); err != nil {
		t.Fatalf("second DeleteContent should be a no-op, got %v", err)
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("ListAll = %v, want empty", titles(all))
	}
}

func seedWriting(t *testing.T, s *Store) {
	t.Helper()
	mustCreate(t, s, ContentEntry{Title: "A", Type: TypeWriting, Date: "2023-05-01", Category: "Tech"})
	mustCreate(t, s, ContentEntry{Title: "B", Type: TypeWriting, Date: "2022-03-01", Category: "Tech"})
	mustCreate(t, s, ContentEntry{Title: "C", Type: TypeWriting, Date: "2023-01-15", Category: "Policy"})
	mustCreate(t, s, ContentEntry{Title: "D", Type: TypeWriting, Date: "2021-07-07"})
	mustCreate(t, s, ContentEntry{Title: "M", Type: TypeMultimedia, Date: "2023-09-09", Category: "Tech"})
}

func TestListWritingFilters(t *testing.T) {
	s := setupTestStore(t)
	seedWriting(t, s)

	tests := []struct {
		name   string
		filter WritingFilter
		want   []string
	}{
		{"no filter", WritingFilter{}, []string{"A", "C", "B", "D"}},
		{"all keyword", WritingFilter{Category: "All", Year: "All"}, []string{"A", "C", "B", "D"}},
		{"category only", WritingFilter{Category: "Tech"}, []string{"A", "B"}},
		{"year only", WritingFilter{Year: "2023"}, []string{"A", "C"}},
		{"category and year", WritingFilter{Category: "Tech", Year: "2023"}, []string{"A"}},
		{"category with all years", WritingFilter{Category: "Policy", Year: "All"}, []string{"C"}},
		{"no match", WritingFilter{Category: "Tech", Year: "2021"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListWriting(context.Background(), tt.filter)
			if err != nil {
				t.Fatalf("ListWriting failed: %v", err)
			}
			gotTitles := titles(got)
			if len(gotTitles) != len(tt.want) {
				t.Fatalf("ListWriting(%+v) = %v, want %v", tt.filter, gotTitles, tt.want)
			}
			for i := range tt.want {
				if gotTitles[i] != tt.want[i] {
					t.Fatalf("ListWriting(%+v) = %v, want %v", tt.filter, gotTitles, tt.want)
				}
			}
			for _, e := range got {
				if e.Type != TypeWriting {
					t.Errorf("entry %q has type %q", e.Title, e.Type)
				}
			}
		})
	}
}

func TestWritingYearsAndCategories(t *testing.T) {
	s := setupTestStore(t)
	seedWriting(t, s)
	ctx := context.Background()

	years, err := s.WritingYears(ctx)
	if err != nil {
		t.Fatalf("WritingYears failed: %v", err)
	}
	wantYears := []string{"2023", "2022", "2021"}
	if len(years) != len(wantYears) {
		t.Fatalf("WritingYears = %v, want %v", years, wantYears)
	}
	for i := range wantYears {
		if years[i] != wantYears[i] {
			t.Fatalf("WritingYears = %v, want %v", years, wantYears)
		}
	}

	cats, err := s.WritingCategories(ctx)
	if err != nil {
		t.Fatalf("WritingCategories failed: %v", err)
	}
	if len(cats) != 2 || cats[0] != "Policy" || cats[1] != "Tech" {
		t.Errorf("WritingCategories = %v, want [Policy Tech]", cats)
	}
}

func TestListFeaturedLatestAndByType(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for i, d := range []string{"2020-01-01", "2021-01-01", "2022-01-01", "2023-01-01", "2024-01-01", "2025-01-01"} {
		mustCreate(t, s, ContentEntry{
			Title:    d,
			Type:     TypeWriting,
			Date:     d,
			Featured: i%2 == 0,
		})
	}
	mustCreate(t, s, ContentEntry{Title: "video", Type: TypeMultimedia, Date: "2019-01-01", Featured: true})

	featured, err := s.ListFeatured(ctx, 3)
	if err != nil {
		t.Fatalf("ListFeatured failed: %v", err)
	}
	if got := titles(featured); len(got) != 3 || got[0] != "2024-01-01" || got[2] != "2020-01-01" {
		t.Errorf("ListFeatured = %v", got)
	}

	latest, err := s.ListLatest(ctx, 5)
	if err != nil {
		t.Fatalf("ListLatest failed: %v", err)
	}
	if got := titles(latest); len(got) != 5 || got[0] != "2025-01-01" || got[4] != "2021-01-01" {
		t.Errorf("ListLatest = %v", got)
	}

	media, err := s.ListByType(ctx, TypeMultimedia)
	if err != nil {
		t.Fatalf("ListByType failed: %v", err)
	}
	if got := titles(media); len(got) != 1 || got[0] != "video" {
		t.Errorf("ListByType(Multimedia) = %v", got)
	}
}

func TestSetProfileUpsertKeepsOneRowPerKey(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	for _, v := range []string{"First", "Second"} {
		if err := s.SetProfile(ctx,
			ProfileField{Key: ProfileName, Value: v},
			ProfileField{Key: ProfileAboutImages, Value: "/a.jpg," + v},
		); err != nil {
			t.Fatalf("SetProfile(%s) failed: %v", v, err)
		}
	}

	var rows int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM profile WHERE key IN (?, ?)`, ProfileName, ProfileAboutImages).Scan(&rows); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if rows != 2 {
		t.Errorf("profile rows = %d, want 2", rows)
	}
	p, err := s.Profile(ctx)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if p.Get(ProfileName) != "Second" {
		t.Errorf("name = %q, want Second", p.Get(ProfileName))
	}
	if imgs := p.AboutImages(); len(imgs) != 2 || imgs[1] != "Second" {
		t.Errorf("AboutImages = %v", imgs)
	}
}

func TestProfileValueMissingKey(t *testing.T) {
	s := setupTestStore(t)

	v, err := s.ProfileValue(context.Background(), "nope")
	if err != nil {
		t.Fatalf("ProfileValue failed: %v", err)
	}
	if v != "" {
		t.Errorf("ProfileValue = %q, want empty", v)
	}
}

func TestMessagesLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	first, err := s.AddMessage(ctx, ContactMessage{Name: "Jane", Email: "jane@x.com", Message: "Hello", Date: "2024-03-01 10:00:00"})
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}
	second, err := s.AddMessage(ctx, ContactMessage{Name: "Sam", Email: "sam@x.com", Message: "Hi", Date: "2024-03-02 09:30:00"})
	if err != nil {
		t.Fatalf("AddMessage failed: %v", err)
	}

	msgs, err := s.ListMessages(ctx)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 2 || msgs[0].ID != second || msgs[1].ID != first {
		t.Fatalf("ListMessages = %+v, want newest first", msgs)
	}
	if msgs[1].Name != "Jane" || msgs[1].Email != "jane@x.com" || msgs[1].Message != "Hello" {
		t.Errorf("message fields = %+v", msgs[1])
	}

	if err := s.DeleteMessage(ctx, first); err != nil {
		t.Fatalf("DeleteMessage failed: %v", err)
	}
	if err := s.DeleteMessage(ctx, first); err != nil {
		t.Fatalf("repeat DeleteMessage failed: %v", err)
	}
	msgs, err = s.ListMessages(ctx)
	if err != nil {
		t.Fatalf("ListMessages failed: %v", err)
	}
	if len(msgs) != 1 || msgs[0].ID != second {
		t.Errorf("after delete = %+v", msgs)
	}
}

func TestCheckConstraintRejectsUnknownType(t *testing.T) {
	s := setupTestStore(t)

	_, err := s.CreateContent(context.Background(), ContentEntry{Title: "Bad", Type: ContentType("Poem")})
	if err == nil {
		t.Fatal("expected insert with unknown type to fail")
	}
}
