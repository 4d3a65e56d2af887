package study

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/mind-engage/studyhub/internal/db"
	"github.com/mind-engage/studyhub/internal/exam"
)

func newRepo(t *testing.T) *Repository {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+filepath.Join(t.TempDir(), "study.db")+"?_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { conn.Close() })
	r := NewRepository(db.X(conn, db.DriverSQLite))
	tick := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time {
		tick = tick.Add(time.Second)
		return tick
	}
	return r
}

func TestMaterialsCRUD(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	if _, err := r.CreateMaterial(ctx, MaterialInput{Title: " "}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("empty title: %v", err)
	}
	vpc, err := r.CreateMaterial(ctx, MaterialInput{Title: "VPC Basics", Content: "Subnets and routes", Category: "Networking"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := r.CreateMaterial(ctx, MaterialInput{Title: "OBS", Content: "Buckets hold objects", Category: "Storage"}); err != nil {
		t.Fatal(err)
	}

	all, _ := r.ListMaterials(ctx, "", "")
	if len(all) != 2 || all[0].Title != "OBS" {
		t.Fatalf("want newest first: %+v", all)
	}
	byCat, _ := r.ListMaterials(ctx, "Networking", "")
	if len(byCat) != 1 || byCat[0].ID != vpc.ID {
		t.Fatalf("category filter %+v", byCat)
	}
	bySearch, _ := r.ListMaterials(ctx, "", "BUCKET")
	if len(bySearch) != 1 || bySearch[0].Title != "OBS" {
		t.Fatalf("search %+v", bySearch)
	}

	title := "VPC Deep Dive"
	up, err := r.UpdateMaterial(ctx, vpc.ID, MaterialPatch{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if up.Title != title || up.Content != "Subnets and routes" || !up.UpdatedAt.After(vpc.UpdatedAt) {
		t.Fatalf("partial update %+v", up)
	}
	empty := ""
	if _, err := r.UpdateMaterial(ctx, vpc.ID, MaterialPatch{Content: &empty}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("blank content: %v", err)
	}

	found, err := r.FindMaterialByTitle(ctx, title)
	if err != nil || found.ID != vpc.ID {
		t.Fatalf("find by title: %v", err)
	}

	if err := r.DeleteMaterial(ctx, vpc.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := r.GetMaterial(ctx, vpc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get deleted: %v", err)
	}
	if err := r.DeleteMaterial(ctx, vpc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete twice: %v", err)
	}
}

func TestFlashcards(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	cards, err := r.CreateFlashcards(ctx, []FlashcardInput{
		{Front: "ECS", Back: "Elastic Cloud Server", Category: "Compute"},
		{Front: "OBS", Back: "Object Storage Service", Category: "Storage", Difficulty: "EASY"},
	})
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	if cards[0].Difficulty != exam.DifficultyMedium || cards[1].Difficulty != exam.DifficultyEasy {
		t.Fatalf("difficulty %+v", cards)
	}

	if _, err := r.CreateFlashcards(ctx, []FlashcardInput{
		{Front: "ok", Back: "ok"},
		{Front: "", Back: "missing front"},
	}); !errors.Is(err, ErrInvalid) {
		t.Fatalf("invalid batch: %v", err)
	}
	all, _ := r.ListFlashcards(ctx, "", "")
	if len(all) != 2 {
		t.Fatalf("invalid batch must insert nothing, have %d", len(all))
	}

	easy, _ := r.ListFlashcards(ctx, "", exam.DifficultyEasy)
	if len(easy) != 1 || easy[0].Front != "OBS" {
		t.Fatalf("filter %+v", easy)
	}

	m, _ := r.CreateMaterial(ctx, MaterialInput{Title: "T", Content: "C"})
	linked, err := r.CreateFlashcard(ctx, FlashcardInput{Front: "f", Back: "b", MaterialID: m.ID})
	if err != nil {
		t.Fatal(err)
	}
	got, err := r.GetFlashcard(ctx, linked.ID)
	if err != nil || got.MaterialID != m.ID {
		t.Fatalf("material link: %v %+v", err, got)
	}

	if err := r.DeleteFlashcard(ctx, linked.ID); err != nil {
		t.Fatal(err)
	}
	if err := r.DeleteFlashcard(ctx, linked.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("delete twice: %v", err)
	}
}

func TestSaveGenerated(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)
	id, err := r.SaveGenerated(ctx, GeneratedInput{
		ContentType: "quiz", Source: "api", Input: "long text",
		Output: []string{"q"}, Metadata: map[string]string{"difficulty": "hard"}, Model: "llama3.2",
	})
	if err != nil || id == "" {
		t.Fatalf("save: %v", err)
	}
	if _, err := r.SaveGenerated(ctx, GeneratedInput{ContentType: "summary", Source: "cloud.pdf", Input: "x", Output: "short"}); err != nil {
		t.Fatal(err)
	}

	quiz, err := r.RecentGenerated(ctx, "quiz", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(quiz) != 1 || quiz[0].ID != id || string(quiz[0].Output) != `["q"]` || quiz[0].Metadata["difficulty"] != "hard" {
		t.Fatalf("%+v", quiz)
	}
	all, err := r.RecentGenerated(ctx, "", 5)
	if err != nil || len(all) != 2 {
		t.Fatalf("%v %+v", err, all)
	}
	for _, g := range all {
		if g.ContentType == "summary" && (g.Source != "cloud.pdf" || len(g.Metadata) != 0) {
			t.Fatalf("%+v", g)
		}
	}
}
