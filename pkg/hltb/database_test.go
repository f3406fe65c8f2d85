package hltb

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gamelens/gamelens/models"
)

func setupTestDB(t *testing.T) *DatabaseSource {
	t.Helper()
	db, err := OpenDatabase(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatalf("OpenDatabase() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Import(context.Background(), []GameRecord{
		{AppID: "123456", Title: "Some Game™", MainStory: models.Hours(12), MainExtra: models.Hours(20)},
		{AppID: "570", Title: "Arena of Ancients", AllStyles: models.Hours(1000)},
		{AppID: "777", Title: "Empty Shell"},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	return db
}

func TestDatabaseSource_AppIDMatchIsHighConfidence(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Fetch(context.Background(), Query{Title: "Wrong Title", AppID: "123456"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Confidence != models.ConfidenceHigh {
		t.Errorf("Confidence = %q, want high for app-id match", got.Confidence)
	}
	if got.MainStory == nil || *got.MainStory != 12 {
		t.Errorf("MainStory = %v, want 12", got.MainStory)
	}
	if got.Source != models.SourceDatabase {
		t.Errorf("Source = %q, want database", got.Source)
	}
}

func TestDatabaseSource_TitleMatchNormalizes(t *testing.T) {
	db := setupTestDB(t)

	// Import stored "Some Game™"; the query carries a differently decorated
	// rendition of the same title.
	got, err := db.Fetch(context.Background(), Query{Title: "Some  Game™"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Confidence != models.ConfidenceMedium {
		t.Errorf("Confidence = %q, want medium for exact normalized title", got.Confidence)
	}
}

func TestDatabaseSource_FuzzyMatchIsLowConfidence(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Fetch(context.Background(), Query{Title: "Arena"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %q, want low for fuzzy match", got.Confidence)
	}
}

func TestDatabaseSource_FuzzyMatchTreatsPercentLiterally(t *testing.T) {
	db := setupTestDB(t)

	// "100" and "orange juice" with anything between would satisfy an
	// unescaped wildcard; only the literal percent title may match.
	_, err := db.Import(context.Background(), []GameRecord{
		{AppID: "900", Title: "100 Crates of Orange Juice", MainStory: models.Hours(2)},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	if _, err := db.Fetch(context.Background(), Query{Title: "100% Orange Juice"}); !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound (percent must not act as a wildcard)", err)
	}

	_, err = db.Import(context.Background(), []GameRecord{
		{AppID: "901", Title: "100% Orange Juice", AllStyles: models.Hours(60)},
	})
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}

	got, err := db.Fetch(context.Background(), Query{Title: "100% Orange"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.MatchedTitle != "100% Orange Juice" {
		t.Errorf("MatchedTitle = %q, want the literal percent title", got.MatchedTitle)
	}
	if got.Confidence != models.ConfidenceLow {
		t.Errorf("Confidence = %q, want low for fuzzy match", got.Confidence)
	}
}

func TestDatabaseSource_NotFound(t *testing.T) {
	db := setupTestDB(t)

	_, err := db.Fetch(context.Background(), Query{Title: "Nonexistent Game"})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Fetch() error = %v, want ErrNotFound", err)
	}
}

func TestDatabaseSource_NullFieldsStayNil(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.Fetch(context.Background(), Query{AppID: "777", Title: "Empty Shell"})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.HasData() {
		t.Errorf("HasData() = true for all-null record, want false: %+v", got)
	}
}

func TestDatabaseSource_Stats(t *testing.T) {
	db := setupTestDB(t)

	info, err := db.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats() error = %v", err)
	}
	if info.GameCount != 3 {
		t.Errorf("GameCount = %d, want 3", info.GameCount)
	}
}
