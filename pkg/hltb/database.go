package hltb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/extract"
)

// DatabaseSource answers queries from a local SQLite snapshot of
// completion times. App-id matches are high confidence, exact normalized
// titles medium, fuzzy title matches low.
type DatabaseSource struct {
	db   *sql.DB
	path string
}

const gamesSchema = `
CREATE TABLE IF NOT EXISTS games (
	app_id        TEXT,
	title         TEXT NOT NULL,
	normalized    TEXT NOT NULL,
	main_story    REAL,
	main_extra    REAL,
	completionist REAL,
	all_styles    REAL
);
CREATE INDEX IF NOT EXISTS idx_games_app_id ON games(app_id);
CREATE INDEX IF NOT EXISTS idx_games_normalized ON games(normalized)`

// OpenDatabase opens or creates the completion database at path. Failures
// here wrap ErrDatabaseLoad: without the file there is nothing to degrade
// to inside this source.
func OpenDatabase(path string) (*DatabaseSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseLoad, err)
	}
	for _, stmt := range strings.Split(gamesSchema, ";") {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("%w: %v", ErrDatabaseLoad, err)
		}
	}
	return &DatabaseSource{db: db, path: path}, nil
}

func (d *DatabaseSource) Name() string { return "database" }

// Close releases the underlying handle.
func (d *DatabaseSource) Close() error { return d.db.Close() }

const selectColumns = "title, main_story, main_extra, completionist, all_styles"

func (d *DatabaseSource) Fetch(ctx context.Context, q Query) (*models.HLTBData, error) {
	if q.AppID != "" {
		data, err := d.scanOne(ctx,
			"SELECT "+selectColumns+" FROM games WHERE app_id = ? LIMIT 1", q.AppID)
		if err != nil {
			return nil, err
		}
		if data != nil {
			data.Confidence = models.ConfidenceHigh
			return data, nil
		}
	}

	normalized := strings.ToLower(extract.NormalizeTitle(q.Title))
	if normalized == "" {
		return nil, ErrNotFound
	}

	data, err := d.scanOne(ctx,
		"SELECT "+selectColumns+" FROM games WHERE normalized = ? LIMIT 1", normalized)
	if err != nil {
		return nil, err
	}
	if data != nil {
		data.Confidence = models.ConfidenceMedium
		return data, nil
	}

	data, err = d.scanOne(ctx,
		"SELECT "+selectColumns+" FROM games WHERE normalized LIKE ? ESCAPE '\\' LIMIT 1",
		"%"+escapeLike(normalized)+"%")
	if err != nil {
		return nil, err
	}
	if data != nil {
		data.Confidence = models.ConfidenceLow
		return data, nil
	}
	return nil, ErrNotFound
}

// escapeLike neutralizes LIKE metacharacters so titles like
// "100% Orange Juice" match literally instead of as wildcards.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

func (d *DatabaseSource) scanOne(ctx context.Context, query string, arg string) (*models.HLTBData, error) {
	var (
		title                                    string
		mainStory, mainExtra, completionist, all sql.NullFloat64
	)
	err := d.db.QueryRowContext(ctx, query, arg).Scan(&title, &mainStory, &mainExtra, &completionist, &all)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database lookup failed: %w", err)
	}
	return &models.HLTBData{
		MainStory:     nullToPtr(mainStory),
		MainExtra:     nullToPtr(mainExtra),
		Completionist: nullToPtr(completionist),
		AllStyles:     nullToPtr(all),
		Source:        models.SourceDatabase,
		MatchedTitle:  title,
	}, nil
}

func nullToPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

// GameRecord is the import shape for seeding the database.
type GameRecord struct {
	AppID         string   `yaml:"app_id" json:"app_id"`
	Title         string   `yaml:"title" json:"title"`
	MainStory     *float64 `yaml:"main_story" json:"main_story"`
	MainExtra     *float64 `yaml:"main_extra" json:"main_extra"`
	Completionist *float64 `yaml:"completionist" json:"completionist"`
	AllStyles     *float64 `yaml:"all_styles" json:"all_styles"`
}

// Import inserts records, replacing any prior row for the same app id.
func (d *DatabaseSource) Import(ctx context.Context, records []GameRecord) (int, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin import: %w", err)
	}
	defer tx.Rollback()

	count := 0
	for _, r := range records {
		if r.AppID != "" {
			if _, err := tx.ExecContext(ctx, "DELETE FROM games WHERE app_id = ?", r.AppID); err != nil {
				return count, fmt.Errorf("failed to replace %s: %w", r.AppID, err)
			}
		}
		_, err := tx.ExecContext(ctx,
			"INSERT INTO games (app_id, title, normalized, main_story, main_extra, completionist, all_styles) VALUES (?, ?, ?, ?, ?, ?, ?)",
			r.AppID, r.Title, strings.ToLower(extract.NormalizeTitle(r.Title)),
			ptrToNull(r.MainStory), ptrToNull(r.MainExtra), ptrToNull(r.Completionist), ptrToNull(r.AllStyles))
		if err != nil {
			return count, fmt.Errorf("failed to insert %q: %w", r.Title, err)
		}
		count++
	}
	if err := tx.Commit(); err != nil {
		return count, fmt.Errorf("failed to commit import: %w", err)
	}
	return count, nil
}

func ptrToNull(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

// Info describes the database for diagnostics.
type Info struct {
	Path      string `json:"path" yaml:"path"`
	GameCount int    `json:"game_count" yaml:"game_count"`
}

// Stats reports the current row count.
func (d *DatabaseSource) Stats(ctx context.Context) (Info, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM games").Scan(&count); err != nil {
		return Info{}, fmt.Errorf("failed to count games: %w", err)
	}
	return Info{Path: d.path, GameCount: count}, nil
}
