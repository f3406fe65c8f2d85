package router

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/cache"
	"github.com/gamelens/gamelens/pkg/detect"
	"github.com/gamelens/gamelens/pkg/engine"
	"github.com/gamelens/gamelens/pkg/hltb"
	"github.com/gamelens/gamelens/pkg/perf"
	"github.com/gamelens/gamelens/pkg/settings"
	"github.com/gamelens/gamelens/pkg/storage"
)

type fixedSource struct {
	data *models.HLTBData
	err  error
}

func (f *fixedSource) Name() string { return "fixed" }

func (f *fixedSource) Fetch(_ context.Context, _ hltb.Query) (*models.HLTBData, error) {
	return f.data, f.err
}

func setupRouter(t *testing.T, src hltb.Source) *Router {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := models.DefaultConfig()
	store := storage.NewMemoryStore()
	svc := settings.NewService(store)
	pm := perf.Nop()
	c := cache.New(src, store, svc, pm, logger)
	det := detect.NewDetector(cfg, nil, pm, logger)
	e := engine.New(cfg, det, c, svc, pm, logger)
	return New(e, svc, nil, logger)
}

func handle(t *testing.T, r *Router, action, payload string) Response {
	t.Helper()
	req := Request{Action: action}
	if payload != "" {
		req.Payload = json.RawMessage(payload)
	}
	return r.Handle(context.Background(), req)
}

func TestHandle_UnknownAction(t *testing.T) {
	r := setupRouter(t, &fixedSource{})
	got := handle(t, r, "teleport", "")
	if got.Success {
		t.Fatal("unknown action succeeded")
	}
	if got.Error != "Unknown action: teleport" {
		t.Errorf("Error = %q, want %q", got.Error, "Unknown action: teleport")
	}
}

func TestHandle_FetchHLTB(t *testing.T) {
	r := setupRouter(t, &fixedSource{data: &models.HLTBData{
		MainStory: models.Hours(10), Source: models.SourceDatabase,
	}})

	got := handle(t, r, "fetchHLTB", `{"gameTitle":"Some Game","appId":"123"}`)
	if !got.Success {
		t.Fatalf("fetchHLTB failed: %s", got.Error)
	}
	data, ok := got.Data.(*models.HLTBData)
	if !ok || data.MainStory == nil || *data.MainStory != 10 {
		t.Errorf("Data = %#v, want the fetched record", got.Data)
	}
}

func TestHandle_FetchHLTBValidation(t *testing.T) {
	r := setupRouter(t, &fixedSource{data: &models.HLTBData{}})

	tests := []struct {
		name    string
		payload string
		wantErr string
	}{
		{"missing payload", "", "payload is required"},
		{"missing title", `{"appId":"123"}`, "gameTitle is required"},
		{"non-string title", `{"gameTitle":42}`, "invalid payload"},
		{"title too long", `{"gameTitle":"` + strings.Repeat("x", 201) + `"}`, "exceeds 200"},
		{"non-digit appId", `{"gameTitle":"ok","appId":"12a4"}`, "only digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := handle(t, r, "fetchHLTB", tt.payload)
			if got.Success {
				t.Fatal("invalid input accepted")
			}
			if !strings.Contains(got.Error, tt.wantErr) {
				t.Errorf("Error = %q, want containing %q", got.Error, tt.wantErr)
			}
		})
	}
}

func TestHandle_ClearCache(t *testing.T) {
	r := setupRouter(t, &fixedSource{data: &models.HLTBData{MainStory: models.Hours(1)}})
	handle(t, r, "fetchHLTB", `{"gameTitle":"A Game"}`)

	got := handle(t, r, "clearCache", "")
	if !got.Success {
		t.Fatalf("clearCache failed: %s", got.Error)
	}
	if !strings.Contains(got.Message, "1") {
		t.Errorf("Message = %q, want count of 1", got.Message)
	}
}

func TestHandle_GetSettingsDefaults(t *testing.T) {
	r := setupRouter(t, &fixedSource{})

	got := handle(t, r, "getSettings", "")
	if !got.Success || got.Settings == nil {
		t.Fatalf("getSettings = %+v", got)
	}
	want := models.DefaultSettings()
	if *got.Settings != want {
		t.Errorf("Settings = %+v, want %+v", *got.Settings, want)
	}
}

func TestHandle_BatchFetch(t *testing.T) {
	r := setupRouter(t, &fixedSource{data: &models.HLTBData{MainStory: models.Hours(2)}})

	got := handle(t, r, "batchFetch", `{"games":[{"gameTitle":"A"},{"gameTitle":"B","appId":"7"}]}`)
	if !got.Success {
		t.Fatalf("batchFetch failed: %s", got.Error)
	}
	results, ok := got.Data.([]engine.BatchResult)
	if !ok || len(results) != 2 {
		t.Fatalf("Data = %#v, want 2 batch results", got.Data)
	}

	empty := handle(t, r, "batchFetch", `{"games":[]}`)
	if empty.Success {
		t.Error("empty batch accepted")
	}
}

func TestHandle_StatsAndHealth(t *testing.T) {
	r := setupRouter(t, &fixedSource{data: &models.HLTBData{MainStory: models.Hours(2)}})

	if got := handle(t, r, "healthCheck", ""); !got.Success {
		t.Errorf("healthCheck = %+v", got)
	}
	if got := handle(t, r, "getCacheStats", ""); !got.Success {
		t.Errorf("getCacheStats = %+v", got)
	}
	if got := handle(t, r, "getStats", ""); !got.Success {
		t.Errorf("getStats = %+v", got)
	}
	if got := handle(t, r, "getDiagnostics", ""); !got.Success {
		t.Errorf("getDiagnostics = %+v", got)
	}
}

func TestHandle_DatabaseInfoWithoutDatabase(t *testing.T) {
	r := setupRouter(t, &fixedSource{})
	got := handle(t, r, "getDatabaseInfo", "")
	if got.Success {
		t.Error("getDatabaseInfo succeeded with no database configured")
	}
}
