// Package router exposes the engine over a {action, payload} request /
// {success, data|error} response contract. The engine treats this layer
// purely as its caller.
package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/gamelens/gamelens/models"
	"github.com/gamelens/gamelens/pkg/engine"
	"github.com/gamelens/gamelens/pkg/hltb"
)

const maxTitleLength = 200

// Request is one routed message.
type Request struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Response is the uniform reply envelope.
type Response struct {
	Success  bool             `json:"success"`
	Data     interface{}      `json:"data,omitempty"`
	Error    string           `json:"error,omitempty"`
	Message  string           `json:"message,omitempty"`
	Settings *models.Settings `json:"settings,omitempty"`
}

// Router dispatches actions. The database handle is optional; without it
// getDatabaseInfo reports accordingly.
type Router struct {
	engine   *engine.Engine
	settings SettingsReader
	database *hltb.DatabaseSource
	logger   *slog.Logger
}

// SettingsReader is the slice of the settings service the router needs.
type SettingsReader interface {
	Get(ctx context.Context) (models.Settings, error)
}

// New builds a Router.
func New(e *engine.Engine, settings SettingsReader, db *hltb.DatabaseSource, logger *slog.Logger) *Router {
	return &Router{engine: e, settings: settings, database: db, logger: logger}
}

// Handle routes one request. It always returns a response; malformed caller
// input is the one case reported as an immediate validation failure.
func (r *Router) Handle(ctx context.Context, req Request) Response {
	switch req.Action {
	case "fetchHLTB":
		return r.fetchHLTB(ctx, req.Payload)
	case "clearCache":
		return r.clearCache(ctx)
	case "getCacheStats":
		return Response{Success: true, Data: r.engine.Cache().CurrentStats()}
	case "getDiagnostics":
		return r.diagnostics(ctx)
	case "batchFetch":
		return r.batchFetch(ctx, req.Payload)
	case "getSettings":
		settings, _ := r.settings.Get(ctx)
		return Response{Success: true, Settings: &settings}
	case "healthCheck":
		return Response{Success: true, Data: map[string]string{"status": "ok"}}
	case "getStats":
		return r.stats()
	case "getDatabaseInfo":
		return r.databaseInfo(ctx)
	default:
		return Response{Success: false, Error: fmt.Sprintf("Unknown action: %s", req.Action)}
	}
}

type fetchPayload struct {
	GameTitle string `json:"gameTitle"`
	AppID     string `json:"appId,omitempty"`
}

func (r *Router) fetchHLTB(ctx context.Context, payload json.RawMessage) Response {
	var p fetchPayload
	if err := decodePayload(payload, &p); err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	if err := validateFetch(p); err != nil {
		return Response{Success: false, Error: err.Error()}
	}

	data, err := r.engine.Fetch(ctx, p.GameTitle, p.AppID)
	if err != nil {
		r.logger.Debug("fetchHLTB failed", "title", p.GameTitle, "error", err)
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true, Data: data}
}

func validateFetch(p fetchPayload) error {
	if p.GameTitle == "" {
		return fmt.Errorf("gameTitle is required")
	}
	if len(p.GameTitle) > maxTitleLength {
		return fmt.Errorf("gameTitle exceeds %d characters", maxTitleLength)
	}
	if p.AppID != "" && !allDigits(p.AppID) {
		return fmt.Errorf("appId must contain only digits")
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func (r *Router) clearCache(ctx context.Context) Response {
	removed, err := r.engine.Cache().Clear(ctx)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true, Message: fmt.Sprintf("Cleared %d cached entries", removed)}
}

type batchPayload struct {
	Games []engine.BatchGame `json:"games"`
}

func (r *Router) batchFetch(ctx context.Context, payload json.RawMessage) Response {
	var p batchPayload
	if err := decodePayload(payload, &p); err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	if len(p.Games) == 0 {
		return Response{Success: false, Error: "games array is required"}
	}
	for _, g := range p.Games {
		if err := validateFetch(fetchPayload{GameTitle: g.Title, AppID: g.AppID}); err != nil {
			return Response{Success: false, Error: err.Error()}
		}
	}
	return Response{Success: true, Data: r.engine.BatchFetch(ctx, p.Games)}
}

func (r *Router) stats() Response {
	pm := r.engine.Perf()
	return Response{Success: true, Data: map[string]interface{}{
		"cache":      r.engine.Cache().CurrentStats(),
		"hitRate":    pm.HitRate(),
		"benchmarks": pm.Benchmarks(),
	}}
}

func (r *Router) diagnostics(ctx context.Context) Response {
	diag := map[string]interface{}{
		"cache":      r.engine.Cache().CurrentStats(),
		"benchmarks": r.engine.Perf().Benchmarks(),
	}
	if r.database != nil {
		if info, err := r.database.Stats(ctx); err == nil {
			diag["database"] = info
		} else {
			diag["databaseError"] = err.Error()
		}
	}
	settings, _ := r.settings.Get(ctx)
	diag["settings"] = settings
	return Response{Success: true, Data: diag}
}

func (r *Router) databaseInfo(ctx context.Context) Response {
	if r.database == nil {
		return Response{Success: false, Error: "no local database configured"}
	}
	info, err := r.database.Stats(ctx)
	if err != nil {
		return Response{Success: false, Error: err.Error()}
	}
	return Response{Success: true, Data: info}
}

// decodePayload rejects structurally invalid payloads (wrong types
// included) as validation errors.
func decodePayload(payload json.RawMessage, into interface{}) error {
	if len(payload) == 0 {
		return fmt.Errorf("payload is required")
	}
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return fmt.Errorf("invalid payload: %v", err)
	}
	return nil
}
