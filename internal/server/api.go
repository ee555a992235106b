package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"catbattle/internal/card"
	"catbattle/internal/progress"
	"catbattle/internal/telemetry"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
)

func addRoutes(r chi.Router, rr *RouteRegistry, logger *slog.Logger, d Deps) {
	Handle(r, rr, "GET /healthz", "Liveness and storage availability", "", handleHealth(d))
	Handle(r, rr, "GET /_/routes", "List registered routes", "", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, rr.List())
	})
	if d.Metrics != nil {
		Handle(r, rr, "GET /metrics", "Prometheus metrics", "", d.Metrics.ServeHTTP)
	}
	Handle(r, rr, "GET /", "Progress overview page", "", func(w http.ResponseWriter, r *http.Request) {
		templ.Handler(progressPage(d.Store.Progress(), d.Storage.Key())).ServeHTTP(w, r)
	})

	Handle(r, rr, "GET /api/progress", "Current progress snapshot", "", handleGetProgress(d))
	Handle(r, rr, "GET /api/progress/collection", "Collected cards, optionally ?rarity=", "", handleGetCollection(d))
	Handle(r, rr, "POST /api/progress/instructions", "Mark instructions seen", `{"seen":true}`, handleSetInstructions(d))
	Handle(r, rr, "POST /api/progress/tutorial", "Mark tutorial completed", `{"completed":true}`, handleSetTutorial(d))
	Handle(r, rr, "POST /api/progress/screen", "Change the current screen", `{"screen":"pack-selection"}`, handleSetScreen(d))
	Handle(r, rr, "POST /api/progress/first-pack", "Set the first-pack flag", `{"opened":true}`, handleSetFirstPack(d))
	Handle(r, rr, "POST /api/progress/first-pack/claim", "Claim the starter pack once", "", handleClaimFirstPack(d))
	Handle(r, rr, "POST /api/progress/selected-pack", "Select a pack, null clears", `{"packId":2}`, handleSelectPack(d))
	Handle(r, rr, "POST /api/progress/collection", "Add an opened pack to the collection", `{"cards":[{"id":1,"rarity":"common"}]}`, handleAddCards(d))
	Handle(r, rr, "DELETE /api/progress/collection", "Empty the collection", "", handleClearCollection(d))
	Handle(r, rr, "POST /api/progress/reset", "Reset all progress", "", handleReset(d))
	Handle(r, rr, "POST /api/progress/refresh", "Reload progress from storage", "", handleRefresh(d))

	Handle(r, rr, "GET /api/storage", "Storage slot status", "", handleStorageInfo(d))
	Handle(r, rr, "GET /api/telemetry", "Recorded events and stats, optionally ?since=RFC3339&type=pack_opened", "", handleTelemetry(logger, d))
	Handle(r, rr, "DELETE /api/telemetry", "Drop recorded events", "", handleClearTelemetry(logger, d))
}

func handleHealth(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		storage := "ok"
		if !d.Storage.IsStorageAvailable() {
			// progress keeps working in memory
			storage = "unavailable"
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "storage": storage})
	}
}

type progressResponse struct {
	Progress    progress.GameProgress `json:"progress"`
	HasAnyCards bool                  `json:"hasAnyCards"`
}

func snapshot(d Deps) progressResponse {
	p := d.Store.Progress()
	return progressResponse{Progress: p, HasAnyCards: len(p.UserCollection) > 0}
}

func handleGetProgress(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleGetCollection(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var cards []card.Card
		if rarity := r.URL.Query().Get("rarity"); rarity != "" {
			cards = d.Store.CardsByRarity(card.Rarity(rarity))
		} else {
			cards = d.Store.UserCollection()
		}
		writeJSON(w, http.StatusOK, map[string]any{"cards": cards, "count": len(cards)})
	}
}

func handleSetInstructions(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Seen bool `json:"seen"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		d.Store.SetHasSeenInstructions(req.Seen)
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleSetTutorial(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Completed bool `json:"completed"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		d.Store.SetHasCompletedTutorial(req.Completed)
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleSetScreen(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Screen progress.Screen `json:"screen"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		if !req.Screen.Valid() {
			writeErr(w, http.StatusBadRequest, fmt.Sprintf("unknown screen %q, want one of %s", req.Screen, screenList()))
			return
		}
		d.Store.SetCurrentScreen(req.Screen)
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleSetFirstPack(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Opened bool `json:"opened"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		d.Store.SetHasOpenedFirstPack(req.Opened)
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleClaimFirstPack(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if !d.Store.ClaimFirstPack() {
			writeErr(w, http.StatusConflict, "first pack already claimed")
			return
		}
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleSelectPack(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			PackID *int `json:"packId"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid json")
			return
		}
		d.Store.SetSelectedPackID(req.PackID)
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleAddCards(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Cards []card.Card `json:"cards"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeErr(w, http.StatusBadRequest, "invalid cards: "+err.Error())
			return
		}
		added := d.Store.AddCardsToCollection(req.Cards)
		writeJSON(w, http.StatusOK, map[string]any{
			"added":    added,
			"progress": d.Store.Progress(),
		})
	}
}

func handleClearCollection(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		d.Store.ClearCollection()
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleReset(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		d.Store.ResetProgress()
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleRefresh(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		d.Store.RefreshFromStorage()
		writeJSON(w, http.StatusOK, snapshot(d))
	}
}

func handleStorageInfo(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"available": d.Storage.IsStorageAvailable(),
			"key":       d.Storage.Key(),
			"version":   d.Storage.LoadState().Version,
		})
	}
}

func handleTelemetry(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if d.Events == nil {
			writeErr(w, http.StatusNotFound, "telemetry disabled")
			return
		}
		var since time.Time
		if raw := r.URL.Query().Get("since"); raw != "" {
			t, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				writeErr(w, http.StatusBadRequest, "since must be RFC3339")
				return
			}
			since = t
		}
		var types []telemetry.EventType
		for _, v := range r.URL.Query()["type"] {
			for _, t := range strings.Split(v, ",") {
				if t = strings.TrimSpace(t); t != "" {
					types = append(types, telemetry.EventType(t))
				}
			}
		}
		events, err := d.Events.GetEvents(since, types)
		if err != nil {
			logger.Error("reading telemetry", "error", err)
			writeErr(w, http.StatusInternalServerError, "telemetry unavailable")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"events": events,
			"stats":  telemetry.CalculateStats(events, since),
		})
	}
}

func handleClearTelemetry(logger *slog.Logger, d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		if d.Events == nil {
			writeErr(w, http.StatusNotFound, "telemetry disabled")
			return
		}
		if err := d.Events.Clear(); err != nil {
			logger.Error("clearing telemetry", "error", err)
			writeErr(w, http.StatusInternalServerError, "telemetry unavailable")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func screenList() string {
	names := make([]string, len(progress.Screens))
	for i, s := range progress.Screens {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}
