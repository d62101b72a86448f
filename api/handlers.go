package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"unegui-scraper/models"
	"unegui-scraper/services"
	"unegui-scraper/utils"
)

// Handler serves a read-only view of one analysis run.
type Handler struct {
	report   *models.InsightReport
	listings []*models.Listing
	logger   *utils.Logger
}

func NewHandler(report *models.InsightReport, listings []*models.Listing, logger *utils.Logger) *Handler {
	return &Handler{report: report, listings: listings, logger: logger}
}

// Router registers every route on a new gorilla/mux router.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	// Routes sit on the root router so a wrong method gets 405, not 404.
	r.HandleFunc("/healthz", h.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/summary", h.handleSummary).Methods(http.MethodGet)
	r.HandleFunc("/api/districts", h.handleDistricts).Methods(http.MethodGet)
	r.HandleFunc("/api/rooms", h.handleRooms).Methods(http.MethodGet)
	r.HandleFunc("/api/listings", h.handleListings).Methods(http.MethodGet)
	return r
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.report)
}

func (h *Handler) handleDistricts(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, nonNil(h.report.ByDistrict))
}

func (h *Handler) handleRooms(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, nonNil(h.report.ByRooms))
}

// handleListings filters by ?district= (any spelling the alias table
// knows) and ?rooms=.
func (h *Handler) handleListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	district := ""
	if raw := q.Get("district"); raw != "" {
		district = services.CanonicalDistrict(raw)
	}

	rooms := -1
	if raw := q.Get("rooms"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "rooms must be a non-negative integer", http.StatusBadRequest)
			return
		}
		rooms = n
	}

	out := make([]*models.Listing, 0, len(h.listings))
	for _, l := range h.listings {
		if district != "" && l.District != district {
			continue
		}
		if rooms >= 0 && (l.Rooms == nil || *l.Rooms != rooms) {
			continue
		}
		out = append(out, l)
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("[api] Encode response: %v", err)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
