package replay

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/imSanko/circuit-training/timestep"
)

// DefaultTable is the training table name used by a single run.
const DefaultTable = "training_table"

// WriteRequest is the actor-side payload appending trajectories to a
// table.
type WriteRequest struct {
	SentAtMs     int64                 `json:"sent_at_ms"`
	Trajectories []timestep.Trajectory `json:"trajectories"`
}

// ReadResponse carries trajectories back to the learner.
type ReadResponse struct {
	Generation   uint64                `json:"generation"`
	Trajectories []timestep.Trajectory `json:"trajectories"`
}

// CountResponse reports the size of a table's current window.
type CountResponse struct {
	Count      int    `json:"count"`
	Generation uint64 `json:"generation"`
}

// ClearResponse reports how many trajectories a clear removed.
type ClearResponse struct {
	Removed    int    `json:"removed"`
	Generation uint64 `json:"generation"`
}

// Handler is the HTTP surface of the trajectory buffer service.
// Tables are created on first use.
type Handler struct {
	mu     sync.Mutex
	tables map[string]*Table
}

// NewHandler returns an empty buffer service handler
func NewHandler() *Handler {
	return &Handler{tables: make(map[string]*Table)}
}

func (h *Handler) table(name string) *Table {
	h.mu.Lock()
	defer h.mu.Unlock()

	t, ok := h.tables[name]
	if !ok {
		t = NewTable(name)
		h.tables[name] = t
	}
	return t
}

// Router returns the HTTP routes of the service
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/tables/{table}/trajectories", h.write).Methods(http.MethodPost)
	r.HandleFunc("/tables/{table}/trajectories", h.read).Methods(http.MethodGet)
	r.HandleFunc("/tables/{table}/count", h.count).Methods(http.MethodGet)
	r.HandleFunc("/tables/{table}/clear", h.clear).Methods(http.MethodPost)
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) write(w http.ResponseWriter, r *http.Request) {
	table := h.table(mux.Vars(r)["table"])

	var req WriteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	for i := range req.Trajectories {
		table.Write(req.Trajectories[i])
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) read(w http.ResponseWriter, r *http.Request) {
	table := h.table(mux.Vars(r)["table"])

	limit := table.Count()
	if value := r.URL.Query().Get("limit"); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			http.Error(w, "limit must be a positive integer",
				http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trajectories, err := table.Read(limit)
	if err != nil {
		if IsEmptyTable(err) || IsInsufficientData(err) {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := ReadResponse{
		Generation:   table.Generation(),
		Trajectories: trajectories,
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) count(w http.ResponseWriter, r *http.Request) {
	table := h.table(mux.Vars(r)["table"])

	resp := CountResponse{
		Count:      table.Count(),
		Generation: table.Generation(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (h *Handler) clear(w http.ResponseWriter, r *http.Request) {
	table := h.table(mux.Vars(r)["table"])

	removed := table.Clear()
	resp := ClearResponse{
		Removed:    removed,
		Generation: table.Generation(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
