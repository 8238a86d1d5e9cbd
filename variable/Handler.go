package variable

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/mux"
)

// Handler is the service side of variable distribution. Each table is
// a single snapshot slot; a push swaps the whole document under one
// lock so a concurrent pull sees either the previous snapshot or the
// new one, never a mixture.
type Handler struct {
	mu     sync.RWMutex
	tables map[string]Snapshot
}

// NewHandler returns an empty variable service handler
func NewHandler() *Handler {
	return &Handler{tables: make(map[string]Snapshot)}
}

// Router returns the HTTP routes of the service
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	r.HandleFunc("/tables/{table}/variables", h.put).Methods(http.MethodPut)
	r.HandleFunc("/tables/{table}/variables", h.get).Methods(http.MethodGet)
	return r
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	var s Snapshot
	if err := json.NewDecoder(r.Body).Decode(&s); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Policy.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	h.mu.Lock()
	h.tables[table] = s
	h.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	table := mux.Vars(r)["table"]

	h.mu.RLock()
	s, ok := h.tables[table]
	h.mu.RUnlock()

	if !ok {
		http.Error(w, "no snapshot pushed", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
