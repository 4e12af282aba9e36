package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/rl1809/itemstore/internal/core/domain"
	"github.com/rl1809/itemstore/internal/core/service"
)

type HTTPHandler struct {
	itemService    *service.ItemService
	requestTimeout time.Duration
}

type ItemHTTPRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ErrorHTTPResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type DeleteHTTPResponse struct {
	Message string       `json:"message"`
	Item    *domain.Item `json:"item"`
}

func NewHTTPHandler(itemService *service.ItemService, requestTimeout time.Duration) *HTTPHandler {
	return &HTTPHandler{itemService: itemService, requestTimeout: requestTimeout}
}

// Router mounts the item API under /api plus a /health probe.
func (h *HTTPHandler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/items", h.CreateItem).Methods(http.MethodPost, http.MethodOptions)
	api.HandleFunc("/items", h.ListItems).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/items/{id}", h.GetItem).Methods(http.MethodGet, http.MethodOptions)
	api.HandleFunc("/items/{id}", h.UpdateItem).Methods(http.MethodPut, http.MethodOptions)
	api.HandleFunc("/items/{id}", h.DeleteItem).Methods(http.MethodDelete, http.MethodOptions)

	api.Use(mux.CORSMethodMiddleware(api))
	r.Use(corsMiddleware, loggingMiddleware)

	return r
}

func (h *HTTPHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	const message = "Error creating item"

	var req ItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: message, Error: "invalid request body"})
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	item, err := h.itemService.Create(ctx, req.Name, req.Description)
	if err != nil {
		log.Printf("create item: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: message, Error: err.Error()})
		return
	}

	log.Printf("created item %d", item.ItemID)
	writeJSON(w, http.StatusCreated, item)
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	items, err := h.itemService.FindAll(ctx)
	if err != nil {
		log.Printf("list items: %v", err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Message: "Error fetching items", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, items)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}

	itemID, ok := parseItemID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	item, err := h.itemService.FindByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeNotFound(w)
			return
		}
		log.Printf("get item %d: %v", itemID, err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Message: "Error fetching item", Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}
	const message = "Error updating item"

	itemID, ok := parseItemID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	var req ItemHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: message, Error: "invalid request body"})
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	item, err := h.itemService.Update(ctx, itemID, req.Name, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeNotFound(w)
			return
		}
		log.Printf("update item %d: %v", itemID, err)
		writeJSON(w, http.StatusBadRequest, ErrorHTTPResponse{Message: message, Error: err.Error()})
		return
	}

	log.Printf("updated item %d", item.ItemID)
	writeJSON(w, http.StatusOK, item)
}

func (h *HTTPHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		return
	}

	itemID, ok := parseItemID(r)
	if !ok {
		writeNotFound(w)
		return
	}

	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	item, err := h.itemService.Delete(ctx, itemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeNotFound(w)
			return
		}
		log.Printf("delete item %d: %v", itemID, err)
		writeJSON(w, http.StatusInternalServerError, ErrorHTTPResponse{Message: "Error deleting item", Error: err.Error()})
		return
	}

	log.Printf("deleted item %d", item.ItemID)
	writeJSON(w, http.StatusOK, DeleteHTTPResponse{Message: "Item deleted successfully", Item: item})
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := h.withTimeout(r.Context())
	defer cancel()

	if err := h.itemService.Ping(ctx); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *HTTPHandler) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if h.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, h.requestTimeout)
}

// parseItemID reads the {id} path segment; anything that is not an integer
// cannot match an itemId.
func parseItemID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, ErrorHTTPResponse{Message: "Item not found"})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}
