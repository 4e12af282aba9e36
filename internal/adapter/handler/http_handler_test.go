package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/itemstore/internal/adapter/storage"
	"github.com/rl1809/itemstore/internal/core/domain"
	"github.com/rl1809/itemstore/internal/core/service"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	db, err := storage.OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "items.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	adapter := storage.NewSQLiteAdapter(db)
	svc := service.NewItemService(adapter, adapter)
	return NewHTTPHandler(svc, 5*time.Second).Router()
}

func doRequest(t *testing.T, router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestCreateItem_AssignsSequentialIDs(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"pen","description":"blue pen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	pen := decode[map[string]any](t, rec)
	assert.EqualValues(t, 1, pen["itemId"])
	assert.Equal(t, "pen", pen["name"])
	assert.Equal(t, "blue pen", pen["description"])
	assert.Contains(t, pen, "createdAt")
	assert.Contains(t, pen, "updatedAt")
	assert.NotContains(t, pen, "InternalKey")

	rec = doRequest(t, router, http.MethodPost, "/api/items", `{"name":"cup","description":"red cup"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.EqualValues(t, 2, decode[domain.Item](t, rec).ItemID)
}

func TestCreateItem_Validation(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"","description":"d"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode[ErrorHTTPResponse](t, rec)
	assert.Equal(t, "Error creating item", resp.Message)
	assert.NotEmpty(t, resp.Error)

	rec = doRequest(t, router, http.MethodPost, "/api/items", `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/items", "")
	assert.Empty(t, decode[[]domain.Item](t, rec))
}

func TestListItems_NewestFirst(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	for _, name := range []string{"A", "B", "C"} {
		rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"`+name+`","description":"x"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec = doRequest(t, router, http.MethodGet, "/api/items", "")
	require.Equal(t, http.StatusOK, rec.Code)
	items := decode[[]domain.Item](t, rec)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"C", "B", "A"}, []string{items[0].Name, items[1].Name, items[2].Name})
}

func TestGetItem(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"pen","description":"blue pen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodGet, "/api/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	item := decode[domain.Item](t, rec)
	assert.Equal(t, int64(1), item.ItemID)
	assert.Equal(t, "pen", item.Name)

	rec = doRequest(t, router, http.MethodGet, "/api/items/999", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found", decode[ErrorHTTPResponse](t, rec).Message)

	rec = doRequest(t, router, http.MethodGet, "/api/items/not-a-number", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUpdateItem(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"pen","description":"blue pen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[domain.Item](t, rec)

	rec = doRequest(t, router, http.MethodPut, "/api/items/1", `{"name":"pencil","description":"grey pencil","itemId":77}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[domain.Item](t, rec)
	assert.Equal(t, created.ItemID, updated.ItemID, "itemId is immutable")
	assert.Equal(t, "pencil", updated.Name)
	assert.Equal(t, "grey pencil", updated.Description)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	rec = doRequest(t, router, http.MethodGet, "/api/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pencil", decode[domain.Item](t, rec).Name)

	rec = doRequest(t, router, http.MethodPut, "/api/items/1", `{"name":"","description":"y"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Error updating item", decode[ErrorHTTPResponse](t, rec).Message)
}

func TestUpdateItem_NotFound(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPut, "/api/items/999", `{"name":"x","description":"y"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodPut, "/api/items/999", `{"name":"","description":""}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Item not found", decode[ErrorHTTPResponse](t, rec).Message)
}

func TestDeleteItem(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"pen","description":"blue pen"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/items/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DeleteHTTPResponse](t, rec)
	assert.Equal(t, "Item deleted successfully", resp.Message)
	require.NotNil(t, resp.Item)
	assert.Equal(t, int64(1), resp.Item.ItemID)
	assert.Equal(t, "pen", resp.Item.Name)

	rec = doRequest(t, router, http.MethodGet, "/api/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doRequest(t, router, http.MethodDelete, "/api/items/1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateItem_Concurrent(t *testing.T) {
	router := newTestRouter(t)
	total := 30

	var mu sync.Mutex
	seen := make(map[int64]bool)
	var wg sync.WaitGroup

	for i := 0; i < total; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rec := doRequest(t, router, http.MethodPost, "/api/items", `{"name":"n","description":"d"}`)
			if rec.Code != http.StatusCreated {
				t.Errorf("expected 201, got %d: %s", rec.Code, rec.Body.String())
				return
			}
			var item domain.Item
			if err := json.Unmarshal(rec.Body.Bytes(), &item); err != nil {
				t.Errorf("decode: %v", err)
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if seen[item.ItemID] {
				t.Errorf("duplicate itemId %d", item.ItemID)
			}
			seen[item.ItemID] = true
		}()
	}
	wg.Wait()

	assert.Len(t, seen, total)
}

func TestCORSPreflight(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodOptions, "/api/items/1", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete)
}

func TestHealthCheck(t *testing.T) {
	router := newTestRouter(t)

	rec := doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
