package rateimport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func newImportRouter(t *testing.T, store *stubStore) *chi.Mux {
	t.Helper()
	h := &Handler{
		Svc:      newService(store, testLookups(t)),
		Validate: validator.New(),
	}
	r := chi.NewRouter()
	r.Put("/api/v1/producers/{producerID}/shipping-rates", h.Replace)
	return r
}

func TestReplaceAcceptsValidUpload(t *testing.T) {
	store := &stubStore{}
	router := newImportRouter(t, store)

	body := `{
		"columns": ["shipping_zone_id", "weight_tier_code", "delivery_method_code", "price"],
		"rows": [
			["1", "light", "standard", "2.50"],
			["2", "heavy", "express", "7.90"]
		]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/producers/"+producer.String()+"/shipping-rates", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, store.calls)
	require.Len(t, store.replaced, 2)

	var resp struct {
		Data Result `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, 2, resp.Data.Accepted)
}

func TestReplaceRejectsRowErrorsWithFullList(t *testing.T) {
	store := &stubStore{}
	router := newImportRouter(t, store)

	body := `{
		"columns": ["shipping_zone_id", "weight_tier_code", "delivery_method_code", "price"],
		"rows": [
			["1", "light", "standard", "2.50"],
			["9", "light", "standard", "2.50"],
			["1", "mega", "standard", "2.50"]
		]
	}`
	req := httptest.NewRequest(http.MethodPut, "/api/v1/producers/"+producer.String()+"/shipping-rates", strings.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Equal(t, 0, store.calls)

	var resp struct {
		Error struct {
			Code    string     `json:"code"`
			Details []RowError `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "IMPORT_REJECTED", resp.Error.Code)
	require.Len(t, resp.Error.Details, 2)
	require.Equal(t, 3, resp.Error.Details[0].Row)
	require.Equal(t, 4, resp.Error.Details[1].Row)
}

func TestReplaceRejectsBadProducerID(t *testing.T) {
	store := &stubStore{}
	router := newImportRouter(t, store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/producers/not-a-uuid/shipping-rates", strings.NewReader(`{"columns":["price"]}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, 0, store.calls)
}

func TestReplaceRejectsMissingColumns(t *testing.T) {
	store := &stubStore{}
	router := newImportRouter(t, store)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/producers/"+producer.String()+"/shipping-rates", strings.NewReader(`{"rows": []}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION")
}
