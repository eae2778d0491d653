package quote

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	validator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
)

func quoteBody(postal, payment string) string {
	return `{
		"items": [
			{"productId": "` + productX.String() + `", "producerId": "` + producerA.String() + `", "qty": 2, "unitPrice": "12.50", "unitWeightGrams": 400}
		],
		"address": {"postalCode": "` + postal + `", "city": "Athens", "country": "GR"},
		"paymentMethod": "` + payment + `"
	}`
}

func newQuoteHandler(t *testing.T) *Handler {
	t.Helper()
	return &Handler{
		Svc:      &Service{Source: stubSource{tables: testTables(t, nil, nil)}, CODFeeMinor: 200},
		Validate: validator.New(),
	}
}

func TestCreateQuoteOK(t *testing.T) {
	h := newQuoteHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/quotes", strings.NewReader(quoteBody("10431", "cash_on_delivery")))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp struct {
		Data struct {
			Zone struct {
				Code string `json:"code"`
			} `json:"zone"`
			ShippingSubtotal string `json:"shippingSubtotal"`
			CODFee           string `json:"codFee"`
			Total            string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, "ATH", resp.Data.Zone.Code)
	require.Equal(t, "3.00", resp.Data.ShippingSubtotal)
	require.Equal(t, "2.00", resp.Data.CODFee)
	require.Equal(t, "5.00", resp.Data.Total)
}

func TestCreateQuoteUnresolvedZone(t *testing.T) {
	h := newQuoteHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/quotes", strings.NewReader(quoteBody("99999", "card")))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "UNRESOLVED_ZONE")
}

func TestCreateQuoteRejectsInvalidPayload(t *testing.T) {
	h := newQuoteHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/quotes", strings.NewReader(`{"items": []}`))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	require.Contains(t, rr.Body.String(), "VALIDATION")
}

func TestCreateQuoteRejectsBadPrice(t *testing.T) {
	h := newQuoteHandler(t)

	body := `{
		"items": [
			{"productId": "` + productX.String() + `", "producerId": "` + producerA.String() + `", "qty": 1, "unitPrice": "12.505", "unitWeightGrams": 100}
		],
		"address": {"postalCode": "10431"}
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shipping/quotes", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.Create(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Contains(t, rr.Body.String(), "invalid unit price")
}
