package quote

import (
	"encoding/json"
	"errors"
	"net/http"

	validator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/agora-dev/backend-agora/internal/common"
	"github.com/agora-dev/backend-agora/internal/obs"
	"github.com/agora-dev/backend-agora/internal/pricing"
	"github.com/agora-dev/backend-agora/internal/weight"
	"github.com/agora-dev/backend-agora/internal/zone"
)

// Handler exposes the shipping quote endpoint.
type Handler struct {
	Svc      *Service
	Validate *validator.Validate
}

type itemPayload struct {
	ProductID       string `json:"productId" validate:"required,uuid"`
	ProducerID      string `json:"producerId" validate:"required,uuid"`
	Qty             int    `json:"qty" validate:"required,gt=0"`
	UnitPrice       string `json:"unitPrice" validate:"required"`
	UnitWeightGrams int64  `json:"unitWeightGrams" validate:"gte=0"`
}

type addressPayload struct {
	PostalCode string `json:"postalCode" validate:"required"`
	City       string `json:"city"`
	Country    string `json:"country"`
}

type quoteRequest struct {
	Items         []itemPayload  `json:"items" validate:"required,min=1,dive"`
	Address       addressPayload `json:"address" validate:"required"`
	PaymentMethod string         `json:"paymentMethod" validate:"omitempty,oneof=cash_on_delivery card bank_transfer"`
}

// Create computes a shipping quote for the posted cart contents.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if h.Svc == nil {
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "quote service not configured", nil)
		return
	}
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid payload", nil)
		return
	}
	if h.Validate != nil {
		if err := h.Validate.Struct(req); err != nil {
			common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "invalid quote request", common.FieldErrors(err))
			return
		}
	}
	items := make([]Item, 0, len(req.Items))
	for _, p := range req.Items {
		productID, err := uuid.Parse(p.ProductID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid product id", nil)
			return
		}
		producerID, err := uuid.Parse(p.ProducerID)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid producer id", nil)
			return
		}
		price, err := pricing.ParsePrice(p.UnitPrice)
		if err != nil {
			common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid unit price", map[string]any{"unitPrice": p.UnitPrice})
			return
		}
		items = append(items, Item{
			ProductID:       productID,
			ProducerID:      producerID,
			Qty:             p.Qty,
			UnitPriceMinor:  price,
			UnitWeightGrams: p.UnitWeightGrams,
		})
	}
	q, err := h.Svc.Compute(r.Context(), items, Address{
		PostalCode: req.Address.PostalCode,
		City:       req.Address.City,
		Country:    req.Address.Country,
	}, req.PaymentMethod)
	if err != nil {
		h.renderError(w, err)
		return
	}
	obs.ObserveQuote("ok")
	common.JSON(w, http.StatusOK, map[string]any{"data": serialiseQuote(q)})
}

func (h *Handler) renderError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrEmptyCart):
		obs.ObserveQuote("empty_cart")
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "no items to quote", nil)
	case errors.Is(err, zone.ErrUnresolvedZone):
		obs.ObserveQuote("unresolved_zone")
		common.JSONError(w, http.StatusUnprocessableEntity, "UNRESOLVED_ZONE", "postal code does not resolve to a shipping zone", nil)
	case errors.Is(err, weight.ErrUnclassifiable):
		obs.ObserveQuote("unclassifiable_weight")
		common.JSONError(w, http.StatusUnprocessableEntity, "UNCLASSIFIABLE_WEIGHT", "package weight exceeds all configured tiers", nil)
	case errors.Is(err, ErrNoDeliverableMethod):
		obs.ObserveQuote("no_deliverable_method")
		common.JSONError(w, http.StatusUnprocessableEntity, "NO_DELIVERABLE_METHOD", err.Error(), nil)
	default:
		obs.ObserveQuote("error")
		common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "failed to compute shipping quote", nil)
	}
}

func serialiseQuote(q Quote) map[string]any {
	groups := make([]map[string]any, 0, len(q.Groups))
	for _, g := range q.Groups {
		options := make([]map[string]any, 0, len(g.Options))
		for _, opt := range g.Options {
			options = append(options, map[string]any{
				"methodId":   opt.MethodID,
				"methodCode": opt.MethodCode,
				"cost":       pricing.FormatMinor(opt.CostMinor),
				"free":       opt.Free,
			})
		}
		groups = append(groups, map[string]any{
			"producerId":   g.ProducerID.String(),
			"subtotal":     pricing.FormatMinor(g.SubtotalMinor),
			"weightGrams":  g.WeightGrams,
			"weightTier":   g.TierCode,
			"options":      options,
			"selectedCost": pricing.FormatMinor(g.SelectedCostMinor),
		})
	}
	return map[string]any{
		"zone": map[string]any{
			"id":   q.Zone.ID,
			"code": q.Zone.Code,
			"name": q.Zone.Name,
		},
		"groups":           groups,
		"shippingSubtotal": pricing.FormatMinor(q.ShippingSubtotalMinor),
		"codFee":           pricing.FormatMinor(q.CODFeeMinor),
		"total":            pricing.FormatMinor(q.TotalMinor),
	}
}
