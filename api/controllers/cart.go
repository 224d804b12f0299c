package controllers

import (
	"net/http"

	"github.com/angelboost/storefront-backend/api/middleware"
	"github.com/angelboost/storefront-backend/api/responses"
	"github.com/angelboost/storefront-backend/api/validators"
	cartsvc "github.com/angelboost/storefront-backend/internal/cart"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/logger"
	"github.com/google/uuid"
)

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	// Quantity is optional; an absent field means one unit.
	Quantity *int `json:"quantity"`
}

// FetchCart returns the owner's current cart lines.
func FetchCart(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, logg)
		if !ok {
			return
		}

		lines, err := svc.ListCart(r.Context(), ownerKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, lines)
	}
}

// CartSummary returns the priced view of the owner's cart.
func CartSummary(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, logg)
		if !ok {
			return
		}

		summary, err := svc.Summarize(r.Context(), ownerKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, summary)
	}
}

// AddCartItem merges a quantity of one product into the owner's cart.
func AddCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, logg)
		if !ok {
			return
		}

		var payload addItemRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		quantity := 1
		if payload.Quantity != nil {
			quantity = *payload.Quantity
		}
		if quantity < 1 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInvalidQuantity, "quantity must be a positive integer"))
			return
		}

		line, err := svc.AddLine(r.Context(), ownerKey, payload.ProductID, quantity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, line)
	}
}

// RemoveCartItem decrements one unit of the product, dropping the line at
// zero. Succeeds even when the owner never held the product.
func RemoveCartItem(svc cartsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ownerKey, ok := requireOwner(w, r, logg)
		if !ok {
			return
		}

		productID, err := validators.ParsePathUUID(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.RemoveLine(r.Context(), ownerKey, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "removed"})
	}
}

func requireOwner(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	ownerKey := middleware.OwnerKeyFromContext(r.Context())
	if ownerKey == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "session context missing"))
		return "", false
	}
	return ownerKey, true
}
