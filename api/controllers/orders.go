package controllers

import (
	"net/http"

	"github.com/angelboost/storefront-backend/api/responses"
	ordersvc "github.com/angelboost/storefront-backend/internal/orders"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/logger"
)

// OrderHistory returns the owner's purchases grouped by checkout batch.
func OrderHistory(svc ordersvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "order service unavailable"))
			return
		}

		ownerKey, ok := requireOwner(w, r, logg)
		if !ok {
			return
		}

		batches, err := svc.History(r.Context(), ownerKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, batches)
	}
}
