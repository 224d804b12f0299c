package controllers

import (
	"net/http"

	"github.com/angelboost/storefront-backend/api/responses"
	checkoutsvc "github.com/angelboost/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/logger"
)

// Checkout commits the owner's whole cart as one order batch.
func Checkout(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		ownerKey, ok := requireOwner(w, r, logg)
		if !ok {
			return
		}

		receipt, err := svc.Commit(r.Context(), ownerKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
