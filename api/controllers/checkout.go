package controllers

import (
	"net/http"

	"github.com/quickplate/ordercore/api/responses"
	"github.com/quickplate/ordercore/api/validators"
	checkoutsvc "github.com/quickplate/ordercore/internal/checkout"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
)

// CheckoutSubmit converts the current cart into a paid order.
func CheckoutSubmit(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var payload checkoutsvc.SubmitInput
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		receipt, err := svc.Submit(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, receipt)
	}
}
