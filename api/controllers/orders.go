package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quickplate/ordercore/api/responses"
	"github.com/quickplate/ordercore/api/validators"
	"github.com/quickplate/ordercore/internal/orders"
	"github.com/quickplate/ordercore/internal/tracking"
	"github.com/quickplate/ordercore/pkg/enums"
	pkgerrors "github.com/quickplate/ordercore/pkg/errors"
	"github.com/quickplate/ordercore/pkg/logger"
)

type orderFetcher interface {
	Fetch(ctx context.Context, orderID string) (*orders.Order, error)
}

type statusAdvancer interface {
	AdvanceStatus(ctx context.Context, orderID string, next enums.OrderStatus) (*orders.Order, error)
}

type orderResponse struct {
	orders.Order
	NextStatus *enums.OrderStatus `json:"next_status,omitempty"`
}

func newOrderResponse(order orders.Order) orderResponse {
	resp := orderResponse{Order: order}
	if next, ok := order.Status.NextExpected(); ok {
		resp.NextStatus = &next
	}
	return resp
}

// OrderGet returns the tracked local view, falling back to the
// authoritative snapshot for orders this process does not know.
func OrderGet(store *orders.Store, fetcher orderFetcher, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		order, err := store.Get(orderID)
		if err == nil {
			responses.WriteSuccess(w, newOrderResponse(order))
			return
		}

		snapshot, err := fetcher.Fetch(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderResponse(*snapshot))
	}
}

type trackResponse struct {
	OrderID string         `json:"order_id"`
	State   tracking.State `json:"state"`
}

// OrderTrack joins the order's push topic.
func OrderTrack(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		sub, err := svc.Track(r.Context(), chi.URLParam(r, "orderID"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, trackResponse{OrderID: sub.OrderID(), State: sub.State()})
	}
}

// OrderUntrack leaves the topic. Untracking twice is a no-op.
func OrderUntrack(svc tracking.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "tracking service unavailable"))
			return
		}

		if err := svc.Untrack(chi.URLParam(r, "orderID")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "untracked"})
	}
}

type advanceStatusRequest struct {
	Status string `json:"status,omitempty"`
}

// OrderAdvanceStatus asks the order API to move the order forward.
// With no explicit status the single legal successor is requested,
// which is how the fulfillment dashboard's advance action works.
func OrderAdvanceStatus(store *orders.Store, fetcher orderFetcher, advancer statusAdvancer, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID := chi.URLParam(r, "orderID")

		// An empty body means "advance to the next expected status".
		var payload advanceStatusRequest
		if r.ContentLength != 0 {
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		var next enums.OrderStatus
		if payload.Status != "" {
			parsed, err := enums.ParseOrderStatus(payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			next = parsed
		} else {
			current, err := store.Get(orderID)
			if err != nil {
				snapshot, fetchErr := fetcher.Fetch(r.Context(), orderID)
				if fetchErr != nil {
					responses.WriteError(r.Context(), logg, w, fetchErr)
					return
				}
				current = *snapshot
			}
			successor, ok := current.Status.NextExpected()
			if !ok {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeStateConflict, "order is in a terminal state"))
				return
			}
			next = successor
		}

		updated, err := advancer.AdvanceStatus(r.Context(), orderID, next)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// The server authored the transition; take its word for it.
		order := store.ApplySnapshot(*updated)
		responses.WriteSuccess(w, newOrderResponse(order))
	}
}
