package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/responses"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/validators"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/enums"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
)

// InitiatePayment opens a payment attempt at the chosen gateway for a stored
// checkout session.
func InitiatePayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload initiatePaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		gw, err := enums.ParsePaymentGateway(payload.Gateway)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "unknown payment gateway"))
			return
		}

		result, err := svc.InitiateCheckout(r.Context(), payments.InitiateCheckoutInput{
			UserID:        userID,
			SessionID:     payload.SessionID,
			Gateway:       gw,
			PaymentMethod: payload.PaymentMethod,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}

// VerifyPayment settles a payment attempt after the buyer returns from the
// gateway. The same path serves Datafast redirect returns and manual retries.
func VerifyPayment(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		if _, err := currentUserID(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Reconcile(r.Context(), payments.ReconcileInput{
			TransactionID: payload.TransactionID,
			ResourcePath:  payload.ResourcePath,
			SessionID:     payload.SessionID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

// PaymentStatus returns the caller's view of one payment attempt.
func PaymentStatus(svc payments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := currentUserID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transactionID := chi.URLParam(r, "transactionID")
		result, err := svc.Status(r.Context(), userID, transactionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, result)
	}
}

type initiatePaymentRequest struct {
	SessionID     string `json:"session_id" validate:"required"`
	Gateway       string `json:"gateway" validate:"required"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

type verifyPaymentRequest struct {
	TransactionID string `json:"transaction_id" validate:"required"`
	ResourcePath  string `json:"resource_path,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
}
