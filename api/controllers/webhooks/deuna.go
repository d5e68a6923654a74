package webhooks

import (
	"io"
	"net/http"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/responses"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/internal/payments/gateway"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
	"github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/logger"
)

const deunaSignatureHeader = "X-DeUna-Signature"

type deunaParser interface {
	ParseWebhook(body []byte, signature string) (*gateway.VerificationResult, error)
}

// DeUnaWebhook receives DeUna's server-to-server payment notifications and
// funnels them into the shared reconciliation path.
func DeUnaWebhook(svc payments.Service, parser deunaParser, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}
		if parser == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "deuna client unavailable"))
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		verification, err := parser.ParseWebhook(body, r.Header.Get(deunaSignatureHeader))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Reconcile(ctx, payments.ReconcileInput{
			TransactionID: verification.TransactionID,
			Verification:  verification,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(logg.WithTransactionID(ctx, result.TransactionID), "deuna webhook reconciled")
		}
		responses.WriteSuccess(w, map[string]string{
			"transaction_id": result.TransactionID,
			"status":         result.Status.String(),
		})
	}
}
