package mandate

import (
	"strings"

	"emandate/internal/models"

	"github.com/rs/zerolog"
)

// State names a step of the mandate pipeline. Create runs up to
// StateGatewayRedirectIssued; the webhook and the outbox finish it.
type State string

const (
	StateInitiated             State = "INITIATED"
	StateMerchantUserResolved  State = "MERCHANT_USER_RESOLVED"
	StateSlabResolved          State = "SLAB_RESOLVED"
	StateTransactionRecorded   State = "TRANSACTION_RECORDED"
	StateGatewayRedirectIssued State = "GATEWAY_REDIRECT_ISSUED"
	StateEnquiryFetched        State = "ENQUIRY_FETCHED"
	StateReconciled            State = "RECONCILED"
)

func transition(log zerolog.Logger, state State, fields map[string]interface{}) {
	log.Info().Str("state", string(state)).Fields(fields).Msg("mandate state")
}

// MapRegistrationStatus folds a gateway registration status into a
// Transaction status.
func MapRegistrationStatus(status string) string {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "SUCCESS", "ACTIVE", "REGISTERED", "APPROVED":
		return models.TransactionStatusActive
	case "PENDING", "INITIATED", "IN_PROGRESS":
		return models.TransactionStatusPending
	default:
		return models.TransactionStatusFailed
	}
}
