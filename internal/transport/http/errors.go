package httptransport

import (
	"encoding/json"
	"net/http"

	dErrors "ryegate/pkg/domain-errors"
)

// statusByCode maps the error taxonomy to HTTP statuses. Compliance
// rejections are 403s: the request was understood and refused by policy.
var statusByCode = map[dErrors.Code]int{
	dErrors.CodeUnauthorized: http.StatusForbidden,
	dErrors.CodeBadRequest:   http.StatusBadRequest,
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeConflict:     http.StatusConflict,

	dErrors.CodePaused:        http.StatusForbidden,
	dErrors.CodeNotKYCd:       http.StatusForbidden,
	dErrors.CodeNotAccredited: http.StatusForbidden,
	dErrors.CodeLockupActive:  http.StatusForbidden,

	dErrors.CodeInsufficientBalance: http.StatusUnprocessableEntity,
	dErrors.CodeInvariantViolation:  http.StatusUnprocessableEntity,

	dErrors.CodeInvalidPeriod:             http.StatusBadRequest,
	dErrors.CodeDuplicatePeriod:           http.StatusConflict,
	dErrors.CodeEBITDAExceedsRevenue:      http.StatusBadRequest,
	dErrors.CodeDistributionExceedsEBITDA: http.StatusBadRequest,
	dErrors.CodeMissingEvidence:           http.StatusBadRequest,
	dErrors.CodeNoReports:                 http.StatusNotFound,

	dErrors.CodeAlreadyDistributed: http.StatusConflict,
	dErrors.CodeInsufficientPool:   http.StatusUnprocessableEntity,
	dErrors.CodeNoYield:            http.StatusNotFound,
}

// userMessageByCode carries the investor-facing wording for the rejections
// investors actually hit. Codes without an entry surface their domain
// message unchanged.
var userMessageByCode = map[dErrors.Code]string{
	dErrors.CodeNotKYCd:             "Please complete KYC verification with our broker-dealer before investing.",
	dErrors.CodeNotAccredited:       "Reg D notes require accredited investor status.",
	dErrors.CodeLockupActive:        "Your tokens are in a 12-month lockup period.",
	dErrors.CodePaused:              "Trading is currently paused.",
	dErrors.CodeInvariantViolation:  "The offering is fully subscribed.",
	dErrors.CodeNoYield:             "No yield available to claim at this time.",
	dErrors.CodeInsufficientBalance: "Insufficient funds to complete this transaction.",
}

const genericFailureMessage = "Transaction failed, please try again"

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError renders a coded error as a JSON envelope. Uncoded errors never
// leak their text; they collapse into the generic 500.
func writeError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		status = http.StatusInternalServerError
	}

	message := userMessageByCode[code]
	if message == "" {
		if status == http.StatusInternalServerError {
			message = genericFailureMessage
		} else {
			message = dErrors.MessageOf(err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{
		Error:   string(code),
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
