package x402

import "errors"

// Sentinel errors for payment gating operations. All of these are recoverable
// at the request level and surface as 402 responses, except ErrInvalidConfig
// which is fatal at startup.
var (
	// ErrMalformedHeader indicates a wire value that is not valid base64 or JSON.
	ErrMalformedHeader = errors.New("x402: malformed payment header")

	// ErrUnsupportedVersion indicates an unsupported x402 protocol version.
	ErrUnsupportedVersion = errors.New("x402: unsupported protocol version")

	// ErrUnsupportedScheme indicates a payment scheme other than "exact".
	ErrUnsupportedScheme = errors.New("x402: unsupported payment scheme")

	// ErrInvalidPayload indicates a payment payload that fails schema validation.
	ErrInvalidPayload = errors.New("x402: invalid payment payload")

	// ErrInvalidRequirements indicates payment requirements that fail schema validation.
	ErrInvalidRequirements = errors.New("x402: invalid payment requirements")

	// ErrInvalidSettlement indicates a settlement response that fails schema validation.
	ErrInvalidSettlement = errors.New("x402: invalid settlement response")

	// ErrInvalidAmount indicates an invalid base-unit amount string.
	ErrInvalidAmount = errors.New("x402: invalid amount")

	// ErrInvalidPrice indicates a USD price string that is not a non-negative number.
	ErrInvalidPrice = errors.New("x402: invalid price")

	// ErrInvalidNetwork indicates an invalid or unsupported network identifier.
	ErrInvalidNetwork = errors.New("x402: invalid or unsupported network")

	// ErrInvalidConfig indicates pipeline configuration that must prevent startup.
	ErrInvalidConfig = errors.New("x402: invalid configuration")

	// ErrNetworkMismatch indicates the payment targets a different network
	// than the requirement.
	ErrNetworkMismatch = errors.New("x402: payment network mismatch")

	// ErrRecipientMismatch indicates the authorized recipient differs from
	// the required payTo address.
	ErrRecipientMismatch = errors.New("x402: payment recipient mismatch")

	// ErrInsufficientAmount indicates the authorized value is below the
	// required amount.
	ErrInsufficientAmount = errors.New("x402: insufficient payment amount")

	// ErrPaymentNotYetValid indicates the authorization window has not opened.
	ErrPaymentNotYetValid = errors.New("x402: payment authorization not yet valid")

	// ErrPaymentExpired indicates the authorization window has closed.
	ErrPaymentExpired = errors.New("x402: payment authorization expired")

	// ErrFacilitatorUnavailable indicates the facilitator service could not
	// be reached.
	ErrFacilitatorUnavailable = errors.New("x402: facilitator service unavailable")

	// ErrVerificationFailed indicates the facilitator declined verification.
	ErrVerificationFailed = errors.New("x402: payment verification failed")

	// ErrSettlementFailed indicates the facilitator declined or failed settlement.
	ErrSettlementFailed = errors.New("x402: payment settlement failed")
)

// ErrorCode represents payment error codes for programmatic handling.
type ErrorCode string

const (
	// ErrCodeMalformedHeader indicates an undecodable wire value.
	ErrCodeMalformedHeader ErrorCode = "MALFORMED_HEADER"

	// ErrCodeUnsupportedVersion indicates an unsupported protocol version.
	ErrCodeUnsupportedVersion ErrorCode = "UNSUPPORTED_VERSION"

	// ErrCodeUnsupportedScheme indicates an unsupported payment scheme.
	ErrCodeUnsupportedScheme ErrorCode = "UNSUPPORTED_SCHEME"

	// ErrCodeInvalidPayload indicates a payload that failed schema validation.
	ErrCodeInvalidPayload ErrorCode = "INVALID_PAYLOAD"

	// ErrCodeRequirementMismatch indicates a payload that does not satisfy
	// the requirement it was presented against.
	ErrCodeRequirementMismatch ErrorCode = "REQUIREMENT_MISMATCH"

	// ErrCodeSettlementFailed indicates settlement was declined or errored.
	ErrCodeSettlementFailed ErrorCode = "SETTLEMENT_FAILED"

	// ErrCodeInternal indicates an unexpected fault in the pipeline.
	ErrCodeInternal ErrorCode = "INTERNAL"
)

// PaymentError provides structured error information.
type PaymentError struct {
	// Code is the error code for programmatic handling.
	Code ErrorCode

	// Message is the human-readable error message.
	Message string

	// Details contains additional error context.
	Details map[string]interface{}

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *PaymentError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *PaymentError) Unwrap() error {
	return e.Err
}

// NewPaymentError creates a new PaymentError with the given code and message.
func NewPaymentError(code ErrorCode, message string, err error) *PaymentError {
	return &PaymentError{
		Code:    code,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// WithDetails adds additional context to the error.
// Lazily initializes the Details map if nil.
func (e *PaymentError) WithDetails(key string, value interface{}) *PaymentError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// CodeFor maps an error to its ErrorCode by walking the sentinel chain.
// Errors outside the taxonomy map to ErrCodeInternal.
func CodeFor(err error) ErrorCode {
	switch {
	case errors.Is(err, ErrMalformedHeader):
		return ErrCodeMalformedHeader
	case errors.Is(err, ErrUnsupportedVersion):
		return ErrCodeUnsupportedVersion
	case errors.Is(err, ErrUnsupportedScheme):
		return ErrCodeUnsupportedScheme
	case errors.Is(err, ErrInvalidPayload):
		return ErrCodeInvalidPayload
	case errors.Is(err, ErrNetworkMismatch),
		errors.Is(err, ErrRecipientMismatch),
		errors.Is(err, ErrInsufficientAmount),
		errors.Is(err, ErrPaymentNotYetValid),
		errors.Is(err, ErrPaymentExpired):
		return ErrCodeRequirementMismatch
	case errors.Is(err, ErrVerificationFailed),
		errors.Is(err, ErrSettlementFailed),
		errors.Is(err, ErrFacilitatorUnavailable):
		return ErrCodeSettlementFailed
	default:
		return ErrCodeInternal
	}
}
