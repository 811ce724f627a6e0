package ports

import "errors"

// Standard application-level errors.
// Adapters should wrap underlying infrastructure errors with these standard errors.
var (
	// Kernel Errors
	//
	// ErrIllegalTransition and ErrUpstreamHalted are unrecoverable within a
	// cycle: the cycle aborts without mutating the position and the failure
	// surfaces to the caller. ErrRiskUnevaluable and ErrMalformedMandate are
	// recovered locally by excluding the single offending mandate; the
	// exclusion is visible in the arbitration result's discard list.
	ErrIllegalTransition = errors.New("illegal position state transition")
	ErrUpstreamHalted    = errors.New("upstream snapshot reports a halted state")
	ErrRiskUnevaluable   = errors.New("projected exposure could not be computed")
	ErrMalformedMandate  = errors.New("mandate failed boundary validation")

	// General Errors
	ErrUnknown            = errors.New("unknown error occurred")
	ErrInvalidRequest     = errors.New("invalid request parameters or format")
	ErrNotFound           = errors.New("resource not found")
	ErrTimeout            = errors.New("operation timed out")
	ErrConfigurationError = errors.New("invalid or missing configuration")

	// Exchange Specific Errors
	ErrExchangeUnavailable  = errors.New("exchange API is unavailable")
	ErrRateLimited          = errors.New("API rate limit exceeded")
	ErrAuthenticationFailed = errors.New("exchange authentication failed (check API keys)")
	ErrInsufficientFunds    = errors.New("insufficient funds for operation")
	ErrOrderPlacementFailed = errors.New("failed to place order")

	// Database Specific Errors
	ErrDBConnection = errors.New("database connection error")
	ErrQueryFailed  = errors.New("database query failed")
	ErrUpdateFailed = errors.New("database update failed")
)
