package apperrors

import "errors"

// Engine errors. Only ErrInvalidParameters and ErrMalformedInput ever reach a
// caller; the other two are converted to unavailable fields per holding.
var (
	// ErrDataUnavailable indicates a missing external figure (FCF, shares
	// outstanding, market price).
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrInvalidParameters indicates valuation parameters under which no DCF
	// can be computed, most importantly discount rate <= growth rate.
	ErrInvalidParameters = errors.New("invalid valuation parameters")

	// ErrMalformedInput indicates a holdings batch missing a required field.
	ErrMalformedInput = errors.New("malformed holdings input")

	// ErrRetrieval indicates the market data source failed for one identifier.
	ErrRetrieval = errors.New("market data retrieval failed")
)

// Archive errors.
var (
	// ErrRunNotFound indicates that no archived run has the given ID.
	ErrRunNotFound = errors.New("run not found")
)
