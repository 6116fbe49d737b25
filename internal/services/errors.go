// Package services defines the business logic for click tracking, retry
// processing, and analytics reporting. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler layer.
package services

import "errors"

// Validation errors rejected before any write is attempted.
var (
	// ErrInvalidLinkID is returned when linkId is missing or not a positive
	// integer.
	ErrInvalidLinkID = errors.New("linkId must be a positive integer")

	// ErrInvalidProductID is returned when productId is missing or not a
	// positive integer.
	ErrInvalidProductID = errors.New("productId must be a positive integer")

	// ErrNegativeRedirect is returned when redirectMs is present but negative.
	ErrNegativeRedirect = errors.New("redirectMs must be >= 0")

	// ErrInvalidPagePath is returned when pagePath does not start with "/" or
	// exceeds 500 characters.
	ErrInvalidPagePath = errors.New("pagePath must start with '/' and be at most 500 characters")

	// ErrInvalidReferrer is returned when referrer is present but does not
	// parse as a well-formed URL.
	ErrInvalidReferrer = errors.New("referrer must be a valid URL")
)

// Pipeline errors.
var (
	// ErrQueueUnavailable is returned when both the event store write and the
	// fallback enqueue fail. This is the only tracking path that fails loudly:
	// with the queue gone there is no durable fallback left.
	ErrQueueUnavailable = errors.New("retry queue unavailable")

	// ErrUnknownEventType marks a queue item whose event type has no
	// registered replay handler. It counts against the item's retry budget
	// like any other replay failure.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrMalformedPayload marks a queue item whose stored payload is missing
	// required fields or cannot be decoded.
	ErrMalformedPayload = errors.New("malformed queue payload")
)

// Reporting errors.
var (
	// ErrInvalidDimension is returned when a breakdown request names an
	// unsupported grouping column.
	ErrInvalidDimension = errors.New("unsupported breakdown dimension")

	// ErrInvalidRange is returned when a requested date range is inverted.
	ErrInvalidRange = errors.New("from must be before to")
)
