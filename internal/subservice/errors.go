package subservice

import "errors"

var (
	// ErrSuspended is returned while the installation registration is
	// disabled or a depersonalization is pending.
	ErrSuspended = errors.New("subservice suspended: push registration disabled")

	// ErrMessageNotFound is returned for an unknown inbox message id.
	ErrMessageNotFound = errors.New("message not found")

	// ErrInvalidRegion is returned for a region with a bad center or radius.
	ErrInvalidRegion = errors.New("invalid geofence region")

	// ErrUnknownRegion is returned for a transition of a region that was
	// never added.
	ErrUnknownRegion = errors.New("unknown geofence region")

	// ErrNoChatSession is returned when a chat operation needs an open session.
	ErrNoChatSession = errors.New("no chat session")
)
