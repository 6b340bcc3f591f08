package engine

import "fmt"

// The engine reports business outcomes as typed errors so callers can
// branch on the kind (errors.As) instead of parsing messages. Only
// StoreUnavailableError is worth retrying.

// AlreadyCheckedInError means the user already holds an active session.
type AlreadyCheckedInError struct {
	Zone        string
	EquipmentID string
	User        string
}

func (e *AlreadyCheckedInError) Error() string {
	return fmt.Sprintf("user %q is already checked into %s (%s)", e.User, e.Zone, e.EquipmentID)
}

// NoAvailableUnitError means every unit in the zone is occupied.
type NoAvailableUnitError struct {
	Zone string
}

func (e *NoAvailableUnitError) Error() string {
	return fmt.Sprintf("no available equipment found in zone %q", e.Zone)
}

// NoActiveSessionError means checkout found nothing to release.
type NoActiveSessionError struct {
	Zone string
	User string
}

func (e *NoActiveSessionError) Error() string {
	if e.User != "" {
		return fmt.Sprintf("user %q has no in-use equipment in zone %q", e.User, e.Zone)
	}
	return fmt.Sprintf("no in-use equipment found in zone %q", e.Zone)
}

// NotFoundError means a named equipment id does not exist.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("equipment %q not found", e.ID)
}

// InvalidRequestError means the request was missing or had malformed fields.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return "invalid request: " + e.Reason
}

// StoreUnavailableError wraps a transient data-store failure. Callers may
// retry with backoff; everything else in this file is terminal.
type StoreUnavailableError struct {
	Cause error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("data store unavailable: %v", e.Cause)
}

func (e *StoreUnavailableError) Unwrap() error { return e.Cause }
