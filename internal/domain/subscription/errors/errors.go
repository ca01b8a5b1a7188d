package errors

import "errors"

// Kind is the stable, machine readable name of a failure
type Kind string

const (
	KindUnknownSpecies        Kind = "UnknownSpecies"
	KindInvalidRange          Kind = "InvalidRange"
	KindSupporterRequired     Kind = "SupporterRequired"
	KindCommonSpeciesIVTooLow Kind = "CommonSpeciesIVTooLow"
	KindQuotaExceeded         Kind = "QuotaExceeded"
	KindUnknownLocation       Kind = "UnknownLocation"
	KindStorageFailure        Kind = "StorageFailure"
	KindConfirmationDeclined  Kind = "ConfirmationDeclined"
	KindNotSubscribed         Kind = "NotSubscribed"
	KindPermissionDenied      Kind = "PermissionDenied"
	KindInvalidUserID         Kind = "InvalidUserID"
	KindInternal              Kind = "Internal"
)

var (
	ErrUnknownSpecies        = errors.New("unknown species")
	ErrInvalidRange          = errors.New("value out of range")
	ErrSupporterRequired     = errors.New("supporter tier required")
	ErrCommonSpeciesIVTooLow = errors.New("minimum IV too low for a common species")
	ErrQuotaExceeded         = errors.New("subscription quota exceeded")
	ErrUnknownLocation       = errors.New("unknown location")
	ErrStorageFailure        = errors.New("subscription storage failure")
	ErrConfirmationDeclined  = errors.New("confirmation declined")
	ErrConfirmationNotFound  = errors.New("confirmation not found or expired")
	ErrNotSubscribed         = errors.New("not subscribed")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrInvalidUserID         = errors.New("invalid user ID")
)

var kinds = []struct {
	err  error
	kind Kind
}{
	{ErrStorageFailure, KindStorageFailure},
	{ErrUnknownSpecies, KindUnknownSpecies},
	{ErrInvalidRange, KindInvalidRange},
	{ErrSupporterRequired, KindSupporterRequired},
	{ErrCommonSpeciesIVTooLow, KindCommonSpeciesIVTooLow},
	{ErrQuotaExceeded, KindQuotaExceeded},
	{ErrUnknownLocation, KindUnknownLocation},
	{ErrConfirmationDeclined, KindConfirmationDeclined},
	{ErrConfirmationNotFound, KindConfirmationDeclined},
	{ErrNotSubscribed, KindNotSubscribed},
	{ErrPermissionDenied, KindPermissionDenied},
	{ErrInvalidUserID, KindInvalidUserID},
}

// KindOf maps err to its Kind. Nil maps to the empty kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}

// Transient reports whether retrying the same request could succeed
func Transient(err error) bool {
	return errors.Is(err, ErrStorageFailure)
}
