package nwpwifi

import "github.com/pkg/errors"

var (
	// ErrInvalidConfig is returned when a setup request fails validation.
	// The stored configuration is left unchanged.
	ErrInvalidConfig = errors.New("invalid wifi config")
	// ErrParse is returned for malformed address strings.
	ErrParse = errors.New("malformed address")
	// ErrRadioUnavailable is returned when the radio fails to restart. The
	// radio role is unknown until the next successful restart.
	ErrRadioUnavailable = errors.New("radio unavailable")
	// ErrScan is returned by Scan when the radio could not be scanned, as
	// opposed to a scan that found no networks.
	ErrScan = errors.New("scan failed")
	// ErrNotConfigured is returned by Connect when there is no station config.
	ErrNotConfigured = errors.New("station not configured")
)

// kindError attaches one of the package sentinels to an underlying cause.
type kindError struct {
	kind  error
	cause error
}

func withKind(kind, cause error) error {
	if cause == nil {
		return nil
	}
	return &kindError{kind: kind, cause: cause}
}

func (e *kindError) Error() string        { return e.kind.Error() + ": " + e.cause.Error() }
func (e *kindError) Unwrap() error        { return e.cause }
func (e *kindError) Is(target error) bool { return target == e.kind }
