package nwp

import "strconv"

// StatusError is a non-zero status code returned by an NWP command.
type StatusError struct {
	Op   string
	Code int32
}

func (e *StatusError) Error() string {
	return "nwp:" + e.Op + " failed with status " + strconv.Itoa(int(e.Code))
}

// Status converts an NWP status code to an error. Zero means success.
func Status(op string, code int32) error {
	if code == 0 {
		return nil
	}
	return &StatusError{Op: op, Code: code}
}
