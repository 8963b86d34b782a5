package core

import "github.com/cockroachdb/errors"

var (
	// ErrSchemaMismatch marks input shapes or column types the function
	// cannot accept. It is fatal at Init.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidArgument marks configuration values that were ignored.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrDecodeFailure marks intermediate records or serialized summaries
	// that could not be read back. It is fatal for the group.
	ErrDecodeFailure = errors.New("decode failure")
)

func schemaMismatchf(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrSchemaMismatch)
}

func decodeFailuref(format string, args ...interface{}) error {
	return errors.Mark(errors.Newf(format, args...), ErrDecodeFailure)
}

func decodeFailure(err error, format string, args ...interface{}) error {
	return errors.Mark(errors.Wrapf(err, format, args...), ErrDecodeFailure)
}
