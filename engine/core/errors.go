package core

import (
	"errors"
	"fmt"
)

// ErrorCode is the value held by the sticky error slot of an engine.
type ErrorCode uint16

const (
	NoError                ErrorCode = 0
	BadHandle              ErrorCode = 0x1000
	IllegalArgument        ErrorCode = 0x1001
	OutOfMemory            ErrorCode = 0x1002
	PathCapability         ErrorCode = 0x1003
	UnsupportedImageFormat ErrorCode = 0x1004
	UnsupportedPathFormat  ErrorCode = 0x1005
	ImageInUse             ErrorCode = 0x1006
	NoContext              ErrorCode = 0x1007
)

func (c ErrorCode) String() string {
	switch c {
	case NoError:
		return "NO_ERROR"
	case BadHandle:
		return "BAD_HANDLE"
	case IllegalArgument:
		return "ILLEGAL_ARGUMENT"
	case OutOfMemory:
		return "OUT_OF_MEMORY"
	case PathCapability:
		return "PATH_CAPABILITY"
	case UnsupportedImageFormat:
		return "UNSUPPORTED_IMAGE_FORMAT"
	case UnsupportedPathFormat:
		return "UNSUPPORTED_PATH_FORMAT"
	case ImageInUse:
		return "IMAGE_IN_USE"
	case NoContext:
		return "NO_CONTEXT"
	}
	return fmt.Sprintf("ERROR_CODE(0x%04x)", uint16(c))
}

var (
	ErrBadHandle              = errors.New("bad handle")
	ErrIllegalArgument        = errors.New("illegal argument")
	ErrOutOfMemory            = errors.New("out of memory")
	ErrUnsupportedImageFormat = errors.New("unsupported image format")
	ErrImageInUse             = errors.New("image in use")
	ErrNoContext              = errors.New("no context")
	ErrBackendNotSupported    = errors.New("renderer backend not supported")
	ErrUnknown                = errors.New("unknown")
)

// CodeFor maps an error returned by an internal layer to the code recorded
// in the sticky slot. A nil error maps to NoError.
func CodeFor(err error) ErrorCode {
	switch {
	case err == nil:
		return NoError
	case errors.Is(err, ErrBadHandle):
		return BadHandle
	case errors.Is(err, ErrUnsupportedImageFormat):
		return UnsupportedImageFormat
	case errors.Is(err, ErrOutOfMemory):
		return OutOfMemory
	case errors.Is(err, ErrImageInUse):
		return ImageInUse
	case errors.Is(err, ErrNoContext):
		return NoContext
	}
	return IllegalArgument
}
