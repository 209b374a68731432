package infrastructure

import (
	"errors"
	"fmt"

	"google.golang.org/grpc/codes"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrUserNotFound      = fmt.Errorf("user %w", ErrNotFound)
	ErrUserAlreadyExists = errors.New("user already exists")
	ErrInvalidInput      = errors.New("invalid input")
	ErrWeakPassword      = errors.New("password is not strong enough")
	ErrUnauthenticated   = errors.New("unauthenticated")
	ErrInternalServer    = errors.New("internal server error")

	ErrInvalidTarget    = errors.New("invalid target user")
	ErrAlreadyContact   = errors.New("users are already contacts")
	ErrAlreadyRequested = errors.New("contact request already pending")
	ErrNoPendingRequest = errors.New("no pending contact request")
	ErrAlreadyBlocked   = errors.New("user is already blocked")
	ErrNotBlocked       = errors.New("user is not blocked")
	ErrBlocked          = errors.New("receiver has blocked the sender")

	ErrCodeExpired  = errors.New("one-time code has expired")
	ErrCodeMismatch = errors.New("one-time code does not match")
)

var codeTable = []struct {
	err  error
	code codes.Code
}{
	{ErrNotFound, codes.NotFound},
	{ErrUserAlreadyExists, codes.AlreadyExists},
	{ErrAlreadyContact, codes.AlreadyExists},
	{ErrAlreadyRequested, codes.AlreadyExists},
	{ErrAlreadyBlocked, codes.AlreadyExists},
	{ErrInvalidInput, codes.InvalidArgument},
	{ErrWeakPassword, codes.InvalidArgument},
	{ErrInvalidTarget, codes.InvalidArgument},
	{ErrCodeExpired, codes.InvalidArgument},
	{ErrCodeMismatch, codes.InvalidArgument},
	{ErrUnauthenticated, codes.Unauthenticated},
	{ErrBlocked, codes.PermissionDenied},
	{ErrNoPendingRequest, codes.FailedPrecondition},
	{ErrNotBlocked, codes.FailedPrecondition},
}

// Code classifies err into the canonical status code shared by the HTTP and gRPC surfaces.
// Anything outside the taxonomy is Internal.
func Code(err error) codes.Code {
	if err == nil {
		return codes.OK
	}
	for _, c := range codeTable {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return codes.Internal
}
