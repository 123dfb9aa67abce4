package errors

// CodePair maps an error code to its HTTP status and gRPC code.
type CodePair struct {
	HTTPStatus int
	GRPCCode   int
}

var codeMapping = map[string]CodePair{
	ErrInternal:        {500, 13}, // INTERNAL
	ErrNotFound:        {404, 5},  // NOT_FOUND
	ErrInvalidArgument: {400, 3},  // INVALID_ARGUMENT
	ErrUnauthenticated: {401, 16}, // UNAUTHENTICATED
	ErrUnauthorized:    {403, 7},  // PERMISSION_DENIED
	ErrConflict:        {409, 10}, // ABORTED
	ErrUnprocessable:   {422, 9},  // FAILED_PRECONDITION
	ErrUnavailable:     {503, 14}, // UNAVAILABLE
	ErrTimeout:         {504, 4},  // DEADLINE_EXCEEDED
	ErrNotImplemented:  {501, 12}, // UNIMPLEMENTED
}

// GetCodeMapping returns the HTTP status and gRPC code for an error code.
// Unknown codes map to internal errors.
func GetCodeMapping(code string) (int, int) {
	if pair, ok := codeMapping[code]; ok {
		return pair.HTTPStatus, pair.GRPCCode
	}
	return 500, 13
}

// IsClientCode reports whether the code describes a caller mistake rather than a server fault.
func IsClientCode(code string) bool {
	httpStatus, _ := GetCodeMapping(code)
	return httpStatus >= 400 && httpStatus < 500
}
