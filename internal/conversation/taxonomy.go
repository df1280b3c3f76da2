package conversation

// ErrorKind is the fixed user-facing failure taxonomy. Every failure shown to
// the user maps to exactly one kind with one fixed string; raw error bodies
// never reach a bubble.
type ErrorKind int

const (
	// ErrServer covers any HTTP failure outside the named buckets, malformed
	// responses, and transport failures (status 0).
	ErrServer ErrorKind = iota
	// ErrUnauthorized means bad or missing credentials.
	ErrUnauthorized
	// ErrRateLimited means the service throttled the request.
	ErrRateLimited
	// ErrSoftDecision means the service replied successfully but with an
	// unrecognized or missing action. It renders like a server error without
	// implying a connectivity problem.
	ErrSoftDecision
)

// Taxonomy maps an HTTP (or transport, status 0) outcome to an ErrorKind.
// The mapping is total: every integer lands in exactly one bucket.
func Taxonomy(status int) ErrorKind {
	switch status {
	case 401:
		return ErrUnauthorized
	case 429:
		return ErrRateLimited
	default:
		return ErrServer
	}
}

// Message returns the fixed user-facing string for the kind.
func (k ErrorKind) Message() string {
	switch k {
	case ErrUnauthorized:
		return "Missing/invalid API key"
	case ErrRateLimited:
		return "Rate limit"
	default:
		return "Server error"
	}
}
