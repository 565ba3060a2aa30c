package api

// FailureKind classifies why a remote call did not succeed.
type FailureKind int

const (
	// KindNone marks a successful result.
	KindNone FailureKind = iota
	// Rejected means the service refused the request; Message is its own text.
	Rejected
	// Unauthorized means the presented token is no longer accepted.
	Unauthorized
	// Network covers transport failures and unexpected response shapes.
	Network
)

func (k FailureKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case Rejected:
		return "rejected"
	case Unauthorized:
		return "unauthorized"
	case Network:
		return "network"
	default:
		return "unknown"
	}
}

// Result is the outcome of one remote call: either a value or a failure kind
// with a message.
type Result[T any] struct {
	OK      bool
	Value   T
	Kind    FailureKind
	Message string
}

// Success wraps a successful value.
func Success[T any](v T) Result[T] {
	return Result[T]{OK: true, Value: v}
}

// Failure builds a failed result.
func Failure[T any](kind FailureKind, msg string) Result[T] {
	return Result[T]{Kind: kind, Message: msg}
}

// Unit is the payload of calls that succeed without data.
type Unit struct{}
