package access

import (
	"errors"
	"fmt"
	"strings"
)

// Kind distinguishes the two request kinds the admission policy knows about.
type Kind int

const (
	// KindRead may run concurrently with other reads.
	KindRead Kind = iota + 1
	// KindWrite never runs concurrently with another write.
	KindWrite
)

// String returns "read" or "write".
func (k Kind) String() string {
	switch k {
	case KindRead:
		return "read"
	case KindWrite:
		return "write"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// ParseKind parses "read" or "write" (case-insensitive).
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "read":
		return KindRead, nil
	case "write":
		return KindWrite, nil
	default:
		return 0, fmt.Errorf("invalid kind %q: must be read or write", s)
	}
}

// Policy selects how a write may be combined with reads in one batch.
type Policy int

const (
	// PolicyRelaxed lets a write close a batch that already holds reads.
	PolicyRelaxed Policy = iota + 1
	// PolicyExclusive only admits a write as the sole member of a batch.
	PolicyExclusive
)

// ErrInvalidPolicy is returned by ParsePolicy for unknown policy names.
var ErrInvalidPolicy = errors.New("invalid admission policy")

// String returns "relaxed" or "exclusive".
func (p Policy) String() string {
	switch p {
	case PolicyRelaxed:
		return "relaxed"
	case PolicyExclusive:
		return "exclusive"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParsePolicy parses a policy name. The empty string selects PolicyRelaxed.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "relaxed":
		return PolicyRelaxed, nil
	case "exclusive":
		return PolicyExclusive, nil
	default:
		return 0, fmt.Errorf("%w: %q (must be relaxed or exclusive)", ErrInvalidPolicy, s)
	}
}
