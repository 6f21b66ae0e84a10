package valueobjects

import (
	"fmt"
	"strings"
)

// Role identifies who authored a transcript message. The set is closed;
// persistence and transport must go through ParseRole so unknown roles
// never enter the domain.
type Role string

const (
	RoleSystemQuestion Role = "SYSTEM_QUESTION"
	RoleUserAnswer     Role = "USER_ANSWER"
)

// ParseRole converts a string to a Role
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleSystemQuestion, RoleUserAnswer:
		return r, nil
	default:
		return "", fmt.Errorf("unknown role: %q", s)
	}
}

// IsValid checks membership in the closed set
func (r Role) IsValid() bool {
	switch r {
	case RoleSystemQuestion, RoleUserAnswer:
		return true
	default:
		return false
	}
}

// IsQuestion reports whether the message was asked by the interviewer.
func (r Role) IsQuestion() bool {
	return r == RoleSystemQuestion
}

// IsAnswer reports whether the message was written by the interviewee.
func (r Role) IsAnswer() bool {
	return r == RoleUserAnswer
}

// String returns the string representation of the role
func (r Role) String() string {
	return string(r)
}
