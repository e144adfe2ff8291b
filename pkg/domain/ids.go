package domain

import (
	"strconv"
	"strings"

	dErrors "joingate/pkg/domain-errors"
)

// GroupID identifies a group chat on the platform.
// Invariant: a parsed GroupID is strictly positive.
type GroupID int64

// UserID identifies a platform account.
// Invariant: a parsed UserID is strictly positive.
type UserID int64

// ParseGroupID validates a group identifier received at a trust boundary
// (chat command argument, URL parameter, raw platform event).
func ParseGroupID(s string) (GroupID, error) {
	v, err := parsePositive(s, "group id")
	if err != nil {
		return 0, err
	}
	return GroupID(v), nil
}

// ParseUserID validates a user identifier received at a trust boundary.
func ParseUserID(s string) (UserID, error) {
	v, err := parsePositive(s, "user id")
	if err != nil {
		return 0, err
	}
	return UserID(v), nil
}

func parsePositive(s, what string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s: %q", what, s)
	}
	if v <= 0 {
		return 0, dErrors.Newf(dErrors.CodeInvalidInput, "invalid %s: must be positive", what)
	}
	return v, nil
}

func (g GroupID) String() string { return strconv.FormatInt(int64(g), 10) }

func (u UserID) String() string { return strconv.FormatInt(int64(u), 10) }

// IsNil reports whether the ID is the zero value.
func (g GroupID) IsNil() bool { return g == 0 }

// IsNil reports whether the ID is the zero value.
func (u UserID) IsNil() bool { return u == 0 }
