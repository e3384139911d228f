package sip

import (
	"strings"

	"github.com/google/uuid"
)

// RFC 3261 magic cookie marking a branch parameter as RFC3261-generated.
const BranchMagicCookie = "z9hG4bK"

// NewCallID generates a random Call-ID value scoped to the given host.
// The host may be empty.
func NewCallID(host string) string {
	id := uuid.NewString()
	if host == "" {
		return id
	}
	return id + "@" + host
}

// NewTag generates a random tag parameter value for To/From headers.
func NewTag() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}

// NewBranch generates a Via branch parameter carrying the RFC 3261 magic
// cookie.
func NewBranch() string {
	return BranchMagicCookie + "." + uuid.NewString()
}
