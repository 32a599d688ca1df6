package domain

import (
	"crypto/rand"
	"encoding/base64"
)

// Scope restricts an access code to a subset of the catalog. Empty slices
// mean "no restriction" on that axis.
type Scope struct {
	ProductIDs   []string
	SizeGroupIDs []string
	SizeIDs      []string
}

func (s Scope) Unrestricted() bool {
	return len(s.ProductIDs) == 0 && len(s.SizeGroupIDs) == 0 && len(s.SizeIDs) == 0
}

// AccessCode is a shareable capability for counters. In queue mode the holder
// is handed one assignment at a time; otherwise they see the full scoped list.
type AccessCode struct {
	ID       string
	Code     string
	Name     string
	Disabled bool
	AsQueue  bool
	Scope    Scope
}

// NewAccessCodeToken returns an opaque URL-safe token for a new code.
func NewAccessCodeToken() string {
	b := make([]byte, 12)
	if _, err := rand.Read(b); err != nil {
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
