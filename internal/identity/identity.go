// Package identity resolves the voter/commenter identity behind a request.
// Every write against the reaction ledger or the comment tree acts on exactly
// one of: an authenticated user id, or an anonymous client fingerprint.
package identity

import (
	"echoboard/internal/apperr"
	"echoboard/internal/models"
)

// Identity is a two-armed sum: Authenticated(userID) XOR Anonymous(fingerprint).
// The zero value is invalid and is rejected by every entry point.
type Identity struct {
	userID      uint
	fingerprint string
}

func Authenticated(userID uint) Identity {
	return Identity{userID: userID}
}

func Anonymous(fingerprint string) Identity {
	return Identity{fingerprint: fingerprint}
}

func (i Identity) IsValid() bool {
	return (i.userID != 0) != (i.fingerprint != "")
}

func (i Identity) IsAnonymous() bool {
	return i.userID == 0
}

// UserID returns the authenticated user id, ok=false for anonymous identities.
func (i Identity) UserID() (uint, bool) {
	return i.userID, i.userID != 0
}

// Fingerprint returns the anonymous fingerprint, ok=false for authenticated
// identities.
func (i Identity) Fingerprint() (string, bool) {
	return i.fingerprint, i.userID == 0 && i.fingerprint != ""
}

// VoterKey is the ledger uniqueness key for this identity.
func (i Identity) VoterKey() string {
	if i.userID != 0 {
		return models.UserVoterKey(i.userID)
	}
	return models.AnonVoterKey(i.fingerprint)
}

// Require validates the identity for a ledger or tree write.
func (i Identity) Require() error {
	if !i.IsValid() {
		return apperr.InvalidIdentity("neither session nor fingerprint present")
	}
	return nil
}

// Owns reports whether this identity authored a row with the given author
// columns. Anonymous ownership matches on fingerprint only.
func (i Identity) Owns(userID *uint, fingerprint string) bool {
	if i.userID != 0 {
		return userID != nil && *userID == i.userID
	}
	return i.fingerprint != "" && fingerprint == i.fingerprint
}

// Apply writes the identity into the XOR author columns of a row.
func (i Identity) Apply(userID **uint, fingerprint *string) {
	if i.userID != 0 {
		id := i.userID
		*userID = &id
		*fingerprint = ""
		return
	}
	*userID = nil
	*fingerprint = i.fingerprint
}
