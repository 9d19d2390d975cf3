package domain

import (
	"encoding/json"
	"time"
)

// SignedState is the intent carried through the identity provider inside
// the OAuth state parameter. It is never persisted.
type SignedState struct {
	Surface         Surface
	ReturnURL       string
	TenantContextID int64
	ConfigID        int64
	Nonce           string
	ExpiresAt       time.Time
}

// IsExpired reports whether the state expired before now.
// A state expiring in the current second is still valid.
func (s *SignedState) IsExpired(now time.Time) bool {
	return s.ExpiresAt.Unix() < now.Unix()
}

// stateWire is the JSON layout of the signed payload. Field names match
// tokens minted by earlier deployments so in-flight logins survive upgrades.
type stateWire struct {
	Type           string `json:"type"`
	ReturnURL      string `json:"returnUrl"`
	SiteRootPageID int64  `json:"siteRootPageId"`
	ConfigUID      int64  `json:"configUid"`
	Nonce          string `json:"nonce"`
	Exp            *int64 `json:"exp"`
}

// MarshalJSON encodes the state in its wire layout.
func (s SignedState) MarshalJSON() ([]byte, error) {
	exp := s.ExpiresAt.Unix()
	return json.Marshal(stateWire{
		Type:           s.Surface.legacyName(),
		ReturnURL:      s.ReturnURL,
		SiteRootPageID: s.TenantContextID,
		ConfigUID:      s.ConfigID,
		Nonce:          s.Nonce,
		Exp:            &exp,
	})
}

// UnmarshalJSON decodes the wire layout. A payload without "exp" is
// rejected so it can never be treated as non-expiring.
func (s *SignedState) UnmarshalJSON(data []byte) error {
	var w stateWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.Exp == nil {
		return ErrTokenInvalid
	}
	surface, ok := ParseSurface(w.Type)
	if !ok {
		return ErrTokenInvalid
	}
	*s = SignedState{
		Surface:         surface,
		ReturnURL:       w.ReturnURL,
		TenantContextID: w.SiteRootPageID,
		ConfigID:        w.ConfigUID,
		Nonce:           w.Nonce,
		ExpiresAt:       time.Unix(*w.Exp, 0),
	}
	return nil
}
