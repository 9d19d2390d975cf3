package domain

import "strings"

// ExternalIdentity is the verified profile returned by the identity provider.
// It lives only for the duration of one callback.
type ExternalIdentity struct {
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	GivenName   string `json:"given_name"`
	Surname     string `json:"surname"`
}

// NameParts returns given and family name, splitting the display name on
// its first space when the provider sent neither.
func (i *ExternalIdentity) NameParts() (given, family string) {
	if i.GivenName != "" || i.Surname != "" {
		return i.GivenName, i.Surname
	}
	name := strings.TrimSpace(i.DisplayName)
	if name == "" {
		return "", ""
	}
	first, rest, found := strings.Cut(name, " ")
	if !found {
		return first, ""
	}
	return first, strings.TrimSpace(rest)
}
