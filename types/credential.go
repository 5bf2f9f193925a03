package types

import "errors"

// ErrNoCredential is returned when a user record carries neither a password
// hash nor a federated subject.
var ErrNoCredential = errors.New("user has no credential")

// Credential is how an account proves its identity. It is either a
// LocalCredential or a FederatedCredential.
type Credential interface {
	credential()
}

// LocalCredential is a bcrypt password hash.
type LocalCredential struct {
	PasswordHash string
}

// FederatedCredential is a subject asserted by a third-party identity provider.
type FederatedCredential struct {
	Provider string
	Subject  string
}

func (LocalCredential) credential()     {}
func (FederatedCredential) credential() {}

const ProviderGoogle = "google"

// Credentials returns the credentials stored on the flat user record.
// A valid user has at least one.
func (u User) Credentials() ([]Credential, error) {
	var creds []Credential
	if u.PasswordHash != "" {
		creds = append(creds, LocalCredential{PasswordHash: u.PasswordHash})
	}
	if u.GoogleID != "" {
		creds = append(creds, FederatedCredential{Provider: ProviderGoogle, Subject: u.GoogleID})
	}
	if len(creds) == 0 {
		return nil, ErrNoCredential
	}
	return creds, nil
}

// LocalCredential returns the password credential, if the account has one.
func (u User) LocalCredential() (LocalCredential, bool) {
	if u.PasswordHash == "" {
		return LocalCredential{}, false
	}
	return LocalCredential{PasswordHash: u.PasswordHash}, true
}

// WithCredential returns a copy of u with the credential applied to the flat fields.
func (u User) WithCredential(c Credential) User {
	switch cred := c.(type) {
	case LocalCredential:
		u.PasswordHash = cred.PasswordHash
	case FederatedCredential:
		if cred.Provider == ProviderGoogle {
			u.GoogleID = cred.Subject
		}
	}
	return u
}
