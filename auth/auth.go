// Package auth defines the authentication collaborator contract consumed
// by the dispatcher during logon, plus two stock providers: a basic
// credentials provider backed by a static account table and a null
// provider that admits every caller anonymously.
package auth

import (
	"crypto/subtle"
	"fmt"
	"sync"
)

// Credential keys understood by the basic provider.
const (
	CredentialUserName = "username"
	CredentialPassword = "password"
)

// Request carries the credentials presented by a client at logon.
type Request struct {
	Credentials map[string]string
}

// Response is the authenticator's verdict. When Success is false,
// ErrorMessage explains the rejection and Identity is empty.
type Response struct {
	Success      bool
	Identity     string
	ErrorMessage string
}

// Provider authenticates logon requests. Implementations must be safe for
// concurrent use; the dispatcher calls Authenticate from many call
// goroutines at once.
type Provider interface {
	Authenticate(req Request) Response
}

// NullProvider authenticates every request as an anonymous identity. It is
// the default provider for hosts that do not require authentication.
type NullProvider struct{}

// Authenticate admits the caller unconditionally.
func (NullProvider) Authenticate(_ Request) Response {
	return Response{Success: true, Identity: "anonymous"}
}

// BasicProvider authenticates username/password credentials against a
// static account table.
type BasicProvider struct {
	mu       sync.RWMutex
	accounts map[string]string
}

// NewBasicProvider creates a basic provider from a username to password map.
func NewBasicProvider(accounts map[string]string) *BasicProvider {
	copied := make(map[string]string, len(accounts))
	for user, pass := range accounts {
		copied[user] = pass
	}
	return &BasicProvider{accounts: copied}
}

// AddAccount adds or replaces an account.
func (p *BasicProvider) AddAccount(username, password string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.accounts[username] = password
}

// Authenticate checks the presented username/password pair against the
// account table.
func (p *BasicProvider) Authenticate(req Request) Response {
	username, ok := req.Credentials[CredentialUserName]
	if !ok || username == "" {
		return Response{Success: false, ErrorMessage: "no username provided"}
	}
	password, ok := req.Credentials[CredentialPassword]
	if !ok {
		return Response{Success: false, ErrorMessage: "no password provided"}
	}

	p.mu.RLock()
	expected, exists := p.accounts[username]
	p.mu.RUnlock()

	// Constant-time comparison regardless of account existence.
	match := subtle.ConstantTimeCompare([]byte(expected), []byte(password)) == 1
	if !exists || !match {
		return Response{
			Success:      false,
			ErrorMessage: fmt.Sprintf("invalid credentials for user %q", username),
		}
	}

	return Response{Success: true, Identity: username}
}
