package services

import (
	"errors"
	"strings"
	"sync"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSignInRequired     = errors.New("sign in required")
)

// AccountService tracks which shopper sessions are signed in.
type AccountService interface {
	SignIn(shopperID, email, password string) error
	Email(shopperID string) (string, bool)
}

// AccountServiceImpl accepts the configured accounts, or any well-formed
// email with a non-empty password when none are configured.
type AccountServiceImpl struct {
	accounts map[string]string

	mu       sync.Mutex
	sessions map[string]string
}

func NewAccountService(accounts map[string]string) *AccountServiceImpl {
	return &AccountServiceImpl{
		accounts: accounts,
		sessions: map[string]string{},
	}
}

func (s *AccountServiceImpl) SignIn(shopperID, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !strings.Contains(email, "@") || password == "" {
		return ErrInvalidCredentials
	}
	if len(s.accounts) > 0 {
		if want, ok := s.accounts[email]; !ok || want != password {
			return ErrInvalidCredentials
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[shopperID] = email
	return nil
}

func (s *AccountServiceImpl) Email(shopperID string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email, ok := s.sessions[shopperID]
	return email, ok
}
