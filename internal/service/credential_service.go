package service

import (
	"context"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
	"github.com/Nikola-Limpet/rawhash-server/internal/keystore"
)

// CredentialStatus is the user-facing view of the key store; the secret
// itself is never returned.
type CredentialStatus struct {
	Configured bool                    `json:"configured"`
	Origin     domain.CredentialOrigin `json:"origin,omitempty"`
}

type CredentialService struct {
	store *keystore.Store
}

func NewCredentialService(store *keystore.Store) *CredentialService {
	return &CredentialService{store: store}
}

func (s *CredentialService) Status(ctx context.Context) (CredentialStatus, error) {
	cred, ok, err := s.store.Get(ctx)
	if err != nil {
		return CredentialStatus{}, err
	}
	if !ok {
		return CredentialStatus{}, nil
	}
	return CredentialStatus{Configured: true, Origin: cred.Origin}, nil
}

func (s *CredentialService) Set(ctx context.Context, secret string) error {
	return s.store.Set(ctx, secret)
}

// Clear removes only a user-entered credential; an environment-provided one
// remains active afterwards.
func (s *CredentialService) Clear(ctx context.Context) error {
	return s.store.Clear(ctx)
}
