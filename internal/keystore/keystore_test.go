package keystore

import (
	"context"
	"database/sql"
	"testing"

	"github.com/Nikola-Limpet/rawhash-server/internal/domain"
)

type fakeRepo struct {
	encrypted string
	present   bool
}

func (f *fakeRepo) Get(ctx context.Context) (string, error) {
	if !f.present {
		return "", sql.ErrNoRows
	}
	return f.encrypted, nil
}

func (f *fakeRepo) Set(ctx context.Context, encrypted string) error {
	f.encrypted = encrypted
	f.present = true
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context) error {
	f.encrypted = ""
	f.present = false
	return nil
}

func TestSetGetRoundTrip(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	store := New(repo, "test-passphrase", "")

	if err := store.Set(context.Background(), "user-secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if repo.encrypted == "user-secret" {
		t.Fatalf("secret must not be stored in plaintext")
	}

	cred, ok, err := store.Get(context.Background())
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	if cred.Value != "user-secret" || cred.Origin != domain.CredentialOriginUser {
		t.Fatalf("unexpected credential %+v", cred)
	}
}

func TestUserCredentialShadowsEnvironment(t *testing.T) {
	t.Parallel()

	store := New(&fakeRepo{}, "k", "env-secret")
	if err := store.Set(context.Background(), "user-secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	cred, ok, _ := store.Get(context.Background())
	if !ok || cred.Value != "user-secret" || cred.Origin != domain.CredentialOriginUser {
		t.Fatalf("user credential should shadow environment, got %+v", cred)
	}
}

func TestClearRestoresEnvironmentCredential(t *testing.T) {
	t.Parallel()

	store := New(&fakeRepo{}, "k", "env-secret")
	if err := store.Set(context.Background(), "user-secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	cred, ok, _ := store.Get(context.Background())
	if !ok || cred.Value != "env-secret" || cred.Origin != domain.CredentialOriginEnvironment {
		t.Fatalf("clear should fall back to environment credential, got %+v", cred)
	}

	// The environment credential itself survives further clears.
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(context.Background()); !ok {
		t.Fatalf("environment credential must not be clearable")
	}
}

func TestClearWithoutEnvironmentLeavesStoreEmpty(t *testing.T) {
	t.Parallel()

	store := New(&fakeRepo{}, "k", "")
	if err := store.Set(context.Background(), "user-secret"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := store.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if _, ok, _ := store.Get(context.Background()); ok {
		t.Fatalf("store should be empty after clear with no environment default")
	}
}

func TestEmptySecretRejected(t *testing.T) {
	t.Parallel()

	store := New(&fakeRepo{}, "k", "")
	if err := store.Set(context.Background(), ""); err == nil {
		t.Fatalf("empty secret should be rejected")
	}
}
