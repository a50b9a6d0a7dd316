package ports

import "github.com/99minutos/identity-service/internal/core/domain"

// CredentialHasher hashes and verifies plaintext passwords.
type CredentialHasher interface {
	Hash(plaintext string) (string, error)
	// Verify never errors; a mismatch or a corrupt hash both report false.
	Verify(plaintext, hash string) bool
}

// TokenService issues and verifies signed bearer tokens.
type TokenService interface {
	Issue(subjectID, email string) (string, error)
	// Verify returns either trusted claims or a *domain.TokenError.
	Verify(token string) (*domain.Claims, error)
}
