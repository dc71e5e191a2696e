package users

import (
	"context"
	"crypto/rand"
	"crypto/sha512"
	"encoding/hex"
	"strings"

	"github.com/twitteroauth/auth-service/internal/api"
	"github.com/twitteroauth/auth-service/internal/credentials"
	"github.com/twitteroauth/auth-service/internal/models"
)

// refreshTokenBytes is the entropy of a refresh token before hex encoding.
const refreshTokenBytes = 30

// Service encapsulates identity business logic: registration with
// conditional password hashing, and the refresh token lifecycle.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// NormalizeEmail trims and lowercases an email address. Email is the sole
// reconciliation key across providers, so every store operation goes
// through this first.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HashRefreshToken maps a plaintext refresh token to the value persisted on
// the user record. The plaintext itself is never stored.
func HashRefreshToken(plaintext string) string {
	sum := sha512.Sum512([]byte(plaintext))
	return hex.EncodeToString(sum[:])
}

// Register creates a new identity. An empty password short-circuits
// hashing so OAuth-only identities keep an empty hash. A unique-constraint
// violation surfaces as ErrDuplicate so callers can retry as a lookup.
func (s *Service) Register(ctx context.Context, u *models.User, password string) (*models.User, error) {
	if u.FirstName == "" || u.LastName == "" {
		return nil, api.BadRequest("firstName and lastName are required")
	}
	u.Email = NormalizeEmail(u.Email)
	if u.Email == "" {
		return nil, api.BadRequest("email is required")
	}
	if u.ProfileImage == "" {
		u.ProfileImage = models.DefaultProfileImage
	}
	if password != "" {
		hash, err := credentials.HashPassword(password)
		if err != nil {
			return nil, api.Internal("failed to hash password", err.Error())
		}
		u.PasswordHash = hash
	}
	created, err := s.repo.Create(ctx, u)
	if err != nil {
		if err == ErrDuplicate {
			return nil, ErrDuplicate
		}
		return nil, api.Internal("failed to create user", err.Error())
	}
	return created, nil
}

// FindByEmail looks an identity up by normalized email; nil when absent.
func (s *Service) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.repo.FindByEmail(ctx, NormalizeEmail(email))
}

// FindByID looks an identity up by id; nil when absent.
func (s *Service) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.repo.FindByID(ctx, id)
}

// VerifyPassword checks a local login. Identities without a local password
// (pure OAuth) always fail.
func (s *Service) VerifyPassword(ctx context.Context, email, password string) (*models.User, error) {
	u, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return nil, api.Internal("failed to look up user", err.Error())
	}
	if u == nil || u.PasswordHash == "" || !credentials.VerifyPassword(password, u.PasswordHash) {
		return nil, api.Unauthorized("Invalid Credentials")
	}
	return u, nil
}

// SetPassword hashes and stores a new local password. Rejects empty
// plaintext; clearing a password is not a supported operation.
func (s *Service) SetPassword(ctx context.Context, id, password string) error {
	if password == "" {
		return api.BadRequest("password must not be empty")
	}
	hash, err := credentials.HashPassword(password)
	if err != nil {
		return api.Internal("failed to hash password", err.Error())
	}
	if _, err := s.repo.UpdateByID(ctx, id, Patch{PasswordHash: &hash}); err != nil {
		return api.Internal("failed to store password", err.Error())
	}
	return nil
}

// UpdateTwitterTokens overwrites the stored provider credential bundle,
// done on every successful login so the bundle tracks the freshest tokens.
func (s *Service) UpdateTwitterTokens(ctx context.Context, id string, tt *models.TwitterTokens) (*models.User, error) {
	updated, err := s.repo.UpdateByID(ctx, id, Patch{TwitterTokens: tt})
	if err != nil {
		return nil, api.Internal("failed to update twitter tokens", err.Error())
	}
	if updated == nil {
		return nil, api.NoEntry("user not found")
	}
	return updated, nil
}

// SetProfileImage stores a new avatar reference, e.g. after the provider
// image has been mirrored into object storage.
func (s *Service) SetProfileImage(ctx context.Context, id, ref string) error {
	if _, err := s.repo.UpdateByID(ctx, id, Patch{ProfileImage: &ref}); err != nil {
		return api.Internal("failed to update profile image", err.Error())
	}
	return nil
}

// IssueRefreshToken generates a fresh opaque refresh token, persists only
// its salted hash (replacing any prior value) and returns the plaintext
// exactly once. The plaintext is never persisted or logged.
func (s *Service) IssueRefreshToken(ctx context.Context, u *models.User) (string, error) {
	b := make([]byte, refreshTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", api.Internal("failed to generate refresh token", err.Error())
	}
	plaintext := hex.EncodeToString(b)
	hash := HashRefreshToken(plaintext)
	updated, err := s.repo.UpdateByID(ctx, u.ID, Patch{RefreshTokenHash: &hash})
	if err != nil {
		return "", api.BadRequest("failed to persist refresh token", err.Error())
	}
	if updated == nil {
		return "", api.NoEntry("user not found")
	}
	u.RefreshToken = hash
	u.UpdatedAt = updated.UpdatedAt
	return plaintext, nil
}

// ResolveRefreshToken maps an incoming plaintext refresh token back to its
// owning identity. A miss returns nil, nil; callers map that to an
// authentication failure.
func (s *Service) ResolveRefreshToken(ctx context.Context, plaintext string) (*models.User, error) {
	if plaintext == "" {
		return nil, nil
	}
	return s.repo.FindByRefreshTokenHash(ctx, HashRefreshToken(plaintext))
}

// ClearRefreshToken revokes the outstanding refresh token, used on logout.
func (s *Service) ClearRefreshToken(ctx context.Context, id string) error {
	empty := ""
	if _, err := s.repo.UpdateByID(ctx, id, Patch{RefreshTokenHash: &empty}); err != nil {
		return api.Internal("failed to clear refresh token", err.Error())
	}
	return nil
}
