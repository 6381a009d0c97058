package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/contractnest/contractnest/internal/shared"
)

const (
	prefixBytes = 6
	secretBytes = 24
)

// Service wraps API token business rules.
type Service struct {
	repo Repository
	cost int
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, cost: bcrypt.DefaultCost}
}

// WithCost overrides the bcrypt cost; tests use bcrypt.MinCost.
func (s *Service) WithCost(cost int) *Service {
	s.cost = cost
	return s
}

// Authenticate resolves a bearer token of the form "<prefix>.<secret>" into
// the principal it was issued for.
func (s *Service) Authenticate(ctx context.Context, tenantID uuid.UUID, bearer string) (shared.Principal, error) {
	prefix, secret, ok := strings.Cut(strings.TrimSpace(bearer), ".")
	if !ok || prefix == "" || secret == "" || tenantID == uuid.Nil {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	token, err := s.repo.FindByPrefix(ctx, tenantID, prefix)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.Principal{}, shared.ErrInvalidCredentials
		}
		return shared.Principal{}, err
	}
	if token.Revoked {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(token.SecretHash), []byte(secret)); err != nil {
		return shared.Principal{}, shared.ErrInvalidCredentials
	}
	_ = s.repo.Touch(ctx, token.ID)
	return shared.Principal{TenantID: token.TenantID, ActorID: token.ActorID, TokenName: token.Name}, nil
}

// Issue creates a token for actorID. The plaintext is only available here.
func (s *Service) Issue(ctx context.Context, tenantID, actorID uuid.UUID, name string) (IssuedToken, error) {
	if tenantID == uuid.Nil || strings.TrimSpace(name) == "" {
		return IssuedToken{}, errors.New("auth: tenant and token name are required")
	}
	if actorID == uuid.Nil {
		actorID = uuid.New()
	}
	prefix, err := randomHex(prefixBytes)
	if err != nil {
		return IssuedToken{}, err
	}
	secret, err := randomHex(secretBytes)
	if err != nil {
		return IssuedToken{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), s.cost)
	if err != nil {
		return IssuedToken{}, err
	}
	token := Token{
		ID:         uuid.New(),
		TenantID:   tenantID,
		ActorID:    actorID,
		Name:       strings.TrimSpace(name),
		Prefix:     prefix,
		SecretHash: string(hash),
	}
	if err := s.repo.Insert(ctx, token); err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: token, Plaintext: prefix + "." + secret}, nil
}

// Revoke disables the token with the given prefix.
func (s *Service) Revoke(ctx context.Context, tenantID uuid.UUID, prefix string) error {
	return s.repo.Revoke(ctx, tenantID, prefix)
}

func randomHex(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
