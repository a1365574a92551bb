package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/propnest/marketplace/internal/api/metrics"
	"github.com/propnest/marketplace/internal/core/domain"
	"github.com/propnest/marketplace/internal/core/ports"
)

const minPasswordLength = 8

// AuthService implements registration, sessions and role grants.
type AuthService struct {
	repo      ports.AuthRepository
	sessions  ports.SessionStore
	jwtSecret string
	tokenTTL  time.Duration
	log       zerolog.Logger
}

func NewAuthService(repo ports.AuthRepository, sessions ports.SessionStore, jwtSecret string, tokenTTL time.Duration, log zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{repo: repo, sessions: sessions, jwtSecret: jwtSecret, tokenTTL: tokenTTL, log: log}
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil || len(in.Password) < minPasswordLength {
		return nil, domain.ErrInvalidCredentials
	}

	roles := make([]domain.Role, 0, len(in.Roles))
	for _, r := range in.Roles {
		if !r.Valid() {
			return nil, domain.ErrInvalidRole
		}
		if !r.SelfGrantable() {
			return nil, domain.ErrRoleNotGrantable
		}
		if !containsRole(roles, r) {
			roles = append(roles, r)
		}
	}

	sellerType, err := normaliseSellerType(containsRole(roles, domain.RoleSeller), in.SellerType)
	if err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Roles:        roles,
		SellerType:   sellerType,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", created.ID).Msg("user registered")
	return created, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.Session, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if errors.Is(err, domain.ErrUserNotFound) {
		metrics.AuthLoginsTotal.WithLabelValues("unknown_user").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		metrics.AuthLoginsTotal.WithLabelValues("bad_password").Inc()
		return nil, nil, domain.ErrInvalidCredentials
	}

	session, err := s.issueSession(user)
	if err != nil {
		return nil, nil, err
	}

	metrics.AuthLoginsTotal.WithLabelValues("success").Inc()
	return session, user, nil
}

// Authenticate validates the token signature and expiry, rejects revoked
// sessions, and loads the principal from storage so role changes take effect
// on the next request.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*ports.Session, *domain.Principal, error) {
	claims := &jwt.RegisteredClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(s.jwtSecret), nil
	})
	if err != nil || !tkn.Valid || claims.Subject == "" || claims.ID == "" {
		return nil, nil, domain.ErrAuthenticationRequired
	}

	revoked, err := s.sessions.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("check session: %w", err)
	}
	if revoked {
		return nil, nil, domain.ErrAuthenticationRequired
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil, domain.ErrAuthenticationRequired
		}
		return nil, nil, err
	}

	session := &ports.Session{Token: token, ID: claims.ID, UserID: claims.Subject}
	if claims.ExpiresAt != nil {
		session.ExpiresAt = claims.ExpiresAt.Time
	}
	return session, user.Principal(), nil
}

func (s *AuthService) CurrentPrincipal(ctx context.Context, userID string) (*domain.Principal, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Principal(), nil
}

// AddRole adds a self-grantable role to the user. Holding the role already
// is not an error and leaves the record unchanged, seller type included,
// unless a seller type is given explicitly.
func (s *AuthService) AddRole(ctx context.Context, userID string, role domain.Role, sellerType domain.SellerType) (*domain.Principal, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	if !role.SelfGrantable() {
		s.log.Warn().Str("user_id", userID).Str("role", string(role)).Msg("self-grant of privileged role refused")
		metrics.RoleGrantsTotal.WithLabelValues(string(role), "refused").Inc()
		return nil, domain.ErrRoleNotGrantable
	}

	st, err := normaliseSellerType(role == domain.RoleSeller, sellerType)
	if err != nil {
		return nil, err
	}
	if role == domain.RoleSeller && sellerType == "" {
		current, err := s.repo.FindByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		if current.HasRole(domain.RoleSeller) {
			st = ""
		}
	}

	user, err := s.repo.AddRole(ctx, userID, role, st)
	if err != nil {
		metrics.RoleGrantsTotal.WithLabelValues(string(role), "error").Inc()
		return nil, err
	}

	metrics.RoleGrantsTotal.WithLabelValues(string(role), "granted").Inc()
	s.log.Info().Str("user_id", userID).Str("role", string(role)).Msg("role added")
	return user.Principal(), nil
}

// GrantAdmin gives targetID the admin role. Only super-admins may do this;
// holding the admin role is not enough.
func (s *AuthService) GrantAdmin(ctx context.Context, actor *domain.Principal, targetID string) (*domain.Principal, error) {
	if actor == nil || !actor.IsSuperAdmin {
		return nil, domain.ErrAuthorizationDenied
	}

	user, err := s.repo.AddRole(ctx, targetID, domain.RoleAdmin, "")
	if err != nil {
		return nil, err
	}

	metrics.RoleGrantsTotal.WithLabelValues(string(domain.RoleAdmin), "granted").Inc()
	s.log.Info().Str("actor_id", actor.ID).Str("user_id", targetID).Msg("admin role granted")
	return user.Principal(), nil
}

// Logout revokes the session until its token expires.
func (s *AuthService) Logout(ctx context.Context, session *ports.Session) error {
	if session == nil || session.ID == "" {
		return nil
	}
	until := session.ExpiresAt
	if until.IsZero() {
		until = time.Now().Add(s.tokenTTL)
	}
	if err := s.sessions.Revoke(ctx, session.ID, until.Unix()); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	s.log.Info().Str("user_id", session.UserID).Msg("session revoked")
	return nil
}

func (s *AuthService) issueSession(user *domain.User) (*ports.Session, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, err
	}
	return &ports.Session{
		Token:     signed,
		ID:        claims.ID,
		UserID:    user.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func normaliseSellerType(seller bool, st domain.SellerType) (domain.SellerType, error) {
	if !seller {
		return "", nil
	}
	if st == "" {
		return domain.SellerIndividual, nil
	}
	if !st.Valid() {
		return "", domain.ErrInvalidRole
	}
	return st, nil
}

func containsRole(roles []domain.Role, r domain.Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}
