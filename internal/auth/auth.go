package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/store"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)

const TokenType = "bearer"

type Service struct {
	store    store.UserStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// Verified is the identity behind an accepted bearer token.
type Verified struct {
	User model.User
}

func NewService(store store.UserStore, secret string, tokenTTL time.Duration) *Service {
	return &Service{
		store:    store,
		secret:   []byte(secret),
		tokenTTL: tokenTTL,
		now:      time.Now,
	}
}

// Register creates an account. An empty role defaults to member.
func (s *Service) Register(ctx context.Context, username, password string, role model.Role) (model.User, error) {
	if role == "" {
		role = model.RoleMember
	}
	if !role.Valid() {
		return model.User{}, fmt.Errorf("unknown role %q", role)
	}
	hash, err := HashPassword(password)
	if err != nil {
		return model.User{}, err
	}

	user := model.User{
		Username:  username,
		Role:      role,
		CreatedAt: model.NewTimestamp(s.now()),
	}
	id, err := s.store.CreateUser(ctx, &user, hash)
	if err != nil {
		if errors.Is(err, store.ErrDuplicateName) {
			return model.User{}, ErrUsernameTaken
		}
		return model.User{}, err
	}
	user.ID = id
	return user, nil
}

// Login checks the password and issues a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (model.Token, error) {
	user, hash, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return model.Token{}, ErrInvalidCredentials
		}
		return model.Token{}, err
	}
	if !CheckPassword(hash, password) {
		return model.Token{}, ErrInvalidCredentials
	}

	token, err := s.issue(user.Username)
	if err != nil {
		return model.Token{}, err
	}
	return model.Token{AccessToken: token, TokenType: TokenType}, nil
}

func (s *Service) issue(username string) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   username,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// Authenticate resolves a bearer token to its user. The token may still
// carry its "Bearer " prefix.
func (s *Service) Authenticate(ctx context.Context, bearer string) (Verified, error) {
	raw := strings.TrimSpace(bearer)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	if raw == "" {
		return Verified{}, ErrInvalidToken
	}

	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil || claims.Subject == "" {
		return Verified{}, ErrInvalidToken
	}

	user, _, err := s.store.GetUserByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Verified{}, ErrInvalidToken
		}
		return Verified{}, err
	}
	return Verified{User: user}, nil
}

func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
