package service

import (
	"alcyxob/workout-tracker/internal/domain"
	"alcyxob/workout-tracker/internal/repository"
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenTypeAccess  = "access"
	tokenTypeRefresh = "refresh"
	tokenIssuer      = "workout-tracker"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = &Error{Kind: KindConflict, Msg: "user with this email already exists"}
	ErrAuthenticationFailed = &Error{Kind: KindUnauthorized, Msg: "invalid email or password"}
	ErrInvalidToken         = &Error{Kind: KindUnauthorized, Msg: "invalid or expired token"}
)

// AuthService registers users and issues the bearer tokens that carry the
// user identity into every other service.
type AuthService interface {
	// Register creates the user and logs them in.
	Register(ctx context.Context, input domain.RegisterInput) (*domain.TokenPair, error)
	Login(ctx context.Context, input domain.LoginInput) (*domain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	// ValidateAccessToken returns the user id carried by an access token.
	ValidateAccessToken(token string) (int64, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo          repository.UserRepository
	jwtSecret         []byte
	accessExpiration  time.Duration
	refreshExpiration time.Duration
	now               func() time.Time
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, accessExpiration, refreshExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty")
	}
	if accessExpiration <= 0 {
		accessExpiration = 15 * time.Minute
	}
	if refreshExpiration <= 0 {
		refreshExpiration = 30 * 24 * time.Hour
	}
	return &authService{
		userRepo:          userRepo,
		jwtSecret:         []byte(jwtSecret),
		accessExpiration:  accessExpiration,
		refreshExpiration: refreshExpiration,
		now:               time.Now,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, input domain.RegisterInput) (*domain.TokenPair, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(input.Email))

	_, err := s.userRepo.GetByEmail(ctx, email)
	if err == nil {
		return nil, ErrUserAlreadyExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, storageError(err, "get user by email")
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, storageError(err, "hash password")
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hashedPassword),
	}
	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// Lost a race with a concurrent registration; the unique index caught it.
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, storageError(err, "create user")
	}

	log.Ctx(ctx).Info().Int64("user_id", userID).Msg("user registered")
	return s.issuePair(userID)
}

// Login checks the credentials and issues a token pair.
func (s *authService) Login(ctx context.Context, input domain.LoginInput) (*domain.TokenPair, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrAuthenticationFailed
		}
		return nil, storageError(err, "get user by email")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrAuthenticationFailed
	}
	return s.issuePair(user.ID)
}

// Refresh exchanges a valid refresh token for a new pair. The user must
// still exist.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error) {
	userID, err := s.parse(refreshToken, tokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, storageError(err, "get user by id")
	}
	return s.issuePair(userID)
}

func (s *authService) ValidateAccessToken(token string) (int64, error) {
	return s.parse(token, tokenTypeAccess)
}

// --- JWT Helper ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	Type string `json:"type"` // access or refresh
	jwt.RegisteredClaims
}

func (s *authService) issuePair(userID int64) (*domain.TokenPair, error) {
	access, err := s.generateJWT(userID, tokenTypeAccess, s.accessExpiration)
	if err != nil {
		return nil, storageError(err, "sign access token")
	}
	refresh, err := s.generateJWT(userID, tokenTypeRefresh, s.refreshExpiration)
	if err != nil {
		return nil, storageError(err, "sign refresh token")
	}
	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// generateJWT creates a signed token whose subject is the user id.
func (s *authService) generateJWT(userID int64, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := &jwtClaims{
		Type: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// parse verifies signature, expiry and token type, and returns the subject.
func (s *authService) parse(tokenString, wantType string) (int64, error) {
	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return 0, ErrInvalidToken
	}
	if claims.Type != wantType {
		return 0, ErrInvalidToken
	}
	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return 0, ErrInvalidToken
	}
	return userID, nil
}
