package service

import (
	"alcyxob/chat-app/internal/domain"
	"alcyxob/chat-app/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrUserAlreadyExists    = errors.New("user with this username already exists")
	ErrAuthenticationFailed = errors.New("authentication failed: invalid username or password")
	ErrHashingFailed        = errors.New("failed to hash password")
	ErrTokenGeneration      = errors.New("failed to generate authentication token")

	// Handshake rejection taxonomy.
	ErrNoToken      = errors.New("no token provided")
	ErrInvalidToken = errors.New("invalid token provided")
	ErrExpiredToken = errors.New("expired token provided")
)

// TokenClaims is the decoded identity carried by a bearer token.
type TokenClaims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
}

// Expired reports whether the token is expired at the given instant.
func (c TokenClaims) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}

// AuthService issues and verifies the bearer tokens that admit realtime
// sessions, and handles registration/sign-in.
type AuthService interface {
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (token string, user *domain.User, err error)
	VerifyToken(token string) (TokenClaims, error)
	IsUsernameAvailable(ctx context.Context, username string) (bool, error)
}

// authService implements the AuthService interface.
type authService struct {
	userRepo      repository.UserRepository
	jwtSecret     string
	jwtExpiration time.Duration
}

// NewAuthService creates a new instance of authService.
func NewAuthService(userRepo repository.UserRepository, jwtSecret string, jwtExpiration time.Duration) AuthService {
	if jwtSecret == "" {
		panic("JWT secret cannot be empty") // Critical configuration
	}
	if jwtExpiration <= 0 {
		jwtExpiration = 24 * time.Hour
	}
	return &authService{
		userRepo:      userRepo,
		jwtSecret:     jwtSecret,
		jwtExpiration: jwtExpiration,
	}
}

// Register handles new user registration.
func (s *authService) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if username == "" || password == "" {
		return nil, errors.New("username and password cannot be empty")
	}

	available, err := s.IsUsernameAvailable(ctx, username)
	if err != nil {
		return nil, err
	}
	if !available {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(hashedPassword),
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		// The unique index closes the race between the availability
		// check and the insert.
		if errors.Is(err, repository.ErrDuplicateUser) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID

	user.PasswordHash = ""
	return user, nil
}

// Login handles user authentication and JWT generation.
func (s *authService) Login(ctx context.Context, username, password string) (token string, user *domain.User, err error) {
	if username == "" || password == "" {
		err = errors.New("username and password cannot be empty")
		return
	}

	user, err = s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = ErrAuthenticationFailed
			return
		}
		return
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		err = ErrAuthenticationFailed
		user = nil
		return
	}

	token, err = s.generateJWT(user)
	if err != nil {
		return "", nil, ErrTokenGeneration
	}

	user.PasswordHash = ""
	return token, user, nil
}

// IsUsernameAvailable reports whether no user holds the given username.
func (s *authService) IsUsernameAvailable(ctx context.Context, username string) (bool, error) {
	_, err := s.userRepo.GetByUsername(ctx, username)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, repository.ErrNotFound) {
		return true, nil
	}
	return false, err
}

// --- JWT Helpers ---

// jwtClaims defines the structure of the JWT payload.
type jwtClaims struct {
	Username string `json:"username"`
	UserID   string `json:"id"`
	jwt.RegisteredClaims
}

// generateJWT creates a new JWT token for the given user.
func (s *authService) generateJWT(user *domain.User) (string, error) {
	expirationTime := time.Now().Add(s.jwtExpiration)
	claims := &jwtClaims{
		Username: user.Username,
		UserID:   user.ID.Hex(),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.Hex(),
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "chat-app",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedToken, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return "", err
	}
	return signedToken, nil
}

// VerifyToken parses and validates a bearer token and returns its
// decoded identity. Expiry is NOT treated as a verification failure
// here past the signature check: sessions need the expiry instant to
// enforce token freshness mid-session, so an expired-but-authentic
// token maps to ErrExpiredToken while anything else maps to
// ErrInvalidToken.
func (s *authService) VerifyToken(tokenString string) (TokenClaims, error) {
	if tokenString == "" {
		return TokenClaims{}, ErrNoToken
	}

	claims := &jwtClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.jwtSecret), nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return TokenClaims{}, ErrExpiredToken
		}
		return TokenClaims{}, ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" || claims.Username == "" || claims.ExpiresAt == nil {
		return TokenClaims{}, ErrInvalidToken
	}

	return TokenClaims{
		UserID:    claims.UserID,
		Username:  claims.Username,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
