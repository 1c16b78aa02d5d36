package service

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"mood-journal/internal/domain"
)

const (
	tokenIssuer  = "mood-journal"
	tokenAccess  = "access"
	tokenRefresh = "refresh"

	// Una sesion con email se recupera con un codigo; no necesita un refresh tan largo.
	linkedRefreshTTL = 30 * 24 * time.Hour
)

// JWTService emite los tokens de una sesion del diario.
// Una sesion anonima existe solo mientras el cliente conserve su refresh token, asi que ese
// refresh vive refreshTTL; el de una sesion con email vive como maximo linkedRefreshTTL.
type JWTService struct {
	secret       []byte
	accessTTL    time.Duration
	anonymousTTL time.Duration
	linkedTTL    time.Duration
	store        RefreshTokenStore
	now          func() time.Time
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// Claims solo identifica la sesion. Anonymous refleja el usuario al emitir el par.
type Claims struct {
	UserID    string `json:"uid"`
	TokenType string `json:"typ"`
	Anonymous bool   `json:"anon,omitempty"`
	jwt.RegisteredClaims
}

var (
	ErrJWTInvalid = errors.New("jwt invalid")
	ErrJWTExpired = errors.New("jwt expired")
)

func NewJWTService(secret string, accessTTL, refreshTTL time.Duration) *JWTService {
	if accessTTL <= 0 {
		accessTTL = time.Hour
	}
	if refreshTTL <= 0 {
		refreshTTL = 365 * 24 * time.Hour
	}
	return &JWTService{
		secret:       []byte(secret),
		accessTTL:    accessTTL,
		anonymousTTL: refreshTTL,
		linkedTTL:    min(refreshTTL, linkedRefreshTTL),
		store:        NewMemoryRefreshTokenStore(),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func NewJWTServiceWithStore(secret string, accessTTL, refreshTTL time.Duration, store RefreshTokenStore) *JWTService {
	svc := NewJWTService(secret, accessTTL, refreshTTL)
	if store != nil {
		svc.store = store
	}
	return svc
}

// GeneratePair abre (o reabre) la sesion del usuario.
func (s *JWTService) GeneratePair(user domain.User) (TokenPair, error) {
	return s.issue(user.ID, user.Email == "")
}

// RefreshPair rota el refresh token: el usado queda revocado.
func (s *JWTService) RefreshPair(refreshToken string) (TokenPair, error) {
	claims, err := s.parse(refreshToken, tokenRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	ok, err := s.store.Exists(claims.ID)
	if err != nil || !ok {
		return TokenPair{}, ErrJWTInvalid
	}
	if err := s.store.Revoke(claims.ID); err != nil {
		return TokenPair{}, ErrJWTInvalid
	}
	return s.issue(claims.UserID, claims.Anonymous)
}

func (s *JWTService) RevokeRefresh(refreshToken string) error {
	claims, err := s.parse(refreshToken, tokenRefresh)
	if err != nil {
		return err
	}
	return s.store.Revoke(claims.ID)
}

func (s *JWTService) ParseAccessToken(accessToken string) (Claims, error) {
	return s.parse(accessToken, tokenAccess)
}

func (s *JWTService) refreshTTLFor(anonymous bool) time.Duration {
	if anonymous {
		return s.anonymousTTL
	}
	return s.linkedTTL
}

func (s *JWTService) issue(userID string, anonymous bool) (TokenPair, error) {
	if len(s.secret) == 0 || strings.TrimSpace(userID) == "" {
		return TokenPair{}, ErrJWTInvalid
	}
	now := s.now()
	access, err := s.sign(userID, anonymous, tokenAccess, "", now, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	jti := uuid.NewString()
	ttl := s.refreshTTLFor(anonymous)
	refresh, err := s.sign(userID, anonymous, tokenRefresh, jti, now, ttl)
	if err != nil {
		return TokenPair{}, err
	}
	if err := s.store.Store(jti, userID, ttl); err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *JWTService) sign(userID string, anonymous bool, tokenType, jti string, now time.Time, ttl time.Duration) (string, error) {
	claims := Claims{
		UserID:    userID,
		TokenType: tokenType,
		Anonymous: anonymous,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Issuer:    tokenIssuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// parse valida firma, emisor, expiracion y tipo; un refresh sin jti no sirve para rotar.
func (s *JWTService) parse(tokenString, tokenType string) (Claims, error) {
	if len(s.secret) == 0 || strings.TrimSpace(tokenString) == "" {
		return Claims{}, ErrJWTInvalid
	}
	var claims Claims
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	_, err := parser.ParseWithClaims(tokenString, &claims, func(_ *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if errors.Is(err, jwt.ErrTokenExpired) {
		return Claims{}, ErrJWTExpired
	}
	if err != nil {
		return Claims{}, ErrJWTInvalid
	}
	if claims.TokenType != tokenType || strings.TrimSpace(claims.UserID) == "" || claims.Subject != claims.UserID {
		return Claims{}, ErrJWTInvalid
	}
	if tokenType == tokenRefresh && claims.ID == "" {
		return Claims{}, ErrJWTInvalid
	}
	return claims, nil
}
