package auth

import (
	"context"
	"strings"
	"time"

	"hub-backend/internal/domain"
	"hub-backend/internal/pkg/apperr"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("auth")

// SessionTTL bounds both the bearer token and its registry entry.
const SessionTTL = 24 * time.Hour

// Every credential failure looks the same to the caller.
var errNotAuthenticated = apperr.New(apperr.Forbidden, "Not authenticated")

// Service resolves callers from Basic credentials or bearer tokens.
type Service struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Secret []byte
}

// Session is a verified bearer token.
type Session struct {
	User *domain.User
	JTI  string
}

// CheckPassword returns the user for a matching email and password.
func (s *Service) CheckPassword(ctx context.Context, email, password string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.CheckPassword")
	defer span.End()

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil, errNotAuthenticated
	}
	var u domain.User
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotAuthenticated
		}
		span.RecordError(err)
		return nil, errors.Wrap(err, "load user")
	}
	if u.PasswordHash == "" {
		return nil, errNotAuthenticated
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, errNotAuthenticated
	}
	return &u, nil
}

// IssueToken signs a bearer token for u and registers its session.
func (s *Service) IssueToken(ctx context.Context, u *domain.User) (string, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.IssueToken")
	defer span.End()

	jti := uuid.New().String()
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   u.UserID.String(),
		ID:        jti,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(SessionTTL)),
	})
	signed, err := token.SignedString(s.Secret)
	if err != nil {
		return "", errors.Wrap(err, "sign token")
	}

	uid := u.UserID.String()
	pipe := s.Rdb.TxPipeline()
	pipe.Set(ctx, SessionRedisPrefix+jti, uid, SessionTTL)
	pipe.SAdd(ctx, UserSessionsPrefix+uid, jti)
	pipe.Expire(ctx, UserSessionsPrefix+uid, SessionTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		span.RecordError(err)
		return "", errors.Wrap(err, "register session")
	}
	return signed, nil
}

// VerifyToken checks signature, expiry and that the session was not revoked.
func (s *Service) VerifyToken(ctx context.Context, raw string) (*Session, error) {
	ctx, span := tracer.Start(ctx, "Auth.Service.VerifyToken")
	defer span.End()

	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return s.Secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		span.RecordError(errors.Wrap(err, "jwt validation failed"))
		return nil, errNotAuthenticated
	}

	owner, err := s.Rdb.Get(ctx, SessionRedisPrefix+claims.ID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, errNotAuthenticated
	}
	if err != nil {
		span.RecordError(err)
		return nil, errors.Wrap(err, "load session")
	}
	if owner != claims.Subject {
		return nil, errNotAuthenticated
	}

	var u domain.User
	if err := s.DB.WithContext(ctx).Where("user_id = ?", claims.Subject).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotAuthenticated
		}
		return nil, errors.Wrap(err, "load user")
	}
	return &Session{User: &u, JTI: claims.ID}, nil
}

// Revoke ends one session.
func (s *Service) Revoke(ctx context.Context, userID uuid.UUID, jti string) error {
	pipe := s.Rdb.TxPipeline()
	pipe.Del(ctx, SessionRedisPrefix+jti)
	pipe.SRem(ctx, UserSessionsPrefix+userID.String(), jti)
	_, err := pipe.Exec(ctx)
	return errors.Wrap(err, "revoke session")
}

// HashPassword hashes with the cost used for every stored password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return "", errors.Wrap(err, "hash password")
	}
	return string(hash), nil
}
