package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mood-journal/internal/domain"
	"mood-journal/internal/email"
	"mood-journal/internal/repository"
)

const otpTTL = 10 * time.Minute

// UserService coordina las sesiones anonimas del diario y el enlace de email.
type UserService struct {
	logger     *zap.Logger
	users      repository.UserRepository
	sender     email.Sender
	otpLimiter RateLimiter
	now        func() time.Time
}

func NewUserService(logger *zap.Logger, users repository.UserRepository, sender email.Sender, otpLimiter RateLimiter) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if otpLimiter == nil {
		otpLimiter = NewMemoryRateLimiter(otpTTL, 5)
	}
	return &UserService{
		logger:     logger,
		users:      users,
		sender:     sender,
		otpLimiter: otpLimiter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidEmail     = errors.New("invalid email")
	ErrRateLimited      = errors.New("rate limited")
	ErrEmailSendFailure = errors.New("email send failure")
	ErrOTPNotRequested  = errors.New("otp not requested")
	ErrOTPExpired       = errors.New("otp expired")
	ErrOTPInvalid       = errors.New("otp invalid")
)

// StartSession crea un usuario anonimo sin email ni plan PRO.
func (s *UserService) StartSession(ctx context.Context) (domain.User, error) {
	if s.users == nil {
		return domain.User{}, errors.New("user service not configured")
	}
	user := domain.User{
		ID:        uuid.NewString(),
		CreatedAt: s.now(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}
	s.logger.Info("journal session started", zap.String("user_id", user.ID))
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id string) (domain.User, error) {
	if strings.TrimSpace(id) == "" {
		return domain.User{}, ErrUserNotFound
	}
	user, err := s.users.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrUserNotFound
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// LinkEmail asocia el email a la sesion actual. Si otro usuario ya lo tiene, se envia un
// codigo a ese email y verificationRequired es true; la sesion no cambia hasta VerifyEmailSwitch.
func (s *UserService) LinkEmail(ctx context.Context, userID, emailAddr string) (user domain.User, verificationRequired bool, err error) {
	addr, err := parseEmail(emailAddr)
	if err != nil {
		return domain.User{}, false, err
	}

	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, false, err
	}

	existing, err := s.users.GetByEmail(ctx, addr)
	switch {
	case err == nil && existing.ID != current.ID:
		if err := s.sendSwitchOTP(ctx, existing); err != nil {
			return domain.User{}, false, err
		}
		s.logger.Info("email owned by another user; verification sent",
			zap.String("user_id", current.ID),
			zap.String("owner_id", existing.ID),
		)
		return current, true, nil
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, repository.ErrNotFound):
		return domain.User{}, false, fmt.Errorf("get user by email: %w", err)
	}

	if err := s.users.UpdateEmail(ctx, current.ID, addr); err != nil {
		return domain.User{}, false, fmt.Errorf("update email: %w", err)
	}
	current.Email = addr
	return current, false, nil
}

func (s *UserService) sendSwitchOTP(ctx context.Context, owner domain.User) error {
	if !s.otpLimiter.Allow("request:" + owner.Email) {
		return ErrRateLimited
	}
	code, hash, err := generateOTP()
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	expiresAt := s.now().Add(otpTTL)
	if err := s.users.UpdateOTP(ctx, owner.ID, hash, expiresAt); err != nil {
		return fmt.Errorf("store otp: %w", err)
	}
	if s.sender == nil {
		return ErrEmailSendFailure
	}
	if err := s.sender.SendVerificationOTP(ctx, owner.Email, code, expiresAt); err != nil {
		s.logger.Warn("send verification otp failed", zap.String("user_id", owner.ID), zap.Error(err))
		return ErrEmailSendFailure
	}
	return nil
}

// VerifyEmailSwitch valida el codigo enviado por LinkEmail y devuelve el usuario dueño del email.
func (s *UserService) VerifyEmailSwitch(ctx context.Context, userID, emailAddr, code string) (domain.User, error) {
	addr, err := parseEmail(emailAddr)
	if err != nil {
		return domain.User{}, err
	}
	code = strings.TrimSpace(code)
	if !isValidOTPCode(code) {
		return domain.User{}, ErrOTPInvalid
	}

	current, err := s.GetUser(ctx, userID)
	if err != nil {
		return domain.User{}, err
	}
	if !s.otpLimiter.Allow("verify:" + addr) {
		return domain.User{}, ErrRateLimited
	}

	owner, err := s.users.GetByEmail(ctx, addr)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.User{}, ErrOTPNotRequested
	}
	if err != nil {
		return domain.User{}, fmt.Errorf("get user by email: %w", err)
	}
	if owner.OtpCodeHash == "" || owner.OtpExpiresAt == nil {
		return domain.User{}, ErrOTPNotRequested
	}
	if s.now().After(*owner.OtpExpiresAt) {
		return domain.User{}, ErrOTPExpired
	}
	if bcrypt.CompareHashAndPassword([]byte(owner.OtpCodeHash), []byte(code)) != nil {
		return domain.User{}, ErrOTPInvalid
	}

	if err := s.users.ClearOTP(ctx, owner.ID); err != nil {
		return domain.User{}, fmt.Errorf("clear otp: %w", err)
	}
	owner.OtpCodeHash = ""
	owner.OtpExpiresAt = nil
	s.logger.Info("session switched to existing user",
		zap.String("from_user_id", current.ID),
		zap.String("to_user_id", owner.ID),
	)
	return owner, nil
}

// Status resume el plan del usuario evaluado en el instante actual.
func (s *UserService) Status(ctx context.Context, userID string) (UserStatus, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return UserStatus{}, err
	}
	return UserStatus{
		IsPro:    user.HasActivePro(s.now()),
		Email:    user.Email,
		ProUntil: user.ProUntil,
	}, nil
}

type UserStatus struct {
	IsPro    bool       `json:"is_pro"`
	Email    string     `json:"email"`
	ProUntil *time.Time `json:"pro_until"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseEmail(emailAddr string) (string, error) {
	addr := normalizeEmail(emailAddr)
	if addr == "" {
		return "", ErrInvalidEmail
	}
	if _, err := mail.ParseAddress(addr); err != nil {
		return "", ErrInvalidEmail
	}
	return addr, nil
}

// generateOTP devuelve un codigo de 6 digitos y su hash bcrypt.
func generateOTP() (string, string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", "", err
	}
	code := fmt.Sprintf("%06d", n.Int64())
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", "", err
	}
	return code, string(hash), nil
}

func isValidOTPCode(code string) bool {
	if len(code) != 6 {
		return false
	}
	for _, r := range code {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
