package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"mood-journal/internal/domain"
	"mood-journal/internal/email"
	"mood-journal/internal/flutterwave"
	"mood-journal/internal/repository"
)

var (
	ErrMissingTransaction  = errors.New("missing transaction data")
	ErrVerificationFailed  = errors.New("payment verification failed")
	ErrWebhookUnauthorized = errors.New("webhook signature mismatch")
	ErrPaymentNotOwned     = errors.New("payment belongs to another user")
)

// SubscriptionConfig agrupa los parametros del plan PRO.
type SubscriptionConfig struct {
	Amount        float64
	Currency      string
	DurationDays  int
	WebhookSecret string
}

// SubscriptionService emite tx_ref, verifica pagos contra Flutterwave y activa PRO.
type SubscriptionService struct {
	logger   *zap.Logger
	users    repository.UserRepository
	payments repository.PaymentRepository
	verifier flutterwave.Verifier
	sender   email.Sender
	cfg      SubscriptionConfig
	now      func() time.Time
}

func NewSubscriptionService(
	logger *zap.Logger,
	users repository.UserRepository,
	payments repository.PaymentRepository,
	verifier flutterwave.Verifier,
	sender email.Sender,
	cfg SubscriptionConfig,
) *SubscriptionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DurationDays <= 0 {
		cfg.DurationDays = 365
	}
	return &SubscriptionService{
		logger:   logger,
		users:    users,
		payments: payments,
		verifier: verifier,
		sender:   sender,
		cfg:      cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// NewTxRef registra un pago initialized con referencia mj-<user>-<8 hex>.
func (s *SubscriptionService) NewTxRef(ctx context.Context, userID string) (string, error) {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	txRef := txRefPrefix(userID) + suffix
	_, err := s.payments.Create(ctx, domain.Payment{
		UserID:    userID,
		TxRef:     txRef,
		Status:    domain.PaymentStatusInitialized,
		Amount:    s.cfg.Amount,
		Currency:  s.cfg.Currency,
		CreatedAt: s.now(),
	})
	if err != nil {
		return "", fmt.Errorf("create payment: %w", err)
	}
	return txRef, nil
}

// VerifyResult describe el resultado de una verificacion; Payload es la respuesta cruda del gateway.
// AlreadyApplied indica que el pago ya habia activado PRO y no se extendio de nuevo.
type VerifyResult struct {
	Activated      bool
	AlreadyApplied bool
	ProUntil       *time.Time
	Payload        string
}

// Verify consulta la transaccion y activa PRO solo si estado, monto, moneda y tx_ref coinciden.
// Cada pago extiende el plan una sola vez y solo para el usuario que lo inicio.
func (s *SubscriptionService) Verify(ctx context.Context, userID, transactionID, txRef string) (VerifyResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	txRef = strings.TrimSpace(txRef)
	if transactionID == "" || txRef == "" {
		return VerifyResult{}, ErrMissingTransaction
	}

	payment, err := s.ensurePayment(ctx, userID, txRef)
	if err != nil {
		return VerifyResult{}, err
	}
	if payment.UserID != userID {
		s.logger.Warn("payment verify for foreign tx_ref",
			zap.String("user_id", userID),
			zap.String("tx_ref", txRef),
		)
		return VerifyResult{}, ErrPaymentNotOwned
	}
	if payment.Status == domain.PaymentStatusSuccessful {
		return s.alreadyApplied(ctx, userID, payment.RawJSON)
	}

	verification, err := s.verifier.VerifyTransaction(ctx, transactionID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("verify transaction: %w", err)
	}

	result := VerifyResult{Payload: verification.Raw}
	if !s.accepts(verification, txRef) {
		if _, err := s.payments.UpdateResult(ctx, txRef, transactionID, domain.PaymentStatusFailed, verification.Raw); err != nil {
			return result, fmt.Errorf("update payment: %w", err)
		}
		s.logger.Warn("payment verification failed",
			zap.String("user_id", userID),
			zap.String("tx_ref", txRef),
			zap.String("gateway_status", verification.Status),
		)
		return result, ErrVerificationFailed
	}

	applied, err := s.payments.UpdateResult(ctx, txRef, transactionID, domain.PaymentStatusSuccessful, verification.Raw)
	if err != nil {
		return result, fmt.Errorf("update payment: %w", err)
	}
	if !applied {
		// Otra verificacion (cliente o webhook) marco el pago primero.
		return s.alreadyApplied(ctx, userID, verification.Raw)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return result, fmt.Errorf("get user: %w", err)
	}
	user.ActivatePro(s.cfg.DurationDays, s.now())
	if err := s.users.UpdatePro(ctx, user.ID, user.IsPro, user.ProUntil); err != nil {
		return result, fmt.Errorf("update pro: %w", err)
	}
	result.Activated = true
	result.ProUntil = user.ProUntil
	s.logger.Info("pro activated", zap.String("user_id", user.ID), zap.Timep("pro_until", user.ProUntil))

	if s.sender != nil && user.Email != "" {
		if err := s.sender.SendProActivated(ctx, user.Email, *user.ProUntil); err != nil {
			s.logger.Warn("pro activation email failed", zap.String("user_id", user.ID), zap.Error(err))
		}
	}
	return result, nil
}

func (s *SubscriptionService) alreadyApplied(ctx context.Context, userID, payload string) (VerifyResult, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("get user: %w", err)
	}
	return VerifyResult{
		Activated:      true,
		AlreadyApplied: true,
		ProUntil:       user.ProUntil,
		Payload:        payload,
	}, nil
}

func (s *SubscriptionService) accepts(v flutterwave.Verification, txRef string) bool {
	if !v.Succeeded() {
		return false
	}
	if v.Data.Amount < s.cfg.Amount {
		return false
	}
	if v.Data.Currency != s.cfg.Currency {
		return false
	}
	return v.Data.TxRef == txRef
}

// ensurePayment crea la fila cuando el cliente verifica un tx_ref propio que no paso por NewTxRef.
func (s *SubscriptionService) ensurePayment(ctx context.Context, userID, txRef string) (domain.Payment, error) {
	payment, err := s.payments.GetByTxRef(ctx, txRef)
	if err == nil {
		return payment, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return domain.Payment{}, fmt.Errorf("get payment: %w", err)
	}
	if !strings.HasPrefix(txRef, txRefPrefix(userID)) {
		return domain.Payment{}, ErrPaymentNotOwned
	}
	payment, err = s.payments.Create(ctx, domain.Payment{
		UserID:    userID,
		TxRef:     txRef,
		Status:    domain.PaymentStatusInitialized,
		Amount:    s.cfg.Amount,
		Currency:  s.cfg.Currency,
		CreatedAt: s.now(),
	})
	if err != nil {
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}
	return payment, nil
}

func txRefPrefix(userID string) string {
	return "mj-" + userID + "-"
}

// WebhookEvent es la parte del evento de Flutterwave que se usa.
type WebhookEvent struct {
	Data struct {
		ID    any    `json:"id"`
		TxID  any    `json:"txid"`
		TxRef string `json:"tx_ref"`
	} `json:"data"`
}

// HandleWebhook valida el verif-hash y reutiliza Verify con el usuario dueño del tx_ref.
// Eventos incompletos o de tx_ref desconocidos se aceptan sin efecto.
func (s *SubscriptionService) HandleWebhook(ctx context.Context, signature string, event WebhookEvent) error {
	if s.cfg.WebhookSecret == "" || subtle.ConstantTimeCompare([]byte(signature), []byte(s.cfg.WebhookSecret)) != 1 {
		return ErrWebhookUnauthorized
	}

	transactionID := anyToString(event.Data.ID)
	if transactionID == "" {
		transactionID = anyToString(event.Data.TxID)
	}
	txRef := strings.TrimSpace(event.Data.TxRef)
	if transactionID == "" || txRef == "" {
		return nil
	}

	payment, err := s.payments.GetByTxRef(ctx, txRef)
	if errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("webhook for unknown tx_ref", zap.String("tx_ref", txRef))
		return nil
	}
	if err != nil {
		return fmt.Errorf("get payment: %w", err)
	}

	_, err = s.Verify(ctx, payment.UserID, transactionID, txRef)
	if errors.Is(err, ErrVerificationFailed) {
		return nil
	}
	return err
}

func anyToString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return fmt.Sprintf("%.0f", t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}
