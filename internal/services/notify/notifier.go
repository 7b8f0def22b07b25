package notify

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"QuantPulse/internal/domain/models"
	xhttp "QuantPulse/pkg/http"
	"QuantPulse/pkg/logger"
	"QuantPulse/pkg/telegram"
)

const webhookTimeout = 10 * time.Second

// TelegramSender is the outbound surface the notifier needs from the
// Telegram client.
type TelegramSender interface {
	SendMessage(chatID int64, text string) error
}

// Service fans a signal out to every active notification target. A
// failed target never blocks the others.
type Service struct {
	telegram TelegramSender
	webhook  *xhttp.Client
	targets  []models.NotificationTarget
	log      *logger.Logger
}

// New builds a notifier over a static target list. The Telegram sender
// may be nil when no bot token is configured.
func New(tg TelegramSender, targets []models.NotificationTarget, log *logger.Logger) *Service {
	return &Service{
		telegram: tg,
		webhook:  xhttp.NewClient(xhttp.WithTimeout(webhookTimeout)),
		targets:  targets,
		log:      log,
	}
}

// NewWithTelegram wires a real Telegram client from a bot token.
func NewWithTelegram(botToken string, targets []models.NotificationTarget, log *logger.Logger) (*Service, error) {
	var tg TelegramSender
	if botToken != "" {
		client, err := telegram.NewClient(botToken)
		if err != nil {
			return nil, err
		}
		tg = client
	}
	return New(tg, targets, log), nil
}

// SendToAllTargets delivers the signal to every matching active target.
// It returns an error only when every matching target failed.
func (s *Service) SendToAllTargets(ctx context.Context, sig *models.Signal) error {
	var delivered, failed int
	var lastErr error

	for _, target := range s.targets {
		if !target.IsActive || !targetWants(target, sig.Symbol) {
			continue
		}

		var err error
		switch target.TargetType {
		case "telegram":
			err = s.sendTelegram(target, sig)
		case "webhook":
			err = s.sendWebhook(ctx, target, sig)
		default:
			s.log.Warn("unknown notification target type",
				logger.String("target_type", target.TargetType))
			continue
		}

		if err != nil {
			failed++
			lastErr = err
			s.log.Error("notification delivery failed",
				logger.String("target_type", target.TargetType),
				logger.String("symbol", sig.Symbol),
				logger.Error(err))
			continue
		}
		delivered++
	}

	if delivered == 0 && failed > 0 {
		return fmt.Errorf("all %d notification targets failed: %w", failed, lastErr)
	}
	return nil
}

func (s *Service) sendTelegram(target models.NotificationTarget, sig *models.Signal) error {
	if s.telegram == nil {
		return fmt.Errorf("telegram sender not configured")
	}
	chatID, err := strconv.ParseInt(target.TargetID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat id %q: %w", target.TargetID, err)
	}
	return s.telegram.SendMessage(chatID, FormatSignalMessage(sig))
}

func (s *Service) sendWebhook(ctx context.Context, target models.NotificationTarget, sig *models.Signal) error {
	return s.webhook.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodPost,
		URL:    target.TargetID,
		Headers: map[string]string{
			"Content-Type": "application/json",
		},
		Body: sig,
	}, nil)
}

// FormatSignalMessage renders a signal as a Telegram markdown message.
func FormatSignalMessage(sig *models.Signal) string {
	var b strings.Builder

	fmt.Fprintf(&b, "*%s Signal: %s*\n", strings.ToUpper(sig.SignalType), sig.Symbol)
	fmt.Fprintf(&b, "Confidence: %.1f%%\n", sig.Confidence)
	fmt.Fprintf(&b, "Direction: %s\n", sig.Direction)
	fmt.Fprintf(&b, "Price: %.2f\n", sig.Price)
	if sig.TargetPrice > 0 {
		fmt.Fprintf(&b, "Target: %.2f\n", sig.TargetPrice)
	}
	if sig.StopLoss > 0 {
		fmt.Fprintf(&b, "Stop: %.2f\n", sig.StopLoss)
	}
	fmt.Fprintf(&b, "Risk: %s\n", sig.RiskLevel)
	if len(sig.KeyFactors) > 0 {
		fmt.Fprintf(&b, "Factors: %s\n", strings.Join(sig.KeyFactors, ", "))
	}
	return b.String()
}

func targetWants(target models.NotificationTarget, symbol string) bool {
	if len(target.Symbols) == 0 {
		return true
	}
	for _, s := range target.Symbols {
		if strings.EqualFold(s, symbol) {
			return true
		}
	}
	return false
}
