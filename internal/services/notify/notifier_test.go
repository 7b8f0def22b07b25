package notify

import (
	"context"
	"strings"
	"testing"

	"QuantPulse/internal/domain/models"
	domsvc "QuantPulse/internal/domain/service"
	"QuantPulse/pkg/logger"
)

// Both notifier variants must satisfy the generator's collaborator
// contract, delivery errors included.
var (
	_ domsvc.Notifier = (*Service)(nil)
	_ domsvc.Notifier = (*QueueNotifier)(nil)
)

type fakeSender struct {
	sent []int64
	err  error
}

func (f *fakeSender) SendMessage(chatID int64, text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, chatID)
	return nil
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func TestSendToAllTargets_SymbolFilter(t *testing.T) {
	sender := &fakeSender{}
	svc := New(sender, []models.NotificationTarget{
		{TargetType: "telegram", TargetID: "100", Symbols: []string{"AAPL"}, IsActive: true},
		{TargetType: "telegram", TargetID: "200", Symbols: []string{"TSLA"}, IsActive: true},
		{TargetType: "telegram", TargetID: "300", IsActive: true}, // no filter, gets everything
		{TargetType: "telegram", TargetID: "400", Symbols: []string{"AAPL"}, IsActive: false},
	}, testLogger(t))

	sig := &models.Signal{Symbol: "AAPL", SignalType: models.SignalBuy, Confidence: 82}
	if err := svc.SendToAllTargets(context.Background(), sig); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 deliveries, got %d (%v)", len(sender.sent), sender.sent)
	}
	if sender.sent[0] != 100 || sender.sent[1] != 300 {
		t.Fatalf("wrong recipients: %v", sender.sent)
	}
}

func TestSendToAllTargets_AllFailed(t *testing.T) {
	sender := &fakeSender{err: context.DeadlineExceeded}
	svc := New(sender, []models.NotificationTarget{
		{TargetType: "telegram", TargetID: "100", IsActive: true},
	}, testLogger(t))

	sig := &models.Signal{Symbol: "AAPL", SignalType: models.SignalBuy}
	if err := svc.SendToAllTargets(context.Background(), sig); err == nil {
		t.Fatal("expected error when every target fails")
	}
}

func TestSendToAllTargets_BadChatID(t *testing.T) {
	sender := &fakeSender{}
	svc := New(sender, []models.NotificationTarget{
		{TargetType: "telegram", TargetID: "not-a-number", IsActive: true},
	}, testLogger(t))

	sig := &models.Signal{Symbol: "AAPL", SignalType: models.SignalBuy}
	if err := svc.SendToAllTargets(context.Background(), sig); err == nil {
		t.Fatal("expected error for malformed chat id")
	}
	if len(sender.sent) != 0 {
		t.Fatalf("nothing should have been sent, got %v", sender.sent)
	}
}

func TestFormatSignalMessage(t *testing.T) {
	sig := &models.Signal{
		Symbol:      "NVDA",
		SignalType:  models.SignalBuy,
		Confidence:  91.5,
		Direction:   models.DirectionUp,
		Price:       500.25,
		TargetPrice: 540,
		StopLoss:    485,
		RiskLevel:   models.RiskMedium,
		KeyFactors:  []string{"momentum breakout", "volume surge"},
	}
	msg := FormatSignalMessage(sig)

	for _, want := range []string{"NVDA", "91.5%", "540.00", "485.00", "momentum breakout"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message missing %q:\n%s", want, msg)
		}
	}
}
