package notify

import (
	"context"
	"fmt"

	"QuantPulse/internal/domain/models"
	"QuantPulse/pkg/queue"
)

// TypeSignalDelivery is the queue message type for deferred signal
// notifications.
const TypeSignalDelivery = "signal.delivery"

// QueueNotifier defers delivery through the redis queue so that slow
// or failing channels retry without blocking signal generation.
type QueueNotifier struct {
	q queue.QueueService
}

func NewQueueNotifier(q queue.QueueService) *QueueNotifier {
	return &QueueNotifier{q: q}
}

func (n *QueueNotifier) SendToAllTargets(ctx context.Context, s *models.Signal) error {
	if err := n.q.PublishMessage(ctx, TypeSignalDelivery, s); err != nil {
		return fmt.Errorf("enqueue signal delivery: %w", err)
	}
	return nil
}

// DeliveryJob drains queued signal notifications and fans them out to
// the configured targets.
type DeliveryJob struct {
	svc *Service
}

func NewDeliveryJob(svc *Service) *DeliveryJob {
	return &DeliveryJob{svc: svc}
}

func (j *DeliveryJob) Name() string { return "signal-delivery" }

func (j *DeliveryJob) Type() string { return TypeSignalDelivery }

func (j *DeliveryJob) Handle(ctx context.Context, payload interface{}) error {
	s, err := queue.ParsePayload[models.Signal](payload)
	if err != nil {
		return fmt.Errorf("parse signal payload: %w", err)
	}
	return j.svc.SendToAllTargets(ctx, s)
}
