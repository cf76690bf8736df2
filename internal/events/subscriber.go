package events

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const (
	maxRetries    = 3
	retryDelaySec = 2
	dlqSubject    = "schedule.updated.failed"
)

// ScheduleBroadcaster is the part of the broadcast hub the feed needs. A
// returned error means the snapshot push did not reach the viewers with fresh
// data and the event should be retried.
type ScheduleBroadcaster interface {
	Broadcast(instructorID uuid.UUID) error
}

// ScheduleFeedSubscriber is the change-feed side of schedule propagation:
// any schedule.updated event, whether published by this process or another
// one sharing the database, triggers a fresh snapshot push to the live
// viewers of that instructor. Events that still fail after the retry budget
// go to the DLQ subject.
type ScheduleFeedSubscriber struct {
	natsConn   *nats.Conn
	hub        ScheduleBroadcaster
	sub        *nats.Subscription
	retryDelay time.Duration
}

func NewScheduleFeedSubscriber(natsURL string, hub ScheduleBroadcaster) (*ScheduleFeedSubscriber, error) {
	nc, err := nats.Connect(natsURL)
	if err != nil {
		return nil, err
	}

	subscriber := &ScheduleFeedSubscriber{
		natsConn:   nc,
		hub:        hub,
		retryDelay: time.Second * retryDelaySec,
	}

	if err := subscriber.subscribe(); err != nil {
		nc.Close()
		return nil, err
	}

	return subscriber, nil
}

func (s *ScheduleFeedSubscriber) subscribe() error {
	sub, err := s.natsConn.Subscribe("schedule.updated.*", func(msg *nats.Msg) {
		if err := s.process(msg.Data); err != nil {
			slog.Error("Dropping schedule update after retries",
				slog.String("subject", msg.Subject),
				slog.String("error", err.Error()))

			if pubErr := s.natsConn.Publish(dlqSubject, msg.Data); pubErr != nil {
				slog.Error("Failed to publish to DLQ",
					slog.String("subject", dlqSubject),
					slog.String("error", pubErr.Error()))
			} else {
				slog.Info("Published failed schedule update to DLQ", slog.String("subject", dlqSubject))
			}
		}
	})
	if err != nil {
		return err
	}

	s.sub = sub
	slog.Info("Schedule feed subscriber listening", slog.String("subject", "schedule.updated.*"))
	return nil
}

// process pushes the event's schedule to the hub, retrying transient snapshot
// failures. A malformed event is permanent and fails without retrying.
func (s *ScheduleFeedSubscriber) process(data []byte) error {
	var event ScheduleUpdatedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal schedule event: %w", err)
	}
	if event.InstructorID == uuid.Nil {
		return fmt.Errorf("schedule event without instructor id")
	}

	var broadcastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		broadcastErr = s.hub.Broadcast(event.InstructorID)
		if broadcastErr == nil {
			return nil
		}

		slog.Warn("Failed to push schedule snapshot, retrying",
			slog.String("instructor_id", event.InstructorID.String()),
			slog.Int("attempt", attempt),
			slog.String("error", broadcastErr.Error()))
		time.Sleep(s.retryDelay)
	}

	return fmt.Errorf("broadcast schedule update after %d attempts: %w", maxRetries, broadcastErr)
}

func (s *ScheduleFeedSubscriber) Close() {
	if s.sub != nil {
		_ = s.sub.Unsubscribe()
	}
	s.natsConn.Close()
}
