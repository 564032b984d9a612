package eventpublisher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/lumini-statio/stackerly-api/internal/domain"
	"github.com/lumini-statio/stackerly-api/internal/usecase"
)

func TestProcessEventsPublishesAndMarks(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{{ID: "evt-1", EventType: "type"}},
	}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents failed: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(pub.published))
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-1" {
		t.Fatalf("expected event to be marked published, got %#v", repo.marked)
	}
}

func TestProcessEventsContinuesOnPublishError(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: "type"},
			{ID: "evt-2", EventType: "type"},
		},
	}
	pub := &stubPublisher{
		errorsByID: map[string]error{"evt-1": errors.New("fail")},
	}
	ep := newTestPublisher(repo, pub)

	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents returned error: %v", err)
	}

	if len(pub.published) != 1 || pub.published[0].ID != "evt-2" {
		t.Fatalf("expected only evt-2 to be published, got %#v", pub.published)
	}
	if len(repo.marked) != 1 || repo.marked[0] != "evt-2" {
		t.Fatalf("expected only evt-2 to be marked, got %#v", repo.marked)
	}
}

func TestStartStopsOnContextCancellation(t *testing.T) {
	repo := &stubOutboxRepo{}
	pub := &stubPublisher{}
	ep := newTestPublisher(repo, pub)
	ep.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ep.Start(ctx)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context canceled, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("publisher did not stop after cancel")
	}
}

func TestProcessEventsReportsToObserver(t *testing.T) {
	repo := &stubOutboxRepo{
		events: []*domain.OutboxEvent{
			{ID: "evt-1", EventType: domain.EventTypeStockSold},
			{ID: "evt-2", EventType: domain.EventTypeStockSold},
			{ID: "evt-3", EventType: domain.EventTypeStockRestocked},
		},
	}
	pub := &stubPublisher{errorsByID: map[string]error{"evt-2": errors.New("broker down")}}
	obs := &stubObserver{}

	ep := NewEventPublisher(Config{OutboxRepo: repo, Publisher: pub, Observer: obs, Logger: zerolog.Nop()})
	if err := ep.processEvents(context.Background()); err != nil {
		t.Fatalf("processEvents failed: %v", err)
	}

	if obs.published != 2 || obs.failed != 1 {
		t.Fatalf("expected 2 published and 1 failed, got %d/%d", obs.published, obs.failed)
	}
}

func TestCleanupRespectsRetention(t *testing.T) {
	repo := &stubOutboxRepo{}
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	ep := NewEventPublisher(Config{OutboxRepo: repo, Publisher: &stubPublisher{}, Logger: zerolog.Nop(), Retention: 24 * time.Hour})
	ep.now = func() time.Time { return now }

	ep.cleanup(context.Background())
	ep.cleanup(context.Background())

	if len(repo.deletedBefore) != 1 {
		t.Fatalf("expected a single cleanup within the cleanup window, got %d", len(repo.deletedBefore))
	}
	if want := now.Add(-24 * time.Hour); !repo.deletedBefore[0].Equal(want) {
		t.Fatalf("expected cutoff %v, got %v", want, repo.deletedBefore[0])
	}

	now = now.Add(2 * time.Hour)
	ep.cleanup(context.Background())
	if len(repo.deletedBefore) != 2 {
		t.Fatalf("expected cleanup after the window passed, got %d", len(repo.deletedBefore))
	}
}

func TestCleanupDisabledWithoutRetention(t *testing.T) {
	repo := &stubOutboxRepo{}
	ep := newTestPublisher(repo, &stubPublisher{})

	ep.cleanup(context.Background())

	if len(repo.deletedBefore) != 0 {
		t.Fatalf("expected no cleanup, got %d", len(repo.deletedBefore))
	}
}

type stubObserver struct {
	published, failed int
}

func (s *stubObserver) ObserveOutbox(published, failed int) {
	s.published += published
	s.failed += failed
}

func newTestPublisher(repo *stubOutboxRepo, pub *stubPublisher) *EventPublisher {
	return NewEventPublisher(Config{
		OutboxRepo: repo,
		Publisher:  pub,
		Logger:     zerolog.Nop(),
		BatchSize:  10,
		Interval:   5 * time.Millisecond,
	})
}

type stubOutboxRepo struct {
	events        []*domain.OutboxEvent
	marked        []string
	deletedBefore []time.Time
}

func (s *stubOutboxRepo) Create(ctx context.Context, tx usecase.Transaction, event *domain.OutboxEvent) error {
	return nil
}

func (s *stubOutboxRepo) GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error) {
	if len(s.events) <= limit {
		return append([]*domain.OutboxEvent(nil), s.events...), nil
	}
	return append([]*domain.OutboxEvent(nil), s.events[:limit]...), nil
}

func (s *stubOutboxRepo) MarkPublished(ctx context.Context, id string, publishedAt time.Time) error {
	s.marked = append(s.marked, id)
	return nil
}

func (s *stubOutboxRepo) DeletePublished(ctx context.Context, before time.Time) error {
	s.deletedBefore = append(s.deletedBefore, before)
	return nil
}

type stubPublisher struct {
	published  []*domain.OutboxEvent
	errorsByID map[string]error
}

func (s *stubPublisher) Publish(ctx context.Context, event *domain.OutboxEvent) error {
	if err := s.errorsByID[event.ID]; err != nil {
		return err
	}
	s.published = append(s.published, event)
	return nil
}
