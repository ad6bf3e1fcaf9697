package events

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/freelancedao/settlement/internal/domain/entity"
	"github.com/freelancedao/settlement/internal/domain/repository"
	"github.com/freelancedao/settlement/internal/logger"
)

// Sink получает события после фиксации изменения. Реализация не должна
// обращаться обратно к движку: публикация идёт под его блокировкой.
type Sink interface {
	Publish(ctx context.Context, event entity.Event) error
}

// Fanout рассылает событие всем получателям и собирает ошибки.
type Fanout []Sink

func (f Fanout) Publish(ctx context.Context, event entity.Event) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogSink пишет события в общий логгер.
type LogSink struct{}

func (LogSink) Publish(_ context.Context, event entity.Event) error {
	logger.WithFields(logrus.Fields{
		"event":      event.Name,
		"job_id":     event.JobID,
		"dispute_id": event.DisputeID,
		"data":       event.Data,
	}).Debug("settlement event")
	return nil
}

// JournalSink сохраняет события в журнал.
type JournalSink struct {
	journal repository.EventJournal
}

func NewJournalSink(journal repository.EventJournal) *JournalSink {
	return &JournalSink{journal: journal}
}

func (s *JournalSink) Publish(ctx context.Context, event entity.Event) error {
	return s.journal.Append(ctx, &event)
}

// Recorder запоминает события в памяти. settlementctl simulate печатает
// по нему ход сценария, тесты проверяют опубликованные события.
type Recorder struct {
	mu     sync.Mutex
	events []entity.Event
}

func (r *Recorder) Publish(_ context.Context, event entity.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *Recorder) Events() []entity.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Event, len(r.events))
	copy(out, r.events)
	return out
}

// Named возвращает события с указанным именем.
func (r *Recorder) Named(name entity.EventName) []entity.Event {
	var out []entity.Event
	for _, e := range r.Events() {
		if e.Name == name {
			out = append(out, e)
		}
	}
	return out
}

// Names возвращает имена событий в порядке публикации.
func (r *Recorder) Names() []entity.EventName {
	evs := r.Events()
	out := make([]entity.EventName, len(evs))
	for i, e := range evs {
		out[i] = e.Name
	}
	return out
}
