package memory

import (
	"context"
	"sync"

	"github.com/freelancedao/settlement/internal/domain/entity"
)

type Journal struct {
	mu     sync.RWMutex
	events []entity.Event
}

func NewJournal() *Journal {
	return &Journal{}
}

func (j *Journal) Append(ctx context.Context, event *entity.Event) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	event.Seq = uint64(len(j.events) + 1)
	j.events = append(j.events, *event)
	return nil
}

func (j *Journal) ListByJob(ctx context.Context, jobID uint64, limit, offset int) ([]entity.Event, error) {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make([]entity.Event, 0)
	skipped := 0
	for _, e := range j.events {
		if e.JobID != jobID {
			continue
		}
		if skipped < offset {
			skipped++
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, e)
	}
	return out, nil
}
