package ticket

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Record is a queued ticket. Records live only as long as the process.
type Record struct {
	ID       string    `json:"id"`
	TenantID string    `json:"-"`
	QueuedAt time.Time `json:"queuedAt"`
	Ticket   *Ticket   `json:"ticket"`
}

// Queue is the in-memory ticket history, most recent first. Every formatted
// ticket lands here regardless of the print outcome.
type Queue struct {
	mu      sync.Mutex
	records []Record
	limit   int
}

// NewQueue returns a queue holding at most limit records; limit 0 keeps
// everything until restart.
func NewQueue(limit int) *Queue {
	return &Queue{limit: limit}
}

func (q *Queue) Enqueue(tenantID string, t *Ticket) Record {
	rec := Record{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		QueuedAt: time.Now(),
		Ticket:   t,
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.records = append(q.records, Record{})
	copy(q.records[1:], q.records)
	q.records[0] = rec
	if q.limit > 0 && len(q.records) > q.limit {
		q.records = q.records[:q.limit]
	}
	return rec
}

// List returns a snapshot of every record, most recently enqueued first.
func (q *Queue) List() []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Record, len(q.records))
	copy(out, q.records)
	return out
}

// ListTenant is List filtered to one restaurant.
func (q *Queue) ListTenant(tenantID string) []Record {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := []Record{}
	for _, r := range q.records {
		if r.TenantID == tenantID {
			out = append(out, r)
		}
	}
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.records)
}
