package workspace

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/mellaniegambe/timecard/internal/model"
)

// ErrBatchNotFound is returned for unknown batch ids.
var ErrBatchNotFound = errors.New("batch not found")

// Manager holds live batches in memory. With a cap set, creating a batch past
// the cap evicts the oldest one.
type Manager struct {
	mu      sync.Mutex
	batches map[string]*Batch
	order   []string
	max     int
}

// NewManager creates a Manager. max <= 0 means no cap.
func NewManager(max int) *Manager {
	return &Manager{batches: make(map[string]*Batch), max: max}
}

// Create builds a batch from uploads and registers it.
func (m *Manager) Create(uploads []model.Upload) (*Batch, error) {
	b, err := NewBatch(uuid.NewString(), uploads)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.batches[b.ID] = b
	m.order = append(m.order, b.ID)
	for m.max > 0 && len(m.order) > m.max {
		oldest := m.order[0]
		m.order = m.order[1:]
		delete(m.batches, oldest)
	}
	return b, nil
}

// Get returns the batch with the given id.
func (m *Manager) Get(id string) (*Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.batches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	return b, nil
}

// Delete forgets a batch.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.batches[id]; !ok {
		return fmt.Errorf("%w: %s", ErrBatchNotFound, id)
	}
	delete(m.batches, id)
	for i, v := range m.order {
		if v == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Len returns the number of live batches.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.batches)
}
