package lifecycle

import (
	"context"
	"errors"
	"sync"

	"github.com/formsight/formflow/internal/aws"
	"github.com/formsight/formflow/internal/submissions"
)

// memStore mimics the DynamoDB store's conditional semantics in memory.
type memStore struct {
	mu      sync.Mutex
	records map[string]*submissions.Record

	// failWrites makes the next N slot/status writes fail with a generic
	// error, to exercise the retry path.
	failWrites int

	slotWriteCalls   int
	markSuccessCalls int
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*submissions.Record{}}
}

func (m *memStore) CreateIfNotExists(ctx context.Context, id string, variantCount int, userResponses, formKind string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.records[id]; exists {
		return false, nil
	}
	m.records[id] = &submissions.Record{
		SubmissionID:  id,
		Status:        submissions.StatusProcessing,
		Results:       map[string]string{},
		Remaining:     variantCount,
		UserResponses: userResponses,
		FormKind:      formKind,
	}
	return true, nil
}

func (m *memStore) Get(ctx context.Context, id string) (*submissions.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[id]
	if !exists {
		return nil, nil
	}
	cp := *rec
	cp.Results = map[string]string{}
	for k, v := range rec.Results {
		cp.Results[k] = v
	}
	return &cp, nil
}

func (m *memStore) WriteSlotSuccess(ctx context.Context, id, slot, text string) (int, error) {
	return m.writeSlot(id, slot, text, false)
}

func (m *memStore) WriteSlotError(ctx context.Context, id, slot, sentinel string) error {
	_, err := m.writeSlot(id, slot, sentinel, true)
	return err
}

func (m *memStore) writeSlot(id, slot, value string, markError bool) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.slotWriteCalls++
	if m.failWrites > 0 {
		m.failWrites--
		return 0, errors.New("simulated store failure")
	}
	rec, exists := m.records[id]
	if !exists {
		return 0, submissions.ErrStatusMismatch
	}
	if _, written := rec.Results[slot]; written {
		return 0, submissions.ErrStatusMismatch
	}
	rec.Results[slot] = value
	rec.Remaining--
	if markError {
		rec.Status = submissions.StatusError
	}
	return rec.Remaining, nil
}

func (m *memStore) MarkSuccess(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.markSuccessCalls++
	if m.failWrites > 0 {
		m.failWrites--
		return errors.New("simulated store failure")
	}
	rec, exists := m.records[id]
	if !exists || rec.Status != submissions.StatusProcessing {
		return submissions.ErrStatusMismatch
	}
	rec.Status = submissions.StatusSuccess
	return nil
}

func (m *memStore) OverwriteSlot(ctx context.Context, id, slot, text, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[id]
	if !exists {
		return submissions.ErrStatusMismatch
	}
	rec.Results[slot] = text
	rec.Note = note
	return nil
}

func (m *memStore) MarkDispatchFailed(ctx context.Context, id, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, exists := m.records[id]
	if !exists {
		return errors.New("record not found")
	}
	rec.Status = submissions.StatusError
	rec.Note = note
	return nil
}

func (m *memStore) record(id string) *submissions.Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.records[id]
}

// memPublisher captures dispatched tasks.
type memPublisher struct {
	mu    sync.Mutex
	tasks []aws.GenerationTask

	// failAfter fails every send once this many have succeeded. -1 disables.
	failAfter int
}

func newMemPublisher() *memPublisher {
	return &memPublisher{failAfter: -1}
}

func (p *memPublisher) SendGenerationTask(ctx context.Context, task aws.GenerationTask) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAfter >= 0 && len(p.tasks) >= p.failAfter {
		return errors.New("simulated queue failure")
	}
	p.tasks = append(p.tasks, task)
	return nil
}

func (p *memPublisher) sent() []aws.GenerationTask {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]aws.GenerationTask, len(p.tasks))
	copy(out, p.tasks)
	return out
}
