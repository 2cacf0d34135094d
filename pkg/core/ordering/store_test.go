package ordering

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/wadjakorntonsri/studio-cms/pkg/core/domain"
)

var errStoreDown = errors.New("document store unavailable")

// fakeStore is an in-memory DocumentStore with failure injection.
type fakeStore struct {
	mu        sync.Mutex
	items     map[string][]domain.OrderedItem
	nextID    int
	batches   [][]domain.SequenceUpdate
	deletes   []string
	fetches   int
	failBatch int
	failFetch bool

	// gate, when set, blocks BatchUpdateSequences until it receives a value.
	gate    chan struct{}
	entered chan struct{}

	// fetchHold and createHold pause FetchCollection after it has read the rows
	// and CreateItem before it writes, until the channel is closed.
	fetchRead  chan struct{}
	fetchHold  chan struct{}
	createSeen chan struct{}
	createHold chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{items: make(map[string][]domain.OrderedItem)}
}

func (s *fakeStore) seed(collection string, ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, id := range ids {
		s.items[collection] = append(s.items[collection], domain.OrderedItem{
			ID:       id,
			Sequence: i,
			Payload:  domain.Payload{Title: id},
		})
	}
}

func (s *fakeStore) FetchCollection(_ context.Context, collection string) ([]domain.OrderedItem, error) {
	s.mu.Lock()
	s.fetches++
	if s.failFetch {
		s.mu.Unlock()
		return nil, errStoreDown
	}
	out := make([]domain.OrderedItem, len(s.items[collection]))
	copy(out, s.items[collection])
	read, hold := s.fetchRead, s.fetchHold
	s.mu.Unlock()

	signal(read)
	if hold != nil {
		<-hold
	}
	return out, nil
}

func (s *fakeStore) BatchUpdateSequences(_ context.Context, collection string, updates []domain.SequenceUpdate) error {
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		<-s.gate
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	batch := make([]domain.SequenceUpdate, len(updates))
	copy(batch, updates)
	s.batches = append(s.batches, batch)

	if s.failBatch > 0 {
		s.failBatch--
		return errStoreDown
	}

	bySeq := make(map[string]int, len(updates))
	for _, u := range updates {
		bySeq[u.ID] = u.Sequence
	}
	items := s.items[collection]
	for i := range items {
		if seq, ok := bySeq[items[i].ID]; ok {
			items[i].Sequence = seq
		}
	}
	return nil
}

func (s *fakeStore) CreateItem(_ context.Context, collection string, sequence int, payload domain.Payload) (string, error) {
	s.mu.Lock()
	seen, hold := s.createSeen, s.createHold
	s.mu.Unlock()
	signal(seen)
	if hold != nil {
		<-hold
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("new-%d", s.nextID)
	s.items[collection] = append(s.items[collection], domain.OrderedItem{ID: id, Sequence: sequence, Payload: payload})
	return id, nil
}

func (s *fakeStore) DeleteItem(_ context.Context, collection, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes = append(s.deletes, id)
	items := s.items[collection]
	for i := range items {
		if items[i].ID == id {
			s.items[collection] = append(items[:i:i], items[i+1:]...)
			break
		}
	}
	return nil
}

func (s *fakeStore) UpdatePayload(context.Context, string, string, domain.Payload) error {
	return nil
}

func (s *fakeStore) Dump(context.Context) ([]domain.Document, error) { return nil, nil }

func (s *fakeStore) Restore(context.Context, []domain.Document) (int, error) { return 0, nil }

func (s *fakeStore) batchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.batches)
}

func (s *fakeStore) lastBatch() []domain.SequenceUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.batches) == 0 {
		return nil
	}
	return s.batches[len(s.batches)-1]
}

// holdFetches pauses every later fetch after it reads. Close the returned
// release channel to let them finish.
func (s *fakeStore) holdFetches() (read <-chan struct{}, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchRead = make(chan struct{}, 1)
	s.fetchHold = make(chan struct{})
	return s.fetchRead, s.fetchHold
}

func (s *fakeStore) holdCreates() (seen <-chan struct{}, release chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createSeen = make(chan struct{}, 1)
	s.createHold = make(chan struct{})
	return s.createSeen, s.createHold
}

func (s *fakeStore) rows(collection string) []domain.OrderedItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.OrderedItem(nil), s.items[collection]...)
}

func signal(ch chan struct{}) {
	if ch == nil {
		return
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}

func (s *fakeStore) setFailBatch(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failBatch = n
}

// recordingNotifier collects notifications.
type recordingNotifier struct {
	mu   sync.Mutex
	msgs []domain.Notification
}

func (n *recordingNotifier) Notify(_ context.Context, msg domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *recordingNotifier) all() []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]domain.Notification(nil), n.msgs...)
}
