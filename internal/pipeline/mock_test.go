package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/propdata"
)

type mockProvider struct {
	mock.Mock
}

func (m *mockProvider) Search(ctx context.Context, f propdata.Filters, skip, take int) (*propdata.SearchResponse, error) {
	args := m.Called(ctx, f, skip, take)
	if resp := args.Get(0); resp != nil {
		return resp.(*propdata.SearchResponse), args.Error(1)
	}
	return nil, args.Error(1)
}

// fakeStore is an in-memory Store with per-fingerprint failure injection.
type fakeStore struct {
	mu sync.Mutex

	properties   map[string]model.CanonicalProperty
	owners       map[string]model.Owner
	contacts     map[string][]model.Contact
	deliveries   map[string]map[string]bool
	cursors      map[string]int
	acquisitions []model.Acquisition

	failProperty map[string]error
	failDelivery map[string]error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		properties:   map[string]model.CanonicalProperty{},
		owners:       map[string]model.Owner{},
		contacts:     map[string][]model.Contact{},
		deliveries:   map[string]map[string]bool{},
		cursors:      map[string]int{},
		failProperty: map[string]error{},
		failDelivery: map[string]error{},
	}
}

func (s *fakeStore) InsertPropertyIfAbsent(_ context.Context, fp string, p model.CanonicalProperty) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failProperty[fp]; err != nil {
		return false, err
	}
	if _, ok := s.properties[fp]; ok {
		return false, nil
	}
	s.properties[fp] = p
	return true, nil
}

func (s *fakeStore) InsertOwnerIfAbsent(_ context.Context, o model.Owner) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.owners[o.Name]; ok {
		return false, nil
	}
	s.owners[o.Name] = o
	return true, nil
}

func (s *fakeStore) InsertContact(_ context.Context, fp string, c model.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.contacts[fp] = append(s.contacts[fp], c)
	return nil
}

func (s *fakeStore) InsertLeadDelivery(_ context.Context, userID, fp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failDelivery[fp]; err != nil {
		return err
	}
	if s.deliveries[userID] == nil {
		s.deliveries[userID] = map[string]bool{}
	}
	s.deliveries[userID][fp] = true
	return nil
}

func (s *fakeStore) IsDelivered(_ context.Context, userID, fp string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deliveries[userID][fp], nil
}

func (s *fakeStore) ListDeliveredFingerprints(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []string
	for fp := range s.deliveries[userID] {
		out = append(out, fp)
	}
	return out, nil
}

func (s *fakeStore) ResetDeliveries(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := int64(len(s.deliveries[userID]))
	delete(s.deliveries, userID)
	return n, nil
}

func (s *fakeStore) GetSkipCursor(_ context.Context, userID, key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[userID+"|"+key], nil
}

func (s *fakeStore) AdvanceSkipCursor(_ context.Context, userID, key string, by int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cursors[userID+"|"+key] += by
	return nil
}

func (s *fakeStore) ResetSkipCursor(_ context.Context, userID, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.cursors, userID+"|"+key)
	return nil
}

func (s *fakeStore) ListSkipCursors(_ context.Context, userID string) ([]model.SkipCursor, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.SkipCursor
	for key, pos := range s.cursors {
		out = append(out, model.SkipCursor{UserID: userID, CriteriaKey: key, Position: pos})
	}
	return out, nil
}

func (s *fakeStore) RecordAcquisition(_ context.Context, a model.Acquisition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.acquisitions = append(s.acquisitions, a)
	return nil
}

func (s *fakeStore) Migrate(context.Context) error { return nil }
func (s *fakeStore) Close() error                  { return nil }

func (s *fakeStore) cursor(userID, key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursors[userID+"|"+key]
}
