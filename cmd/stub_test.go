package main

import (
	"context"
	"strings"

	"github.com/sells-group/leadflow/internal/model"
	"github.com/sells-group/leadflow/pkg/propdata"
)

// stubProvider returns canned pages per call.
type stubProvider struct {
	search func(ctx context.Context, f propdata.Filters, skip, take int) (*propdata.SearchResponse, error)
}

func (s *stubProvider) Search(ctx context.Context, f propdata.Filters, skip, take int) (*propdata.SearchResponse, error) {
	return s.search(ctx, f, skip, take)
}

// stubStore is a minimal in-memory Store for handler tests.
type stubStore struct {
	properties map[string]model.CanonicalProperty
	deliveries map[string]map[string]bool
	cursors    map[string]int

	resetErr error
}

func newStubStore() *stubStore {
	return &stubStore{
		properties: map[string]model.CanonicalProperty{},
		deliveries: map[string]map[string]bool{},
		cursors:    map[string]int{},
	}
}

func (s *stubStore) InsertPropertyIfAbsent(_ context.Context, fp string, p model.CanonicalProperty) (bool, error) {
	if _, ok := s.properties[fp]; ok {
		return false, nil
	}
	s.properties[fp] = p
	return true, nil
}

func (s *stubStore) InsertOwnerIfAbsent(context.Context, model.Owner) (bool, error) { return true, nil }

func (s *stubStore) InsertContact(context.Context, string, model.Contact) error { return nil }

func (s *stubStore) InsertLeadDelivery(_ context.Context, userID, fp string) error {
	if s.deliveries[userID] == nil {
		s.deliveries[userID] = map[string]bool{}
	}
	s.deliveries[userID][fp] = true
	return nil
}

func (s *stubStore) IsDelivered(_ context.Context, userID, fp string) (bool, error) {
	return s.deliveries[userID][fp], nil
}

func (s *stubStore) ListDeliveredFingerprints(_ context.Context, userID string) ([]string, error) {
	var out []string
	for fp := range s.deliveries[userID] {
		out = append(out, fp)
	}
	return out, nil
}

func (s *stubStore) ResetDeliveries(_ context.Context, userID string) (int64, error) {
	if s.resetErr != nil {
		return 0, s.resetErr
	}
	n := int64(len(s.deliveries[userID]))
	delete(s.deliveries, userID)
	return n, nil
}

func (s *stubStore) GetSkipCursor(_ context.Context, userID, key string) (int, error) {
	return s.cursors[userID+"|"+key], nil
}

func (s *stubStore) AdvanceSkipCursor(_ context.Context, userID, key string, by int) error {
	s.cursors[userID+"|"+key] += by
	return nil
}

func (s *stubStore) ResetSkipCursor(_ context.Context, userID, key string) error {
	delete(s.cursors, userID+"|"+key)
	return nil
}

func (s *stubStore) ListSkipCursors(_ context.Context, userID string) ([]model.SkipCursor, error) {
	var out []model.SkipCursor
	for key, pos := range s.cursors {
		if k, ok := strings.CutPrefix(key, userID+"|"); ok {
			out = append(out, model.SkipCursor{UserID: userID, CriteriaKey: k, Position: pos})
		}
	}
	return out, nil
}

func (s *stubStore) RecordAcquisition(context.Context, model.Acquisition) error { return nil }

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }
