// Package memory provides an in-memory attendance store for development and
// tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"geoattend/internal/attendance"
	id "geoattend/pkg/domain"
	"geoattend/pkg/platform/sentinel"
)

// InMemoryRecordStore keeps records in a map guarded by a RWMutex. The
// one-record-per-user-per-day constraint is enforced on Create in the
// reference timezone supplied at construction, matching the database-backed
// store's unique index.
type InMemoryRecordStore struct {
	mu      sync.RWMutex
	records map[id.AttendanceID]*attendance.Record
	refZone *time.Location
}

func New(refZone *time.Location) *InMemoryRecordStore {
	if refZone == nil {
		refZone = time.UTC
	}
	return &InMemoryRecordStore{
		records: make(map[id.AttendanceID]*attendance.Record),
		refZone: refZone,
	}
}

func (s *InMemoryRecordStore) Create(_ context.Context, record *attendance.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	y, m, d := record.ServerReceivedAt.In(s.refZone).Date()
	for _, existing := range s.records {
		if existing.UserID != record.UserID {
			continue
		}
		ey, em, ed := existing.ServerReceivedAt.In(s.refZone).Date()
		if ey == y && em == m && ed == d {
			return sentinel.ErrConflict
		}
	}

	copied := *record
	s.records[record.ID] = &copied
	return nil
}

func (s *InMemoryRecordStore) Get(_ context.Context, recordID id.AttendanceID) (*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[recordID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *InMemoryRecordStore) ListByUser(_ context.Context, userID id.UserID) ([]*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*attendance.Record
	for _, record := range s.records {
		if record.UserID == userID {
			copied := *record
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryRecordStore) ListByUserOn(_ context.Context, userID id.UserID, at time.Time, loc *time.Location) ([]*attendance.Record, error) {
	if loc == nil {
		loc = s.refZone
	}
	y, m, d := at.In(loc).Date()

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*attendance.Record
	for _, record := range s.records {
		if record.UserID != userID {
			continue
		}
		ry, rm, rd := record.ServerReceivedAt.In(loc).Date()
		if ry == y && rm == m && rd == d {
			copied := *record
			out = append(out, &copied)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (s *InMemoryRecordStore) List(_ context.Context) ([]*attendance.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*attendance.Record, 0, len(s.records))
	for _, record := range s.records {
		copied := *record
		out = append(out, &copied)
	}
	sortNewestFirst(out)
	return out, nil
}

func sortNewestFirst(records []*attendance.Record) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].ServerReceivedAt.Equal(records[j].ServerReceivedAt) {
			return records[i].ID.String() < records[j].ID.String()
		}
		return records[i].ServerReceivedAt.After(records[j].ServerReceivedAt)
	})
}

var _ attendance.Store = (*InMemoryRecordStore)(nil)
