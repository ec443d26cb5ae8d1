package storage

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

// MemoryDocumentStore is an in-process DocumentStore for tests and dry runs.
type MemoryDocumentStore struct {
	mu   sync.Mutex
	docs map[string]Document
	now  func() time.Time
	// history records every status a document passed through, in order.
	history map[string][]ProcessingStatus
}

// NewMemoryDocumentStore creates an empty store.
func NewMemoryDocumentStore() *MemoryDocumentStore {
	return &MemoryDocumentStore{
		docs:    make(map[string]Document),
		history: make(map[string][]ProcessingStatus),
		now:     time.Now,
	}
}

func (s *MemoryDocumentStore) Insert(ctx context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[doc.DocID]; ok {
		return fmt.Errorf("failed to insert document: duplicate docId %s", doc.DocID)
	}
	now := s.now().UTC()
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = now
	}
	doc.UpdatedAt = now
	if doc.ProcessingStatus == "" {
		doc.ProcessingStatus = StatusPending
	}
	s.docs[doc.DocID] = *doc
	s.history[doc.DocID] = []ProcessingStatus{doc.ProcessingStatus}
	return nil
}

func (s *MemoryDocumentStore) Get(ctx context.Context, docID, userID string) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return nil, ErrNotFound
	}
	return &doc, nil
}

func (s *MemoryDocumentStore) List(ctx context.Context, userID string, page, limit int) (Page, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	all, _ := s.Find(ctx, Filter{UserID: userID})
	sort.SliceStable(all, func(i, j int) bool { return all[i].UploadedAt.After(all[j].UploadedAt) })

	start := (page - 1) * limit
	end := start + limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	total := int64(len(all))
	return Page{
		Documents:  append([]Document{}, all[start:end]...),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}, nil
}

func (s *MemoryDocumentStore) Find(ctx context.Context, f Filter) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Document
	for _, d := range s.docs {
		if f.UserID != "" && d.UserID != f.UserID {
			continue
		}
		if len(f.DocIDs) > 0 && !slices.Contains(f.DocIDs, d.DocID) {
			continue
		}
		if f.Status != "" && d.ProcessingStatus != f.Status {
			continue
		}
		if !f.UpdatedBefore.IsZero() && !d.UpdatedAt.Before(f.UpdatedBefore) {
			continue
		}
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].DocID < out[j].DocID
	})
	return out, nil
}

func (s *MemoryDocumentStore) UpdateStatus(ctx context.Context, docID, userID string, u StatusUpdate) error {
	if !u.Status.Valid() {
		return fmt.Errorf("invalid processing status %q", u.Status)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	now := s.now().UTC()
	doc.ProcessingStatus = u.Status
	doc.ErrorMessage = u.ErrorMessage
	doc.UpdatedAt = now
	if u.Status == StatusCompleted || u.Status == StatusFailed {
		doc.ProcessedAt = &now
	}
	if u.Metadata != nil {
		doc.Metadata = *u.Metadata
	}
	s.docs[docID] = doc
	s.history[docID] = append(s.history[docID], u.Status)
	return nil
}

func (s *MemoryDocumentStore) Patch(ctx context.Context, docID, userID string, p DocumentPatch) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return nil, ErrNotFound
	}
	if p.Filename != nil {
		doc.Filename = *p.Filename
	}
	if p.Title != nil {
		doc.Metadata.Title = *p.Title
	}
	if p.Author != nil {
		doc.Metadata.Author = *p.Author
	}
	if p.Subject != nil {
		doc.Metadata.Subject = *p.Subject
	}
	doc.UpdatedAt = s.now().UTC()
	s.docs[docID] = doc
	return &doc, nil
}

func (s *MemoryDocumentStore) Delete(ctx context.Context, docID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok || doc.UserID != userID {
		return ErrNotFound
	}
	delete(s.docs, docID)
	return nil
}

// History returns the statuses docID passed through, starting with its
// status at insert.
func (s *MemoryDocumentStore) History(docID string) []ProcessingStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ProcessingStatus(nil), s.history[docID]...)
}

// SetClock replaces the time source.
func (s *MemoryDocumentStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	s.now = now
	s.mu.Unlock()
}

var _ DocumentStore = (*MemoryDocumentStore)(nil)
