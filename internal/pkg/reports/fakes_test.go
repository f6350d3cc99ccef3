package reports

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"gorm.io/gorm"

	"github.com/ManuelReschke/Reakage/app/models"
)

type fakeStore struct {
	mu      sync.Mutex
	next    int
	rows    map[string]models.Report
	calls   int
	keyErr  error
	setErr  error
	leakAll bool // ignore the owner filter
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]models.Report)}
}

func (s *fakeStore) NewKey(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.keyErr != nil {
		return "", s.keyErr
	}
	s.next++
	return fmt.Sprintf("key-%06d", s.next), nil
}

func (s *fakeStore) Set(ctx context.Context, report *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.setErr != nil {
		return s.setErr
	}
	s.rows[report.ID] = *report
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, id string) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	r, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &r, nil
}

func (s *fakeStore) ListByUserID(ctx context.Context, userID uint) ([]models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	var out []models.Report
	for _, r := range s.rows {
		if s.leakAll || r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	calls   int
	putErr  error
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls++
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	if int64(len(data)) != size {
		return errors.New("size mismatch")
	}
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) URL(ctx context.Context, key string) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (b *fakeBlobs) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

func (b *fakeBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}
