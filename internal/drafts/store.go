package drafts

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"
	"time"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"go.uber.org/zap"

	"github.com/oyin-bo/autothread/internal/segment"
	"github.com/oyin-bo/autothread/pkg/errors"
)

const (
	idLength   = 8
	idAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// maxIDAttempts bounds regeneration when a fresh id is already taken
	maxIDAttempts = 10
)

// Store is the process-wide draft registry. Iteration follows insertion
// order. Nothing is persisted.
type Store struct {
	mu          sync.RWMutex
	drafts      *orderedmap.OrderedMap[string, *Draft]
	checkpoints map[string][]PublishedPost

	locksMu sync.Mutex
	locks   map[string]*draftLock

	logger *zap.Logger
	split  func(string) []string
	newID  func() (string, error)
	now    func() time.Time
}

// NewStore creates an empty draft store
func NewStore(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		drafts:      orderedmap.New[string, *Draft](),
		checkpoints: make(map[string][]PublishedPost),
		locks:       make(map[string]*draftLock),
		logger:      logger,
		split:       segment.Split,
		newID:       generateID,
		now:         time.Now,
	}
}

// Create splits content into chunks and stores it as a new draft
func (s *Store) Create(content, title string) (*Draft, error) {
	if strings.TrimSpace(content) == "" {
		return nil, errors.NewMCPError(errors.InvalidInput, "content cannot be empty")
	}

	chunks := s.split(content)
	now := s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := s.uniqueIDLocked()
	if err != nil {
		return nil, err
	}

	draft := &Draft{
		ID:        id,
		Content:   content,
		Title:     strings.TrimSpace(title),
		Chunks:    chunks,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.drafts.Set(id, draft)

	s.logger.Info("draft created",
		zap.String("draft_id", id),
		zap.Int("chunks", len(chunks)),
		zap.Int("graphemes", segment.Length(content)))

	return draft.clone(), nil
}

func (s *Store) uniqueIDLocked() (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id, err := s.newID()
		if err != nil {
			return "", errors.Wrap(err, errors.InternalError, "Failed to generate draft id")
		}
		if _, taken := s.drafts.Get(id); !taken {
			return id, nil
		}
		s.logger.Warn("draft id collision, regenerating", zap.String("draft_id", id))
	}
	return "", errors.NewMCPError(errors.InternalError, "Failed to generate a unique draft id")
}

// Get returns a copy of the draft with the given id
func (s *Store) Get(id string) (*Draft, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	draft, ok := s.drafts.Get(id)
	if !ok {
		return nil, false
	}
	return draft.clone(), true
}

// List returns up to limit drafts in insertion order along with the total
// number of drafts held
func (s *Store) List(limit int) ([]*Draft, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := s.drafts.Len()
	if limit <= 0 || limit > total {
		limit = total
	}

	result := make([]*Draft, 0, limit)
	for pair := s.drafts.Oldest(); pair != nil && len(result) < limit; pair = pair.Next() {
		result = append(result, pair.Value.clone())
	}
	return result, total
}

// Delete removes a draft and any publish checkpoint it has
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts.Delete(id); !ok {
		return false
	}
	delete(s.checkpoints, id)

	s.logger.Info("draft deleted", zap.String("draft_id", id))
	return true
}

// Len returns the number of stored drafts
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.drafts.Len()
}

// draftLock is a per-draft mutex shared by everyone holding or waiting on it
type draftLock struct {
	mu   sync.Mutex
	refs int
}

// Lock serialises store-mutating operations on a single draft. The returned
// function releases the lock. Entries exist only while held or awaited.
func (s *Store) Lock(id string) func() {
	s.locksMu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &draftLock{}
		s.locks[id] = l
	}
	l.refs++
	s.locksMu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()

		s.locksMu.Lock()
		defer s.locksMu.Unlock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
	}
}

// Checkpoint returns the posts already published for a draft by an earlier,
// partially failed publish
func (s *Store) Checkpoint(id string) []PublishedPost {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]PublishedPost(nil), s.checkpoints[id]...)
}

// SaveCheckpoint records published posts for a draft. The draft itself is
// left untouched. Ignored if the draft no longer exists.
func (s *Store) SaveCheckpoint(id string, posts []PublishedPost) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.drafts.Get(id); !ok {
		return
	}
	if len(posts) == 0 {
		delete(s.checkpoints, id)
		return
	}
	s.checkpoints[id] = append([]PublishedPost(nil), posts...)
}

// generateID returns idLength symbols drawn uniformly from idAlphabet
func generateID() (string, error) {
	// 248 is the largest multiple of 62 that fits in a byte
	const limit = 256 - 256%len(idAlphabet)

	id := make([]byte, 0, idLength)
	buf := make([]byte, idLength*2)
	for len(id) < idLength {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			id = append(id, idAlphabet[int(b)%len(idAlphabet)])
			if len(id) == idLength {
				break
			}
		}
	}
	return string(id), nil
}
