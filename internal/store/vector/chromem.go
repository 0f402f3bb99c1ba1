// Package vector wraps the chromem-go index that stores utterance embeddings
// for similarity recall.
package vector

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	chromem "github.com/philippgille/chromem-go"

	"github.com/google/uuid"
	"github.com/jamjam-ai/jamjam/internal/model/memory"
)

const collectionName = "chat_memory"

// Store wraps a persistent chromem collection. Member scoping happens through
// metadata filters; a filtered search that fails degrades to an unfiltered one
// instead of failing the call.
type Store struct {
	mu  sync.RWMutex
	db  *chromem.DB
	col *chromem.Collection
}

// New opens (or creates) the persistent vector store under dataDir.
// embedFunc is typically chromem.NewEmbeddingFuncOpenAICompat pointed at the
// configured embedding endpoint.
func New(dataDir string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	dir := filepath.Join(dataDir, "vectorstore")
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create vectorstore dir: %w", err)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vectorstore: %w", err)
	}

	col, err := db.GetOrCreateCollection(collectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", collectionName, err)
	}

	return &Store{db: db, col: col}, nil
}

// Add indexes one utterance. Empty text is skipped silently; records are
// write-once and never updated.
func (s *Store) Add(ctx context.Context, record memory.Record) error {
	text := strings.TrimSpace(record.Text)
	if text == "" {
		return nil
	}

	created := record.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc := chromem.Document{
		ID:      uuid.NewString(),
		Content: text,
		Metadata: map[string]string{
			"member_id":  strconv.FormatInt(record.MemberID, 10),
			"role":       record.Role,
			"created_at": created.UTC().Format(time.RFC3339),
			"chat_id":    strconv.FormatInt(record.ChatID, 10),
		},
	}
	return s.col.AddDocument(ctx, doc)
}

// Search returns the top-k most similar utterances with scores. memberID == 0
// searches unscoped; otherwise results are filtered to the member, falling
// back to an unfiltered search if the filtered one errors.
func (s *Store) Search(ctx context.Context, query string, topK int, memberID int64) ([]memory.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := s.col.Count()
	if count == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = 3
	}
	if topK > count {
		topK = count
	}

	var where map[string]string
	if memberID != 0 {
		where = map[string]string{"member_id": strconv.FormatInt(memberID, 10)}
	}

	results, err := s.query(ctx, query, topK, where)
	if err != nil && where != nil {
		log.Printf("[vector] filtered search failed, retrying unfiltered: %v", err)
		results, err = s.query(ctx, query, topK, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	hits := make([]memory.Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, memory.Hit{
			Content:  r.Content,
			Metadata: r.Metadata,
			Score:    r.Similarity,
		})
	}
	return hits, nil
}

// query steps k down on failure: chromem can reject nResults close to the
// document count when a filter shrinks the candidate set.
func (s *Store) query(ctx context.Context, query string, topK int, where map[string]string) ([]chromem.Result, error) {
	var results []chromem.Result
	var err error
	for attemptK := topK; attemptK > 0; attemptK-- {
		results, err = s.col.Query(ctx, query, attemptK, where, nil)
		if err == nil {
			return results, nil
		}
	}
	return nil, err
}
