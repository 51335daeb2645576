package index

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"

	"advisor/internal/logging"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteIndex is a persistent vector index backed by SQLite with the
// sqlite-vec extension. Embeddings survive process restarts, so the catalog
// only needs re-embedding when it changes.
type SQLiteIndex struct {
	mu         sync.RWMutex
	db         *sql.DB
	dbPath     string
	dimensions int
	vecReady   bool
}

// NewSQLiteIndex creates or opens a persistent index at dbPath. dimensions
// must match the embedding engine producing the vectors.
func NewSQLiteIndex(dbPath string, dimensions int) (*SQLiteIndex, error) {
	timer := logging.StartTimer(logging.CategoryIndex, "NewSQLiteIndex")
	defer timer.Stop()

	if dbPath == "" {
		return nil, fmt.Errorf("database path required")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("dimensions must be positive, got %d", dimensions)
	}

	logging.Index("Opening vector index at: %s (%d dimensions)", dbPath, dimensions)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify index database connection: %w", err)
	}

	idx := &SQLiteIndex{
		db:         db,
		dbPath:     dbPath,
		dimensions: dimensions,
	}

	if err := idx.initializeSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize index schema: %w", err)
	}

	logging.Index("Vector index ready (vec extension available: %v)", idx.vecReady)
	return idx, nil
}

func (s *SQLiteIndex) initializeSchema() error {
	embeddingsTable := `
	CREATE TABLE IF NOT EXISTS course_embeddings (
		course_id TEXT PRIMARY KEY,
		embedding BLOB NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.db.Exec(embeddingsTable); err != nil {
		return fmt.Errorf("failed to create embeddings table: %w", err)
	}

	vecTable := fmt.Sprintf(`
	CREATE VIRTUAL TABLE IF NOT EXISTS vec_courses USING vec0(
		embedding float[%d],
		course_id TEXT
	);
	`, s.dimensions)

	if _, err := s.db.Exec(vecTable); err != nil {
		// sqlite-vec may not be compiled in; brute-force search over the
		// plain table still works.
		logging.Get(logging.CategoryIndex).Warn("vec_courses table unavailable (sqlite-vec not loaded): %v", err)
		s.vecReady = false
	} else {
		s.vecReady = true
	}

	return nil
}

// Add inserts or replaces the embedding for a course.
func (s *SQLiteIndex) Add(ctx context.Context, courseID string, vec []float32) error {
	if courseID == "" {
		return fmt.Errorf("course ID required")
	}
	if len(vec) != s.dimensions {
		return fmt.Errorf("embedding for %s has %d dimensions, index expects %d", courseID, len(vec), s.dimensions)
	}

	blob := encodeFloat32SliceToBlob(vec)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO course_embeddings (course_id, embedding, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(course_id) DO UPDATE SET
			embedding = excluded.embedding,
			updated_at = CURRENT_TIMESTAMP
	`, courseID, blob); err != nil {
		return fmt.Errorf("failed to store embedding for %s: %w", courseID, err)
	}

	if s.vecReady {
		if _, err := s.db.ExecContext(ctx, `
			DELETE FROM vec_courses WHERE course_id = ?
		`, courseID); err != nil {
			logging.Get(logging.CategoryIndex).Warn("failed to clear vec row for %s: %v", courseID, err)
		}
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO vec_courses (embedding, course_id)
			VALUES (?, ?)
		`, blob, courseID); err != nil {
			logging.Get(logging.CategoryIndex).Warn("failed to insert vec row for %s (ANN may be unavailable): %v", courseID, err)
		}
	}

	logging.IndexDebug("indexed course %s (%d dims)", courseID, len(vec))
	return nil
}

// Search returns the top K most similar courses by cosine similarity.
func (s *SQLiteIndex) Search(ctx context.Context, query []float32, k int) ([]Hit, error) {
	timer := logging.StartTimer(logging.CategoryIndex, "SQLiteIndex.Search")
	defer timer.Stop()

	if k <= 0 {
		k = 5
	}
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("query has %d dimensions, index expects %d", len(query), s.dimensions)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.vecReady {
		hits, err := s.searchVec(ctx, query, k)
		if err == nil {
			return hits, nil
		}
		logging.IndexDebug("vec search failed, falling back to brute force: %v", err)
	}

	return s.searchBruteForce(ctx, query, k)
}

// searchVec performs ANN search using sqlite-vec's cosine distance.
// Similarity is 1.0 - distance.
func (s *SQLiteIndex) searchVec(ctx context.Context, query []float32, k int) ([]Hit, error) {
	queryBlob := encodeFloat32SliceToBlob(query)

	rows, err := s.db.QueryContext(ctx, `
		SELECT
			course_id,
			vec_distance_cosine(embedding, ?) AS distance
		FROM vec_courses
		ORDER BY distance ASC
		LIMIT ?
	`, queryBlob, k)
	if err != nil {
		return nil, fmt.Errorf("vec search failed: %w", err)
	}
	defer rows.Close()

	var hits []Hit
	rank := 1
	for rows.Next() {
		var id string
		var distance float64
		if err := rows.Scan(&id, &distance); err != nil {
			logging.Get(logging.CategoryIndex).Warn("failed to scan vec search row: %v", err)
			continue
		}
		hits = append(hits, Hit{CourseID: id, Similarity: 1.0 - distance, Rank: rank})
		rank++
	}

	return hits, rows.Err()
}

// searchBruteForce scans all stored embeddings and ranks them in memory.
func (s *SQLiteIndex) searchBruteForce(ctx context.Context, query []float32, k int) ([]Hit, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT course_id, embedding FROM course_embeddings`)
	if err != nil {
		return nil, fmt.Errorf("brute-force scan failed: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id  string
		sim float64
	}
	var all []scored

	for rows.Next() {
		var id string
		var blob []byte
		if err := rows.Scan(&id, &blob); err != nil {
			logging.Get(logging.CategoryIndex).Warn("failed to scan embedding row: %v", err)
			continue
		}

		vec := decodeFloat32SliceFromBlob(blob)
		sim, err := cosine(query, vec)
		if err != nil {
			logging.Get(logging.CategoryIndex).Warn("skipping %s: %v", id, err)
			continue
		}
		all = append(all, scored{id: id, sim: sim})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Selection by repeated max keeps this simple; K is small.
	var hits []Hit
	for len(hits) < k && len(all) > 0 {
		best := 0
		for i := 1; i < len(all); i++ {
			if all[i].sim > all[best].sim {
				best = i
			}
		}
		hits = append(hits, Hit{CourseID: all[best].id, Similarity: all[best].sim, Rank: len(hits) + 1})
		all = append(all[:best], all[best+1:]...)
	}

	return hits, nil
}

// Len returns the number of indexed courses.
func (s *SQLiteIndex) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM course_embeddings`).Scan(&n); err != nil {
		return 0
	}
	return n
}

// Clear removes all entries.
func (s *SQLiteIndex) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, `DELETE FROM course_embeddings`); err != nil {
		return fmt.Errorf("failed to clear embeddings: %w", err)
	}
	if s.vecReady {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM vec_courses`); err != nil {
			logging.Get(logging.CategoryIndex).Warn("failed to clear vec table: %v", err)
		}
	}
	return nil
}

// Close closes the backing database.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// cosine computes cosine similarity without normalizing stored vectors.
func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("dimension mismatch: %d != %d", len(a), len(b))
	}

	var dot, ma, mb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		ma += float64(a[i]) * float64(a[i])
		mb += float64(b[i]) * float64(b[i])
	}
	if ma == 0 || mb == 0 {
		return 0, nil
	}
	return dot / (math.Sqrt(ma) * math.Sqrt(mb)), nil
}

// encodeFloat32SliceToBlob encodes a float32 slice as a binary blob for
// sqlite-vec. Uses little-endian encoding as expected by the extension.
func encodeFloat32SliceToBlob(vec []float32) []byte {
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		return nil
	}
	return buf.Bytes()
}

// decodeFloat32SliceFromBlob decodes a binary blob back to a float32 slice.
func decodeFloat32SliceFromBlob(blob []byte) []float32 {
	if len(blob) == 0 || len(blob)%4 != 0 {
		return nil
	}
	vec := make([]float32, len(blob)/4)
	if err := binary.Read(bytes.NewReader(blob), binary.LittleEndian, &vec); err != nil {
		return nil
	}
	return vec
}
