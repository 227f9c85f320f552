package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/inquest-cli/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/inquest-cli/internal/core/domain"
	"github.com/custodia-labs/inquest-cli/internal/core/ports/driven"
)

// Store is a unified SQLite-based storage that provides access to
// all metadata store interfaces through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.inquest/data/research.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".inquest", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "research.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// SessionStore returns a SessionStore interface backed by this store.
func (s *Store) SessionStore() driven.SessionStore {
	return &sessionStore{store: s}
}

// SourceStore returns a SourceStore interface backed by this store.
func (s *Store) SourceStore() driven.SourceStore {
	return &sourceStore{store: s}
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Session Store ====================

// sessionStore implements driven.SessionStore.
type sessionStore struct {
	store *Store
}

var _ driven.SessionStore = (*sessionStore)(nil)

// SaveSession stores or updates a session.
func (s *sessionStore) SaveSession(ctx context.Context, session *domain.Session) error {
	if session.ID == "" {
		return fmt.Errorf("%w: session has no id", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sessions (id, topic, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			topic = excluded.topic,
			status = excluded.status,
			updated_at = excluded.updated_at
	`, session.ID, session.Topic, string(session.Status),
		session.CreatedAt, session.UpdatedAt)

	if err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID.
func (s *sessionStore) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, topic, status, created_at, updated_at
		FROM sessions WHERE id = ?
	`, id)

	return scanSession(row)
}

// ListSessions returns all sessions, newest first.
func (s *sessionStore) ListSessions(ctx context.Context) ([]domain.Session, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, topic, status, created_at, updated_at
		FROM sessions ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	defer rows.Close()

	var sessions []domain.Session //nolint:prealloc // size unknown from query
	for rows.Next() {
		var session domain.Session
		var status string
		if err := rows.Scan(&session.ID, &session.Topic, &status,
			&session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		session.Status = domain.SessionStatus(status)
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sessions: %w", err)
	}

	return sessions, nil
}

// AppendTurn appends a synthesis turn to a session's audit trail.
func (s *sessionStore) AppendTurn(ctx context.Context, turn *domain.SynthesisTurn) error {
	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO turns
			(session_id, turn_index, action_type, action_query, action_url,
			 action_answer, tool_result, model_response, tokens_used, retries)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, turn.SessionID, turn.Index, string(turn.Action.Type),
		turn.Action.Query, turn.Action.URL, turn.Action.Answer,
		turn.ToolResult, turn.ModelResponse, turn.TokensUsed, turn.Retries)

	if err != nil {
		return fmt.Errorf("appending turn: %w", err)
	}
	return nil
}

// ListTurns returns a session's turns in index order.
func (s *sessionStore) ListTurns(ctx context.Context, sessionID string) ([]domain.SynthesisTurn, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT session_id, turn_index, action_type, action_query, action_url,
		       action_answer, tool_result, model_response, tokens_used, retries
		FROM turns WHERE session_id = ?
		ORDER BY turn_index
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []domain.SynthesisTurn //nolint:prealloc // size unknown from query
	for rows.Next() {
		var turn domain.SynthesisTurn
		var actionType string
		if err := rows.Scan(&turn.SessionID, &turn.Index, &actionType,
			&turn.Action.Query, &turn.Action.URL, &turn.Action.Answer,
			&turn.ToolResult, &turn.ModelResponse, &turn.TokensUsed, &turn.Retries); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		turn.Action.Type = domain.ActionType(actionType)
		turns = append(turns, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// DeleteSession removes a session and its turns.
func (s *sessionStore) DeleteSession(ctx context.Context, id string) error {
	_, err := s.store.db.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

// scanSession scans a single session row.
func scanSession(row *sql.Row) (*domain.Session, error) {
	var session domain.Session
	var status string

	if err := row.Scan(&session.ID, &session.Topic, &status,
		&session.CreatedAt, &session.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning session: %w", err)
	}

	session.Status = domain.SessionStatus(status)
	return &session, nil
}

// ==================== Source Store ====================

// sourceStore implements driven.SourceStore.
type sourceStore struct {
	store *Store
}

var _ driven.SourceStore = (*sourceStore)(nil)

// SaveSource stores a fetched source.
func (s *sourceStore) SaveSource(ctx context.Context, sessionID string, source *domain.Source) error {
	if source.ID == "" || sessionID == "" {
		return fmt.Errorf("%w: source requires id and session", domain.ErrInvalidInput)
	}

	if source.FetchedAt.IsZero() {
		source.FetchedAt = time.Now().UTC()
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO sources (id, session_id, kind, origin_url, title, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			fetched_at = excluded.fetched_at
	`, source.ID, sessionID, string(source.Kind), source.OriginURL,
		source.Title, source.FetchedAt)

	if err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	return nil
}

// GetSource retrieves a source by ID.
func (s *sourceStore) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, kind, origin_url, title, fetched_at
		FROM sources WHERE id = ?
	`, id)

	var source domain.Source
	var kind string
	if err := row.Scan(&source.ID, &kind, &source.OriginURL,
		&source.Title, &source.FetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning source: %w", err)
	}
	source.Kind = domain.SourceKind(kind)

	return &source, nil
}

// ListSources returns a session's sources in fetch order.
func (s *sourceStore) ListSources(ctx context.Context, sessionID string) ([]domain.Source, error) {
	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, kind, origin_url, title, fetched_at
		FROM sources WHERE session_id = ?
		ORDER BY fetched_at, rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying sources: %w", err)
	}
	defer rows.Close()

	var sources []domain.Source //nolint:prealloc // size unknown from query
	for rows.Next() {
		var source domain.Source
		var kind string
		if err := rows.Scan(&source.ID, &kind, &source.OriginURL,
			&source.Title, &source.FetchedAt); err != nil {
			return nil, fmt.Errorf("scanning source: %w", err)
		}
		source.Kind = domain.SourceKind(kind)
		sources = append(sources, source)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sources: %w", err)
	}

	return sources, nil
}

// SaveDocument stores a normalised document.
func (s *sourceStore) SaveDocument(ctx context.Context, doc *domain.Document) error {
	if doc.ID == "" || doc.SessionID == "" {
		return fmt.Errorf("%w: document requires id and session", domain.ErrInvalidInput)
	}

	_, err := s.store.db.ExecContext(ctx, `
		INSERT INTO documents (id, source_id, session_id, title, content, language, truncated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			language = excluded.language,
			truncated = excluded.truncated
	`, doc.ID, doc.SourceID, doc.SessionID, doc.Title, doc.Content,
		doc.Language, doc.Truncated, doc.CreatedAt)

	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// GetDocument retrieves a document by ID.
func (s *sourceStore) GetDocument(ctx context.Context, id string) (*domain.Document, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, source_id, session_id, title, content, language, truncated, created_at
		FROM documents WHERE id = ?
	`, id)

	var doc domain.Document
	if err := row.Scan(&doc.ID, &doc.SourceID, &doc.SessionID, &doc.Title,
		&doc.Content, &doc.Language, &doc.Truncated, &doc.CreatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning document: %w", err)
	}

	return &doc, nil
}

// DeleteSession removes a session's sources and documents.
func (s *sourceStore) DeleteSession(ctx context.Context, sessionID string) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx,
		"DELETE FROM documents WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting documents: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM sources WHERE session_id = ?", sessionID); err != nil {
		return fmt.Errorf("deleting sources: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore with brute-force cosine
// similarity over the session's passages. Session corpora are small
// (tens of sources, a few thousand passages) so a scan beats the cost
// of maintaining an index.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert stores a batch of passages atomically.
func (s *vectorStore) Upsert(ctx context.Context, passages []domain.Passage) error {
	tx, err := s.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO passages
			(id, document_id, session_id, text, start_offset, end_offset, position, embedding, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			text = excluded.text,
			start_offset = excluded.start_offset,
			end_offset = excluded.end_offset,
			position = excluded.position,
			embedding = excluded.embedding,
			fetched_at = excluded.fetched_at
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, passage := range passages {
		if passage.ID == "" || passage.SessionID == "" {
			return fmt.Errorf("%w: passage requires id and session", domain.ErrInvalidInput)
		}

		embeddingBlob := float32SliceToBytes(passage.Embedding)

		if _, err := stmt.ExecContext(ctx, passage.ID, passage.DocumentID,
			passage.SessionID, passage.Text, passage.Start, passage.End,
			passage.Position, embeddingBlob, passage.FetchedAt); err != nil {
			return fmt.Errorf("saving passage: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns the k nearest passages in the session, best similarity
// first. Score ties break by most recent FetchedAt.
func (s *vectorStore) Query(ctx context.Context, sessionID string, query []float32, k int) ([]domain.RetrievalResult, error) {
	if len(query) == 0 {
		return nil, fmt.Errorf("%w: empty query vector", domain.ErrInvalidInput)
	}
	if k <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, embedding, fetched_at
		FROM passages
		WHERE session_id = ? AND embedding IS NOT NULL
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying passages: %w", err)
	}
	defer rows.Close()

	type scored struct {
		id        string
		score     float64
		fetchedAt time.Time
	}

	var candidates []scored //nolint:prealloc // size unknown from query
	for rows.Next() {
		var id string
		var embeddingBlob []byte
		var fetchedAt time.Time
		if err := rows.Scan(&id, &embeddingBlob, &fetchedAt); err != nil {
			return nil, fmt.Errorf("scanning passage: %w", err)
		}

		embedding := bytesToFloat32Slice(embeddingBlob)
		if len(embedding) != len(query) {
			continue // dimension mismatch, cannot compare
		}

		candidates = append(candidates, scored{
			id:        id,
			score:     cosineSimilarity(query, embedding),
			fetchedAt: fetchedAt,
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating passages: %w", err)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].fetchedAt.After(candidates[j].fetchedAt)
	})

	if len(candidates) > k {
		candidates = candidates[:k]
	}

	results := make([]domain.RetrievalResult, len(candidates))
	for i, c := range candidates {
		results[i] = domain.RetrievalResult{
			PassageID: c.id,
			Score:     c.score,
			Rank:      i,
		}
	}

	return results, nil
}

// GetPassage retrieves a passage by ID.
func (s *vectorStore) GetPassage(ctx context.Context, id string) (*domain.Passage, error) {
	row := s.store.db.QueryRowContext(ctx, `
		SELECT id, document_id, session_id, text, start_offset, end_offset, position, embedding, fetched_at
		FROM passages WHERE id = ?
	`, id)

	var passage domain.Passage
	var embeddingBlob []byte
	if err := row.Scan(&passage.ID, &passage.DocumentID, &passage.SessionID,
		&passage.Text, &passage.Start, &passage.End, &passage.Position,
		&embeddingBlob, &passage.FetchedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning passage: %w", err)
	}

	passage.Embedding = bytesToFloat32Slice(embeddingBlob)

	return &passage, nil
}

// CountPassages returns how many passages a session holds.
func (s *vectorStore) CountPassages(ctx context.Context, sessionID string) (int, error) {
	var count int
	err := s.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM passages WHERE session_id = ?", sessionID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting passages: %w", err)
	}
	return count, nil
}

// DeleteSession removes every passage belonging to a session.
func (s *vectorStore) DeleteSession(ctx context.Context, sessionID string) error {
	_, err := s.store.db.ExecContext(ctx,
		"DELETE FROM passages WHERE session_id = ?", sessionID)
	if err != nil {
		return fmt.Errorf("deleting passages: %w", err)
	}
	return nil
}

// Close is a no-op; the connection is owned by the parent Store.
func (s *vectorStore) Close() error {
	return nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine similarity of two equal-length
// vectors, clamped to [0, 1].
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	score := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
