package shorts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

// Store manages short and export persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the shorts database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.CacheDir, "shorts.db"))
}

// OpenPath connects to the database at an explicit path.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Draft holds the editable fields applied when a short is built or reused.
type Draft struct {
	// ID targets an existing short directly, bypassing the identity lookup.
	ID        string
	Name      string
	ClipStart float64
	ClipEnd   float64
	Preset    string
	Zoom      float64
	PanX      float64
	PanY      float64
}

// BuildOrReuse resolves a short by explicit id when the draft carries one,
// else by its identity, creating a draft when neither matches. An existing
// short keeps its id, creation time, name, and last export while the
// editable clip fields are refreshed; re-running an export plan never forks
// a second short.
func (s *Store) BuildOrReuse(ctx context.Context, identity Identity, draft Draft) (*Short, error) {
	if draft.Zoom <= 0 {
		draft.Zoom = 1
	}
	if strings.TrimSpace(draft.Preset) == "" {
		draft.Preset = "clean"
	}
	now := timestamp()

	if id := strings.TrimSpace(draft.ID); id != "" {
		existing, err := s.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return s.refresh(ctx, existing.ID, draft, now)
	}

	if !identity.Complete() {
		return nil, services.Wrap(services.ErrValidation, "shorts", "build", "incomplete identity", nil)
	}

	existing, err := s.getByIdentity(ctx, identity)
	switch {
	case err == nil:
		return s.refresh(ctx, existing.ID, draft, now)
	case errors.Is(err, services.ErrNotFound):
		id := uuid.NewString()
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO shorts (
                id, source_project_id, transcript_id, caption_track_id, clip_id, plan_id,
                name, status, clip_start, clip_end, preset, zoom, pan_x, pan_y,
                created_at, updated_at
            ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			id, identity.SourceProjectID, identity.TranscriptID, identity.CaptionTrackID,
			identity.ClipID, identity.PlanID,
			strings.TrimSpace(draft.Name), StatusDraft,
			draft.ClipStart, draft.ClipEnd, draft.Preset, draft.Zoom, draft.PanX, draft.PanY,
			now, now)
		if err != nil {
			return nil, fmt.Errorf("insert short: %w", err)
		}
		return s.GetByID(ctx, id)
	default:
		return nil, err
	}
}

func (s *Store) refresh(ctx context.Context, id string, draft Draft, now string) (*Short, error) {
	_, err := s.db.ExecContext(ctx,
		`UPDATE shorts SET clip_start = ?, clip_end = ?, preset = ?, zoom = ?, pan_x = ?, pan_y = ?, updated_at = ?
         WHERE id = ?`,
		draft.ClipStart, draft.ClipEnd, draft.Preset, draft.Zoom, draft.PanX, draft.PanY, now, id)
	if err != nil {
		return nil, fmt.Errorf("refresh short: %w", err)
	}
	return s.GetByID(ctx, id)
}

// GetByID fetches one short.
func (s *Store) GetByID(ctx context.Context, id string) (*Short, error) {
	row := s.db.QueryRowContext(ctx, selectShorts+" WHERE id = ?", id)
	short, err := scanShort(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "shorts", "get", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get short: %w", err)
	}
	return short, nil
}

// ListBySource returns every short derived from one source project, newest
// first.
func (s *Store) ListBySource(ctx context.Context, sourceProjectID string) ([]*Short, error) {
	return s.list(ctx, selectShorts+" WHERE source_project_id = ? ORDER BY created_at DESC", sourceProjectID)
}

// List returns all shorts, newest first.
func (s *Store) List(ctx context.Context) ([]*Short, error) {
	return s.list(ctx, selectShorts+" ORDER BY created_at DESC")
}

// MarkExporting moves a short into the exporting state and clears any prior
// error. The last export reference survives so a failed re-export still
// points at the previous good artifact.
func (s *Store) MarkExporting(ctx context.Context, id string) (*Short, error) {
	return s.transition(ctx, id, StatusExporting, func(short *Short) {
		short.ErrorMessage = ""
	})
}

// MarkExported finalizes a successful export.
func (s *Store) MarkExported(ctx context.Context, id, exportID string) (*Short, error) {
	return s.transition(ctx, id, StatusExported, func(short *Short) {
		short.ErrorMessage = ""
		short.LastExportID = exportID
	})
}

// MarkError records a failed export. LastExportID is left untouched.
func (s *Store) MarkError(ctx context.Context, id, message string) (*Short, error) {
	return s.transition(ctx, id, StatusError, func(short *Short) {
		short.ErrorMessage = strings.TrimSpace(message)
	})
}

func (s *Store) transition(ctx context.Context, id string, to Status, apply func(*Short)) (*Short, error) {
	short, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !CanTransition(short.Status, to) {
		return nil, services.Wrap(services.ErrValidation, "shorts", "transition",
			fmt.Sprintf("cannot move %s from %s to %s", id, short.Status, to), nil)
	}
	short.Status = to
	apply(short)

	_, err = s.db.ExecContext(ctx,
		`UPDATE shorts SET status = ?, error_message = ?, last_export_id = ?, updated_at = ? WHERE id = ?`,
		short.Status, short.ErrorMessage, short.LastExportID, timestamp(), id)
	if err != nil {
		return nil, fmt.Errorf("update short status: %w", err)
	}
	return s.GetByID(ctx, id)
}

// SaveExport persists one immutable export record and returns it with its
// generated id.
func (s *Store) SaveExport(ctx context.Context, rec ExportRecord) (*ExportRecord, error) {
	if strings.TrimSpace(rec.ShortID) == "" {
		return nil, services.Wrap(services.ErrValidation, "shorts", "save-export", "short id required", nil)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exports (
            id, short_id, output_path, seek_mode, captions_burned, filter_graph,
            attempts, artifact_bytes, elapsed_ms, notes, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.ShortID, rec.OutputPath, rec.SeekMode, boolToInt(rec.CaptionsBurnedIn),
		rec.FilterGraph, rec.Attempts, rec.ArtifactBytes, rec.Elapsed.Milliseconds(),
		strings.Join(rec.Notes, "\n"), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return nil, fmt.Errorf("insert export: %w", err)
	}
	return &rec, nil
}

// GetExport fetches one export record.
func (s *Store) GetExport(ctx context.Context, id string) (*ExportRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, short_id, output_path, seek_mode, captions_burned, filter_graph,
                attempts, artifact_bytes, elapsed_ms, notes, created_at
         FROM exports WHERE id = ?`, id)

	var (
		rec       ExportRecord
		burned    int
		elapsedMS int64
		notes     string
		created   string
	)
	err := row.Scan(&rec.ID, &rec.ShortID, &rec.OutputPath, &rec.SeekMode, &burned,
		&rec.FilterGraph, &rec.Attempts, &rec.ArtifactBytes, &elapsedMS, &notes, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "shorts", "get-export", id, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get export: %w", err)
	}
	rec.CaptionsBurnedIn = burned != 0
	rec.Elapsed = time.Duration(elapsedMS) * time.Millisecond
	if notes != "" {
		rec.Notes = strings.Split(notes, "\n")
	}
	rec.CreatedAt = parseTimestamp(created)
	return &rec, nil
}

// ListExports returns every export of a short, newest first.
func (s *Store) ListExports(ctx context.Context, shortID string) ([]*ExportRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id FROM exports WHERE short_id = ? ORDER BY created_at DESC`, shortID)
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan export id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exports: %w", err)
	}

	records := make([]*ExportRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetExport(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

const selectShorts = `SELECT id, source_project_id, transcript_id, caption_track_id, clip_id, plan_id,
    name, status, error_message, last_export_id,
    clip_start, clip_end, preset, zoom, pan_x, pan_y,
    created_at, updated_at
FROM shorts`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanShort(row rowScanner) (*Short, error) {
	var (
		short   Short
		status  string
		created string
		updated string
	)
	err := row.Scan(
		&short.ID, &short.SourceProjectID, &short.TranscriptID, &short.CaptionTrackID,
		&short.ClipID, &short.PlanID,
		&short.Name, &status, &short.ErrorMessage, &short.LastExportID,
		&short.ClipStart, &short.ClipEnd, &short.Preset, &short.Zoom, &short.PanX, &short.PanY,
		&created, &updated,
	)
	if err != nil {
		return nil, err
	}
	short.Status = Status(status)
	short.CreatedAt = parseTimestamp(created)
	short.UpdatedAt = parseTimestamp(updated)
	return &short, nil
}

func (s *Store) getByIdentity(ctx context.Context, identity Identity) (*Short, error) {
	row := s.db.QueryRowContext(ctx,
		selectShorts+` WHERE source_project_id = ? AND transcript_id = ? AND caption_track_id = ? AND clip_id = ? AND plan_id = ?`,
		identity.SourceProjectID, identity.TranscriptID, identity.CaptionTrackID,
		identity.ClipID, identity.PlanID)
	short, err := scanShort(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, services.Wrap(services.ErrNotFound, "shorts", "get", "identity", nil)
	}
	if err != nil {
		return nil, fmt.Errorf("get short by identity: %w", err)
	}
	return short, nil
}

func (s *Store) list(ctx context.Context, query string, args ...interface{}) ([]*Short, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list shorts: %w", err)
	}
	defer rows.Close()

	var out []*Short
	for rows.Next() {
		short, err := scanShort(rows)
		if err != nil {
			return nil, fmt.Errorf("scan short: %w", err)
		}
		out = append(out, short)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate shorts: %w", err)
	}
	return out, nil
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func parseTimestamp(value string) time.Time {
	ts, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}
	}
	return ts
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
