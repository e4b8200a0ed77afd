package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const workColumns = "id, title, topic, script, character_manifest, cover_image, status, created_at, updated_at"

// CreateWork reserves a new empty work record for the given topic and
// returns it. The script and all generated fields start empty; status is
// pending until the pipeline finishes or fails.
func (s *Store) CreateWork(ctx context.Context, topic string) (*Work, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is required")
	}

	now := time.Now().UTC()
	work := &Work{
		ID:        uuid.New().String(),
		Title:     provisionalTitle(topic),
		Topic:     topic,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.execWithRetry(ctx, `
        INSERT INTO works (id, title, topic, status, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, ?)`,
		work.ID,
		work.Title,
		work.Topic,
		string(work.Status),
		now.Format(time.RFC3339Nano),
		now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert work: %w", err)
	}
	return work, nil
}

// provisionalTitle derives a placeholder title from the topic until the
// generated script provides a better one.
func provisionalTitle(topic string) string {
	const maxTopicRunes = 40
	runes := []rune(topic)
	if len(runes) > maxTopicRunes {
		return "Story: " + string(runes[:maxTopicRunes]) + "..."
	}
	return "Story: " + topic
}

// UpdateWork applies a partial update; only non-nil fields are written.
func (s *Store) UpdateWork(ctx context.Context, id string, update WorkUpdate) error {
	sets := make([]string, 0, 6)
	args := make([]any, 0, 7)

	if update.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Script != nil {
		sets = append(sets, "script = ?")
		args = append(args, *update.Script)
	}
	if update.CharacterManifest != nil {
		sets = append(sets, "character_manifest = ?")
		args = append(args, *update.CharacterManifest)
	}
	if update.CoverImage != nil {
		sets = append(sets, "cover_image = ?")
		args = append(args, *update.CoverImage)
	}
	if update.Status != nil {
		if !ValidStatus(*update.Status) {
			return fmt.Errorf("invalid status %q", *update.Status)
		}
		sets = append(sets, "status = ?")
		args = append(args, string(*update.Status))
	}
	if len(sets) == 0 {
		return nil
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC().Format(time.RFC3339Nano))
	args = append(args, id)

	res, err := s.execWithRetry(ctx,
		"UPDATE works SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("update work: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update work rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetWork returns a work by ID.
func (s *Store) GetWork(ctx context.Context, id string) (*Work, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+workColumns+" FROM works WHERE id = ?", id)
	work, err := scanWork(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("work %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get work: %w", err)
	}
	return work, nil
}

// ListWorks returns the most recent works, newest first, each with a
// thumbnail fallback (first scene illustration) when no cover exists.
func (s *Store) ListWorks(ctx context.Context, limit int) ([]WorkSummary, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT `+workColumns+`,
            COALESCE((SELECT image_ref FROM scenes WHERE work_id = works.id AND image_ref != '' ORDER BY scene_order LIMIT 1), '')
        FROM works
        ORDER BY created_at DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list works: %w", err)
	}
	defer rows.Close()

	var summaries []WorkSummary
	for rows.Next() {
		var (
			summary   WorkSummary
			status    string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(
			&summary.ID, &summary.Title, &summary.Topic, &summary.Script,
			&summary.CharacterManifest, &summary.CoverImage, &status,
			&createdAt, &updatedAt, &summary.Thumbnail,
		); err != nil {
			return nil, fmt.Errorf("scan work summary: %w", err)
		}
		summary.Status = Status(status)
		if summary.CreatedAt, err = parseTimestamp(createdAt); err != nil {
			return nil, err
		}
		if summary.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate works: %w", err)
	}
	return summaries, nil
}

// DeleteWork removes a work and, via cascade, all of its scenes.
// Deleting an unknown ID is not an error; rollback must be idempotent.
func (s *Store) DeleteWork(ctx context.Context, id string) error {
	if _, err := s.execWithRetry(ctx, "DELETE FROM works WHERE id = ?", id); err != nil {
		return fmt.Errorf("delete work: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanWork(row rowScanner) (*Work, error) {
	var (
		work      Work
		status    string
		createdAt string
		updatedAt string
	)
	err := row.Scan(
		&work.ID, &work.Title, &work.Topic, &work.Script,
		&work.CharacterManifest, &work.CoverImage, &status,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	work.Status = Status(status)
	if work.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return nil, err
	}
	if work.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return nil, err
	}
	return &work, nil
}

func parseTimestamp(value string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return t, nil
}
