package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// CreateScene persists a new scene (text only, no image yet) for a work.
// Order must be unique per work; it defines the render sequence.
func (s *Store) CreateScene(ctx context.Context, workID string, order int, text string) (*Scene, error) {
	if order < 1 {
		return nil, fmt.Errorf("scene order must be >= 1, got %d", order)
	}

	scene := &Scene{
		ID:          uuid.New().String(),
		WorkID:      workID,
		Order:       order,
		Description: text,
	}

	_, err := s.execWithRetry(ctx, `
        INSERT INTO scenes (id, work_id, scene_order, description)
        VALUES (?, ?, ?, ?)`,
		scene.ID, scene.WorkID, scene.Order, scene.Description,
	)
	if err != nil {
		return nil, fmt.Errorf("insert scene: %w", err)
	}
	return scene, nil
}

// UpdateSceneImage attaches an illustration reference to a single scene.
func (s *Store) UpdateSceneImage(ctx context.Context, sceneID, imageRef string) error {
	res, err := s.execWithRetry(ctx,
		"UPDATE scenes SET image_ref = ? WHERE id = ?", imageRef, sceneID)
	if err != nil {
		return fmt.Errorf("update scene image: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update scene image rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("scene %s: %w", sceneID, ErrNotFound)
	}
	return nil
}

// GetScenes returns all scenes of a work ordered by scene order.
func (s *Store) GetScenes(ctx context.Context, workID string) ([]Scene, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, work_id, scene_order, description, image_ref
        FROM scenes
        WHERE work_id = ?
        ORDER BY scene_order`, workID)
	if err != nil {
		return nil, fmt.Errorf("get scenes: %w", err)
	}
	defer rows.Close()

	var scenes []Scene
	for rows.Next() {
		var scene Scene
		if err := rows.Scan(&scene.ID, &scene.WorkID, &scene.Order, &scene.Description, &scene.ImageRef); err != nil {
			return nil, fmt.Errorf("scan scene: %w", err)
		}
		scenes = append(scenes, scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate scenes: %w", err)
	}
	return scenes, nil
}
