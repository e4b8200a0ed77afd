// Package export assembles a finished work into shareable artifacts.
package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"github.com/storyloom/storyloom/internal/home"
	"github.com/storyloom/storyloom/internal/store"
)

// ErrNoImages indicates the work has no stored illustrations to export.
var ErrNoImages = errors.New("work has no images to export")

// Storybook writes a PDF at outPath containing the work's cover followed
// by its scene illustrations in order. Scenes without an illustration are
// skipped; a work with no images at all is an error.
func Storybook(ctx context.Context, st *store.Store, homeDir *home.Dir, workID, outPath string) error {
	work, err := st.GetWork(ctx, workID)
	if err != nil {
		return fmt.Errorf("loading work: %w", err)
	}
	scenes, err := st.GetScenes(ctx, workID)
	if err != nil {
		return fmt.Errorf("loading scenes: %w", err)
	}

	var images []string
	if work.CoverImage != "" {
		if p := existingImage(homeDir, home.ImageKindCover, work.CoverImage); p != "" {
			images = append(images, p)
		}
	}
	for _, scene := range scenes {
		if scene.ImageRef == "" {
			continue
		}
		if p := existingImage(homeDir, home.ImageKindScene, scene.ImageRef); p != "" {
			images = append(images, p)
		}
	}
	if len(images) == 0 {
		return ErrNoImages
	}

	if err := api.ImportImagesFile(images, outPath, nil, nil); err != nil {
		return fmt.Errorf("assembling pdf: %w", err)
	}
	return nil
}

// existingImage resolves ref under the home dir, returning "" when the
// file went missing on disk.
func existingImage(homeDir *home.Dir, kind home.ImageKind, ref string) string {
	p := homeDir.ImagePath(kind, ref)
	if _, err := os.Stat(p); err != nil {
		return ""
	}
	return p
}
