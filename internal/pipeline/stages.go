package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/storyloom/storyloom/internal/genai"
	"github.com/storyloom/storyloom/internal/home"
	"github.com/storyloom/storyloom/internal/parse"
	"github.com/storyloom/storyloom/internal/prompts"
	"github.com/storyloom/storyloom/internal/store"
)

const (
	scriptSystem    = "You are a professional webtoon scriptwriter."
	characterSystem = "You are a webtoon character designer. You respond with JSON only."

	scriptTemperature    = 0.8
	characterTemperature = 0.7

	scriptMaxTokens    = 4000
	characterMaxTokens = 1200
)

// run carries the state of one pipeline execution through its stages.
type run struct {
	r      *Runner
	workID string
	req    Request
	log    *slog.Logger

	stage      string
	script     string
	characters []parse.Character
	scenes     []store.Scene
}

// all executes the stages in order. A returned error is fatal to the run;
// per-item generation failures inside a stage are logged and skipped.
func (rn *run) all(ctx context.Context) error {
	stages := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"script", rn.writeScript},
		{"cover", rn.generateCover},
		{"characters", rn.designCharacters},
		{"portraits", rn.drawPortraits},
		{"scenes", rn.segmentScenes},
		{"illustrations", rn.illustrateScenes},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			rn.stage = s.name
			return err
		}
		rn.stage = s.name
		if err := s.fn(ctx); err != nil {
			return err
		}
	}
	rn.stage = "finish"
	return rn.finish(ctx)
}

// writeScript generates the full story script and persists it. An empty
// script is fatal; nothing downstream can work without it.
func (rn *run) writeScript(ctx context.Context) error {
	prompt, err := prompts.Script(prompts.ScriptParams{
		Topic:          rn.req.Topic,
		CharacterCount: rn.req.CharacterCount,
		CharacterHints: rn.req.CharacterHints,
		SceneCount:     rn.req.SceneCount,
		LengthHint:     rn.req.LengthHint,
	})
	if err != nil {
		return fmt.Errorf("building script prompt: %w", err)
	}

	callCtx, cancel := rn.r.callCtx(ctx)
	defer cancel()
	text, err := rn.r.gen.GenerateText(callCtx, genai.TextRequest{
		System:      scriptSystem,
		Prompt:      prompt,
		Temperature: scriptTemperature,
		MaxTokens:   scriptMaxTokens,
		RequestID:   rn.workID,
	})
	if err != nil {
		return fmt.Errorf("generating script: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return fmt.Errorf("generating script: %w", genai.ErrEmptyResponse)
	}
	rn.script = text

	if err := rn.r.store.UpdateWork(ctx, rn.workID, store.WorkUpdate{
		Script: store.StringPtr(text),
	}); err != nil {
		return fmt.Errorf("persisting script: %w", err)
	}
	rn.log.Info("script ready", "length", len(text))
	return nil
}

// generateCover draws the cover illustration. Generation failure degrades
// the work (no cover) rather than killing the run; a store failure is fatal.
func (rn *run) generateCover(ctx context.Context) error {
	prompt, err := prompts.Cover(rn.req.Topic)
	if err != nil {
		return fmt.Errorf("building cover prompt: %w", err)
	}

	callCtx, cancel := rn.r.callCtx(ctx)
	defer cancel()
	ref, err := rn.r.gen.GenerateImage(callCtx, genai.ImageRequest{
		Prompt:    prompt,
		Kind:      home.ImageKindCover,
		RequestID: rn.workID,
	})
	if err != nil {
		rn.log.Warn("cover generation failed, continuing without cover", "error", err)
		return nil
	}

	if err := rn.r.store.UpdateWork(ctx, rn.workID, store.WorkUpdate{
		CoverImage: store.StringPtr(ref),
	}); err != nil {
		return fmt.Errorf("persisting cover: %w", err)
	}
	rn.log.Info("cover ready", "image", ref)
	return nil
}

// designCharacters asks for a JSON character manifest from a bounded
// script prefix. Any generation or parse failure yields an empty manifest;
// the manifest, empty or not, is always persisted.
func (rn *run) designCharacters(ctx context.Context) error {
	prompt, err := prompts.CharacterDesign(prompts.CharacterParams{
		CharacterCount: rn.req.CharacterCount,
		CharacterHints: rn.req.CharacterHints,
		ScriptPrefix:   prompts.TruncateRunes(rn.script, rn.r.cfg.ScriptPrefixLimit),
	})
	if err != nil {
		return fmt.Errorf("building character prompt: %w", err)
	}

	callCtx, cancel := rn.r.callCtx(ctx)
	defer cancel()
	raw, err := rn.r.gen.GenerateText(callCtx, genai.TextRequest{
		System:      characterSystem,
		Prompt:      prompt,
		Temperature: characterTemperature,
		MaxTokens:   characterMaxTokens,
		RequestID:   rn.workID,
	})
	if err != nil {
		rn.log.Warn("character design failed, continuing without characters", "error", err)
	} else {
		characters, perr := parse.Characters(raw, rn.req.CharacterCount)
		if perr != nil {
			rn.log.Warn("character manifest unparseable, continuing without characters", "error", perr)
		} else {
			rn.characters = characters
		}
	}

	if err := rn.persistManifest(ctx); err != nil {
		return err
	}
	rn.log.Info("characters ready", "count", len(rn.characters))
	return nil
}

// drawPortraits generates one portrait per character. Failures skip the
// character; the manifest is re-persisted with whatever refs were attached.
func (rn *run) drawPortraits(ctx context.Context) error {
	for i, c := range rn.characters {
		prompt, err := prompts.Portrait(c)
		if err != nil {
			rn.log.Warn("portrait prompt failed", "character", c.Name, "error", err)
			continue
		}

		callCtx, cancel := rn.r.callCtx(ctx)
		ref, err := rn.r.gen.GenerateImage(callCtx, genai.ImageRequest{
			Prompt:    prompt,
			Kind:      home.ImageKindCharacter,
			RequestID: rn.workID,
		})
		cancel()
		if err != nil {
			rn.log.Warn("portrait generation failed", "character", c.Name, "error", err)
			continue
		}
		rn.characters[i].Image = ref
	}

	if len(rn.characters) == 0 {
		return nil
	}
	if err := rn.persistManifest(ctx); err != nil {
		return err
	}
	rn.log.Info("portraits ready")
	return nil
}

// segmentScenes splits the script and persists each scene row before any
// illustration work begins. A store failure here is fatal; a partial scene
// set of unknown shape is worse than none.
func (rn *run) segmentScenes(ctx context.Context) error {
	parsed := parse.Scenes(rn.script, rn.req.SceneCount)
	for _, p := range parsed {
		scene, err := rn.r.store.CreateScene(ctx, rn.workID, p.Order, p.Text)
		if err != nil {
			return fmt.Errorf("persisting scene %d: %w", p.Order, err)
		}
		rn.scenes = append(rn.scenes, *scene)
	}
	rn.log.Info("scenes ready", "count", len(rn.scenes))
	return nil
}

// illustrateScenes generates one illustration per scene, embedding the
// character consistency digest in every prompt. Each scene is updated
// individually; failures leave that scene text-only.
func (rn *run) illustrateScenes(ctx context.Context) error {
	digest := prompts.CharacterDigest(rn.characters)
	for _, scene := range rn.scenes {
		prompt, err := prompts.SceneIllustration(digest, scene.Description)
		if err != nil {
			rn.log.Warn("scene prompt failed", "scene", scene.Order, "error", err)
			continue
		}

		callCtx, cancel := rn.r.callCtx(ctx)
		ref, err := rn.r.gen.GenerateImage(callCtx, genai.ImageRequest{
			Prompt:    prompt,
			Kind:      home.ImageKindScene,
			RequestID: rn.workID,
		})
		cancel()
		if err != nil {
			rn.log.Warn("scene illustration failed", "scene", scene.Order, "error", err)
			continue
		}
		if err := rn.r.store.UpdateSceneImage(ctx, scene.ID, ref); err != nil {
			rn.log.Warn("scene image update failed", "scene", scene.Order, "error", err)
			continue
		}
		rn.log.Debug("scene illustrated", "scene", scene.Order, "image", ref)
	}
	return nil
}

// finish marks the work complete.
func (rn *run) finish(ctx context.Context) error {
	if err := rn.r.store.UpdateWork(ctx, rn.workID, store.WorkUpdate{
		Status: store.StatusPtr(store.StatusComplete),
	}); err != nil {
		return fmt.Errorf("marking work complete: %w", err)
	}
	return nil
}

func (rn *run) persistManifest(ctx context.Context) error {
	manifest, err := parse.MarshalManifest(rn.characters)
	if err != nil {
		return fmt.Errorf("encoding character manifest: %w", err)
	}
	if err := rn.r.store.UpdateWork(ctx, rn.workID, store.WorkUpdate{
		CharacterManifest: store.StringPtr(manifest),
	}); err != nil {
		return fmt.Errorf("persisting character manifest: %w", err)
	}
	return nil
}
