package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/storyloom/storyloom/internal/genai"
	"github.com/storyloom/storyloom/internal/parse"
	"github.com/storyloom/storyloom/internal/store"
)

const markedScript = `[Summary]
두 사람이 비 오는 날 만난다.

[Scene 1]
미나가 카페에서 준을 처음 만난다.

[Scene 2]
둘은 우산 하나를 나눠 쓰고 걷는다.`

const characterJSON = `[
	{"name": "Mina", "description": "짧은 검은 머리, 갈색 눈"},
	{"name": "Joon", "description": "큰 키, 회색 코트"}
]`

func newTestRunner(t *testing.T, gen genai.Generator) (*Runner, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewRunner(st, gen, Config{}, logger), st
}

// waitDone blocks until no runs are in flight.
func waitDone(t *testing.T, r *Runner) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if r.Active() == 0 {
			r.wg.Wait()
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("pipeline run did not finish")
}

func TestRequestDefaults(t *testing.T) {
	req := Request{Topic: "  a reunion  "}.withDefaults()
	if req.Topic != "a reunion" {
		t.Errorf("Topic = %q, want trimmed", req.Topic)
	}
	if req.CharacterCount != defaultCharacterCount {
		t.Errorf("CharacterCount = %d, want %d", req.CharacterCount, defaultCharacterCount)
	}
	if req.SceneCount != defaultSceneCount {
		t.Errorf("SceneCount = %d, want %d", req.SceneCount, defaultSceneCount)
	}
	if req.LengthHint != defaultLengthHint {
		t.Errorf("LengthHint = %q, want %q", req.LengthHint, defaultLengthHint)
	}
}

func TestSubmitRejectsBadRequests(t *testing.T) {
	r, _ := newTestRunner(t, &genai.MockGenerator{})

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"empty topic", Request{}, ErrEmptyTopic},
		{"whitespace topic", Request{Topic: "   "}, ErrEmptyTopic},
		{"too many characters", Request{Topic: "t", CharacterCount: 11}, ErrBadRequest},
		{"negative scenes", Request{Topic: "t", SceneCount: -1}, ErrBadRequest},
		{"too many scenes", Request{Topic: "t", SceneCount: 21}, ErrBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := r.Submit(context.Background(), tc.req); !errors.Is(err, tc.want) {
				t.Errorf("Submit() error = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestPipelineEndToEnd(t *testing.T) {
	gen := &genai.MockGenerator{TextResponses: []string{markedScript, characterJSON}}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{
		Topic: "비 오는 날의 재회", CharacterCount: 2, SceneCount: 2,
	})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	work, err := st.GetWork(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if work.Status != store.StatusComplete {
		t.Errorf("Status = %q, want %q", work.Status, store.StatusComplete)
	}
	if work.Script != markedScript {
		t.Errorf("Script not persisted verbatim")
	}
	if work.CoverImage == "" {
		t.Error("CoverImage empty")
	}

	characters, err := parse.UnmarshalManifest(work.CharacterManifest)
	if err != nil {
		t.Fatalf("UnmarshalManifest() error = %v", err)
	}
	if len(characters) != 2 {
		t.Fatalf("characters = %d, want 2", len(characters))
	}
	for _, c := range characters {
		if c.Image == "" {
			t.Errorf("character %q has no portrait", c.Name)
		}
	}

	scenes, err := st.GetScenes(context.Background(), id)
	if err != nil {
		t.Fatalf("GetScenes() error = %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(scenes))
	}
	for _, s := range scenes {
		if s.ImageRef == "" {
			t.Errorf("scene %d has no illustration", s.Order)
		}
		if strings.Contains(s.Description, "[Summary]") {
			t.Errorf("scene %d contains summary text", s.Order)
		}
	}

	// cover + 2 portraits + 2 scenes
	if got := gen.ImageCalls(); got != 5 {
		t.Errorf("image calls = %d, want 5", got)
	}
	// Scene prompts must carry the character digest.
	last := gen.ImagePrompts[len(gen.ImagePrompts)-1]
	if !strings.Contains(last, "Mina:") {
		t.Errorf("scene prompt missing character digest: %q", last)
	}
}

func TestScriptFailureRollsBack(t *testing.T) {
	gen := &genai.MockGenerator{TextErr: errors.New("model down")}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	if _, err := st.GetWork(context.Background(), id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetWork() after rollback error = %v, want ErrNotFound", err)
	}
	if got := gen.ImageCalls(); got != 0 {
		t.Errorf("image calls after fatal script failure = %d, want 0", got)
	}
}

func TestEmptyScriptIsFatal(t *testing.T) {
	gen := &genai.MockGenerator{TextResponses: []string{"   \n  "}}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	if _, err := st.GetWork(context.Background(), id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetWork() error = %v, want ErrNotFound", err)
	}
}

func TestCharacterParseFailureDegrades(t *testing.T) {
	gen := &genai.MockGenerator{TextResponses: []string{markedScript, "no json here"}}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t", SceneCount: 2})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	work, err := st.GetWork(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if work.Status != store.StatusComplete {
		t.Errorf("Status = %q, want complete despite character failure", work.Status)
	}
	if work.CharacterManifest != "[]" {
		t.Errorf("CharacterManifest = %q, want empty list", work.CharacterManifest)
	}

	scenes, err := st.GetScenes(context.Background(), id)
	if err != nil {
		t.Fatalf("GetScenes() error = %v", err)
	}
	if len(scenes) != 2 {
		t.Errorf("scenes = %d, want 2", len(scenes))
	}
	// cover + 2 scenes, no portraits
	if got := gen.ImageCalls(); got != 3 {
		t.Errorf("image calls = %d, want 3", got)
	}
}

func TestPortraitFailureSkipsCharacter(t *testing.T) {
	// Call 1 is the cover; call 2 is the first portrait.
	gen := &genai.MockGenerator{
		TextResponses:  []string{markedScript, characterJSON},
		ImageErrOnCall: 2,
	}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t", CharacterCount: 2, SceneCount: 2})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	work, err := st.GetWork(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if work.Status != store.StatusComplete {
		t.Errorf("Status = %q, want complete", work.Status)
	}

	characters, err := parse.UnmarshalManifest(work.CharacterManifest)
	if err != nil {
		t.Fatalf("UnmarshalManifest() error = %v", err)
	}
	if len(characters) != 2 {
		t.Fatalf("characters = %d, want 2", len(characters))
	}
	if characters[0].Image != "" {
		t.Errorf("failed portrait should leave no ref, got %q", characters[0].Image)
	}
	if characters[1].Image == "" {
		t.Error("second portrait missing despite only first failing")
	}
}

func TestCoverFailureNonFatal(t *testing.T) {
	gen := &genai.MockGenerator{
		TextResponses:  []string{markedScript, characterJSON},
		ImageErrOnCall: 1,
	}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t", SceneCount: 2})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	work, err := st.GetWork(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if work.Status != store.StatusComplete {
		t.Errorf("Status = %q, want complete", work.Status)
	}
	if work.CoverImage != "" {
		t.Errorf("CoverImage = %q, want empty after cover failure", work.CoverImage)
	}
}

func TestFallbackSegmentation(t *testing.T) {
	plain := "그날 아침 미나는 우산을 잃어버렸다 그리고 카페 앞에서 준을 만났다 둘은 한참을 말없이 서 있었다"
	gen := &genai.MockGenerator{TextResponses: []string{plain, characterJSON}}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t", SceneCount: 3})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	scenes, err := st.GetScenes(context.Background(), id)
	if err != nil {
		t.Fatalf("GetScenes() error = %v", err)
	}
	if len(scenes) != 3 {
		t.Fatalf("scenes = %d, want 3 from fallback segmentation", len(scenes))
	}
	var joined []string
	for _, s := range scenes {
		joined = append(joined, s.Description)
	}
	if strings.Join(joined, " ") != plain {
		t.Error("fallback scenes do not reconstruct the script")
	}
}

func TestRepeatedSceneMarkerDoesNotRollBack(t *testing.T) {
	doubled := "[Scene 1]\n미나가 카페에 들어선다.\n\n[Scene 1]\n같은 장면이 다시 시작된다.\n\n[Scene 2]\n준이 우산을 건넨다."
	gen := &genai.MockGenerator{TextResponses: []string{doubled, characterJSON}}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t", SceneCount: 2})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	waitDone(t, r)

	work, err := st.GetWork(context.Background(), id)
	if err != nil {
		t.Fatalf("GetWork() error = %v", err)
	}
	if work.Status != store.StatusComplete {
		t.Errorf("Status = %q, want complete despite repeated marker", work.Status)
	}

	scenes, err := st.GetScenes(context.Background(), id)
	if err != nil {
		t.Fatalf("GetScenes() error = %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("scenes = %d, want 2", len(scenes))
	}
	if !strings.Contains(scenes[0].Description, "카페에 들어선다") {
		t.Errorf("scenes[0].Description = %q, want first scene-1 body", scenes[0].Description)
	}
}

func TestRollbackRemovesScenes(t *testing.T) {
	r, st := newTestRunner(t, &genai.MockGenerator{})

	work, err := st.CreateWork(context.Background(), "doomed")
	if err != nil {
		t.Fatalf("CreateWork() error = %v", err)
	}
	for i := 1; i <= 3; i++ {
		if _, err := st.CreateScene(context.Background(), work.ID, i, "scene"); err != nil {
			t.Fatalf("CreateScene() error = %v", err)
		}
	}

	r.rollback(work.ID, r.logger)

	if _, err := st.GetWork(context.Background(), work.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetWork() error = %v, want ErrNotFound", err)
	}
	scenes, err := st.GetScenes(context.Background(), work.ID)
	if err != nil {
		t.Fatalf("GetScenes() error = %v", err)
	}
	if len(scenes) != 0 {
		t.Errorf("scenes after rollback = %d, want 0", len(scenes))
	}
}

func TestShutdownCancelsInFlightRun(t *testing.T) {
	gen := &genai.MockGenerator{
		TextFunc: func(ctx context.Context, req genai.TextRequest) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		},
	}
	r, st := newTestRunner(t, gen)

	id, err := r.Submit(context.Background(), Request{Topic: "t"})
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Shutdown(shutdownCtx); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}

	if _, err := st.GetWork(context.Background(), id); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("GetWork() after cancelled run error = %v, want ErrNotFound", err)
	}
}
