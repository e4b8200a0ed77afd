package prompts

import (
	"strings"
	"testing"

	"github.com/storyloom/storyloom/internal/parse"
)

func TestScriptPromptContainsInputs(t *testing.T) {
	got, err := Script(ScriptParams{
		Topic:          "two friends reunite",
		CharacterCount: 2,
		CharacterHints: "one is shy",
		SceneCount:     3,
		LengthHint:     "medium",
	})
	if err != nil {
		t.Fatalf("Script() error = %v", err)
	}

	for _, want := range []string{"two friends reunite", "2 people", "one is shy", "3 scenes", "medium", "[Summary]", "[Scene 1]"} {
		if !strings.Contains(got, want) {
			t.Errorf("script prompt missing %q", want)
		}
	}
}

func TestScriptPromptOmitsEmptyHints(t *testing.T) {
	got, err := Script(ScriptParams{Topic: "t", CharacterCount: 2, SceneCount: 3, LengthHint: "short"})
	if err != nil {
		t.Fatalf("Script() error = %v", err)
	}
	if strings.Contains(got, "()") {
		t.Errorf("empty hints rendered as (): %q", got)
	}
}

func TestCharacterDigest(t *testing.T) {
	long := strings.Repeat("긴 묘사 ", 50)
	characters := []parse.Character{
		{Name: "Mina", Description: "short hair"},
		{Name: "", Description: "nameless"},
		{Name: "Joon", Description: long},
	}

	digest := CharacterDigest(characters)
	if !strings.Contains(digest, "Mina: short hair") {
		t.Errorf("digest missing Mina: %q", digest)
	}
	if strings.Contains(digest, "nameless") {
		t.Error("digest includes entry without a name")
	}
	joonPart := digest[strings.Index(digest, "Joon: "):]
	if len([]rune(joonPart)) > len("Joon: ")+descriptionDigestLimit {
		t.Errorf("long description not truncated: %d runes", len([]rune(joonPart)))
	}
}

func TestSceneIllustrationTruncatesText(t *testing.T) {
	long := strings.Repeat("장면 ", 200)
	got, err := SceneIllustration("Mina: short hair", long)
	if err != nil {
		t.Fatalf("SceneIllustration() error = %v", err)
	}
	if strings.Contains(got, TruncateRunes(long, sceneTextLimit+10)) {
		t.Error("scene text not truncated in prompt")
	}
	if !strings.Contains(got, "Mina: short hair") {
		t.Error("digest missing from scene prompt")
	}
}

func TestPortraitPrompt(t *testing.T) {
	got, err := Portrait(parse.Character{Name: "Mina", Description: "short black hair"})
	if err != nil {
		t.Fatalf("Portrait() error = %v", err)
	}
	if !strings.Contains(got, "Mina") || !strings.Contains(got, "short black hair") {
		t.Errorf("portrait prompt missing fields: %q", got)
	}
}

func TestCoverPrompt(t *testing.T) {
	got, err := Cover("a lighthouse keeper")
	if err != nil {
		t.Fatalf("Cover() error = %v", err)
	}
	if !strings.Contains(got, "a lighthouse keeper") {
		t.Errorf("cover prompt missing topic: %q", got)
	}
}
