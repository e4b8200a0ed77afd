package parse

import (
	"fmt"
	"strings"
	"testing"
)

func TestScenesDelimitedInOrder(t *testing.T) {
	script := `[Summary]
Two friends reunite after years apart.

[Scene 1]
They meet at the old train station.

[Scene 2]
Coffee and awkward silences.

[Scene 3]
A promise to stay in touch.`

	scenes := Scenes(script, 3)
	if len(scenes) != 3 {
		t.Fatalf("len(scenes) = %d, want 3", len(scenes))
	}
	for i, scene := range scenes {
		if scene.Order != i+1 {
			t.Errorf("scenes[%d].Order = %d, want %d", i, scene.Order, i+1)
		}
		if scene.Text == "" {
			t.Errorf("scenes[%d].Text is empty", i)
		}
		if strings.Contains(scene.Text, "[Scene") {
			t.Errorf("scenes[%d].Text contains marker: %q", i, scene.Text)
		}
	}
	if !strings.Contains(scenes[0].Text, "train station") {
		t.Errorf("scenes[0].Text = %q", scenes[0].Text)
	}
	if strings.Contains(scenes[0].Text, "reunite after years") {
		t.Error("summary text leaked into first scene")
	}
}

func TestScenesSortsArbitraryMarkerOrder(t *testing.T) {
	script := "[Scene 3] third part [Scene 1] first part [Scene 2] second part"

	scenes := Scenes(script, 3)
	if len(scenes) != 3 {
		t.Fatalf("len(scenes) = %d, want 3", len(scenes))
	}
	wantTexts := []string{"first part", "second part", "third part"}
	for i, scene := range scenes {
		if scene.Order != i+1 {
			t.Errorf("scenes[%d].Order = %d, want %d", i, scene.Order, i+1)
		}
		if scene.Text != wantTexts[i] {
			t.Errorf("scenes[%d].Text = %q, want %q", i, scene.Text, wantTexts[i])
		}
	}
}

func TestScenesRepeatedMarkerKeepsFirstBody(t *testing.T) {
	script := "[Scene 1] the real opening [Scene 1] a stray repeat [Scene 2] the ending"

	scenes := Scenes(script, 2)
	if len(scenes) != 2 {
		t.Fatalf("len(scenes) = %d, want 2", len(scenes))
	}
	orders := make(map[int]bool, len(scenes))
	for _, scene := range scenes {
		if orders[scene.Order] {
			t.Fatalf("duplicate Order %d in %v", scene.Order, scenes)
		}
		orders[scene.Order] = true
	}
	if scenes[0].Text != "the real opening" {
		t.Errorf("scenes[0].Text = %q, want first body kept", scenes[0].Text)
	}
	if scenes[1].Text != "the ending" {
		t.Errorf("scenes[1].Text = %q", scenes[1].Text)
	}
}

func TestScenesFallbackReconstructsScript(t *testing.T) {
	words := make([]string, 0, 47)
	for i := 0; i < 47; i++ {
		words = append(words, fmt.Sprintf("word%02d", i))
	}
	script := strings.Join(words, " \n ")

	for _, want := range []int{1, 3, 4, 10} {
		t.Run(fmt.Sprintf("want=%d", want), func(t *testing.T) {
			scenes := Scenes(script, want)
			if len(scenes) != want {
				t.Fatalf("len(scenes) = %d, want %d", len(scenes), want)
			}

			var parts []string
			for i, scene := range scenes {
				if scene.Text == "" {
					t.Errorf("scenes[%d] is empty", i)
				}
				if scene.Order != i+1 {
					t.Errorf("scenes[%d].Order = %d", i, scene.Order)
				}
				parts = append(parts, scene.Text)
			}

			got := strings.Join(parts, " ")
			wantJoined := strings.Join(words, " ")
			if got != wantJoined {
				t.Errorf("reconstructed script mismatch:\ngot:  %q\nwant: %q", got, wantJoined)
			}
		})
	}
}

func TestScenesFallbackChunksRoughlyEqual(t *testing.T) {
	script := strings.Repeat("word ", 100)
	scenes := Scenes(script, 3)
	if len(scenes) != 3 {
		t.Fatalf("len(scenes) = %d, want 3", len(scenes))
	}

	counts := make([]int, len(scenes))
	for i, scene := range scenes {
		counts[i] = len(strings.Fields(scene.Text))
	}
	// 100 words over 3 chunks: sizes may differ by at most one.
	for _, c := range counts {
		if c < 33 || c > 34 {
			t.Errorf("chunk sizes not balanced: %v", counts)
			break
		}
	}
}

func TestScenesEmptyScript(t *testing.T) {
	if scenes := Scenes("   \n  ", 4); scenes != nil {
		t.Errorf("Scenes(blank) = %v, want nil", scenes)
	}
}

func TestScenesFewerWordsThanRequested(t *testing.T) {
	scenes := Scenes("only three words", 5)
	if len(scenes) != 3 {
		t.Fatalf("len(scenes) = %d, want 3 (one per word)", len(scenes))
	}
	for i, scene := range scenes {
		if scene.Text == "" {
			t.Errorf("scenes[%d] is empty", i)
		}
	}
}

func TestScenesSummaryWithoutMarkers(t *testing.T) {
	script := "[Summary]\nA tale of two cities and their people told over many words here"
	scenes := Scenes(script, 2)
	if len(scenes) != 2 {
		t.Fatalf("len(scenes) = %d, want 2", len(scenes))
	}
	for _, scene := range scenes {
		if strings.Contains(scene.Text, "[Summary]") {
			t.Errorf("summary marker leaked into scene: %q", scene.Text)
		}
	}
}
