// Package prompts holds the embedded prompt templates for every
// generation stage.
package prompts

import (
	_ "embed"
	"strings"
	"text/template"

	"github.com/storyloom/storyloom/internal/parse"
)

var (
	//go:embed script.tmpl
	scriptTmpl string
	//go:embed cover.tmpl
	coverTmpl string
	//go:embed character.tmpl
	characterTmpl string
	//go:embed portrait.tmpl
	portraitTmpl string
	//go:embed scene.tmpl
	sceneTmpl string
)

var (
	scriptTemplate    = template.Must(template.New("script").Parse(scriptTmpl))
	coverTemplate     = template.Must(template.New("cover").Parse(coverTmpl))
	characterTemplate = template.Must(template.New("character").Parse(characterTmpl))
	portraitTemplate  = template.Must(template.New("portrait").Parse(portraitTmpl))
	sceneTemplate     = template.Must(template.New("scene").Parse(sceneTmpl))
)

// descriptionDigestLimit bounds each character description inside the
// scene-consistency digest.
const descriptionDigestLimit = 100

// sceneTextLimit bounds how much scene text is embedded in an image prompt.
const sceneTextLimit = 300

// ScriptParams fills the script-writing prompt.
type ScriptParams struct {
	Topic          string
	CharacterCount int
	CharacterHints string
	SceneCount     int
	LengthHint     string
}

// Script renders the stage-1 script prompt.
func Script(p ScriptParams) (string, error) {
	return render(scriptTemplate, p)
}

// Cover renders the cover-illustration prompt for a topic.
func Cover(topic string) (string, error) {
	return render(coverTemplate, struct{ Topic string }{topic})
}

// CharacterParams fills the character-design prompt.
type CharacterParams struct {
	CharacterCount int
	CharacterHints string
	// ScriptPrefix is the bounded script excerpt fed to the model.
	ScriptPrefix string
}

// CharacterDesign renders the stage-3 character description prompt.
func CharacterDesign(p CharacterParams) (string, error) {
	return render(characterTemplate, p)
}

// Portrait renders a character portrait prompt.
func Portrait(c parse.Character) (string, error) {
	return render(portraitTemplate, c)
}

// SceneParams fills the scene-illustration prompt.
type SceneParams struct {
	// Digest is the character consistency digest (see CharacterDigest).
	Digest string
	// Text is the bounded scene text.
	Text string
}

// SceneIllustration renders a scene illustration prompt, embedding the
// character digest so every scene image stays visually consistent.
func SceneIllustration(digest, sceneText string) (string, error) {
	return render(sceneTemplate, SceneParams{
		Digest: digest,
		Text:   truncateRunes(sceneText, sceneTextLimit),
	})
}

// CharacterDigest condenses all character descriptions into one line for
// embedding in scene prompts.
func CharacterDigest(characters []parse.Character) string {
	parts := make([]string, 0, len(characters))
	for _, c := range characters {
		if c.Name == "" || c.Description == "" {
			continue
		}
		parts = append(parts, c.Name+": "+truncateRunes(c.Description, descriptionDigestLimit))
	}
	return strings.Join(parts, ", ")
}

// TruncateRunes bounds s to at most n runes.
func TruncateRunes(s string, n int) string {
	return truncateRunes(s, n)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

func render(t *template.Template, data any) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return strings.TrimSpace(b.String()), nil
}
