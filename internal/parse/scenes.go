// Package parse extracts structured data (ordered scenes, character
// records) from freeform model output. Each extraction has a structured
// strategy and a deterministic fallback so malformed output degrades
// instead of failing.
package parse

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Scene is one segmented unit of a script.
type Scene struct {
	Order int
	Text  string
}

// summaryMarker opens the optional summary block the script prompt asks for.
const summaryMarker = "[Summary]"

// scenePattern matches explicit scene delimiters like "[Scene 3]".
var scenePattern = regexp.MustCompile(`\[Scene (\d+)\]`)

// Scenes splits a script into an ordered list of scene texts.
//
// The structured strategy skips an optional [Summary] block and captures
// the body following each "[Scene N]" marker, sorted by N; a repeated
// marker number keeps its first body. When no markers exist the fallback
// partitions the script's whitespace tokens into want contiguous, roughly
// equal chunks, guaranteeing scene production even when the model ignored
// the delimiter instruction. A script with fewer tokens than want yields
// one scene per token, so fewer than want scenes.
func Scenes(script string, want int) []Scene {
	body := skipSummary(script)

	matches := scenePattern.FindAllStringSubmatchIndex(body, -1)
	if len(matches) == 0 {
		return fallbackScenes(body, want)
	}

	scenes := make([]Scene, 0, len(matches))
	seen := make(map[int]bool, len(matches))
	for i, match := range matches {
		order, err := strconv.Atoi(body[match[2]:match[3]])
		if err != nil {
			continue
		}
		// A repeated marker number keeps its first body; scene orders
		// must stay unique for persistence.
		if seen[order] {
			continue
		}
		seen[order] = true
		end := len(body)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		scenes = append(scenes, Scene{
			Order: order,
			Text:  strings.TrimSpace(body[match[1]:end]),
		})
	}

	sort.Slice(scenes, func(i, j int) bool { return scenes[i].Order < scenes[j].Order })
	return scenes
}

// skipSummary drops everything up to and including the summary block.
// If scene markers follow the summary, parsing resumes at the first one;
// otherwise the whole post-summary text is used.
func skipSummary(script string) string {
	idx := strings.Index(script, summaryMarker)
	if idx < 0 {
		return script
	}
	rest := script[idx+len(summaryMarker):]
	if sceneIdx := strings.Index(rest, "[Scene"); sceneIdx >= 0 {
		return rest[sceneIdx:]
	}
	return rest
}

// fallbackScenes partitions whitespace tokens into want contiguous chunks.
// Chunk sizes differ by at most one token, so every scene is non-empty as
// long as the script has at least want tokens, and rejoining the chunks
// reconstructs the script modulo whitespace.
func fallbackScenes(body string, want int) []Scene {
	words := strings.Fields(body)
	if len(words) == 0 {
		return nil
	}
	if want < 1 {
		want = 1
	}
	if len(words) < want {
		want = len(words)
	}

	base := len(words) / want
	extra := len(words) % want

	scenes := make([]Scene, 0, want)
	start := 0
	for i := 0; i < want; i++ {
		size := base
		if i < extra {
			size++
		}
		scenes = append(scenes, Scene{
			Order: i + 1,
			Text:  strings.Join(words[start:start+size], " "),
		})
		start += size
	}
	return scenes
}
