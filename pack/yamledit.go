// Package pack implements the PackMaterializer from spec.md §4.F: it copies
// a template generator pack tree and rewrites its YAML in place — never a
// full parse, always line-oriented textual edits, so that formatting and
// comments the template author wrote survive untouched.
package pack

import (
	"bytes"
	"sort"
	"strings"
)

// lineEnding is the line terminator detected in a source file, so edited
// output preserves the author's convention instead of normalizing it.
type lineEnding string

const (
	lf   lineEnding = "\n"
	crlf lineEnding = "\r\n"
)

// detectLineEnding inspects raw for the first newline and reports whether it
// was preceded by a carriage return. Files with no newline at all default to
// lf, matching the platform the templates are authored on.
func detectLineEnding(raw []byte) lineEnding {
	idx := bytes.IndexByte(raw, '\n')
	if idx > 0 && raw[idx-1] == '\r' {
		return crlf
	}
	return lf
}

// splitLines splits raw into lines without their terminators, alongside the
// detected lineEnding so the caller can rejoin with joinLines.
func splitLines(raw []byte) ([]string, lineEnding) {
	le := detectLineEnding(raw)
	text := string(raw)
	text = strings.ReplaceAll(text, "\r\n", "\n")
	trailingNewline := strings.HasSuffix(text, "\n")
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	if trailingNewline {
		lines = append(lines, "")
	}
	return lines, le
}

// joinLines reverses splitLines, restoring le as the terminator between
// every line (including a trailing one, if the last element is empty).
func joinLines(lines []string, le lineEnding) []byte {
	joined := strings.Join(lines, string(le))
	return []byte(joined)
}

// replaceOrAppendKey finds the first line (ignoring leading indentation)
// that starts with keyPrefix (e.g. "id:") and replaces it wholesale with
// newLine. If no such line exists, newLine is appended as a new last line.
// Used by patchPackYML (spec.md §4.F step 2).
func replaceOrAppendKey(lines []string, keyPrefix, newLine string) []string {
	for i, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), keyPrefix) {
			out := append([]string(nil), lines...)
			out[i] = newLine
			return out
		}
	}
	out := append([]string(nil), lines...)
	if len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return append(out, newLine, "")
}

// substitutePlaceholders replaces every occurrence of each key in text with
// its mapped value, trying longer keys first so that e.g. DIM_PAL_SLOT_STONE
// is not partially consumed by a DIM_PAL_SLOT replacement.
func substitutePlaceholders(text string, placeholders map[string]string) string {
	keys := make([]string, 0, len(placeholders))
	for k := range placeholders {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		text = strings.ReplaceAll(text, k, placeholders[k])
	}
	return text
}

// indentOf returns the leading whitespace run of line.
func indentOf(line string) string {
	i := 0
	for i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return line[:i]
}

// findTopLevelBlock locates a top-level block introduced by a line whose
// trimmed form is exactly key+":" with no leading indentation. It returns
// the line index of the header and the exclusive end index of the block
// (the first subsequent line that is non-blank and has no indentation, or
// len(lines)). ok is false if no such header exists.
func findTopLevelBlock(lines []string, key string) (headerIdx, end int, ok bool) {
	header := key + ":"
	for i, line := range lines {
		if indentOf(line) != "" {
			continue
		}
		if strings.TrimRight(line, " \t") != header {
			continue
		}
		end = len(lines)
		for j := i + 1; j < len(lines); j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if indentOf(lines[j]) == "" {
				end = j
				break
			}
		}
		return i, end, true
	}
	return 0, 0, false
}

// findCategory locates a child block within a features:-style block, keyed
// by its own "<indent><category>:" header line. featuresStart/featuresEnd
// delimit the outer block (exclusive end); the returned range is similarly
// exclusive. ok is false if the category is absent.
func findCategory(lines []string, featuresStart, featuresEnd int, category string) (headerIdx, end int, indent string, ok bool) {
	for i := featuresStart + 1; i < featuresEnd; i++ {
		trimmed := strings.TrimRight(lines[i], " \t")
		ind := indentOf(lines[i])
		if ind == "" {
			continue
		}
		if strings.TrimSpace(trimmed) != category+":" {
			continue
		}
		end = featuresEnd
		for j := i + 1; j < featuresEnd; j++ {
			if strings.TrimSpace(lines[j]) == "" {
				continue
			}
			if len(indentOf(lines[j])) <= len(ind) {
				end = j
				break
			}
		}
		return i, end, ind, true
	}
	return 0, 0, "", false
}
