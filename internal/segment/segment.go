package segment

import (
	"regexp"
	"strconv"
	"strings"
)

// Chunk is one question's answer text located inside a submission.
type Chunk struct {
	Question int
	Text     string
}

// headerPattern matches a question header anchored to a line start:
// an optional "Question"/"Q" prefix, a 1-3 digit number, a delimiter
// and at least one whitespace character after it.
var headerPattern = regexp.MustCompile(`(?mi)^\s*(?:question\s*)?(?:q\s*)?(\d{1,3})\s*[.):\-–—]\s+`)

// Split locates question headers in raw submission text and returns the
// ordered answer chunks. Each chunk starts at its header's end and runs
// until the next header (or end of text). Chunks that are empty after
// trimming are dropped. Question numbers are returned as found: they are
// neither deduplicated nor sorted, the caller decides how to resolve
// duplicates. When no header matches, the result is empty.
func Split(text string) []Chunk {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	matches := headerPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return nil
	}

	chunks := make([]Chunk, 0, len(matches))
	for i, m := range matches {
		question, err := strconv.Atoi(text[m[2]:m[3]])
		if err != nil {
			continue
		}

		start := m[1]
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}

		body := strings.TrimSpace(text[start:end])
		if body == "" {
			continue
		}

		chunks = append(chunks, Chunk{Question: question, Text: body})
	}

	return chunks
}

var (
	cidArtifacts   = regexp.MustCompile(`\(cid:\d+\)`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
	blankLineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Normalize strips common document-extraction artifacts from submission
// text: cid placeholders left by PDF extractors, soft hyphens, runs of
// horizontal whitespace and runs of more than one blank line.
func Normalize(text string) string {
	text = cidArtifacts.ReplaceAllString(text, "")
	text = strings.ReplaceAll(text, "­", "")
	text = horizontalRuns.ReplaceAllString(text, " ")
	text = blankLineRuns.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
