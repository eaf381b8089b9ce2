// Package transcript reads Claude Code JSONL transcripts and pulls out
// OpenRouter generation identifiers.
package transcript

import (
	"bufio"
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"
)

// GenerationPrefix marks identifiers issued by OpenRouter.
const GenerationPrefix = "gen-"

// idPath is the gjson path of the generation id on a transcript line.
const idPath = "message.id"

// Result holds the output of scanning a transcript.
type Result struct {
	IDs          []string // distinct, in first-seen order
	Lines        int
	BlankLines   int
	InvalidLines int
	Err          error // read error; IDs found before it are kept
}

// ExtractGenerationIDs returns the distinct generation ids referenced in the
// transcript at path. A missing or unreadable file yields no ids.
func ExtractGenerationIDs(path string) []string {
	f, err := os.Open(path) //nolint:gosec // path comes from the statusline host
	if err != nil {
		log.Debug().Err(err).Str("path", path).Msg("transcript unreadable")
		return nil
	}
	defer func() { _ = f.Close() }()

	res := Extract(f)
	if res.Err != nil {
		log.Warn().Err(res.Err).Str("path", path).Msg("transcript read failed")
		return nil
	}
	if res.InvalidLines > 0 {
		log.Debug().
			Str("path", path).
			Int("invalid_lines", res.InvalidLines).
			Msg("skipped malformed transcript lines")
	}
	return res.IDs
}

// Extract scans r line by line. Blank and malformed lines are skipped;
// a line without a string message.id simply contributes nothing.
func Extract(r io.Reader) Result {
	var res Result
	seen := make(map[string]struct{})

	br := bufio.NewReaderSize(r, 256*1024)
	for {
		line, err := br.ReadBytes('\n')
		if len(line) > 0 {
			res.Lines++
			if id, ok := classifyLine(line, &res); ok {
				if _, dup := seen[id]; !dup {
					seen[id] = struct{}{}
					res.IDs = append(res.IDs, id)
				}
			}
		}
		if err != nil {
			if err != io.EOF {
				res.Err = err
			}
			break
		}
	}
	return res
}

func classifyLine(line []byte, res *Result) (string, bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		res.BlankLines++
		return "", false
	}
	if !gjson.ValidBytes(line) {
		res.InvalidLines++
		return "", false
	}
	v := gjson.GetBytes(line, idPath)
	if v.Type != gjson.String {
		return "", false
	}
	if !strings.HasPrefix(v.Str, GenerationPrefix) {
		return "", false
	}
	return v.Str, true
}
