// Package airesponse extracts the structured narrative embedded in the free
// text an analysis model returned. Extraction is best effort: anything that
// does not decode is handed back as raw text.
package airesponse

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strings"
)

// objectSpan matches from the first '{' to the last '}' in the text.
var objectSpan = regexp.MustCompile(`\{[\s\S]*\}`)

// TimeframeNote is the model's commentary for one timeframe.
type TimeframeNote struct {
	Timeframe string
	Text      string
}

// Narrative is the decoded analysis object.
type Narrative struct {
	// Timeframes keeps the order the model wrote them in.
	Timeframes []TimeframeNote
	Reasoning  string
}

// Result is either a parsed Narrative or the unparsed raw text.
type Result struct {
	narrative *Narrative
	raw       string
}

// Narrative returns the parsed value and true, or nil and false when the
// text could not be parsed.
func (r Result) Narrative() (*Narrative, bool) {
	return r.narrative, r.narrative != nil
}

// Raw returns the original text.
func (r Result) Raw() string { return r.raw }

// Parsed reports whether a narrative was extracted.
func (r Result) Parsed() bool { return r.narrative != nil }

type envelope struct {
	Analysis  json.RawMessage `json:"analysis"`
	Reasoning json.RawMessage `json:"reasoning"`
}

// Parse extracts the narrative from text. It never panics and never fails;
// malformed input yields an unparsed Result.
func Parse(text string) Result {
	res := Result{raw: text}

	span := objectSpan.FindString(text)
	if span == "" {
		return res
	}

	var env envelope
	if err := json.Unmarshal([]byte(span), &env); err != nil {
		return res
	}

	notes, ok := decodeTimeframes(env.Analysis)
	if !ok {
		return res
	}
	res.narrative = &Narrative{
		Timeframes: notes,
		Reasoning:  stringify(env.Reasoning),
	}
	return res
}

// decodeTimeframes walks the analysis object in document order. Values that
// are not strings are kept as compact JSON.
func decodeTimeframes(raw json.RawMessage) ([]TimeframeNote, bool) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return nil, true
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		// A bare string or array still reads fine as a single note.
		return []TimeframeNote{{Text: stringify(raw)}}, true
	}

	var notes []TimeframeNote
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, false
		}
		key, _ := keyTok.(string)

		var val json.RawMessage
		if err := dec.Decode(&val); err != nil {
			return nil, false
		}
		notes = append(notes, TimeframeNote{Timeframe: key, Text: stringify(val)})
	}
	return notes, true
}

func stringify(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return strings.TrimSpace(string(raw))
	}
	return buf.String()
}
