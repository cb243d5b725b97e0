package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	// jsonBlockPattern matches an object inside a markdown code block
	jsonBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	// jsonObjectPattern is the greedy fallback for a bare object
	jsonObjectPattern = regexp.MustCompile(`(?s)\{.*\}`)
	// trailingCommaPattern matches trailing commas before ] or }
	trailingCommaPattern = regexp.MustCompile(`,\s*([}\]])`)
)

// ErrMalformed is returned when a reply does not have the expected shape
var ErrMalformed = errors.New("malformed model reply")

// wireResponse mirrors Response with pointers so missing fields are detectable
type wireResponse struct {
	Text     *string `json:"text"`
	Metadata *struct {
		DetectedFeelings *[]string `json:"detected_feelings"`
		DetectedThemes   *[]string `json:"detected_themes"`
		LinkedPrinciples *[]string `json:"linked_principles"`
		ShouldLog        *bool     `json:"should_log"`
	} `json:"metadata"`
}

// ExtractJSON pulls the JSON object out of a model reply, tolerating code
// fences, surrounding prose and trailing commas.
func ExtractJSON(content string) string {
	raw := ""
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		raw = m[1]
	} else {
		raw = jsonObjectPattern.FindString(content)
	}
	if raw == "" {
		return ""
	}
	return trailingCommaPattern.ReplaceAllString(raw, "$1")
}

// ParseResponse validates a raw reply against the response contract.
// Every field is required and the text must not be blank. A reply that is
// already valid JSON is decoded as is; ExtractJSON only runs when it is not.
func ParseResponse(raw string) (Response, error) {
	trimmed := strings.TrimSpace(raw)

	var wire wireResponse
	if err := json.Unmarshal([]byte(trimmed), &wire); err != nil {
		body := ExtractJSON(trimmed)
		if body == "" {
			return Response{}, fmt.Errorf("%w: no JSON object found", ErrMalformed)
		}
		wire = wireResponse{}
		if err := json.Unmarshal([]byte(body), &wire); err != nil {
			return Response{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	}

	switch {
	case wire.Text == nil || strings.TrimSpace(*wire.Text) == "":
		return Response{}, fmt.Errorf("%w: missing text", ErrMalformed)
	case wire.Metadata == nil:
		return Response{}, fmt.Errorf("%w: missing metadata", ErrMalformed)
	case wire.Metadata.DetectedFeelings == nil,
		wire.Metadata.DetectedThemes == nil,
		wire.Metadata.LinkedPrinciples == nil,
		wire.Metadata.ShouldLog == nil:
		return Response{}, fmt.Errorf("%w: incomplete metadata", ErrMalformed)
	}

	return Response{
		Text: strings.TrimSpace(*wire.Text),
		Metadata: Metadata{
			DetectedFeelings: labels(*wire.Metadata.DetectedFeelings),
			DetectedThemes:   labels(*wire.Metadata.DetectedThemes),
			LinkedPrinciples: labels(*wire.Metadata.LinkedPrinciples),
			ShouldLog:        *wire.Metadata.ShouldLog,
		},
	}, nil
}

// labels trims, drops blanks and removes duplicates, keeping first occurrence
func labels(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, l := range in {
		l = strings.TrimSpace(l)
		if l == "" || seen[l] {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}
