package scan

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// RawFinding is one element of the model's JSON findings array, before
// normalization. LineNumber tolerates both numbers and strings.
type RawFinding struct {
	Type           string     `json:"type"`
	Severity       string     `json:"severity"`
	LineNumber     flexibleInt `json:"lineNumber"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Impact         string     `json:"impact"`
	Recommendation string     `json:"recommendation"`
	Confidence     string     `json:"confidence"`
}

// flexibleInt decodes JSON numbers, numeric strings, and anything else
// (mapped to zero) without failing the surrounding array.
type flexibleInt int

func (f *flexibleInt) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	s = strings.Trim(s, `"`)
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		*f = flexibleInt(int(v))
	} else {
		*f = 0
	}
	return nil
}

var fencedJSONRe = regexp.MustCompile("(?s)```json\\s*(.*?)\\s*```")

// ParseResponse extracts the findings array from a model response. The model
// is told to reply with a fenced ```json block, but responses drift: the
// parser tries the fenced block first, then the outermost bracketed span, and
// treats everything unparseable as zero findings. It never returns an error —
// a mangled response for one file must not fail the scan.
func ParseResponse(response string) []RawFinding {
	var candidate string
	if m := fencedJSONRe.FindStringSubmatch(response); m != nil {
		candidate = m[1]
	} else {
		start := strings.IndexByte(response, '[')
		end := strings.LastIndexByte(response, ']')
		if start < 0 || end <= start {
			return nil
		}
		candidate = response[start : end+1]
	}

	var findings []RawFinding
	if err := json.Unmarshal([]byte(candidate), &findings); err != nil {
		return nil
	}
	return findings
}
