package youtube

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"sort"
	"strconv"

	"github.com/tubetext/tubetext/internal/transcript"
)

type timedText struct {
	XMLName xml.Name        `xml:"transcript"`
	Texts   []timedTextLine `xml:"text"`
}

type timedTextLine struct {
	Start string `xml:"start,attr"`
	Dur   string `xml:"dur,attr"`
	Body  string `xml:",chardata"`
}

// parseTimedText decodes a timedtext XML document into segments ordered by
// start time. clean is applied to every line; lines that clean to nothing are dropped.
func parseTimedText(data []byte, clean func(string) string) ([]transcript.Segment, error) {
	var doc timedText
	if err := xml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode timedtext: %w", err)
	}

	segments := make([]transcript.Segment, 0, len(doc.Texts))
	for _, line := range doc.Texts {
		text := clean(line.Body)
		if isBlank(text) {
			continue
		}
		start, err := strconv.ParseFloat(line.Start, 64)
		if err != nil || start < 0 || math.IsNaN(start) || math.IsInf(start, 0) {
			return nil, fmt.Errorf("invalid start %q", line.Start)
		}
		// "-0" parses as negative zero.
		start = math.Abs(start)
		var dur float64
		if line.Dur != "" {
			dur, err = strconv.ParseFloat(line.Dur, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid dur %q", line.Dur)
			}
		}
		segments = append(segments, transcript.Segment{Start: start, Duration: dur, Text: text})
	}

	sort.SliceStable(segments, func(i, j int) bool {
		return segments[i].Start < segments[j].Start
	})
	return segments, nil
}
