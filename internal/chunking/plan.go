// Package chunking cuts a normalized waveform into bounded-length segments
// for independent transcription.
package chunking

import "math"

// Segment is one bounded slice of the normalized audio. Length 0 on a single
// segment means "whole file, unknown duration".
type Segment struct {
	Index  int
	Start  float64
	Length float64
}

// Plan partitions [0, durationSeconds) into consecutive segments of at most
// chunkSeconds, the final segment shortened to fit exactly. Unknown (zero or
// negative) duration and non-positive chunk sizes degrade to a single
// whole-file segment, never to a failure.
func Plan(durationSeconds, chunkSeconds float64) []Segment {
	if durationSeconds <= 0 || chunkSeconds <= 0 || durationSeconds <= chunkSeconds {
		length := durationSeconds
		if length < 0 {
			length = 0
		}
		return []Segment{{Index: 0, Start: 0, Length: length}}
	}

	count := int(math.Ceil(durationSeconds / chunkSeconds))
	segments := make([]Segment, 0, count)
	for i := 0; i < count; i++ {
		start := float64(i) * chunkSeconds
		length := chunkSeconds
		if start+length > durationSeconds {
			length = durationSeconds - start
		}
		segments = append(segments, Segment{Index: i, Start: start, Length: length})
	}
	return segments
}
