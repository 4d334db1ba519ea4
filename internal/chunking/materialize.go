package chunking

import (
	"context"
	"fmt"
	"path/filepath"
)

// Extractor cuts one time range out of a waveform file.
type Extractor interface {
	ExtractSegment(ctx context.Context, src string, startSec, lengthSec float64, dest string) error
}

// Materializer lazily turns planned segments into waveform files. A plan
// whose only segment covers the whole file reuses the source path directly,
// so peak temporary disk usage stays at roughly one chunk beyond the full
// normalized file.
type Materializer struct {
	source    string
	workDir   string
	extractor Extractor
	total     int
}

// NewMaterializer prepares segment materialization for one normalized file.
func NewMaterializer(source, workDir string, extractor Extractor, totalSegments int) *Materializer {
	return &Materializer{source: source, workDir: workDir, extractor: extractor, total: totalSegments}
}

// Materialize returns a waveform path for the segment, cutting it on demand.
// The second return value reports whether the caller owns the file and should
// remove it after use.
func (m *Materializer) Materialize(ctx context.Context, seg Segment) (string, bool, error) {
	if m.total <= 1 {
		return m.source, false, nil
	}
	dest := filepath.Join(m.workDir, fmt.Sprintf("segment_%03d.wav", seg.Index))
	if err := m.extractor.ExtractSegment(ctx, m.source, seg.Start, seg.Length, dest); err != nil {
		return "", false, err
	}
	return dest, true, nil
}
