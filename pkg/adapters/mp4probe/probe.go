// Package mp4probe reads frame count and frame rate from MP4 containers
// without spawning an external process.
package mp4probe

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/pivotseg/pkg/ports"
)

var (
	// ErrUnsupported is returned for inputs that are not progressive MP4.
	// Callers fall back to counting extracted frames.
	ErrUnsupported = errors.New("mp4probe: unsupported container")

	// ErrNoVideoTrack is returned when the file has no video track.
	ErrNoVideoTrack = errors.New("mp4probe: no video track found")
)

// Prober implements ports.VideoProber for MP4 files.
type Prober struct{}

// New creates a new Prober.
func New() *Prober {
	return &Prober{}
}

// Probe returns metadata for the MP4 file at path.
func (p *Prober) Probe(path string) (ports.VideoInfo, error) {
	ext := strings.ToLower(path)
	if !strings.HasSuffix(ext, ".mp4") && !strings.HasSuffix(ext, ".m4v") && !strings.HasSuffix(ext, ".mov") {
		return ports.VideoInfo{}, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("open file: %w", err)
	}
	defer f.Close()

	return ProbeReader(f)
}

// ProbeReader parses an MP4 stream.
func ProbeReader(r io.ReadSeeker) (ports.VideoInfo, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return ports.VideoInfo{}, fmt.Errorf("decode mp4: %w", err)
	}

	// Fragmented files spread samples over moof boxes; counting them is left
	// to frame extraction.
	if mp4File.IsFragmented() || mp4File.Moov == nil {
		return ports.VideoInfo{}, fmt.Errorf("%w: fragmented mp4", ErrUnsupported)
	}

	for _, trak := range mp4File.Moov.Traks {
		if trak.Mdia == nil || trak.Mdia.Hdlr == nil || trak.Mdia.Hdlr.HandlerType != "vide" {
			continue
		}
		return trackInfo(trak)
	}
	return ports.VideoInfo{}, ErrNoVideoTrack
}

func trackInfo(trak *mp4.TrakBox) (ports.VideoInfo, error) {
	var info ports.VideoInfo

	if trak.Tkhd != nil {
		info.Width = int(trak.Tkhd.Width >> 16)
		info.Height = int(trak.Tkhd.Height >> 16)
	}

	if trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
		return info, fmt.Errorf("no sample table found")
	}
	if stsd := trak.Mdia.Minf.Stbl.Stsd; stsd != nil {
		info.Codec = sampleCodec(stsd)
	}
	info.FrameCount = int(trak.Mdia.Minf.Stbl.Stsz.SampleNumber)

	if mdhd := trak.Mdia.Mdhd; mdhd != nil && mdhd.Timescale > 0 && mdhd.Duration > 0 {
		seconds := float64(mdhd.Duration) / float64(mdhd.Timescale)
		info.FrameRate = float64(info.FrameCount) / seconds
	}

	return info, nil
}

// sampleCodec names the codec of the first recognized sample entry.
func sampleCodec(stsd *mp4.StsdBox) string {
	for _, child := range stsd.Children {
		switch child.Type() {
		case "avc1", "avc3":
			return "h264"
		case "hvc1", "hev1":
			return "hevc"
		case "av01":
			return "av1"
		case "vp09":
			return "vp9"
		}
	}
	return ""
}

// Ensure Prober implements ports.VideoProber
var _ ports.VideoProber = (*Prober)(nil)
