package ports

import (
	"context"
	"iter"

	"github.com/user/pivotseg/pkg/mask"
)

// SessionHandle identifies the state a Segmenter keeps for one frame
// directory.
type SessionHandle struct {
	ID         string
	FrameDir   string
	FrameCount int
}

// PropagatedFrame is one element of a propagation sequence.
type PropagatedFrame struct {
	LocalIndex int
	Masks      mask.ObjectMasks
}

// Segmenter abstracts the video segmentation capability. The network runs
// outside this process; only its contract is modeled here.
type Segmenter interface {
	// InitState allocates inference state for the frames in frameDir.
	InitState(ctx context.Context, frameDir string) (SessionHandle, error)

	// AddAnnotation registers a seed annotation on localFrame and returns
	// the mask predicted for that frame alone.
	AddAnnotation(ctx context.Context, h SessionHandle, localFrame int, obj mask.ObjectID, a mask.Annotation) (mask.ObjectMasks, error)

	// Propagate returns a lazy, finite sequence covering every frame of the
	// directory exactly once in local-index order. It can be ranged over
	// once; iteration stops at the first error.
	Propagate(ctx context.Context, h SessionHandle) iter.Seq2[PropagatedFrame, error]

	// ResetState releases the inference state for h.
	ResetState(h SessionHandle) error
}

// ObjectRemover erases a masked object from a video (inpainting). It
// consumes the original video and a directory of silhouette frames.
type ObjectRemover interface {
	Remove(ctx context.Context, videoPath, maskDir, outputPath string) error
}
