package spirit

import (
	"fmt"
	"image"
	"strings"
	"sync"
)

// PreviewInterval is the flattening/resampling resolution used for
// preview renders, finer than the 1.0mm cutting resolution so curves
// look smooth at typical preview zoom levels.
const PreviewInterval = 0.1

// RenderRequest describes one preview render. Size is the nominal
// canvas size in pixels and Zoom is clamped to [MinZoom,MaxZoom] (see
// [Rasteriser.Render]). Reply, if non-nil, should be buffered with
// capacity at least 1 so the worker never blocks sending to a caller
// that has stopped listening; a caller that no longer cares about the
// result simply stops reading from Reply rather than cancelling
// anything explicitly.
type RenderRequest struct {
	Design  *DesignFile
	Offset  DesignOffset
	Program *ToolProgram
	Bed     *Bed
	Size    int
	Zoom    float64
	Reply   chan RenderResult
}

// RenderResult is delivered to a RenderRequest's Reply channel once:
// the rendered image or error, or Dropped=true if the request was
// superseded before rendering started.
type RenderResult struct {
	Image   *image.RGBA
	Err     error
	Dropped bool // true if a newer request replaced this one before rendering started
}

// PreviewWorker renders preview images one at a time on a single
// background goroutine, using a single-slot coalescing mailbox: a
// request submitted while another is still pending immediately replaces
// it (the replaced request's Reply receives Dropped=true) rather than
// queuing, so the worker is always working toward the most recently
// requested state. A request already being rendered runs to completion;
// it is not cancelled mid-render. Uses the same producer/consumer
// done-channel shape as a directory-walking worker pool, narrowed from
// fan-out to a single slot (see DESIGN.md).
type PreviewWorker struct {
	rasteriser *Rasteriser

	// last render, keyed on the design's content hash plus the request
	// parameters; serves repeated identical requests without
	// re-rendering. Only the worker goroutine touches these.
	lastKey renderKey
	lastImg *image.RGBA

	mu      sync.Mutex
	pending *RenderRequest

	wake chan struct{}
	done chan struct{}
}

// renderKey identifies a render's inputs. Two requests with equal keys
// produce identical images, so the second can be served from cache; a
// changed design content hash invalidates the cache even when the file
// name is unchanged.
type renderKey struct {
	contentHash string
	offset      DesignOffset
	size        int
	zoom        float64
	passes      string
}

func keyFor(req *RenderRequest) renderKey {
	var passes strings.Builder
	for _, pass := range req.Program.Passes {
		fmt.Fprintf(&passes, "%v/%d/%d/%v;", pass.Colour, pass.Power, pass.Speed, pass.Enabled)
	}
	return renderKey{
		contentHash: req.Design.ContentHash,
		offset:      req.Offset,
		size:        req.Size,
		zoom:        req.Zoom,
		passes:      passes.String(),
	}
}

// NewPreviewWorker starts a PreviewWorker's background goroutine.
func NewPreviewWorker() *PreviewWorker {
	w := &PreviewWorker{
		rasteriser: NewRasteriser(),
		wake:       make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
	go w.loop()
	return w
}

// Submit replaces whatever render request is currently pending (which
// is dropped, see RenderResult.Dropped) with req, and wakes the worker
// if it is idle. Submit never blocks.
func (w *PreviewWorker) Submit(req *RenderRequest) {
	w.mu.Lock()
	dropped := w.pending
	w.pending = req
	w.mu.Unlock()

	if dropped != nil && dropped.Reply != nil {
		select {
		case dropped.Reply <- RenderResult{Dropped: true}:
		default:
		}
	}

	select {
	case w.wake <- struct{}{}:
	default:
	}
}

// Close stops the worker's goroutine. Any request it is mid-render on
// finishes first; its result is still delivered if Reply is listening.
func (w *PreviewWorker) Close() {
	close(w.done)
}

func (w *PreviewWorker) loop() {
	for {
		select {
		case <-w.done:
			return
		case <-w.wake:
			w.renderPending()
		}
	}
}

func (w *PreviewWorker) renderPending() {
	w.mu.Lock()
	req := w.pending
	w.pending = nil
	w.mu.Unlock()
	if req == nil {
		return
	}

	name := ""
	if req.Design != nil {
		name = req.Design.Name
	}
	Logger().Info("rendering preview", "design", name)
	result := w.render(req)
	Logger().Info("preview rendered", "design", name, "err", result.Err)

	if req.Reply == nil {
		return
	}
	select {
	case req.Reply <- result:
		return
	default:
	}
	select {
	case req.Reply <- result:
	case <-w.done:
	}
}

func (w *PreviewWorker) render(req *RenderRequest) RenderResult {
	if req.Design == nil || req.Bed == nil || req.Program == nil {
		return RenderResult{Err: ErrEmitPrecondition}
	}

	key := keyFor(req)
	if w.lastImg != nil && key == w.lastKey {
		return RenderResult{Image: w.lastImg}
	}

	resolved := ResolvePaths(req.Design.Paths, req.Offset, PreviewInterval)
	filtered := FilterToEnabledPasses(resolved, req.Program)
	img := w.rasteriser.Render(filtered, req.Program, req.Bed, req.Size, req.Zoom)
	w.lastKey = key
	w.lastImg = img
	return RenderResult{Image: img}
}
