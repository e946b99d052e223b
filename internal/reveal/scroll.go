package reveal

import (
	"context"
	"math"
)

// ScrollSample is one reading of the host's scroll position relative to the
// revealing section.
type ScrollSample struct {
	ScrollY        float64 `json:"scrollY" form:"scrollY"`
	SectionTop     float64 `json:"sectionTop" form:"sectionTop"`
	ViewportHeight float64 `json:"viewportHeight" form:"viewportHeight"`
}

// Progress is the sample's position along the section in [0,1].
func (s ScrollSample) Progress() float64 {
	return Progress(s.ScrollY, s.SectionTop, s.ViewportHeight)
}

// Progress maps a scroll position to the unit interval:
// (scrollY - sectionTop + viewportHeight) / viewportHeight, clamped.
// A non-positive viewport yields 0.
func Progress(scrollY, sectionTop, viewportHeight float64) float64 {
	if viewportHeight <= 0 {
		return 0
	}
	return unit((scrollY - sectionTop + viewportHeight) / viewportHeight)
}

// Frame is the reveal state derived from one progress value.
type Frame struct {
	Progress float64 `json:"progress"`
	Position float64 `json:"position"`
	Tilted   bool    `json:"tilted"`
	Visible  []int   `json:"visible"`
	Count    int     `json:"count"`
	Total    int     `json:"total"`
}

// IsVisible reports whether item i is revealed.
func (f Frame) IsVisible(i int) bool {
	return i >= 0 && i < f.Count
}

// RevealFrame derives the frame for progress p over n items. The visible set
// is exactly {0 .. floor(p*n)-1}; it depends on p alone, so scrolling back up
// retracts items that were shown on the way down.
func RevealFrame(p float64, n int) Frame {
	if n < 0 {
		n = 0
	}
	p = unit(p)
	count := int(math.Floor(p * float64(n)))
	if count > n {
		count = n
	}

	visible := make([]int, count)
	for i := range visible {
		visible[i] = i
	}

	position := p * 100
	return Frame{
		Progress: p,
		Position: position,
		Tilted:   position > 50,
		Visible:  visible,
		Count:    count,
		Total:    n,
	}
}

// ScrollReveal follows a stream of scroll samples and keeps the latest frame.
type ScrollReveal struct {
	lifecycle

	total   int
	frame   Frame
	onFrame []func(Frame)
}

func NewScrollReveal(n int) *ScrollReveal {
	return &ScrollReveal{total: n, frame: RevealFrame(0, n)}
}

// OnFrame registers fn to receive every recomputed frame. fn runs while the
// controller is locked and must not call back into it. Register before
// Subscribe.
func (r *ScrollReveal) OnFrame(fn func(Frame)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFrame = append(r.onFrame, fn)
}

// Subscribe starts consuming samples until ctx is done, the stream closes or
// Stop is called. Whichever ends it, the controller is Stopped afterwards and
// ignores further samples. It returns false if the controller was already
// started.
func (r *ScrollReveal) Subscribe(ctx context.Context, samples <-chan ScrollSample) bool {
	return r.start(func() func() {
		ctx, cancel := context.WithCancel(ctx)
		done := make(chan struct{})

		go func() {
			defer func() {
				r.finish()
				cancel()
				close(done)
			}()
			for {
				select {
				case <-ctx.Done():
					return
				case s, ok := <-samples:
					if !ok {
						return
					}
					r.Observe(s)
				}
			}
		}()

		return func() {
			cancel()
			<-done
		}
	})
}

// Stop unsubscribes from the stream and waits for the consumer to exit.
func (r *ScrollReveal) Stop() bool {
	return r.stop()
}

// Observe recomputes the frame from scratch for one sample. Samples arriving
// when the controller is not running are ignored.
func (r *ScrollReveal) Observe(s ScrollSample) (Frame, bool) {
	var frame Frame
	ok := r.whileRunning(func() {
		r.frame = RevealFrame(s.Progress(), r.total)
		frame = r.frame
		for _, fn := range r.onFrame {
			fn(frame)
		}
	})
	return frame, ok
}

// Frame returns the latest frame.
func (r *ScrollReveal) Frame() Frame {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.frame
}

func unit(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
