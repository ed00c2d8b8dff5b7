package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/jmylchreest/colorhunter/internal/colour"
)

type fakeView struct {
	mu       sync.Mutex
	ids      []string
	selected int
	palette  *colour.Palette
	preview  image.Image
	resets   int
	errs     []error
	copied   map[int]bool
}

func newFakeView() *fakeView {
	return &fakeView{selected: -1, copied: make(map[int]bool)}
}

func (v *fakeView) ShowLibrary(ids []string, selected int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ids = slices.Clone(ids)
	v.selected = selected
}

func (v *fakeView) ShowPalette(p *colour.Palette) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.palette = p
}

func (v *fakeView) ShowPreview(img image.Image) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.preview = img
}

func (v *fakeView) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.palette = nil
	v.preview = nil
	v.resets++
}

func (v *fakeView) ShowError(err error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.errs = append(v.errs, err)
}

func (v *fakeView) ShowCopied(index int, copied bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.copied[index] = copied
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) Copy(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type fakeLoader map[string]image.Image

func (l fakeLoader) LoadContext(_ context.Context, path string) (image.Image, error) {
	img, ok := l[path]
	if !ok {
		return nil, fmt.Errorf("image file not found: %s", path)
	}
	return img, nil
}

func solid(c color.RGBA, w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetRGBA(x, y, c)
		}
	}
	return img
}

func newTestController(t *testing.T, loader fakeLoader, clip *fakeClipboard) (*Controller, *fakeView) {
	t.Helper()

	seed := int64(1)
	c, err := NewController(ControllerOptions{
		Loader: loader,
		Extractors: func() (colour.Extractor, error) {
			return colour.NewExtractor(colour.AlgorithmKMeans, colour.ExtractorOptions{Seed: &seed})
		},
		Clipboard: clip,
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	t.Cleanup(c.Close)

	view := newFakeView()
	c.Attach(view)
	return c, view
}

func TestNewControllerRequiresCollaborators(t *testing.T) {
	extractors := func() (colour.Extractor, error) { return nil, nil }

	tests := []struct {
		name string
		opts ControllerOptions
	}{
		{name: "no loader", opts: ControllerOptions{Extractors: extractors, Clipboard: &fakeClipboard{}}},
		{name: "no extractors", opts: ControllerOptions{Loader: fakeLoader{}, Clipboard: &fakeClipboard{}}},
		{name: "no clipboard", opts: ControllerOptions{Loader: fakeLoader{}, Extractors: extractors}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewController(tt.opts); err == nil {
				t.Error("NewController() should fail")
			}
		})
	}
}

func TestControllerAddImage(t *testing.T) {
	loader := fakeLoader{
		"red.png":  solid(color.RGBA{R: 200, G: 100, B: 50, A: 255}, 20, 20),
		"blue.png": solid(color.RGBA{R: 10, G: 20, B: 220, A: 255}, 600, 300),
	}
	c, view := newTestController(t, loader, &fakeClipboard{})

	res := <-c.AddImage(context.Background(), "red.png")
	if res.Err != nil {
		t.Fatalf("AddImage() error = %v", res.Err)
	}
	if res.Entry.Palette.Len() != colour.MinClusters {
		t.Errorf("palette length = %d, want %d", res.Entry.Palette.Len(), colour.MinClusters)
	}

	res = <-c.AddImage(context.Background(), "blue.png")
	if res.Err != nil {
		t.Fatalf("AddImage() error = %v", res.Err)
	}
	bounds := res.Entry.Thumbnail.Bounds()
	if bounds.Dx() > 300 || bounds.Dy() > 170 {
		t.Errorf("thumbnail is %dx%d, want it to fit 300x170", bounds.Dx(), bounds.Dy())
	}

	view.mu.Lock()
	defer view.mu.Unlock()
	if !slices.Equal(view.ids, []string{"red.png", "blue.png"}) {
		t.Errorf("view ids = %v", view.ids)
	}
	if view.selected != 1 {
		t.Errorf("view selected = %d, want 1 (newest image)", view.selected)
	}
	if view.palette != res.Entry.Palette {
		t.Error("view does not show the newest palette")
	}
	if view.preview != res.Entry.Thumbnail {
		t.Error("view does not show the newest thumbnail")
	}
	if len(view.errs) != 0 {
		t.Errorf("unexpected errors: %v", view.errs)
	}
}

func TestControllerAddImageFailures(t *testing.T) {
	loader := fakeLoader{
		"ok.png":   solid(color.RGBA{R: 1, G: 2, B: 3, A: 255}, 10, 10),
		"tiny.png": solid(color.RGBA{R: 1, G: 2, B: 3, A: 255}, 2, 2),
	}
	c, view := newTestController(t, loader, &fakeClipboard{})

	if res := <-c.AddImage(context.Background(), "ok.png"); res.Err != nil {
		t.Fatalf("AddImage(ok) error = %v", res.Err)
	}

	tests := []struct {
		name   string
		source string
		is     error
	}{
		{name: "duplicate", source: "ok.png", is: ErrDuplicate},
		{name: "missing", source: "missing.png"},
		{name: "too few pixels", source: "tiny.png", is: colour.ErrClusteringFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := <-c.AddImage(context.Background(), tt.source)
			if res.Err == nil {
				t.Fatal("AddImage() should fail")
			}
			if tt.is != nil && !errors.Is(res.Err, tt.is) {
				t.Errorf("AddImage() error = %v, want %v", res.Err, tt.is)
			}
		})
	}

	if c.Library().Len() != 1 {
		t.Errorf("library length = %d, want 1", c.Library().Len())
	}
	view.mu.Lock()
	defer view.mu.Unlock()
	if len(view.errs) != len(tests) {
		t.Errorf("view received %d errors, want %d", len(view.errs), len(tests))
	}
}

func TestControllerOnAddDelivers(t *testing.T) {
	loader := fakeLoader{"a.png": solid(color.RGBA{R: 90, G: 200, B: 90, A: 255}, 8, 8)}
	c, view := newTestController(t, loader, &fakeClipboard{})

	c.OnAdd("a.png")
	c.Wait()

	view.mu.Lock()
	defer view.mu.Unlock()
	if view.palette == nil {
		t.Fatal("OnAdd did not display a palette")
	}
	for _, rgb := range view.palette.Colours {
		if colour.Classify(rgb) != colour.BucketGreen {
			t.Errorf("colour %s is not green-dominant", rgb.Hex())
		}
	}
}

func TestControllerSelectAndDelete(t *testing.T) {
	loader := fakeLoader{
		"a": solid(color.RGBA{R: 250, A: 255}, 6, 6),
		"b": solid(color.RGBA{G: 250, A: 255}, 6, 6),
		"c": solid(color.RGBA{B: 250, A: 255}, 6, 6),
	}
	c, view := newTestController(t, loader, &fakeClipboard{})
	for _, id := range []string{"a", "b", "c"} {
		if res := <-c.AddImage(context.Background(), id); res.Err != nil {
			t.Fatalf("AddImage(%q) error = %v", id, res.Err)
		}
	}

	paletteOf := func(id string) *colour.Palette {
		e, _, err := c.Library().At(c.Library().IndexOf(id))
		if err != nil {
			t.Fatalf("At(%q) error = %v", id, err)
		}
		return e.Palette
	}
	shown := func() *colour.Palette {
		view.mu.Lock()
		defer view.mu.Unlock()
		return view.palette
	}

	c.OnSelect(0)
	if shown() != paletteOf("a") || c.Selected() != 0 {
		t.Fatal("OnSelect(0) did not show the first image")
	}

	c.OnSelect(10)
	if shown() != paletteOf("c") || c.Selected() != 2 {
		t.Fatal("OnSelect past the end did not clamp to the last image")
	}

	c.OnSelect(-1)
	if c.Selected() != 2 {
		t.Errorf("OnSelect(-1) changed selection to %d", c.Selected())
	}

	// Deleting before the selection keeps the same image selected.
	c.OnSelect(1)
	c.OnDelete(0)
	if shown() != paletteOf("b") || c.Selected() != 0 {
		t.Errorf("after deleting an earlier image selection = %d", c.Selected())
	}

	// Deleting the selected last image moves to the new last one.
	c.OnSelect(1)
	c.OnDelete(1)
	if shown() != paletteOf("b") || c.Selected() != 0 {
		t.Errorf("after deleting the selected image selection = %d", c.Selected())
	}

	c.OnDelete(0)
	view.mu.Lock()
	resets, palette, preview, ids := view.resets, view.palette, view.preview, view.ids
	view.mu.Unlock()
	if resets != 1 || palette != nil || preview != nil {
		t.Errorf("deleting the last image did not reset the view (resets=%d)", resets)
	}
	if len(ids) != 0 {
		t.Errorf("view ids = %v, want none", ids)
	}
	if c.Selected() != -1 {
		t.Errorf("Selected() = %d, want -1", c.Selected())
	}

	c.OnDelete(0)
	view.mu.Lock()
	defer view.mu.Unlock()
	if len(view.errs) != 1 || !errors.Is(view.errs[0], ErrNotFound) {
		t.Errorf("deleting from an empty library reported %v", view.errs)
	}
}

func TestControllerSwatchEvents(t *testing.T) {
	clip := &fakeClipboard{}
	c, view := newTestController(t, fakeLoader{}, clip)

	ev := SwatchEvent{Index: 3, Colour: colour.RGB{R: 18, G: 52, B: 86}}

	c.OnSwatchClick(ev)
	if clip.text != "#123456" {
		t.Errorf("clipboard = %q, want #123456", clip.text)
	}
	view.mu.Lock()
	if !view.copied[3] {
		t.Error("swatch 3 not marked as copied")
	}
	view.mu.Unlock()

	c.OnSwatchLeave(ev)
	view.mu.Lock()
	if view.copied[3] {
		t.Error("swatch 3 still marked as copied after leave")
	}
	view.mu.Unlock()

	clip.err = errors.New("no display")
	c.OnSwatchClick(SwatchEvent{Index: 1})
	view.mu.Lock()
	defer view.mu.Unlock()
	if view.copied[1] {
		t.Error("swatch marked as copied although the clipboard failed")
	}
	if len(view.errs) != 1 {
		t.Errorf("view received %d errors, want 1", len(view.errs))
	}
}

func TestControllerCopyFormatRGB(t *testing.T) {
	clip := &fakeClipboard{}
	c, err := NewController(ControllerOptions{
		Loader:     fakeLoader{},
		Extractors: func() (colour.Extractor, error) { return nil, errors.New("unused") },
		Clipboard:  clip,
		CopyFormat: CopyRGB,
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	defer c.Close()

	c.OnSwatchClick(SwatchEvent{Colour: colour.RGB{R: 1, G: 2, B: 3}})
	if clip.text != "rgb(1, 2, 3)" {
		t.Errorf("clipboard = %q, want rgb(1, 2, 3)", clip.text)
	}
}

func TestControllerAddAfterClose(t *testing.T) {
	loader := fakeLoader{"a.png": solid(color.RGBA{R: 1, A: 255}, 8, 8)}
	c, _ := newTestController(t, loader, &fakeClipboard{})

	c.Close()
	res := <-c.AddImage(context.Background(), "a.png")
	if !errors.Is(res.Err, ErrClosed) {
		t.Errorf("AddImage() after Close error = %v, want ErrClosed", res.Err)
	}
}

// blockingLoader blocks until the load context is cancelled.
type blockingLoader struct {
	started chan struct{}
}

func (l blockingLoader) LoadContext(ctx context.Context, _ string) (image.Image, error) {
	close(l.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestControllerCloseCancelsCallerContext(t *testing.T) {
	loader := blockingLoader{started: make(chan struct{})}
	c, err := NewController(ControllerOptions{
		Loader:     loader,
		Extractors: func() (colour.Extractor, error) { return nil, errors.New("unused") },
		Clipboard:  &fakeClipboard{},
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	c.Attach(newFakeView())

	done := c.AddImage(context.Background(), "slow.png")
	<-loader.started

	closed := make(chan struct{})
	go func() {
		c.Close()
		close(closed)
	}()

	select {
	case res := <-done:
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("AddImage() error = %v, want context.Canceled", res.Err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Close did not cancel an add started with a caller context")
	}
	<-closed
}
