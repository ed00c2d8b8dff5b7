package session

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/jmylchreest/colorhunter/internal/colour"
	imgutil "github.com/jmylchreest/colorhunter/internal/image"
)

// ImageLoader loads an image from a path or URL.
type ImageLoader interface {
	LoadContext(ctx context.Context, path string) (image.Image, error)
}

// ExtractorFactory returns a fresh extractor for one extraction.
type ExtractorFactory func() (colour.Extractor, error)

// Result is the outcome of an AddImage call.
type Result struct {
	Entry Entry
	Err   error
}

// ControllerOptions configures a Controller.
type ControllerOptions struct {
	Loader     ImageLoader
	Extractors ExtractorFactory
	Clipboard  Clipboard
	CopyFormat CopyFormat

	// Logger defaults to a null logger.
	Logger hclog.Logger
}

// Controller implements Handlers on top of a Library.
type Controller struct {
	library    *Library
	loader     ImageLoader
	extractors ExtractorFactory
	clipboard  Clipboard
	format     CopyFormat
	logger     hclog.Logger

	mu       sync.Mutex
	view     View
	selected int
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

var _ Handlers = (*Controller)(nil)

// NewController creates a Controller. Attach a view before sending events.
func NewController(opts ControllerOptions) (*Controller, error) {
	if opts.Loader == nil {
		return nil, fmt.Errorf("controller requires an image loader")
	}
	if opts.Extractors == nil {
		return nil, fmt.Errorf("controller requires an extractor factory")
	}
	if opts.Clipboard == nil {
		return nil, fmt.Errorf("controller requires a clipboard")
	}
	format := opts.CopyFormat
	if format == "" {
		format = CopyHex
	}
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		library:    NewLibrary(),
		loader:     opts.Loader,
		extractors: opts.Extractors,
		clipboard:  opts.Clipboard,
		format:     format,
		logger:     logger.Named("session"),
		selected:   -1,
		ctx:        ctx,
		cancel:     cancel,
	}, nil
}

// Attach sets the view that receives updates.
func (c *Controller) Attach(v View) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view = v
}

// Library returns the controller's library.
func (c *Controller) Library() *Library {
	return c.library
}

// CopyFormat returns the clipboard format.
func (c *Controller) CopyFormat() CopyFormat {
	return c.format
}

// Selected returns the selected index, or -1.
func (c *Controller) Selected() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// OnAdd implements Handlers.
func (c *Controller) OnAdd(source string) {
	c.AddImage(c.ctx, source)
}

// AddImage loads and extracts source in the background. The returned
// channel receives exactly one Result and is then closed. On success the
// new entry is selected; on failure nothing is added and the view is told.
// The load is cancelled when either ctx or the controller is closed.
func (c *Controller) AddImage(ctx context.Context, source string) <-chan Result {
	done := make(chan Result, 1)

	if c.library.Contains(source) {
		err := fmt.Errorf("%w: %s", ErrDuplicate, source)
		c.reportError(err)
		done <- Result{Err: err}
		close(done)
		return done
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		done <- Result{Err: ErrClosed}
		close(done)
		return done
	}
	c.wg.Add(1)
	c.mu.Unlock()

	// Close cancels the load even when the caller's ctx lives on.
	ctx, cancel := context.WithCancel(ctx)
	stop := context.AfterFunc(c.ctx, cancel)

	go func() {
		defer c.wg.Done()
		defer close(done)
		defer cancel()
		defer stop()

		entry, err := c.build(ctx, source)
		if err == nil {
			err = c.library.Add(entry)
		}
		if err != nil {
			c.logger.Warn("failed to add image", "source", source, "error", err)
			c.reportError(err)
			done <- Result{Err: err}
			return
		}

		c.logger.Debug("image added", "source", source, "colours", entry.Palette.Len())
		c.OnSelect(c.library.IndexOf(source))
		done <- Result{Entry: entry}
	}()

	return done
}

func (c *Controller) build(ctx context.Context, source string) (Entry, error) {
	img, err := c.loader.LoadContext(ctx, source)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to load %s: %w", source, err)
	}

	extractor, err := c.extractors()
	if err != nil {
		return Entry{}, err
	}
	palette, err := extractor.Extract(img)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to extract palette from %s: %w", source, err)
	}

	return Entry{
		ID:        source,
		Image:     img,
		Thumbnail: imgutil.Thumbnail(img, imgutil.PreviewWidth, imgutil.PreviewHeight),
		Palette:   palette,
	}, nil
}

// OnDelete implements Handlers. Deleting the last image resets the view.
func (c *Controller) OnDelete(index int) {
	entry, err := c.library.DeleteAt(index)
	if err != nil {
		c.reportError(err)
		return
	}
	c.logger.Debug("image deleted", "source", entry.ID)

	if c.library.Len() == 0 {
		c.mu.Lock()
		c.selected = -1
		view := c.view
		c.mu.Unlock()
		if view != nil {
			view.ShowLibrary(nil, -1)
			view.Reset()
		}
		return
	}

	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()
	if index < selected {
		selected--
	}
	c.OnSelect(max(selected, 0))
}

// OnSelect implements Handlers. Indices past the end select the last image.
func (c *Controller) OnSelect(index int) {
	if index < 0 {
		return
	}
	entry, resolved, err := c.library.At(index)
	if err != nil {
		return
	}

	c.mu.Lock()
	c.selected = resolved
	view := c.view
	c.mu.Unlock()

	if view == nil {
		return
	}
	view.ShowLibrary(c.library.IDs(), resolved)
	view.ShowPalette(entry.Palette)
	view.ShowPreview(entry.Thumbnail)
}

// OnSwatchClick implements Handlers.
func (c *Controller) OnSwatchClick(ev SwatchEvent) {
	text := c.format.Format(ev.Colour)
	if err := c.clipboard.Copy(text); err != nil {
		c.reportError(fmt.Errorf("failed to copy %s: %w", text, err))
		return
	}
	c.logger.Debug("colour copied", "index", ev.Index, "value", text)
	if view := c.currentView(); view != nil {
		view.ShowCopied(ev.Index, true)
	}
}

// OnSwatchLeave implements Handlers.
func (c *Controller) OnSwatchLeave(ev SwatchEvent) {
	if view := c.currentView(); view != nil {
		view.ShowCopied(ev.Index, false)
	}
}

// Close cancels pending extractions and waits for them to finish.
// Later AddImage calls fail with ErrClosed.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.cancel()
	c.wg.Wait()
}

// Wait blocks until all pending extractions have finished.
func (c *Controller) Wait() {
	c.wg.Wait()
}

func (c *Controller) currentView() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) reportError(err error) {
	if view := c.currentView(); view != nil {
		view.ShowError(err)
	}
}
