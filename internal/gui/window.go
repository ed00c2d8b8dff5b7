// Package gui is the fyne desktop front end. It renders session state and
// forwards user actions to session.Handlers.
package gui

import (
	"image"
	"image/color"
	"path/filepath"
	"slices"
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/jmylchreest/colorhunter/internal/colour"
	imgutil "github.com/jmylchreest/colorhunter/internal/image"
	"github.com/jmylchreest/colorhunter/internal/session"
)

const (
	// Title is the window title.
	Title = "Color Hunter"

	windowWidth  = 700
	windowHeight = 520
)

var previewBackground = color.NRGBA{R: 255, G: 255, B: 235, A: 255}

// Window is the main application window. It implements session.View.
type Window struct {
	fyne.Window
	handlers session.Handlers
	format   session.CopyFormat

	mu       sync.Mutex
	ids      []string
	selected int
	palette  []colour.RGB
	copied   map[int]bool
	syncing  bool

	list    *widget.List
	grid    *fyne.Container
	preview *canvas.Image
	tooltip *widget.Label
}

var _ session.View = (*Window)(nil)

// New builds the window content inside win and wires it to handlers.
func New(win fyne.Window, handlers session.Handlers, format session.CopyFormat) *Window {
	w := &Window{
		Window:   win,
		handlers: handlers,
		format:   format,
		selected: -1,
		copied:   make(map[int]bool),
	}

	w.setupUI()
	w.SetTitle(Title)
	w.Resize(fyne.NewSize(windowWidth, windowHeight))
	return w
}

// setupUI creates the two-column layout: image list left, palette and
// preview right.
func (w *Window) setupUI() {
	w.list = widget.NewList(
		func() int {
			w.mu.Lock()
			defer w.mu.Unlock()
			return len(w.ids)
		},
		func() fyne.CanvasObject {
			return widget.NewLabel("image.png")
		},
		func(id widget.ListItemID, obj fyne.CanvasObject) {
			w.mu.Lock()
			defer w.mu.Unlock()
			if id < len(w.ids) {
				obj.(*widget.Label).SetText(displayName(w.ids[id]))
			}
		},
	)
	w.list.OnSelected = func(id widget.ListItemID) {
		w.mu.Lock()
		syncing := w.syncing
		w.selected = id
		w.mu.Unlock()
		if !syncing {
			w.handlers.OnSelect(id)
		}
	}

	addBtn := widget.NewButtonWithIcon("Add", theme.ContentAddIcon(), w.onAddFile)
	urlBtn := widget.NewButtonWithIcon("URL", theme.DownloadIcon(), w.onAddURL)
	removeBtn := widget.NewButtonWithIcon("Remove", theme.ContentRemoveIcon(), w.onRemove)

	left := container.NewBorder(
		heading("Image list"),
		container.NewHBox(addBtn, urlBtn, removeBtn),
		nil,
		nil,
		w.list,
	)

	w.grid = container.NewGridWithColumns(colour.SwatchColumns)
	w.tooltip = widget.NewLabel("")
	w.tooltip.Alignment = fyne.TextAlignCenter

	w.preview = canvas.NewImageFromImage(nil)
	w.preview.FillMode = canvas.ImageFillContain
	w.preview.SetMinSize(fyne.NewSize(imgutil.PreviewWidth, imgutil.PreviewHeight))
	previewBox := container.NewStack(canvas.NewRectangle(previewBackground), w.preview)

	right := container.NewVBox(
		heading("Colour palette"),
		container.NewCenter(w.grid),
		w.tooltip,
		heading("Image preview"),
		container.NewCenter(previewBox),
		layout.NewSpacer(),
	)

	w.SetContent(container.NewGridWithColumns(2, left, right))
}

func heading(text string) *widget.Label {
	return widget.NewLabelWithStyle(text, fyne.TextAlignCenter, fyne.TextStyle{Bold: true})
}

func displayName(id string) string {
	if imgutil.IsURL(id) {
		return id
	}
	return filepath.Base(id)
}

func (w *Window) onAddFile() {
	fd := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, w.Window)
			return
		}
		if reader == nil {
			return
		}
		reader.Close()
		w.handlers.OnAdd(reader.URI().Path())
	}, w.Window)
	fd.SetFilter(storage.NewExtensionFileFilter(imgutil.SupportedImageExtensions()))
	fd.Show()
}

func (w *Window) onAddURL() {
	entry := widget.NewEntry()
	entry.SetPlaceHolder("https://example.com/image.png")
	dialog.ShowForm("Add image from URL", "Add", "Cancel",
		[]*widget.FormItem{widget.NewFormItem("URL", entry)},
		func(ok bool) {
			if ok && entry.Text != "" {
				w.handlers.OnAdd(entry.Text)
			}
		}, w.Window)
}

func (w *Window) onRemove() {
	w.mu.Lock()
	index := w.selected
	w.mu.Unlock()
	if index >= 0 {
		w.handlers.OnDelete(index)
	}
}

// ShowLibrary implements session.View.
func (w *Window) ShowLibrary(ids []string, selected int) {
	w.mu.Lock()
	w.ids = ids
	w.selected = selected
	w.syncing = true
	w.mu.Unlock()

	w.list.Refresh()
	if selected >= 0 {
		w.list.Select(selected)
	} else {
		w.list.UnselectAll()
	}

	w.mu.Lock()
	w.syncing = false
	w.mu.Unlock()
}

// ShowPalette implements session.View.
func (w *Window) ShowPalette(p *colour.Palette) {
	w.mu.Lock()
	w.palette = slices.Clone(p.Colours)
	clear(w.copied)
	w.mu.Unlock()

	objects := make([]fyne.CanvasObject, 0, p.Len())
	for i, c := range p.All() {
		s := newSwatch(i, c)
		s.onTap = w.handlers.OnSwatchClick
		s.onLeave = w.onSwatchLeave
		s.onHover = w.onSwatchHover
		objects = append(objects, s)
	}
	w.grid.Objects = objects
	w.grid.Refresh()
	w.tooltip.SetText("")
}

// ShowPreview implements session.View.
func (w *Window) ShowPreview(img image.Image) {
	w.preview.Image = img
	w.preview.Refresh()
}

// Reset implements session.View.
func (w *Window) Reset() {
	w.mu.Lock()
	w.palette = nil
	clear(w.copied)
	w.mu.Unlock()

	w.grid.Objects = nil
	w.grid.Refresh()
	w.tooltip.SetText("")
	w.ShowPreview(nil)
}

// ShowError implements session.View.
func (w *Window) ShowError(err error) {
	dialog.ShowError(err, w.Window)
}

// ShowCopied implements session.View.
func (w *Window) ShowCopied(index int, copied bool) {
	w.mu.Lock()
	if index < 0 || index >= len(w.palette) {
		w.mu.Unlock()
		return
	}
	w.copied[index] = copied
	text := session.SwatchTooltip(w.palette[index], w.format, copied)
	w.mu.Unlock()

	if copied {
		w.tooltip.SetText(text)
	} else {
		w.tooltip.SetText("")
	}
}

// Tooltip returns the tooltip text of the swatch at index.
func (w *Window) Tooltip(index int) string {
	w.mu.Lock()
	defer w.mu.Unlock()
	if index < 0 || index >= len(w.palette) {
		return ""
	}
	return session.SwatchTooltip(w.palette[index], w.format, w.copied[index])
}

func (w *Window) onSwatchHover(ev session.SwatchEvent) {
	w.tooltip.SetText(w.Tooltip(ev.Index))
}

func (w *Window) onSwatchLeave(ev session.SwatchEvent) {
	w.handlers.OnSwatchLeave(ev)
}
