package gui

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"github.com/jmylchreest/colorhunter/internal/colour"
	"github.com/jmylchreest/colorhunter/internal/session"
)

const swatchSize = 42

// swatch is a round, clickable palette entry.
type swatch struct {
	widget.BaseWidget

	event  session.SwatchEvent
	circle *canvas.Circle

	onTap   func(session.SwatchEvent)
	onLeave func(session.SwatchEvent)
	onHover func(session.SwatchEvent)
}

var (
	_ fyne.Tappable     = (*swatch)(nil)
	_ desktop.Hoverable = (*swatch)(nil)
)

func newSwatch(index int, c colour.RGB) *swatch {
	s := &swatch{
		event:  session.SwatchEvent{Index: index, Colour: c},
		circle: canvas.NewCircle(color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}),
	}
	s.circle.StrokeColor = color.NRGBA{A: 0x40}
	s.circle.StrokeWidth = 1
	s.ExtendBaseWidget(s)
	return s
}

func (s *swatch) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.circle)
}

func (s *swatch) MinSize() fyne.Size {
	return fyne.NewSize(swatchSize, swatchSize)
}

// Tapped copies the colour.
func (s *swatch) Tapped(*fyne.PointEvent) {
	if s.onTap != nil {
		s.onTap(s.event)
	}
}

// MouseIn shows the tooltip.
func (s *swatch) MouseIn(*desktop.MouseEvent) {
	if s.onHover != nil {
		s.onHover(s.event)
	}
}

// MouseMoved is required by desktop.Hoverable.
func (s *swatch) MouseMoved(*desktop.MouseEvent) {}

// MouseOut clears the copied marker.
func (s *swatch) MouseOut() {
	if s.onLeave != nil {
		s.onLeave(s.event)
	}
}
