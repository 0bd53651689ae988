package ui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/chrisuehlinger/multiselect/dom"
)

var highlightStyle = widget.RichTextStyle{
	ColorName: theme.ColorNamePrimary,
	Inline:    true,
	SizeName:  theme.SizeNameText,
	TextStyle: fyne.TextStyle{Bold: true},
}

// blockView draws one block and turns presses and releases over it into
// character offsets.
type blockView struct {
	widget.BaseWidget
	viewer *Viewer
	el     *dom.Element
	text   *widget.RichText
	plain  []rune
	anchor int
	focus  int
}

var (
	_ desktop.Mouseable = (*blockView)(nil)
	_ fyne.Draggable    = (*blockView)(nil)
)

func newBlockView(v *Viewer) *blockView {
	b := &blockView{viewer: v, text: widget.NewRichText()}
	b.ExtendBaseWidget(b)
	return b
}

func (b *blockView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(b.text)
}

func (b *blockView) set(block Block) {
	b.el = block.Element
	b.plain = []rune(block.Text())
	segs := make([]widget.RichTextSegment, 0, len(block.Segments))
	for _, s := range block.Segments {
		style := widget.RichTextStyleInline
		if s.Highlighted {
			style = highlightStyle
		}
		segs = append(segs, &widget.TextSegment{Text: s.Text, Style: style})
	}
	b.text.Segments = segs
	b.text.Refresh()
}

func (b *blockView) MouseDown(ev *desktop.MouseEvent) {
	b.anchor = b.offsetAt(ev.Position.X)
	b.focus = b.anchor
}

func (b *blockView) MouseUp(ev *desktop.MouseEvent) {
	b.focus = b.offsetAt(ev.Position.X)
	b.viewer.release(b.el, b.anchor, b.focus, ev.Button)
}

func (b *blockView) Dragged(ev *fyne.DragEvent) {
	b.focus = b.offsetAt(ev.Position.X)
}

func (b *blockView) DragEnd() {}

// offsetAt returns the character offset closest to x.
func (b *blockView) offsetAt(x float32) int {
	return offsetAt(b.plain, x-theme.InnerPadding(), func(s string) float32 {
		return fyne.MeasureText(s, theme.TextSize(), fyne.TextStyle{}).Width
	})
}

// offsetAt finds the rune boundary in text nearest to x, given a function
// that measures the width of a prefix.
func offsetAt(text []rune, x float32, measure func(string) float32) int {
	if x <= 0 {
		return 0
	}
	prev := float32(0)
	for i := 1; i <= len(text); i++ {
		w := measure(string(text[:i]))
		if w >= x {
			if x-prev < w-x {
				return i - 1
			}
			return i
		}
		prev = w
	}
	return len(text)
}

// backdrop receives releases that land between blocks.
type backdrop struct {
	widget.BaseWidget
	viewer *Viewer
}

func newBackdrop(v *Viewer) *backdrop {
	b := &backdrop{viewer: v}
	b.ExtendBaseWidget(b)
	return b
}

func (b *backdrop) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(widget.NewLabel(""))
}

func (b *backdrop) MouseDown(*desktop.MouseEvent) {}

func (b *backdrop) MouseUp(ev *desktop.MouseEvent) {
	b.viewer.release(nil, 0, 0, ev.Button)
}
