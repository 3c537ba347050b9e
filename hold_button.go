package main

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

const holdTickInterval = 50 * time.Millisecond

// HoldButton is a button that must be held down for a configured duration
// before it confirms. A progress bar fills while the button is held;
// releasing or leaving the button resets it. Keeps a half-asleep user from
// dismissing an alarm with a stray click.
type HoldButton struct {
	widget.BaseWidget
	Text      string
	OnConfirm func()

	holdTime time.Duration

	mu       sync.Mutex
	holding  bool
	hovered  bool
	progress float64
	ticker   *time.Ticker
}

func NewHoldButton(text string, holdTime time.Duration, onConfirm func()) *HoldButton {
	b := &HoldButton{
		Text:      text,
		OnConfirm: onConfirm,
		holdTime:  holdTime,
	}
	b.ExtendBaseWidget(b)
	return b
}

func (b *HoldButton) CreateRenderer() fyne.WidgetRenderer {
	text := canvas.NewText(b.Text, theme.ForegroundColor())
	text.Alignment = fyne.TextAlignCenter

	bg := canvas.NewRectangle(theme.ButtonColor())
	progressBar := canvas.NewRectangle(theme.PrimaryColor())

	return &holdButtonRenderer{
		button:      b,
		text:        text,
		bg:          bg,
		progressBar: progressBar,
	}
}

// Tapped fires on release; the hold behavior lives in MouseDown/MouseUp.
func (b *HoldButton) Tapped(*fyne.PointEvent) {}

func (b *HoldButton) TappedSecondary(*fyne.PointEvent) {}

func (b *HoldButton) MouseIn(*desktop.MouseEvent) {
	b.mu.Lock()
	b.hovered = true
	b.mu.Unlock()
	b.Refresh()
}

func (b *HoldButton) MouseMoved(*desktop.MouseEvent) {}

func (b *HoldButton) MouseOut() {
	b.mu.Lock()
	b.hovered = false
	b.mu.Unlock()
	// Leaving the button counts as releasing it.
	b.release()
	b.Refresh()
}

func (b *HoldButton) MouseDown(*desktop.MouseEvent) {
	b.mu.Lock()
	if b.holding {
		b.mu.Unlock()
		return
	}
	b.holding = true
	b.progress = 0
	b.ticker = time.NewTicker(holdTickInterval)
	ticker := b.ticker
	b.mu.Unlock()
	b.Refresh()

	increment := float64(holdTickInterval) / float64(b.holdTime)
	go func() {
		for range ticker.C {
			b.mu.Lock()
			if !b.holding {
				b.mu.Unlock()
				return
			}
			b.progress += increment
			done := b.progress >= 1.0
			if done {
				b.holding = false
				ticker.Stop()
			}
			b.mu.Unlock()

			fyne.Do(func() { b.Refresh() })

			if done {
				if b.OnConfirm != nil {
					b.OnConfirm()
				}
				return
			}
		}
	}()
}

func (b *HoldButton) MouseUp(*desktop.MouseEvent) {
	b.release()
}

func (b *HoldButton) release() {
	b.mu.Lock()
	if b.ticker != nil {
		b.ticker.Stop()
	}
	b.holding = false
	b.progress = 0
	b.mu.Unlock()
	b.Refresh()
}

func (b *HoldButton) currentProgress() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.progress
}

func (b *HoldButton) isHovered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hovered
}

type holdButtonRenderer struct {
	button      *HoldButton
	text        *canvas.Text
	bg          *canvas.Rectangle
	progressBar *canvas.Rectangle
}

func (r *holdButtonRenderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	r.text.Resize(size)

	// Progress bar fills from left to right.
	progressWidth := size.Width * float32(r.button.currentProgress())
	r.progressBar.Resize(fyne.NewSize(progressWidth, size.Height))
	r.progressBar.Move(fyne.NewPos(0, 0))
}

func (r *holdButtonRenderer) MinSize() fyne.Size {
	textSize := r.text.MinSize()
	minWidth := textSize.Width + theme.Padding()*4
	minHeight := textSize.Height + theme.Padding()*2

	// Oversized on purpose; this is aimed at someone who just woke up.
	if minWidth < 300 {
		minWidth = 300
	}
	if minHeight < 80 {
		minHeight = 80
	}

	return fyne.NewSize(minWidth, minHeight)
}

func (r *holdButtonRenderer) Refresh() {
	r.text.Text = r.button.Text
	r.text.Color = theme.ForegroundColor()

	if r.button.isHovered() {
		r.bg.FillColor = theme.HoverColor()
	} else {
		r.bg.FillColor = theme.ButtonColor()
	}

	size := r.bg.Size()
	progressWidth := size.Width * float32(r.button.currentProgress())
	r.progressBar.Resize(fyne.NewSize(progressWidth, size.Height))

	r.bg.Refresh()
	r.progressBar.Refresh()
	r.text.Refresh()
}

func (r *holdButtonRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.bg, r.progressBar, r.text}
}

func (r *holdButtonRenderer) Destroy() {}

func (r *holdButtonRenderer) BackgroundColor() color.Color {
	return theme.ButtonColor()
}
