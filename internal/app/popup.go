package app

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const maxPopupInput = 4096

// lineEditor is the single-line buffer behind the popup.
type lineEditor struct {
	buf []rune
	pos int
}

func newLineEditor(initial string) *lineEditor {
	buf := []rune(initial)
	return &lineEditor{buf: buf, pos: len(buf)}
}

func (e *lineEditor) String() string { return string(e.buf) }

// key applies ev to the buffer. done reports that editing ended, ok whether
// it ended with Enter.
func (e *lineEditor) key(ev *tcell.EventKey) (done, ok bool) {
	switch ev.Key() {
	case tcell.KeyEsc:
		return true, false
	case tcell.KeyEnter:
		return true, true
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if e.pos > 0 {
			e.buf = append(e.buf[:e.pos-1], e.buf[e.pos:]...)
			e.pos--
		}
	case tcell.KeyDelete:
		if e.pos < len(e.buf) {
			e.buf = append(e.buf[:e.pos], e.buf[e.pos+1:]...)
		}
	case tcell.KeyLeft:
		e.pos = max(0, e.pos-1)
	case tcell.KeyRight:
		e.pos = min(len(e.buf), e.pos+1)
	case tcell.KeyHome, tcell.KeyCtrlA:
		e.pos = 0
	case tcell.KeyEnd, tcell.KeyCtrlE:
		e.pos = len(e.buf)
	case tcell.KeyCtrlU:
		e.buf, e.pos = e.buf[:0], 0
	case tcell.KeyRune:
		if len(e.buf) >= maxPopupInput {
			break
		}
		e.buf = append(e.buf, 0)
		copy(e.buf[e.pos+1:], e.buf[e.pos:])
		e.buf[e.pos] = ev.Rune()
		e.pos++
	}
	return false, false
}

// visible returns the part of the buffer fitting in width cells and the
// cursor offset within it.
func (e *lineEditor) visible(width int) (string, int) {
	start := 0
	if e.pos > width {
		start = e.pos - width
	}
	end := min(len(e.buf), start+width)
	return string(e.buf[start:end]), e.pos - start
}

// PopupInput shows a modal one-line input box over the sheet, pre-filled
// with initial. It returns the entered text and true on Enter, or "" and
// false on Esc or when the screen is finalized.
func (a *App) PopupInput(s tcell.Screen, prompt, initial string) (string, bool) {
	style := tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorReset)
	ed := newLineEditor(initial)
	promptW := runewidth.StringWidth(prompt)

	const boxH = 3
	var boxW, left, top int
	layout := func() {
		w, h := s.Size()
		boxW = min(max(40, promptW+len(ed.buf)+6), w-4)
		left, top = (w-boxW)/2, (h-boxH)/2
	}

	redraw := func() {
		a.Draw(s)
		for y := top; y < top+boxH; y++ {
			a.printTextFixedWidth(s, left, y, "", style, boxW)
		}
		drawBorder(s, left, top, boxW, boxH, style)

		x, y := left+2, top+1
		if prompt != "" {
			a.printTextFixedWidth(s, x, y, prompt, style, promptW)
			x += promptW + 1
		}
		field := max(1, left+boxW-2-x)
		text, cur := ed.visible(field)
		a.printTextFixedWidth(s, x, y, text, style, field)
		s.ShowCursor(x+cur, y)
		s.Show()
	}

	layout()
	redraw()
	for {
		switch ev := s.PollEvent().(type) {
		case nil:
			return "", false
		case *tcell.EventKey:
			if done, ok := ed.key(ev); done {
				s.HideCursor()
				if !ok {
					return "", false
				}
				return ed.String(), true
			}
			redraw()
		case *tcell.EventResize:
			s.Sync()
			layout()
			redraw()
		}
	}
}
