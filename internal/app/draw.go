package app

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"sheets/internal/calc"
	"sheets/internal/grid"
)

const helpText = "\n i / Enter - edit \n Ctrl+Enter - commit & stay \n Shift/Alt+Enter - newline \n Del - clear cell \n : - command \n = - formula \n Ctrl←/Ctrl→ - col width \n Ctrl↑/Ctrl↓ - row height \n F2/F3 - insert row/col \n F4/F5 - delete row/col \n PgUp/PgDn/Home/End - move \n :w [id] | :o id | :ls \n :export file.csv | :import file.csv \n :cw N | :rh N | :q \n"

// helpContent is the key list followed by the formula functions.
func helpContent() string {
	return helpText + " functions: " + strings.Join(calc.Functions(), " ") + " \n"
}

// ----------------------------- Drawing -----------------------------

func (a *App) Draw(s tcell.Screen) {
	s.Clear()
	w, h := s.Size()

	a.drawHeader(s, w)

	y := 1
	for r := a.ViewRow; r < len(a.RowHeights); r++ {
		if y >= h-a.StatusLines {
			break
		}
		gutterStyle := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if r == a.CurRow {
			gutterStyle = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
		}
		a.printTextFixedWidth(s, 0, y, fmt.Sprintf("%d", r+1), gutterStyle, a.LeftGutter-1)

		x := a.LeftGutter
		hh := a.RowHeights[r]
		for c := a.ViewCol; c < len(a.ColWidths) && x < w; c++ {
			a.drawCell(s, x, y, r, c, min(hh, h-a.StatusLines-y))
			x += a.ColWidths[c]
		}
		y += hh
	}

	a.drawStatus(s, w, h)

	if a.HelpVisible {
		a.drawHelpPopup(s, helpContent())
	}

	if a.Mode == ModeInsert {
		a.drawEditCursor(s, w, h)
	} else {
		s.HideCursor()
	}

	s.Show()
}

func (a *App) drawHeader(s tcell.Screen, w int) {
	x := a.LeftGutter
	for c := a.ViewCol; c < len(a.ColWidths) && x < w; c++ {
		wc := a.ColWidths[c]
		style := tcell.StyleDefault.Foreground(tcell.ColorYellow)
		if c == a.CurCol {
			style = tcell.StyleDefault.Foreground(tcell.ColorBlack).Background(tcell.ColorYellow)
			a.printTextFixedWidth(s, x, 0, "", style, wc)
		}
		a.printPadded(s, x, 0, grid.ColToName(c), style, wc)
		x += wc
	}
}

func (a *App) drawCell(s tcell.Screen, x, y, r, c, rows int) {
	wc := a.ColWidths[c]
	selected := r == a.CurRow && c == a.CurCol

	text := a.GetDisplayText(r, c)
	if a.Mode == ModeInsert && selected {
		text = a.InputBuf
	}

	style := tcell.StyleDefault
	switch {
	case selected:
		style = style.Foreground(tcell.ColorBlack).Background(tcell.ColorLightGray)
	case text == calc.DisplayError || text == calc.DisplayUnknownFunction:
		style = style.Foreground(tcell.ColorRed)
	}

	lines := a.splitLines(text, rows)
	for dy := 0; dy < rows; dy++ {
		a.printPadded(s, x, y+dy, lines[dy], style, wc)
	}
}

func (a *App) drawStatus(s tcell.Screen, w, h int) {
	statusY := max(0, h-a.StatusLines)
	style := tcell.StyleDefault.Background(tcell.ColorGray).Foreground(tcell.ColorWhite)

	left := fmt.Sprintf("Mode:%s  Cell:%s  Sheet:%s  Cells:%d  cw=%d rh=%d",
		a.Mode, a.cursor(), a.Sheet.ID(), a.Sheet.Len(), a.ColWidths[a.CurCol], a.RowHeights[a.CurRow])
	a.printTextFixedWidth(s, 0, statusY, left, style, w)

	line := a.Message
	if a.Mode == ModeInsert {
		line = "EDIT: " + a.InputBuf
	}
	a.printTextFixedWidth(s, 0, statusY+1, line, style, w)
}

// drawEditCursor marks the end of the edit buffer inside the current cell.
func (a *App) drawEditCursor(s tcell.Screen, w, h int) {
	if a.CurCol < a.ViewCol || a.CurRow < a.ViewRow {
		s.HideCursor()
		return
	}
	cellX := a.LeftGutter
	for cc := a.ViewCol; cc < a.CurCol; cc++ {
		cellX += a.ColWidths[cc]
	}
	cellY := 1
	for rr := a.ViewRow; rr < a.CurRow; rr++ {
		cellY += a.RowHeights[rr]
	}

	lines := strings.Split(a.InputBuf, "\n")
	last := len(lines) - 1
	innerW := max(1, a.ColWidths[a.CurCol]-2*a.CellPadding)
	cx := cellX + a.CellPadding + min(runewidth.StringWidth(lines[last]), innerW-1)
	cy := cellY + min(last, a.RowHeights[a.CurRow]-1)
	if cx >= w || cy >= h-a.StatusLines {
		s.HideCursor()
		return
	}
	s.SetContent(cx, cy, '▏', nil, tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorLightGray))
}

// GetDisplayText returns what the cell shows: its raw text, or the value a
// formula left behind.
func (a *App) GetDisplayText(r, c int) string {
	return a.Sheet.Get(grid.Address{Row: r, Col: c})
}

// ----------------------------- Helpers -----------------------------

// printPadded prints str inside a cell of width wc, leaving CellPadding
// columns on each side when the cell is wide enough.
func (a *App) printPadded(s tcell.Screen, x, y int, str string, style tcell.Style, wc int) {
	innerW := wc - 2*a.CellPadding
	if innerW <= 0 {
		a.printTextFixedWidth(s, x, y, str, style, wc)
		return
	}
	a.printTextFixedWidth(s, x, y, "", style, a.CellPadding)
	a.printTextFixedWidth(s, x+a.CellPadding, y, str, style, innerW)
	a.printTextFixedWidth(s, x+a.CellPadding+innerW, y, "", style, a.CellPadding)
}

// printTextFixedWidth fills exactly width terminal columns starting at x,
// clipping str by display width and padding with spaces.
func (a *App) printTextFixedWidth(s tcell.Screen, x, y int, str string, style tcell.Style, width int) {
	if y < 0 {
		return
	}
	used := 0
	for _, ch := range str {
		rw := runewidth.RuneWidth(ch)
		if ch == '\t' || ch == '\n' {
			ch, rw = ' ', 1
		}
		if rw == 0 {
			continue
		}
		if used+rw > width {
			break
		}
		s.SetContent(x+used, y, ch, nil, style)
		used += rw
	}
	for ; used < width; used++ {
		s.SetContent(x+used, y, ' ', nil, style)
	}
}

func (a *App) splitLines(text string, maxLines int) []string {
	if maxLines <= 0 {
		return []string{}
	}
	out := make([]string, maxLines)
	copy(out, strings.Split(text, "\n"))
	return out
}

func (a *App) drawHelpPopup(s tcell.Screen, help string) {
	w, h := s.Size()
	if w < 10 || h < 5 {
		return
	}

	padding := 2
	maxPW := w - 6
	maxPH := h - 4

	innerW := min(maxPW-padding*2, 50)
	if innerW < 30 {
		innerW = min(30, maxPW-padding*2)
	}

	lines := wrapText(help, innerW)
	if limit := maxPH - padding*2; limit > 0 && len(lines) > limit {
		lines = lines[:limit]
	}
	innerH := max(len(lines), 3)

	pw := innerW + padding*2
	ph := innerH + padding*2
	left := (w - pw) / 2
	top := (h - ph) / 2

	borderStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)
	bgStyle := tcell.StyleDefault.Foreground(tcell.ColorWhite)

	for yy := 0; yy < ph; yy++ {
		a.printTextFixedWidth(s, left, top+yy, "", bgStyle, pw)
	}
	drawBorder(s, left, top, pw, ph, borderStyle)

	for i, ln := range lines {
		a.printTextFixedWidth(s, left+padding, top+padding+i, ln, bgStyle, innerW)
	}
}

func drawBorder(s tcell.Screen, left, top, width, height int, style tcell.Style) {
	right, bottom := left+width-1, top+height-1
	for x := left + 1; x < right; x++ {
		s.SetContent(x, top, tcell.RuneHLine, nil, style)
		s.SetContent(x, bottom, tcell.RuneHLine, nil, style)
	}
	for y := top + 1; y < bottom; y++ {
		s.SetContent(left, y, tcell.RuneVLine, nil, style)
		s.SetContent(right, y, tcell.RuneVLine, nil, style)
	}
	s.SetContent(left, top, tcell.RuneULCorner, nil, style)
	s.SetContent(right, top, tcell.RuneURCorner, nil, style)
	s.SetContent(left, bottom, tcell.RuneLLCorner, nil, style)
	s.SetContent(right, bottom, tcell.RuneLRCorner, nil, style)
}

// wrapText breaks each line of s into lines of at most max display columns.
// Words longer than a line are split.
func wrapText(s string, max int) []string {
	if max <= 2 {
		return []string{s}
	}

	var result []string
	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			continue
		}
		cur := ""
		for _, w := range words {
			for runewidth.StringWidth(w) > max {
				if cur != "" {
					result = append(result, cur)
					cur = ""
				}
				head := runewidth.Truncate(w, max, "")
				result = append(result, head)
				w = w[len(head):]
			}
			switch {
			case cur == "":
				cur = w
			case runewidth.StringWidth(cur)+1+runewidth.StringWidth(w) <= max:
				cur += " " + w
			default:
				result = append(result, cur)
				cur = w
			}
		}
		if cur != "" {
			result = append(result, cur)
		}
	}
	return result
}

// ----------------------------- Viewport / Geometry -----------------------------

// ComputeVisible returns how many rows and columns fit on screen from the
// current view origin, at least one of each.
func (a *App) ComputeVisible(s tcell.Screen) (visibleRows, visibleCols int) {
	w, h := s.Size()
	usableW := max(1, w-a.LeftGutter)
	usableH := max(1, h-a.StatusLines-1)

	sumW := 0
	for c := a.ViewCol; c < len(a.ColWidths); c++ {
		if sumW+a.ColWidths[c] > usableW {
			break
		}
		sumW += a.ColWidths[c]
		visibleCols++
	}

	sumH := 0
	for r := a.ViewRow; r < len(a.RowHeights); r++ {
		if sumH+a.RowHeights[r] > usableH {
			break
		}
		sumH += a.RowHeights[r]
		visibleRows++
	}

	return max(1, visibleRows), max(1, visibleCols)
}

// EnsureCursorVisible scrolls the view so the cursor cell is on screen.
func (a *App) EnsureCursorVisible(s tcell.Screen) {
	if s == nil {
		return
	}
	visibleRows, visibleCols := a.ComputeVisible(s)

	if a.CurCol < a.ViewCol {
		a.ViewCol = a.CurCol
	} else if a.CurCol >= a.ViewCol+visibleCols {
		a.ViewCol = a.CurCol - visibleCols + 1
	}
	a.ViewCol = min(max(a.ViewCol, 0), max(0, len(a.ColWidths)-1))

	if a.CurRow < a.ViewRow {
		a.ViewRow = a.CurRow
	} else if a.CurRow >= a.ViewRow+visibleRows {
		a.ViewRow = a.CurRow - visibleRows + 1
	}
	a.ViewRow = min(max(a.ViewRow, 0), max(0, len(a.RowHeights)-1))
}
