package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/gdamore/tcell/v2"

	"sheets/internal/grid"
	"sheets/internal/sheet"
	"sheets/internal/storage"
)

const (
	ModeNormal = "normal"
	ModeInsert = "insert"
)

type App struct {
	// layout
	LeftGutter    int
	StatusLines   int
	DefaultWidth  int
	DefaultHeight int

	CellPadding int

	ColWidths  []int
	RowHeights []int

	// data
	Sheet *sheet.Sheet
	Store storage.Store
	Log   *slog.Logger

	// cursor / view
	CurRow  int
	CurCol  int
	ViewRow int
	ViewCol int

	// UI state
	Mode     string
	InputBuf string
	Message  string
	Quit     bool

	// editing behavior options
	EnterStartsEdit     bool
	PrintableStartsEdit bool
	MoveAfterEnter      bool
	SelectAllOnEdit     bool
	ReplaceOnNextRune   bool

	HelpVisible bool

	ctx context.Context
}

// NewApp returns an editor over sh. store backs the w and o commands and
// may be nil.
func NewApp(sh *sheet.Sheet, store storage.Store, log *slog.Logger) *App {
	if log == nil {
		log = slog.Default()
	}
	a := &App{
		LeftGutter:      4,
		StatusLines:     2,
		DefaultWidth:    16,
		DefaultHeight:   1,
		CellPadding:     1,
		Sheet:           sh,
		Store:           store,
		Log:             log,
		Mode:            ModeNormal,
		EnterStartsEdit: true,
		MoveAfterEnter:  true,
		SelectAllOnEdit: true,
		ctx:             context.Background(),
	}
	for i := 0; i < 8; i++ {
		a.ColWidths = append(a.ColWidths, a.DefaultWidth)
		a.RowHeights = append(a.RowHeights, a.DefaultHeight)
	}
	a.fitToSheet()
	return a
}

// Run draws the sheet and handles events until the user quits or ctx is done.
func (a *App) Run(ctx context.Context, s tcell.Screen) error {
	a.ctx = ctx
	s.EnableMouse()
	s.Clear()

	for !a.Quit {
		if err := ctx.Err(); err != nil {
			return err
		}
		a.EnsureCursorVisible(s)
		a.Draw(s)
		ev := s.PollEvent()
		switch tev := ev.(type) {
		case nil:
			// screen finalized
			return nil
		case *tcell.EventKey:
			a.HandleKeyEvent(s, tev)
		case *tcell.EventResize:
			s.Sync()
		}
	}
	return nil
}

// ----------------------------- Events / Input -----------------------------

func (a *App) HandleKeyEvent(s tcell.Screen, ev *tcell.EventKey) {
	if a.Mode == ModeInsert {
		a.handleInsertKey(ev)
		return
	}

	if a.HelpVisible {
		if ev.Key() == tcell.KeyEsc || ev.Rune() == '?' {
			a.HelpVisible = false
		}
		return
	}

	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
		a.Message = ""
	case tcell.KeyCtrlC:
		a.Quit = true
	case tcell.KeyUp:
		if mod&tcell.ModCtrl != 0 {
			if a.RowHeights[a.CurRow] > 1 {
				a.RowHeights[a.CurRow]--
			}
		} else if a.CurRow > 0 {
			a.CurRow--
		}
	case tcell.KeyDown:
		if mod&tcell.ModCtrl != 0 {
			a.RowHeights[a.CurRow]++
		} else {
			a.CurRow++
			a.EnsureRowExists(a.CurRow)
		}
	case tcell.KeyLeft:
		if mod&tcell.ModCtrl != 0 {
			if a.ColWidths[a.CurCol] > 4 {
				a.ColWidths[a.CurCol]--
			}
		} else if a.CurCol > 0 {
			a.CurCol--
		}
	case tcell.KeyRight:
		if mod&tcell.ModCtrl != 0 {
			a.ColWidths[a.CurCol]++
		} else if a.CurCol < grid.MaxCol {
			a.CurCol++
			a.EnsureColExists(a.CurCol)
		}
	case tcell.KeyPgUp:
		vr, _ := a.ComputeVisible(s)
		a.CurRow = max(0, a.CurRow-vr)
		a.ViewRow = max(0, a.ViewRow-vr)
	case tcell.KeyPgDn:
		vr, _ := a.ComputeVisible(s)
		a.CurRow += vr
		a.EnsureRowExists(a.CurRow)
	case tcell.KeyHome:
		a.CurRow, a.CurCol = 0, 0
	case tcell.KeyEnd:
		maxRow, maxCol := a.Sheet.Snapshot().Bounds()
		a.CurRow, a.CurCol = max(0, maxRow), max(0, maxCol)
	case tcell.KeyF2:
		a.InsertRow(a.CurRow + 1)
	case tcell.KeyF3:
		a.InsertCol(a.CurCol + 1)
	case tcell.KeyF4:
		a.DeleteRow(a.CurRow)
	case tcell.KeyF5:
		a.DeleteCol(a.CurCol)
	case tcell.KeyDelete:
		a.SetCellValue("")
	case tcell.KeyEnter:
		if a.EnterStartsEdit {
			a.startEdit()
		}
	case tcell.KeyRune:
		a.handleNormalRune(s, ev.Rune())
	}
}

func (a *App) handleInsertKey(ev *tcell.EventKey) {
	mod := ev.Modifiers()
	switch ev.Key() {
	case tcell.KeyEsc:
		a.Mode = ModeNormal
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
	case tcell.KeyEnter:
		// Shift+Enter or Alt+Enter inserts a newline
		if mod&tcell.ModShift != 0 || mod&tcell.ModAlt != 0 {
			a.InputBuf += "\n"
			return
		}
		a.SetCellValue(a.InputBuf)
		a.Mode = ModeNormal
		a.InputBuf = ""
		a.ReplaceOnNextRune = false
		if mod&tcell.ModCtrl == 0 && a.MoveAfterEnter {
			a.CurRow++
			a.EnsureRowExists(a.CurRow)
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if a.ReplaceOnNextRune {
			a.InputBuf = ""
		} else if runes := []rune(a.InputBuf); len(runes) > 0 {
			a.InputBuf = string(runes[:len(runes)-1])
		}
		a.ReplaceOnNextRune = false
	case tcell.KeyRune:
		r := ev.Rune()
		if a.ReplaceOnNextRune {
			a.InputBuf = string(r)
			a.ReplaceOnNextRune = false
		} else {
			a.InputBuf += string(r)
		}
	}
}

func (a *App) handleNormalRune(s tcell.Screen, r rune) {
	switch r {
	case 'q':
		a.Quit = true
	case 'i':
		a.startEdit()
	case ':':
		if command, ok := a.PopupInput(s, ":", ""); ok {
			a.ExecuteCommand(command)
		}
	case '=':
		if value, ok := a.PopupInput(s, "", "="); ok {
			a.SetCellValue(value)
		}
	case '?':
		a.HelpVisible = true
	default:
		if a.PrintableStartsEdit {
			a.Mode = ModeInsert
			a.InputBuf = string(r)
			a.ReplaceOnNextRune = false
		}
	}
}

func (a *App) startEdit() {
	a.Mode = ModeInsert
	a.InputBuf = a.Sheet.Get(a.cursor())
	a.ReplaceOnNextRune = a.SelectAllOnEdit
}

func (a *App) cursor() grid.Address {
	return grid.Address{Row: a.CurRow, Col: a.CurCol}
}

// SetCellValue commits text into the current cell; every formula in the
// sheet is recomputed.
func (a *App) SetCellValue(value string) {
	a.EnsureColExists(a.CurCol)
	a.EnsureRowExists(a.CurRow)
	changed := a.Sheet.Set(a.cursor(), value)
	a.Message = ""
	a.fitToSheet()
	a.Log.Debug("cell committed", "cell", a.cursor().String(), "changed", len(changed))
}

// ----------------------------- Structure -----------------------------

// InsertRow shifts rows at and below idx down by one.
func (a *App) InsertRow(idx int) {
	idx = min(max(idx, 0), len(a.RowHeights))
	a.RowHeights = append(a.RowHeights[:idx], append([]int{a.DefaultHeight}, a.RowHeights[idx:]...)...)
	a.moveCells(func(p grid.Address) (grid.Address, bool) {
		if p.Row >= idx {
			p.Row++
		}
		return p, true
	})
}

// InsertCol shifts columns at and right of idx by one; cells pushed past
// the last addressable column are dropped.
func (a *App) InsertCol(idx int) {
	if idx > grid.MaxCol {
		return
	}
	idx = min(max(idx, 0), len(a.ColWidths))
	a.ColWidths = append(a.ColWidths[:idx], append([]int{a.DefaultWidth}, a.ColWidths[idx:]...)...)
	if len(a.ColWidths) > grid.MaxCol+1 {
		a.ColWidths = a.ColWidths[:grid.MaxCol+1]
	}
	a.moveCells(func(p grid.Address) (grid.Address, bool) {
		if p.Col >= idx {
			p.Col++
		}
		return p, p.Col <= grid.MaxCol
	})
}

func (a *App) DeleteRow(idx int) {
	if idx < 0 || idx >= len(a.RowHeights) {
		return
	}
	a.RowHeights = append(a.RowHeights[:idx], a.RowHeights[idx+1:]...)
	a.moveCells(func(p grid.Address) (grid.Address, bool) {
		switch {
		case p.Row == idx:
			return p, false
		case p.Row > idx:
			p.Row--
		}
		return p, true
	})
	a.EnsureRowExists(0)
	a.CurRow = min(a.CurRow, len(a.RowHeights)-1)
}

func (a *App) DeleteCol(idx int) {
	if idx < 0 || idx >= len(a.ColWidths) {
		return
	}
	a.ColWidths = append(a.ColWidths[:idx], a.ColWidths[idx+1:]...)
	a.moveCells(func(p grid.Address) (grid.Address, bool) {
		switch {
		case p.Col == idx:
			return p, false
		case p.Col > idx:
			p.Col--
		}
		return p, true
	})
	a.EnsureColExists(0)
	a.CurCol = min(a.CurCol, len(a.ColWidths)-1)
}

// moveCells rebuilds the sheet with every cell relocated by move; cells for
// which move reports false are dropped.
func (a *App) moveCells(move func(grid.Address) (grid.Address, bool)) {
	moved := grid.Snapshot{}
	for key, text := range a.Sheet.Snapshot() {
		p, err := grid.ParseKey(key)
		if err != nil {
			moved[key] = text
			continue
		}
		if to, keep := move(p); keep {
			moved[to.Key()] = text
		}
	}
	a.Sheet.Replace(moved)
}

func (a *App) EnsureColExists(idx int) {
	idx = min(idx, grid.MaxCol)
	for len(a.ColWidths) <= idx {
		a.ColWidths = append(a.ColWidths, a.DefaultWidth)
	}
}

func (a *App) EnsureRowExists(idx int) {
	for len(a.RowHeights) <= idx {
		a.RowHeights = append(a.RowHeights, a.DefaultHeight)
	}
}

// fitToSheet grows the layout to cover every cell of the sheet.
func (a *App) fitToSheet() {
	maxRow, maxCol := a.Sheet.Snapshot().Bounds()
	a.EnsureRowExists(maxRow)
	a.EnsureColExists(maxCol)
}

// ----------------------------- Commands / Storage -----------------------------

// ExecuteCommand runs a ":" command line. The outcome is reported in Message.
func (a *App) ExecuteCommand(cmd string) {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return
	}

	var err error
	switch parts[0] {
	case "q", "quit":
		a.Quit = true
	case "cw":
		err = a.setAll(parts, a.ColWidths, 4)
	case "rh":
		err = a.setAll(parts, a.RowHeights, 1)
	case "w":
		err = a.save(parts[1:])
	case "o":
		err = a.open(parts[1:])
	case "ls":
		err = a.list()
	case "export":
		err = a.exportCSV(parts[1:])
	case "import":
		err = a.importCSV(parts[1:])
	default:
		err = fmt.Errorf("unknown command: %s", parts[0])
	}

	if err != nil {
		a.Message = "error: " + err.Error()
		a.Log.Warn("command failed", "command", cmd, "error", err)
	}
}

func (a *App) setAll(parts []string, sizes []int, minimum int) error {
	if len(parts) < 2 {
		return fmt.Errorf("usage: %s N", parts[0])
	}
	v, err := strconv.Atoi(parts[1])
	if err != nil || v < minimum {
		return fmt.Errorf("%s: want a number >= %d, got %q", parts[0], minimum, parts[1])
	}
	for i := range sizes {
		sizes[i] = v
	}
	return nil
}

func (a *App) save(args []string) error {
	if a.Store == nil {
		return sheet.ErrNoStore
	}
	var err error
	if len(args) > 0 {
		err = a.Sheet.SaveAs(a.ctx, args[0])
	} else {
		err = a.Sheet.Save(a.ctx)
	}
	if err != nil {
		return err
	}
	a.Message = "saved " + a.Sheet.ID()
	a.Log.Info("sheet saved", "sheet", a.Sheet.ID(), "cells", a.Sheet.Len())
	return nil
}

func (a *App) open(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: o ID")
	}
	if a.Store == nil {
		return sheet.ErrNoStore
	}
	sh, err := sheet.Open(a.ctx, args[0], a.Store)
	if err != nil {
		return err
	}
	sh.SetLogger(a.Log)
	a.Sheet = sh
	a.CurRow, a.CurCol, a.ViewRow, a.ViewCol = 0, 0, 0, 0
	a.fitToSheet()
	a.Message = "opened " + sh.ID()
	return nil
}

func (a *App) list() error {
	lister, ok := a.Store.(storage.Lister)
	if !ok {
		return errors.New("store cannot list sheets")
	}
	ids, err := lister.IDs()
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		a.Message = "no saved sheets"
		return nil
	}
	a.Message = "sheets: " + strings.Join(ids, ", ")
	return nil
}

func (a *App) exportCSV(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: export FILE.csv")
	}
	if err := storage.SaveCSV(a.Sheet.Snapshot(), args[0]); err != nil {
		return err
	}
	a.Message = "exported " + args[0]
	return nil
}

func (a *App) importCSV(args []string) error {
	if len(args) == 0 {
		return errors.New("usage: import FILE.csv")
	}
	snap, err := storage.LoadCSV(args[0])
	if err != nil {
		return err
	}
	a.Sheet.Replace(snap)
	a.Sheet.Recompute()
	a.CurRow, a.CurCol, a.ViewRow, a.ViewCol = 0, 0, 0, 0
	a.fitToSheet()
	a.Message = fmt.Sprintf("imported %s (%d cells)", args[0], a.Sheet.Len())
	return nil
}
