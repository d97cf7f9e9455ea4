package app

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sheets/internal/calc"
	"sheets/internal/grid"
	"sheets/internal/sheet"
	"sheets/internal/storage"
)

func newTestScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	s := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, s.Init())
	s.SetSize(100, 30)
	t.Cleanup(s.Fini)
	return s
}

func newTestApp(store storage.Store) *App {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewApp(sheet.New("test", store), store, log)
}

func press(a *App, s tcell.Screen, keys ...tcell.Key) {
	for _, k := range keys {
		a.HandleKeyEvent(s, tcell.NewEventKey(k, 0, tcell.ModNone))
	}
}

func typeText(a *App, s tcell.Screen, text string) {
	for _, r := range text {
		a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone))
	}
}

func screenText(s tcell.Screen, x, y, width int) string {
	var b strings.Builder
	for i := 0; i < width; i++ {
		r, _, _, _ := s.GetContent(x+i, y)
		b.WriteRune(r)
	}
	return strings.TrimRight(b.String(), " ")
}

func cell(a *App, text string) string {
	addr, err := grid.ParseAddress(text)
	if err != nil {
		panic(err)
	}
	return a.Sheet.Get(addr)
}

func TestApp_Edit(t *testing.T) {
	s := newTestScreen(t)

	t.Run("commit_recomputes", func(t *testing.T) {
		a := newTestApp(nil)

		typeText(a, s, "i")
		assert.Equal(t, ModeInsert, a.Mode)
		typeText(a, s, "5")
		press(a, s, tcell.KeyEnter)

		assert.Equal(t, ModeNormal, a.Mode)
		assert.Equal(t, "5", cell(a, "A1"))
		assert.Equal(t, 1, a.CurRow)

		press(a, s, tcell.KeyEnter)
		typeText(a, s, "=SUM(A1:A1)")
		press(a, s, tcell.KeyEnter)
		assert.Equal(t, "5", cell(a, "A2"))
		assert.Equal(t, 2, a.CurRow)
	})

	t.Run("edit_replaces_on_first_rune", func(t *testing.T) {
		a := newTestApp(nil)
		a.SetCellValue("old")

		typeText(a, s, "i")
		assert.Equal(t, "old", a.InputBuf)
		typeText(a, s, "ne")
		press(a, s, tcell.KeyBackspace2)
		typeText(a, s, "ew")
		press(a, s, tcell.KeyEnter)

		assert.Equal(t, "new", cell(a, "A1"))
	})

	t.Run("esc_cancels", func(t *testing.T) {
		a := newTestApp(nil)
		typeText(a, s, "ix")
		press(a, s, tcell.KeyEsc)

		assert.Equal(t, ModeNormal, a.Mode)
		assert.Empty(t, a.InputBuf)
		assert.Equal(t, 0, a.Sheet.Len())
	})

	t.Run("empty_commit_clears", func(t *testing.T) {
		a := newTestApp(nil)
		a.SetCellValue("x")

		typeText(a, s, "i")
		press(a, s, tcell.KeyBackspace2, tcell.KeyEnter)
		assert.Equal(t, 0, a.Sheet.Len())

		a.CurRow = 0
		a.SetCellValue("y")
		press(a, s, tcell.KeyDelete)
		assert.Equal(t, 0, a.Sheet.Len())
	})

	t.Run("newline", func(t *testing.T) {
		a := newTestApp(nil)
		typeText(a, s, "iab")
		a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModAlt))
		typeText(a, s, "c")
		a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModCtrl))

		assert.Equal(t, "ab\nc", cell(a, "A1"))
		assert.Equal(t, 0, a.CurRow)
	})

	t.Run("formula_popup", func(t *testing.T) {
		a := newTestApp(nil)
		a.SetCellValue("Hello")
		a.CurCol = 1

		for _, r := range "LEN(A1)" {
			s.InjectKey(tcell.KeyRune, r, tcell.ModNone)
		}
		s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
		typeText(a, s, "=")

		assert.Equal(t, "5", cell(a, "B1"))
	})

	t.Run("popup_cancel", func(t *testing.T) {
		a := newTestApp(nil)
		s.InjectKey(tcell.KeyRune, 'x', tcell.ModNone)
		s.InjectKey(tcell.KeyEsc, 0, tcell.ModNone)
		typeText(a, s, "=")

		assert.Equal(t, 0, a.Sheet.Len())
	})
}

func TestApp_Navigation(t *testing.T) {
	s := newTestScreen(t)
	a := newTestApp(nil)

	press(a, s, tcell.KeyUp, tcell.KeyLeft)
	assert.Equal(t, 0, a.CurRow)
	assert.Equal(t, 0, a.CurCol)

	for i := 0; i < 40; i++ {
		press(a, s, tcell.KeyRight)
	}
	assert.Equal(t, grid.MaxCol, a.CurCol)
	assert.Len(t, a.ColWidths, grid.MaxCol+1)

	press(a, s, tcell.KeyPgDn)
	assert.Greater(t, a.CurRow, 0)
	assert.Greater(t, len(a.RowHeights), a.CurRow)

	press(a, s, tcell.KeyHome)
	assert.Equal(t, 0, a.CurRow)
	assert.Equal(t, 0, a.CurCol)

	a.Sheet.Set(grid.Address{Row: 6, Col: 3}, "x")
	press(a, s, tcell.KeyEnd)
	assert.Equal(t, 6, a.CurRow)
	assert.Equal(t, 3, a.CurCol)

	width := a.ColWidths[3]
	a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyRight, 0, tcell.ModCtrl))
	assert.Equal(t, width+1, a.ColWidths[3])
	a.HandleKeyEvent(s, tcell.NewEventKey(tcell.KeyDown, 0, tcell.ModCtrl))
	assert.Equal(t, 2, a.RowHeights[6])

	typeText(a, s, "?")
	assert.True(t, a.HelpVisible)
	typeText(a, s, "q")
	assert.False(t, a.Quit)
	press(a, s, tcell.KeyEsc)
	assert.False(t, a.HelpVisible)

	press(a, s, tcell.KeyCtrlC)
	assert.True(t, a.Quit)
}

func TestApp_Structure(t *testing.T) {
	a := newTestApp(nil)
	a.Sheet.Replace(grid.Snapshot{"0-0": "a", "1-0": "b", "1-1": "c", "2-2": "d", "0-25": "z"})

	a.InsertRow(1)
	assert.Equal(t, grid.Snapshot{"0-0": "a", "2-0": "b", "2-1": "c", "3-2": "d", "0-25": "z"}, a.Sheet.Snapshot())

	a.DeleteRow(2)
	assert.Equal(t, grid.Snapshot{"0-0": "a", "2-2": "d", "0-25": "z"}, a.Sheet.Snapshot())

	a.InsertCol(0)
	assert.Equal(t, grid.Snapshot{"0-1": "a", "2-3": "d"}, a.Sheet.Snapshot())
	assert.LessOrEqual(t, len(a.ColWidths), grid.MaxCol+1)

	a.DeleteCol(1)
	assert.Equal(t, grid.Snapshot{"2-2": "d"}, a.Sheet.Snapshot())
}

func TestApp_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("save_and_open", func(t *testing.T) {
		store := storage.NewMemoryStore()
		a := newTestApp(store)
		a.SetCellValue("1")

		a.ExecuteCommand("w")
		assert.Equal(t, "saved test", a.Message)

		a.ExecuteCommand("w other")
		assert.Equal(t, "saved other", a.Message)
		assert.Equal(t, "other", a.Sheet.ID())

		require.NoError(t, store.Save(ctx, "third", grid.Snapshot{"4-2": "x"}))
		a.ExecuteCommand("o third")
		assert.Equal(t, "opened third", a.Message)
		assert.Equal(t, "x", cell(a, "C5"))
		assert.GreaterOrEqual(t, len(a.RowHeights), 5)

		a.ExecuteCommand("o missing")
		assert.Contains(t, a.Message, "sheet not found")
		assert.Equal(t, "third", a.Sheet.ID())

		a.ExecuteCommand("ls")
		assert.Equal(t, "sheets: other, test, third", a.Message)
	})

	t.Run("ls_empty", func(t *testing.T) {
		a := newTestApp(storage.NewMemoryStore())
		a.ExecuteCommand("ls")
		assert.Equal(t, "no saved sheets", a.Message)
	})

	t.Run("no_store", func(t *testing.T) {
		a := newTestApp(nil)
		a.ExecuteCommand("w")
		assert.Contains(t, a.Message, sheet.ErrNoStore.Error())
		a.ExecuteCommand("o x")
		assert.Contains(t, a.Message, sheet.ErrNoStore.Error())
		a.ExecuteCommand("ls")
		assert.Equal(t, "error: store cannot list sheets", a.Message)
	})

	t.Run("export_import", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "out.csv")
		a := newTestApp(nil)
		a.SetCellValue("3")
		a.CurRow = 1
		a.SetCellValue("=SUM(A1:A1)")

		a.ExecuteCommand("export " + path)
		assert.Equal(t, "exported "+path, a.Message)
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "3\n3\n", string(data))

		require.NoError(t, os.WriteFile(path, []byte("4,=LEN(A2)\nabc\n"), 0600))
		b := newTestApp(nil)
		b.ExecuteCommand("import " + path)
		assert.Equal(t, "imported "+path+" (3 cells)", b.Message)
		assert.Equal(t, "3", cell(b, "B1"))

		b.ExecuteCommand("import " + filepath.Join(t.TempDir(), "missing.csv"))
		assert.Contains(t, b.Message, "error:")
	})

	t.Run("sizes", func(t *testing.T) {
		a := newTestApp(nil)
		a.ExecuteCommand("cw 10")
		for _, w := range a.ColWidths {
			assert.Equal(t, 10, w)
		}
		a.ExecuteCommand("rh 2")
		for _, h := range a.RowHeights {
			assert.Equal(t, 2, h)
		}

		a.ExecuteCommand("cw 2")
		assert.Contains(t, a.Message, "want a number >= 4")
		assert.Equal(t, 10, a.ColWidths[0])
	})

	t.Run("unknown_and_quit", func(t *testing.T) {
		a := newTestApp(nil)
		a.ExecuteCommand("   ")
		assert.Empty(t, a.Message)

		a.ExecuteCommand("frobnicate")
		assert.Equal(t, "error: unknown command: frobnicate", a.Message)

		a.ExecuteCommand("q")
		assert.True(t, a.Quit)
	})
}

func TestApp_Draw(t *testing.T) {
	s := newTestScreen(t)
	a := newTestApp(nil)
	a.SetCellValue("hello")
	a.CurCol = 1
	a.SetCellValue("=FOO(A1)")
	a.ColWidths[1] = 20

	a.Draw(s)

	innerW := a.DefaultWidth - 2*a.CellPadding
	assert.Equal(t, "A", screenText(s, a.LeftGutter+a.CellPadding, 0, innerW))
	assert.Equal(t, "1", screenText(s, 0, 1, a.LeftGutter-1))
	assert.Equal(t, "hello", screenText(s, a.LeftGutter+a.CellPadding, 1, innerW))
	assert.Equal(t, "Unknown Function", screenText(s, a.LeftGutter+a.DefaultWidth+a.CellPadding, 1, 18))

	_, h := s.Size()
	assert.True(t, strings.HasPrefix(screenText(s, 0, h-2, 100), "Mode:normal  Cell:B1  Sheet:test  Cells:2"))

	t.Run("clips_wide_text", func(t *testing.T) {
		a.CurCol = 2
		a.SetCellValue(strings.Repeat("界", 10))
		a.Draw(s)
		got := screenText(s, a.LeftGutter+a.DefaultWidth+20+a.CellPadding, 1, innerW)
		assert.Equal(t, innerW/2, strings.Count(got, "界"))
	})

	t.Run("insert_mode_status", func(t *testing.T) {
		typeText(a, s, "i")
		typeText(a, s, "abc")
		a.Draw(s)
		assert.Equal(t, "EDIT: abc", screenText(s, 0, h-1, 100))
		press(a, s, tcell.KeyEsc)
	})

	t.Run("help", func(t *testing.T) {
		help := helpContent()
		assert.Contains(t, help, ":ls")
		for _, name := range calc.Functions() {
			assert.Contains(t, help, name)
		}

		a.HelpVisible = true
		a.Draw(s)
		a.HelpVisible = false
	})
}

func TestApp_Run(t *testing.T) {
	s := newTestScreen(t)
	a := newTestApp(nil)

	s.InjectKey(tcell.KeyRune, 'i', tcell.ModNone)
	s.InjectKey(tcell.KeyRune, '7', tcell.ModNone)
	s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
	s.InjectKey(tcell.KeyRune, 'q', tcell.ModNone)

	require.NoError(t, a.Run(context.Background(), s))
	assert.True(t, a.Quit)
	assert.Equal(t, "7", cell(a, "A1"))
}

func TestWrapText(t *testing.T) {
	assert.Equal(t, []string{"one two", "three"}, wrapText("one two three", 8))
	assert.Equal(t, []string{"abcde", "fgh"}, wrapText("abcdefgh", 5))
	assert.Equal(t, []string{"a", "b"}, wrapText("a\n\nb", 10))
	assert.Equal(t, []string{"xy"}, wrapText("xy", 2))
}

func TestLineEditor(t *testing.T) {
	key := func(k tcell.Key) *tcell.EventKey { return tcell.NewEventKey(k, 0, tcell.ModNone) }
	r := func(c rune) *tcell.EventKey { return tcell.NewEventKey(tcell.KeyRune, c, tcell.ModNone) }

	ed := newLineEditor("=SUM")
	ed.key(r('('))
	ed.key(key(tcell.KeyHome))
	ed.key(key(tcell.KeyDelete))
	ed.key(r('#'))
	assert.Equal(t, "#SUM(", ed.String())

	ed.key(key(tcell.KeyEnd))
	ed.key(key(tcell.KeyBackspace2))
	ed.key(key(tcell.KeyLeft))
	ed.key(r('x'))
	assert.Equal(t, "#SUxM", ed.String())

	text, cur := ed.visible(3)
	assert.Equal(t, "SUx", text)
	assert.Equal(t, 3, cur)

	done, ok := ed.key(key(tcell.KeyEnter))
	assert.True(t, done)
	assert.True(t, ok)

	done, ok = ed.key(key(tcell.KeyEsc))
	assert.True(t, done)
	assert.False(t, ok)

	ed.key(key(tcell.KeyCtrlU))
	assert.Equal(t, "", ed.String())
}

func TestApp_Popup(t *testing.T) {
	s := newTestScreen(t)
	a := newTestApp(nil)

	t.Run("command", func(t *testing.T) {
		for _, c := range "cw 12" {
			s.InjectKey(tcell.KeyRune, c, tcell.ModNone)
		}
		s.InjectKey(tcell.KeyEnter, 0, tcell.ModNone)
		typeText(a, s, ":")
		assert.Equal(t, 12, a.ColWidths[0])
	})

	t.Run("formula_canceled", func(t *testing.T) {
		s.InjectKey(tcell.KeyRune, 'X', tcell.ModNone)
		s.InjectKey(tcell.KeyEsc, 0, tcell.ModNone)
		typeText(a, s, "=")
		assert.Equal(t, "", cell(a, "A1"))
	})
}
