package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/fretsheet/pkg/diagram"
	"github.com/matzehuels/fretsheet/pkg/geometry"
)

// Board styles
var (
	boardLineStyle   = lipgloss.NewStyle().Foreground(colorDim)
	boardLabelStyle  = lipgloss.NewStyle().Foreground(colorGray)
	boardCursorStyle = lipgloss.NewStyle().Reverse(true).Bold(true)
	openStyle        = lipgloss.NewStyle().Foreground(colorWhite)

	markerStyles = map[diagram.Category]lipgloss.Style{
		diagram.Note:     lipgloss.NewStyle().Foreground(colorBlue),
		diagram.Root:     lipgloss.NewStyle().Foreground(colorRed).Bold(true),
		diagram.Square:   lipgloss.NewStyle().Foreground(colorWhite),
		diagram.Triangle: lipgloss.NewStyle().Foreground(colorWhite),
		diagram.XMark:    lipgloss.NewStyle().Foreground(colorYellow),
	}
	markerGlyphs = map[diagram.Category]string{
		diagram.Note:     "●",
		diagram.Root:     "●",
		diagram.Square:   "■",
		diagram.Triangle: "▲",
		diagram.XMark:    "✕",
	}
)

// Board placement inside the editor view. The label gutter is boardLeft
// cells wide and strings are stringSpacing cells apart.
const (
	boardLeft     = 4
	stringSpacing = 4
	openLaneLine  = 3
	nutLine       = 4
	firstFretLine = 5
)

// =============================================================================
// Key bindings
// =============================================================================

type editorKeys struct {
	Up, Down, Left, Right key.Binding

	Note, Root, Triangle, Square, XMark key.Binding

	Open, Clear, LabelUp, LabelDown key.Binding

	Title, Save, Cancel, Help key.Binding
}

func newEditorKeys() editorKeys {
	return editorKeys{
		Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:      key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "left")),
		Right:     key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "right")),
		Note:      key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note")),
		Root:      key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "root")),
		Triangle:  key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "triangle")),
		Square:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "square")),
		XMark:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "x-mark")),
		Open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open/close string")),
		Clear:     key.NewBinding(key.WithKeys("backspace", "delete"), key.WithHelp("⌫", "clear point")),
		LabelUp:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "fret label")),
		LabelDown: key.NewBinding(key.WithKeys("-")),
		Title:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "edit title")),
		Save:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("⏎", "save")),
		Cancel:    key.NewBinding(key.WithKeys("esc", "q", "ctrl+c"), key.WithHelp("esc", "cancel")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more keys")),
	}
}

func (k editorKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Note, k.Root, k.Open, k.Save, k.Cancel, k.Help}
}

func (k editorKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Note, k.Root, k.Triangle, k.Square, k.XMark},
		{k.Open, k.Clear, k.LabelUp, k.Title},
		{k.Save, k.Cancel, k.Help},
	}
}

// =============================================================================
// EditorModel - Interactive diagram editor
// =============================================================================

// EditorModel is the bubbletea model for editing one diagram. The cursor
// moves over fret rows 0..FretCount-1 and the open lane above them (row -1).
// Mouse clicks are resolved through geometry.HitTest, the same mapping the
// renderers use, so a click addresses the marker drawn under it.
type EditorModel struct {
	Diagram diagram.Diagram
	Saved   bool

	str, row int
	status   string

	title textinput.Model
	keys  editorKeys
	help  help.Model
}

// NewEditorModel creates an editor for d with the cursor on the first fret
// of the lowest string.
func NewEditorModel(d diagram.Diagram) EditorModel {
	ti := textinput.New()
	ti.Placeholder = "untitled"
	ti.CharLimit = 64
	ti.Prompt = ""
	ti.SetValue(d.Title)
	ti.CursorEnd()

	return EditorModel{
		Diagram: d,
		title:   ti,
		keys:    newEditorKeys(),
		help:    help.New(),
	}
}

// Cursor returns the coordinate under the cursor.
func (m EditorModel) Cursor() diagram.Coordinate {
	if m.row < 0 {
		return diagram.Open(m.str)
	}
	return diagram.Fretted(m.str, m.row)
}

func (m EditorModel) Init() tea.Cmd {
	return nil
}

func (m EditorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.title.Focused() {
		return m.updateTitle(msg)
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.updateKey(msg)
	case tea.MouseMsg:
		if msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft {
			return m, nil
		}
		if c, ok := m.hit(msg.X, msg.Y); ok {
			m.str, m.row = c.StringIndex, c.FretIndex
			if c.Open {
				m.row = -1
			}
			m = m.toggle(diagram.Note)
		}
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
	}
	return m, nil
}

func (m EditorModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := m.keys
	m.status = ""

	switch {
	case key.Matches(msg, k.Cancel):
		return m, tea.Quit
	case key.Matches(msg, k.Save):
		m.Diagram.Title = strings.TrimSpace(m.title.Value())
		m.Saved = true
		return m, tea.Quit
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, k.Title):
		return m, m.title.Focus()

	case key.Matches(msg, k.Up):
		if m.row > -1 {
			m.row--
		}
	case key.Matches(msg, k.Down):
		if m.row < m.Diagram.FretCount-1 {
			m.row++
		}
	case key.Matches(msg, k.Left):
		if m.str > 0 {
			m.str--
		}
	case key.Matches(msg, k.Right):
		if m.str < m.Diagram.StringCount-1 {
			m.str++
		}

	case key.Matches(msg, k.Note):
		m = m.toggle(diagram.Note)
	case key.Matches(msg, k.Root):
		m = m.toggle(diagram.Root)
	case key.Matches(msg, k.Triangle):
		m = m.toggle(diagram.Triangle)
	case key.Matches(msg, k.Square):
		m = m.toggle(diagram.Square)
	case key.Matches(msg, k.XMark):
		m = m.toggle(diagram.XMark)

	case key.Matches(msg, k.Open):
		open := !m.Diagram.IsOpen(m.str)
		m.Diagram = diagram.SetOpenString(m.Diagram, m.str, open)
		if open {
			m.status = fmt.Sprintf("string %d open", m.str+1)
		} else {
			m.status = fmt.Sprintf("string %d closed", m.str+1)
		}
	case key.Matches(msg, k.Clear):
		c := m.Cursor()
		for _, cat := range m.Diagram.MarkersAt(c).Categories() {
			m.Diagram = diagram.SetMarker(m.Diagram, c, cat, false)
		}
	case key.Matches(msg, k.LabelUp):
		m = m.shiftLabel(1)
	case key.Matches(msg, k.LabelDown):
		m = m.shiftLabel(-1)
	}
	return m, nil
}

func (m EditorModel) updateTitle(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "enter", "tab":
			m.Diagram.Title = strings.TrimSpace(m.title.Value())
			m.title.Blur()
			return m, nil
		case "esc":
			m.title.SetValue(m.Diagram.Title)
			m.title.CursorEnd()
			m.title.Blur()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.title, cmd = m.title.Update(msg)
	return m, cmd
}

func (m EditorModel) toggle(cat diagram.Category) EditorModel {
	c := m.Cursor()
	m.Diagram = diagram.ToggleMarker(m.Diagram, c, cat)
	verb := "removed"
	if m.Diagram.Has(c, cat) {
		verb = "added"
	}
	m.status = fmt.Sprintf("%s %s at %s", verb, cat, describeCoordinate(c))
	return m
}

func (m EditorModel) shiftLabel(delta int) EditorModel {
	if m.row < 0 {
		return m
	}
	label := 0
	if m.row < len(m.Diagram.FretLabels) {
		label = m.Diagram.FretLabels[m.row]
	}
	if label+delta < 0 {
		return m
	}
	m.Diagram = diagram.SetFretLabel(m.Diagram, m.row, label+delta)
	return m
}

// hit maps a terminal cell to the coordinate drawn there. The board is
// treated as a box (StringCount-1)*stringSpacing cells wide and FretCount
// lines tall; the open lane line sits OpenLaneOffset above the nut.
func (m EditorModel) hit(x, y int) (diagram.Coordinate, bool) {
	d := m.Diagram
	p := geometry.Point{X: float64(x - boardLeft)}
	switch {
	case y == openLaneLine:
		p.Y = -geometry.OpenLaneOffset
	case y >= firstFretLine && y < firstFretLine+d.FretCount:
		p.Y = float64(y-firstFretLine) + 0.5
	default:
		return diagram.Coordinate{}, false
	}
	width := float64((d.StringCount - 1) * stringSpacing)
	return geometry.HitTest(p, d.StringCount, d.FretCount, width, float64(d.FretCount))
}

func (m EditorModel) View() string {
	var b strings.Builder
	d := m.Diagram

	b.WriteString(StyleTitle.Render("Edit diagram"))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d strings × %d frets", d.StringCount, d.FretCount)))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("Title: ") + m.title.View())
	b.WriteString("\n\n")

	// Open lane
	b.WriteString(strings.Repeat(" ", boardLeft))
	for s := 0; s < d.StringCount; s++ {
		b.WriteString(m.cell(diagram.Open(s)))
		if s < d.StringCount-1 {
			b.WriteString(strings.Repeat(" ", stringSpacing-1))
		}
	}
	b.WriteString("\n")

	// Nut
	b.WriteString(strings.Repeat(" ", boardLeft))
	b.WriteString(boardLineStyle.Render(boardEdge(d.StringCount, "╒", "╤", "╕", "═")))
	b.WriteString("\n")

	for f := 0; f < d.FretCount; f++ {
		label := ""
		if f < len(d.FretLabels) && d.FretLabels[f] > 0 {
			label = fmt.Sprintf("%d", d.FretLabels[f])
		}
		b.WriteString(boardLabelStyle.Render(fmt.Sprintf("%*s ", boardLeft-1, label)))
		for s := 0; s < d.StringCount; s++ {
			b.WriteString(m.cell(diagram.Fretted(s, f)))
			if s < d.StringCount-1 {
				b.WriteString(strings.Repeat(" ", stringSpacing-1))
			}
		}
		b.WriteString("\n")
	}

	b.WriteString(strings.Repeat(" ", boardLeft))
	b.WriteString(boardLineStyle.Render(boardEdge(d.StringCount, "└", "┴", "┘", "─")))
	b.WriteString("\n\n")

	status := describeCoordinate(m.Cursor())
	if m.status != "" {
		status = m.status
	}
	b.WriteString(StyleDim.Render("  " + status))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

// cell renders the glyph at c, highlighted when c is under the cursor.
func (m EditorModel) cell(c diagram.Coordinate) string {
	glyph, style := "│", boardLineStyle
	if c.Open {
		glyph = "·"
		if m.Diagram.IsOpen(c.StringIndex) {
			glyph, style = "○", openStyle
		}
	}
	// The last category in draw order is the one on top.
	if cats := m.Diagram.MarkersAt(c).Categories(); len(cats) > 0 {
		top := cats[0]
		for _, cat := range diagram.Categories {
			if m.Diagram.Has(c, cat) {
				top = cat
			}
		}
		glyph, style = markerGlyphs[top], markerStyles[top]
	}
	if c == m.Cursor() && !m.title.Focused() {
		return boardCursorStyle.Render(glyph)
	}
	return style.Render(glyph)
}

func boardEdge(strs int, left, mid, right, fill string) string {
	seg := strings.Repeat(fill, stringSpacing-1)
	return left + strings.Repeat(seg+mid, strs-2) + seg + right
}
