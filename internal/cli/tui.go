package cli

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/twill/pkg/jsonapi"
	"github.com/matzehuels/twill/pkg/render"
)

// List styles
var (
	listDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
	listKeyStyle  = lipgloss.NewStyle().Foreground(colorGray).Width(18)
	listHeadStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
)

// =============================================================================
// ResourceListModel - Interactive resource browser
// =============================================================================

// browseFrame is one level of the navigation history.
type browseFrame struct {
	title  string
	items  []jsonapi.Resource
	cursor int
	offset int
}

// ResourceListModel is the bubbletea model for browsing a resource graph.
// Enter descends into the resources related to the selected one; backspace
// goes back up.
type ResourceListModel struct {
	Title   string
	Items   []jsonapi.Resource
	Cursor  int
	Offset  int
	Height  int
	history []browseFrame
}

// NewResourceListModel creates a browser over the primary resources.
func NewResourceListModel(title string, items []jsonapi.Resource) ResourceListModel {
	return ResourceListModel{Title: title, Items: items, Height: 12}
}

func (m ResourceListModel) Init() tea.Cmd {
	return nil
}

func (m ResourceListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", "right", "l":
			if len(m.Items) == 0 {
				return m, nil
			}
			r := m.Items[m.Cursor]
			related := relatedResources(r)
			if len(related) == 0 {
				return m, nil
			}
			m.history = append(m.history, browseFrame{m.Title, m.Items, m.Cursor, m.Offset})
			m.Title = r.Identifier().Key()
			m.Items = related
			m.Cursor, m.Offset = 0, 0
		case "backspace", "left", "h":
			if n := len(m.history); n > 0 {
				f := m.history[n-1]
				m.history = m.history[:n-1]
				m.Title, m.Items, m.Cursor, m.Offset = f.title, f.items, f.cursor, f.offset
			}
		}
	case tea.WindowSizeMsg:
		m.Height = (msg.Height - 8) / 2
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ResourceListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.Title))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ related  ⌫ back  q quit"))
	b.WriteString("\n\n")

	if len(m.Items) == 0 {
		b.WriteString(listDimStyle.Render("  (no resources)"))
		return b.String()
	}

	end := min(m.Offset+m.Height, len(m.Items))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Items[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, []string{cursor, r.Type(), r.ID(), resourceLabel(r), fmt.Sprint(len(r.Related()))})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Type", "ID", "Label", "Rels").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeadStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Items))))
	b.WriteString("\n\n")
	b.WriteString(resourceDetail(m.Items[m.Cursor]))

	return b.String()
}

// =============================================================================
// Helpers
// =============================================================================

// relatedResources lists the resources r points at, relationship by
// relationship, without repeats.
func relatedResources(r jsonapi.Resource) []jsonapi.Resource {
	var out []jsonapi.Resource
	seen := make(map[string]bool)
	add := func(rel jsonapi.Resource) {
		if rel == nil || seen[rel.Identifier().Key()] {
			return
		}
		seen[rel.Identifier().Key()] = true
		out = append(out, rel)
	}
	for _, name := range r.Related() {
		switch v := r[name].(type) {
		case jsonapi.Resource:
			add(v)
		case []jsonapi.Resource:
			for _, rel := range v {
				add(rel)
			}
		}
	}
	return out
}

func resourceLabel(r jsonapi.Resource) string {
	for _, f := range render.DefaultLabelFields {
		if s := r.StringAttr(f); s != "" {
			return s
		}
	}
	return "—"
}

// resourceDetail renders the fields of r, one per line.
func resourceDetail(r jsonapi.Resource) string {
	var b strings.Builder
	for _, k := range slices.Sorted(maps.Keys(r)) {
		if k == jsonapi.FieldID || k == jsonapi.FieldType {
			continue
		}
		b.WriteString(listKeyStyle.Render(k))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(fieldSummary(r[k])))
		b.WriteString("\n")
	}
	return b.String()
}

// fieldSummary renders a field value on one line.
func fieldSummary(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case jsonapi.Resource:
		return "→ " + v.Identifier().Key()
	case []jsonapi.Resource:
		keys := make([]string, len(v))
		for i, r := range v {
			keys[i] = r.Identifier().Key()
		}
		return "→ [" + strings.Join(keys, ", ") + "]"
	case string:
		return truncate(v, 60)
	case map[string]any, []any:
		return listDimStyle.Render(fmt.Sprintf("(%T, %d entries)", v, lenOf(v)))
	}
	return truncate(fmt.Sprint(v), 60)
}

func lenOf(v any) int {
	switch v := v.(type) {
	case map[string]any:
		return len(v)
	case []any:
		return len(v)
	}
	return 0
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
