package views

import (
	"github.com/gdamore/tcell/v2"
	"github.com/matheus3301/quill/internal/rpc"
	"github.com/matheus3301/quill/internal/tui/ui"
	"github.com/rivo/tview"
)

// SearchView provides post search.
type SearchView struct {
	*tview.Flex
	theme    *ui.Theme
	input    *tview.InputField
	results  *tview.Table
	onQuery  func(query string)
	data     []rpc.SearchHit
	channels func(id string) string
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)
	input.SetBorderColor(theme.BorderColor)
	input.SetBackgroundColor(theme.BgColor)
	input.SetFieldBackgroundColor(theme.BgColor)
	input.SetFieldTextColor(theme.FgColor)
	input.SetLabelColor(theme.MenuKeyColor)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetBorderColor(theme.BorderColor)
	results.SetBackgroundColor(theme.BgColor)
	results.SetTitle(" Results ")
	results.SetTitleColor(theme.TitleColor)
	results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	return &SearchView{
		Flex:     flex,
		theme:    theme,
		input:    input,
		results:  results,
		channels: func(id string) string { return id },
	}
}

// Name implements ui.Component.
func (sv *SearchView) Name() string { return "Search" }

// Hints implements ui.Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Search/Open"},
		{Key: "Tab", Description: "Results"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetOnQuery sets the callback when a query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
	sv.input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil {
			sv.onQuery(sv.input.GetText())
		}
	})
}

// SetChannelNames sets how channel IDs are labelled in results.
func (sv *SearchView) SetChannelNames(fn func(id string) string) {
	if fn != nil {
		sv.channels = fn
	}
}

// SetQuery fills the input without running it.
func (sv *SearchView) SetQuery(q string) {
	sv.input.SetText(q)
}

// Update refreshes search results.
func (sv *SearchView) Update(hits []rpc.SearchHit) {
	sv.data = hits
	sv.results.Clear()

	headers := []string{" CHANNEL", " SNIPPET", " TIME"}
	for col, h := range headers {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, h := range hits {
		row := i + 1
		channel := sv.channels(h.Post.ChannelID)
		ts := formatTimestamp(h.Post.CreateAt)
		snippet := h.Snippet
		if snippet == "" {
			snippet = h.Post.Message
		}
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+display(channel)).SetMaxWidth(25).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+display(firstLine(snippet, 200))).SetExpansion(1).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+ts).SetMaxWidth(12).SetTextColor(sv.theme.FgColor))
	}
	sv.results.SetTitle(" Results ")
	if len(hits) > 0 {
		sv.results.Select(1, 0)
	}
}

// SelectedHit returns the highlighted result, or nil.
func (sv *SearchView) SelectedHit() *rpc.SearchHit {
	row, _ := sv.results.GetSelection()
	idx := row - 1
	if idx < 0 || idx >= len(sv.data) {
		return nil
	}
	return &sv.data[idx]
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
