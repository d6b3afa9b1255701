package dashboard

import (
	"github.com/lumethik/tablero/internal/charts"
	"github.com/lumethik/tablero/internal/data"
)

// PanelState tells the renderer how to draw a panel.
type PanelState int

const (
	PanelReady PanelState = iota
	PanelEmpty
	PanelLoading
)

func (s PanelState) String() string {
	switch s {
	case PanelEmpty:
		return "empty"
	case PanelLoading:
		return "loading"
	default:
		return "ready"
	}
}

// Panel is one chart slot of a page.
type Panel struct {
	ID     string
	Chart  charts.Descriptor
	State  PanelState
	Notice string
}

// Loading reports whether the panel awaits data.
func (p Panel) Loading() bool { return p.State == PanelLoading }

// Table is a titled tabular rendering of a record.
type Table struct {
	ID     string
	Title  string
	Record data.Record
	State  PanelState
}

// Loading reports whether the table awaits data.
func (t Table) Loading() bool { return t.State == PanelLoading }

// Card is a static summary tile.
type Card struct {
	Title string
	Body  string
}

// NavLink is one entry of the navigation bar.
type NavLink struct {
	Label string
	Path  string
}

// LoginForm describes the credential form.
type LoginForm struct {
	Action              string
	Heading             string
	UserPlaceholder     string
	PasswordPlaceholder string
	Submit              string
}

// Selectors are the dropdowns of a page.
type Selectors struct {
	Areas      []string
	Periods    []string
	Columns    []string
	Categories []data.Option
	Current    Selection
}

// Page is the renderer-agnostic tree of one screen.
type Page struct {
	View      ViewID
	Path      string
	Title     string
	Login     *LoginForm
	Nav       []NavLink
	Cards     []Card
	Selectors *Selectors
	Panels    []Panel
	Tables    []Table
	Notice    string
	Message   string
}

// Loading reports whether any panel or table awaits data.
func (p Page) Loading() bool {
	for _, panel := range p.Panels {
		if panel.State == PanelLoading {
			return true
		}
	}
	for _, t := range p.Tables {
		if t.State == PanelLoading {
			return true
		}
	}
	return false
}
