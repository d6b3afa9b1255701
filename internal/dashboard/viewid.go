// Package dashboard holds the gated router, the view registry and the shell
// that ties them to the login gate.
package dashboard

import "fmt"

// ViewKind enumerates the screens the shell can show.
type ViewKind int

const (
	ViewLogin ViewKind = iota + 1
	ViewHome
	ViewDirection
	ViewIndicators
	ViewSheet
	ViewTalent
	ViewFinance
	ViewNotFound
)

// ViewID identifies a screen. Name is set for directions only.
type ViewID struct {
	Kind ViewKind
	Name string
}

// Login is the credential form.
func Login() ViewID { return ViewID{Kind: ViewLogin} }

// Home is the landing page.
func Home() ViewID { return ViewID{Kind: ViewHome} }

// Direction is the case dashboard of one direction key.
func Direction(name string) ViewID { return ViewID{Kind: ViewDirection, Name: name} }

// Indicators is the area/period indicator page.
func Indicators() ViewID { return ViewID{Kind: ViewIndicators} }

// Sheet is the spreadsheet explorer.
func Sheet() ViewID { return ViewID{Kind: ViewSheet} }

// Talent is the human talent section.
func Talent() ViewID { return ViewID{Kind: ViewTalent} }

// Finance is the income and expense section.
func Finance() ViewID { return ViewID{Kind: ViewFinance} }

// NotFound is shown for unknown paths under FallbackNotFound.
func NotFound() ViewID { return ViewID{Kind: ViewNotFound} }

func (v ViewID) String() string {
	switch v.Kind {
	case ViewLogin:
		return "login"
	case ViewHome:
		return "home"
	case ViewDirection:
		return fmt.Sprintf("direction(%s)", v.Name)
	case ViewIndicators:
		return "indicators"
	case ViewSheet:
		return "sheet"
	case ViewTalent:
		return "talent"
	case ViewFinance:
		return "finance"
	case ViewNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
