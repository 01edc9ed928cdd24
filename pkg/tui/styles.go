package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/ai-help-me/ftpm/pkg/config"
)

// Styles contains all the styling for the picker.
type Styles struct {
	Title        lipgloss.Style
	Help         lipgloss.Style
	HelpKey      lipgloss.Style
	Error        lipgloss.Style
	SearchPrompt lipgloss.Style

	// Profile rows
	Row       lipgloss.Style
	RowCursor lipgloss.Style
	Dim       lipgloss.Style
	GroupName lipgloss.Style
	GroupSize lipgloss.Style
	Name      lipgloss.Style
	Addr      lipgloss.Style

	// Transport badges
	BadgeTLS     lipgloss.Style
	BadgePlain   lipgloss.Style
	BadgePassive lipgloss.Style

	// Action menu
	ActionPrompt lipgloss.Style
	ActionKey    lipgloss.Style

	// Banner
	BannerLogo    lipgloss.Style
	BannerDesc    lipgloss.Style
	BannerVersion lipgloss.Style
}

// DefaultStyles returns the default styling.
func DefaultStyles() Styles {
	var styles Styles

	primaryColor := lipgloss.Color("86")   // Cyan
	secondaryColor := lipgloss.Color("98") // Purple
	errorColor := lipgloss.Color("196")    // Red
	secureColor := lipgloss.Color("42")    // Green
	plainColor := lipgloss.Color("214")    // Orange
	dimColor := lipgloss.Color("241")      // Gray

	styles.Title = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	styles.Help = lipgloss.NewStyle().
		Foreground(dimColor).
		MarginTop(1)

	styles.HelpKey = lipgloss.NewStyle().
		Foreground(primaryColor)

	styles.Error = lipgloss.NewStyle().
		Foreground(errorColor).
		Bold(true)

	styles.SearchPrompt = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	styles.Row = lipgloss.NewStyle().
		PaddingLeft(1)

	styles.RowCursor = lipgloss.NewStyle().
		PaddingLeft(1).
		Foreground(lipgloss.Color("black")).
		Background(primaryColor).
		Bold(true)

	styles.Dim = lipgloss.NewStyle().
		PaddingLeft(1).
		Foreground(dimColor)

	styles.GroupName = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	styles.GroupSize = lipgloss.NewStyle().
		Foreground(dimColor)

	styles.Name = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Bold(true)

	styles.Addr = lipgloss.NewStyle().
		Foreground(dimColor)

	styles.BadgeTLS = lipgloss.NewStyle().
		Foreground(secureColor).
		Bold(true)

	styles.BadgePlain = lipgloss.NewStyle().
		Foreground(plainColor)

	styles.BadgePassive = lipgloss.NewStyle().
		Foreground(lipgloss.Color("242"))

	styles.ActionPrompt = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true).
		MarginTop(1)

	styles.ActionKey = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Bold(true)

	styles.BannerLogo = lipgloss.NewStyle().
		Foreground(primaryColor).
		Bold(true)

	styles.BannerDesc = lipgloss.NewStyle().
		Foreground(secondaryColor)

	styles.BannerVersion = lipgloss.NewStyle().
		Foreground(dimColor)

	return styles
}

// WithWidth stretches row styles so the cursor bar spans the terminal.
func (s Styles) WithWidth(width int) Styles {
	s.Row = s.Row.Width(width)
	s.RowCursor = s.RowCursor.Width(width)
	s.Dim = s.Dim.Width(width)

	return s
}

// Badges renders the transport tags for a profile: TLS or FTP, then PASV
// when passive mode is configured. With plain set no colors are applied,
// for rows drawn inside the cursor bar.
func (s Styles) Badges(p *config.Profile, plain bool) string {
	transport, style := "[FTP]", s.BadgePlain
	if p.SSL {
		transport, style = "[TLS]", s.BadgeTLS
	}
	if !plain {
		transport = style.Render(transport)
	}
	if !p.Passive {
		return transport
	}
	pasv := "[PASV]"
	if !plain {
		pasv = s.BadgePassive.Render(pasv)
	}
	return transport + " " + pasv
}
