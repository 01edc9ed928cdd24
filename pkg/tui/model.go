// Package tui is the bubbletea picker for saved FTP profiles.
package tui

import (
	"runtime/debug"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ai-help-me/ftpm/pkg/config"
)

// ViewMode represents the current TUI view mode.
type ViewMode int

const (
	ModeProfileList ViewMode = iota
	ModeSearching
	ModeSelectAction
)

// Actions offered for a selected profile.
const (
	ActionShell = "shell"
	ActionTree  = "tree"
)

// actions are listed in menu order; key picks one directly.
var actions = []struct {
	name  string
	key   string
	label string
}{
	{ActionShell, "s", "Interactive shell"},
	{ActionTree, "t", "Print directory tree"},
}

// keyHelp is one "key description" pair in the help line.
type keyHelp struct {
	key  string
	desc string
}

var (
	moveHelp   = []keyHelp{{"↑/k", "up"}, {"↓/j", "down"}, {"enter", "select"}}
	searchHelp = []keyHelp{{"type", "to search"}, {"enter", "select"}, {"esc", "cancel"}}
)

// Model is the main Bubbletea model.
type Model struct {
	config       *config.Config
	profiles     []*config.Profile
	filtered     []*config.Profile
	cursor       int
	actionCursor int
	Selected     *config.Profile
	query        string
	Quitted      bool
	mode         ViewMode
	Action       string
	styles       Styles
	currentPath  []string // empty = root level
	width        int
	height       int
}

// NewModel creates a picker at the top level of cfg.
func NewModel(cfg *config.Config) Model {
	profiles := cfg.GetProfilesAtPath(nil)

	return Model{
		config:   cfg,
		profiles: profiles,
		filtered: profiles,
		mode:     ModeProfileList,
		styles:   DefaultStyles(),
		width:    80, // updated by WindowSizeMsg
		height:   24,
	}
}

// Mode returns the current view mode.
func (m Model) Mode() ViewMode {
	return m.mode
}

// Path returns the group path currently shown.
func (m Model) Path() []string {
	return m.currentPath
}

// Visible returns the profiles currently listed.
func (m Model) Visible() []*config.Profile {
	return m.filtered
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.WindowSize()
}

// Update handles messages (Elm architecture).
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.styles = m.styles.WithWidth(m.width)
		return m, nil

	default:
		return m, nil
	}
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" || (msg.String() == "q" && m.mode != ModeSearching) {
		m.Quitted = true
		return m, tea.Quit
	}

	switch m.mode {
	case ModeProfileList:
		return m.updateProfileList(msg)
	case ModeSearching:
		return m.updateSearching(msg)
	case ModeSelectAction:
		return m.updateSelectAction(msg)
	}
	return m, nil
}

func (m Model) updateProfileList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}

	case "enter":
		if len(m.filtered) == 0 {
			break
		}
		selected := m.filtered[m.cursor]
		if selected.IsGroup() {
			m.currentPath = append(m.currentPath, selected.Name)
			m.profiles = selected.Children
			m.filtered = selected.Children
			m.cursor = 0
		} else {
			m.Selected = selected
			m.mode = ModeSelectAction
		}

	case "esc":
		if len(m.currentPath) > 0 {
			m.currentPath = m.currentPath[:len(m.currentPath)-1]
			m.profiles = m.config.GetProfilesAtPath(m.currentPath)
			m.filtered = m.profiles
			m.cursor = 0
		}

	case "/":
		m.mode = ModeSearching
		m.query = ""
	}

	return m, nil
}

func (m Model) updateSearching(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = ModeProfileList
		m.query = ""
		m.filtered = m.profiles
		m.cursor = 0

	case tea.KeyEnter:
		if len(m.filtered) == 0 {
			break
		}
		selected := m.filtered[0]
		m.query = ""
		if selected.IsGroup() {
			m.mode = ModeProfileList
			m.currentPath = append(m.currentPath, selected.Name)
			m.profiles = selected.Children
			m.filtered = selected.Children
			m.cursor = 0
		} else {
			m.Selected = selected
			m.mode = ModeSelectAction
		}

	case tea.KeyBackspace:
		if len(m.query) > 0 {
			m.query = m.query[:len(m.query)-1]
			m.filterProfiles()
		}

	case tea.KeyRunes:
		m.query += string(msg.Runes)
		m.filterProfiles()
	}

	return m, nil
}

func (m Model) updateSelectAction(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.actionCursor > 0 {
			m.actionCursor--
		}

	case "down", "j":
		if m.actionCursor < len(actions)-1 {
			m.actionCursor++
		}

	case "enter":
		m.Action = actions[m.actionCursor].name
		return m, tea.Quit

	case "esc":
		m.mode = ModeProfileList
		m.Selected = nil
		m.actionCursor = 0

	default:
		for _, a := range actions {
			if msg.String() == a.key {
				m.Action = a.name
				return m, tea.Quit
			}
		}
	}

	return m, nil
}

// filterProfiles matches the query against name, host and user.
func (m *Model) filterProfiles() {
	m.cursor = 0
	if m.query == "" {
		m.filtered = m.profiles
		return
	}

	query := strings.ToLower(m.query)
	m.filtered = nil
	for _, p := range m.profiles {
		if strings.Contains(strings.ToLower(p.Name), query) ||
			strings.Contains(strings.ToLower(p.Host), query) ||
			strings.Contains(strings.ToLower(p.User), query) {
			m.filtered = append(m.filtered, p)
		}
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.Quitted {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.renderBanner())
	b.WriteString("\n")

	switch m.mode {
	case ModeProfileList, ModeSearching:
		b.WriteString(m.renderProfileList())
	case ModeSelectAction:
		b.WriteString(m.renderActionSelect())
	}

	b.WriteString("\n")
	b.WriteString(m.renderHelp())
	return b.String()
}

func (m Model) renderProfileList() string {
	var b strings.Builder

	if len(m.currentPath) > 0 {
		b.WriteString(m.styles.Dim.Render("Path: " + strings.Join(m.currentPath, " / ")))
		b.WriteString("\n")
	}

	if m.mode == ModeSearching {
		b.WriteString(m.styles.SearchPrompt.Render("Search: " + m.query + "_"))
		b.WriteString("\n")
	}

	if len(m.filtered) == 0 {
		if len(m.config.Profiles) == 0 {
			b.WriteString(m.styles.Error.Render("No profiles configured"))
		} else {
			b.WriteString(m.styles.Dim.Render("No profiles found"))
		}
		return b.String()
	}

	for i, p := range m.filtered {
		selected := i == m.cursor
		cursor := " "
		if selected {
			cursor = ">"
		}

		if selected {
			b.WriteString(m.styles.RowCursor.Render(cursor + " " + m.rowText(p, true)))
		} else {
			b.WriteString(m.styles.Row.Render(cursor + " " + m.rowText(p, false)))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// rowText renders a group as "+ name (n)" and a profile as
// "name - user@host [badges]". The selected row stays unstyled inside so
// the cursor style covers the whole line.
func (m Model) rowText(p *config.Profile, plain bool) string {
	if p.IsGroup() {
		name := "+ " + p.Name
		size := "(" + strconv.Itoa(len(p.Children)) + ")"
		if !plain {
			name = m.styles.GroupName.Render(name)
			size = m.styles.GroupSize.Render(size)
		}
		return name + " " + size
	}

	name, addr := p.Name, profileAddr(p)
	if !plain {
		name = m.styles.Name.Render(name)
		addr = m.styles.Addr.Render(addr)
	}
	return name + " - " + addr + " " + m.styles.Badges(p, plain)
}

// profileAddr renders user@host[:port] with an ftps:// prefix for SSL.
func profileAddr(p *config.Profile) string {
	addr := p.User + "@" + p.Host
	if p.Port != 0 && p.Port != 21 {
		addr += ":" + strconv.Itoa(p.Port)
	}
	if p.SSL {
		addr = "ftps://" + addr
	}
	return addr
}

func (m Model) renderActionSelect() string {
	var b strings.Builder

	b.WriteString(m.styles.Title.Render("Selected: " + m.Selected.Name))
	b.WriteString("\n")
	b.WriteString(m.styles.Addr.Render(profileAddr(m.Selected)))
	b.WriteString(" ")
	b.WriteString(m.styles.Badges(m.Selected, false))
	b.WriteString("\n")
	b.WriteString(m.styles.ActionPrompt.Render("Open with:"))
	b.WriteString("\n")

	for i, a := range actions {
		key := "[" + a.key + "]"
		if i == m.actionCursor {
			b.WriteString(m.styles.RowCursor.Render("> " + key + " " + a.label))
		} else {
			b.WriteString(m.styles.Row.Render("  " + m.styles.ActionKey.Render(key) + " " + a.label))
		}
		b.WriteString("\n")
	}

	b.WriteString(m.styles.Dim.Render("Press ESC to go back"))
	return b.String()
}

func (m Model) renderBanner() string {
	var b strings.Builder

	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
	}

	logo := `  ███████ ████████ ██████  ███   ███
  ██         ██    ██   ██ ████ ████
  █████      ██    ██████  ██ ███ ██
  ██         ██    ██      ██  █  ██
  ██         ██    ██      ██     ██`

	b.WriteString(m.styles.BannerLogo.Render(logo))
	b.WriteString("\n\n")
	b.WriteString(m.styles.BannerDesc.Render("FTP Connection Manager"))
	b.WriteString("\n")
	b.WriteString(m.styles.BannerVersion.Render("Version: " + version))
	b.WriteString("\n")

	return b.String()
}

func (m Model) renderHelp() string {
	var help []keyHelp

	switch m.mode {
	case ModeProfileList:
		help = append(help, moveHelp...)
		if len(m.currentPath) > 0 {
			help = append(help, keyHelp{"esc", "back"})
		}
		help = append(help, keyHelp{"/", "search"}, keyHelp{"q", "quit"})

	case ModeSearching:
		help = searchHelp

	case ModeSelectAction:
		help = append(help, moveHelp...)
		for _, a := range actions {
			help = append(help, keyHelp{a.key, a.name})
		}
		help = append(help, keyHelp{"esc", "back"})
	}

	parts := make([]string, 0, len(help))
	for _, h := range help {
		parts = append(parts, m.styles.HelpKey.Render(h.key)+" "+h.desc)
	}
	return m.styles.Help.Render(strings.Join(parts, " • "))
}
