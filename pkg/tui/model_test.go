package tui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ai-help-me/ftpm/pkg/config"
)

func testConfig() *config.Config {
	return &config.Config{Profiles: []*config.Profile{
		{Name: "local", Host: "127.0.0.1", User: "dev", Port: 2121, Passive: true},
		{Name: "mirrors", Children: []*config.Profile{
			{Name: "kernel", Host: "ftp.kernel.org", User: "anonymous", Port: 21},
			{Name: "gnu", Host: "ftp.gnu.org", User: "anonymous", Port: 21, SSL: true},
		}},
	}}
}

func press(t *testing.T, m Model, keys ...string) (Model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		var next tea.Model
		next, cmd = m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m, cmd
}

func names(profiles []*config.Profile) []string {
	var out []string
	for _, p := range profiles {
		out = append(out, p.Name)
	}
	return out
}

func TestSelectLeafProfile(t *testing.T) {
	m := NewModel(testConfig())

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Equal(t, ModeSelectAction, m.Mode())
	require.NotNil(t, m.Selected)
	assert.Equal(t, "local", m.Selected.Name)

	m, cmd = press(t, m, "enter")
	assert.Equal(t, ActionShell, m.Action)
	assert.NotNil(t, cmd)
}

func TestNavigateGroups(t *testing.T) {
	m := NewModel(testConfig())

	m, _ = press(t, m, "down", "enter")
	assert.Equal(t, []string{"mirrors"}, m.Path())
	assert.Equal(t, []string{"kernel", "gnu"}, names(m.Visible()))

	m, _ = press(t, m, "j", "enter")
	require.NotNil(t, m.Selected)
	assert.Equal(t, "gnu", m.Selected.Name)

	m, _ = press(t, m, "esc")
	assert.Equal(t, ModeProfileList, m.Mode())
	assert.Nil(t, m.Selected)

	m, _ = press(t, m, "esc")
	assert.Empty(t, m.Path())
	assert.Equal(t, []string{"local", "mirrors"}, names(m.Visible()))
}

func TestCursorBounds(t *testing.T) {
	m := NewModel(testConfig())

	m, _ = press(t, m, "up", "up", "enter")
	assert.Equal(t, "local", m.Selected.Name)
}

func TestSearch(t *testing.T) {
	m := NewModel(testConfig())

	m, _ = press(t, m, "/", "1", "2", "7")
	assert.Equal(t, ModeSearching, m.Mode())
	assert.Equal(t, []string{"local"}, names(m.Visible()))

	m, _ = press(t, m, "backspace", "backspace", "backspace", "q", "x")
	assert.Equal(t, ModeSearching, m.Mode(), "q is typed while searching")
	assert.Empty(t, m.Visible())

	m, _ = press(t, m, "esc")
	assert.Equal(t, ModeProfileList, m.Mode())
	assert.Len(t, m.Visible(), 2)
}

func TestSearchEntersGroup(t *testing.T) {
	m := NewModel(testConfig())

	m, _ = press(t, m, "/", "m", "i", "r", "enter")
	assert.Equal(t, ModeProfileList, m.Mode())
	assert.Equal(t, []string{"mirrors"}, m.Path())

	m, _ = press(t, m, "/", "g", "n", "u", "enter")
	require.NotNil(t, m.Selected)
	assert.Equal(t, "gnu", m.Selected.Name)
}

func TestActionKeys(t *testing.T) {
	m := NewModel(testConfig())

	m, _ = press(t, m, "enter", "t")
	assert.Equal(t, ActionTree, m.Action)

	m = NewModel(testConfig())
	m, _ = press(t, m, "enter", "down", "down", "enter")
	assert.Equal(t, ActionTree, m.Action)
}

func TestQuit(t *testing.T) {
	m := NewModel(testConfig())

	m, cmd := press(t, m, "q")
	assert.True(t, m.Quitted)
	assert.NotNil(t, cmd)
	assert.Empty(t, m.View())

	m = NewModel(testConfig())
	m, _ = press(t, m, "ctrl+c")
	assert.True(t, m.Quitted)
}

func TestView(t *testing.T) {
	m := NewModel(testConfig())
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = next.(Model)

	view := m.View()
	assert.Contains(t, view, "FTP Connection Manager")
	assert.Contains(t, view, "dev@127.0.0.1:2121")
	assert.Contains(t, view, "+ mirrors")

	m, _ = press(t, m, "down", "enter")
	assert.Contains(t, m.View(), "ftps://anonymous@ftp.gnu.org")
	assert.Contains(t, m.View(), "Path: mirrors")

	m, _ = press(t, m, "enter")
	assert.Contains(t, m.View(), "Interactive shell")
	assert.Contains(t, m.View(), "Print directory tree")
}

func TestViewBadges(t *testing.T) {
	m := NewModel(testConfig())

	view := m.View()
	assert.Contains(t, view, "dev@127.0.0.1:2121 [FTP] [PASV]")
	assert.Contains(t, view, "+ mirrors (2)")
	assert.Contains(t, view, "/ search")
	assert.NotContains(t, view, "esc back")

	m, _ = press(t, m, "down", "enter")
	view = m.View()
	assert.Contains(t, view, "anonymous@ftp.kernel.org [FTP]")
	assert.Contains(t, view, "ftps://anonymous@ftp.gnu.org [TLS]")
	assert.NotContains(t, view, "ftp.gnu.org [TLS] [PASV]")
	assert.Contains(t, view, "esc back")
}

func TestActionMenuView(t *testing.T) {
	m := NewModel(testConfig())

	m, _ = press(t, m, "enter")
	view := m.View()
	assert.Contains(t, view, "Selected: local")
	assert.Contains(t, view, "> [s] Interactive shell")
	assert.Contains(t, view, "[t] Print directory tree")
	assert.Contains(t, view, "s shell")
	assert.Contains(t, view, "t tree")

	m, _ = press(t, m, "down")
	assert.Contains(t, m.View(), "> [t] Print directory tree")
}

func TestBadges(t *testing.T) {
	s := DefaultStyles()

	assert.Equal(t, "[FTP]", s.Badges(&config.Profile{}, true))
	assert.Equal(t, "[TLS]", s.Badges(&config.Profile{SSL: true}, true))
	assert.Equal(t, "[TLS] [PASV]", s.Badges(&config.Profile{SSL: true, Passive: true}, true))
}

func TestEmptyConfig(t *testing.T) {
	m := NewModel(&config.Config{})

	m, cmd := press(t, m, "enter")
	assert.Nil(t, cmd)
	assert.Nil(t, m.Selected)
	assert.Contains(t, m.View(), "No profiles configured")
}
