package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// splashInterval is how long the banner stays up before the session
// check runs.
const splashInterval = 2 * time.Second

func splashTick() tea.Cmd {
	return tea.Tick(splashInterval, func(time.Time) tea.Msg {
		return splashDoneMsg{}
	})
}

// updateSplash waits out the banner, then runs exactly one session
// check and routes on its answer. A dead backend routes to login like
// any other absent session; nothing is surfaced.
func (a App) updateSplash(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case splashDoneMsg:
		return a, checkSessionCmd(a.backend)

	case sessionCheckedMsg:
		if msg.sess != nil {
			a.session = msg.sess
			return a, a.gotoChat()
		}
		a.gotoLogin()
		return a, nil
	}
	return a, nil
}

func (a App) viewSplash() string {
	s := titleStyle.Render(banner) + "\n" + mutedStyle.Render("  loading...")
	return a.centered(s)
}
