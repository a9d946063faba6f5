// Package tui is the terminal front end: a Bubble Tea program with four
// screens (splash, login, sign-up, chat) over a Backend. All transient
// notifications go through a single toast line that clears on a timer.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/heloha-app/heloha/internal/client"
)

type screen int

const (
	screenSplash screen = iota
	screenLogin
	screenSignUp
	screenChat
)

const toastDuration = 3 * time.Second

// App is the root model. It routes messages to the active screen and
// owns the pieces the screens share: the session, the toast line and the
// window size.
type App struct {
	backend Backend
	scr     screen
	session *client.Session

	width  int
	height int

	toast    string
	toastSeq int

	login  loginModel
	signUp signUpModel
	chat   chatModel
}

// NewApp returns the program's root model, starting on the splash screen.
func NewApp(b Backend) App {
	return App{
		backend: b,
		scr:     screenSplash,
		login:   newLoginModel(),
		signUp:  newSignUpModel(),
	}
}

func (a App) Init() tea.Cmd {
	return splashTick()
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			a.chat.release()
			return a, tea.Quit
		}

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.chat.resize(msg.Width, msg.Height)
		return a, nil

	case toastClearMsg:
		// a newer toast owns the line now
		if msg.seq == a.toastSeq {
			a.toast = ""
		}
		return a, nil

	case subscribedMsg:
		// the user may have left the chat screen before the
		// subscription landed; close it here or it leaks
		if a.scr != screenChat {
			if msg.sub != nil {
				msg.sub.Close()
			}
			return a, nil
		}
	}

	switch a.scr {
	case screenSplash:
		return a.updateSplash(msg)
	case screenLogin:
		return a.updateLogin(msg)
	case screenSignUp:
		return a.updateSignUp(msg)
	default:
		return a.updateChat(msg)
	}
}

func (a App) View() string {
	var body string
	switch a.scr {
	case screenSplash:
		body = a.viewSplash()
	case screenLogin:
		body = a.viewLogin()
	case screenSignUp:
		body = a.viewSignUp()
	default:
		body = a.viewChat()
	}

	if a.toast != "" {
		body += "\n" + toastStyle.Render(a.toast)
	}
	return body
}

// showToast replaces the toast line and schedules its expiry. The
// sequence number stops an old timer from clearing a newer toast.
func (a *App) showToast(text string) tea.Cmd {
	a.toast = text
	a.toastSeq++
	seq := a.toastSeq
	return tea.Tick(toastDuration, func(time.Time) tea.Msg {
		return toastClearMsg{seq: seq}
	})
}

// gotoLogin replaces the stack with a fresh login screen.
func (a *App) gotoLogin() {
	a.scr = screenLogin
	a.login = newLoginModel()
}

// gotoChat replaces the stack with the chat screen and kicks off its
// subscription and display-name lookup.
func (a *App) gotoChat() tea.Cmd {
	a.scr = screenChat
	a.chat = newChatModel(a.session.UserID, a.width, a.height)
	return tea.Batch(
		subscribeCmd(a.backend),
		fetchDisplayNameCmd(a.backend, a.session.UserID),
	)
}

func (a App) centered(s string) string {
	if a.width == 0 || a.height == 0 {
		return s
	}
	return lipgloss.Place(a.width, a.height-1, lipgloss.Center, lipgloss.Center, s)
}
