package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

type loginModel struct {
	email    textinput.Model
	password textinput.Model
	focused  int
	loading  bool
}

func newLoginModel() loginModel {
	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 128
	email.Width = 32
	email.Focus()

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64
	password.Width = 32

	return loginModel{email: email, password: password}
}

func (m *loginModel) focusField(i int) {
	m.focused = i
	m.email.Blur()
	m.password.Blur()
	if i == 0 {
		m.email.Focus()
	} else {
		m.password.Focus()
	}
}

func (a App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "shift+tab", "down", "up":
			a.login.focusField((a.login.focused + 1) % 2)
			return a, nil

		case "ctrl+r":
			a.scr = screenSignUp
			a.signUp = newSignUpModel()
			return a, nil

		case "enter":
			if a.login.loading {
				return a, nil
			}
			email := strings.TrimSpace(a.login.email.Value())
			password := a.login.password.Value()
			if email == "" || password == "" {
				return a, a.showToast("Please fill in all fields.")
			}
			a.login.loading = true
			return a, signInCmd(a.backend, email, password)
		}

	case signInResultMsg:
		a.login.loading = false
		if msg.err != nil {
			return a, a.showToast("Login failed: " + msg.err.Error())
		}
		a.session = msg.sess
		return a, tea.Batch(a.showToast("Login successful!"), a.gotoChat())
	}

	var cmd tea.Cmd
	if a.login.focused == 0 {
		a.login.email, cmd = a.login.email.Update(msg)
	} else {
		a.login.password, cmd = a.login.password.Update(msg)
	}
	return a, cmd
}

func (a App) viewLogin() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Login") + "\n\n")
	s.WriteString("Email:    " + a.login.email.View() + "\n")
	s.WriteString("Password: " + a.login.password.View() + "\n\n")

	if a.login.loading {
		s.WriteString(mutedStyle.Render("Signing in..."))
	} else {
		s.WriteString(mutedStyle.Render("Enter to Login • Ctrl+R to Sign Up • Ctrl+C to Quit"))
	}

	return a.centered(boxStyle.Render(s.String()))
}
