package tui

import (
	"errors"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/heloha-app/heloha/internal/client"
)

type signUpModel struct {
	inputs  []textinput.Model // name, email, password, confirm
	focused int
	loading bool
}

func newSignUpModel() signUpModel {
	name := textinput.New()
	name.Placeholder = "Name"
	name.CharLimit = 32
	name.Width = 32
	name.Focus()

	email := textinput.New()
	email.Placeholder = "Email"
	email.CharLimit = 128
	email.Width = 32

	password := textinput.New()
	password.Placeholder = "Password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 64
	password.Width = 32

	confirm := textinput.New()
	confirm.Placeholder = "Confirm password"
	confirm.EchoMode = textinput.EchoPassword
	confirm.CharLimit = 64
	confirm.Width = 32

	return signUpModel{inputs: []textinput.Model{name, email, password, confirm}}
}

func (m *signUpModel) focusField(i int) {
	m.focused = i
	for j := range m.inputs {
		if j == i {
			m.inputs[j].Focus()
		} else {
			m.inputs[j].Blur()
		}
	}
}

// signUpToast maps a sign-up failure to its notification. The framing
// depends on which step broke: the name check, the identity provider or
// the directory writes.
func signUpToast(err error) string {
	var se *client.SignUpError
	if errors.As(err, &se) {
		switch se.Stage {
		case client.StageCheckName:
			if errors.Is(err, client.ErrNameTaken) {
				return "This name is already taken."
			}
			return "Error checking name: " + se.Err.Error()
		case client.StageDirectory:
			return "Database error: " + se.Err.Error()
		}
	}
	return "Sign-up failed: " + err.Error()
}

func (a App) updateSignUp(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "down":
			a.signUp.focusField((a.signUp.focused + 1) % len(a.signUp.inputs))
			return a, nil

		case "shift+tab", "up":
			n := len(a.signUp.inputs)
			a.signUp.focusField((a.signUp.focused + n - 1) % n)
			return a, nil

		case "ctrl+r", "esc":
			a.gotoLogin()
			return a, nil

		case "enter":
			if a.signUp.loading {
				return a, nil
			}
			name := strings.TrimSpace(a.signUp.inputs[0].Value())
			email := strings.TrimSpace(a.signUp.inputs[1].Value())
			password := a.signUp.inputs[2].Value()
			confirm := a.signUp.inputs[3].Value()

			// validation short-circuits: nothing reaches the backend
			// until the form itself is sound
			// a blank confirm is not a blank field: it reads as a mismatch
		if name == "" || email == "" || password == "" {
				return a, a.showToast("Please fill all fields.")
			}
			if password != confirm {
				return a, a.showToast("Passwords do not match.")
			}
			a.signUp.loading = true
			return a, signUpCmd(a.backend, name, email, password)
		}

	case signUpResultMsg:
		a.signUp.loading = false
		if msg.err != nil {
			return a, a.showToast(signUpToast(msg.err))
		}
		a.gotoLogin()
		return a, a.showToast("Sign-up successful! Please login.")
	}

	var cmd tea.Cmd
	a.signUp.inputs[a.signUp.focused], cmd = a.signUp.inputs[a.signUp.focused].Update(msg)
	return a, cmd
}

func (a App) viewSignUp() string {
	var s strings.Builder
	s.WriteString(titleStyle.Render("Sign Up") + "\n\n")
	s.WriteString("Name:     " + a.signUp.inputs[0].View() + "\n")
	s.WriteString("Email:    " + a.signUp.inputs[1].View() + "\n")
	s.WriteString("Password: " + a.signUp.inputs[2].View() + "\n")
	s.WriteString("Confirm:  " + a.signUp.inputs[3].View() + "\n\n")

	if a.signUp.loading {
		s.WriteString(mutedStyle.Render("Creating account..."))
	} else {
		s.WriteString(mutedStyle.Render("Enter to Sign Up • Esc to Login"))
	}

	return a.centered(boxStyle.Render(s.String()))
}
