package tui

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/heloha-app/heloha/internal/chat"
)

// roomTitle is the fixed title of the single shared room.
const roomTitle = "Pookies"

type chatModel struct {
	uid         string
	displayName string

	input    textinput.Model
	vp       viewport.Model
	messages []chat.Message

	sub     Subscription
	entries chan chat.Message
}

func newChatModel(uid string, width, height int) chatModel {
	input := textinput.New()
	input.Placeholder = "Type a message..."
	input.CharLimit = 1000
	input.Focus()

	m := chatModel{
		uid:         uid,
		displayName: "...",
		input:       input,
		vp:          viewport.New(80, 20),
	}
	m.resize(width, height)
	return m
}

func (m *chatModel) resize(width, height int) {
	if width == 0 || height == 0 {
		return
	}
	// adjust in place so a resize keeps the scroll position
	m.input.Width = width - 8
	m.vp.Width = width - 4
	m.vp.Height = height - 7
}

// release closes the subscription if one is live. Safe on a screen that
// never subscribed.
func (m *chatModel) release() {
	if m.sub != nil {
		m.sub.Close()
		m.sub = nil
	}
}

func (m *chatModel) refresh() {
	m.vp.SetContent(m.render())
	m.vp.GotoBottom()
}

// isMine tells own messages apart by sender id. Names are not unique
// enough for this: the reservation race means two users can share one.
func (m *chatModel) isMine(msg chat.Message) bool {
	return msg.SenderID == m.uid
}

func (m *chatModel) render() string {
	var b strings.Builder
	for _, msg := range m.messages {
		if m.isMine(msg) {
			b.WriteString(ownNameStyle.Render("You") + ": " + msg.Text + "\n")
			continue
		}
		name := msg.SenderName
		if name == "" {
			name = "Anonymous"
		}
		b.WriteString(otherNameStyle.Render(name) + ": " + msg.Text + "\n")
	}
	return b.String()
}

func (a App) updateChat(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+l":
			a.chat.release()
			a.backend.SignOut()
			a.session = nil
			a.gotoLogin()
			return a, nil

		case "enter":
			text := strings.TrimSpace(a.chat.input.Value())
			// the input clears no matter what; a blank message is
			// dropped without a write
			a.chat.input.SetValue("")
			if text == "" {
				return a, nil
			}
			return a, sendMessageCmd(a.backend, text, a.chat.displayName, a.chat.uid)
		}

	case subscribedMsg:
		if msg.err != nil {
			return a, a.showToast("Connection failed: " + msg.err.Error())
		}
		// one live feed per screen: a stale result loses
		if a.chat.sub != nil {
			msg.sub.Close()
			return a, nil
		}
		a.chat.sub = msg.sub
		a.chat.entries = msg.entries
		return a, waitForEntry(msg.entries)

	case entryArrivedMsg:
		a.chat.messages = append(a.chat.messages, msg.msg)
		a.chat.refresh()
		return a, waitForEntry(a.chat.entries)

	case displayNameMsg:
		a.chat.displayName = msg.name
		return a, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	a.chat.input, cmd = a.chat.input.Update(msg)
	cmds = append(cmds, cmd)
	a.chat.vp, cmd = a.chat.vp.Update(msg)
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a App) viewChat() string {
	header := headerStyle.Render(roomTitle + "  ·  " + a.chat.displayName)
	footer := footerStyle.Render(a.chat.input.View() + "\n" +
		mutedStyle.Render("Enter to Send • Ctrl+L to Logout • Ctrl+C to Quit"))

	return header + "\n" + a.chat.vp.View() + "\n" + footer
}
