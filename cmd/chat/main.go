package main

import (
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/heloha-app/heloha/internal/client"
	"github.com/heloha-app/heloha/internal/tui"
)

func main() {
	serverURL := flag.String("server", "", "backend URL (default HELOHA_SERVER or http://localhost:8080)")
	flag.Parse()

	url := *serverURL
	if url == "" {
		url = os.Getenv("HELOHA_SERVER")
	}
	if url == "" {
		url = "http://localhost:8080"
	}

	sessionFile, err := client.DefaultSessionFile()
	if err != nil {
		// no config dir: the session just won't survive restarts
		sessionFile = ""
	}

	c := client.New(url, sessionFile)
	p := tea.NewProgram(tui.NewApp(tui.NewBackend(c)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
