package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/ledhost/client"
	"github.com/wippyai/ledhost/dispatch"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const statusPoll = time.Second

type action struct {
	name string
	hint string
	send func(c *client.Client, arg string) error
}

var actions = []action{
	{name: "color", hint: "#rrggbb or r,g,b", send: func(c *client.Client, arg string) error {
		col, err := client.ParseColor(arg)
		if err != nil {
			return err
		}
		return c.SetColor(col)
	}},
	{name: "load", hint: "path to module.wasm", send: func(c *client.Client, arg string) error {
		return c.LoadFile(strings.TrimSpace(arg))
	}},
	{name: "input", hint: "bytes for the program", send: func(c *client.Client, arg string) error {
		return c.Feed([]byte(arg))
	}},
	{name: "stop", send: func(c *client.Client, _ string) error {
		return c.Stop()
	}},
}

type modelState int

const (
	stateSelect modelState = iota
	stateInput
	stateResult
)

type interactiveModel struct {
	err       error
	statusErr error
	client    *client.Client
	snapshot  *dispatch.Snapshot
	addr      string
	statusURL string
	result    string
	input     textinput.Model
	selected  int
	state     modelState
}

type sentMsg struct {
	err    error
	result string
}

type snapshotMsg struct {
	err      error
	snapshot *dispatch.Snapshot
}

func newInteractiveModel(c *client.Client, addr, statusURL string) *interactiveModel {
	return &interactiveModel{
		client:    c,
		addr:      addr,
		statusURL: strings.TrimRight(statusURL, "/"),
		state:     stateSelect,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	if m.statusURL == "" {
		return nil
	}
	return m.fetchSnapshot
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if m.state != stateInput {
				return m, tea.Quit
			}

		case "up", "k":
			if m.state == stateSelect && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelect && m.selected < len(actions)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelect:
				a := actions[m.selected]
				if a.hint == "" {
					return m, m.send(a, "")
				}
				m.prepareInput(a)
				m.state = stateInput
				return m, textinput.Blink

			case stateInput:
				return m, m.send(actions[m.selected], m.input.Value())

			case stateResult:
				m.reset()
			}
			return m, nil

		case "esc":
			if m.state != stateSelect {
				m.reset()
			}
			return m, nil
		}

	case sentMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateResult
		return m, nil

	case snapshotMsg:
		m.snapshot = msg.snapshot
		m.statusErr = msg.err
		return m, tea.Tick(statusPoll, func(time.Time) tea.Msg { return m.fetchSnapshot() })
	}

	if m.state == stateInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *interactiveModel) prepareInput(a action) {
	ti := textinput.New()
	ti.Placeholder = a.hint
	ti.Prompt = a.name + ": "
	ti.Width = 40
	ti.Focus()
	m.input = ti
}

func (m *interactiveModel) reset() {
	m.state = stateSelect
	m.result = ""
	m.err = nil
}

func (m *interactiveModel) send(a action, arg string) tea.Cmd {
	return func() tea.Msg {
		if err := a.send(m.client, arg); err != nil {
			return sentMsg{err: err}
		}
		if arg == "" {
			return sentMsg{result: "sent " + a.name}
		}
		return sentMsg{result: fmt.Sprintf("sent %s %q", a.name, arg)}
	}
}

func (m *interactiveModel) fetchSnapshot() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), statusPoll)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.statusURL+"/status", nil)
	if err != nil {
		return snapshotMsg{err: err}
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return snapshotMsg{err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return snapshotMsg{err: fmt.Errorf("status: %s", resp.Status)}
	}
	var snap dispatch.Snapshot
	if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
		return snapshotMsg{err: err}
	}
	return snapshotMsg{snapshot: &snap}
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("ledctl"))
	b.WriteString(" ")
	b.WriteString(m.addr)
	b.WriteString("\n")
	b.WriteString(m.statusLine())
	b.WriteString("\n\n")

	switch m.state {
	case stateSelect:
		b.WriteString("Select a command:\n\n")
		for i, a := range actions {
			if i == m.selected {
				b.WriteString(selectedStyle.Render("> " + a.name))
			} else {
				b.WriteString("  " + actionStyle.Render(a.name))
			}
			if a.hint != "" {
				b.WriteString(" " + hintStyle.Render("<"+a.hint+">"))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter choose • q quit"))

	case stateInput:
		b.WriteString(m.input.View())
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter send • esc back"))

	case stateResult:
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *interactiveModel) statusLine() string {
	switch {
	case m.statusURL == "":
		return helpStyle.Render("no status server")
	case m.statusErr != nil:
		return errorStyle.Render("status: " + m.statusErr.Error())
	case m.snapshot == nil:
		return helpStyle.Render("status: loading...")
	}

	s := m.snapshot
	line := fmt.Sprintf("%s • %d leds • %d runs", s.State, s.Count, s.Runs)
	if s.Program != "" {
		line += fmt.Sprintf(" • program %s • %d ticks", s.Program, s.Ticks)
	}
	if s.LastError != "" {
		return resultStyle.Render(line) + "\n" + errorStyle.Render("last error: "+s.LastError)
	}
	return resultStyle.Render(line)
}

func runInteractive(c *client.Client, addr, statusURL string) error {
	p := tea.NewProgram(newInteractiveModel(c, addr, statusURL), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
