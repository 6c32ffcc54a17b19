package cli

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

type tickMsg time.Time

type statusMsg string

type progressMsg struct {
	received   int64
	totalBytes int64
}

// progressModel renders one download's progress bar. It is fed by the
// Stream Retriever's progress callback from a separate goroutine, so
// the counters are mutex guarded.
type progressModel struct {
	progress   progress.Model
	totalBytes int64
	received   int64
	status     string
	done       bool
	mu         sync.Mutex
}

func newProgressModel() *progressModel {
	return &progressModel{
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *progressModel) Init() tea.Cmd {
	return tickCmd()
}

func (m *progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.mu.Lock()
			m.done = true
			m.mu.Unlock()
			return m, tea.Quit
		}
	case tickMsg:
		// done is set from the download goroutine, so every access
		// stays under the mutex.
		m.mu.Lock()
		if m.done {
			m.mu.Unlock()
			return m, tea.Quit
		}
		if m.totalBytes > 0 && m.received > 0 {
			cmd := m.progress.SetPercent(float64(m.received) / float64(m.totalBytes))
			m.mu.Unlock()
			return m, tea.Batch(cmd, tickCmd())
		}
		m.mu.Unlock()
		return m, tickCmd()
	case statusMsg:
		m.status = string(msg)
		return m, nil
	case progressMsg:
		m.mu.Lock()
		m.received = msg.received
		if msg.totalBytes > 0 {
			m.totalBytes = msg.totalBytes
		}
		var cmd tea.Cmd
		if m.totalBytes > 0 {
			cmd = m.progress.SetPercent(float64(m.received) / float64(m.totalBytes))
		}
		m.mu.Unlock()
		return m, cmd
	case progress.FrameMsg:
		newModel, cmd := m.progress.Update(msg)
		m.progress = newModel.(progress.Model)
		return m, cmd
	}
	return m, nil
}

func (m *progressModel) View() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	counters := humanize.Bytes(uint64(m.received))
	if m.totalBytes > 0 {
		counters = fmt.Sprintf("%s / %s", humanize.Bytes(uint64(m.received)), humanize.Bytes(uint64(m.totalBytes)))
	}

	view := "\n" + m.progress.View() + "\n" + counters
	if m.status != "" {
		view += "\n" + m.status
	}
	return view + "\n"
}
