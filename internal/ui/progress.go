// Package ui draws the interactive view of `loa build --ui`.
package ui

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"loa/internal/driver"
)

// pipeline is the order stages are drawn in. Cache sits first: a hit skips
// everything after it.
var pipeline = []driver.Stage{
	driver.StageCache,
	driver.StageParse,
	driver.StageCheck,
	driver.StageGenerate,
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	busyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

type module struct {
	name    string
	status  driver.Status
	elapsed time.Duration
}

type buildModel struct {
	title   string
	events  <-chan driver.Event
	spinner spinner.Model
	bar     progress.Model

	stages  map[driver.Stage]driver.Status
	modules []module
	byFile  map[string]int
	parsed  int
	failed  bool
	width   int
	closed  bool
}

type eventMsg driver.Event
type closedMsg struct{}

// NewProgressModel follows events for the given module files. The model
// quits when the channel is closed.
func NewProgressModel(title string, files []string, events <-chan driver.Event) tea.Model {
	sp := spinner.New()
	sp.Spinner = spinner.MiniDot
	sp.Style = busyStyle

	m := &buildModel{
		title:   title,
		events:  events,
		spinner: sp,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		stages:  make(map[driver.Stage]driver.Status, len(pipeline)),
		byFile:  make(map[string]int, len(files)),
		width:   80,
	}
	m.bar.Width = m.width - 8
	for _, f := range files {
		m.byFile[f] = len(m.modules)
		m.modules = append(m.modules, module{name: displayName(f), status: driver.StatusQueued})
	}
	return m
}

func (m *buildModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.next())
}

func (m *buildModel) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-m.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m *buildModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		m.apply(driver.Event(msg))
		return m, tea.Batch(m.bar.SetPercent(m.fraction()), m.next())
	case closedMsg:
		m.closed = true
		return m, tea.Quit
	case spinner.TickMsg:
		if m.closed {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case progress.FrameMsg:
		bar, cmd := m.bar.Update(msg)
		m.bar = bar.(progress.Model)
		return m, cmd
	case tea.WindowSizeMsg:
		m.width = max(msg.Width, 40)
		m.bar.Width = m.width - 8
	}
	return m, nil
}

func (m *buildModel) apply(ev driver.Event) {
	if ev.Status == driver.StatusError {
		m.failed = true
	}
	if ev.File == "" {
		m.stages[ev.Stage] = ev.Status
		return
	}
	i, ok := m.byFile[ev.File]
	if !ok {
		return
	}
	mod := &m.modules[i]
	if mod.status != driver.StatusDone && mod.status != driver.StatusError &&
		(ev.Status == driver.StatusDone || ev.Status == driver.StatusError) {
		m.parsed++
	}
	mod.status = ev.Status
	if ev.Elapsed > 0 {
		mod.elapsed = ev.Elapsed
	}
}

// fraction counts parsing modules as half of the work and the check and
// generate stages as the other half. A cache hit finishes everything.
func (m *buildModel) fraction() float64 {
	if m.stages[driver.StageCache] == driver.StatusDone {
		return 1
	}
	files := 1.0
	if len(m.modules) > 0 {
		files = float64(m.parsed) / float64(len(m.modules))
	}
	stages := 0.0
	for _, s := range []driver.Stage{driver.StageCheck, driver.StageGenerate} {
		switch m.stages[s] {
		case driver.StatusDone, driver.StatusError:
			stages += 0.5
		case driver.StatusWorking:
			stages += 0.25
		}
	}
	return 0.5*files + 0.5*stages
}

func (m *buildModel) View() string {
	var b strings.Builder

	head := m.title
	switch {
	case m.closed && m.failed:
		head = errStyle.Render("✗ ") + titleStyle.Render(head)
	case m.closed:
		head = okStyle.Render("✓ ") + titleStyle.Render(head)
	default:
		head = m.spinner.View() + " " + titleStyle.Render(head)
	}
	b.WriteString(head)
	b.WriteString("\n  ")
	for i, s := range pipeline {
		if i > 0 {
			b.WriteString(dimStyle.Render(" › "))
		}
		b.WriteString(stageCell(s, m.stageStatus(s)))
	}
	b.WriteString("\n\n")

	nameWidth := max(m.width-16, 16)
	for _, mod := range m.modules {
		name := runewidth.FillRight(runewidth.Truncate(mod.name, nameWidth, "…"), nameWidth)
		fmt.Fprintf(&b, "  %s %s", statusMark(mod.status), name)
		if mod.elapsed > 0 {
			b.WriteString(dimStyle.Render(fmt.Sprintf(" %6.1fms", float64(mod.elapsed.Microseconds())/1000)))
		}
		b.WriteByte('\n')
	}

	b.WriteString("\n  ")
	if m.closed {
		b.WriteString(m.bar.ViewAs(1))
	} else {
		b.WriteString(m.bar.View())
	}
	fmt.Fprintf(&b, "\n  %s\n", dimStyle.Render(fmt.Sprintf("%d/%d modules parsed", m.parsed, len(m.modules))))
	return b.String()
}

// stageStatus: у разбора нет общего события, он выводится из модулей.
func (m *buildModel) stageStatus(s driver.Stage) driver.Status {
	if s != driver.StageParse {
		return m.stages[s]
	}
	for _, mod := range m.modules {
		if mod.status == driver.StatusError {
			return driver.StatusError
		}
	}
	switch {
	case len(m.modules) > 0 && m.parsed == len(m.modules):
		return driver.StatusDone
	case m.parsed > 0:
		return driver.StatusWorking
	}
	return ""
}

func stageCell(s driver.Stage, st driver.Status) string {
	switch st {
	case driver.StatusDone:
		return okStyle.Render(string(s))
	case driver.StatusError:
		return errStyle.Render(string(s))
	case driver.StatusWorking:
		return busyStyle.Render(string(s) + "…")
	}
	return dimStyle.Render(string(s))
}

func statusMark(st driver.Status) string {
	switch st {
	case driver.StatusDone:
		return okStyle.Render("✓")
	case driver.StatusError:
		return errStyle.Render("✗")
	case driver.StatusWorking:
		return busyStyle.Render("•")
	}
	return dimStyle.Render("·")
}

// displayName shortens file URIs to base names; stdlib modules keep their
// `loa:stdlib/` form so they stand apart from user code.
func displayName(file string) string {
	if rest, ok := strings.CutPrefix(file, "file://"); ok {
		return filepath.Base(rest)
	}
	return file
}

// RunProgress draws the build until events is closed. It never reads input.
func RunProgress(title string, files []string, events <-chan driver.Event, out io.Writer) error {
	p := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithInput(nil))
	_, err := p.Run()
	return err
}
