// Package tui renders a running world's schedule in the terminal:
// the batch table with last durations, loop statistics, a tick-time
// graph, and the workload counters.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/weft-sim/weft/internal/metrics"
	"github.com/weft-sim/weft/internal/motion"
	"github.com/weft-sim/weft/internal/world"
)

const historyCapacity = 600

type TickMsg time.Time

// Model drives one world from the frame loop and renders its
// schedule. The world must be fully installed; the model owns
// stepping it, so nothing else may run the loop concurrently.
type Model struct {
	w   *world.World
	wk  *motion.Workload
	col *metrics.Collector
	ctx context.Context

	paused  bool
	stepReq bool
	err     error
	history []float64
}

func NewModel(ctx context.Context, w *world.World, wk *motion.Workload, col *metrics.Collector) Model {
	return Model{
		w:       w,
		wk:      wk,
		col:     col,
		ctx:     ctx,
		history: make([]float64, 0, historyCapacity),
	}
}

func frame() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return frame()
}

// Update handles input and advances the world one tick per frame.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "s":
			m.stepReq = true
		case "r":
			if err := m.w.Enqueue(world.RescheduleCmd()); err != nil {
				m.err = err
			}
		}
	case TickMsg:
		if m.err == nil && (!m.paused || m.stepReq) {
			m.stepReq = false
			if err := m.w.Step(m.ctx); err != nil {
				m.err = err
			} else {
				st := m.col.Snapshot()
				m.history = append(m.history, float64(st.TickLast.Microseconds())/1000.0)
				if len(m.history) > historyCapacity {
					m.history = m.history[1:]
				}
			}
		}
		return m, frame()
	}
	return m, nil
}

// View renders the batch table next to the stats column.
func (m Model) View() string {
	st := m.col.Snapshot()

	var sched strings.Builder
	sched.WriteString(headerStyle.Render("SCHEDULE") + "\n")
	names := m.w.BatchNames()
	if len(names) == 0 {
		sched.WriteString(labelStyle.Render("(unresolved)") + "\n")
	}
	for i, batch := range names {
		var dur time.Duration
		if i < len(st.BatchDurLast) {
			dur = st.BatchDurLast[i]
		}
		line := fmt.Sprintf("%2d │ %-44s %9s", i, strings.Join(batch, "  "), dur.Round(time.Microsecond))
		if len(batch) > 1 {
			sched.WriteString(batchStyle.Render(line) + "\n")
		} else {
			sched.WriteString(serialStyle.Render(line) + "\n")
		}
	}
	if len(m.history) > 1 {
		chart := asciigraph.Plot(m.history,
			asciigraph.Height(5), asciigraph.Width(56), asciigraph.Caption("tick ms"))
		sched.WriteString(graphStyle.Render(chart) + "\n")
	}

	var s strings.Builder
	status := "RUNNING"
	if m.paused {
		status = "PAUSED"
	}
	if m.err != nil {
		status = "FAILED"
	}
	s.WriteString(headerStyle.Render("WEFT") + "\n")
	s.WriteString(status + "\n\n")
	s.WriteString(labelStyle.Render("Tick") + valueStyle.Render(fmt.Sprintf("%d", m.w.Ticks())) + "\n")
	s.WriteString(labelStyle.Render("Ticks/s") + valueStyle.Render(fmt.Sprintf("%.1f", st.TicksPerSec)) + "\n")
	s.WriteString(labelStyle.Render("Entities") + valueStyle.Render(fmt.Sprintf("%d", m.w.EntityCount())) + "\n")
	s.WriteString(labelStyle.Render("Systems") + valueStyle.Render(fmt.Sprintf("%d", m.w.SystemCount())) + "\n")
	s.WriteString(labelStyle.Render("Shape") + valueStyle.Render(fmt.Sprintf("%v", m.w.BatchShape())) + "\n")
	s.WriteString(labelStyle.Render("Mean width") + valueStyle.Render(fmt.Sprintf("%.2f", st.MeanWidth())) + "\n")
	s.WriteString(labelStyle.Render("Resolves") + valueStyle.Render(fmt.Sprintf("%d", st.Resolves)) + "\n")
	s.WriteString(labelStyle.Render("Deferred") + valueStyle.Render(fmt.Sprintf("%d", st.Deferred)) + "\n")
	if m.wk != nil {
		s.WriteString("\nWORKLOAD\n")
		s.WriteString(labelStyle.Render("In range") + valueStyle.Render(fmt.Sprintf("%d", m.wk.InRange.Load())) + "\n")
		s.WriteString(labelStyle.Render("Census") + valueStyle.Render(fmt.Sprintf("%d", m.wk.Census.Load())) + "\n")
		s.WriteString(labelStyle.Render("Strays") + valueStyle.Render(fmt.Sprintf("%d", m.wk.Strays.Load())) + "\n")
	}
	if m.err != nil {
		s.WriteString("\n" + errorStyle.Render(m.err.Error()) + "\n")
	}
	s.WriteString(helpStyle.Render("SP:Pause S:Step R:Reschedule Q:Quit"))

	return lipgloss.JoinHorizontal(lipgloss.Top,
		scheduleStyle.Render(sched.String()), statsStyle.Render(s.String()))
}

// Run launches the live view over a prepared world.
func Run(ctx context.Context, w *world.World, wk *motion.Workload, col *metrics.Collector) error {
	p := tea.NewProgram(NewModel(ctx, w, wk, col), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
