// Package monitor is an interactive front panel for the 6502 core:
// single stepping, run-to-breakpoint, register and memory inspection.
package monitor

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/davecgh/go-spew/spew"

	"famigo/mos6502"
)

// maxBurst bounds how many instructions a single 'run' keystroke may
// execute, so a program that never reaches BRK or a breakpoint can't
// wedge the UI.
const maxBurst = 1_000_000

var (
	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	pcStyle   = lipgloss.NewStyle().Reverse(true)
	dimStyle  = lipgloss.NewStyle().Faint(true)
	haltStyle = lipgloss.NewStyle().Bold(true)
)

type model struct {
	cpu    *mos6502.CPU
	breaks map[uint16]struct{}

	typing bool   // collecting a breakpoint address
	input  string // the hex digits typed so far
	halted bool   // BRK reached
	note   string // one-line status message
	err    error
}

func initialModel(c *mos6502.CPU) model {
	return model{
		cpu:    c,
		breaks: make(map[uint16]struct{}),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) step() model {
	if m.halted {
		return m
	}
	done, err := m.cpu.Step()
	if err != nil {
		m.err = err
		m.note = err.Error()
		return m
	}
	if done {
		m.halted = true
		m.note = "halted (BRK)"
	}
	return m
}

func (m model) runToBreak() model {
	for i := 0; i < maxBurst && !m.halted; i++ {
		m = m.step()
		if m.err != nil {
			return m
		}
		if _, ok := m.breaks[m.cpu.PC()]; ok {
			m.note = fmt.Sprintf("breakpoint at 0x%04x", m.cpu.PC())
			return m
		}
	}
	if !m.halted && m.err == nil {
		m.note = fmt.Sprintf("paused after %d instructions", maxBurst)
	}
	return m
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	s := key.String()

	if m.typing {
		switch {
		case s == "esc":
			m.typing = false
			m.input = ""
		case s == "enter":
			if addr, err := strconv.ParseUint(m.input, 16, 16); err == nil {
				m.breaks[uint16(addr)] = struct{}{}
				m.note = fmt.Sprintf("breakpoint set at 0x%04x", addr)
			}
			m.typing = false
			m.input = ""
		case len(s) == 1 && strings.ContainsAny(s, "0123456789abcdefABCDEF") && len(m.input) < 4:
			m.input += strings.ToLower(s)
		}
		return m, nil
	}

	switch s {
	case "q", "ctrl+c":
		return m, tea.Quit
	case " ", "j", "s":
		m.note = ""
		m = m.step()
	case "r":
		m.note = ""
		m = m.runToBreak()
	case "e":
		m.cpu.Reset()
		m.halted = false
		m.err = nil
		m.note = "reset"
	case "b":
		m.typing = true
		m.input = ""
	case "c":
		m.breaks = make(map[uint16]struct{})
		m.note = "breakpoints cleared"
	}
	return m, nil
}

// renderPage renders 4 rows of 16 bytes starting at base. The byte
// under the PC is highlighted.
func (m model) renderPage(title string, base uint16) string {
	var sb strings.Builder
	sb.WriteString(title + "\n")
	for row := 0; row < 4; row++ {
		addr := base + uint16(row*16)
		fmt.Fprintf(&sb, "%04x |", addr)
		for col := 0; col < 16; col++ {
			a := addr + uint16(col)
			cell := fmt.Sprintf(" %02x", m.cpu.Read(a))
			if a == m.cpu.PC() {
				cell = " " + pcStyle.Render(fmt.Sprintf("%02x", m.cpu.Read(a)))
			}
			sb.WriteString(cell)
		}
		if row < 3 {
			sb.WriteString("\n")
		}
	}
	return paneStyle.Render(sb.String())
}

func (m model) renderRegisters() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "PC: 0x%04x\n", m.cpu.PC())
	fmt.Fprintf(&sb, "SP: 0x%02x\n", m.cpu.SP())
	fmt.Fprintf(&sb, " A: 0x%02x [%3d]\n", m.cpu.A(), m.cpu.A())
	fmt.Fprintf(&sb, " X: 0x%02x [%3d]\n", m.cpu.X(), m.cpu.X())
	fmt.Fprintf(&sb, " Y: 0x%02x [%3d]\n", m.cpu.Y(), m.cpu.Y())
	fmt.Fprintf(&sb, " P: %08b\n", m.cpu.Status())
	fmt.Fprintf(&sb, "   NV-BDIZC\n")
	fmt.Fprintf(&sb, "cycles: %d", m.cpu.Cycles())
	return paneStyle.Render(sb.String())
}

func (m model) renderOpcode() string {
	var sb strings.Builder
	sb.WriteString(m.cpu.Inst() + "\n")
	if op, ok := mos6502.Lookup(m.cpu.Read(m.cpu.PC())); ok {
		sb.WriteString(strings.TrimRight(spew.Sdump(op), "\n"))
	}
	return paneStyle.Render(sb.String())
}

func (m model) renderBreaks() string {
	if m.typing {
		return paneStyle.Render("breakpoint (hex): " + m.input + "_")
	}
	if len(m.breaks) == 0 {
		return dimStyle.Render("no breakpoints")
	}
	addrs := make([]string, 0, len(m.breaks))
	for a := range m.breaks {
		addrs = append(addrs, fmt.Sprintf("0x%04x", a))
	}
	return "breakpoints: " + strings.Join(addrs, " ")
}

func (m model) View() string {
	status := m.note
	if m.halted {
		status = haltStyle.Render(status)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		lipgloss.JoinHorizontal(
			lipgloss.Top,
			m.renderRegisters(),
			m.renderOpcode(),
		),
		m.renderPage("zero page", 0x0000),
		m.renderPage("program", m.cpu.PC()&0xFFC0),
		m.renderPage("stack", 0x0100|(uint16(m.cpu.SP())&0xC0)),
		m.renderBreaks(),
		status,
		dimStyle.Render("space/j step · r run · b breakpoint · c clear · e reset · q quit"),
	)
}

// Monitor runs the interactive TUI over an already-loaded CPU until
// the user quits.
func Monitor(c *mos6502.CPU) error {
	final, err := tea.NewProgram(initialModel(c)).Run()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok && m.err != nil {
		return m.err
	}
	return nil
}
