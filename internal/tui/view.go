package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felkru/farkle/internal/game"
)

// View implements tea.Model.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(HeaderStyle.Render(fmt.Sprintf("Farkle · first to %d", m.snap.WinningScore)))
	b.WriteString(InfoStyle.Render("  game " + m.snap.GameID))
	b.WriteString("\n\n")

	b.WriteString(m.renderPlayers())
	b.WriteString("\n")
	b.WriteString(m.renderDice())
	b.WriteString("\n")

	b.WriteString(fmt.Sprintf("Turn score: %d   Selected: %d\n",
		m.snap.TurnScore, m.snap.HeldScore))
	b.WriteString(m.renderStatus())
	b.WriteString("\n")

	if m.lastMove != "" {
		b.WriteString(InfoStyle.Render("Last move: " + m.lastMove))
		b.WriteString("\n")
	}
	if m.lastErr != nil {
		b.WriteString(ErrorStyle.Render("Agent failed: " + m.lastErr.Error()))
		b.WriteString("\n")
		b.WriteString(InfoStyle.Render("Press a to retry the agent or p to pass its turn."))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m *Model) renderPlayers() string {
	var lines []string
	for _, p := range m.snap.Players {
		line := fmt.Sprintf("%-16s %6d  %s", p.Name, p.Score, InfoStyle.Render(string(p.Controller)))
		if p.Index == m.snap.CurrentPlayer {
			lines = append(lines, ActivePlayerStyle.Render("▶ "+line))
		} else {
			lines = append(lines, PlayerInfoStyle.Render("  "+line))
		}
	}
	return strings.Join(lines, "\n") + "\n"
}

func (m *Model) renderDice() string {
	dice := make([]string, 0, len(m.snap.Dice))
	cursors := make([]string, 0, len(m.snap.Dice))
	for i, d := range m.snap.Dice {
		style := DieStyle
		switch d.State {
		case game.Held:
			style = HeldDieStyle
		case game.Locked:
			style = LockedDieStyle
		}
		face := style.Render(fmt.Sprintf("%d", d.Value))
		dice = append(dice, face)

		marker := " "
		if i == m.cursor && m.humanTurn() {
			marker = "^"
		}
		cursors = append(cursors, CursorStyle.Width(lipgloss.Width(face)).Align(lipgloss.Center).Render(marker))
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, dice...),
		lipgloss.JoinHorizontal(lipgloss.Top, cursors...),
	)
}

func (m *Model) renderStatus() string {
	switch {
	case m.snap.Status == game.Won:
		return SuccessStyle.Render(m.snap.Message + " Press n for a new game.")
	case m.snap.Status == game.Busted:
		return ErrorStyle.Render(m.snap.Message)
	case m.thinking:
		text := m.progress
		if text == "" {
			text = m.snap.ActivePlayer().Name + " is deciding..."
		}
		return m.spinner.View() + " " + WarningStyle.Render(text)
	default:
		return m.snap.Message
	}
}
