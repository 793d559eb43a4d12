package ui

import (
	"fmt"
	"strings"

	"vidconv/internal/progress"
)

func (m Model) viewHeader() string {
	done, failed := m.counts()
	title := m.styles.Title.Render("vidconv")
	status := fmt.Sprintf("Files: %d/%d done", done, len(m.files))
	if failed > 0 {
		status += fmt.Sprintf(", %d failed", failed)
	}
	sub := m.styles.Subtitle.Render(status + " • q: cancel")
	return title + "\n" + sub
}

func (m Model) viewFiles() string {
	var b strings.Builder
	for _, fs := range m.files {
		b.WriteString(m.viewFile(fs))
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) viewFile(fs *fileState) string {
	stageStyle := m.styles.FileInfo
	switch fs.stage {
	case progress.StageQueued:
		stageStyle = m.styles.StageQueue
	case progress.StageStaging, progress.StageCollecting:
		stageStyle = m.styles.StageStage
	case progress.StageEncoding:
		stageStyle = m.styles.StageEnc
	case progress.StageCompleted:
		stageStyle = m.styles.Success
	case progress.StageError:
		stageStyle = m.styles.Error
	}

	left := m.styles.FileTitle.Render(truncate(fs.name, 48))
	stage := stageStyle.Render(string(fs.stage))

	var right string
	switch {
	case fs.err != nil:
		right = m.styles.Error.Render("✗ error")
	case fs.done:
		right = m.styles.Success.Render("✓ done")
	case fs.percent >= 0 && fs.percent <= 100:
		right = fmt.Sprintf("%s %3d%%", fs.bar.ViewAs(float64(fs.percent)/100.0), fs.percent)
	default:
		right = m.styles.Spinner.Render(fs.spinner.View()) + " " + m.styles.Faint.Render("waiting")
	}

	info := fs.status
	if fs.lastLog != "" && !fs.done {
		info += "\n" + m.styles.Faint.Render(truncate(fs.lastLog, 72))
	}
	line1 := fmt.Sprintf("%s  %s", left, stage)
	line2 := m.styles.FileInfo.Render(info)
	return m.styles.Box.Render(line1 + "\n" + right + "\n" + line2)
}

func (m Model) viewSummary() string {
	if m.cancelled {
		return m.styles.Error.Render("Cancelled") + "\n"
	}
	if !m.finished || len(m.results) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.styles.Subtitle.Render("Results:"))
	b.WriteString("\n")
	for _, r := range m.results {
		style, mark := m.styles.Success, "✓"
		if !r.Success {
			style, mark = m.styles.Error, "✗"
		}
		b.WriteString(style.Render(fmt.Sprintf("  %s %s", mark, resultLine(r))))
		b.WriteString("\n")
	}
	return b.String()
}

func truncate(s string, n int) string {
	rs := []rune(s)
	if n <= 0 || len(rs) <= n {
		return s
	}
	return string(rs[:n-1]) + "…"
}
