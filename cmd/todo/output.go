package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"github.com/vyrodovalexey/todolist/internal/model"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	accentStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	mutedStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

func printOK(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render("✔ "+msg))
}

func printItems(w io.Writer, items []model.Item) {
	if len(items) == 0 {
		fmt.Fprintln(w, mutedStyle.Render("no items"))
		return
	}
	for _, it := range items {
		fmt.Fprintf(w, "%s  %s\n", mutedStyle.Render(it.ID), it.Text)
	}
}

func printPage(w io.Writer, res model.ListResult, page, perPage int) {
	printItems(w, res.Items)
	fmt.Fprintf(w, "%s %d/%d  %s %d\n",
		accentStyle.Render("page"), page, model.TotalPages(res.Total, perPage),
		accentStyle.Render("total"), res.Total,
	)
}
