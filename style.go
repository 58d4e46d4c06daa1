package main

import "github.com/charmbracelet/lipgloss"

var (
	keyword   = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Render
	paragraph = lipgloss.NewStyle().Width(78).Padding(0, 0, 0, 2).Render

	okMark   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Render("✓")
	failMark = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Render("✗")
	dim      = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Render
)
