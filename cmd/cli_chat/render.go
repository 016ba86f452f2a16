package main

import (
	"errors"
	"fmt"
	"strings"

	"taste-test/internal/domain"
	"taste-test/internal/markdown"
)

var errQuit = errors.New("quit")

type command struct {
	name string
	arg  string
}

// parseCommand separa "/photo menu.jpg" en nombre y argumento. Texto normal da name "".
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{}
	}
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}
}

// renderEntry arma la burbuja: usuario a la derecha, asistente a la izquierda.
func renderEntry(e domain.ChatEntry) string {
	switch e.Kind {
	case domain.EntryUserImage:
		size := 0
		if e.Image != nil {
			size = len(e.Image.Data)
		}
		return fmt.Sprintf("%60s\n", fmt.Sprintf("[photo · %d KB]", (size+1023)/1024))
	case domain.EntryUserText:
		var b strings.Builder
		for _, line := range strings.Split(markdown.Normalize(e.Text), "\n") {
			fmt.Fprintf(&b, "%60s\n", line)
		}
		return b.String()
	default:
		return markdown.Normalize(e.Text) + "\n\n"
	}
}
