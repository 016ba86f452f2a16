package main

import (
	"strings"
	"testing"

	"taste-test/internal/domain"
)

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want command
	}{
		{"hello there", command{}},
		{"/photo  menu.jpg ", command{name: "photo", arg: "menu.jpg"}},
		{"/PHOTO", command{name: "photo"}},
		{"  /signout", command{name: "signout"}},
		{"/photo my menu.png", command{name: "photo", arg: "my menu.png"}},
	}
	for _, tc := range cases {
		if got := parseCommand(tc.line); got != tc.want {
			t.Fatalf("parseCommand(%q) = %+v, want %+v", tc.line, got, tc.want)
		}
	}
}

func TestRenderEntry(t *testing.T) {
	assistant := renderEntry(domain.ChatEntry{Kind: domain.EntryAssistantText, Text: "# Picks\n- Tacos"})
	if assistant != "Picks\n\nTacos\n\n" {
		t.Fatalf("unexpected assistant render %q", assistant)
	}

	user := renderEntry(domain.ChatEntry{Kind: domain.EntryUserText, Text: "hi"})
	if !strings.HasSuffix(user, "hi\n") || len(user) != 61 {
		t.Fatalf("expected right-aligned user text, got %q", user)
	}

	photo := renderEntry(domain.ChatEntry{Kind: domain.EntryUserImage, Image: &domain.Image{Data: make([]byte, 2048)}})
	if !strings.Contains(photo, "[photo · 2 KB]") {
		t.Fatalf("unexpected photo render %q", photo)
	}
}
