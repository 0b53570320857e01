package main

import (
	"errors"
	"strings"
	"testing"

	"ovtracker/internal/services"
	"ovtracker/internal/testsupport"
)

func TestTestNotifyPrint(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "test-notify", "--print")
	if err != nil {
		t.Fatalf("test-notify --print: %v", err)
	}
	requireContains(t, stdout, "🎬 CineStar Konstanz — OV")
	requireContains(t, stdout, "• Iron Man — ")
	requireContains(t, stdout, "https://letterboxd.com/tmdb/1726/")
	requireContains(t, stdout, "https://letterboxd.com/tmdb/550/")
	if strings.Count(stdout, "•") != 3 {
		t.Fatalf("expected three films\n%s", stdout)
	}
}

func TestTestNotifySends(t *testing.T) {
	telegram := testsupport.NewTelegramServer(t, testBotToken)
	env := setupCLITestEnv(t, testsupport.WithTelegram(telegram.Endpoint(), testBotToken, "-100123"))

	stdout, _, err := env.run(t, "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, stdout, "Test digest sent")
	messages := telegram.Messages()
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d", len(messages))
	}
	if messages[0].ParseMode != "HTML" || !messages[0].DisableWebPagePreview {
		t.Fatalf("unexpected message options %+v", messages[0])
	}
	requireContains(t, messages[0].Text, "Unknown Movie")
}

func TestTestNotifyWithoutCredentials(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := env.run(t, "test-notify")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
