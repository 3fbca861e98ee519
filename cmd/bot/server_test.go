package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"partybot/internal/config"
	"partybot/internal/discord"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap/zaptest"
)

func testConfig() *config.BotConfig {
	cfg := config.DefaultConfig()
	cfg.Discord.Token = "test-token"
	cfg.Server.Port = "0"
	cfg.Server.ShutdownTimeout = time.Second
	return cfg
}

func TestLoadQuestions(t *testing.T) {
	t.Run("embedded", func(t *testing.T) {
		bank, err := loadQuestions("")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		topics := bank.Topics()
		if len(topics) < 2 || topics[len(topics)-1] != "all_topics" {
			t.Errorf("unexpected topics %v", topics)
		}
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "questions.yaml")
		content := "topics:\n  - name: films\n    questions:\n      - question: Who directed Jaws?\n        answer: Steven Spielberg\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatal(err)
		}

		bank, err := loadQuestions(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := bank.Topic("films"); err != nil {
			t.Errorf("expected films topic: %v", err)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := loadQuestions(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected an error")
		}
	})
}

func TestBuildApp(t *testing.T) {
	cfg := testConfig()
	a, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t), discord.WithSession(&discordgo.Session{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.server == nil {
		t.Fatal("expected a spectator server")
	}
	if a.cookies != nil {
		t.Error("cookies should only be used with spotify configured")
	}

	testCases := []struct {
		path         string
		expectedCode int
		contains     string
	}{
		{"/health/live", http.StatusOK, "OK"},
		{"/health/ready", http.StatusOK, "OK"},
		{"/scoreboard", http.StatusOK, "No game running"},
		{"/missing", http.StatusNotFound, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.path, nil)
			w := httptest.NewRecorder()

			a.server.Handler.ServeHTTP(w, req)

			if w.Code != tc.expectedCode {
				t.Errorf("expected status %d, got %d", tc.expectedCode, w.Code)
			}
			if tc.contains != "" && !strings.Contains(w.Body.String(), tc.contains) {
				t.Errorf("expected body to contain %q", tc.contains)
			}
		})
	}

	if err := a.shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestBuildAppWithSpotify(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Enabled = false
	cfg.Spotify.ClientID = "id"
	cfg.Spotify.ClientSecret = "secret"
	cfg.YouTube.CookieTTL = time.Hour

	a, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t), discord.WithSession(&discordgo.Session{}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.server != nil {
		t.Error("server should be disabled")
	}
	if a.cookies == nil {
		t.Error("expected a cookie cache")
	}
	if err := a.shutdown(context.Background()); err != nil {
		t.Errorf("unexpected shutdown error: %v", err)
	}
}

func TestBuildAppBadQuestions(t *testing.T) {
	cfg := testConfig()
	cfg.Games.QuestionsFile = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := buildApp(context.Background(), cfg, zaptest.NewLogger(t)); err == nil {
		t.Error("expected an error for a missing question file")
	}
}

func TestNewHTTPServer(t *testing.T) {
	cfg := testConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = "9000"
	cfg.Server.ReadTimeout = 15 * time.Second

	server := newHTTPServer(&cfg.Server, http.NotFoundHandler())
	if server.Addr != "127.0.0.1:9000" {
		t.Errorf("unexpected addr %q", server.Addr)
	}
	if server.WriteTimeout != 0 {
		t.Error("write timeout must stay 0 for streaming")
	}
	if server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout %v", server.ReadTimeout)
	}
}
