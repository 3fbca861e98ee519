package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strings"
	"time"

	"partybot/internal/game"

	datastar "github.com/starfederation/datastar-go/datastar"
	"go.uber.org/zap"
)

const scoreboardTemplates = `
{{define "page"}}<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>partybot scoreboard</title>
<script type="module" src="https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.1/bundles/datastar.js"></script>
</head>
<body data-signals="{theme: 'dark', showFeed: true, qrOpen: false}">
<main data-on-load="@get('/scoreboard/stream')">
{{template "scoreboard" .}}
<button data-on-click="$qrOpen = !$qrOpen">Share</button>
<img data-show="$qrOpen" src="/scoreboard/qr.png" alt="Scoreboard QR code" width="200" height="200">
</main>
</body>
</html>{{end}}

{{define "scoreboard"}}<section id="scoreboard">
{{- if .Live}}
<h1>{{.Game}}</h1>
<p class="status">{{.Status}}{{if .Round}} &middot; round {{.Round}}{{end}}</p>
<table>
{{- range .Rows}}
<tr><td>{{.Name}}</td>{{if $.Scored}}<td>{{.Score}}</td>{{end}}<td>{{.Marker}}</td></tr>
{{- end}}
</table>
{{- else}}
<h1>No game running</h1>
<p class="status">Start one with /start_game.</p>
{{- end}}
<ul class="feed" data-show="$showFeed">
{{- range .Feed}}
<li>{{.}}</li>
{{- end}}
</ul>
</section>{{end}}
`

var pageTemplates = template.Must(template.New("scoreboard-page").Parse(scoreboardTemplates))

type scoreRow struct {
	Name   string
	Score  int
	Marker string
}

type scoreboardView struct {
	Live   bool
	Game   string
	Status game.Status
	Round  int
	Scored bool
	Rows   []scoreRow
	Feed   []string
}

func (h *Handler) buildView() scoreboardView {
	var view scoreboardView
	for _, event := range h.eventBus.Recent() {
		view.Feed = append(view.Feed, event.Text)
	}

	if h.sessions == nil {
		return view
	}
	session, err := h.sessions.Active()
	if err != nil {
		return view
	}

	view.Live = true
	view.Game = session.Name()
	view.Status = session.Status()

	if scores := session.Scoreboard(); scores != nil {
		view.Scored = true
		view.Round = session.Rounds().Round()
		for p, score := range scores.Snapshot(true) {
			view.Rows = append(view.Rows, scoreRow{Name: p.Name, Score: score})
		}
		return view
	}

	turns := session.Turns()
	roller, _ := turns.CurrentRoller()
	holder, hasHolder := turns.Threeman()
	for _, p := range turns.Participants() {
		var marks []string
		if hasHolder && p.ID == holder.ID {
			marks = append(marks, "threeman")
		}
		if p.ID == roller.ID {
			marks = append(marks, "rolling")
		}
		view.Rows = append(view.Rows, scoreRow{Name: p.Name, Marker: strings.Join(marks, ", ")})
	}
	return view
}

func renderScoreboard(view scoreboardView) (string, error) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, "scoreboard", view); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Scoreboard renders the spectator page.
func (h *Handler) Scoreboard(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTemplates.ExecuteTemplate(w, "page", h.buildView()); err != nil {
		h.logger.Error("failed to render scoreboard", zap.Error(err))
	}
}

// StreamScoreboard re-renders the scoreboard on every game announcement.
func (h *Handler) StreamScoreboard(w http.ResponseWriter, r *http.Request) {
	sse := datastar.NewSSE(w, r)

	events := h.eventBus.Subscribe(AllChannels)
	defer h.eventBus.Unsubscribe(AllChannels, events)

	h.logger.Debug("scoreboard stream opened", zap.String("remote", r.RemoteAddr))
	if err := h.patchScoreboard(sse); err != nil {
		h.logger.Warn("failed to send scoreboard", zap.Error(err))
		return
	}

	// keepalive; browsers drop idle streams after a few minutes
	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			h.logger.Debug("scoreboard stream closed", zap.String("remote", r.RemoteAddr))
			return
		case _, ok := <-events:
			if !ok {
				return
			}
			if err := h.patchScoreboard(sse); err != nil {
				h.logger.Debug("scoreboard stream write failed", zap.Error(err))
				return
			}
		case <-heartbeat.C:
			if err := h.patchScoreboard(sse); err != nil {
				return
			}
		}
	}
}

func (h *Handler) patchScoreboard(sse *datastar.ServerSentEventGenerator) error {
	html, err := renderScoreboard(h.buildView())
	if err != nil {
		return err
	}
	return sse.PatchElements(html, datastar.WithSelector("#scoreboard"))
}
