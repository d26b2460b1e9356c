package backend

import (
	"embed"
	"net/http"

	"github.com/rs/zerolog/log"
)

// WidgetScriptPath is where the embeddable widget is served from.
const WidgetScriptPath = "/chatbot-widget.js"

//go:embed static/*
var staticFS embed.FS

func serveStatic(name, contentType string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		b, err := staticFS.ReadFile("static/" + name)
		if err != nil {
			log.Error().Err(err).Str("file", name).Msg("embedded asset missing")
			http.Error(w, name+" not found", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", contentType)
		w.Header().Set("Cache-Control", "no-cache")
		_, _ = w.Write(b)
	}
}
