package api

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"quantbin/domain/report"
)

// handleSummary renders the most recent stored summary rows as an HTML page
// built from a markdown table. ?limit caps the row count, ?format=md skips
// the HTML rendering.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusNotFound, "no summary store configured")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = v
	}

	summaries, err := s.store.ListRecent(r.Context(), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	md := renderSummaryMarkdown(summaries)
	if r.URL.Query().Get("format") == "md" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, _ = w.Write([]byte(md))
		return
	}

	p := parser.NewWithExtensions(parser.CommonExtensions | parser.Tables)
	renderer := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.CompletePage})
	out := markdown.ToHTML([]byte(md), p, renderer)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(out)
}

// renderSummaryMarkdown builds one markdown table per metric, rows ordered
// as stored (newest first).
func renderSummaryMarkdown(summaries []report.Summary) string {
	var b strings.Builder
	b.WriteString("# Evaluation summaries\n")

	byMetric := make(map[report.Metric][]report.Summary)
	for _, s := range summaries {
		byMetric[s.Metric] = append(byMetric[s.Metric], s)
	}

	for _, metric := range report.AllMetrics {
		rows := byMetric[metric]
		if len(rows) == 0 {
			continue
		}
		numBins := 0
		for _, s := range rows {
			if len(s.BinMeans) > numBins {
				numBins = len(s.BinMeans)
			}
		}

		fmt.Fprintf(&b, "\n## %s\n\n", metric)
		b.WriteString("| Model | Uncertainty |")
		for _, label := range report.BinLabels(numBins) {
			fmt.Fprintf(&b, " %s |", label)
		}
		b.WriteString(" Target Mean |\n|")
		for i := 0; i < numBins+3; i++ {
			b.WriteString("---|")
		}
		b.WriteString("\n")

		for _, s := range rows {
			fmt.Fprintf(&b, "| %s | %s |", s.Model, s.UncertaintyType)
			for _, v := range s.BinMeans {
				if v == nil {
					b.WriteString(" - |")
				} else {
					fmt.Fprintf(&b, " %.4f |", *v)
				}
			}
			fmt.Fprintf(&b, " %.4f |\n", s.TargetMean)
		}
	}

	if len(summaries) == 0 {
		b.WriteString("\nNo stored summaries.\n")
	}
	return b.String()
}
