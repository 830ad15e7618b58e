// Package report writes the analysis run to disk as text, markdown, JSON
// and HTML, with rendered charts alongside.
package report

import (
	"embed"
	"encoding/json"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/avelasco/trainsight/internal/core"
	"github.com/avelasco/trainsight/internal/garmin"
)

//go:embed templates/report.html
var templateFS embed.FS

// Report is one completed analysis run.
type Report struct {
	RunID       string
	GeneratedAt time.Time
	AthleteName string
	Days        int
	Provider    string
	Model       string
	Activities  []garmin.Activity
	Body        []garmin.BodyComposition
	Analysis    string
}

// Stats summarizes the period for the report header.
type Stats struct {
	TotalActivities  int
	TotalDistanceKm  float64
	TotalDurationMin float64
	TotalCalories    int
	AvgHR            float64
	WeightStartKg    *float64
	WeightEndKg      *float64
	WeightChange     *float64
}

// NewReport stamps a run ID and timestamp onto the gathered results.
func NewReport(athlete string, days int, provider, model string,
	activities []garmin.Activity, body []garmin.BodyComposition, analysis string) *Report {
	return &Report{
		RunID:       uuid.NewString(),
		GeneratedAt: time.Now(),
		AthleteName: athlete,
		Days:        days,
		Provider:    provider,
		Model:       model,
		Activities:  activities,
		Body:        body,
		Analysis:    analysis,
	}
}

// ComputeStats derives the header statistics from the report data.
func (r *Report) ComputeStats() Stats {
	s := Stats{TotalActivities: len(r.Activities)}

	hrSum, hrCount := 0, 0
	for _, a := range r.Activities {
		s.TotalDistanceKm += a.DistanceKm()
		s.TotalDurationMin += a.DurationMinutes()
		if a.Calories != nil {
			s.TotalCalories += *a.Calories
		}
		if a.AverageHR != nil {
			hrSum += *a.AverageHR
			hrCount++
		}
	}
	if hrCount > 0 {
		s.AvgHR = float64(hrSum) / float64(hrCount)
	}

	for _, m := range r.Body {
		w := m.WeightKg()
		if w == nil {
			continue
		}
		if s.WeightStartKg == nil {
			s.WeightStartKg = w
		}
		s.WeightEndKg = w
	}
	if s.WeightStartKg != nil && s.WeightEndKg != nil {
		change := *s.WeightEndKg - *s.WeightStartKg
		s.WeightChange = &change
	}
	return s
}

// Writer renders a report into the output directory in every format.
type Writer struct {
	OutputDir string
	logger    *slog.Logger
}

// NewWriter creates the output directory if needed.
func NewWriter(outputDir string, logger *slog.Logger) (*Writer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create output directory %s", outputDir)
	}
	return &Writer{OutputDir: outputDir, logger: logger}, nil
}

// WriteAll writes the txt, md, json and html renditions plus charts, and
// returns the paths written. A failed chart degrades to a report without it.
func (w *Writer) WriteAll(r *Report) (map[string]string, error) {
	stamp := r.GeneratedAt.Format(core.StampFmt)
	paths := make(map[string]string)

	charts := w.renderCharts(r, stamp)

	writers := []struct {
		name string
		path string
		fn   func(*Report, string) error
	}{
		{"txt", filepath.Join(w.OutputDir, "analysis_"+stamp+".txt"), w.writeText},
		{"md", filepath.Join(w.OutputDir, "analysis_"+stamp+".md"), w.writeMarkdown},
		{"json", filepath.Join(w.OutputDir, "data_"+stamp+".json"), w.writeJSON},
	}
	for _, wr := range writers {
		if err := wr.fn(r, wr.path); err != nil {
			return nil, err
		}
		paths[wr.name] = wr.path
	}

	htmlPath := filepath.Join(w.OutputDir, "report_"+stamp+".html")
	if err := w.writeHTML(r, charts, htmlPath); err != nil {
		return nil, err
	}
	paths["html"] = htmlPath
	for name, p := range charts {
		paths["chart_"+name] = filepath.Join(w.OutputDir, p)
	}

	w.logger.Info("report written",
		slog.String("run_id", r.RunID),
		slog.String("dir", w.OutputDir),
		slog.Int("files", len(paths)))
	return paths, nil
}

func (w *Writer) renderCharts(r *Report, stamp string) ChartSet {
	charts := make(ChartSet)

	distPath := "chart_distance_" + stamp + ".html"
	if err := renderDistanceChart(r.Activities, filepath.Join(w.OutputDir, distPath)); err != nil {
		w.logger.Warn("distance chart failed", slog.Any("error", err))
	} else if len(r.Activities) > 0 {
		charts["distance"] = distPath
	}

	weightPath := "chart_weight_" + stamp + ".html"
	if err := renderWeightChart(r.Body, filepath.Join(w.OutputDir, weightPath)); err != nil {
		w.logger.Warn("weight chart failed", slog.Any("error", err))
	} else if hasWeight(r.Body) {
		charts["weight"] = weightPath
	}
	return charts
}

func hasWeight(body []garmin.BodyComposition) bool {
	for _, m := range body {
		if m.WeightKg() != nil {
			return true
		}
	}
	return false
}

func (w *Writer) writeText(r *Report, path string) error {
	var sb strings.Builder
	rule := strings.Repeat("=", 60)

	sb.WriteString(rule + "\n")
	sb.WriteString("TRAINING ANALYSIS REPORT\n")
	sb.WriteString(rule + "\n\n")
	fmt.Fprintf(&sb, "Athlete: %s\n", r.AthleteName)
	fmt.Fprintf(&sb, "Date: %s\n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "Period analyzed: last %d days\n", r.Days)
	fmt.Fprintf(&sb, "Activities analyzed: %d\n\n", len(r.Activities))
	sb.WriteString(rule + "\n")
	sb.WriteString("ANALYSIS AND RECOMMENDATIONS\n")
	sb.WriteString(rule + "\n\n")
	sb.WriteString(r.Analysis)
	sb.WriteString("\n")

	return writeFile(path, sb.String())
}

func (w *Writer) writeMarkdown(r *Report, path string) error {
	var sb strings.Builder

	sb.WriteString("# Training Analysis Report\n\n---\n\n")
	fmt.Fprintf(&sb, "**Athlete:** %s  \n", r.AthleteName)
	fmt.Fprintf(&sb, "**Analysis date:** %s  \n", r.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&sb, "**Period analyzed:** last %d days  \n", r.Days)
	fmt.Fprintf(&sb, "**Activities analyzed:** %d  \n", len(r.Activities))
	fmt.Fprintf(&sb, "**Model:** %s - %s  \n\n---\n\n", strings.ToUpper(r.Provider), r.Model)

	sb.WriteString("## Activity Summary\n\n")
	sb.WriteString("| # | Activity | Type | Date | Distance | Duration | Avg HR |\n")
	sb.WriteString("|---|----------|------|------|----------|----------|--------|\n")
	for idx, a := range r.Activities {
		name := a.Name
		if len(name) > 30 {
			name = name[:30]
		}
		hr := "-"
		if a.AverageHR != nil {
			hr = fmt.Sprintf("%d", *a.AverageHR)
		}
		fmt.Fprintf(&sb, "| %d | %s | %s | %s | %.2f km | %.0f min | %s bpm |\n",
			idx+1, name, a.Type.TypeKey, a.Date(), a.DistanceKm(), a.DurationMinutes(), hr)
	}

	sb.WriteString("\n---\n\n## Detailed Analysis\n\n")
	sb.WriteString(r.Analysis)
	sb.WriteString("\n\n---\n\n*Generated automatically by trainsight*\n")

	return writeFile(path, sb.String())
}

func (w *Writer) writeJSON(r *Report, path string) error {
	doc := map[string]any{
		"run_id":        r.RunID,
		"timestamp":     r.GeneratedAt.Format(core.StampFmt),
		"athlete":       r.AthleteName,
		"analysis_date": r.GeneratedAt.Format("2006-01-02 15:04:05"),
		"analysis_days": r.Days,
		"llm_provider":  r.Provider,
		"model":         r.Model,
		"activities":    r.Activities,
		"analysis":      r.Analysis,
	}
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode report JSON")
	}
	return writeFile(path, string(raw)+"\n")
}

func (w *Writer) writeHTML(r *Report, charts ChartSet, path string) error {
	funcs := template.FuncMap{
		"inc": func(i int) int { return i + 1 },
		"hr": func(v *int) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%d bpm", *v)
		},
	}
	tmpl, err := template.New("report.html").Funcs(funcs).ParseFS(templateFS, "templates/report.html")
	if err != nil {
		return errors.Wrap(err, "failed to parse report template")
	}

	activities := r.Activities
	if len(activities) > 20 {
		activities = activities[len(activities)-20:]
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	defer f.Close()

	data := struct {
		RunID       string
		GeneratedAt string
		AthleteName string
		Days        int
		Provider    string
		Model       string
		Stats       Stats
		Activities  []garmin.Activity
		Charts      ChartSet
		Analysis    string
	}{
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt.Format("2006-01-02 15:04:05"),
		AthleteName: r.AthleteName,
		Days:        r.Days,
		Provider:    strings.ToUpper(r.Provider),
		Model:       r.Model,
		Stats:       r.ComputeStats(),
		Activities:  activities,
		Charts:      charts,
		Analysis:    r.Analysis,
	}
	if err := tmpl.Execute(f, data); err != nil {
		return errors.Wrap(err, "failed to render report template")
	}
	return nil
}

func writeFile(path, content string) error {
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write %s", path)
	}
	return nil
}
