package report

import (
	"io"
	"os"
	"path/filepath"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"

	"github.com/avelasco/trainsight/internal/garmin"
)

// ChartSet holds the paths of the rendered chart files, keyed by chart name.
type ChartSet map[string]string

// renderDistanceChart plots distance per activity over the period.
func renderDistanceChart(activities []garmin.Activity, path string) error {
	if len(activities) == 0 {
		return nil
	}

	dates := make([]string, 0, len(activities))
	points := make([]opts.BarData, 0, len(activities))
	for _, a := range activities {
		dates = append(dates, a.Date())
		points = append(points, opts.BarData{Value: a.DistanceKm()})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Distance per activity (km)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(dates).AddSeries("distance", points)

	return renderChart(bar, path)
}

// renderWeightChart plots the weight trend from scale measurements.
func renderWeightChart(body []garmin.BodyComposition, path string) error {
	dates := make([]string, 0, len(body))
	points := make([]opts.LineData, 0, len(body))
	for _, m := range body {
		w := m.WeightKg()
		if w == nil {
			continue
		}
		dates = append(dates, m.CalendarDate)
		points = append(points, opts.LineData{Value: *w})
	}
	if len(points) == 0 {
		return nil
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Weight trend (kg)"}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	line.SetXAxis(dates).AddSeries("weight", points,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return renderChart(line, path)
}

type renderer interface {
	Render(w io.Writer) error
}

func renderChart(c renderer, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create chart file %s", path)
	}
	defer f.Close()
	if err := c.Render(f); err != nil {
		return errors.Wrapf(err, "failed to render chart %s", filepath.Base(path))
	}
	return nil
}
