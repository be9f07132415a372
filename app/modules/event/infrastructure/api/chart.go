package eventapi

import (
	"bytes"
	"fmt"

	eventdomain "github.com/Black-And-White-Club/roster-bot/app/modules/event/domain"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	fillColor = drawing.ColorFromHex("3B82F6")
	fullColor = drawing.ColorFromHex("16A34A")
)

// CompositionChart renders one bar per signed role showing how many players it holds.
// Full roles are drawn in a second color. Labels carry "filled/capacity".
func CompositionChart(rec *eventdomain.EventRecord) ([]byte, error) {
	var bars []chart.Value
	top := 1.0
	for _, bucket := range rec.Roster.Buckets() {
		if bucket.Role.IsBackup() {
			continue
		}
		n := float64(bucket.Len())
		style := chart.Style{FillColor: fillColor, StrokeColor: fillColor}
		if bucket.IsFull() {
			style = chart.Style{FillColor: fullColor, StrokeColor: fullColor}
		}
		if limit, ok := bucket.Capacity.Max(); ok && float64(limit) > top {
			top = float64(limit)
		}
		if n > top {
			top = n
		}
		bars = append(bars, chart.Value{
			Label: fmt.Sprintf("%s %d/%s", bucket.Role.Label(), bucket.Len(), bucket.Capacity.String()),
			Value: n,
			Style: style,
		})
	}

	graph := chart.BarChart{
		Title:    rec.Title,
		Width:    160 * max(len(bars), 3),
		Height:   400,
		BarWidth: 60,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: top},
		},
		Bars: bars,
	}

	buffer := bytes.NewBuffer([]byte{})
	if err := graph.Render(chart.PNG, buffer); err != nil {
		return nil, err
	}
	return buffer.Bytes(), nil
}
