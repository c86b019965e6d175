package detds

// Class distribution charts.

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

const chartTitle = "Class Distribution"

// SavePlot writes a bar chart of the class counts to path. The image format follows the file
// extension (png, jpg, svg, pdf, ...). Bars use the category colors.
func (s *Statistics) SavePlot(path string, categories CategoryTable) error {
	p := plot.New()
	p.Title.Text = chartTitle
	p.Y.Label.Text = "Annotations"

	for i, name := range s.ClassNames {
		bars, err := plotter.NewBarChart(plotter.Values{float64(s.ClassCounts[name])}, vg.Points(20))
		if err != nil {
			return errors.Wrapf(err, "cannot plot class %q", name)
		}
		bars.XMin = float64(i)
		bars.Color = categories.Color(i)
		bars.LineStyle.Width = vg.Length(0)
		p.Add(bars)
	}
	p.NominalX(s.ClassNames...)

	width := vg.Length(len(s.ClassNames)+2) * vg.Inch * 0.6
	if err := p.Save(width, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "cannot save plot %q", path)
	}
	log.Printf("Class distribution plot saved to %s", path)
	return nil
}

// RenderChart writes an interactive HTML bar chart of the class counts to w.
func (s *Statistics) RenderChart(w io.Writer, categories CategoryTable) error {
	data := make([]opts.BarData, 0, len(s.ClassNames))
	for i, name := range s.ClassNames {
		data = append(data, opts.BarData{
			Name:      name,
			Value:     s.ClassCounts[name],
			ItemStyle: &opts.ItemStyle{Color: hexColor(categories.Color(i))},
		})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: chartTitle, Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    chartTitle,
			Subtitle: fmt.Sprintf("images=%d annotations=%d", s.TotalImages(), s.TotalAnnotations()),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(s.ClassNames).
		AddSeries("annotations", data,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	return bar.Render(w)
}

// hexColor formats c as #rrggbb.
func hexColor(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}
