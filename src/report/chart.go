package report

import (
	"fmt"

	"MovieRuntime/src/processor"

	"github.com/xuri/excelize/v2"
)

// columnRange 返回 sheet 中某列第 2 行到第 last 行的引用，如 yearly!$C$2:$C$90
func columnRange(sheet string, col, last int) string {
	name, _ := excelize.ColumnNumberToName(col)
	return fmt.Sprintf("%s!$%s$2:$%s$%d", sheet, name, name, last)
}

func lineChart(title string, series []excelize.ChartSeries) *excelize.Chart {
	return &excelize.Chart{
		Type:      excelize.Line,
		Series:    series,
		Title:     []excelize.RichTextRun{{Text: title}},
		Legend:    excelize.ChartLegend{Position: "bottom"},
		Dimension: excelize.ChartDimension{Width: 960, Height: 400},
	}
}

// addCharts 为年度序列添加折线图，每张图放在对应工作表数据的右侧
func addCharts(f *excelize.File, a *processor.Analysis) error {
	// 数据行从第 2 行开始，last 为最后一行的行号
	if n := len(a.Yearly); n > 0 {
		last := n + 1
		cats := columnRange(SheetBand, 1, last)
		band := lineChart("Runtime mean ± std", []excelize.ChartSeries{
			{Name: SheetBand + "!$B$1", Categories: cats, Values: columnRange(SheetBand, 2, last)},
			{Name: SheetBand + "!$C$1", Categories: cats, Values: columnRange(SheetBand, 3, last)},
			{Name: SheetBand + "!$D$1", Categories: cats, Values: columnRange(SheetBand, 4, last)},
		})
		if err := f.AddChart(SheetBand, "F2", band); err != nil {
			return err
		}

		cats = columnRange(SheetIQR, 1, last)
		iqr := lineChart("Runtime median and interquartile range", []excelize.ChartSeries{
			{Name: SheetIQR + "!$B$1", Categories: cats, Values: columnRange(SheetIQR, 2, last)},
			{Name: SheetIQR + "!$C$1", Categories: cats, Values: columnRange(SheetIQR, 3, last)},
			{Name: SheetIQR + "!$D$1", Categories: cats, Values: columnRange(SheetIQR, 4, last)},
		})
		if err := f.AddChart(SheetIQR, "F2", iqr); err != nil {
			return err
		}

		cats = columnRange(SheetYearly, 1, last)
		prop := lineChart("Share of runtimes within mean ± std", []excelize.ChartSeries{
			{Name: SheetYearly + "!$J$1", Categories: cats, Values: columnRange(SheetYearly, 10, last)},
			{Name: SheetYearly + "!$K$1", Categories: cats, Values: columnRange(SheetYearly, 11, last)},
		})
		if err := f.AddChart(SheetYearly, "M2", prop); err != nil {
			return err
		}
	}

	// topn 表最后一行是 total_mean，不参与作图
	if years := len(topNYears(a.TopN)); years > 0 {
		last := years + 1
		cats := columnRange(SheetTopN, 1, last)
		series := make([]excelize.ChartSeries, len(a.TopN))
		for j := range a.TopN {
			col, _ := excelize.ColumnNumberToName(j + 2)
			series[j] = excelize.ChartSeries{
				Name:       fmt.Sprintf("%s!$%s$1", SheetTopN, col),
				Categories: cats,
				Values:     columnRange(SheetTopN, j+2, last),
			}
		}
		chart := lineChart(fmt.Sprintf("Mean runtime of the first N titles per year (after %d)", a.TopNFloor), series)
		col, _ := excelize.ColumnNumberToName(len(a.TopN) + 3)
		if err := f.AddChart(SheetTopN, col+"2", chart); err != nil {
			return err
		}
	}

	if len(a.Histogram) > 0 {
		last := len(a.Histogram) + 1
		hist := &excelize.Chart{
			Type: excelize.Col,
			Series: []excelize.ChartSeries{{
				Name:       SheetHistogram + "!$C$1",
				Categories: columnRange(SheetHistogram, 1, last),
				Values:     columnRange(SheetHistogram, 3, last),
			}},
			Title:  []excelize.RichTextRun{{Text: "Runtime distribution"}},
			Legend: excelize.ChartLegend{Position: "none"},
		}
		if err := f.AddChart(SheetHistogram, "E2", hist); err != nil {
			return err
		}
	}
	return nil
}
