// report.go
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"MovieRuntime/src/processor"

	"github.com/xuri/excelize/v2"
)

// 工作表名称
const (
	SheetYearly    = "yearly"
	SheetBand      = "band"
	SheetIQR       = "iqr"
	SheetTopN      = "topn"
	SheetDecades   = "decades"
	SheetHistogram = "histogram"
	SheetSummary   = "summary"
)

// Sheets 报告中工作表的顺序
var Sheets = []string{SheetYearly, SheetBand, SheetIQR, SheetTopN, SheetDecades, SheetHistogram, SheetSummary}

// Write 将分析结果写成 xlsx 报告，先写临时文件再改名
func Write(filePath string, a *processor.Analysis) error {
	if a == nil {
		return fmt.Errorf("分析结果为空")
	}

	f := excelize.NewFile()
	defer f.Close()

	// 第一步：创建工作表，默认的 Sheet1 改名为第一个表
	if err := f.SetSheetName("Sheet1", Sheets[0]); err != nil {
		return err
	}
	for _, name := range Sheets[1:] {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("创建工作表 %s 失败: %w", name, err)
		}
	}

	// 第二步：写入数据
	writers := []func(*excelize.File, *processor.Analysis) error{
		writeYearly, writeBand, writeIQR, writeTopN, writeDecades, writeHistogram, writeSummary,
	}
	for _, w := range writers {
		if err := w(f, a); err != nil {
			return err
		}
	}

	// 第三步：图表
	if err := addCharts(f, a); err != nil {
		return fmt.Errorf("生成图表失败: %w", err)
	}

	// 第四步：保存
	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}
	tmp := filePath + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("保存报告失败: %w", err)
	}
	if err := os.Rename(tmp, filePath); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("保存报告失败: %w", err)
	}
	return nil
}

// writeRows 从 A1 开始逐行写入，NaN 写成空单元格
func writeRows(f *excelize.File, sheet string, header []interface{}, rows [][]interface{}) error {
	all := append([][]interface{}{header}, rows...)
	for i, row := range all {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = cellValue(v)
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("写入 %s 第 %d 行失败: %w", sheet, i+1, err)
		}
	}
	return nil
}

func cellValue(v interface{}) interface{} {
	if x, ok := v.(float64); ok && (math.IsNaN(x) || math.IsInf(x, 0)) {
		return nil
	}
	return v
}

func proportion(p processor.Proportion) interface{} {
	if !p.Defined {
		return nil
	}
	return p.Value
}

func writeYearly(f *excelize.File, a *processor.Analysis) error {
	header := []interface{}{"year", "count", "mean", "std", "min", "q25", "q50", "q75", "max", "in_band", "target"}
	rows := make([][]interface{}, len(a.Yearly))
	for i, s := range a.Yearly {
		rows[i] = []interface{}{s.Year, s.Count, s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max, proportion(s.InBand), a.BandTarget}
	}
	return writeRows(f, SheetYearly, header, rows)
}

func writeBand(f *excelize.File, a *processor.Analysis) error {
	header := []interface{}{"year", "mean", "lower", "upper"}
	rows := make([][]interface{}, len(a.Band))
	for i, b := range a.Band {
		rows[i] = []interface{}{b.Year, b.Center, b.Lower, b.Upper}
	}
	return writeRows(f, SheetBand, header, rows)
}

func writeIQR(f *excelize.File, a *processor.Analysis) error {
	header := []interface{}{"year", "median", "q25", "q75"}
	rows := make([][]interface{}, len(a.IQR))
	for i, b := range a.IQR {
		rows[i] = []interface{}{b.Year, b.Center, b.Lower, b.Upper}
	}
	return writeRows(f, SheetIQR, header, rows)
}

// writeTopN 每个 N 一列均值，按年份对齐；最后一行为各年均值的平均
func writeTopN(f *excelize.File, a *processor.Analysis) error {
	header := []interface{}{"year"}
	years := topNYears(a.TopN)
	index := make(map[int]int, len(years))
	rows := make([][]interface{}, len(years)+1)
	for i, y := range years {
		index[y] = i
		rows[i] = make([]interface{}, len(a.TopN)+1)
		rows[i][0] = y
	}
	total := make([]interface{}, len(a.TopN)+1)
	total[0] = "total_mean"

	for j, s := range a.TopN {
		header = append(header, s.Label)
		for _, st := range s.Stats {
			rows[index[st.Year]][j+1] = st.Mean
		}
		total[j+1] = s.MeanOfMeans
	}
	rows[len(years)] = total
	return writeRows(f, SheetTopN, header, rows)
}

// topNYears 所有序列中出现过的年份，升序
func topNYears(series []processor.TopNSeries) []int {
	seen := make(map[int]bool)
	var years []int
	for _, s := range series {
		for _, st := range s.Stats {
			if !seen[st.Year] {
				seen[st.Year] = true
				years = append(years, st.Year)
			}
		}
	}
	sort.Ints(years)
	return years
}

func writeDecades(f *excelize.File, a *processor.Analysis) error {
	header := []interface{}{"decade", "count", "min", "lower_whisker", "q25", "median", "q75", "upper_whisker", "max"}
	rows := make([][]interface{}, len(a.Decades))
	for i, d := range a.Decades {
		rows[i] = []interface{}{d.Decade, d.Count, d.Min, d.LowerWhisker, d.Q25, d.Q50, d.Q75, d.UpperWhisker, d.Max}
	}
	return writeRows(f, SheetDecades, header, rows)
}

func writeHistogram(f *excelize.File, a *processor.Analysis) error {
	header := []interface{}{"lower", "upper", "count"}
	rows := make([][]interface{}, len(a.Histogram))
	for i, b := range a.Histogram {
		rows[i] = []interface{}{b.Lower, b.Upper, b.Count}
	}
	return writeRows(f, SheetHistogram, header, rows)
}

func writeSummary(f *excelize.File, a *processor.Analysis) error {
	rows := [][]interface{}{
		{"rows", a.Rows},
		{"year_floor", a.YearFloor},
		{"runtime_mean", a.Overall.Mean},
		{"runtime_std", a.Overall.Std},
		{"runtime_min", a.Overall.Min},
		{"runtime_q25", a.Overall.Q25},
		{"runtime_median", a.Overall.Q50},
		{"runtime_q75", a.Overall.Q75},
		{"runtime_max", a.Overall.Max},
		{"in_band_years", a.InBand.Count},
		{"in_band_mean", a.InBand.Mean},
		{"in_band_min", a.InBand.Min},
		{"in_band_max", a.InBand.Max},
		{"band_target", a.BandTarget},
		{"coverage_min_count", a.Coverage.MinCount},
	}
	if a.Coverage.Found {
		rows = append(rows, []interface{}{"coverage_from", a.Coverage.Year})
	} else {
		rows = append(rows, []interface{}{"coverage_from", "none"})
	}
	for _, s := range a.TopN {
		rows = append(rows, []interface{}{s.Label + "_mean", s.MeanOfMeans})
	}
	return writeRows(f, SheetSummary, []interface{}{"key", "value"}, rows)
}
