package processor

import (
	"MovieRuntime/src/config"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Coverage 从哪一年开始每年的影片数都达到 MinCount
type Coverage struct {
	Year     int
	Found    bool
	MinCount int
}

// Analysis 分析阶段的全部结果，供报告和图表使用
type Analysis struct {
	Rows       int     // startYear > YearFloor 之后的行数
	YearFloor  int
	Overall    Summary // 全部片长的描述统计
	Yearly     []YearStats
	Band       []BandPoint // mean ± std
	IQR        []BandPoint // 中位数及四分位数
	InBand     Summary     // 区间内比例的描述统计
	BandTarget float64     // 图表中的参考线
	TopNFloor  int
	TopN       []TopNSeries
	DecadeSize int
	Decades    []DecadeBox
	Counts     []YearCount
	Coverage   Coverage
	Histogram  []Bin
}

// Analyze 对清洗后的表做全部分析
func Analyze(df dataframe.DataFrame, dcfg *config.DataConfig) (*Analysis, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	if err := requireColumns(df, CleanedColumns...); err != nil {
		return nil, err
	}
	if df.Nrow() == 0 {
		return nil, fmt.Errorf("%w: 清洗结果为空", ErrEmptyTable)
	}

	// 早期年份的数据很少，先去掉
	df = df.Filter(dataframe.F{Colname: ColStartYear, Comparator: series.Greater, Comparando: dcfg.YearFloor})
	if df.Err != nil {
		return nil, fmt.Errorf("year floor: %w", df.Err)
	}

	movies, err := Movies(df)
	if err != nil {
		return nil, err
	}
	if len(movies) == 0 {
		return nil, fmt.Errorf("%w: startYear > %d 的影片为 0", ErrEmptyTable, dcfg.YearFloor)
	}

	runtimes := Runtimes(movies)
	groups := GroupByYear(movies)
	yearly := Yearly(groups)
	counts := YearCounts(groups)

	a := &Analysis{
		Rows:       len(movies),
		YearFloor:  dcfg.YearFloor,
		Overall:    Describe(runtimes),
		Yearly:     yearly,
		Band:       Band(yearly),
		IQR:        IQRBand(yearly),
		InBand:     ProportionSummary(yearly),
		BandTarget: dcfg.BandTarget,
		TopNFloor:  dcfg.TopNYearFloor,
		TopN:       TopN(movies, dcfg.TopNYearFloor, dcfg.TopN),
		DecadeSize: dcfg.DecadeSize,
		Decades:    Decades(movies, dcfg.DecadeSize),
		Counts:     counts,
		Histogram:  Histogram(runtimes, float64(dcfg.HistogramMin), float64(dcfg.HistogramMax), dcfg.HistogramBins),
	}

	a.Coverage.MinCount = dcfg.CoverageMinCount
	a.Coverage.Year, a.Coverage.Found = FirstCompleteYear(counts, dcfg.CoverageMinCount)

	return a, nil
}
