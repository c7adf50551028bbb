package processor

import (
	"math"
	"sort"
)

// YearGroup 某一年的所有片长，保持原有行顺序
type YearGroup struct {
	Year     int
	Runtimes []float64
}

// YearStats 某一年的描述统计以及落在 mean±std 区间内的比例
type YearStats struct {
	Year int
	Summary
	InBand Proportion
}

// Proportion 一个可能无定义的比例，年份没有数据时 Defined 为 false
type Proportion struct {
	Value   float64
	Defined bool
}

// BandPoint 某一年的中心线及上下边界
type BandPoint struct {
	Year   int
	Center float64
	Lower  float64
	Upper  float64
}

// GroupByYear 一次遍历按年份分组，年份升序
func GroupByYear(movies []Movie) []YearGroup {
	pos := make(map[int]int)
	var groups []YearGroup
	for _, m := range movies {
		i, ok := pos[m.Year]
		if !ok {
			i = len(groups)
			pos[m.Year] = i
			groups = append(groups, YearGroup{Year: m.Year})
		}
		groups[i].Runtimes = append(groups[i].Runtimes, float64(m.Runtime))
	}

	sort.Slice(groups, func(a, b int) bool { return groups[a].Year < groups[b].Year })
	return groups
}

// Yearly 计算每年的描述统计及区间内比例，年份升序
func Yearly(groups []YearGroup) []YearStats {
	stats := make([]YearStats, len(groups))
	for i, g := range groups {
		stats[i] = YearStats{Year: g.Year, Summary: Describe(g.Runtimes)}
	}

	band := Band(stats)
	for i, p := range InBand(groups, band) {
		stats[i].InBand = p
	}
	return stats
}

// Band 均值加减一个标准差
func Band(stats []YearStats) []BandPoint {
	out := make([]BandPoint, len(stats))
	for i, s := range stats {
		out[i] = BandPoint{Year: s.Year, Center: s.Mean, Lower: s.Mean - s.Std, Upper: s.Mean + s.Std}
	}
	return out
}

// IQRBand 中位数及上下四分位数
func IQRBand(stats []YearStats) []BandPoint {
	out := make([]BandPoint, len(stats))
	for i, s := range stats {
		out[i] = BandPoint{Year: s.Year, Center: s.Q50, Lower: s.Q25, Upper: s.Q75}
	}
	return out
}

// InBand 每年片长严格位于 (Lower, Upper) 内的比例
// groups 与 band 按年份对应；band 中没有的年份视为无定义
func InBand(groups []YearGroup, band []BandPoint) []Proportion {
	byYear := make(map[int]BandPoint, len(band))
	for _, b := range band {
		byYear[b.Year] = b
	}

	out := make([]Proportion, len(groups))
	for i, g := range groups {
		b, ok := byYear[g.Year]
		if !ok {
			continue
		}
		out[i] = ProportionWithin(g.Runtimes, b.Lower, b.Upper)
	}
	return out
}

// ProportionWithin 计算 lower < v < upper 的比例；没有数据时返回无定义，不做除法
// 边界为 NaN(例如只有一部影片，标准差无定义)时没有值满足条件，比例为 0
func ProportionWithin(values []float64, lower, upper float64) Proportion {
	if len(values) == 0 {
		return Proportion{Value: math.NaN()}
	}
	var inside int
	for _, v := range values {
		if v > lower && v < upper {
			inside++
		}
	}
	return Proportion{Value: float64(inside) / float64(len(values)), Defined: true}
}

// ProportionSummary 对所有有定义的比例做描述统计
func ProportionSummary(stats []YearStats) Summary {
	var values []float64
	for _, s := range stats {
		if s.InBand.Defined {
			values = append(values, s.InBand.Value)
		}
	}
	return Describe(values)
}

// YearCount 某一年的影片数量
type YearCount struct {
	Year  int
	Count int
}

// YearCounts 每年影片数，年份升序
func YearCounts(groups []YearGroup) []YearCount {
	out := make([]YearCount, len(groups))
	for i, g := range groups {
		out[i] = YearCount{Year: g.Year, Count: len(g.Runtimes)}
	}
	return out
}
