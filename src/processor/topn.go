package processor

import "fmt"

// TopNSeries 每年只取前 N 行(按原有行顺序，不按热度排序)后的年度统计
type TopNSeries struct {
	Label       string
	N           int // 0 表示全部
	Stats       []YearStats
	MeanOfMeans float64 // 各年均值的平均
}

// HeadPerYear 每个年份保留最先出现的 n 行，n <= 0 时全部保留
func HeadPerYear(movies []Movie, n int) []Movie {
	if n <= 0 {
		return append([]Movie(nil), movies...)
	}

	seen := make(map[int]int)
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if seen[m.Year] >= n {
			continue
		}
		seen[m.Year]++
		out = append(out, m)
	}
	return out
}

// TopNLabel 对应 N 的名称，如 top_10；0 为 all
func TopNLabel(n int) string {
	if n <= 0 {
		return "all"
	}
	return fmt.Sprintf("top_%d", n)
}

// TopN 只保留 startYear > floor 的行，再对每个 N 计算年度统计
func TopN(movies []Movie, floor int, ns []int) []TopNSeries {
	recent := YearsAfter(movies, floor)

	out := make([]TopNSeries, 0, len(ns))
	for _, n := range ns {
		stats := Yearly(GroupByYear(HeadPerYear(recent, n)))
		means := make([]float64, len(stats))
		for i, s := range stats {
			means[i] = s.Mean
		}
		out = append(out, TopNSeries{
			Label:       TopNLabel(n),
			N:           n,
			Stats:       stats,
			MeanOfMeans: meanOf(means),
		})
	}
	return out
}
