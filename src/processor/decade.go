package processor

import "sort"

// DecadeBox 某个年代的片长分布(箱线图所需数据，不含离群点)
type DecadeBox struct {
	Decade int
	Summary
	LowerWhisker float64 // 不小于 Q25-1.5*IQR 的最小值
	UpperWhisker float64 // 不大于 Q75+1.5*IQR 的最大值
}

// DecadeOf 向下取整到 size 的整数倍，例如 1987 -> 1980
func DecadeOf(year, size int) int {
	q := year / size
	if year%size != 0 && year < 0 {
		q--
	}
	return q * size
}

// Decades 按年代分组计算分布，年代升序
func Decades(movies []Movie, size int) []DecadeBox {
	buckets := make(map[int][]float64)
	for _, m := range movies {
		d := DecadeOf(m.Year, size)
		buckets[d] = append(buckets[d], float64(m.Runtime))
	}

	decades := make([]int, 0, len(buckets))
	for d := range buckets {
		decades = append(decades, d)
	}
	sort.Ints(decades)

	out := make([]DecadeBox, len(decades))
	for i, d := range decades {
		values := buckets[d]
		s := Describe(values)
		box := DecadeBox{Decade: d, Summary: s}

		iqr := s.Q75 - s.Q25
		lo, hi := s.Q25-1.5*iqr, s.Q75+1.5*iqr
		box.LowerWhisker, box.UpperWhisker = s.Max, s.Min
		for _, v := range values {
			if v >= lo && v < box.LowerWhisker {
				box.LowerWhisker = v
			}
			if v <= hi && v > box.UpperWhisker {
				box.UpperWhisker = v
			}
		}
		out[i] = box
	}
	return out
}
