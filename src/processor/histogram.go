package processor

// Bin 直方图的一个区间 [Lower, Upper)，最后一个区间包含 Upper
type Bin struct {
	Lower float64
	Upper float64
	Count int
}

// Histogram 将 [lo, hi] 等分为 bins 个区间计数，范围外的值忽略
func Histogram(values []float64, lo, hi float64, bins int) []Bin {
	if bins <= 0 || hi <= lo {
		return nil
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, v := range values {
		if v < lo || v > hi {
			continue
		}
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out
}
