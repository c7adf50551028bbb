package processor

// FirstCompleteYear 返回最小的年份 Y，使得 Y 及之后的每一年影片数都不少于 minCount
// counts 需按年份升序；中间缺失的年份按 0 部处理。从最后一年往前扫描，
// 遇到第一个不满足的年份即停止。最后一年本身不满足时 ok 为 false
func FirstCompleteYear(counts []YearCount, minCount int) (year int, ok bool) {
	for i := len(counts) - 1; i >= 0; i-- {
		if counts[i].Count < minCount {
			break
		}
		if i < len(counts)-1 && counts[i+1].Year != counts[i].Year+1 && minCount > 0 {
			break
		}
		year, ok = counts[i].Year, true
	}
	return year, ok
}
