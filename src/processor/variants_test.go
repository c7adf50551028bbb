package processor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadPerYearKeepsFirstRowsInOrder(t *testing.T) {
	movies := []Movie{
		{Year: 2000, Runtime: 150, Votes: 10},
		{Year: 2001, Runtime: 90},
		{Year: 2000, Runtime: 80, Votes: 99999},
		{Year: 2000, Runtime: 120},
		{Year: 2000, Runtime: 60},
		{Year: 2000, Runtime: 200},
	}

	head := HeadPerYear(movies, 3)
	var y2000 []int
	for _, m := range head {
		if m.Year == 2000 {
			y2000 = append(y2000, m.Runtime)
		}
	}
	assert.Equal(t, []int{150, 80, 120}, y2000)
	assert.Len(t, head, 4)

	assert.Equal(t, movies, HeadPerYear(movies, 0))
}

func TestTopNRestrictsYearsAndLabels(t *testing.T) {
	movies := append(moviesOf(1960, 500), moviesOf(1961, 100, 120, 140)...)
	movies = append(movies, moviesOf(1962, 90, 110)...)

	series := TopN(movies, 1960, []int{1, 0})
	require.Len(t, series, 2)

	top1 := series[0]
	assert.Equal(t, "top_1", top1.Label)
	require.Len(t, top1.Stats, 2)
	assert.Equal(t, 1961, top1.Stats[0].Year)
	assert.Equal(t, 100.0, top1.Stats[0].Mean)
	assert.Equal(t, 90.0, top1.Stats[1].Mean)
	assert.InDelta(t, 95.0, top1.MeanOfMeans, 1e-9)

	all := series[1]
	assert.Equal(t, "all", all.Label)
	assert.Equal(t, 120.0, all.Stats[0].Mean)
	assert.Equal(t, 100.0, all.Stats[1].Mean)
	assert.InDelta(t, 110.0, all.MeanOfMeans, 1e-9)
}

func TestTopNEmpty(t *testing.T) {
	series := TopN(moviesOf(1950, 90), 1960, []int{10})
	require.Len(t, series, 1)
	assert.Empty(t, series[0].Stats)
	assert.True(t, math.IsNaN(series[0].MeanOfMeans))
}

func TestDecadeOf(t *testing.T) {
	tests := []struct {
		year, size, want int
	}{
		{1987, 10, 1980},
		{1990, 10, 1990},
		{1999, 10, 1990},
		{2024, 25, 2000},
		{-5, 10, -10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DecadeOf(tt.year, tt.size), tt.year)
	}
}

func TestDecades(t *testing.T) {
	movies := append(moviesOf(1987, 90, 100), moviesOf(1981, 110)...)
	movies = append(movies, moviesOf(1990, 95)...)

	boxes := Decades(movies, 10)
	require.Len(t, boxes, 2)
	assert.Equal(t, 1980, boxes[0].Decade)
	assert.Equal(t, 3, boxes[0].Count)
	assert.Equal(t, 100.0, boxes[0].Q50)
	assert.Equal(t, 90.0, boxes[0].LowerWhisker)
	assert.Equal(t, 110.0, boxes[0].UpperWhisker)
	assert.Equal(t, 1990, boxes[1].Decade)
}

func TestDecadesWhiskersExcludeOutliers(t *testing.T) {
	movies := moviesOf(2000, 90, 92, 94, 96, 98, 400)
	boxes := Decades(movies, 10)
	require.Len(t, boxes, 1)
	assert.Equal(t, 400.0, boxes[0].Max)
	assert.Equal(t, 98.0, boxes[0].UpperWhisker)
	assert.Equal(t, 90.0, boxes[0].LowerWhisker)
}

func TestFirstCompleteYear(t *testing.T) {
	tests := []struct {
		name     string
		counts   []YearCount
		wantYear int
		wantOK   bool
	}{
		{
			name:     "suffix after a dip",
			counts:   []YearCount{{1932, 40}, {1933, 10}, {1934, 31}, {1935, 30}, {1936, 50}},
			wantYear: 1934, wantOK: true,
		},
		{
			// 早期偶然达标的年份不会被当成起点
			name:     "early spike ignored",
			counts:   []YearCount{{1932, 100}, {1933, 100}, {1934, 5}, {1935, 40}},
			wantYear: 1935, wantOK: true,
		},
		{
			name:     "gap counts as zero",
			counts:   []YearCount{{1940, 50}, {1942, 50}, {1943, 50}},
			wantYear: 1942, wantOK: true,
		},
		{
			name:   "latest year short",
			counts: []YearCount{{1940, 50}, {1941, 29}},
			wantOK: false,
		},
		{
			name:     "all complete",
			counts:   []YearCount{{1940, 30}, {1941, 30}},
			wantYear: 1940, wantOK: true,
		},
		{
			name:   "empty",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			year, ok := FirstCompleteYear(tt.counts, 30)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.wantYear, year)
			}
		})
	}
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{40, 49.9, 50, 199, 200, 201, 39}, 40, 200, 16)
	require.Len(t, bins, 16)
	assert.Equal(t, 40.0, bins[0].Lower)
	assert.Equal(t, 50.0, bins[0].Upper)
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Equal(t, 2, bins[15].Count)

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 5, total)

	assert.Nil(t, Histogram([]float64{1}, 10, 10, 4))
}
