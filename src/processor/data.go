// data.go
package processor

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// 数据源及清洗结果中的列名
const (
	ColID        = "tconst"
	ColTitleType = "titleType"
	ColGenres    = "genres"
	ColStartYear = "startYear"
	ColRuntime   = "runtimeMinutes"
	ColVotes     = "numVotes"
)

var (
	// BasicsColumns 影片基础信息中需要读取的列
	BasicsColumns = []string{ColID, ColTitleType, ColGenres, ColStartYear, ColRuntime}
	// RatingsColumns 评分信息中需要读取的列
	RatingsColumns = []string{ColID, ColVotes}
	// CleanedColumns 清洗结果的列，顺序即输出顺序
	CleanedColumns = []string{ColStartYear, ColRuntime, ColVotes}
	// CleanedTypes 读取清洗结果时使用的列类型
	CleanedTypes = map[string]series.Type{
		ColStartYear: series.Int,
		ColRuntime:   series.Int,
		ColVotes:     series.Int,
	}
)

var (
	ErrMissingColumn = errors.New("缺少必要的列")
	ErrDuplicateKey  = errors.New("关联键重复")
	ErrEmptyTable    = errors.New("没有可分析的数据")
)

// Movie 清洗后的一行数据
type Movie struct {
	Year    int
	Runtime int
	Votes   int
}

// Movies 将清洗后的 DataFrame 转为行切片，保持原有行顺序
func Movies(df dataframe.DataFrame) ([]Movie, error) {
	if df.Err != nil {
		return nil, df.Err
	}
	for _, name := range CleanedColumns {
		if !hasColumn(df, name) {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	years, err := df.Col(ColStartYear).Int()
	if err != nil {
		return nil, fmt.Errorf("%s 含有非整数值: %w", ColStartYear, err)
	}
	runtimes, err := df.Col(ColRuntime).Int()
	if err != nil {
		return nil, fmt.Errorf("%s 含有非整数值: %w", ColRuntime, err)
	}
	votes, err := df.Col(ColVotes).Int()
	if err != nil {
		return nil, fmt.Errorf("%s 含有非整数值: %w", ColVotes, err)
	}

	movies := make([]Movie, len(years))
	for i := range years {
		movies[i] = Movie{Year: years[i], Runtime: runtimes[i], Votes: votes[i]}
	}
	return movies, nil
}

// Runtimes 取出所有片长
func Runtimes(movies []Movie) []float64 {
	out := make([]float64, len(movies))
	for i, m := range movies {
		out[i] = float64(m.Runtime)
	}
	return out
}

// YearsAfter 返回 startYear > floor 的行，保持原有顺序
func YearsAfter(movies []Movie, floor int) []Movie {
	var out []Movie
	for _, m := range movies {
		if m.Year > floor {
			out = append(out, m)
		}
	}
	return out
}
