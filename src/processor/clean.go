package processor

import (
	"MovieRuntime/src/config"
	"MovieRuntime/src/utils"
	"fmt"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CleanOptions 清洗阶段的阈值
type CleanOptions struct {
	TitleTypes    []string // 保留的影片类型
	ExcludedGenre string   // 含有该类型标签的影片被去掉
	MinRuntime    int      // 片长必须严格大于该值
	MinVotes      int      // 投票数必须大于等于该值
}

// NewCleanOptions 从数据配置生成清洗选项
func NewCleanOptions(dcfg *config.DataConfig) CleanOptions {
	return CleanOptions{
		TitleTypes:    dcfg.TitleTypes,
		ExcludedGenre: dcfg.ExcludedGenre,
		MinRuntime:    dcfg.MinRuntime,
		MinVotes:      dcfg.MinVotes,
	}
}

// StepCount 某一步之后剩余的行数
type StepCount struct {
	Step string
	Rows int
}

// CleanStats 清洗过程中每一步的行数
type CleanStats struct {
	Steps []StepCount
}

func (s *CleanStats) add(step string, rows int) {
	s.Steps = append(s.Steps, StepCount{Step: step, Rows: rows})
}

// Rows 返回某一步之后的行数，没有该步骤时返回 -1
func (s CleanStats) Rows(step string) int {
	for _, c := range s.Steps {
		if c.Step == step {
			return c.Rows
		}
	}
	return -1
}

// 清洗步骤名称
const (
	StepBasics    = "basics"
	StepRatings   = "ratings"
	StepMerge     = "merge"
	StepTitleType = "title_type"
	StepGenre     = "genre"
	StepDropNA    = "dropna"
	StepRuntime   = "runtime"
	StepVotes     = "votes"
)

// Clean 合并影片信息与评分并清洗，返回只含 startYear, runtimeMinutes, numVotes 三列的表
func Clean(basics, ratings dataframe.DataFrame, opts CleanOptions) (dataframe.DataFrame, CleanStats, error) {
	var stats CleanStats

	if err := requireColumns(basics, BasicsColumns...); err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("basics: %w", err)
	}
	if err := requireColumns(ratings, RatingsColumns...); err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("ratings: %w", err)
	}
	stats.add(StepBasics, basics.Nrow())
	stats.add(StepRatings, ratings.Nrow())

	// 第一步：按 tconst 内连接，只在一侧出现的影片被丢弃(这本身就是一次过滤)
	df, err := InnerJoin(basics, ratings, ColID)
	if err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("merge: %w", err)
	}
	stats.add(StepMerge, df.Nrow())

	// 第二步：只保留电影和电视电影
	df = df.Filter(dataframe.F{
		Colname:    ColTitleType,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return !el.IsNA() && utils.Contains(opts.TitleTypes, el.String())
		},
	})
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("title type: %w", df.Err)
	}
	stats.add(StepTitleType, df.Nrow())

	// 第三步：去掉带纪录片标签的影片，没有类型信息的影片保留
	df = df.Filter(dataframe.F{
		Colname:    ColGenres,
		Comparator: series.CompFunc,
		Comparando: func(el series.Element) bool {
			return el.IsNA() || !HasGenre(el.String(), opts.ExcludedGenre)
		},
	})
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("genre: %w", df.Err)
	}
	stats.add(StepGenre, df.Nrow())

	// 第四步：只保留需要的三列，并转换为整数，无法转换的值成为缺失值
	df = df.Select(CleanedColumns)
	for _, name := range CleanedColumns {
		df = df.Mutate(series.New(df.Col(name).Records(), series.Int, name))
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("coerce: %w", df.Err)
	}

	// 第五步：去掉含缺失值的行
	for _, name := range CleanedColumns {
		df = df.Filter(dataframe.F{
			Colname:    name,
			Comparator: series.CompFunc,
			Comparando: func(el series.Element) bool {
				return !el.IsNA()
			},
		})
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("dropna: %w", df.Err)
	}
	stats.add(StepDropNA, df.Nrow())

	// 第六步：片长不超过 MinRuntime 的视为短片
	df = df.Filter(dataframe.F{Colname: ColRuntime, Comparator: series.Greater, Comparando: opts.MinRuntime})
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("runtime: %w", df.Err)
	}
	stats.add(StepRuntime, df.Nrow())

	// 第七步：去掉投票数少于 MinVotes 的影片
	df = df.Filter(dataframe.F{Colname: ColVotes, Comparator: series.GreaterEq, Comparando: opts.MinVotes})
	if df.Err != nil {
		return dataframe.DataFrame{}, stats, fmt.Errorf("votes: %w", df.Err)
	}
	stats.add(StepVotes, df.Nrow())

	return df, stats, nil
}

// InnerJoin 按 key 做哈希内连接，结果保持 left 的行顺序
// 两侧的 key 都必须唯一；缺失的 key 不参与匹配
func InnerJoin(left, right dataframe.DataFrame, key string) (dataframe.DataFrame, error) {
	if err := requireColumns(left, key); err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := requireColumns(right, key); err != nil {
		return dataframe.DataFrame{}, err
	}

	rightKeys := right.Col(key)
	index := make(map[string]int, rightKeys.Len())
	for j := 0; j < rightKeys.Len(); j++ {
		el := rightKeys.Elem(j)
		if el.IsNA() {
			continue
		}
		k := el.String()
		if _, dup := index[k]; dup {
			return dataframe.DataFrame{}, fmt.Errorf("%w: right %s=%s", ErrDuplicateKey, key, k)
		}
		index[k] = j
	}

	leftKeys := left.Col(key)
	seen := make(map[string]struct{}, leftKeys.Len())
	leftIdx := make([]int, 0, leftKeys.Len())
	rightIdx := make([]int, 0, leftKeys.Len())
	for i := 0; i < leftKeys.Len(); i++ {
		el := leftKeys.Elem(i)
		if el.IsNA() {
			continue
		}
		k := el.String()
		if _, dup := seen[k]; dup {
			return dataframe.DataFrame{}, fmt.Errorf("%w: left %s=%s", ErrDuplicateKey, key, k)
		}
		seen[k] = struct{}{}
		if j, ok := index[k]; ok {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, j)
		}
	}

	joined := left.Subset(leftIdx).CBind(right.Subset(rightIdx).Drop(key))
	if joined.Err != nil {
		return dataframe.DataFrame{}, joined.Err
	}
	return joined, nil
}

// HasGenre 判断类型标签集合中是否含有 genre，标签以逗号或分号分隔
func HasGenre(genres, genre string) bool {
	tags := strings.FieldsFunc(genres, func(r rune) bool { return r == ',' || r == ';' })
	for _, tag := range tags {
		if strings.TrimSpace(tag) == genre {
			return true
		}
	}
	return false
}

func requireColumns(df dataframe.DataFrame, names ...string) error {
	if df.Err != nil {
		return df.Err
	}
	if missing := utils.MissingColumns(df, names...); len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	return utils.HasColumn(df, name)
}
