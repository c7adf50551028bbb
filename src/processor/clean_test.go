package processor

import (
	"bytes"
	"errors"
	"testing"

	"MovieRuntime/src/config"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stringFrame(columns map[string][]string, order ...string) dataframe.DataFrame {
	list := make([]series.Series, len(order))
	for i, name := range order {
		list[i] = series.New(columns[name], series.String, name)
	}
	return dataframe.New(list...)
}

func sampleBasics() dataframe.DataFrame {
	return stringFrame(map[string][]string{
		ColID:        {"tt1", "tt2", "tt3", "tt4", "tt5", "tt6", "tt7", "tt8", "tt9", "tt10"},
		ColTitleType: {"movie", "movie", "short", "tvMovie", "movie", "movie", "movie", "movie", "movie", "movie"},
		ColGenres:    {"Drama", "Documentary,Drama", "Comedy", "NaN", "Drama", "Drama", "Drama", "Drama", "Drama", "Drama"},
		ColStartYear: {"1999", "2000", "2001", "2002", "NaN", "2003", "2004", "2005", "2006", "2007"},
		ColRuntime:   {"120", "90", "95", "100", "100", "40", "41", "41", "abc", "100"},
	}, BasicsColumns...)
}

func sampleRatings() dataframe.DataFrame {
	return stringFrame(map[string][]string{
		ColID:    {"tt8", "tt1", "tt2", "tt3", "tt4", "tt5", "tt6", "tt7", "tt9", "tt99"},
		ColVotes: {"1000", "1500", "5000", "4000", "2000", "3000", "3000", "999", "1000", "8000"},
	}, RatingsColumns...)
}

func defaultCleanOptions() CleanOptions {
	dcfg := config.DefaultDataConfig()
	return NewCleanOptions(&dcfg)
}

func TestCleanAppliesEveryFilter(t *testing.T) {
	df, stats, err := Clean(sampleBasics(), sampleRatings(), defaultCleanOptions())
	require.NoError(t, err)

	assert.Equal(t, CleanedColumns, df.Names())

	years, err := df.Col(ColStartYear).Int()
	require.NoError(t, err)
	runtimes, err := df.Col(ColRuntime).Int()
	require.NoError(t, err)
	votes, err := df.Col(ColVotes).Int()
	require.NoError(t, err)

	// 保持 basics 的行顺序
	assert.Equal(t, []int{1999, 2002, 2005}, years)
	assert.Equal(t, []int{120, 100, 41}, runtimes)
	assert.Equal(t, []int{1500, 2000, 1000}, votes)

	expected := map[string]int{
		StepBasics:    10,
		StepRatings:   10,
		StepMerge:     9,
		StepTitleType: 8,
		StepGenre:     7,
		StepDropNA:    5,
		StepRuntime:   4,
		StepVotes:     3,
	}
	for step, rows := range expected {
		assert.Equal(t, rows, stats.Rows(step), step)
	}
	assert.Equal(t, -1, stats.Rows("unknown"))
}

func TestCleanedRowsSatisfyBounds(t *testing.T) {
	opts := defaultCleanOptions()
	df, _, err := Clean(sampleBasics(), sampleRatings(), opts)
	require.NoError(t, err)

	movies, err := Movies(df)
	require.NoError(t, err)
	for _, m := range movies {
		assert.Greater(t, m.Runtime, opts.MinRuntime)
		assert.GreaterOrEqual(t, m.Votes, opts.MinVotes)
	}
}

func TestCleanIsDeterministic(t *testing.T) {
	write := func() []byte {
		df, _, err := Clean(sampleBasics(), sampleRatings(), defaultCleanOptions())
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, df.WriteCSV(&buf))
		return buf.Bytes()
	}

	first := write()
	assert.Equal(t, first, write())
	assert.Equal(t, "startYear,runtimeMinutes,numVotes\n1999,120,1500\n2002,100,2000\n2005,41,1000\n", string(first))
}

func TestCleanMissingColumns(t *testing.T) {
	ratings := stringFrame(map[string][]string{ColID: {"tt1"}}, ColID)
	_, _, err := Clean(sampleBasics(), ratings, defaultCleanOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn))
	assert.Contains(t, err.Error(), ColVotes)
}

func TestCleanNoMatches(t *testing.T) {
	ratings := stringFrame(map[string][]string{
		ColID:    {"tt404"},
		ColVotes: {"5000"},
	}, RatingsColumns...)

	df, stats, err := Clean(sampleBasics(), ratings, defaultCleanOptions())
	require.NoError(t, err)
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, 0, stats.Rows(StepMerge))
}

func TestInnerJoinKeepsOnlyMatchedKeys(t *testing.T) {
	left := stringFrame(map[string][]string{
		"id": {"a", "b", "NaN", "c"},
		"x":  {"1", "2", "3", "4"},
	}, "id", "x")
	right := stringFrame(map[string][]string{
		"id": {"c", "a", "z"},
		"y":  {"30", "10", "99"},
	}, "id", "y")

	joined, err := InnerJoin(left, right, "id")
	require.NoError(t, err)

	assert.Equal(t, []string{"id", "x", "y"}, joined.Names())
	assert.Equal(t, []string{"a", "c"}, joined.Col("id").Records())
	assert.Equal(t, []string{"1", "4"}, joined.Col("x").Records())
	assert.Equal(t, []string{"10", "30"}, joined.Col("y").Records())
}

func TestInnerJoinRejectsDuplicateKeys(t *testing.T) {
	dup := stringFrame(map[string][]string{
		"id": {"a", "a"},
		"y":  {"1", "2"},
	}, "id", "y")
	single := stringFrame(map[string][]string{
		"id": {"a"},
		"x":  {"1"},
	}, "id", "x")

	_, err := InnerJoin(single, dup, "id")
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	_, err = InnerJoin(dup, single, "id")
	assert.True(t, errors.Is(err, ErrDuplicateKey))
}

func TestHasGenre(t *testing.T) {
	tests := []struct {
		genres string
		want   bool
	}{
		{"Documentary", true},
		{"Biography,Documentary,History", true},
		{"Documentary;Music", true},
		{"Drama", false},
		{"", false},
		{"Docudrama", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HasGenre(tt.genres, "Documentary"), tt.genres)
	}
}
