package file

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicsTSV = "tconst\ttitleType\tprimaryTitle\tgenres\tstartYear\truntimeMinutes\n" +
	"tt01\tmovie\t\"Quoted\" Title\tDrama\t1999\t120\n" +
	"tt02\tshort\tShort One\tComedy\t2001\t12\n" +
	"tt03\ttvMovie\tNo Year\t\\N\t\\N\t95\n"

func TestReadTSVProjectsAndMapsMissing(t *testing.T) {
	df, err := ReadTSV(strings.NewReader(basicsTSV), TSVOptions{
		Columns: []string{"tconst", "genres", "startYear"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"tconst", "genres", "startYear"}, df.Names())
	assert.Equal(t, 3, df.Nrow())
	assert.Equal(t, []string{"tt01", "tt02", "tt03"}, df.Col("tconst").Records())
	assert.True(t, df.Col("startYear").Elem(2).IsNA())
	assert.True(t, df.Col("genres").Elem(2).IsNA())
	assert.Equal(t, "1999", df.Col("startYear").Elem(0).String())
}

func TestReadTSVWherePushdown(t *testing.T) {
	df, err := ReadTSV(strings.NewReader(basicsTSV), TSVOptions{
		Columns: []string{"tconst"},
		Where: map[string]func(string) bool{
			"titleType": func(v string) bool { return v == "movie" || v == "tvMovie" },
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tt01", "tt03"}, df.Col("tconst").Records())
}

func TestReadTSVErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  TSVOptions
		want  string
	}{
		{"empty", "", TSVOptions{}, "缺少表头"},
		{"missing column", "a\tb\n1\t2\n", TSVOptions{Columns: []string{"c"}}, `"c"`},
		{"missing filter column", "a\tb\n1\t2\n", TSVOptions{Where: map[string]func(string) bool{"z": nil}}, `"z"`},
		{"ragged", "a\tb\n1\t2\n3\n", TSVOptions{}, "第 3 行"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTSV(strings.NewReader(tt.input), tt.opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadTSVHeaderOnly(t *testing.T) {
	df, err := ReadTSV(strings.NewReader("tconst\tnumVotes\n"), TSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, []string{"tconst", "numVotes"}, df.Names())
}

func TestReadGzipTSV(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte("tconst\tnumVotes\r\ntt01\t1500\r\n"))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	open := func() (io.ReadCloser, error) { return gzip.NewReader(bytes.NewReader(buf.Bytes())) }
	df, err := ReadGzipTSV(open, TSVOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"1500"}, df.Col("numVotes").Records())
}

func cleanedFrame() dataframe.DataFrame {
	return dataframe.New(
		series.New([]int{1999, 2000}, series.Int, "startYear"),
		series.New([]int{120, 95}, series.Int, "runtimeMinutes"),
		series.New([]int{1500, 2000}, series.Int, "numVotes"),
	)
}

var cleanedTypes = map[string]series.Type{
	"startYear":      series.Int,
	"runtimeMinutes": series.Int,
	"numVotes":       series.Int,
}

func TestWriteAndReadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "movies.csv")
	require.NoError(t, WriteTable(cleanedFrame(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "startYear,runtimeMinutes,numVotes\n1999,120,1500\n2000,95,2000\n", string(data))

	df, err := ReadTable(path, cleanedTypes)
	require.NoError(t, err)
	years, err := df.Col("startYear").Int()
	require.NoError(t, err)
	assert.Equal(t, []int{1999, 2000}, years)
}

func TestWriteTableIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")
	require.NoError(t, WriteTable(cleanedFrame(), first))
	require.NoError(t, WriteTable(cleanedFrame(), second))

	a, err := os.ReadFile(first)
	require.NoError(t, err)
	b, err := os.ReadFile(second)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestWriteAndReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.xlsx")
	require.NoError(t, WriteTable(cleanedFrame(), path))

	df, err := ReadTable(path, cleanedTypes)
	require.NoError(t, err)
	assert.Equal(t, 2, df.Nrow())
	runtimes, err := df.Col("runtimeMinutes").Int()
	require.NoError(t, err)
	assert.Equal(t, []int{120, 95}, runtimes)

	_, err = ReadXLSX(path, "nope")
	assert.Error(t, err)
}

func TestReadHeaderOnlyCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	empty := dataframe.New(
		series.New([]int{}, series.Int, "startYear"),
		series.New([]int{}, series.Int, "runtimeMinutes"),
		series.New([]int{}, series.Int, "numVotes"),
	)
	require.NoError(t, WriteTable(empty, path))

	df, err := ReadTable(path, cleanedTypes)
	require.NoError(t, err)
	assert.Equal(t, 0, df.Nrow())
	assert.Equal(t, []string{"startYear", "runtimeMinutes", "numVotes"}, df.Names())
	assert.Equal(t, series.Int, df.Col("startYear").Type())
}

func TestReadTableUnsupported(t *testing.T) {
	_, err := ReadTable("movies.parquet", nil)
	assert.Error(t, err)
	assert.Error(t, WriteTable(cleanedFrame(), filepath.Join(t.TempDir(), "movies.json")))
}

func TestFileMonitorDetectsReplace(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "movies.csv")

	monitor, err := NewFileMonitor(target)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan string, 4)
	done := make(chan error, 1)
	go func() {
		done <- monitor.Watch(ctx, func(p string) { changed <- p })
	}()

	// 其他文件的变化不触发
	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.csv"), []byte("x"), 0644))
	require.NoError(t, WriteTable(cleanedFrame(), target))

	select {
	case p := <-changed:
		assert.Equal(t, monitor.Target(), p)
	case <-time.After(5 * time.Second):
		t.Fatal("没有收到文件变化通知")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch 没有在 ctx 结束后返回")
	}
}
