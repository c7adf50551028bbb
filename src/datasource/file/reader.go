// reader.go
package file

import (
	"MovieRuntime/src/utils"
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/tealeg/xlsx"
)

// TSVMissing 是 IMDb 数据集中表示缺失值的记号
const TSVMissing = `\N`

// TSVOptions 读取 TSV 时的选项
type TSVOptions struct {
	// Columns 需要保留的列，为空时保留全部列
	Columns []string
	// Where 按列过滤原始值(未做缺失值转换)，所有条件都满足才保留该行
	Where map[string]func(value string) bool
}

// ReadTSV 以流的方式读取带表头的 TSV，所有列均为 String 类型
// \N 转换为缺失值；列数与表头不一致的行视为格式错误
func ReadTSV(r io.Reader, opts TSVOptions) (dataframe.DataFrame, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	// 1. 读取表头
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("读取表头失败: %w", err)
		}
		return dataframe.DataFrame{}, fmt.Errorf("TSV 为空，缺少表头")
	}
	header := strings.Split(strings.TrimRight(scanner.Text(), "\r"), "\t")
	position := make(map[string]int, len(header))
	for i, name := range header {
		position[name] = i
	}

	// 2. 确定需要的列及过滤条件
	names := opts.Columns
	if len(names) == 0 {
		names = header
	}
	indexes := make([]int, len(names))
	for i, name := range names {
		idx, ok := position[name]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("TSV 缺少列 %q", name)
		}
		indexes[i] = idx
	}
	type condition struct {
		idx  int
		keep func(string) bool
	}
	var conditions []condition
	for name, keep := range opts.Where {
		idx, ok := position[name]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("TSV 缺少过滤列 %q", name)
		}
		conditions = append(conditions, condition{idx: idx, keep: keep})
	}

	// 3. 逐行读取
	columns := make([][]string, len(names))
	line := 1
rows:
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r")
		if text == "" {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) != len(header) {
			return dataframe.DataFrame{}, fmt.Errorf("第 %d 行有 %d 列，表头有 %d 列", line, len(fields), len(header))
		}
		for _, c := range conditions {
			if !c.keep(fields[c.idx]) {
				continue rows
			}
		}
		for i, idx := range indexes {
			v := fields[idx]
			if v == TSVMissing {
				v = "NaN"
			}
			columns[i] = append(columns[i], v)
		}
	}
	if err := scanner.Err(); err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取第 %d 行失败: %w", line+1, err)
	}

	return convertColumnsToDataFrame(names, columns), nil
}

// ReadGzipTSV 读取 gzip 压缩的 TSV 文件
func ReadGzipTSV(open func() (io.ReadCloser, error), opts TSVOptions) (dataframe.DataFrame, error) {
	rc, err := open()
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	defer rc.Close()

	return ReadTSV(rc, opts)
}

// ReadTable 读取清洗后的表格，支持 .csv 和 .xlsx
// types 指定列类型，未列出的列自动推断(csv)或保持 String(xlsx)
func ReadTable(filePath string, types map[string]series.Type) (dataframe.DataFrame, error) {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".csv":
		data, err := os.ReadFile(filePath)
		if err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("打开 %s 失败: %w", filePath, err)
		}

		// 只有表头时 gota 会报 empty DataFrame，这里返回带列名的空表
		if header, ok := headerOnly(data); ok {
			return emptyTable(header, types), nil
		}

		df := dataframe.ReadCSV(bytes.NewReader(data), dataframe.WithTypes(types))
		if df.Err != nil {
			return dataframe.DataFrame{}, fmt.Errorf("解析 %s 失败: %w", filePath, df.Err)
		}
		return df, nil
	case ".xlsx":
		df, err := ReadXLSX(filePath, "")
		if err != nil {
			return dataframe.DataFrame{}, err
		}
		return coerce(df, types)
	default:
		return dataframe.DataFrame{}, fmt.Errorf("不支持的表格格式: %s", filePath)
	}
}

// headerOnly 判断 csv 是否只有表头(没有数据行)
func headerOnly(data []byte) ([]string, bool) {
	r := csv.NewReader(bytes.NewReader(data))
	header, err := r.Read()
	if err != nil {
		return nil, false
	}
	if _, err := r.Read(); err != io.EOF {
		return nil, false
	}
	return header, true
}

// emptyTable 按列名和类型创建没有行的表，未指定类型的列为 String
func emptyTable(names []string, types map[string]series.Type) dataframe.DataFrame {
	list := make([]series.Series, len(names))
	for i, name := range names {
		typ, ok := types[name]
		if !ok {
			typ = series.String
		}
		list[i] = series.New([]string{}, typ, name)
	}
	return dataframe.New(list...)
}

// ReadXLSX 读取工作表，第一行为列名；sheetName 为空时读取第一个工作表
func ReadXLSX(filePath, sheetName string) (dataframe.DataFrame, error) {
	xlFile, err := xlsx.OpenFile(filePath)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("xlsx open file false: %w", err)
	}

	if len(xlFile.Sheets) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表: %s", filePath)
	}
	sheet := xlFile.Sheets[0]
	if sheetName != "" {
		s, ok := xlFile.Sheet[sheetName]
		if !ok {
			return dataframe.DataFrame{}, fmt.Errorf("excel文件中没有工作表 %q", sheetName)
		}
		sheet = s
	}

	return convertSheetToDataFrame(sheet)
}

// convertSheetToDataFrame 将xlsx.Sheet转换为dataframe.DataFrame
func convertSheetToDataFrame(sheet *xlsx.Sheet) (dataframe.DataFrame, error) {
	if len(sheet.Rows) == 0 {
		return dataframe.DataFrame{}, fmt.Errorf("工作表 %q 没有数据", sheet.Name)
	}

	// 获取列名(第一行是标题行)
	var headers []string
	for _, cell := range sheet.Rows[0].Cells {
		headers = append(headers, cell.Value)
	}

	// 准备数据列
	columns := make([][]string, len(headers))
	for i := range columns {
		columns[i] = make([]string, 0, len(sheet.Rows)-1)
	}

	// 填充数据(从第二行开始)，空行跳过，缺少的单元格按缺失值处理
	for _, row := range sheet.Rows[1:] {
		if row == nil || isEmptyRow(row) {
			continue
		}
		for i := range headers {
			v := "NaN"
			if i < len(row.Cells) && row.Cells[i].Value != "" {
				v = row.Cells[i].Value
			}
			columns[i] = append(columns[i], v)
		}
	}

	return convertColumnsToDataFrame(headers, columns), nil
}

func isEmptyRow(row *xlsx.Row) bool {
	for _, cell := range row.Cells {
		if cell.Value != "" {
			return false
		}
	}
	return true
}

// convertColumnsToDataFrame 按列创建 String 类型的 Series
func convertColumnsToDataFrame(names []string, columns [][]string) dataframe.DataFrame {
	seriesList := make([]series.Series, len(names))
	for i, colName := range names {
		values := columns[i]
		if values == nil {
			values = []string{}
		}
		seriesList[i] = series.New(values, series.String, colName)
	}
	return dataframe.New(seriesList...)
}

// coerce 按 types 转换列类型，无法转换的值成为缺失值
func coerce(df dataframe.DataFrame, types map[string]series.Type) (dataframe.DataFrame, error) {
	for name, typ := range types {
		if !utils.HasColumn(df, name) {
			return dataframe.DataFrame{}, fmt.Errorf("表格缺少列 %q", name)
		}
		df = df.Mutate(series.New(df.Col(name).Records(), typ, name))
	}
	if df.Err != nil {
		return dataframe.DataFrame{}, df.Err
	}
	return df, nil
}

// WriteTable 写出表格(.csv 或 .xlsx)，先写临时文件再改名，重复执行结果一致
func WriteTable(df dataframe.DataFrame, filePath string) error {
	if err := ensureDir(filepath.Dir(filePath)); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	tmp, err := os.CreateTemp(filepath.Dir(filePath), "."+filepath.Base(filePath)+".*"+ext)
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	switch ext {
	case ".csv":
		err = df.WriteCSV(tmp)
		if closeErr := tmp.Close(); err == nil {
			err = closeErr
		}
	case ".xlsx":
		tmp.Close()
		err = utils.SaveToExcel(df, tmpName, "movies")
	default:
		tmp.Close()
		err = fmt.Errorf("不支持的表格格式: %s", filePath)
	}
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", filePath, err)
	}

	return os.Rename(tmpName, filePath)
}

// ensureDir 确保目录存在
func ensureDir(dirPath string) error {
	if info, err := os.Stat(dirPath); err == nil {
		if info.IsDir() {
			return nil
		}
		return fmt.Errorf("%s exists but is not a directory", dirPath)
	}
	return os.MkdirAll(dirPath, 0755)
}
