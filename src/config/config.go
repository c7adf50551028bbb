package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config 结构体定义了应用程序的运行配置
type Config struct {
	Source struct {
		BasicsURL  string `json:"basics_url" env:"MOVIES_BASICS_URL"`   // 影片基础信息 title.basics.tsv.gz
		RatingsURL string `json:"ratings_url" env:"MOVIES_RATINGS_URL"` // 评分信息 title.ratings.tsv.gz
		Refresh    bool   `json:"refresh" env:"MOVIES_REFRESH"`         // 已下载的文件是否重新下载
	} `json:"source"`

	DataDir         string   `json:"data_dir" env:"MOVIES_DATA_DIR"`         // 下载文件及中间结果目录
	CleanedFile     string   `json:"cleaned_file" env:"MOVIES_CLEANED_FILE"` // 清洗后的表格(csv 或 xlsx)
	ReportFile      string   `json:"report_file" env:"MOVIES_REPORT_FILE"`   // 分析报告 xlsx
	LogName         string   `json:"log_name" env:"MOVIES_LOG_NAME"`
	LogMaxSize      string   `json:"log_max_size" env:"MOVIES_LOG_MAX_SIZE"`
	LogConsole      bool     `json:"log_console" env:"MOVIES_LOG_CONSOLE"`
	RefreshInterval Duration `json:"refresh_interval" env:"MOVIES_REFRESH_INTERVAL"` // schedule 模式的执行间隔
}

// DataConfig 数据处理阈值，对应清洗与分析两个阶段
type DataConfig struct {
	TitleTypes       []string `json:"title_types"`
	ExcludedGenre    string   `json:"excluded_genre"`
	MinRuntime       int      `json:"min_runtime"` // 严格大于
	MinVotes         int      `json:"min_votes"`   // 大于等于
	YearFloor        int      `json:"year_floor"`  // 分析时只保留 startYear > YearFloor
	TopNYearFloor    int      `json:"top_n_year_floor"`
	TopN             []int    `json:"top_n"` // 0 表示全部
	DecadeSize       int      `json:"decade_size"`
	CoverageMinCount int      `json:"coverage_min_count"`
	HistogramMin     int      `json:"histogram_min"`
	HistogramMax     int      `json:"histogram_max"`
	HistogramBins    int      `json:"histogram_bins"`
	BandTarget       float64  `json:"band_target"`
}

var (
	once               sync.Once
	instance           *Config
	dataConfigInstance *DataConfig
	loadErr            error
)

// DefaultConfig 返回未配置时使用的运行配置
func DefaultConfig() Config {
	var cfg Config
	cfg.Source.BasicsURL = "https://datasets.imdbws.com/title.basics.tsv.gz"
	cfg.Source.RatingsURL = "https://datasets.imdbws.com/title.ratings.tsv.gz"
	cfg.DataDir = "./data"
	cfg.CleanedFile = "movies.csv"
	cfg.ReportFile = "movies_report.xlsx"
	cfg.LogName = "app.log"
	cfg.LogMaxSize = "10 * 1024 * 1024"
	cfg.LogConsole = true
	cfg.RefreshInterval = Duration(24 * time.Hour)
	return cfg
}

// DefaultDataConfig 返回与原始分析一致的阈值
func DefaultDataConfig() DataConfig {
	return DataConfig{
		TitleTypes:       []string{"movie", "tvMovie"},
		ExcludedGenre:    "Documentary",
		MinRuntime:       40,
		MinVotes:         1000,
		YearFloor:        1931,
		TopNYearFloor:    1960,
		TopN:             []int{10, 30, 50, 100, 0},
		DecadeSize:       10,
		CoverageMinCount: 30,
		HistogramMin:     40,
		HistogramMax:     200,
		HistogramBins:    16,
		BandTarget:       0.70,
	}
}

// LoadConfig 加载配置，整个进程只加载一次
func LoadConfig(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	once.Do(func() {
		instance, dataConfigInstance, loadErr = loadConfigs(jsonFolder, jsonFile, dataJsonFile)
	})
	return instance, dataConfigInstance, loadErr
}

func loadConfigs(jsonFolder, jsonFile, dataJsonFile string) (*Config, *DataConfig, error) {
	configFile := filepath.Join(jsonFolder, jsonFile)
	dataConfigFile := filepath.Join(jsonFolder, dataJsonFile)

	configData, err := readFile(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	dataConfigData, err := readFile(dataConfigFile)
	if err != nil {
		return nil, nil, fmt.Errorf("读取数据配置文件失败: %w", err)
	}

	cfgChan := make(chan *Config, 1)
	dcfgChan := make(chan *DataConfig, 1)
	errChan := make(chan error, 2)

	go parseConfig(configData, cfgChan, errChan)
	go parseDataConfig(dataConfigData, dcfgChan, errChan)

	cfg, dcfg, err := waitForResults(cfgChan, dcfgChan, errChan)
	if err != nil {
		return nil, nil, err
	}

	// 环境变量覆盖 json 中的值
	if err := applyEnv(cfg); err != nil {
		return nil, nil, err
	}

	if err := dcfg.Validate(); err != nil {
		return nil, nil, err
	}

	return cfg, dcfg, nil
}

// readFile 读取配置文件，文件不存在时按空对象处理
func readFile(filePath string) ([]byte, error) {
	data, err := os.ReadFile(filePath)
	if errors.Is(err, fs.ErrNotExist) {
		return []byte("{}"), nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取文件 %s: %w", filePath, err)
	}
	return data, nil
}

func parseConfig(data []byte, resultChan chan<- *Config, errChan chan<- error) {
	cfg := DefaultConfig()
	if err := json.Unmarshal(data, &cfg); err != nil {
		errChan <- fmt.Errorf("解析Config失败: %w", err)
		return
	}
	resultChan <- &cfg
}

func parseDataConfig(data []byte, resultChan chan<- *DataConfig, errChan chan<- error) {
	dcfg := DefaultDataConfig()
	if err := json.Unmarshal(data, &dcfg); err != nil {
		errChan <- fmt.Errorf("解析DataConfig失败: %w", err)
		return
	}
	resultChan <- &dcfg
}

func waitForResults(
	cfgChan <-chan *Config,
	dcfgChan <-chan *DataConfig,
	errChan <-chan error,
) (*Config, *DataConfig, error) {
	var (
		cfg  *Config
		dcfg *DataConfig
		errs []error
	)

	for i := 0; i < 2; i++ {
		select {
		case c := <-cfgChan:
			cfg = c
		case d := <-dcfgChan:
			dcfg = d
		case err := <-errChan:
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return nil, nil, combineErrors(errs)
	}

	if cfg == nil || dcfg == nil {
		return nil, nil, fmt.Errorf("部分配置未加载成功")
	}

	return cfg, dcfg, nil
}

func combineErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msg := "配置加载遇到多个错误:"
	for _, err := range errs {
		msg = fmt.Sprintf("%s\n- %v", msg, err)
	}
	return fmt.Errorf("%s", msg)
}

// applyEnv 先加载 .env(可选)，再用环境变量覆盖配置
func applyEnv(cfg *Config) error {
	_ = godotenv.Load()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("解析环境变量失败: %w", err)
	}
	return nil
}

// Validate 检查阈值是否合理
func (dc *DataConfig) Validate() error {
	switch {
	case len(dc.TitleTypes) == 0:
		return fmt.Errorf("title_types 不能为空")
	case dc.MinRuntime < 0 || dc.MinVotes < 0:
		return fmt.Errorf("min_runtime/min_votes 不能为负数")
	case dc.DecadeSize <= 0:
		return fmt.Errorf("decade_size 必须大于0, 当前为 %d", dc.DecadeSize)
	case dc.CoverageMinCount < 0:
		return fmt.Errorf("coverage_min_count 不能为负数")
	case dc.HistogramBins <= 0 || dc.HistogramMax <= dc.HistogramMin:
		return fmt.Errorf("直方图范围无效: [%d, %d) / %d", dc.HistogramMin, dc.HistogramMax, dc.HistogramBins)
	}
	for _, n := range dc.TopN {
		if n < 0 {
			return fmt.Errorf("top_n 中不能有负数: %d", n)
		}
	}
	return nil
}

// CleanedPath 清洗结果的完整路径
func (c *Config) CleanedPath() string {
	return filepath.Join(c.DataDir, c.CleanedFile)
}

// ReportPath 报告文件的完整路径
func (c *Config) ReportPath() string {
	return filepath.Join(c.DataDir, c.ReportFile)
}

// Duration 是time.Duration的自定义包装类型
// 用于支持JSON序列化和反序列化
type Duration time.Duration

// UnmarshalJSON 实现json.Unmarshaler接口
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// UnmarshalText 供环境变量解析使用
func (d *Duration) UnmarshalText(text []byte) error {
	dur, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON 实现json.Marshaler接口
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
