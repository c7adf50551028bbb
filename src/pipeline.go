package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"MovieRuntime/src/config"
	"MovieRuntime/src/datasource/file"
	"MovieRuntime/src/datasource/remote"
	"MovieRuntime/src/processor"
	"MovieRuntime/src/report"
	"MovieRuntime/src/storage"
	"MovieRuntime/src/utils"

	"github.com/go-gota/gota/dataframe"
)

// pipeline 串起下载、清洗、分析、报告各个阶段
type pipeline struct {
	cfg    *config.Config
	dcfg   *config.DataConfig
	logger *storage.Logger
	out    io.Writer

	fetcher *remote.Fetcher

	mu sync.Mutex // 定时任务与文件监听不会同时执行两次分析
}

func newPipeline(cfg *config.Config, dcfg *config.DataConfig, logger *storage.Logger, out io.Writer) *pipeline {
	if out == nil {
		out = os.Stdout
	}
	return &pipeline{
		cfg:     cfg,
		dcfg:    dcfg,
		logger:  logger,
		out:     out,
		fetcher: remote.NewFetcher(cfg.DataDir, cfg.Source.Refresh, logger),
	}
}

// RefreshSources 为 true 时每次 Ingest 都向服务器确认数据是否有更新
// schedule 模式下打开，否则定时任务只会重复分析已下载的旧文件
func (p *pipeline) RefreshSources(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetcher.Refresh = on || p.cfg.Source.Refresh
}

// Ingest 下载两份数据，清洗后写入 CleanedPath
func (p *pipeline) Ingest(ctx context.Context) (processor.CleanStats, error) {
	t1 := time.Now()

	// 第一步：读取影片基础信息，只保留需要的影片类型以减少内存
	basics, err := p.readSource(ctx, p.cfg.Source.BasicsURL, file.TSVOptions{
		Columns: processor.BasicsColumns,
		Where: map[string]func(string) bool{
			processor.ColTitleType: func(v string) bool { return utils.Contains(p.dcfg.TitleTypes, v) },
		},
	})
	if err != nil {
		return processor.CleanStats{}, fmt.Errorf("basics: %w", err)
	}

	// 第二步：读取评分信息
	ratings, err := p.readSource(ctx, p.cfg.Source.RatingsURL, file.TSVOptions{
		Columns: processor.RatingsColumns,
	})
	if err != nil {
		return processor.CleanStats{}, fmt.Errorf("ratings: %w", err)
	}

	// 第三步：清洗
	df, stats, err := processor.Clean(basics, ratings, processor.NewCleanOptions(p.dcfg))
	if err != nil {
		return stats, err
	}
	for _, s := range stats.Steps {
		p.logger.Info(fmt.Sprintf("%-10s %d 行", s.Step, s.Rows))
	}

	// 第四步：保存
	if err := file.WriteTable(df, p.cfg.CleanedPath()); err != nil {
		return stats, err
	}
	p.logger.Info(fmt.Sprintf("清洗结果已保存到 %s (%d 行, 用时 %v)", p.cfg.CleanedPath(), df.Nrow(), time.Since(t1).Round(time.Millisecond)))
	return stats, nil
}

func (p *pipeline) readSource(ctx context.Context, rawURL string, opts file.TSVOptions) (dataframe.DataFrame, error) {
	local, err := p.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if err := ctx.Err(); err != nil {
		return dataframe.DataFrame{}, err
	}

	t1 := time.Now()
	df, err := file.ReadGzipTSV(func() (io.ReadCloser, error) { return remote.OpenGzip(local) }, opts)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("读取 %s 失败: %w", local, err)
	}
	p.logger.Info(fmt.Sprintf("已读取 %s: %d 行 (%v)", local, df.Nrow(), time.Since(t1).Round(time.Millisecond)))
	return df, nil
}

// Analyze 读取清洗结果，写出报告并打印摘要
func (p *pipeline) Analyze(ctx context.Context) (*processor.Analysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	df, err := file.ReadTable(p.cfg.CleanedPath(), processor.CleanedTypes)
	if err != nil {
		return nil, fmt.Errorf("读取清洗结果失败: %w", err)
	}

	a, err := processor.Analyze(df, p.dcfg)
	if err != nil {
		return nil, err
	}

	if err := report.Write(p.cfg.ReportPath(), a); err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("报告已保存到 %s", p.cfg.ReportPath()))

	fmt.Fprint(p.out, report.Summary(a))
	return a, nil
}

// Run 依次执行 Ingest 和 Analyze，并检查日志是否需要轮转
func (p *pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	defer func() {
		if err := p.logger.CheckRotate(p.cfg); err != nil {
			p.logger.Warning("日志轮转失败: " + err.Error())
		}
	}()

	if _, err := p.Ingest(ctx); err != nil {
		return fmt.Errorf("ingest: %w", err)
	}
	if _, err := p.Analyze(ctx); err != nil {
		return fmt.Errorf("analyze: %w", err)
	}
	return nil
}

// Reanalyze 在清洗结果变化后重新分析，与 Run 互斥
func (p *pipeline) Reanalyze(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	_, err := p.Analyze(ctx)
	return err
}
