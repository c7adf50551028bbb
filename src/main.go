package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"MovieRuntime/src/config"
	"MovieRuntime/src/datasource/file"
	"MovieRuntime/src/storage"

	"github.com/robfig/cron"
	"github.com/spf13/cobra"
)

// app 命令行共享的状态，在 PersistentPreRunE 中初始化
type app struct {
	configDir      string
	configFile     string
	dataConfigFile string

	cfg      *config.Config
	dcfg     *config.DataConfig
	logger   *storage.Logger
	pipeline *pipeline
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{}
	if err := execute(ctx, a, newRootCmd(a)); err != nil {
		os.Exit(1)
	}
}

// execute 执行命令，返回前关闭日志
// 命令失败时 cobra 不会执行 PersistentPostRun，所以不能依赖它
func execute(ctx context.Context, a *app, root *cobra.Command) error {
	defer a.close()
	return root.ExecuteContext(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "movieruntime",
		Short:         "Movie runtime trends from the public IMDb datasets",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd.OutOrStdout())
		},
	}

	root.PersistentFlags().StringVar(&a.configDir, "config-dir", "./config", "配置文件所在目录")
	root.PersistentFlags().StringVar(&a.configFile, "config", "config.json", "运行配置文件名")
	root.PersistentFlags().StringVar(&a.dataConfigFile, "data-config", "dataconfig.json", "数据阈值配置文件名")

	root.AddCommand(
		newIngestCmd(a),
		newAnalyzeCmd(a),
		newRunCmd(a),
		newWatchCmd(a),
		newScheduleCmd(a),
	)
	return root
}

func (a *app) init(out io.Writer) error {
	cfg, dcfg, err := config.LoadConfig(a.configDir, a.configFile, a.dataConfigFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "加载配置失败:", err)
		return err
	}

	// 初始化日志系统
	var mirrors []io.Writer
	if cfg.LogConsole {
		mirrors = append(mirrors, os.Stderr)
	}
	logger, err := storage.NewLogger(cfg.LogName, mirrors...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Failed to initialize logger:", err)
		return err
	}

	a.cfg, a.dcfg, a.logger = cfg, dcfg, logger
	a.pipeline = newPipeline(cfg, dcfg, logger, out)
	return nil
}

// close 关闭日志；Logger.Close 可重复调用
func (a *app) close() {
	if a.logger != nil {
		a.logger.Close()
	}
}

// fail 记录错误后原样返回，交给 cobra 设置退出码
func (a *app) fail(err error) error {
	if err != nil {
		a.logger.Error(err.Error())
	}
	return err
}

func newIngestCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "ingest",
		Short: "Download the datasets, clean them and save the cleaned table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.pipeline.Ingest(cmd.Context())
			return a.fail(err)
		},
	}
}

func newAnalyzeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze",
		Short: "Analyse the cleaned table and write the report workbook",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := a.pipeline.Analyze(cmd.Context())
			return a.fail(err)
		},
	}
}

func newRunCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Ingest and analyse in one go",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.fail(a.pipeline.Run(cmd.Context()))
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Re-run the analysis whenever the cleaned table changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if err := os.MkdirAll(a.cfg.DataDir, 0755); err != nil {
				return a.fail(err)
			}

			monitor, err := file.NewFileMonitor(a.cfg.CleanedPath())
			if err != nil {
				return a.fail(fmt.Errorf("创建文件监听失败: %w", err))
			}
			go a.reopenOnHangup(ctx)

			a.logger.Info(fmt.Sprintf("开始监听 %s，按Ctrl+C退出", monitor.Target()))
			return a.fail(monitor.Watch(ctx, func(path string) {
				a.logger.Info("清洗结果已更新: " + path)
				if err := a.pipeline.Reanalyze(ctx); err != nil {
					a.logger.Error("重新分析失败: " + err.Error())
				}
			}))
		},
	}
}

func newScheduleCmd(a *app) *cobra.Command {
	var now bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the whole pipeline every refresh_interval",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			interval := time.Duration(a.cfg.RefreshInterval)
			if interval < time.Second {
				return a.fail(fmt.Errorf("refresh_interval 过短: %v", interval))
			}

			a.pipeline.RefreshSources(true)

			job := func() {
				a.logger.Info(fmt.Sprintf("开始定时任务(间隔: %v)...", interval))
				t1 := time.Now()
				if err := a.pipeline.Run(ctx); err != nil {
					a.logger.Error("定时任务失败: " + err.Error())
					return
				}
				a.logger.Info(fmt.Sprintf("定时任务完成，用时 %v", time.Since(t1).Round(time.Millisecond)))
			}

			// 设置定时任务
			c := cron.New()
			cronSpec := fmt.Sprintf("@every %s", interval)
			if err := c.AddFunc(cronSpec, job); err != nil {
				return a.fail(fmt.Errorf("创建定时任务失败: %w", err))
			}

			if now {
				job()
			}

			c.Start()
			defer c.Stop()
			go a.reopenOnHangup(ctx)

			a.logger.Info(fmt.Sprintf("定时服务已启动(间隔: %v)，按Ctrl+C退出", interval))
			<-ctx.Done()
			a.logger.Info("收到退出信号，正在停止...")
			return nil
		},
	}

	cmd.Flags().BoolVar(&now, "now", true, "启动时先执行一次")
	return cmd
}

// reopenOnHangup 收到 SIGHUP 时重新打开日志文件，配合外部的日志轮转
func (a *app) reopenOnHangup(ctx context.Context) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGHUP)
	defer signal.Stop(sigChan)

	for {
		select {
		case <-ctx.Done():
			return
		case <-sigChan:
			if err := a.logger.Reopen(a.cfg.LogName); err != nil {
				fmt.Fprintln(os.Stderr, "重新打开日志失败:", err)
				continue
			}
			a.logger.Info("Received signal: SIGHUP, log file reopened")
		}
	}
}
