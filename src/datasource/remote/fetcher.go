// fetcher.go
package remote

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"
)

// Logger 下载过程需要的日志接口
type Logger interface {
	Info(msg string)
}

// Fetcher 将远程数据文件下载到本地数据目录
type Fetcher struct {
	DataDir string       // 下载文件保存目录
	Refresh bool         // 为 true 时向服务器确认本地文件是否最新，有更新则重新下载
	Client  *http.Client // 为空时使用默认超时的客户端
	logger  Logger
}

// NewFetcher 创建下载器
func NewFetcher(dataDir string, refresh bool, logger Logger) *Fetcher {
	return &Fetcher{
		DataDir: dataDir,
		Refresh: refresh,
		Client:  &http.Client{Timeout: 30 * time.Minute},
		logger:  logger,
	}
}

// Fetch 下载 rawURL 指向的文件并返回本地路径
// 本地路径(无 scheme 或 file://)直接返回；已存在的下载文件在 Refresh=false 时直接复用，
// Refresh=true 时带 If-Modified-Since 请求，服务器返回 304 才复用
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("无效的数据源地址 %q: %w", rawURL, err)
	}

	switch u.Scheme {
	case "", "file":
		local := rawURL
		if u.Scheme == "file" {
			local = u.Path
		}
		if _, err := os.Stat(local); err != nil {
			return "", fmt.Errorf("本地数据源不可用: %w", err)
		}
		return local, nil
	case "http", "https":
	default:
		return "", fmt.Errorf("不支持的数据源协议: %s", u.Scheme)
	}

	name := path.Base(u.Path)
	if name == "" || name == "/" || name == "." {
		return "", fmt.Errorf("无法从地址中得到文件名: %s", rawURL)
	}

	// 确保保存目录存在
	if err := os.MkdirAll(f.DataDir, 0755); err != nil {
		return "", fmt.Errorf("创建目录失败: %w", err)
	}
	target := filepath.Join(f.DataDir, name)

	var since time.Time
	if info, err := os.Stat(target); err == nil {
		if !f.Refresh {
			f.logf("复用已下载文件: %s", target)
			return target, nil
		}
		since = info.ModTime()
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	if err := f.download(ctx, rawURL, target, since); err != nil {
		return "", err
	}
	return target, nil
}

// download 先写临时文件再改名，避免中断后留下半个文件
// since 非零时发送条件请求，服务器返回 304 时保留本地文件
func (f *Fetcher) download(ctx context.Context, rawURL, target string, since time.Time) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("创建请求失败: %w", err)
	}
	if !since.IsZero() {
		req.Header.Set("If-Modified-Since", since.UTC().Format(http.TimeFormat))
	}

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	t1 := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("下载 %s 失败: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified && !since.IsZero() {
		f.logf("%q 没有更新，继续使用本地文件", path.Base(target))
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("下载 %s 失败: HTTP %d", rawURL, resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), filepath.Base(target)+".*.part")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	n, err := io.Copy(tmp, resp.Body)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("写入 %s 失败: %w", target, err)
	}

	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("保存 %s 失败: %w", target, err)
	}

	// 本地文件的修改时间与服务器一致，下次条件请求以它为准
	if lm, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		_ = os.Chtimes(target, lm, lm)
	}

	f.logf("%q downloaded (%d bytes, %v)", path.Base(target), n, time.Since(t1).Round(time.Millisecond))
	return nil
}

func (f *Fetcher) logf(format string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Info(fmt.Sprintf(format, args...))
	}
}

// gzipFile 关闭 gzip 读取器时一并关闭底层文件
type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	err := g.Reader.Close()
	if fErr := g.file.Close(); err == nil {
		err = fErr
	}
	return err
}

// OpenGzip 打开 gzip 压缩文件
func OpenGzip(p string) (io.ReadCloser, error) {
	file, err := os.Open(p)
	if err != nil {
		return nil, err
	}

	zr, err := gzip.NewReader(file)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("%s 不是有效的 gzip 文件: %w", p, err)
	}
	return &gzipFile{Reader: zr, file: file}, nil
}
