package fileproc

import (
	"context"
	"log/slog"

	"github.com/panbanda/ccnscan/internal/cache"
	"github.com/panbanda/ccnscan/internal/logging"
	"github.com/panbanda/ccnscan/pkg/analyzer/complexity"
	"github.com/panbanda/ccnscan/pkg/config"
	"github.com/panbanda/ccnscan/pkg/lang"
	"github.com/panbanda/ccnscan/pkg/source"
)

// Processor analyzes files read from a content source. Each file gets its
// own analyzer, so files are processed concurrently without shared state.
type Processor struct {
	src        source.ContentSource
	cache      *cache.Cache
	workers    int
	fallback   lang.Language
	tabWidth   int
	logger     *slog.Logger
	onProgress ProgressFunc
}

// Option configures a Processor.
type Option func(*Processor)

// WithCache reuses results for unchanged files.
func WithCache(c *cache.Cache) Option {
	return func(p *Processor) {
		p.cache = c
	}
}

// WithWorkers bounds parallelism. <= 0 means 2x NumCPU.
func WithWorkers(n int) Option {
	return func(p *Processor) {
		p.workers = n
	}
}

// WithDefaultLanguage sets the language for files whose extension is not recognized.
func WithDefaultLanguage(l lang.Language) Option {
	return func(p *Processor) {
		if l.Supported() {
			p.fallback = l
		}
	}
}

// WithMaxInputBytes rejects files larger than max bytes. 0 means no limit.
func WithMaxInputBytes(max int64) Option {
	return func(p *Processor) {
		p.src = source.Limit(p.src, max)
	}
}

// WithTabWidth sets the tab width used for Python indentation.
func WithTabWidth(width int) Option {
	return func(p *Processor) {
		p.tabWidth = width
	}
}

// WithLogger sets the logger handed to each analyzer.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Processor) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithProgress registers a callback invoked once per file.
func WithProgress(fn ProgressFunc) Option {
	return func(p *Processor) {
		p.onProgress = fn
	}
}

// ConfigOptions translates the analysis section of cfg into Processor options.
func ConfigOptions(cfg *config.Config) []Option {
	return []Option{
		WithWorkers(cfg.Analysis.Workers),
		WithDefaultLanguage(cfg.Language()),
		WithMaxInputBytes(cfg.Analysis.MaxInputBytes),
	}
}

// New creates a Processor reading from src.
func New(src source.ContentSource, opts ...Option) *Processor {
	p := &Processor{
		src:      src,
		fallback: lang.Default,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// LanguageOf returns the language a path is analyzed as.
func (p *Processor) LanguageOf(path string) lang.Language {
	if l := lang.Detect(path); l != lang.Unknown {
		return l
	}
	return p.fallback
}

// AnalyzeFile reads and analyzes one file. Only read failures are errors;
// malformed source still yields a (possibly aggregate) result.
func (p *Processor) AnalyzeFile(path string) (complexity.FileResult, error) {
	content, err := p.src.Read(path)
	if err != nil {
		return complexity.FileResult{}, err
	}
	return p.AnalyzeContent(path, content), nil
}

// AnalyzeContent analyzes content attributed to path, consulting the cache.
func (p *Processor) AnalyzeContent(path string, content []byte) complexity.FileResult {
	l := p.LanguageOf(path)

	if res, ok := p.cache.Get(path, l, content); ok {
		p.logger.Debug("cache hit", "file", path)
		return complexity.FileResult{Path: path, Result: res}
	}

	opts := []complexity.Option{complexity.WithLogger(p.logger.With("file", path))}
	if p.tabWidth > 0 {
		opts = append(opts, complexity.WithTabWidth(p.tabWidth))
	}
	a, err := complexity.New(l, opts...)
	if err != nil {
		// LanguageOf only returns supported languages.
		panic(err)
	}

	res := a.Analyze(string(content))
	if err := p.cache.Put(path, l, content, res); err != nil {
		p.logger.Debug("cache write failed", "file", path, "error", err)
	}
	return complexity.FileResult{Path: path, Result: res}
}

// AnalyzeFiles analyzes files in parallel. Results keep the order of files.
func (p *Processor) AnalyzeFiles(ctx context.Context, files []string) ([]complexity.FileResult, *ProcessingErrors) {
	return ForEachFile(ctx, files, p.workers, p.AnalyzeFile, p.onProgress)
}
