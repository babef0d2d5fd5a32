// Package session 驱动一次抓包会话：设置过滤、逐帧分类、输出摘要，
// 达到匹配数量后停止抓包。
package session

import (
	"context"
	"time"

	"go.uber.org/multierr"

	"github.com/nickproject/pktsniff/internal/capture"
	"github.com/nickproject/pktsniff/internal/decode"
	"github.com/nickproject/pktsniff/internal/filter"
	"github.com/nickproject/pktsniff/internal/logger"
	"github.com/nickproject/pktsniff/internal/stats"
)

// Emitter 摘要输出端
type Emitter interface {
	Emit(s *decode.Summary) error
}

// Session 抓包会话
// 匹配计数属于会话本身，同一进程内多个会话互不影响
type Session struct {
	spec       *filter.Spec
	capturer   capture.Capturer
	classifier *decode.Classifier
	emitters   []Emitter
	stats      *stats.Stats

	expression string
	matched    int
	started    time.Time
	finished   time.Time
}

// New 创建会话，摘要按顺序交给每个 emitter
func New(spec *filter.Spec, capturer capture.Capturer, emitters ...Emitter) *Session {
	return &Session{
		spec:       spec,
		capturer:   capturer,
		classifier: decode.NewClassifier(spec),
		emitters:   emitters,
		stats:      stats.New(),
		expression: filter.Expression(spec),
	}
}

// Run 运行会话直到匹配数量达到上限、数据源耗尽、ctx 取消或出错
// 不论结果如何，抓包器都会被停止并关闭
func (s *Session) Run(ctx context.Context) (err error) {
	s.started = time.Now()
	defer func() {
		s.finished = time.Now()
		err = multierr.Append(err, s.capturer.Stop())
		err = multierr.Append(err, s.capturer.Close())

		snap := s.stats.Snapshot()
		logger.Info("抓包结束",
			"seen", snap.Seen,
			"emitted", snap.Emitted,
			"filtered", snap.Filtered,
			"matched", s.Matched(),
			"duration", s.Duration(),
		)
	}()

	caps := s.capturer.Capabilities()
	if caps.SupportsBPFFilter {
		if err := s.capturer.SetFilter(s.expression); err != nil {
			return err
		}
	} else if s.expression != "" {
		logger.Warn("数据源不支持 BPF 过滤，将收到全部数据包", "filter", s.expression)
	}
	logger.Info("开始抓包",
		"interface", s.spec.Interface(),
		"live", caps.Live,
		"filter", s.expression,
		"count", s.spec.Count(),
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	return s.capturer.Start(ctx, func(f capture.Frame) error {
		return s.handle(f, cancel)
	})
}

func (s *Session) handle(f capture.Frame, cancel context.CancelFunc) error {
	// 停止请求发出后抓包器可能已读到下一帧，直接丢弃
	if s.matched >= s.spec.Count() {
		return nil
	}

	summary, ok, err := s.classifier.Classify(f)
	if err != nil {
		return err
	}
	if !ok {
		s.stats.Observe(summary.Protocol, stats.Filtered)
		logger.Debug("帧被过滤", "protocol", summary.Protocol, "length", summary.FrameLen)
		return nil
	}

	for _, e := range s.emitters {
		if err := e.Emit(summary); err != nil {
			return err
		}
	}
	s.stats.Observe(summary.Protocol, stats.Emitted)

	s.matched++
	if s.matched >= s.spec.Count() {
		cancel()
		return s.capturer.Stop()
	}
	return nil
}

// Expression 会话使用的 BPF 表达式
func (s *Session) Expression() string {
	return s.expression
}

// Matched 已输出的摘要数
func (s *Session) Matched() int {
	return s.matched
}

// Stats 会话统计快照
func (s *Session) Stats() stats.Snapshot {
	return s.stats.Snapshot()
}

// Duration 会话运行时长，运行中返回已经过的时间
func (s *Session) Duration() time.Duration {
	if s.started.IsZero() {
		return 0
	}
	if s.finished.IsZero() {
		return time.Since(s.started)
	}
	return s.finished.Sub(s.started)
}
