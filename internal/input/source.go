// internal/input/source.go
package input

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/hpcloud/tail"
	"go.uber.org/zap"

	"github.com/xkilldash9x/ikarm/internal/config"
	"github.com/xkilldash9x/ikarm/internal/geometry"
)

// Source pushes goal points, as a pointer device would on each press.
// Run blocks until the source is exhausted or ctx is done. A nil error at
// exhaustion is normal; the runner decides whether that ends the simulation.
type Source interface {
	Run(ctx context.Context, out chan<- geometry.Vector2D) error
}

// ParsePoint reads "x y", "x,y" or "x, y".
func ParsePoint(line string) (geometry.Vector2D, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(fields) != 2 {
		return geometry.Vector2D{}, fmt.Errorf("expected two coordinates, got %d in %q", len(fields), line)
	}
	x, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return geometry.Vector2D{}, fmt.Errorf("bad x coordinate %q: %w", fields[0], err)
	}
	y, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return geometry.Vector2D{}, fmt.Errorf("bad y coordinate %q: %w", fields[1], err)
	}
	return geometry.Vector2D{X: x, Y: y}, nil
}

// skippable lines are blank or comments.
func skippable(line string) bool {
	line = strings.TrimSpace(line)
	return line == "" || strings.HasPrefix(line, "#")
}

func send(ctx context.Context, out chan<- geometry.Vector2D, p geometry.Vector2D) error {
	select {
	case out <- p:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Script is a fixed list of clicks keyed by frame number.
type Script struct {
	clicks map[int]geometry.Vector2D
	last   int
}

// NewScript builds a script. A later click on the same frame wins.
func NewScript(clicks []config.ClickConfig) *Script {
	s := &Script{clicks: make(map[int]geometry.Vector2D, len(clicks)), last: -1}
	for _, c := range clicks {
		s.clicks[c.Frame] = geometry.Vector2D{X: c.X, Y: c.Y}
		if c.Frame > s.last {
			s.last = c.Frame
		}
	}
	return s
}

// At returns the click scheduled for frame, if any.
func (s *Script) At(frame int) (geometry.Vector2D, bool) {
	if s == nil {
		return geometry.Vector2D{}, false
	}
	p, ok := s.clicks[frame]
	return p, ok
}

// LastFrame is the frame of the final click, or -1 for an empty script.
func (s *Script) LastFrame() int {
	if s == nil {
		return -1
	}
	return s.last
}

// Frames lists the scheduled frames in order.
func (s *Script) Frames() []int {
	if s == nil {
		return nil
	}
	frames := make([]int, 0, len(s.clicks))
	for f := range s.clicks {
		frames = append(frames, f)
	}
	sort.Ints(frames)
	return frames
}

// ReaderSource reads one point per line from r, e.g. stdin.
type ReaderSource struct {
	r      io.Reader
	logger *zap.Logger
}

func NewReaderSource(r io.Reader, logger *zap.Logger) *ReaderSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReaderSource{r: r, logger: logger.Named("input-reader")}
}

// Run returns as soon as ctx is done, even while the underlying Read is
// still blocked; the scanning goroutine then exits once Read returns.
func (s *ReaderSource) Run(ctx context.Context, out chan<- geometry.Vector2D) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(s.r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					if err != nil {
						return fmt.Errorf("failed to read input: %w", err)
					}
				default:
				}
				return nil
			}
			if skippable(line) {
				continue
			}
			p, err := ParsePoint(line)
			if err != nil {
				s.logger.Warn("Skipping unparsable input line", zap.Error(err))
				continue
			}
			if err := send(ctx, out, p); err != nil {
				return err
			}
		}
	}
}

// FollowSource follows a file like `tail -f`, emitting a point per appended line.
// It only returns when ctx is done or the file can't be opened.
type FollowSource struct {
	path      string
	fromStart bool
	poll      bool
	logger    *zap.Logger
}

func NewFollowSource(path string, fromStart bool, logger *zap.Logger) *FollowSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowSource{path: path, fromStart: fromStart, logger: logger.Named("input-follow")}
}

// WithPolling switches from inotify to stat polling, for filesystems without notifications.
func (s *FollowSource) WithPolling() *FollowSource {
	s.poll = true
	return s
}

func (s *FollowSource) Run(ctx context.Context, out chan<- geometry.Vector2D) error {
	whence := io.SeekEnd
	if s.fromStart {
		whence = io.SeekStart
	}
	t, err := tail.TailFile(s.path, tail.Config{
		Follow:    true,
		ReOpen:    true,
		MustExist: true,
		Poll:      s.poll,
		Location:  &tail.SeekInfo{Offset: 0, Whence: whence},
		Logger:    tail.DiscardingLogger,
	})
	if err != nil {
		return fmt.Errorf("failed to follow input file: %w", err)
	}
	defer func() {
		t.Stop()
		t.Cleanup()
	}()

	s.logger.Info("Following input file", zap.String("path", s.path), zap.Bool("from_start", s.fromStart))
	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-t.Lines:
			if !ok {
				return nil
			}
			if line.Err != nil {
				s.logger.Warn("Error reading from input file", zap.Error(line.Err))
				continue
			}
			if skippable(line.Text) {
				continue
			}
			p, err := ParsePoint(line.Text)
			if err != nil {
				s.logger.Warn("Skipping unparsable input line", zap.Error(err))
				continue
			}
			if err := send(ctx, out, p); err != nil {
				return nil
			}
		}
	}
}

// FromConfig returns the asynchronous source for cfg, or nil for "script",
// whose clicks are frame-keyed and handled by NewScript.
func FromConfig(cfg config.InputConfig, stdin io.Reader, logger *zap.Logger) (Source, error) {
	switch cfg.Kind {
	case "script":
		return nil, nil
	case "stdin":
		return NewReaderSource(stdin, logger), nil
	case "file":
		return NewFollowSource(cfg.File, cfg.FromStart, logger), nil
	default:
		return nil, fmt.Errorf("unknown input kind %q", cfg.Kind)
	}
}
