// internal/render/renderers.go
package render

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/ikarm/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// New builds the renderer selected by cfg. Output "-" or "" means stdout
// (os.Stdout when stdout is nil); anything else is created (truncated) as a
// file and closed by Close.
func New(cfg config.RenderConfig, stdout io.Writer, runID string) (Renderer, error) {
	if cfg.Format == "none" {
		return NopRenderer{}, nil
	}

	w := stdout
	if w == nil {
		w = os.Stdout
	}
	var closer io.Closer
	if cfg.Output != "" && cfg.Output != "-" {
		f, err := os.Create(cfg.Output)
		if err != nil {
			return nil, fmt.Errorf("failed to open render output '%s': %w", cfg.Output, err)
		}
		w, closer = f, f
	}

	var r Renderer
	switch cfg.Format {
	case "text":
		r = &TextRenderer{w: w, closer: closer}
	case "jsonl":
		r = &JSONLRenderer{enc: json.NewEncoder(w), runID: runID, closer: closer}
	default:
		if closer != nil {
			closer.Close()
		}
		return nil, fmt.Errorf("unknown render format %q", cfg.Format)
	}
	return Sampled(r, cfg.EveryN), nil
}

// NopRenderer discards frames.
type NopRenderer struct{}

func (NopRenderer) RenderFrame(context.Context, Frame) error { return nil }
func (NopRenderer) Close() error                            { return nil }

// TextRenderer writes one human readable line per frame.
type TextRenderer struct {
	w      io.Writer
	closer io.Closer
}

// NewTextRenderer writes to w. Close does not close w.
func NewTextRenderer(w io.Writer) *TextRenderer {
	return &TextRenderer{w: w}
}

func (t *TextRenderer) RenderFrame(_ context.Context, f Frame) error {
	status := "solved"
	switch {
	case !f.HasJoint:
		status = "no-joint"
	case !f.Solved:
		status = "held"
	}
	_, err := fmt.Fprintf(t.w, "frame=%d target=(%.2f,%.2f) joint=(%.2f,%.2f) joint_angle=%s root_angle=%s %s\n",
		f.Index, f.Target.X, f.Target.Y, f.Joint.X, f.Joint.Y,
		AngleLabel(f.JointAngle), AngleLabel(f.RootAngle), status)
	return err
}

func (t *TextRenderer) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

// jsonFloat encodes NaN and infinities as null instead of failing.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, v, 'g', -1, 64), nil
}

type pointRecord struct {
	X jsonFloat `json:"x"`
	Y jsonFloat `json:"y"`
}

type primitiveRecord struct {
	Kind     PrimitiveKind `json:"kind"`
	At       pointRecord   `json:"at"`
	To       *pointRecord  `json:"to,omitempty"`
	Diameter jsonFloat     `json:"diameter,omitempty"`
	Filled   bool          `json:"filled,omitempty"`
	Text     string        `json:"text,omitempty"`
	Size     jsonFloat     `json:"size,omitempty"`
	Stroke   jsonFloat     `json:"stroke,omitempty"`
}

// FrameRecord is the JSONL schema, one object per line.
type FrameRecord struct {
	RunID           string            `json:"run_id"`
	Frame           int               `json:"frame"`
	Root            pointRecord       `json:"root"`
	Target          pointRecord       `json:"target"`
	Goal            pointRecord       `json:"goal"`
	Joint           pointRecord       `json:"joint"`
	JointAngle      jsonFloat         `json:"joint_angle"`
	RootAngle       jsonFloat         `json:"root_angle"`
	JointAngleLabel string            `json:"joint_angle_label"`
	RootAngleLabel  string            `json:"root_angle_label"`
	Solved          bool              `json:"solved"`
	HasJoint        bool              `json:"has_joint"`
	Scene           []primitiveRecord `json:"scene"`
}

func toPoint(x, y float64) pointRecord { return pointRecord{X: jsonFloat(x), Y: jsonFloat(y)} }

// NewFrameRecord flattens a frame and its draw list for encoding.
func NewFrameRecord(runID string, f Frame) FrameRecord {
	scene := Scene(f)
	prims := make([]primitiveRecord, 0, len(scene))
	for _, p := range scene {
		rec := primitiveRecord{
			Kind:     p.Kind,
			At:       toPoint(p.At.X, p.At.Y),
			Diameter: jsonFloat(p.Diameter),
			Filled:   p.Filled,
			Text:     p.Text,
			Size:     jsonFloat(p.Size),
			Stroke:   jsonFloat(p.Stroke),
		}
		if p.Kind == KindLine {
			to := toPoint(p.To.X, p.To.Y)
			rec.To = &to
		}
		prims = append(prims, rec)
	}

	return FrameRecord{
		RunID:           runID,
		Frame:           f.Index,
		Root:            toPoint(f.Root.X, f.Root.Y),
		Target:          toPoint(f.Target.X, f.Target.Y),
		Goal:            toPoint(f.Goal.X, f.Goal.Y),
		Joint:           toPoint(f.Joint.X, f.Joint.Y),
		JointAngle:      jsonFloat(f.JointAngle),
		RootAngle:       jsonFloat(f.RootAngle),
		JointAngleLabel: AngleLabel(f.JointAngle),
		RootAngleLabel:  AngleLabel(f.RootAngle),
		Solved:          f.Solved,
		HasJoint:        f.HasJoint,
		Scene:           prims,
	}
}

// JSONLRenderer writes one FrameRecord per line.
type JSONLRenderer struct {
	enc    *jsoniter.Encoder
	runID  string
	closer io.Closer
}

// NewJSONLRenderer writes to w. Close does not close w.
func NewJSONLRenderer(w io.Writer, runID string) *JSONLRenderer {
	return &JSONLRenderer{enc: json.NewEncoder(w), runID: runID}
}

func (j *JSONLRenderer) RenderFrame(_ context.Context, f Frame) error {
	if err := j.enc.Encode(NewFrameRecord(j.runID, f)); err != nil {
		return fmt.Errorf("failed to encode frame %d: %w", f.Index, err)
	}
	return nil
}

func (j *JSONLRenderer) Close() error {
	if j.closer == nil {
		return nil
	}
	return j.closer.Close()
}

type sampled struct {
	Renderer
	every int
}

// Sampled forwards only frames whose index is a multiple of every.
func Sampled(r Renderer, every int) Renderer {
	if every <= 1 {
		return r
	}
	return &sampled{Renderer: r, every: every}
}

func (s *sampled) RenderFrame(ctx context.Context, f Frame) error {
	if f.Index%s.every != 0 {
		return nil
	}
	return s.Renderer.RenderFrame(ctx, f)
}
