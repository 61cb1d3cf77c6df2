package main

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"time"

	"github.com/gogpu/frontend"
	"github.com/gogpu/frontend/arena"
	"github.com/gogpu/frontend/backend"
	"github.com/gogpu/frontend/backend/halreplay"
	"github.com/gogpu/frontend/command"
	"github.com/gogpu/frontend/region"
	"github.com/gogpu/frontend/resource"
	"github.com/spf13/cobra"
)

// benchConfig holds the run flags.
type benchConfig struct {
	Backend     string
	Frames      int
	Blocks      int
	Churn       float64 // fraction of blocks remapped per frame
	Edits       float64 // fraction of blocks partially rewritten per frame
	BufferSize  int
	Policy      string
	Seed        uint64
	MaxVertices int
}

// benchReport is printed after a run.
type benchReport struct {
	Config   benchConfig
	Elapsed  time.Duration
	Frontend frontend.Stats
	Arena    string
	Replay   *halreplay.Stats `json:",omitempty"`
}

var runCfg = benchConfig{
	Backend:     backend.NameNoop,
	Frames:      60,
	Blocks:      256,
	Churn:       0.05,
	Edits:       0.25,
	Policy:      "first",
	Seed:        1,
	MaxVertices: 512,
}

func init() {
	cmd := newRunCmd()
	f := cmd.Flags()
	f.StringVarP(&runCfg.Backend, "backend", "b", runCfg.Backend, "Backend to replay into (see 'frontbench backends')")
	f.IntVarP(&runCfg.Frames, "frames", "n", runCfg.Frames, "Number of frames to record")
	f.IntVar(&runCfg.Blocks, "blocks", runCfg.Blocks, "Number of arena blocks")
	f.Float64Var(&runCfg.Churn, "churn", runCfg.Churn, "Fraction of blocks remapped to a new size each frame")
	f.Float64Var(&runCfg.Edits, "edits", runCfg.Edits, "Fraction of blocks partially rewritten each frame")
	f.IntVar(&runCfg.BufferSize, "buffer-size", frontend.DefaultCommandBufferSize, "Command buffer size in bytes")
	f.StringVar(&runCfg.Policy, "policy", runCfg.Policy, "Region fit policy: first or best")
	f.Uint64Var(&runCfg.Seed, "seed", runCfg.Seed, "Random seed")
	f.IntVar(&runCfg.MaxVertices, "max-vertices", runCfg.MaxVertices, "Upper bound of vertices per block")
	rootCmd.AddCommand(cmd)
}

func newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Record and replay synthetic frames",
		Long: `The run command fills an arena with quads of random size, then records
frames that rewrite parts of some blocks, remap others to a new size and
draw every block. Each frame is submitted to the selected backend.

Example:
  frontbench run --frames 300 --blocks 1024
  frontbench run --policy best --churn 0.2 --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := runBench(cmd.Context(), runCfg)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
}

func parsePolicy(s string) (region.Policy, error) {
	switch s {
	case "first", "firstfit":
		return region.FirstFit, nil
	case "best", "bestfit":
		return region.BestFit, nil
	}
	return 0, fmt.Errorf("unknown region policy %q", s)
}

// meshFormat is a 20 byte vertex of position and uv, indexed by u16.
func meshFormat() *resource.Format {
	f := resource.NewFormat()
	f.RecordType(resource.BufferDynamic)
	f.RecordElementType(resource.ElementU16)
	f.RecordVertexStride(20)
	f.RecordVertexAttribute(resource.AttributeVec3F, 0)
	f.RecordVertexAttribute(resource.AttributeVec2F, 12)
	f.Finalize()
	return f
}

// fillQuads writes n/4 quads into blk.
func fillQuads(blk *arena.Block, quads int, rng *rand.Rand) bool {
	vertices := blk.MapVertices(uint32(quads * 4 * 20))
	if vertices == nil {
		return false
	}
	for i := 0; i < len(vertices); i += 4 {
		binary.LittleEndian.PutUint32(vertices[i:], math.Float32bits(rng.Float32()))
	}
	elements := blk.MapElements(uint32(quads * 6 * 2))
	if elements == nil {
		return false
	}
	for q := range quads {
		base := uint16(q * 4)
		for i, e := range [6]uint16{0, 1, 2, 2, 3, 0} {
			binary.LittleEndian.PutUint16(elements[(q*6+i)*2:], base+e)
		}
	}
	return true
}

func runBench(ctx context.Context, cfg benchConfig) (*benchReport, error) {
	if cfg.Frames < 1 || cfg.Blocks < 1 || cfg.MaxVertices < 4 {
		return nil, errors.New("frames and blocks must be positive, max-vertices at least 4")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	policy, err := parsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	b, err := backend.New(cfg.Backend)
	if err != nil {
		return nil, err
	}
	defer b.Close()

	c := frontend.New(
		frontend.WithCommandBufferSize(cfg.BufferSize),
		frontend.WithRegionPolicy(policy),
	)
	defer c.Close()

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	maxQuads := cfg.MaxVertices / 4

	prog, err := c.CreateProgram("mesh", []resource.Uniform{
		{Name: "view", Size: 64},
		{Name: "time", Size: 4},
	})
	if err != nil {
		return nil, err
	}
	meshes := c.CreateArena(c.Intern(meshFormat()), arena.WithCapacity(cfg.Blocks))
	blocks := make([]*arena.Block, cfg.Blocks)
	for i := range blocks {
		blocks[i] = meshes.Block()
		if !fillQuads(blocks[i], 1+rng.IntN(maxQuads), rng) {
			return nil, fmt.Errorf("arena exhausted at block %d", i)
		}
	}
	c.InitializeBuffer(meshes.Buffer())
	c.Initialize(prog)

	start := time.Now()
	for frame := range cfg.Frames {
		end := c.Profile(fmt.Sprintf("frame %d", frame))

		for _, blk := range blocks {
			switch p := rng.Float64(); {
			case p < cfg.Churn:
				if !fillQuads(blk, 1+rng.IntN(maxQuads), rng) {
					return nil, fmt.Errorf("frame %d: arena exhausted", frame)
				}
			case p < cfg.Churn+cfg.Edits:
				n := blk.VertexCount()
				first := uint32(rng.IntN(int(n)))
				blk.RecordVerticesEdit(first*20, (n-first)*20)
			}
		}
		c.UpdateArena(meshes)

		var t [4]byte
		binary.LittleEndian.PutUint32(t[:], math.Float32bits(float32(frame)/60))
		prog.SetUniform(1, t[:])
		for _, blk := range blocks {
			c.DrawBlock(frontend.DrawCall{
				Target:  c.Swapchain(),
				Program: prog,
				State:   command.DefaultState(),
			}, blk)
		}
		end()

		if err := c.Submit(ctx, b); err != nil {
			if errors.Is(err, frontend.ErrCommandBufferFull) {
				return nil, fmt.Errorf("frame %d: %w (raise --buffer-size)", frame, err)
			}
			return nil, fmt.Errorf("frame %d: %w", frame, err)
		}
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}

	report := &benchReport{
		Config:   cfg,
		Elapsed:  time.Since(start),
		Frontend: c.Stats(),
		Arena:    meshes.Stats().String(),
	}
	if hb, ok := b.(*halreplay.Backend); ok {
		s := hb.Stats()
		report.Replay = &s
	}
	return report, nil
}

func printReport(w io.Writer, r *benchReport) error {
	if jsonOut {
		return printJSON(w, r)
	}
	perFrame := r.Elapsed / time.Duration(r.Config.Frames)
	fmt.Fprintf(w, "%d frames in %v (%v/frame) on %s\n", r.Config.Frames, r.Elapsed, perFrame, r.Config.Backend)
	fmt.Fprintln(w, r.Frontend)
	fmt.Fprintln(w, r.Arena)
	if r.Replay != nil {
		fmt.Fprintln(w, r.Replay)
	}
	return nil
}
