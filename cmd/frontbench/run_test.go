package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/gogpu/frontend"
	"github.com/gogpu/frontend/region"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func smallConfig() benchConfig {
	cfg := runCfg
	cfg.Frames = 5
	cfg.Blocks = 16
	cfg.MaxVertices = 32
	cfg.Churn = 0.3
	cfg.Edits = 0.5
	cfg.BufferSize = frontend.DefaultCommandBufferSize
	return cfg
}

func TestRunBench(t *testing.T) {
	for _, policy := range []string{"first", "best"} {
		t.Run(policy, func(t *testing.T) {
			cfg := smallConfig()
			cfg.Policy = policy

			report, err := runBench(context.Background(), cfg)
			require.NoError(t, err)

			assert.Equal(t, uint64(5), report.Frontend.Frames)
			assert.Equal(t, 16, report.Frontend.Blocks)
			assert.Zero(t, report.Frontend.Overflows)
			require.NotNil(t, report.Replay)
			assert.Equal(t, 5*16, report.Replay.Draws)
			assert.Equal(t, 5, report.Replay.ProfileScopes)
		})
	}
}

func TestRunBenchSmallBuffer(t *testing.T) {
	cfg := smallConfig()
	cfg.BufferSize = 256

	_, err := runBench(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, frontend.ErrCommandBufferFull)
	assert.Contains(t, err.Error(), "--buffer-size")
}

func TestRunBenchInvalidConfig(t *testing.T) {
	cfg := smallConfig()
	cfg.Policy = "worst"
	_, err := runBench(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown region policy")

	cfg = smallConfig()
	cfg.Backend = "vulkan"
	_, err = runBench(context.Background(), cfg)
	assert.Error(t, err)

	cfg = smallConfig()
	cfg.Frames = 0
	_, err = runBench(context.Background(), cfg)
	assert.Error(t, err)
}

func TestParsePolicy(t *testing.T) {
	p, err := parsePolicy("bestfit")
	require.NoError(t, err)
	assert.Equal(t, region.BestFit, p)
}

func TestPrintReport(t *testing.T) {
	report, err := runBench(context.Background(), smallConfig())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, printReport(&buf, report))
	out := buf.String()
	assert.Contains(t, out, "5 frames in")
	assert.Contains(t, out, "Frontend[")
	assert.Contains(t, out, "Replay[")
}

func TestBackendsCommand(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"backends"})
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, buf.String(), "noop")
}
