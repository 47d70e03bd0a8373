package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-attention-agent/internal/blackboard"
	"go-attention-agent/internal/eval"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestValidateStub(t *testing.T) {
	out, err := execute(t, "validate", "--stub", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "ok:")
	assert.Contains(t, out, "operator")
}

func TestSeedThenScores(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	t.Setenv("SUPERVISOR_REDIS_ADDR", mr.Addr())

	_, err = execute(t, "seed", "-q")
	require.NoError(t, err)
	assert.True(t, mr.Exists("snapshot:components"))

	store := blackboard.NewRedisStore(&redis.Options{Addr: mr.Addr()}, nil)
	defer store.Close()
	require.NoError(t, eval.Publish(context.Background(), store, eval.Scores{Tracking: 0.05, Scale: 0.5}))

	out, err := execute(t, "scores", "-q")
	require.NoError(t, err)
	assert.Contains(t, out, "tracking")
	assert.Contains(t, out, "0.050")
	assert.Contains(t, out, "0.500")
}

func TestRenderScoresMissing(t *testing.T) {
	half := 0.2
	out := renderScores(map[string]*float64{"scale": &half})
	lines := strings.Split(out, "\n")
	require.Len(t, lines, len(eval.Dimensions)+1)
	assert.Contains(t, out, "n/a")
	assert.Contains(t, out, "0.200")
}
