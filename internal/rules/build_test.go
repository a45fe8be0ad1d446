package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zaczkows/fb4rasp/internal/config"
	"github.com/zaczkows/fb4rasp/internal/exec"
	"github.com/zaczkows/fb4rasp/internal/params"
	"github.com/zaczkows/fb4rasp/internal/touch"
)

func intPtr(v int) *int { return &v }

func TestDefaults(t *testing.T) {
	runner := &exec.RecordingRunner{}
	rs := Defaults(Env{ShutdownCommand: []string{"poweroff"}, Runner: runner})
	require.Len(t, rs, 2)

	power, swap := rs[0], rs[1]
	assert.Equal(t, "power-down", power.Name)
	assert.Equal(t, KindAll, power.Kind)
	assert.Equal(t, "swap-layout", swap.Name)
	assert.Equal(t, KindSingle, swap.Kind)

	chord := touch.FromPins(2, 3, 4, 6, 8)
	assert.True(t, power.Check(chord))
	assert.False(t, swap.Check(chord))
	assert.True(t, swap.Check(touch.FromPins(2)))
	assert.False(t, power.Check(touch.FromPins(2)))

	power.Apply(params.New(2))
	assert.Equal(t, [][]string{{"poweroff"}}, runner.Calls)
}

func TestBuild_EmptyUsesDefaults(t *testing.T) {
	rs, err := Build(nil, Env{})
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, "power-down", rs[0].Name)
}

func TestBuild(t *testing.T) {
	modes := make(chan string, 1)
	cfgs := []config.RuleConfig{
		{Name: "swap", Match: config.MatchSingle, When: []config.ConditionConfig{{Pin: intPtr(2)}}, Do: []string{config.ActionToggleLayout}},
		{Name: "net", Match: config.MatchAny, When: []config.ConditionConfig{{AnyPin: intPtr(0)}, {Pins: []int{10, 11}}}, Do: []string{"mode:network", config.ActionToggleLayout}},
	}

	rs, err := Build(cfgs, Env{Modes: modes})
	require.NoError(t, err)
	require.Len(t, rs, 2)

	assert.Equal(t, KindSingle, rs[0].Kind)
	assert.IsType(t, OnlyPin(0), rs[0].Conditions[0])

	net := rs[1]
	assert.Equal(t, KindAny, net.Kind)
	assert.IsType(t, AnyPin(0), net.Conditions[0])
	assert.IsType(t, ExactPins(0), net.Conditions[1])
	assert.True(t, net.Check(touch.FromPins(10, 11)))
	assert.True(t, net.Check(touch.FromPins(0, 7)))
	assert.False(t, net.Check(touch.FromPins(10)))

	p := params.New(2)
	assert.True(t, net.Apply(p))
	assert.Equal(t, "network", <-modes)
	assert.Equal(t, params.LayoutHorizontal, p.Options.MainLayout)
}

func TestBuild_Invalid(t *testing.T) {
	_, err := Build([]config.RuleConfig{{Name: "x", Match: config.MatchAll, When: []config.ConditionConfig{{Pin: intPtr(1)}}, Do: []string{"explode"}}}, Env{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "explode")
}

func TestBuildActions_Unsupported(t *testing.T) {
	_, err := BuildActions([]string{"reboot"}, Env{})
	assert.EqualError(t, err, `unsupported action "reboot"`)
}
