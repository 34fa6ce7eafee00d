package script

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/edwinsyarief/katachi"
	"github.com/edwinsyarief/katachi/internal/config"
)

type vec2 struct{ X, Y float32 }

const definitions = `
components:
  - name: Position
    size: 8
  - name: Velocity
    size: 8
    initializer: init_velocity
  - name: Health
    size: 4
    initializer: init_health
entity_types:
  - name: Mover
    components: [Position, Velocity]
  - name: Mortal
    components: [Health]
systems:
  - name: Move
    requires: [Position, Velocity]
    update: move
    post_update: count_hook
  - name: Decay
    requires: [Health]
    update: decay
`

func setup(t *testing.T) (*katachi.Context, *Engine) {
	ctx := katachi.NewContext(katachi.WithLogger(zaptest.NewLogger(t)))
	e, err := NewEngine(ctx, "testdata", zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)

	defs, err := config.DecodeYAML(strings.NewReader(definitions))
	require.NoError(t, err)
	require.NoError(t, defs.Apply(ctx, e))
	return ctx, e
}

// go test -run ^TestLuaInitializerAndUpdate$ . -count 1
func TestLuaInitializerAndUpdate(t *testing.T) {
	ctx, e := setup(t)
	w := ctx.PeekWorld()

	m, err := ctx.MakeEntity("Mover")
	require.NoError(t, err)
	require.Equal(t, vec2{X: 1.5, Y: -2}, *katachi.ComponentAs[vec2](w, m, "Velocity"))
	require.Equal(t, vec2{}, *katachi.ComponentAs[vec2](w, m, "Position"))

	require.NoError(t, ctx.RunSystems())
	require.NoError(t, ctx.RunSystems())
	require.Equal(t, vec2{X: 3, Y: -4}, *katachi.ComponentAs[vec2](w, m, "Position"))
	require.Equal(t, lua.LNumber(2), e.vm.GetGlobal("hooks_seen"))
}

// go test -run ^TestLuaDelayedDestroy$ . -count 1
func TestLuaDelayedDestroy(t *testing.T) {
	ctx, _ := setup(t)
	a, err := ctx.MakeEntity("Mortal")
	require.NoError(t, err)

	for range 2 {
		require.NoError(t, ctx.RunSystems())
		require.True(t, ctx.IsValid(a))
	}
	require.NoError(t, ctx.RunSystems())
	require.False(t, ctx.IsValid(a))
	require.Equal(t, 0, ctx.PeekWorld().EntityCount())
}

// go test -run ^TestLuaCallbackLookup$ . -count 1
func TestLuaCallbackLookup(t *testing.T) {
	ctx := katachi.NewContext()
	e, err := NewEngine(ctx, "", zap.NewNop())
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.LoadString(`not_a_function = 1
function f() end`))
	_, ok := e.Update("f")
	require.True(t, ok)
	_, ok = e.Hook("f")
	require.True(t, ok)
	_, ok = e.Component("f")
	require.True(t, ok)
	_, ok = e.Update("not_a_function")
	require.False(t, ok)
	_, ok = e.Update("missing")
	require.False(t, ok)

	require.Error(t, e.LoadString("this is not lua"))

	_, err = NewEngine(ctx, "testdata/none", zap.NewNop())
	require.NoError(t, err, "a missing scripts directory is skipped")
}

// go test -run ^TestLuaErrorsAreLogged$ . -count 1
func TestLuaErrorsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.ErrorLevel)
	ctx := katachi.NewContext()
	e, err := NewEngine(ctx, "", zap.New(core))
	require.NoError(t, err)
	defer e.Close()

	require.NoError(t, e.LoadString(`
kept = nil
function bad_offset(list, count)
  list:get_f32("Position", 1, 6)
end
function keep(list, count)
  kept = list
end
function use_kept()
  kept:count()
end
`))
	_, err = ctx.ComponentBegin().SetName("Position").SetSize(8).End()
	require.NoError(t, err)
	_, err = ctx.EntityBegin().SetName("P").AddComponent("Position").End()
	require.NoError(t, err)
	_, err = ctx.MakeEntity("P")
	require.NoError(t, err)

	defs := &config.Definitions{Systems: []config.SystemDef{
		{Name: "BadOffset", Requires: []string{"Position"}, Update: "bad_offset"},
		{Name: "Keep", Requires: []string{"Position"}, Update: "keep", PostUpdate: "use_kept"},
	}}
	require.NoError(t, defs.Apply(ctx, e))

	require.NoError(t, ctx.RunSystems())
	require.Equal(t, 2, logs.FilterMessage("lua callback error").Len())
}

// go test -run ^TestLuaScriptLoadOrder$ . -count 1
func TestLuaScriptLoadOrder(t *testing.T) {
	e, err := NewEngine(katachi.NewContext(), "testdata/ordered", zaptest.NewLogger(t))
	require.NoError(t, err)
	defer e.Close()

	require.Equal(t, []string{"a_base.lua", "b_extend.lua"}, e.Loaded())
	order, ok := e.vm.GetGlobal("LOAD_ORDER").(*lua.LTable)
	require.True(t, ok)
	require.Equal(t, 2, order.Len())
	require.Equal(t, lua.LString("a_base"), order.RawGetInt(1))
	require.Equal(t, lua.LString("b_extend"), order.RawGetInt(2))
}
