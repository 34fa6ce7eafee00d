package katachi

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// go test -run ^TestWorldStack$ . -count 1
func TestWorldStack(t *testing.T) {
	ctx := newTestContext(t)
	def := ctx.PeekWorld()
	require.Same(t, def, ctx.DefaultWorld())

	w := ctx.MakeWorld()
	require.NotEqual(t, def.ID(), w.ID())
	require.NoError(t, ctx.PushWorld(w))
	require.Same(t, w, ctx.PeekWorld())

	popped, err := ctx.PopWorld()
	require.NoError(t, err)
	require.Same(t, w, popped)
	require.Same(t, def, ctx.PeekWorld())

	popped, err = ctx.PopWorld()
	require.ErrorIs(t, err, ErrWorldStackEmpty)
	require.Same(t, def, popped, "popping past the bottom returns the default world")
	require.Same(t, def, ctx.PeekWorld())
}

// go test -run ^TestUnqualifiedCallsUseTopWorld$ . -count 1
func TestUnqualifiedCallsUseTopWorld(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")
	defineEntity(t, ctx, "Player", "Position")

	inDefault, _ := ctx.MakeEntity("Player")
	w := ctx.MakeWorld()
	require.NoError(t, ctx.PushWorld(w))
	inW, _ := ctx.MakeEntity("Player")

	require.Equal(t, 1, w.EntityCount())
	require.Equal(t, 1, ctx.DefaultWorld().EntityCount())

	require.True(t, ctx.IsValid(inW))
	require.False(t, ctx.IsValid(inDefault), "entities of other worlds do not resolve")
	require.Nil(t, ctx.GetComponent(inDefault, "Position"))
	require.ErrorIs(t, ctx.DestroyEntity(inDefault), ErrWorldMismatch)
	require.ErrorIs(t, ctx.DestroyEntityDelayed(inDefault), ErrWorldMismatch)

	ran := 0
	_, err := ctx.SystemBegin().SetName("Count").RequireComponent("Position").
		SetUpdate(func(list ComponentList, count int, _ any) {
			require.Same(t, w, list.World())
			ran += count
		}).End()
	require.NoError(t, err)
	require.NoError(t, ctx.RunSystems())
	require.Equal(t, 1, ran)

	_, err = ctx.PopWorld()
	require.NoError(t, err)
	require.True(t, ctx.IsValid(inDefault))
}

// go test -run ^TestDestroyWorld$ . -count 1
func TestDestroyWorld(t *testing.T) {
	ctx := newTestContext(t)
	c := &counters{}
	_, err := ctx.ComponentBegin().SetName("Health").SetSize(8).
		SetOptionalCleanup(countCleanup, c).End()
	require.NoError(t, err)
	defineEntity(t, ctx, "Unit", "Health")

	w := ctx.MakeWorld()
	require.NoError(t, ctx.PushWorld(w))
	e, _ := ctx.MakeEntity("Unit")
	_, _ = ctx.MakeEntity("Unit")
	require.NoError(t, ctx.Deactivate(e))

	require.ErrorIs(t, ctx.DestroyWorld(w), ErrWorldInUse)
	require.ErrorIs(t, ctx.DestroyWorld(ctx.DefaultWorld()), ErrWorldInUse)
	_, err = ctx.PopWorld()
	require.NoError(t, err)

	require.NoError(t, ctx.DestroyWorld(w))
	require.Equal(t, 2, c.cleanup, "inactive entities are cleaned up too")
	require.False(t, w.IsValid(e))
	require.Equal(t, 0, w.EntityCount())
	_, err = w.MakeEntity("Unit")
	require.ErrorIs(t, err, ErrWorldDestroyed)
	require.ErrorIs(t, w.RunSystems(), ErrWorldDestroyed)
	require.ErrorIs(t, ctx.DestroyWorld(w), ErrWorldDestroyed)
	require.ErrorIs(t, ctx.PushWorld(w), ErrWorldDestroyed)

	// The default world is unaffected.
	d, err := ctx.MakeEntity("Unit")
	require.NoError(t, err)
	require.True(t, ctx.IsValid(d))
}

// go test -run ^TestWorldsDoNotShareHandles$ . -count 1
func TestWorldsDoNotShareHandles(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")
	defineEntity(t, ctx, "Player", "Position")
	a := ctx.MakeWorld()
	b := ctx.MakeWorld()

	ea, _ := a.MakeEntity("Player")
	eb, _ := b.MakeEntity("Player")
	require.Equal(t, ea.Handle().Index(), eb.Handle().Index())
	require.NotEqual(t, ea, eb)

	require.True(t, a.IsValid(ea))
	require.False(t, a.IsValid(eb))
	require.ErrorIs(t, a.Deactivate(eb), ErrWorldMismatch)
	require.True(t, b.IsActive(eb))
}

// go test -run ^TestContractViolationsAreLogged$ . -count 1
func TestContractViolationsAreLogged(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	ctx := NewContext(WithLogger(zap.New(core)))
	_, err := ctx.ComponentBegin().SetName("Position").SetSize(8).End()
	require.NoError(t, err)
	_, err = ctx.EntityBegin().SetName("Player").AddComponent("Position").End()
	require.NoError(t, err)
	e, _ := ctx.MakeEntity("Player")

	_, err = ctx.ComponentBegin().SetName("Bad").End()
	require.ErrorIs(t, err, ErrZeroSize)
	require.Equal(t, 1, logs.FilterMessage("definition rejected").Len())

	_, err = ctx.SystemBegin().SetName("Bad").RequireComponent("Position").
		SetUpdate(func(list ComponentList, _ int, _ any) {
			_ = list.World().DestroyEntity(e)
		}).End()
	require.NoError(t, err)
	require.NoError(t, ctx.RunSystems())

	errs := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	require.Len(t, errs, 1)
	require.Equal(t, "destroy entity", errs[0].ContextMap()["op"])

	_, err = ctx.PopWorld()
	require.ErrorIs(t, err, ErrWorldStackEmpty)
	require.Equal(t, 2, logs.FilterLevelExact(zapcore.ErrorLevel).Len())
}

// go test -run ^TestCallbacksSeeOwningEntity$ . -count 1
func TestCallbacksSeeOwningEntity(t *testing.T) {
	ctx := newTestContext(t)
	var cleaned []Entity
	_, err := ctx.ComponentBegin().SetName("Tag").SetSize(1).
		SetOptionalCleanup(func(e Entity, _ unsafe.Pointer, _ any) { cleaned = append(cleaned, e) }, nil).End()
	require.NoError(t, err)
	defineEntity(t, ctx, "Tagged", "Tag")

	a, _ := ctx.MakeEntity("Tagged")
	b, _ := ctx.MakeEntity("Tagged")
	require.NoError(t, ctx.DestroyEntity(b))
	require.NoError(t, ctx.DestroyEntity(a))
	require.Equal(t, []Entity{b, a}, cleaned)
}

// go test -run ^TestDestroyedWorldTagIsRetired$ . -count 1
func TestDestroyedWorldTagIsRetired(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")
	defineEntity(t, ctx, "Player", "Position")

	old := ctx.MakeWorld()
	stale, _ := old.MakeEntity("Player")
	require.NoError(t, ctx.DestroyWorld(old))

	fresh := ctx.MakeWorld()
	e, _ := fresh.MakeEntity("Player")
	require.NotEqual(t, stale.Handle().Type(), e.Handle().Type())
	require.False(t, fresh.IsValid(stale))
}
