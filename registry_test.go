package katachi

import (
	"fmt"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// --- Test Components ---
type Position struct{ X, Y int32 }
type Velocity struct{ X, Y int32 }
type Health struct{ Current, Max int32 }
type Shield struct{ Points int32 }

func newTestContext(t testing.TB) *Context {
	return NewContext(WithLogger(zaptest.NewLogger(t)), WithInitialCapacity(16))
}

func defineComponent[T any](t testing.TB, ctx *Context, name string) ComponentID {
	var zero T
	id, err := ctx.ComponentBegin().SetName(name).SetSize(int(unsafe.Sizeof(zero))).End()
	require.NoError(t, err)
	return id
}

func defineEntity(t testing.TB, ctx *Context, name string, components ...string) EntityTypeID {
	b := ctx.EntityBegin().SetName(name)
	for _, c := range components {
		b.AddComponent(c)
	}
	id, err := b.End()
	require.NoError(t, err)
	return id
}

// go test -run ^TestComponentDefinition$ . -count 1
func TestComponentDefinition(t *testing.T) {
	ctx := newTestContext(t)
	pos := defineComponent[Position](t, ctx, "Position")
	vel := defineComponent[Velocity](t, ctx, "Velocity")
	require.Equal(t, ComponentID(0), pos)
	require.Equal(t, ComponentID(1), vel)
	require.Equal(t, []string{"Position", "Velocity"}, ctx.ComponentNames())

	size, ok := ctx.ComponentSize("Position")
	require.True(t, ok)
	require.Equal(t, 8, size)
	_, ok = ctx.ComponentSize("Missing")
	require.False(t, ok)
}

// go test -run ^TestComponentDefinitionErrors$ . -count 1
func TestComponentDefinitionErrors(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")

	_, err := ctx.ComponentBegin().SetSize(4).End()
	require.ErrorIs(t, err, ErrMissingName)

	_, err = ctx.ComponentBegin().SetName("Empty").End()
	require.ErrorIs(t, err, ErrZeroSize)

	_, err = ctx.ComponentBegin().SetName("Position").SetSize(8).End()
	require.ErrorIs(t, err, ErrDuplicateName)

	// Rejected definitions leave no trace.
	require.Equal(t, []string{"Position"}, ctx.ComponentNames())

	// The registry is usable again after a rejection.
	defineComponent[Velocity](t, ctx, "Velocity")
}

// go test -run ^TestBuilderStateMachine$ . -count 1
func TestBuilderStateMachine(t *testing.T) {
	ctx := newTestContext(t)

	open := ctx.ComponentBegin().SetName("Position").SetSize(8)
	nested := ctx.ComponentBegin().SetName("Velocity").SetSize(8)
	_, err := nested.End()
	require.ErrorIs(t, err, ErrDefinitionInProgress)

	_, err = open.End()
	require.NoError(t, err, "the open definition survives a nested begin")
	_, err = open.End()
	require.ErrorIs(t, err, ErrNoDefinition)

	require.Equal(t, []string{"Position"}, ctx.ComponentNames())

	// Registries are independent: a component and a system may be open together.
	sys := ctx.SystemBegin().SetName("Noop").SetUpdate(func(ComponentList, int, any) {})
	defineComponent[Velocity](t, ctx, "Velocity")
	_, err = sys.End()
	require.NoError(t, err)
}

// go test -run ^TestEntityTypeDefinition$ . -count 1
func TestEntityTypeDefinition(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")
	defineComponent[Velocity](t, ctx, "Velocity")

	id := defineEntity(t, ctx, "Mover", "Position", "Velocity", "Position")
	require.Equal(t, EntityTypeID(0), id)
	require.True(t, ctx.IsEntityTypeValid("Mover"))
	require.False(t, ctx.IsEntityTypeValid("Ghost"))

	names, err := ctx.ComponentNamesForEntityType("Mover")
	require.NoError(t, err)
	require.Equal(t, []string{"Position", "Velocity"}, names, "repeats are dropped")

	_, err = ctx.ComponentNamesForEntityType("Ghost")
	require.ErrorIs(t, err, ErrUnknownEntityType)

	_, err = ctx.EntityBegin().SetName("Broken").AddComponent("Nope").End()
	require.ErrorIs(t, err, ErrUnknownComponent)
	require.False(t, ctx.IsEntityTypeValid("Broken"))

	_, err = ctx.EntityBegin().AddComponent("Position").End()
	require.ErrorIs(t, err, ErrMissingName)

	_, err = ctx.EntityBegin().SetName("Mover").End()
	require.ErrorIs(t, err, ErrDuplicateName)

	require.Equal(t, []string{"Mover"}, ctx.EntityTypeNames())
}

// go test -run ^TestSystemDefinitionErrors$ . -count 1
func TestSystemDefinitionErrors(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")
	noop := func(ComponentList, int, any) {}

	_, err := ctx.SystemBegin().SetName("NoUpdate").End()
	require.ErrorIs(t, err, ErrMissingUpdate)

	_, err = ctx.SystemBegin().SetUpdate(noop).End()
	require.ErrorIs(t, err, ErrMissingName)

	_, err = ctx.SystemBegin().SetName("Bad").SetUpdate(noop).RequireComponent("Nope").End()
	require.ErrorIs(t, err, ErrUnknownComponent)

	id, err := ctx.SystemBegin().SetName("Move").SetUpdate(noop).RequireComponent("Position").End()
	require.NoError(t, err)
	require.Equal(t, SystemID(0), id)

	_, err = ctx.SystemBegin().SetName("Move").SetUpdate(noop).End()
	require.ErrorIs(t, err, ErrDuplicateName)

	require.Equal(t, []string{"Move"}, ctx.SystemNames())
}

// go test -run ^TestTooManyComponents$ . -count 1
func TestTooManyComponents(t *testing.T) {
	ctx := NewContext()
	for i := range MaxComponentTypes {
		_, err := ctx.ComponentBegin().SetName(fmt.Sprintf("C%d", i)).SetSize(1).End()
		require.NoError(t, err)
	}
	_, err := ctx.ComponentBegin().SetName("Overflow").SetSize(1).End()
	require.ErrorIs(t, err, ErrTooManyComponents)
}

// go test -run ^TestRename$ . -count 1
func TestRename(t *testing.T) {
	ctx := newTestContext(t)
	defineComponent[Position](t, ctx, "Position")
	defineEntity(t, ctx, "Player", "Position")

	ran := 0
	_, err := ctx.SystemBegin().SetName("Count").RequireComponent("Position").
		SetUpdate(func(list ComponentList, count int, _ any) {
			ran += count
			require.NotNil(t, list.Components("Pos"))
		}).End()
	require.NoError(t, err)

	e, err := ctx.MakeEntity("Player")
	require.NoError(t, err)

	require.NoError(t, ctx.ComponentRename("Position", "Pos"))
	require.NoError(t, ctx.EntityTypeRename("Player", "Hero"))

	require.Equal(t, []string{"Pos"}, ctx.ComponentNames())
	require.True(t, ctx.HasComponent(e, "Pos"))
	require.False(t, ctx.HasComponent(e, "Position"))
	require.True(t, ctx.IsType(e, "Hero"))
	require.Equal(t, "Hero", ctx.TypeName(e))

	require.NoError(t, ctx.RunSystems())
	require.Equal(t, 1, ran)

	_, err = ctx.MakeEntity("Hero")
	require.NoError(t, err)

	require.ErrorIs(t, ctx.ComponentRename("Position", "X"), ErrUnknownComponent)
	require.ErrorIs(t, ctx.EntityTypeRename("Ghost", "X"), ErrUnknownEntityType)
	defineComponent[Velocity](t, ctx, "Velocity")
	require.ErrorIs(t, ctx.ComponentRename("Velocity", "Pos"), ErrDuplicateName)
	require.ErrorIs(t, ctx.ComponentRename("Velocity", ""), ErrMissingName)
}

// go test -run ^TestNameTableRename$ . -count 1
func TestNameTableRename(t *testing.T) {
	nt := newNameTable()
	a := nt.insert("alpha")
	b := nt.insert("beta")

	id, ok := nt.lookup("alpha")
	require.True(t, ok)
	require.Equal(t, a, id)
	_, ok = nt.lookup("gamma")
	require.False(t, ok)

	nt.rename(a, "delta")
	_, ok = nt.lookup("alpha")
	require.False(t, ok)
	id, ok = nt.lookup("delta")
	require.True(t, ok)
	require.Equal(t, a, id)
	id, ok = nt.lookup("beta")
	require.True(t, ok)
	require.Equal(t, b, id)
	require.Equal(t, []string{"delta", "beta"}, nt.list())
	require.Equal(t, 2, nt.len())
}
