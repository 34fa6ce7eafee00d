// Profiling:
// go build ./profile/entities
// go tool pprof -http=":8000" -nodefraction=0.001 ./entities mem.pprof

package main

import (
	"unsafe"

	"github.com/edwinsyarief/katachi"
	"github.com/pkg/profile"
)

type comp1 struct {
	V int64
	W int64
}

type comp2 struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 1000
	p := profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	for range rounds {
		ctx := katachi.NewContext(katachi.WithInitialCapacity(numEntities))
		_, _ = ctx.ComponentBegin().SetName("comp1").SetSize(int(unsafe.Sizeof(comp1{}))).End()
		_, _ = ctx.ComponentBegin().SetName("comp2").SetSize(int(unsafe.Sizeof(comp2{}))).End()
		_, _ = ctx.EntityBegin().SetName("pair").AddComponent("comp1").AddComponent("comp2").End()
		_, _ = ctx.SystemBegin().SetName("sum").
			RequireComponent("comp1").RequireComponent("comp2").
			SetUpdate(func(list katachi.ComponentList, count int, _ any) {
				c1 := katachi.ComponentsAs[comp1](list, "comp1")
				c2 := katachi.ComponentsAs[comp2](list, "comp2")
				for i := range count {
					c1[i].V += c2[i].V
					c1[i].W += c2[i].W
				}
				for _, e := range list.Entities() {
					_ = list.World().DestroyEntityDelayed(e)
				}
			}).End()

		for range iters {
			for range numEntities {
				_, _ = ctx.MakeEntity("pair")
			}
			_ = ctx.RunSystems()
		}
	}
}
