// Profiling:
// go build ./profile/query
// go tool pprof -http=":8000" -nodefraction=0.001 ./query cpu.pprof

package main

import (
	"fmt"
	"unsafe"

	"github.com/edwinsyarief/katachi"
	"github.com/pkg/profile"
)

type comp struct {
	V int64
	W int64
}

func main() {
	count := 50
	iters := 10000
	entities := 100000
	p := profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook)
	run(count, iters, entities)
	p.Stop()
}

func run(rounds, iters, numEntities int) {
	size := int(unsafe.Sizeof(comp{}))
	for range rounds {
		ctx := katachi.NewContext(katachi.WithInitialCapacity(numEntities))
		eb := ctx.EntityBegin().SetName("wide")
		for i := 1; i <= 6; i++ {
			name := fmt.Sprintf("comp%d", i)
			_, _ = ctx.ComponentBegin().SetName(name).SetSize(size).End()
			eb.AddComponent(name)
		}
		_, _ = eb.End()
		_, _ = ctx.SystemBegin().SetName("sum").
			RequireComponent("comp1").RequireComponent("comp2").
			SetUpdate(func(list katachi.ComponentList, count int, _ any) {
				c1 := katachi.ComponentsAs[comp](list, "comp1")
				c2 := katachi.ComponentsAs[comp](list, "comp2")
				for i := range count {
					c1[i].V += c2[i].V
					c1[i].W += c2[i].W
				}
			}).End()
		for range numEntities {
			_, _ = ctx.MakeEntity("wide")
		}

		for range iters {
			_ = ctx.RunSystems()
		}
	}
}
