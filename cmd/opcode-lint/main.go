package main

import (
	"fmt"
	"log"

	core "deployengine/core"
)

func main() {
	ops := core.Catalogue()
	seenCalls := make(map[core.HostCall]struct{})
	seenNames := make(map[string]struct{})
	for _, info := range ops {
		if _, ok := seenCalls[info.Call]; ok {
			log.Fatalf("duplicate host call %d", info.Call)
		}
		seenCalls[info.Call] = struct{}{}
		if _, ok := seenNames[info.Name]; ok {
			log.Fatalf("duplicate host call name %s", info.Name)
		}
		seenNames[info.Name] = struct{}{}
		// ensure every registered call has a priced entry
		if core.GasCost(info.Call) == core.DefaultGasCost {
			log.Fatalf("host call %s has no priced gas table entry", info.Name)
		}
	}
	fmt.Printf("checked %d host calls, no collisions detected\n", len(ops))
}
