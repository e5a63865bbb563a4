// Package concurrent carries small fan-out helpers over sequence
// iterators, used where several independent consumers each get the same
// element.
package concurrent

import (
	"sync"

	"github.com/Lucalangella/NEWTON-LAB/pkg/sequence"
)

// ForEach runs the action for every element, one goroutine per element,
// and waits for all of them. Errors are the action's own problem.
func ForEach[T any](i *sequence.Iterator[T], action func(T)) {
	var wg sync.WaitGroup
	for v := range i.Seq() {
		wg.Add(1)
		go func(v T) {
			defer wg.Done()
			action(v)
		}(v)
	}
	wg.Wait()
}

// FanOut delivers every element to every handler. Handlers run
// concurrently per element; elements are delivered in order.
func FanOut[T any](i *sequence.Iterator[T], handlers ...func(T)) {
	for v := range i.Seq() {
		var wg sync.WaitGroup
		for _, h := range handlers {
			wg.Add(1)
			go func(h func(T), v T) {
				defer wg.Done()
				h(v)
			}(h, v)
		}
		wg.Wait()
	}
}
