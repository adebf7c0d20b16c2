package console

import "testing"

func TestProgressLifecycle(t *testing.T) {
	out := New()

	p := out.Progress("Rendering buckets", 3)
	for i := 0; i < 3; i++ {
		p.Increment()
	}
	p.Stop()
}

func TestProgressHandlesZeroSteps(t *testing.T) {
	out := New()

	p := out.Progress("Rendering buckets", 0)
	p.Stop()
}
