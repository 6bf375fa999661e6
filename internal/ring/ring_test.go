// SPDX-License-Identifier: EPL-2.0

package ring

import (
	"sync"
	"testing"
)

func TestNew_RoundsCapacity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want int
	}{
		{in: -1, want: 2},
		{in: 0, want: 2},
		{in: 1, want: 2},
		{in: 3, want: 4},
		{in: 64, want: 64},
		{in: 100, want: 128},
	}

	for _, tt := range tests {
		if got := New[int](tt.in).Cap(); got != tt.want {
			t.Errorf("New(%d).Cap() = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestQueue_FIFO(t *testing.T) {
	t.Parallel()

	q := New[int](8)
	for i := 0; i < 8; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) = false", i)
		}
	}
	if q.Len() != 8 {
		t.Errorf("Len() = %d, want 8", q.Len())
	}

	for i := 0; i < 8; i++ {
		v, ok := q.Pop()
		if !ok || v != i {
			t.Fatalf("Pop() = %d, %v; want %d, true", v, ok, i)
		}
	}

	if _, ok := q.Pop(); ok {
		t.Error("Pop() on empty queue = true")
	}
}

func TestQueue_RejectsWhenFull(t *testing.T) {
	t.Parallel()

	q := New[string](2)
	q.Push("a")
	q.Push("b")

	if q.Push("c") {
		t.Fatal("Push() on full queue = true")
	}

	// rejection leaves the contents alone
	if v, _ := q.Pop(); v != "a" {
		t.Errorf("Pop() = %q, want a", v)
	}
	if !q.Push("c") {
		t.Error("Push() after Pop = false")
	}
	if v, _ := q.Pop(); v != "b" {
		t.Errorf("Pop() = %q, want b", v)
	}
	if v, _ := q.Pop(); v != "c" {
		t.Errorf("Pop() = %q, want c", v)
	}
}

func TestQueue_WrapsAround(t *testing.T) {
	t.Parallel()

	q := New[int](4)
	for i := 0; i < 1000; i++ {
		if !q.Push(i) {
			t.Fatalf("Push(%d) = false", i)
		}
		if v, ok := q.Pop(); !ok || v != i {
			t.Fatalf("Pop() = %d, %v; want %d", v, ok, i)
		}
	}
}

func TestQueue_PopClearsSlot(t *testing.T) {
	t.Parallel()

	q := New[*int](2)
	v := 7
	q.Push(&v)
	q.Pop()

	for i := range q.cells {
		if q.cells[i].val != nil {
			t.Errorf("cell %d still references a popped item", i)
		}
	}
}

func TestQueue_ConcurrentProducersKeepPerProducerOrder(t *testing.T) {
	t.Parallel()

	const (
		producers = 4
		perProd   = 2000
	)

	type item struct{ producer, seq int }

	q := New[item](64)

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perProd; {
				if q.Push(item{producer: p, seq: i}) {
					i++
				}
			}
		}()
	}

	next := make([]int, producers)
	received := 0
	for received < producers*perProd {
		it, ok := q.Pop()
		if !ok {
			continue
		}
		if it.seq != next[it.producer] {
			t.Fatalf("producer %d: got seq %d, want %d", it.producer, it.seq, next[it.producer])
		}
		next[it.producer]++
		received++
	}

	wg.Wait()
	if _, ok := q.Pop(); ok {
		t.Error("queue not empty after all items were received")
	}
}

func TestQueue_ZeroAllocs(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping allocation test in short mode")
	}

	type command struct {
		kind   uint8
		id     uint64
		target float32
	}

	q := New[command](16)
	allocs := testing.AllocsPerRun(1000, func() {
		q.Push(command{kind: 1, id: 42, target: 0.5})
		q.Pop()
	})
	if allocs > 0 {
		t.Errorf("Push/Pop allocated %v times, want 0", allocs)
	}
}

func BenchmarkQueue_PushPop(b *testing.B) {
	q := New[uint64](1024)

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		q.Push(uint64(i))
		q.Pop()
	}
}

func BenchmarkQueue_Contended(b *testing.B) {
	q := New[uint64](1024)

	b.ReportAllocs()
	b.RunParallel(func(pb *testing.PB) {
		var i uint64
		for pb.Next() {
			if q.Push(i) {
				q.Pop()
			}
			i++
		}
	})
}
