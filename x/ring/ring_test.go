package ring

import (
	"math"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestRoundsUpCapacity(t *testing.T) {
	for _, c := range []struct{ in, want int }{{0, 2}, {1, 2}, {3, 4}, {1024, 1024}, {1025, 2048}} {
		if got := New[int](c.in).Cap(); got != c.want {
			t.Fatalf("New(%d).Cap()=%d want %d", c.in, got, c.want)
		}
	}
}

func TestNewPanicsAboveMaxSize(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("int cannot exceed MaxSize")
	}
	over := MaxSize + 1
	for _, size := range []int{int(over), math.MaxInt} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("New(%d) did not panic", size)
				}
			}()
			New[byte](size)
		}()
	}
}

func TestFullRingRejectsNewest(t *testing.T) {
	r := New[int](4)
	for i := 0; i < 4; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
	}
	if r.Push(99) {
		t.Fatal("push into full ring succeeded")
	}
	got := r.Drain()
	if len(got) != 4 || got[0] != 0 || got[3] != 3 {
		t.Fatalf("drain=%v", got)
	}
	if _, ok := r.Pop(); ok {
		t.Fatal("pop from empty ring")
	}
}

func TestOrderAcrossWrap(t *testing.T) {
	r := New[int](8)
	next := 0
	for i := 0; i < 1000; i++ {
		if !r.Push(i) {
			t.Fatalf("push %d failed", i)
		}
		if i%3 == 2 {
			for {
				v, ok := r.Pop()
				if !ok {
					break
				}
				if v != next {
					t.Fatalf("got %d want %d", v, next)
				}
				next++
			}
		}
	}
	for _, v := range r.Drain() {
		if v != next {
			t.Fatalf("got %d want %d", v, next)
		}
		next++
	}
	if next != 1000 {
		t.Fatalf("consumed %d", next)
	}
}

func TestConcurrentProducerConsumer(t *testing.T) {
	const N = 5000
	r := New[int](16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < N; {
			if r.Push(i) {
				i++
			} else {
				time.Sleep(10 * time.Microsecond)
			}
		}
	}()

	deadline := time.After(5 * time.Second)
	for want := 0; want < N; {
		if v, ok := r.Pop(); ok {
			if v != want {
				t.Fatalf("got %d want %d", v, want)
			}
			want++
			continue
		}
		select {
		case <-r.Readable():
		case <-time.After(10 * time.Millisecond):
		case <-deadline:
			t.Fatalf("timeout at %d", want)
		}
	}
	wg.Wait()
}
