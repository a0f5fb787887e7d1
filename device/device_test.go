package device

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/segreduce/policy"
)

func TestLaunch_Validate(t *testing.T) {
	k := func(Group) error { return nil }
	tests := []struct {
		name string
		l    Launch
		ok   bool
	}{
		{"ok", Launch{Name: "k", Groups: 1, GroupWidth: 1, Kernel: k}, true},
		{"nil kernel", Launch{Name: "k", Groups: 1, GroupWidth: 1}, false},
		{"empty grid", Launch{Name: "k", Groups: 0, GroupWidth: 1, Kernel: k}, false},
		{"zero width", Launch{Name: "k", Groups: 1, GroupWidth: 0, Kernel: k}, false},
		{"negative bytes", Launch{Name: "k", Groups: 1, GroupWidth: 1, Bytes: -1, Kernel: k}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.l.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidLaunch)
			}
		})
	}
}

func TestStream_ExecutesInOrder(t *testing.T) {
	s := NewStream()
	defer s.Close()

	var (
		mu    sync.Mutex
		order []int
	)
	for i := range 100 {
		require.NoError(t, s.Submit(Task{Name: "t", Run: func(context.Context) error {
			mu.Lock()
			order = append(order, i)
			mu.Unlock()
			return nil
		}}))
	}
	require.NoError(t, s.Synchronize())
	require.Len(t, order, 100)
	for i, v := range order {
		assert.Equal(t, i, v)
	}
}

func TestStream_StickyErrorSkipsUntilSynchronize(t *testing.T) {
	s := NewStream()
	defer s.Close()

	boom := errors.New("boom")
	var ran, done atomic.Int32
	require.NoError(t, s.Submit(Task{Name: "fail", Run: func(context.Context) error { return boom }}))
	require.NoError(t, s.Submit(Task{
		Name: "after",
		Run:  func(context.Context) error { ran.Add(1); return nil },
		Done: func() { done.Add(1) },
	}))

	err := s.Synchronize()
	require.ErrorIs(t, err, boom)
	var kerr *KernelError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, "fail", kerr.Launch)
	assert.Equal(t, int32(0), ran.Load())
	assert.Equal(t, int32(1), done.Load(), "done runs for skipped tasks")

	// The window is reset.
	require.NoError(t, s.Submit(Task{Name: "again", Run: func(context.Context) error { ran.Add(1); return nil }}))
	require.NoError(t, s.Synchronize())
	assert.Equal(t, int32(1), ran.Load())
}

func TestStream_RecoversPanics(t *testing.T) {
	s := NewStream()
	defer s.Close()

	require.NoError(t, s.Submit(Task{Name: "panic", Run: func(context.Context) error { panic("bad") }}))
	err := s.Synchronize()
	var kerr *KernelError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, -1, kerr.Group)
	assert.Contains(t, err.Error(), "panic: bad")
}

func TestStream_QueueFullAndClosed(t *testing.T) {
	s := NewStream(WithQueueDepth(1))

	release := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, s.Submit(Task{Name: "block", Run: func(context.Context) error {
		close(started)
		<-release
		return nil
	}}))
	<-started
	require.NoError(t, s.Submit(Task{Name: "queued", Run: func(context.Context) error { return nil }}))

	err := s.Submit(Task{Name: "overflow", Run: func(context.Context) error { return nil }})
	assert.ErrorIs(t, err, ErrResourceExhausted)

	close(release)
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Submit(Task{Name: "late", Run: func(context.Context) error { return nil }}), ErrStreamClosed)
	assert.NoError(t, s.Close(), "close is idempotent")
}

func TestCPU_RunsEveryGroupOnce(t *testing.T) {
	b := NewCPU(CPUConfig{Workers: 4, Arch: policy.ArchSIMD256})
	assert.Equal(t, "cpu", b.Name())
	assert.Equal(t, policy.ArchSIMD256, b.Arch())
	assert.Equal(t, 4, b.Workers())

	s := NewStream()
	defer s.Close()

	const groups = 1000
	seen := make([]atomic.Int32, groups)
	require.NoError(t, b.Launch(s, Launch{
		Name:       "count",
		Groups:     groups,
		GroupWidth: 32,
		Kernel: func(g Group) error {
			if g.Width != 32 {
				return errors.New("wrong width")
			}
			seen[g.ID].Add(1)
			return nil
		},
	}))
	require.NoError(t, s.Synchronize())
	for i := range seen {
		assert.Equal(t, int32(1), seen[i].Load(), "group %d", i)
	}
	assert.Equal(t, int64(0), b.InFlight())
}

func TestCPU_GroupFailureSurfacesOnSynchronize(t *testing.T) {
	b := NewCPU(CPUConfig{Workers: 2})
	s := NewStream()
	defer s.Close()

	require.NoError(t, b.Launch(s, Launch{
		Name:       "bad",
		Groups:     8,
		GroupWidth: 1,
		Kernel: func(g Group) error {
			if g.ID == 5 {
				panic("lane fault")
			}
			return nil
		},
	}))

	err := s.Synchronize()
	var kerr *KernelError
	require.ErrorAs(t, err, &kerr)
	assert.Equal(t, "bad", kerr.Launch)
	assert.Equal(t, 5, kerr.Group)
}

func TestCPU_RejectsInvalidLaunches(t *testing.T) {
	b := NewCPU(CPUConfig{})
	s := NewStream()
	defer s.Close()

	assert.ErrorIs(t, b.Launch(nil, Launch{Name: "x", Groups: 1, GroupWidth: 1, Kernel: func(Group) error { return nil }}), ErrInvalidLaunch)
	assert.ErrorIs(t, b.Launch(s, Launch{Name: "x", Groups: 1, GroupWidth: 1}), ErrInvalidLaunch)
	assert.Equal(t, int64(0), b.InFlight())
}

func TestCPU_LaunchSlotsExhausted(t *testing.T) {
	b := NewCPU(CPUConfig{Workers: 1, MaxInFlightLaunches: 1})
	s := NewStream()
	defer s.Close()

	release := make(chan struct{})
	require.NoError(t, b.Launch(s, Launch{Name: "hold", Groups: 1, GroupWidth: 1, Kernel: func(Group) error {
		<-release
		return nil
	}}))

	err := b.Launch(s, Launch{Name: "next", Groups: 1, GroupWidth: 1, Kernel: func(Group) error { return nil }})
	assert.ErrorIs(t, err, ErrResourceExhausted)

	close(release)
	require.NoError(t, s.Synchronize())
	assert.Equal(t, int64(0), b.InFlight())
	require.NoError(t, b.Launch(s, Launch{Name: "next", Groups: 1, GroupWidth: 1, Kernel: func(Group) error { return nil }}))
	require.NoError(t, s.Synchronize())
}

func TestCPU_LaunchSlotReleasedOnClosedStream(t *testing.T) {
	b := NewCPU(CPUConfig{MaxInFlightLaunches: 1})
	s := NewStream()
	require.NoError(t, s.Close())

	err := b.Launch(s, Launch{Name: "x", Groups: 1, GroupWidth: 1, Kernel: func(Group) error { return nil }})
	assert.ErrorIs(t, err, ErrStreamClosed)
	assert.Equal(t, int64(0), b.InFlight())
}

func TestSequential_RunsGroupsInOrder(t *testing.T) {
	b := NewSequential(policy.ArchGeneric)
	assert.Equal(t, "sequential", b.Name())
	assert.Equal(t, policy.ArchGeneric, b.Arch())

	s := NewStream()
	defer s.Close()

	var order []int
	require.NoError(t, b.Launch(s, Launch{Name: "seq", Groups: 5, GroupWidth: 1, Kernel: func(g Group) error {
		order = append(order, g.ID)
		return nil
	}}))
	require.NoError(t, s.Synchronize())
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestDetectedArch(t *testing.T) {
	a := DetectedArch()
	assert.GreaterOrEqual(t, a, policy.ArchGeneric)
	assert.LessOrEqual(t, a, policy.ArchSIMD512)

	f := Features()
	if f.AVX512 {
		assert.True(t, IsOverridden() || a == policy.ArchSIMD512)
	}
}
