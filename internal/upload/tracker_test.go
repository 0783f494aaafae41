package upload

import (
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestTracker(t *testing.T, idle time.Duration) *Tracker {
	t.Helper()
	tracker, err := NewTracker(Config{
		Dir:         t.TempDir(),
		MaxFileSize: 1 << 20,
		MaxPartSize: 16,
		IdleTimeout: idle,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return tracker
}

func TestStartValidatesDeclaredInfo(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	cases := []struct {
		name string
		info FileInfo
	}{
		{"missing name", FileInfo{Name: "", Size: 10}},
		{"zero size", FileInfo{Name: "a.txt", Size: 0}},
		{"negative size", FileInfo{Name: "a.txt", Size: -1}},
		{"oversized", FileInfo{Name: "a.txt", Size: 2 << 20}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tracker.Start("sess", nil, tc.info, nil)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestChunksAccumulateUntilComplete(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	up, err := tracker.Start("sess", "t1", FileInfo{Name: "a.txt", Size: 10, Type: "text/plain"}, nil)
	require.NoError(t, err)
	require.True(t, tracker.Active(up.ID))

	_, written, done, err := tracker.Write(up.ID, []byte("hello"))
	require.NoError(t, err)
	require.EqualValues(t, 5, written)
	require.False(t, done)

	// Re-querying without new chunks never changes the count.
	require.EqualValues(t, 5, up.Written())
	require.EqualValues(t, 5, up.Written())

	_, written, done, err = tracker.Write(up.ID, []byte("world"))
	require.NoError(t, err)
	require.EqualValues(t, 10, written)
	require.True(t, done)

	require.False(t, tracker.Active(up.ID))

	content, err := os.ReadFile(up.Path)
	require.NoError(t, err)
	require.Equal(t, "helloworld", string(content))
}

func TestFinalChunkMayOvershootDeclaredSize(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 4}, nil)
	require.NoError(t, err)

	_, written, done, err := tracker.Write(up.ID, []byte("abcdef"))
	require.NoError(t, err)
	require.EqualValues(t, 6, written)
	require.True(t, done)
}

func TestWriteAfterCompletionIsUnknown(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 2}, nil)
	require.NoError(t, err)

	_, _, done, err := tracker.Write(up.ID, []byte("ab"))
	require.NoError(t, err)
	require.True(t, done)

	_, _, _, err = tracker.Write(up.ID, []byte("c"))
	require.ErrorIs(t, err, ErrUnknownUpload)
}

func TestOversizedPartRejected(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 100}, nil)
	require.NoError(t, err)

	_, _, _, err = tracker.Write(up.ID, make([]byte, 17))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// The upload survives a rejected part.
	require.True(t, tracker.Active(up.ID))
}

func TestUnknownIDRejected(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)
	_, _, _, err := tracker.Write("no-such-id", []byte("x"))
	require.ErrorIs(t, err, ErrUnknownUpload)
}

func TestIdleTimeoutFiresOnceAndCleansUp(t *testing.T) {
	tracker := newTestTracker(t, 30*time.Millisecond)

	var fired atomic.Int32
	up, err := tracker.Start("sess", "t7", FileInfo{Name: "a.bin", Size: 100}, func(up *Upload) {
		fired.Add(1)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return fired.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	require.False(t, tracker.Active(up.ID))
	_, statErr := os.Stat(up.Path)
	require.True(t, os.IsNotExist(statErr))

	// No second firing.
	time.Sleep(80 * time.Millisecond)
	require.EqualValues(t, 1, fired.Load())
}

func TestImmediateTimeoutLeavesNoRegistration(t *testing.T) {
	tracker := newTestTracker(t, time.Nanosecond)

	var fired atomic.Int32
	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 100}, func(*Upload) {
		fired.Add(1)
	})
	require.NoError(t, err)

	// The countdown expires before any chunk can arrive; the upload
	// must still be deregistered and cleaned up, never stranded.
	require.Eventually(t, func() bool {
		return fired.Load() == 1 && !tracker.Active(up.ID)
	}, 2*time.Second, time.Millisecond)

	_, statErr := os.Stat(up.Path)
	require.True(t, os.IsNotExist(statErr))
}

func TestChunkArrivalResetsIdleCountdown(t *testing.T) {
	tracker := newTestTracker(t, 120*time.Millisecond)

	var fired atomic.Int32
	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 100}, func(*Upload) {
		fired.Add(1)
	})
	require.NoError(t, err)

	// Keep feeding chunks at a cadence well inside the window; the
	// total elapsed time exceeds it.
	for i := 0; i < 4; i++ {
		time.Sleep(50 * time.Millisecond)
		_, _, _, err := tracker.Write(up.ID, []byte("x"))
		require.NoError(t, err)
	}

	require.EqualValues(t, 0, fired.Load())
	require.True(t, tracker.Active(up.ID))
}

func TestCompletionStopsTimeout(t *testing.T) {
	tracker := newTestTracker(t, 40*time.Millisecond)

	var fired atomic.Int32
	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 2}, func(*Upload) {
		fired.Add(1)
	})
	require.NoError(t, err)

	_, _, done, err := tracker.Write(up.ID, []byte("ab"))
	require.NoError(t, err)
	require.True(t, done)

	time.Sleep(100 * time.Millisecond)
	require.EqualValues(t, 0, fired.Load())

	// Completed uploads keep their file for the downstream pipeline.
	_, err = os.Stat(up.Path)
	require.NoError(t, err)
}

func TestCancelOwnedBy(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	mine, err := tracker.Start("sess-a", nil, FileInfo{Name: "a.bin", Size: 100}, nil)
	require.NoError(t, err)
	other, err := tracker.Start("sess-b", nil, FileInfo{Name: "b.bin", Size: 100}, nil)
	require.NoError(t, err)

	tracker.CancelOwnedBy("sess-a")

	require.False(t, tracker.Active(mine.ID))
	require.True(t, tracker.Active(other.ID))

	_, statErr := os.Stat(mine.Path)
	require.True(t, os.IsNotExist(statErr))
}

func TestConcurrentChunksStayMonotonic(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	up, err := tracker.Start("sess", nil, FileInfo{Name: "a.bin", Size: 1 << 12}, nil)
	require.NoError(t, err)

	const writers = 8
	var wg sync.WaitGroup
	wg.Add(writers)
	for i := 0; i < writers; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < 16; j++ {
				tracker.Write(up.ID, make([]byte, 16))
			}
		}()
	}
	wg.Wait()

	// 8*16*16 = 2048 bytes, short of the declared 4096: every byte
	// must be accounted for exactly once.
	require.EqualValues(t, writers*16*16, up.Written())
	info, err := os.Stat(up.Path)
	require.NoError(t, err)
	require.EqualValues(t, writers*16*16, info.Size())
}

func TestExtensionDerivedFromName(t *testing.T) {
	tracker := newTestTracker(t, time.Hour)

	up, err := tracker.Start("sess", nil, FileInfo{Name: "../../evil.png", Size: 10}, nil)
	require.NoError(t, err)
	require.Equal(t, ".png", up.Path[len(up.Path)-4:])

	noExt, err := tracker.Start("sess", nil, FileInfo{Name: "README", Size: 10}, nil)
	require.NoError(t, err)
	require.NotContains(t, noExt.Path[len(noExt.Path)-5:], ".")
}
