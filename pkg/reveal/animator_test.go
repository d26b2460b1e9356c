package reveal

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// manualClock hands out timers that only fire when the test advances them.
type manualClock struct {
	requests chan chan time.Time
	pending  chan time.Time

	mu     sync.Mutex
	delays []time.Duration
}

func newManualClock() *manualClock {
	return &manualClock{requests: make(chan chan time.Time, 1)}
}

func (c *manualClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.delays = append(c.delays, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	c.requests <- ch
	return ch
}

// advance fires the pending timer and waits until the run has written its
// fragment, i.e. it either asked for the next timer or finished.
func (c *manualClock) advance(t *testing.T, run *Run) {
	t.Helper()
	if c.pending == nil {
		select {
		case c.pending = <-c.requests:
		case <-time.After(time.Second):
			t.Fatal("run never scheduled a timer")
		}
	}
	c.pending <- time.Now()
	c.pending = nil

	select {
	case c.pending = <-c.requests:
	case <-run.Done():
	case <-time.After(time.Second):
		t.Fatal("run did not make progress")
	}
}

type recordingTarget struct {
	mu        sync.Mutex
	content   string
	revisions []string
}

func (r *recordingTarget) SetContent(content string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content = content
	r.revisions = append(r.revisions, r.content)
}

func (r *recordingTarget) AppendContent(fragment string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.content += fragment
	r.revisions = append(r.revisions, r.content)
}

func (r *recordingTarget) Content() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.content
}

func (r *recordingTarget) Revisions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.revisions...)
}

func TestStartWritesFirstFragmentImmediately(t *testing.T) {
	clock := newManualClock()
	target := &recordingTarget{content: "Typing..."}

	run := NewAnimator(WithClock(clock)).Start(target, "abc", 30*time.Millisecond)
	defer run.Stop()

	require.Equal(t, "a", target.Content())
	require.False(t, run.Completed())
}

func TestRevealTakesOneDelayPerFollowingCharacter(t *testing.T) {
	clock := newManualClock()
	target := &recordingTarget{}
	text := "hi\nthere"

	run := NewAnimator(WithClock(clock)).Start(target, text, 30*time.Millisecond)

	steps := 0
	for !run.Completed() {
		clock.advance(t, run)
		steps++
	}
	run.Wait()

	require.Equal(t, len([]rune(text))-1, steps)
	require.Equal(t, "hi<br>there", target.Content())
	for _, d := range clock.delays {
		assert.Equal(t, 30*time.Millisecond, d)
	}
}

func TestIntermediateStatesArePrefixes(t *testing.T) {
	clock := newManualClock()
	target := &recordingTarget{}

	run := NewAnimator(WithClock(clock)).Start(target, "a\nb", time.Millisecond)
	for !run.Completed() {
		clock.advance(t, run)
	}
	run.Wait()

	revisions := target.Revisions()
	require.Equal(t, []string{"", "a", "a<br>", "a<br>b"}, revisions)
	final := revisions[len(revisions)-1]
	for _, rev := range revisions[:len(revisions)-1] {
		assert.True(t, strings.HasPrefix(final, rev))
		assert.NotEqual(t, final, rev)
	}
}

func TestEmptyTextCompletesImmediately(t *testing.T) {
	target := &recordingTarget{content: "Typing..."}

	run := NewAnimator().Start(target, "", time.Hour)

	select {
	case <-run.Done():
	default:
		t.Fatal("empty reveal should be done")
	}
	require.True(t, run.Completed())
	require.Equal(t, "", target.Content())
}

func TestStopLeavesPartialContent(t *testing.T) {
	clock := newManualClock()
	target := &recordingTarget{}

	run := NewAnimator(WithClock(clock)).Start(target, "hello", time.Millisecond)
	clock.advance(t, run)
	run.Stop()
	run.Wait()

	require.Equal(t, "he", target.Content())
	require.True(t, run.Stopped())
	require.False(t, run.Completed())

	run.Finish()
	require.Equal(t, "he", target.Content())
}

func TestFinishFlushesRemainingText(t *testing.T) {
	clock := newManualClock()
	target := &recordingTarget{}

	run := NewAnimator(WithClock(clock)).Start(target, "line one\nline two", time.Hour)
	run.Finish()
	run.Wait()

	require.True(t, run.Completed())
	require.Equal(t, "line one<br>line two", target.Content())
	require.Equal(t, run.Final(), target.Content())
}

func TestRealClockCompletes(t *testing.T) {
	target := &recordingTarget{}

	run := NewAnimator().Start(target, "ok!", time.Millisecond)

	select {
	case <-run.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("reveal did not finish")
	}
	require.Equal(t, "ok!", target.Content())
}

func TestSequenceReset(t *testing.T) {
	seq := NewSequence("añ\n")

	var got []string
	for frag, ok := seq.Next(); ok; frag, ok = seq.Next() {
		got = append(got, frag)
	}
	require.Equal(t, []string{"a", "ñ", "<br>"}, got)
	require.Equal(t, 0, seq.Remaining())
	require.Equal(t, "añ<br>", seq.Rendered())

	seq.Reset()
	frag, ok := seq.Next()
	require.True(t, ok)
	require.Equal(t, "a", frag)
	require.Equal(t, "ñ<br>", seq.Drain())
	require.Equal(t, 3, seq.Len())
}
