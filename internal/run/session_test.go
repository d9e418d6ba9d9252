package run

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmadas/beamline/internal/kernel"
	"github.com/tmadas/beamline/internal/physics"
)

// recordingSink collects events in arrival order. Serial sessions only.
type recordingSink struct {
	events []kernel.Event
}

func (s *recordingSink) RecordEvent(ev kernel.Event) error {
	s.events = append(s.events, ev)
	return nil
}

func newSessionKernel(sink kernel.EventSink) *kernel.Kernel {
	k := kernel.New(0, 42, kernel.Gun{Particle: physics.ParticleGeantino}, sink,
		kernel.WithLogger(testLogger()))
	k.Initialize()
	return k
}

func newTestSession(k *kernel.Kernel, input string) (*session, *bytes.Buffer) {
	out := &bytes.Buffer{}
	return &session{
		kern: k,
		in:   strings.NewReader(input),
		out:  out,
		log:  testLogger(),
		stop: func() bool { return false },
	}, out
}

func TestSession_ForwardsCommands(t *testing.T) {
	k := newSessionKernel(nil)
	sess, out := newTestSession(k, "/tracking/verbose 2\nexit\n")

	require.NoError(t, sess.run(context.Background()))

	assert.Equal(t, 2, k.TrackingVerbose())
	assert.Equal(t, 2, strings.Count(out.String(), "beamline> "))
}

func TestSession_BeamOn(t *testing.T) {
	sink := &recordingSink{}
	k := newSessionKernel(sink)
	sess, _ := newTestSession(k, "/run/beamOn 4\nquit\n")

	require.NoError(t, sess.run(context.Background()))

	assert.Len(t, sink.events, 4)
	assert.Equal(t, int64(4), k.EventsProcessed())
}

func TestSession_FailedCommandReportedAndLoopContinues(t *testing.T) {
	k := newSessionKernel(nil)
	sess, out := newTestSession(k, "/bogus 1\n/tracking/verbose 1\nexit\n")

	require.NoError(t, sess.run(context.Background()))

	assert.Contains(t, out.String(), "command failed:")
	assert.Equal(t, 1, k.TrackingVerbose())
}

func TestSession_SkipsBlankAndCommentLines(t *testing.T) {
	k := newSessionKernel(nil)
	sess, out := newTestSession(k, "\n# tuning notes\n   \nexit\n")

	require.NoError(t, sess.run(context.Background()))

	assert.NotContains(t, out.String(), "command failed:")
	assert.Zero(t, k.TrackingVerbose())
}

func TestSession_EOFEndsSession(t *testing.T) {
	k := newSessionKernel(nil)
	sess, _ := newTestSession(k, "/tracking/verbose 9\n")

	require.NoError(t, sess.run(context.Background()))

	assert.Equal(t, 9, k.TrackingVerbose())
}

func TestSession_ReadErrorPropagates(t *testing.T) {
	k := newSessionKernel(nil)
	sess, _ := newTestSession(k, "")
	sess.in = iotest.ErrReader(errors.New("broken pipe"))

	err := sess.run(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "read command")
}

func TestSession_StopBeforeFirstCommand(t *testing.T) {
	k := newSessionKernel(nil)
	sess, out := newTestSession(k, "/tracking/verbose 5\nexit\n")
	sess.stop = func() bool { return true }

	require.NoError(t, sess.run(context.Background()))

	assert.Empty(t, out.String())
	assert.Zero(t, k.TrackingVerbose())
}

func TestSession_StopRaisedDuringReadDropsLine(t *testing.T) {
	k := newSessionKernel(nil)
	sess, _ := newTestSession(k, "/tracking/verbose 5\nexit\n")

	calls := 0
	sess.stop = func() bool {
		calls++
		return calls > 1
	}

	require.NoError(t, sess.run(context.Background()))

	// The line read while the stop was raised is never applied.
	assert.Zero(t, k.TrackingVerbose())
}
