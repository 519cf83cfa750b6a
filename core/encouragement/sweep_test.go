package encouragement

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/trezcool/nudge/core"
)

func TestService_Sweep(t *testing.T) {
	ctx := context.Background()
	day := 24 * time.Hour

	tests := []struct {
		name       string
		enrolledOn time.Time
		lastSeenOn time.Time
		completed  bool
		assessed   bool
		updated    time.Time
		want       Kind // 0: no email
	}{
		{name: "not started after a week", enrolledOn: testNow.Add(-8 * day), want: InactiveNotStarted},
		{name: "not started within a week", enrolledOn: testNow.Add(-3 * day)},
		{
			name: "started then quiet", enrolledOn: testNow.Add(-60 * day), lastSeenOn: testNow.Add(-20 * day),
			completed: true, updated: testNow.Add(-20 * day), want: InactiveStarted,
		},
		{
			name: "started then quiet, never seen", enrolledOn: testNow.Add(-60 * day),
			completed: true, updated: testNow.Add(-20 * day), want: InactiveStarted,
		},
		{
			name: "started and seen recently", enrolledOn: testNow.Add(-60 * day), lastSeenOn: testNow.Add(-2 * day),
			completed: true, updated: testNow.Add(-20 * day),
		},
		{
			name: "started with recent progress", enrolledOn: testNow.Add(-60 * day), lastSeenOn: testNow.Add(-20 * day),
			completed: true, updated: testNow.Add(-2 * day),
		},
		{
			name: "started without a progress update time", enrolledOn: testNow.Add(-60 * day), lastSeenOn: testNow.Add(-20 * day),
			completed: true,
		},
		{
			name: "finished the course", enrolledOn: testNow.Add(-60 * day), lastSeenOn: testNow.Add(-20 * day),
			completed: true, assessed: true, updated: testNow.Add(-20 * day),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newServiceFixture(t, DefaultOptions())
			ada := f.students["ada"]
			ada.EnrolledOn, ada.LastSeenOn = tt.enrolledOn, tt.lastSeenOn
			f.students["ada"] = ada
			if tt.completed {
				f.progress.complete(1)
			}
			f.progress.assessments[99] = tt.assessed
			f.progress.updated = tt.updated

			rep, err := f.svc.Sweep(ctx)
			require.NoError(t, err)
			assert.NotEmpty(t, rep.RunID)
			assert.Equal(t, 1, rep.Students)
			assert.Zero(t, rep.Errors)

			rec := f.repo.records["ada"]
			require.NotNil(t, rec, "sweep did not save a record")
			if tt.want == 0 {
				assert.Empty(t, rep.Milestones)
				assert.Empty(t, f.mailer.sent)
				assert.False(t, rec.InactiveNotStartedSent || rec.InactiveStartedSent)
				return
			}
			require.Len(t, rep.Milestones, 1)
			assert.Equal(t, tt.want, rep.Milestones[0].Kind)
			assert.Equal(t, 1, rep.Sent)
			assert.Equal(t, []string{"A message from the Citizen Maths team"}, f.mailer.subjects())
			assert.Equal(t, tt.want == InactiveNotStarted, rec.InactiveNotStartedSent)
			assert.Equal(t, tt.want == InactiveStarted, rec.InactiveStartedSent)

			// once ever
			f.advance(30 * day)
			rep, err = f.svc.Sweep(ctx)
			require.NoError(t, err)
			assert.Empty(t, rep.Milestones)
			assert.Len(t, f.mailer.sent, 1)
		})
	}
}

func TestService_Sweep_sendFailure(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t, DefaultOptions())
	f.mailer.err = core.ErrSendFailed

	rep, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Failed)
	assert.False(t, f.repo.records["ada"].InactiveNotStartedSent)

	f.mailer.err = nil
	rep, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Sent)
	assert.True(t, f.repo.records["ada"].InactiveNotStartedSent)
}

func TestService_Sweep_throttled(t *testing.T) {
	ctx := context.Background()
	opts := DefaultOptions()
	opts.Throttle.Limit = 1
	f := newServiceFixture(t, opts)
	f.repo.records["ada"] = &Record{StudentID: "ada", EmailsSentThisWindow: 1, WindowStart: testNow.Add(-time.Hour)}

	rep, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Suppressed)
	assert.Empty(t, f.mailer.sent)
	assert.False(t, f.repo.records["ada"].InactiveNotStartedSent)
}

func TestService_Sweep_studentErrors(t *testing.T) {
	f := newServiceFixture(t, DefaultOptions())
	f.progress.err = errors.New("timeout")

	rep, err := f.svc.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, rep.Students)
	assert.Equal(t, 1, rep.Errors)
}

func TestService_Sweep_canceled(t *testing.T) {
	f := newServiceFixture(t, DefaultOptions())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.svc.Sweep(ctx)
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, f.mailer.sent)
}

func TestService_RunSweeps(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t, DefaultOptions())
	require.Error(t, f.svc.RunSweeps(context.Background(), 0))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error)
	go func() { done <- f.svc.RunSweeps(ctx, 5*time.Millisecond) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	// the student is emailed once however many sweeps ran
	assert.Len(t, f.mailer.sent, 1)
	assert.True(t, f.repo.records["ada"].InactiveNotStartedSent)
}

func TestService_Sweep_databaseLost(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newServiceFixture(t, DefaultOptions())
	f.now = testNow.AddDate(0, 0, 30)
	f.repo.saveErr = core.NewShutdownError(errors.New("connection refused"), "saving encouragement record")

	rep, err := f.svc.Sweep(context.Background())
	require.Error(t, err)
	assert.True(t, core.IsShutdown(err))
	assert.Equal(t, 1, rep.Students)
	assert.Equal(t, 1, rep.Errors)

	err = f.svc.RunSweeps(context.Background(), 5*time.Millisecond)
	require.Error(t, err)
	assert.True(t, core.IsShutdown(err))
}
