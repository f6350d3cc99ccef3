package reports

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Reakage/app/models"
	"github.com/ManuelReschke/Reakage/internal/pkg/identity"
	"github.com/ManuelReschke/Reakage/internal/pkg/livequery"
)

var (
	alice = &identity.Identity{ID: 1, Email: "alice@example.com", DisplayName: "alice"}
	bob   = &identity.Identity{ID: 2, Email: "bob@example.com", DisplayName: "bob"}
)

type harness struct {
	store *fakeStore
	blobs *fakeBlobs
	feed  *livequery.MemoryFeed
	svc   *Service
}

func newHarness() *harness {
	h := &harness{store: newFakeStore(), blobs: newFakeBlobs(), feed: livequery.NewMemoryFeed()}
	h.svc = NewService(h.store, h.blobs, h.feed,
		WithClock(func() time.Time { return time.UnixMilli(1700000000000) }))
	return h
}

func validInput() SubmitInput {
	return SubmitInput{Description: "Pipe burst under the road", Location: "Main St 4", Severity: models.SeverityHigh}
}

func pngPhoto(t *testing.T) *PhotoUpload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 48))
	for x := 0; x < 64; x++ {
		for y := 0; y < 48; y++ {
			img.Set(x, y, color.RGBA{R: 20, G: uint8(x * 3), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &PhotoUpload{Filename: "leak.png", Data: buf.Bytes()}
}

// waitForList blocks until a list state satisfying cond is published.
func waitForList(t *testing.T, ch <-chan ListState, cond func(ListState) bool) ListState {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case st, ok := <-ch:
			require.True(t, ok, "list subscription closed")
			if cond(st) {
				return st
			}
		case <-timeout:
			t.Fatal("list state never reached the expected value")
			return ListState{}
		}
	}
}

func TestSubmit_RejectsBlankFieldsBeforeAnyRemoteCall(t *testing.T) {
	tests := []struct {
		name string
		in   SubmitInput
	}{
		{"blank description", SubmitInput{Description: "", Location: "Main St"}},
		{"whitespace description", SubmitInput{Description: "  \t\n", Location: "Main St"}},
		{"blank location", SubmitInput{Description: "Leak", Location: ""}},
		{"whitespace location", SubmitInput{Description: "Leak", Location: "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			c := h.svc.NewCoordinator()
			tt.in.Photo = pngPhoto(t)

			report, err := c.Submit(context.Background(), alice, tt.in)

			assert.Nil(t, report)
			assert.ErrorIs(t, err, ErrBlankFields)
			assert.Equal(t, SubmissionState{Error: ErrBlankFields.Error()}, c.Submission())
			assert.Zero(t, h.store.callCount())
			assert.Zero(t, h.blobs.callCount())
		})
	}
}

func TestSubmit_RejectsUnknownSeverity(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()
	in := validInput()
	in.Severity = "Catastrophic"

	_, err := c.Submit(context.Background(), alice, in)

	assert.ErrorIs(t, err, ErrInvalidSeverity)
	assert.Zero(t, h.store.callCount())
}

func TestSubmit_OverlongFieldsGetReadableError(t *testing.T) {
	tests := []struct {
		name string
		in   SubmitInput
		want string
	}{
		{"description", SubmitInput{Description: strings.Repeat("d", 5001), Location: "Main St"}, "Description is too long."},
		{"location", SubmitInput{Description: "Leak", Location: strings.Repeat("l", 501)}, "Location is too long."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			c := h.svc.NewCoordinator()

			_, err := c.Submit(context.Background(), alice, tt.in)

			require.Error(t, err)
			assert.Equal(t, tt.want, err.Error())
			assert.Equal(t, tt.want, c.Submission().Error)
			assert.Zero(t, h.store.callCount())
		})
	}
}

func TestSubmit_RequiresIdentity(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()

	_, err := c.Submit(context.Background(), nil, validInput())

	assert.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, "User not authenticated.", c.Submission().Error)
	assert.False(t, c.Submission().Success)
	assert.Zero(t, h.store.callCount())
}

func TestSubmit_WritesReportAndUpdatesWatchedList(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := c.SubscribeList(ctx)
	require.NoError(t, c.Watch(ctx, alice))
	waitForList(t, updates, func(st ListState) bool { return !st.Loading && st.Error == "" })

	report, err := c.Submit(ctx, alice, validInput())
	require.NoError(t, err)
	assert.Equal(t, SubmissionState{Success: true}, c.Submission())

	assert.NotEmpty(t, report.ID)
	assert.Equal(t, alice.ID, report.UserID)
	assert.Equal(t, "alice@example.com", report.ReporterEmail)
	assert.Equal(t, models.ReportStatusSubmitted, report.Status)
	assert.Equal(t, models.SeverityHigh, report.Severity)
	assert.Equal(t, int64(1700000000000), report.Timestamp)
	assert.Nil(t, report.PhotoURL)

	st := waitForList(t, updates, func(st ListState) bool { return len(st.Reports) == 1 })
	assert.Equal(t, report.ID, st.Reports[0].ID)
}

func TestSubmit_DefaultsSeverityAndReporterEmail(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()
	in := validInput()
	in.Severity = ""

	report, err := c.Submit(context.Background(), &identity.Identity{ID: 5}, in)
	require.NoError(t, err)

	assert.Equal(t, models.SeverityLow, report.Severity)
	assert.Equal(t, "N/A", report.ReporterEmail)
}

func TestSubmit_WithPhoto(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()
	in := validInput()
	in.Photo = pngPhoto(t)

	report, err := c.Submit(context.Background(), alice, in)
	require.NoError(t, err)

	require.NotNil(t, report.PhotoURL)
	assert.True(t, strings.HasPrefix(report.PhotoKey, "report_images/1/"))
	assert.True(t, strings.HasSuffix(report.PhotoKey, ".jpg"))
	assert.Equal(t, "https://blobs.test/"+report.PhotoKey, *report.PhotoURL)
	require.NotNil(t, report.ThumbnailURL)
	assert.True(t, strings.HasSuffix(*report.ThumbnailURL, "_thumb.webp"))
	assert.Equal(t, 2, h.blobs.count())
}

func TestSubmit_PhotoFailureAbortsBeforeKeyAllocation(t *testing.T) {
	h := newHarness()
	h.blobs.putErr = errors.New("bucket unavailable")
	c := h.svc.NewCoordinator()
	in := validInput()
	in.Photo = pngPhoto(t)

	_, err := c.Submit(context.Background(), alice, in)

	assert.ErrorIs(t, err, ErrSubmission)
	assert.Equal(t, "Submission failed: bucket unavailable", c.Submission().Error)
	assert.Zero(t, h.store.callCount())
}

func TestSubmit_KeyAllocationFailure(t *testing.T) {
	h := newHarness()
	h.store.keyErr = errors.New("no keys left")
	c := h.svc.NewCoordinator()

	_, err := c.Submit(context.Background(), alice, validInput())

	assert.ErrorIs(t, err, ErrKeyAllocation)
	assert.Equal(t, "Failed to generate report ID.", c.Submission().Error)
	assert.Empty(t, h.store.rows)
}

func TestSubmit_WriteFailureLeavesUploadedPhoto(t *testing.T) {
	h := newHarness()
	h.store.setErr = errors.New("connection reset")
	c := h.svc.NewCoordinator()
	in := validInput()
	in.Photo = pngPhoto(t)

	_, err := c.Submit(context.Background(), alice, in)

	assert.ErrorIs(t, err, ErrSubmission)
	assert.Equal(t, "Submission failed: connection reset", c.Submission().Error)
	assert.Equal(t, 2, h.blobs.count())
}

func TestResetSubmission(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()

	_, err := c.Submit(context.Background(), alice, validInput())
	require.NoError(t, err)
	require.True(t, c.Submission().Success)

	c.ResetSubmission()
	assert.Equal(t, SubmissionState{}, c.Submission())
}

func TestFetch_NewestFirstAndOwnerOnly(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	aliceC := h.svc.NewCoordinator()
	bobC := h.svc.NewCoordinator()

	var ids []string
	for i := 0; i < 3; i++ {
		r, err := aliceC.Submit(ctx, alice, validInput())
		require.NoError(t, err)
		ids = append(ids, r.ID)
	}
	_, err := bobC.Submit(ctx, bob, validInput())
	require.NoError(t, err)

	st, err := aliceC.Fetch(ctx, alice)
	require.NoError(t, err)
	require.Len(t, st.Reports, 3)
	assert.Equal(t, []string{ids[2], ids[1], ids[0]}, []string{st.Reports[0].ID, st.Reports[1].ID, st.Reports[2].ID})

	st, err = bobC.Fetch(ctx, bob)
	require.NoError(t, err)
	require.Len(t, st.Reports, 1)
	assert.Equal(t, bob.ID, st.Reports[0].UserID)
}

func TestFetch_NeverLeaksForeignReports(t *testing.T) {
	h := newHarness()
	h.store.leakAll = true
	ctx := context.Background()

	_, err := h.svc.NewCoordinator().Submit(ctx, bob, validInput())
	require.NoError(t, err)

	st, err := h.svc.NewCoordinator().Fetch(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, st.Reports)
}

func TestFetch_RequiresIdentity(t *testing.T) {
	c := newHarness().svc.NewCoordinator()

	st, err := c.Fetch(context.Background(), nil)

	assert.ErrorIs(t, err, ErrListUnauthorized)
	assert.Equal(t, "User not authenticated. Cannot fetch reports.", st.Error)
}

func TestWatch_IgnoresOtherUsersChanges(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := c.SubscribeList(ctx)
	require.NoError(t, c.Watch(ctx, alice))
	waitForList(t, updates, func(st ListState) bool { return !st.Loading })

	_, err := h.svc.NewCoordinator().Submit(ctx, bob, validInput())
	require.NoError(t, err)
	_, err = h.svc.NewCoordinator().Submit(ctx, alice, validInput())
	require.NoError(t, err)

	st := waitForList(t, updates, func(st ListState) bool { return len(st.Reports) > 0 })
	for _, r := range st.Reports {
		assert.Equal(t, alice.ID, r.UserID)
	}
}

func TestWatch_ReleasesSubscriptionOnCancel(t *testing.T) {
	h := newHarness()
	c := h.svc.NewCoordinator()
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, c.Watch(ctx, alice))
	assert.Equal(t, 1, h.feed.Subscribers(alice.ID))

	cancel()
	assert.Eventually(t, func() bool { return h.feed.Subscribers(alice.ID) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWatch_RequiresIdentity(t *testing.T) {
	c := newHarness().svc.NewCoordinator()

	err := c.Watch(context.Background(), nil)

	assert.ErrorIs(t, err, ErrListUnauthorized)
	assert.Equal(t, ListState{Error: "User not authenticated. Cannot fetch reports."}, c.List())
}

func TestFind(t *testing.T) {
	h := newHarness()
	ctx := context.Background()
	c := h.svc.NewCoordinator()

	own, err := c.Submit(ctx, alice, validInput())
	require.NoError(t, err)

	got, err := c.Find(ctx, alice, own.ID)
	require.NoError(t, err)
	assert.Equal(t, own.ID, got.ID)

	_, err = c.Find(ctx, bob, own.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Find(ctx, alice, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.Find(ctx, nil, own.ID)
	assert.ErrorIs(t, err, ErrNotAuthenticated)
}
