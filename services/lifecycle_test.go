package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"civicsense-be/models"
	"civicsense-be/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mumbai-ish base coordinates for the geo tests.
const (
	baseLng = 72.8777
	baseLat = 19.0760
)

type fakeGeocoder struct {
	result GeoResult
	err    error
}

func (g *fakeGeocoder) Reverse(ctx context.Context, lng, lat float64) (GeoResult, error) {
	if g.err != nil {
		return DefaultGeoResult(), g.err
	}
	return g.result, nil
}

type fakeNotifier struct {
	mu              sync.Mutex
	acks            int
	resolutions     int
	failResolutions bool
}

func (n *fakeNotifier) SendAcknowledgment(msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.acks++
	return nil
}

func (n *fakeNotifier) SendResolution(msg Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.failResolutions {
		return errors.New("smtp unavailable")
	}
	n.resolutions++
	return nil
}

func (n *fakeNotifier) resolutionCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resolutions
}

func (n *fakeNotifier) ackCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.acks
}

func newTestLifecycle() (*Lifecycle, *store.MemoryStore, *fakeNotifier) {
	st := store.NewMemoryStore()
	notifier := &fakeNotifier{}
	geocoder := &fakeGeocoder{result: GeoResult{Area: "Andheri East", City: "Mumbai"}}
	return NewLifecycle(st, geocoder, notifier), st, notifier
}

func validCreateInput() CreateInput {
	return CreateInput{
		IssueType:   string(models.Pothole),
		Description: "A very large pothole in the middle of the road",
		Longitude:   baseLng,
		Latitude:    baseLat,
	}
}

func TestCreateComplaint(t *testing.T) {
	l, _, _ := newTestLifecycle()

	result, err := l.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.False(t, result.IsDuplicate)
	c := result.Complaint
	assert.Regexp(t, `^CIV-\d{4}-\d{4}$`, c.ComplaintID)
	assert.Equal(t, models.Submitted, c.Status)
	assert.Equal(t, models.High, c.Priority)
	assert.Equal(t, 1, c.Upvotes)
	assert.Equal(t, 1, c.ReportCount)
	assert.Equal(t, "Andheri East", c.Area)
	require.Len(t, c.Timeline, 4)
	assert.True(t, c.Timeline[0].Done)
}

func TestCreateDispatchesAcknowledgmentAsync(t *testing.T) {
	l, _, notifier := newTestLifecycle()

	in := validCreateInput()
	in.ReporterEmail = "citizen@example.com"
	_, err := l.Create(context.Background(), in)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return notifier.ackCount() == 1
	}, time.Second, 10*time.Millisecond)
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	in := validCreateInput()
	in.IssueType = "Earthquake"
	_, err := l.Create(ctx, in)
	assert.True(t, IsValidation(err))

	in = validCreateInput()
	in.Description = "too short"
	_, err = l.Create(ctx, in)
	assert.True(t, IsValidation(err))
}

func TestCreateGeocodingFailureIsNonFatal(t *testing.T) {
	st := store.NewMemoryStore()
	l := NewLifecycle(st, &fakeGeocoder{err: errors.New("nominatim down")}, &fakeNotifier{})

	result, err := l.Create(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.Equal(t, "Unknown Area", result.Complaint.Area)
	assert.Equal(t, "Mumbai", result.Complaint.City)
}

func TestCreateDetectsNearbyDuplicate(t *testing.T) {
	l, st, _ := newTestLifecycle()
	ctx := context.Background()

	first, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)
	require.False(t, first.IsDuplicate)

	// Same issue type roughly 55 meters away.
	in := validCreateInput()
	in.Latitude = baseLat + 0.0005
	second, err := l.Create(ctx, in)
	require.NoError(t, err)

	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.Complaint.ComplaintID, second.Complaint.ComplaintID)
	assert.Equal(t, 2, second.Complaint.Upvotes)

	// No second record was created.
	_, total, err := st.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCreateFarApartIsNotDuplicate(t *testing.T) {
	l, st, _ := newTestLifecycle()
	ctx := context.Background()

	_, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	// Same issue type, ~550 meters away.
	in := validCreateInput()
	in.Latitude = baseLat + 0.005
	second, err := l.Create(ctx, in)
	require.NoError(t, err)

	assert.False(t, second.IsDuplicate)

	_, total, err := st.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestCreateDifferentTypeNearbyIsNotDuplicate(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	_, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	in := validCreateInput()
	in.IssueType = string(models.Garbage)
	second, err := l.Create(ctx, in)
	require.NoError(t, err)

	assert.False(t, second.IsDuplicate)
}

func TestCreateResolvedComplaintIsNotADuplicateTarget(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	first, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, _, err = l.ChangeStatus(ctx, first.Complaint.ComplaintID, string(models.Resolved))
	require.NoError(t, err)

	second, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)
	assert.False(t, second.IsDuplicate)
}

func TestChangeStatusAdvancesTimeline(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	updated, emailSent, err := l.ChangeStatus(ctx, created.Complaint.ComplaintID, string(models.InProgress))
	require.NoError(t, err)

	assert.False(t, emailSent)
	assert.Equal(t, models.InProgress, updated.Status)
	assert.True(t, updated.Timeline[2].Done)
	assert.False(t, updated.Timeline[3].Done)
}

func TestChangeStatusRejectsUnknownStatus(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, _, err = l.ChangeStatus(ctx, created.Complaint.ComplaintID, "Closed")
	assert.True(t, IsValidation(err))

	_, _, err = l.ChangeStatus(ctx, created.Complaint.ComplaintID, string(models.Escalated))
	assert.True(t, IsValidation(err))
}

func TestChangeStatusUnknownComplaint(t *testing.T) {
	l, _, _ := newTestLifecycle()

	_, _, err := l.ChangeStatus(context.Background(), "CIV-2026-0000", string(models.Resolved))
	assert.True(t, IsNotFound(err))
}

func TestResolutionNotificationSuccess(t *testing.T) {
	l, st, notifier := newTestLifecycle()
	ctx := context.Background()

	in := validCreateInput()
	in.ReporterEmail = "citizen@example.com"
	created, err := l.Create(ctx, in)
	require.NoError(t, err)

	updated, emailSent, err := l.ChangeStatus(ctx, created.Complaint.ComplaintID, string(models.Resolved))
	require.NoError(t, err)

	assert.True(t, emailSent)
	assert.True(t, updated.EmailNotified)
	assert.Equal(t, 1, notifier.resolutionCount())

	stored, err := st.GetByComplaintID(ctx, created.Complaint.ComplaintID)
	require.NoError(t, err)
	assert.True(t, stored.EmailNotified)

	// A second resolve must not mail again.
	_, emailSent, err = l.ChangeStatus(ctx, created.Complaint.ComplaintID, string(models.Resolved))
	require.NoError(t, err)
	assert.False(t, emailSent)
	assert.Equal(t, 1, notifier.resolutionCount())
}

func TestResolutionNotificationFailureDoesNotBlockStatusChange(t *testing.T) {
	st := store.NewMemoryStore()
	notifier := &fakeNotifier{failResolutions: true}
	l := NewLifecycle(st, &fakeGeocoder{result: GeoResult{Area: "Andheri East", City: "Mumbai"}}, notifier)
	ctx := context.Background()

	in := validCreateInput()
	in.ReporterEmail = "citizen@example.com"
	created, err := l.Create(ctx, in)
	require.NoError(t, err)

	updated, emailSent, err := l.ChangeStatus(ctx, created.Complaint.ComplaintID, string(models.Resolved))
	require.NoError(t, err)

	assert.False(t, emailSent)
	assert.Equal(t, models.Resolved, updated.Status)
	assert.False(t, updated.EmailNotified)
}

func TestAssignDepartment(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	updated, err := l.AssignDepartment(ctx, created.Complaint.ComplaintID, "Roads Department")
	require.NoError(t, err)

	require.NotNil(t, updated.AssignedDepartment)
	assert.Equal(t, "Roads Department", *updated.AssignedDepartment)
	assert.Equal(t, models.Assigned, updated.Status)
	assert.True(t, updated.Timeline[0].Done)
	assert.True(t, updated.Timeline[1].Done)
	assert.NotNil(t, updated.Timeline[1].Date)
}

func TestAssignDepartmentDoesNotDowngradeStatus(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)
	id := created.Complaint.ComplaintID

	_, _, err = l.ChangeStatus(ctx, id, string(models.InProgress))
	require.NoError(t, err)

	updated, err := l.AssignDepartment(ctx, id, "Roads Department")
	require.NoError(t, err)
	assert.Equal(t, models.InProgress, updated.Status)
}

func TestAssignDepartmentRequiresName(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	_, err = l.AssignDepartment(ctx, created.Complaint.ComplaintID, "   ")
	assert.True(t, IsValidation(err))
}

func TestUpvote(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)

	count, err := l.Upvote(ctx, created.Complaint.ComplaintID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	_, err = l.Upvote(ctx, "CIV-2026-0000")
	assert.True(t, IsNotFound(err))
}

func TestConcurrentUpvotesLoseNoUpdates(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	created, err := l.Create(ctx, validCreateInput())
	require.NoError(t, err)
	id := created.Complaint.ComplaintID

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, err := l.Upvote(ctx, id)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := l.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 1+n, stored.Upvotes)
}

func TestNearbySortsByDistance(t *testing.T) {
	l, _, _ := newTestLifecycle()
	ctx := context.Background()

	far := validCreateInput()
	far.Latitude = baseLat + 0.003 // ~330m
	farResult, err := l.Create(ctx, far)
	require.NoError(t, err)

	near := validCreateInput()
	near.IssueType = string(models.Garbage) // avoid the duplicate path
	nearResult, err := l.Create(ctx, near)
	require.NoError(t, err)

	complaints, err := l.Nearby(ctx, baseLng, baseLat, 500, "")
	require.NoError(t, err)

	require.Len(t, complaints, 2)
	assert.Equal(t, nearResult.Complaint.ComplaintID, complaints[0].ComplaintID)
	assert.Equal(t, farResult.Complaint.ComplaintID, complaints[1].ComplaintID)
}
