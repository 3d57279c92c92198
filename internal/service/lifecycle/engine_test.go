package lifecycle

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickcab/ride-hailing/internal/domain/account"
	"github.com/quickcab/ride-hailing/internal/domain/ride"
	apperrors "github.com/quickcab/ride-hailing/pkg/errors"
	"github.com/quickcab/ride-hailing/pkg/logger"
)

// fakeRideRepo is an in-memory ride.Repository with the same conditional
// write semantics as the SQL implementation
type fakeRideRepo struct {
	rides map[uuid.UUID]*ride.Ride
}

func newFakeRideRepo() *fakeRideRepo {
	return &fakeRideRepo{rides: map[uuid.UUID]*ride.Ride{}}
}

func (f *fakeRideRepo) Create(_ context.Context, r *ride.Ride) error {
	cp := *r
	f.rides[r.ID] = &cp
	return nil
}

func (f *fakeRideRepo) GetByID(_ context.Context, id uuid.UUID) (*ride.Ride, error) {
	r, ok := f.rides[id]
	if !ok {
		return nil, ride.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRideRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to ride.Status) error {
	r, ok := f.rides[id]
	if !ok {
		return ride.ErrNotFound
	}
	if r.Status != from {
		return ride.ErrStatusConflict
	}
	r.Status = to
	return nil
}

func (f *fakeRideRepo) AssignDriver(_ context.Context, rideID, driverID uuid.UUID) error {
	r, ok := f.rides[rideID]
	if !ok {
		return ride.ErrNotFound
	}
	if r.DriverID != nil {
		return ride.ErrAlreadyAssigned
	}
	if r.Status != ride.StatusRequested {
		return ride.ErrStatusConflict
	}
	r.DriverID = &driverID
	return nil
}

func (f *fakeRideRepo) UpdateCurrentLocation(_ context.Context, rideID uuid.UUID, c ride.Coordinate) error {
	r, ok := f.rides[rideID]
	if !ok {
		return ride.ErrNotFound
	}
	r.CurrentLocation = &c
	return nil
}

func (f *fakeRideRepo) ActiveRideForRider(_ context.Context, riderID uuid.UUID) (*ride.Ride, error) {
	for _, r := range f.rides {
		if r.RiderID != riderID {
			continue
		}
		for _, s := range ride.RiderActiveStatuses {
			if r.Status == s {
				cp := *r
				return &cp, nil
			}
		}
	}
	return nil, ride.ErrNotFound
}

func (f *fakeRideRepo) ActiveRideForDriver(_ context.Context, driverID uuid.UUID) (*ride.Ride, error) {
	for _, r := range f.rides {
		if r.DriverID == nil || *r.DriverID != driverID {
			continue
		}
		for _, s := range ride.DriverActiveStatuses {
			if r.Status == s {
				cp := *r
				return &cp, nil
			}
		}
	}
	return nil, ride.ErrNotFound
}

func (f *fakeRideRepo) HistoryForRider(_ context.Context, riderID uuid.UUID) ([]ride.HistoryEntry, error) {
	entries := []ride.HistoryEntry{}
	for _, r := range f.rides {
		if r.RiderID == riderID {
			entries = append(entries, ride.HistoryEntry{ID: r.ID, Status: r.Status})
		}
	}
	return entries, nil
}

func (f *fakeRideRepo) HistoryForDriver(_ context.Context, driverID uuid.UUID) ([]ride.HistoryEntry, error) {
	entries := []ride.HistoryEntry{}
	for _, r := range f.rides {
		if r.DriverID != nil && *r.DriverID == driverID {
			entries = append(entries, ride.HistoryEntry{ID: r.ID, Status: r.Status})
		}
	}
	return entries, nil
}

func (f *fakeRideRepo) GetDetail(_ context.Context, id uuid.UUID) (*ride.Detail, error) {
	r, ok := f.rides[id]
	if !ok {
		return nil, ride.ErrNotFound
	}
	return &ride.Detail{Ride: *r}, nil
}

// fakeAccountRepo is an in-memory account.Repository; failAvailability
// simulates the availability store being unreachable
type fakeAccountRepo struct {
	accounts         map[uuid.UUID]*account.Account
	failAvailability bool
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: map[uuid.UUID]*account.Account{}}
}

func (f *fakeAccountRepo) Create(_ context.Context, acct *account.Account) error {
	for _, a := range f.accounts {
		if a.Email == acct.Email {
			return account.ErrEmailExists
		}
	}
	cp := *acct
	f.accounts[acct.ID] = &cp
	return nil
}

func (f *fakeAccountRepo) GetByID(_ context.Context, id uuid.UUID) (*account.Account, error) {
	a, ok := f.accounts[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccountRepo) GetByEmail(_ context.Context, email string) (*account.Account, error) {
	for _, a := range f.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, account.ErrNotFound
}

func (f *fakeAccountRepo) SetAvailability(_ context.Context, id uuid.UUID, available bool) error {
	if f.failAvailability {
		return errors.New("availability store unreachable")
	}
	a, ok := f.accounts[id]
	if !ok {
		return account.ErrNotFound
	}
	a.IsAvailable = available
	return nil
}

type fixture struct {
	engine   *Engine
	rides    *fakeRideRepo
	accounts *fakeAccountRepo
	rider    Principal
	driver   Principal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	rides := newFakeRideRepo()
	accounts := newFakeAccountRepo()

	riderID := uuid.New()
	driverID := uuid.New()

	accounts.accounts[riderID] = &account.Account{
		ID: riderID, Name: "Asha", Email: "asha@example.com", Role: account.RoleRider,
	}
	accounts.accounts[driverID] = &account.Account{
		ID: driverID, Name: "Ravi", Email: "ravi@example.com", Role: account.RoleDriver,
		IsAvailable: true,
		VehicleDetails: &account.VehicleDetails{
			VehicleType: "sedan", VehicleNumber: "KA-01-1234",
		},
	}

	return &fixture{
		engine:   NewEngine(rides, accounts, logger.NewNop()),
		rides:    rides,
		accounts: accounts,
		rider:    Principal{ID: riderID, Role: account.RoleRider},
		driver:   Principal{ID: driverID, Role: account.RoleDriver},
	}
}

func (fx *fixture) createRide(t *testing.T) *ride.Ride {
	t.Helper()
	r, err := fx.engine.CreateRide(context.Background(), fx.rider, CreateRideInput{
		Pickup: ride.Location{Address: "MG Road", Lat: 12.9, Lng: 77.6},
		Drop:   ride.Location{Address: "Airport", Lat: 13.0, Lng: 77.7},
	})
	require.NoError(t, err)
	return r
}

func (fx *fixture) assignedRide(t *testing.T) *ride.Ride {
	t.Helper()
	r := fx.createRide(t)
	r, err := fx.engine.AssignDriver(context.Background(), fx.rider, r.ID, fx.driver.ID)
	require.NoError(t, err)
	return r
}

// TestCreateRide_Success tests ride creation with valid coordinates
func TestCreateRide_Success(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)

	assert.Equal(t, ride.StatusRequested, r.Status)
	assert.Equal(t, fx.rider.ID, r.RiderID)
	assert.Nil(t, r.DriverID)
}

// TestCreateRide_InvalidCoordinates tests coordinate validation on creation
func TestCreateRide_InvalidCoordinates(t *testing.T) {
	fx := newFixture(t)

	tests := []struct {
		name   string
		pickup ride.Location
		drop   ride.Location
	}{
		{"zero pickup", ride.Location{}, ride.Location{Lat: 13.0, Lng: 77.7}},
		{"zero drop", ride.Location{Lat: 12.9, Lng: 77.6}, ride.Location{}},
		{"latitude out of range", ride.Location{Lat: 95, Lng: 77.6}, ride.Location{Lat: 13.0, Lng: 77.7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := fx.engine.CreateRide(context.Background(), fx.rider, CreateRideInput{
				Pickup: tt.pickup, Drop: tt.drop,
			})
			assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
		})
	}
}

// TestCreateRide_OneActiveRidePerRider tests the active-ride invariant
func TestCreateRide_OneActiveRidePerRider(t *testing.T) {
	fx := newFixture(t)

	fx.createRide(t)

	_, err := fx.engine.CreateRide(context.Background(), fx.rider, CreateRideInput{
		Pickup: ride.Location{Lat: 12.9, Lng: 77.6},
		Drop:   ride.Location{Lat: 13.0, Lng: 77.7},
	})
	assert.ErrorIs(t, err, apperrors.ErrRiderHasActiveRide)
}

// TestCreateRide_AllowedAfterTerminal tests that a terminal ride frees the
// rider's active slot
func TestCreateRide_AllowedAfterTerminal(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)
	_, err := fx.engine.RejectRide(context.Background(), fx.driver, r.ID)
	require.NoError(t, err)

	r2 := fx.createRide(t)
	assert.Equal(t, ride.StatusRequested, r2.Status)
}

// TestAssignDriver_Success tests the assignment protocol happy path
func TestAssignDriver_Success(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)

	assert.Equal(t, ride.StatusRequested, r.Status)
	require.NotNil(t, r.DriverID)
	assert.Equal(t, fx.driver.ID, *r.DriverID)

	drv, err := fx.accounts.GetByID(context.Background(), fx.driver.ID)
	require.NoError(t, err)
	assert.False(t, drv.IsAvailable, "assigned driver should be unavailable")
}

// TestAssignDriver_AlreadyAssigned tests double assignment
func TestAssignDriver_AlreadyAssigned(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)

	otherID := uuid.New()
	fx.accounts.accounts[otherID] = &account.Account{
		ID: otherID, Role: account.RoleDriver, IsAvailable: true,
	}

	_, err := fx.engine.AssignDriver(context.Background(), fx.rider, r.ID, otherID)
	assert.ErrorIs(t, err, apperrors.ErrDriverAssigned)
}

// TestAssignDriver_UnavailableDriver tests assignment of a busy driver
func TestAssignDriver_UnavailableDriver(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)
	fx.accounts.accounts[fx.driver.ID].IsAvailable = false

	_, err := fx.engine.AssignDriver(context.Background(), fx.rider, r.ID, fx.driver.ID)
	assert.ErrorIs(t, err, apperrors.ErrDriverNotAvailable)
}

// TestAssignDriver_TargetNotDriver tests assignment of a rider account
func TestAssignDriver_TargetNotDriver(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)

	_, err := fx.engine.AssignDriver(context.Background(), fx.rider, r.ID, fx.rider.ID)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, "FORBIDDEN", appErr.Code)
}

// TestAssignDriver_DriverNotFound tests assignment of an unknown driver
func TestAssignDriver_DriverNotFound(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)

	_, err := fx.engine.AssignDriver(context.Background(), fx.rider, r.ID, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrDriverNotFound)
}

// TestAssignDriver_AvailabilityWriteFails tests the no-rollback coordination
// policy: the ride keeps the driver, the caller sees a dependency failure
func TestAssignDriver_AvailabilityWriteFails(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)
	fx.accounts.failAvailability = true

	got, err := fx.engine.AssignDriver(context.Background(), fx.rider, r.ID, fx.driver.ID)
	assert.True(t, apperrors.IsDependency(err))
	require.NotNil(t, got)
	assert.Equal(t, fx.driver.ID, *got.DriverID)

	// The assignment committed despite the failed follow-up.
	stored, err2 := fx.rides.GetByID(context.Background(), r.ID)
	require.NoError(t, err2)
	require.NotNil(t, stored.DriverID)
	assert.Equal(t, fx.driver.ID, *stored.DriverID)
}

// TestAcceptRide_Success tests acceptance by the assigned driver
func TestAcceptRide_Success(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)

	got, err := fx.engine.AcceptRide(context.Background(), fx.driver, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusAccepted, got.Status)
}

// TestAcceptRide_NotAssignedDriver tests acceptance by a stranger
func TestAcceptRide_NotAssignedDriver(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)

	stranger := Principal{ID: uuid.New(), Role: account.RoleDriver}
	_, err := fx.engine.AcceptRide(context.Background(), stranger, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAssignedDriver)
}

// TestAcceptRide_WithoutDriver tests acceptance of an unassigned ride:
// no principal is the assigned driver, so the caller is rejected
func TestAcceptRide_WithoutDriver(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)

	_, err := fx.engine.AcceptRide(context.Background(), fx.driver, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotAssignedDriver)
}

// TestAcceptRide_WrongState tests that the state check precedes the
// identity check: a stranger accepting an already-accepted ride sees the
// state conflict, not a permission error
func TestAcceptRide_WrongState(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)
	_, err := fx.engine.AcceptRide(context.Background(), fx.driver, r.ID)
	require.NoError(t, err)

	stranger := Principal{ID: uuid.New(), Role: account.RoleDriver}
	_, err = fx.engine.AcceptRide(context.Background(), stranger, r.ID)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

// TestRejectRide_ReleasesDriver tests rejection: terminal status, driver
// returned to the pool
func TestRejectRide_ReleasesDriver(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)

	got, err := fx.engine.RejectRide(context.Background(), fx.driver, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusRejected, got.Status)
	assert.True(t, got.Status.IsTerminal())

	drv, err := fx.accounts.GetByID(context.Background(), fx.driver.ID)
	require.NoError(t, err)
	assert.True(t, drv.IsAvailable, "rejecting driver should be available again")
}

// TestStartRide tests the accepted -> ongoing transition
func TestStartRide(t *testing.T) {
	fx := newFixture(t)

	r := fx.assignedRide(t)
	_, err := fx.engine.AcceptRide(context.Background(), fx.driver, r.ID)
	require.NoError(t, err)

	got, err := fx.engine.StartRide(context.Background(), fx.driver, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusOngoing, got.Status)

	// Starting from requested is not permitted.
	r2rider := Principal{ID: uuid.New(), Role: account.RoleRider}
	fresh, err := fx.engine.CreateRide(context.Background(), r2rider, CreateRideInput{
		Pickup: ride.Location{Lat: 12.9, Lng: 77.6},
		Drop:   ride.Location{Lat: 13.0, Lng: 77.7},
	})
	require.NoError(t, err)
	_, err = fx.engine.StartRide(context.Background(), fx.driver, fresh.ID)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

// TestCompleteRide_ReleasesDriver tests the full happy path through to
// completion
func TestCompleteRide_ReleasesDriver(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	r := fx.assignedRide(t)
	_, err := fx.engine.AcceptRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)
	_, err = fx.engine.StartRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)

	got, err := fx.engine.CompleteRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCompleted, got.Status)

	drv, err := fx.accounts.GetByID(ctx, fx.driver.ID)
	require.NoError(t, err)
	assert.True(t, drv.IsAvailable)
}

// TestCompleteRide_ReleaseFails tests a failed driver release after the
// status write committed
func TestCompleteRide_ReleaseFails(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	r := fx.assignedRide(t)
	_, err := fx.engine.AcceptRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)
	_, err = fx.engine.StartRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)

	fx.accounts.failAvailability = true

	got, err := fx.engine.CompleteRide(ctx, fx.driver, r.ID)
	assert.True(t, apperrors.IsDependency(err))
	require.NotNil(t, got)
	assert.Equal(t, ride.StatusCompleted, got.Status)

	// The status write stands.
	stored, err2 := fx.rides.GetByID(ctx, r.ID)
	require.NoError(t, err2)
	assert.Equal(t, ride.StatusCompleted, stored.Status)
}

// TestCancelRide_ByRider tests cancellation from requested and accepted
func TestCancelRide_ByRider(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	// From requested, no driver involved.
	r := fx.createRide(t)
	got, err := fx.engine.CancelRide(ctx, fx.rider, r.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCancelled, got.Status)

	// From accepted, the driver is released.
	r2 := fx.assignedRide(t)
	_, err = fx.engine.AcceptRide(ctx, fx.driver, r2.ID)
	require.NoError(t, err)

	got, err = fx.engine.CancelRide(ctx, fx.rider, r2.ID)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCancelled, got.Status)

	drv, err := fx.accounts.GetByID(ctx, fx.driver.ID)
	require.NoError(t, err)
	assert.True(t, drv.IsAvailable)
}

// TestCancelRide_OngoingRejected tests that an ongoing ride cannot be
// cancelled
func TestCancelRide_OngoingRejected(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	r := fx.assignedRide(t)
	_, err := fx.engine.AcceptRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)
	_, err = fx.engine.StartRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)

	_, err = fx.engine.CancelRide(ctx, fx.rider, r.ID)
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, "INVALID_STATE", appErr.Code)
}

// TestCancelRide_NotOwner tests cancellation by someone other than the ride's
// rider
func TestCancelRide_NotOwner(t *testing.T) {
	fx := newFixture(t)

	r := fx.createRide(t)

	_, err := fx.engine.CancelRide(context.Background(), fx.driver, r.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotRideOwner)
}

// TestUpdateLocation tests live location updates on an ongoing ride
func TestUpdateLocation(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	r := fx.assignedRide(t)

	// Not ongoing yet.
	_, err := fx.engine.UpdateLocation(ctx, fx.driver, r.ID, ride.Coordinate{Lat: 12.95, Lng: 77.65})
	appErr := apperrors.GetAppError(err)
	assert.Equal(t, "INVALID_STATE", appErr.Code)

	_, err = fx.engine.AcceptRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)
	_, err = fx.engine.StartRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)

	// Only the assigned driver may report location.
	_, err = fx.engine.UpdateLocation(ctx, fx.rider, r.ID, ride.Coordinate{Lat: 12.95, Lng: 77.65})
	assert.ErrorIs(t, err, apperrors.ErrNotAssignedDriver)

	got, err := fx.engine.UpdateLocation(ctx, fx.driver, r.ID, ride.Coordinate{Lat: 12.95, Lng: 77.65})
	require.NoError(t, err)
	require.NotNil(t, got.CurrentLocation)
	assert.Equal(t, 12.95, got.CurrentLocation.Lat)

	// Invalid coordinates are rejected before any lookup.
	_, err = fx.engine.UpdateLocation(ctx, fx.driver, r.ID, ride.Coordinate{Lat: 200, Lng: 77.65})
	assert.ErrorIs(t, err, apperrors.ErrInvalidCoordinates)
}

// TestActiveRideLookups tests the rider and driver active-ride projections
func TestActiveRideLookups(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	_, err := fx.engine.ActiveRideForRider(ctx, fx.rider)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveRide)
	_, err = fx.engine.ActiveRideForDriver(ctx, fx.driver)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveRide)

	r := fx.assignedRide(t)

	got, err := fx.engine.ActiveRideForRider(ctx, fx.rider)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)

	// A requested ride does not yet count as the driver's active ride.
	_, err = fx.engine.ActiveRideForDriver(ctx, fx.driver)
	assert.ErrorIs(t, err, apperrors.ErrNoActiveRide)

	_, err = fx.engine.AcceptRide(ctx, fx.driver, r.ID)
	require.NoError(t, err)

	got, err = fx.engine.ActiveRideForDriver(ctx, fx.driver)
	require.NoError(t, err)
	assert.Equal(t, r.ID, got.ID)
}

// TestTransition_RideNotFound tests transitions against an unknown ride
func TestTransition_RideNotFound(t *testing.T) {
	fx := newFixture(t)

	_, err := fx.engine.AcceptRide(context.Background(), fx.driver, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrRideNotFound)
}
