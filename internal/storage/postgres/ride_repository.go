package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/quickcab/ride-hailing/internal/domain/account"
	"github.com/quickcab/ride-hailing/internal/domain/ride"
)

// RideRepository handles database operations for rides
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a ride repository
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

const rideColumns = `
	id, rider_id, driver_id,
	pickup_address, pickup_lat, pickup_lng,
	drop_address, drop_lat, drop_lng,
	current_lat, current_lng,
	distance, fare, status, created_at, updated_at
`

// Create inserts a new ride; timestamps come back from the store
func (r *RideRepository) Create(ctx context.Context, rd *ride.Ride) error {
	query := `
		INSERT INTO rides (
			id, rider_id,
			pickup_address, pickup_lat, pickup_lng,
			drop_address, drop_lat, drop_lng,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		rd.ID, rd.RiderID,
		nullString(rd.PickupLocation.Address), rd.PickupLocation.Lat, rd.PickupLocation.Lng,
		nullString(rd.DropLocation.Address), rd.DropLocation.Lat, rd.DropLocation.Lng,
		rd.Status,
	).Scan(&rd.CreatedAt, &rd.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create ride: %w", err)
	}

	return nil
}

// GetByID retrieves a ride by ID
func (r *RideRepository) GetByID(ctx context.Context, id uuid.UUID) (*ride.Ride, error) {
	query := fmt.Sprintf(`SELECT %s FROM rides WHERE id = $1`, rideColumns)
	return scanRide(r.db.QueryRowContext(ctx, query, id))
}

// UpdateStatus moves a ride between statuses, conditional on the status
// the caller read
func (r *RideRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to ride.Status) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rides
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update ride status: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return r.classifyMiss(ctx, id, ride.ErrStatusConflict)
	}

	return nil
}

// AssignDriver sets the driver on a requested, driverless ride
func (r *RideRepository) AssignDriver(ctx context.Context, rideID, driverID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rides
		SET driver_id = $2, updated_at = NOW()
		WHERE id = $1 AND status = 'requested' AND driver_id IS NULL
	`, rideID, driverID)
	if err != nil {
		return fmt.Errorf("failed to assign driver: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		var status ride.Status
		var driver sql.NullString
		probe := r.db.QueryRowContext(ctx,
			`SELECT status, driver_id FROM rides WHERE id = $1`, rideID,
		).Scan(&status, &driver)
		if probe == sql.ErrNoRows {
			return ride.ErrNotFound
		}
		if probe != nil {
			return fmt.Errorf("failed to probe ride: %w", probe)
		}
		if driver.Valid {
			return ride.ErrAlreadyAssigned
		}
		return ride.ErrStatusConflict
	}

	return nil
}

// UpdateCurrentLocation records the live coordinate on a ride
func (r *RideRepository) UpdateCurrentLocation(ctx context.Context, rideID uuid.UUID, c ride.Coordinate) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE rides
		SET current_lat = $2, current_lng = $3, updated_at = NOW()
		WHERE id = $1
	`, rideID, c.Lat, c.Lng)
	if err != nil {
		return fmt.Errorf("failed to update ride location: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if rows == 0 {
		return ride.ErrNotFound
	}

	return nil
}

// ActiveRideForRider returns the rider's ride in {requested, accepted,
// ongoing}, newest first when more than one slipped through
func (r *RideRepository) ActiveRideForRider(ctx context.Context, riderID uuid.UUID) (*ride.Ride, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM rides
		WHERE rider_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`, rideColumns)

	return scanRide(r.db.QueryRowContext(ctx, query, riderID, statusArray(ride.RiderActiveStatuses)))
}

// ActiveRideForDriver returns the driver's ride in {accepted, ongoing}
func (r *RideRepository) ActiveRideForDriver(ctx context.Context, driverID uuid.UUID) (*ride.Ride, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM rides
		WHERE driver_id = $1 AND status = ANY($2)
		ORDER BY created_at DESC
		LIMIT 1
	`, rideColumns)

	return scanRide(r.db.QueryRowContext(ctx, query, driverID, statusArray(ride.DriverActiveStatuses)))
}

// HistoryForRider lists the rider's rides with driver details attached
func (r *RideRepository) HistoryForRider(ctx context.Context, riderID uuid.UUID) ([]ride.HistoryEntry, error) {
	query := `
		SELECT r.id,
		       r.pickup_address, r.pickup_lat, r.pickup_lng,
		       r.drop_address, r.drop_lat, r.drop_lng,
		       r.fare, r.status, r.created_at,
		       a.name, a.phone, a.vehicle_type, a.vehicle_number
		FROM rides r
		LEFT JOIN accounts a ON r.driver_id = a.id
		WHERE r.rider_id = $1
		ORDER BY r.created_at DESC
	`
	return r.queryHistory(ctx, query, riderID, true)
}

// HistoryForDriver lists the driver's rides with rider details attached
func (r *RideRepository) HistoryForDriver(ctx context.Context, driverID uuid.UUID) ([]ride.HistoryEntry, error) {
	query := `
		SELECT r.id,
		       r.pickup_address, r.pickup_lat, r.pickup_lng,
		       r.drop_address, r.drop_lat, r.drop_lng,
		       r.fare, r.status, r.created_at,
		       a.name, a.phone, NULL, NULL
		FROM rides r
		LEFT JOIN accounts a ON r.rider_id = a.id
		WHERE r.driver_id = $1
		ORDER BY r.created_at DESC
	`
	return r.queryHistory(ctx, query, driverID, false)
}

func (r *RideRepository) queryHistory(ctx context.Context, query string, id uuid.UUID, withVehicle bool) ([]ride.HistoryEntry, error) {
	rows, err := r.db.QueryContext(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query ride history: %w", err)
	}
	defer rows.Close()

	entries := []ride.HistoryEntry{}
	for rows.Next() {
		var e ride.HistoryEntry
		var pickupAddr, dropAddr sql.NullString
		var fare sql.NullFloat64
		var name, phone, vehicleType, vehicleNumber sql.NullString

		if err := rows.Scan(
			&e.ID,
			&pickupAddr, &e.PickupLocation.Lat, &e.PickupLocation.Lng,
			&dropAddr, &e.DropLocation.Lat, &e.DropLocation.Lng,
			&fare, &e.Status, &e.CreatedAt,
			&name, &phone, &vehicleType, &vehicleNumber,
		); err != nil {
			return nil, fmt.Errorf("failed to scan ride history row: %w", err)
		}

		e.PickupLocation.Address = pickupAddr.String
		e.DropLocation.Address = dropAddr.String
		if fare.Valid {
			e.Fare = &fare.Float64
		}
		if name.Valid {
			party := &ride.Party{Name: name.String, Phone: phone.String}
			if withVehicle && (vehicleType.Valid || vehicleNumber.Valid) {
				party.VehicleDetails = &account.VehicleDetails{
					VehicleType:   vehicleType.String,
					VehicleNumber: vehicleNumber.String,
				}
			}
			e.CounterParty = party
		}

		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read ride history rows: %w", err)
	}

	return entries, nil
}

// GetDetail retrieves a ride with both parties' contact details
func (r *RideRepository) GetDetail(ctx context.Context, id uuid.UUID) (*ride.Detail, error) {
	query := `
		SELECT r.id, r.rider_id, r.driver_id,
		       r.pickup_address, r.pickup_lat, r.pickup_lng,
		       r.drop_address, r.drop_lat, r.drop_lng,
		       r.current_lat, r.current_lng,
		       r.distance, r.fare, r.status, r.created_at, r.updated_at,
		       rider.name, rider.phone,
		       drv.name, drv.phone, drv.vehicle_type, drv.vehicle_number
		FROM rides r
		LEFT JOIN accounts rider ON r.rider_id = rider.id
		LEFT JOIN accounts drv ON r.driver_id = drv.id
		WHERE r.id = $1
	`

	d := &ride.Detail{}
	var driverID sql.NullString
	var pickupAddr, dropAddr sql.NullString
	var currentLat, currentLng, distance, fare sql.NullFloat64
	var riderName, riderPhone sql.NullString
	var drvName, drvPhone, drvVehicleType, drvVehicleNumber sql.NullString

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&d.ID, &d.RiderID, &driverID,
		&pickupAddr, &d.PickupLocation.Lat, &d.PickupLocation.Lng,
		&dropAddr, &d.DropLocation.Lat, &d.DropLocation.Lng,
		&currentLat, &currentLng,
		&distance, &fare, &d.Status, &d.CreatedAt, &d.UpdatedAt,
		&riderName, &riderPhone,
		&drvName, &drvPhone, &drvVehicleType, &drvVehicleNumber,
	)
	if err == sql.ErrNoRows {
		return nil, ride.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get ride detail: %w", err)
	}

	applyNullableRideFields(&d.Ride, driverID, pickupAddr, dropAddr, currentLat, currentLng, distance, fare)

	if riderName.Valid {
		d.Rider = &ride.Party{Name: riderName.String, Phone: riderPhone.String}
	}
	if drvName.Valid {
		party := &ride.Party{Name: drvName.String, Phone: drvPhone.String}
		if drvVehicleType.Valid || drvVehicleNumber.Valid {
			party.VehicleDetails = &account.VehicleDetails{
				VehicleType:   drvVehicleType.String,
				VehicleNumber: drvVehicleNumber.String,
			}
		}
		d.Driver = party
	}

	return d, nil
}

// classifyMiss distinguishes a missing ride from a conditional-write loss
func (r *RideRepository) classifyMiss(ctx context.Context, id uuid.UUID, conflictErr error) error {
	var exists bool
	probe := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM rides WHERE id = $1)`, id,
	).Scan(&exists)
	if probe != nil || !exists {
		return ride.ErrNotFound
	}
	return conflictErr
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRide(row rowScanner) (*ride.Ride, error) {
	rd := &ride.Ride{}
	var driverID sql.NullString
	var pickupAddr, dropAddr sql.NullString
	var currentLat, currentLng, distance, fare sql.NullFloat64

	err := row.Scan(
		&rd.ID, &rd.RiderID, &driverID,
		&pickupAddr, &rd.PickupLocation.Lat, &rd.PickupLocation.Lng,
		&dropAddr, &rd.DropLocation.Lat, &rd.DropLocation.Lng,
		&currentLat, &currentLng,
		&distance, &fare, &rd.Status, &rd.CreatedAt, &rd.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ride.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan ride: %w", err)
	}

	applyNullableRideFields(rd, driverID, pickupAddr, dropAddr, currentLat, currentLng, distance, fare)
	return rd, nil
}

func applyNullableRideFields(rd *ride.Ride, driverID, pickupAddr, dropAddr sql.NullString, currentLat, currentLng, distance, fare sql.NullFloat64) {
	if driverID.Valid {
		if parsed, err := uuid.Parse(driverID.String); err == nil {
			rd.DriverID = &parsed
		}
	}
	rd.PickupLocation.Address = pickupAddr.String
	rd.DropLocation.Address = dropAddr.String
	if currentLat.Valid && currentLng.Valid {
		rd.CurrentLocation = &ride.Coordinate{Lat: currentLat.Float64, Lng: currentLng.Float64}
	}
	if distance.Valid {
		rd.Distance = &distance.Float64
	}
	if fare.Valid {
		rd.Fare = &fare.Float64
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func statusArray(statuses []ride.Status) pq.StringArray {
	arr := make(pq.StringArray, len(statuses))
	for i, s := range statuses {
		arr[i] = string(s)
	}
	return arr
}
