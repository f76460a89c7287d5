package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema lists the tables in dependency order.  booking_seats carries the
// unique key that makes a seat bookable once per trip and travel date;
// cancelling a booking deletes its booking_seats rows to free the seats.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id BIGINT UNSIGNED AUTO_INCREMENT PRIMARY KEY,
		email VARCHAR(255) NOT NULL UNIQUE,
		full_name VARCHAR(255) NOT NULL DEFAULT '',
		phone VARCHAR(32) NULL,
		password_hash VARCHAR(255) NOT NULL,
		role ENUM('CUSTOMER','ADMIN') NOT NULL DEFAULT 'CUSTOMER',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS cities (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(128) NOT NULL,
		region VARCHAR(128) NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,
	`CREATE TABLE IF NOT EXISTS routes (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		departure_city_id VARCHAR(64) NOT NULL,
		destination_city_id VARCHAR(64) NOT NULL,
		distance_km INT UNSIGNED NULL,
		estimated_duration_minutes INT UNSIGNED NULL,
		FOREIGN KEY (departure_city_id) REFERENCES cities(id),
		FOREIGN KEY (destination_city_id) REFERENCES cities(id)
	)`,
	`CREATE TABLE IF NOT EXISTS vehicles (
		id VARCHAR(64) PRIMARY KEY,
		plate_number VARCHAR(32) NOT NULL UNIQUE,
		model VARCHAR(128) NOT NULL,
		capacity INT UNSIGNED NOT NULL,
		vehicle_type VARCHAR(32) NOT NULL DEFAULT 'MINIBUS',
		operator VARCHAR(128) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS drivers (
		id VARCHAR(64) PRIMARY KEY,
		full_name VARCHAR(255) NOT NULL,
		phone VARCHAR(32) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS trips (
		id VARCHAR(64) PRIMARY KEY,
		route_id VARCHAR(64) NOT NULL,
		vehicle_id VARCHAR(64) NOT NULL,
		driver_id VARCHAR(64) NOT NULL,
		departure_time TIME NOT NULL,
		arrival_time TIME NULL,
		price_per_seat BIGINT NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'SCHEDULED',
		FOREIGN KEY (route_id) REFERENCES routes(id),
		FOREIGN KEY (vehicle_id) REFERENCES vehicles(id),
		FOREIGN KEY (driver_id) REFERENCES drivers(id)
	)`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id VARCHAR(32) PRIMARY KEY,
		user_id BIGINT UNSIGNED NOT NULL DEFAULT 0,
		trip_id VARCHAR(64) NOT NULL,
		travel_date DATE NOT NULL,
		seat_numbers VARCHAR(255) NOT NULL,
		total_amount BIGINT NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		customer_phone VARCHAR(32) NOT NULL,
		passenger_details JSON NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'confirmed',
		payment_status VARCHAR(16) NOT NULL DEFAULT 'pending',
		payment_method VARCHAR(32) NOT NULL DEFAULT 'pending',
		notes TEXT NULL,
		booked_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		INDEX idx_bookings_user (user_id),
		INDEX idx_bookings_booked_at (booked_at)
	)`,
	`CREATE TABLE IF NOT EXISTS booking_seats (
		booking_id VARCHAR(32) NOT NULL,
		trip_id VARCHAR(64) NOT NULL,
		travel_date DATE NOT NULL,
		seat_number INT UNSIGNED NOT NULL,
		PRIMARY KEY (booking_id, seat_number),
		UNIQUE KEY uq_trip_date_seat (trip_id, travel_date, seat_number),
		FOREIGN KEY (booking_id) REFERENCES bookings(id) ON DELETE CASCADE
	)`,
}

// Migrate creates any missing tables.  It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate statement %d: %w", i+1, err)
		}
	}
	return nil
}
