package database

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is applied in order on start-up.  Every statement is idempotent.
// bookings.route_id cascades on route deletion; the ledger also deletes
// bookings explicitly inside the same transaction as the route.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS routes (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		title VARCHAR(120) NOT NULL,
		origin VARCHAR(120) NOT NULL,
		destination VARCHAR(120) NOT NULL,
		departure_time DATETIME NOT NULL,
		total_seats SMALLINT UNSIGNED NOT NULL,
		price DECIMAL(10,2) NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		KEY idx_routes_departure (departure_time),
		CONSTRAINT chk_routes_total_seats CHECK (total_seats > 0),
		CONSTRAINT chk_routes_price CHECK (price >= 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS bookings (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		reference CHAR(36) NOT NULL,
		route_id BIGINT UNSIGNED NOT NULL,
		passenger_name VARCHAR(120) NOT NULL,
		passenger_email VARCHAR(120) NOT NULL,
		seats SMALLINT UNSIGNED NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_bookings_reference (reference),
		KEY idx_bookings_route (route_id),
		CONSTRAINT fk_bookings_route FOREIGN KEY (route_id)
			REFERENCES routes(id) ON DELETE CASCADE,
		CONSTRAINT chk_bookings_seats CHECK (seats > 0)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	`CREATE TABLE IF NOT EXISTS operators (
		id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
		email VARCHAR(190) NOT NULL,
		password_hash VARCHAR(100) NOT NULL,
		role VARCHAR(20) NOT NULL DEFAULT 'ADMIN',
		is_active TINYINT(1) NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		PRIMARY KEY (id),
		UNIQUE KEY uq_operators_email (email)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}

// Migrate creates the routes, bookings and operators tables when missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}
	return nil
}
