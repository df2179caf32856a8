package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
)

// migrations is the ordered, append-only list of schema changes.
// Version N is migrations[N-1]. Statements must be additive
// (CREATE/ALTER only): applied versions are recorded in
// schema_version and never re-run, so editing an entry after it has
// shipped would desynchronize existing databases.
var migrations = [][]string{
	// v1: the four core tables. bookings carries a generated seat_key
	// column that mirrors seat_number only while the booking is
	// Active; the unique index on (trip_id, seat_key) is the
	// double-booking guard and ignores cancelled rows because
	// generated NULLs never collide.
	{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			username VARCHAR(64) NOT NULL,
			password VARCHAR(255) NOT NULL,
			role VARCHAR(16) NOT NULL DEFAULT 'PASSENGER',
			full_name VARCHAR(255) NOT NULL DEFAULT '',
			email VARCHAR(255) NOT NULL DEFAULT '',
			phone VARCHAR(32) NOT NULL DEFAULT '',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_username (username)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS trips (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			from_city VARCHAR(128) NOT NULL,
			to_city VARCHAR(128) NOT NULL,
			departure_time VARCHAR(5) NOT NULL,
			arrival_time VARCHAR(5) NOT NULL,
			price BIGINT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'Active',
			PRIMARY KEY (id),
			CONSTRAINT chk_trip_price CHECK (price >= 0)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS stops (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			trip_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(128) NOT NULL,
			arrival_time VARCHAR(5) NOT NULL,
			departure_time VARCHAR(5) NOT NULL,
			price_from_start BIGINT NOT NULL DEFAULT 0,
			PRIMARY KEY (id),
			KEY idx_stops_trip (trip_id),
			CONSTRAINT fk_stops_trip FOREIGN KEY (trip_id)
				REFERENCES trips (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		`CREATE TABLE IF NOT EXISTS bookings (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			user_id BIGINT UNSIGNED NOT NULL,
			trip_id BIGINT UNSIGNED NOT NULL,
			passenger_name VARCHAR(255) NOT NULL,
			passenger_email VARCHAR(255) NOT NULL DEFAULT '',
			seat_number INT NOT NULL,
			status VARCHAR(16) NOT NULL DEFAULT 'Active',
			booking_date DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			seat_key INT GENERATED ALWAYS AS
				(IF(status = 'Active', seat_number, NULL)) STORED,
			PRIMARY KEY (id),
			KEY idx_bookings_user (user_id),
			KEY idx_bookings_trip (trip_id),
			UNIQUE KEY uniq_trip_seat (trip_id, seat_key),
			CONSTRAINT fk_bookings_user FOREIGN KEY (user_id)
				REFERENCES users (id),
			CONSTRAINT fk_bookings_trip FOREIGN KEY (trip_id)
				REFERENCES trips (id),
			CONSTRAINT chk_seat_range CHECK (seat_number BETWEEN 1 AND 45)
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
	// v2: refresh tokens for the auth surface.
	{
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
			user_id BIGINT UNSIGNED NOT NULL,
			token_hash CHAR(64) NOT NULL,
			expires_at DATETIME NOT NULL,
			revoked_at DATETIME NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			PRIMARY KEY (id),
			UNIQUE KEY uniq_token_hash (token_hash),
			KEY idx_refresh_user (user_id),
			CONSTRAINT fk_refresh_user FOREIGN KEY (user_id)
				REFERENCES users (id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
	},
}

// SchemaVersion is the version a fully migrated database reports.
func SchemaVersion() int { return len(migrations) }

// Bootstrap brings the database to the current schema version and
// seeds demo data into an empty store. A failure here is unrecoverable
// at startup and must abort the process; the caller is expected to
// treat any returned error as fatal.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_version (
		version INT NOT NULL,
		applied_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (version)
	) ENGINE=InnoDB`); err != nil {
		return fmt.Errorf("create schema_version: %w", err)
	}

	current, err := currentVersion(ctx, db)
	if err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := current + 1; v <= len(migrations); v++ {
		for _, stmt := range migrations[v-1] {
			if _, err := db.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("apply migration %d: %w", v, err)
			}
		}
		if _, err := db.ExecContext(ctx,
			`INSERT INTO schema_version (version) VALUES (?)`, v); err != nil {
			return fmt.Errorf("record migration %d: %w", v, err)
		}
		log.Printf("schema: applied migration v%d", v)
	}

	return seed(ctx, db)
}

func currentVersion(ctx context.Context, db *sql.DB) (int, error) {
	var v sql.NullInt64
	err := db.QueryRowContext(ctx,
		`SELECT MAX(version) FROM schema_version`).Scan(&v)
	if err != nil {
		return 0, err
	}
	if !v.Valid {
		return 0, nil
	}
	return int(v.Int64), nil
}

// demoTrip pairs a trip row with its ordered stop list for seeding.
type demoTrip struct {
	from, to       string
	depart, arrive string
	price          int64
	stops          []demoStop
}

type demoStop struct {
	name           string
	arrive, depart string
	priceFromStart int64
}

var demoTrips = []demoTrip{
	{
		from: "Слободской", to: "Киров", depart: "07:30", arrive: "08:25", price: 240,
		stops: []demoStop{
			{name: "Слободской (автовокзал)", arrive: "07:30", depart: "07:30", priceFromStart: 0},
			{name: "Вахруши", arrive: "07:45", depart: "07:47", priceFromStart: 90},
			{name: "Киров (автовокзал)", arrive: "08:25", depart: "08:25", priceFromStart: 240},
		},
	},
	{
		from: "Киров", to: "Котельнич", depart: "09:10", arrive: "11:05", price: 600,
		stops: []demoStop{
			{name: "Киров (автовокзал)", arrive: "09:10", depart: "09:10", priceFromStart: 0},
			{name: "Стрижи", arrive: "09:50", depart: "09:52", priceFromStart: 180},
			{name: "Оричи", arrive: "10:15", depart: "10:18", priceFromStart: 320},
			{name: "Котельнич (автостанция)", arrive: "11:05", depart: "11:05", priceFromStart: 600},
		},
	},
	{
		from: "Киров", to: "Кирово-Чепецк", depart: "10:00", arrive: "10:50", price: 210,
		stops: []demoStop{
			{name: "Киров (автовокзал)", arrive: "10:00", depart: "10:00", priceFromStart: 0},
			{name: "Просница", arrive: "10:30", depart: "10:32", priceFromStart: 130},
			{name: "Кирово-Чепецк (автостанция)", arrive: "10:50", depart: "10:50", priceFromStart: 210},
		},
	},
	{
		from: "Киров", to: "Слободской", depart: "18:40", arrive: "19:35", price: 240,
		stops: []demoStop{
			{name: "Киров (автовокзал)", arrive: "18:40", depart: "18:40", priceFromStart: 0},
			{name: "Вахруши", arrive: "19:15", depart: "19:17", priceFromStart: 150},
			{name: "Слободской (автовокзал)", arrive: "19:35", depart: "19:35", priceFromStart: 240},
		},
	},
	{
		from: "Киров", to: "Яранск", depart: "08:15", arrive: "12:40", price: 850,
		stops: []demoStop{
			{name: "Киров (автовокзал)", arrive: "08:15", depart: "08:15", priceFromStart: 0},
			{name: "Советск", arrive: "10:20", depart: "10:25", priceFromStart: 430},
			{name: "Яранск (автовокзал)", arrive: "12:40", depart: "12:40", priceFromStart: 850},
		},
	},
}

// seed inserts one demo account per role and the fixed timetable.
// It runs only against an empty users table so restarts never
// duplicate data. Demo passwords are stored through the same opaque
// credential column the application uses; swapping the verifier to
// bcrypt only changes what gets written here.
func seed(ctx context.Context, db *sql.DB) error {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return fmt.Errorf("count users: %w", err)
	}
	if n > 0 {
		return nil
	}

	users := []struct{ username, password, role, fullName, email, phone string }{
		{"passenger", "passenger", "PASSENGER", "Иван Петров", "ivan@example.com", "+7 912 000 01 01"},
		{"cashier", "cashier", "CASHIER", "Мария Смирнова", "kassa@example.com", "+7 912 000 02 02"},
		{"admin", "admin", "ADMIN", "Администратор", "admin@example.com", "+7 912 000 03 03"},
	}
	for _, u := range users {
		if _, err := db.ExecContext(ctx,
			`INSERT INTO users (username, password, role, full_name, email, phone) VALUES (?,?,?,?,?,?)`,
			u.username, u.password, u.role, u.fullName, u.email, u.phone); err != nil {
			return fmt.Errorf("seed user %s: %w", u.username, err)
		}
	}

	for _, t := range demoTrips {
		res, err := db.ExecContext(ctx,
			`INSERT INTO trips (from_city, to_city, departure_time, arrival_time, price) VALUES (?,?,?,?,?)`,
			t.from, t.to, t.depart, t.arrive, t.price)
		if err != nil {
			return fmt.Errorf("seed trip %s-%s: %w", t.from, t.to, err)
		}
		tripID, err := res.LastInsertId()
		if err != nil {
			return err
		}
		for _, s := range t.stops {
			if _, err := db.ExecContext(ctx,
				`INSERT INTO stops (trip_id, name, arrival_time, departure_time, price_from_start) VALUES (?,?,?,?,?)`,
				tripID, s.name, s.arrive, s.depart, s.priceFromStart); err != nil {
				return fmt.Errorf("seed stop %s: %w", s.name, err)
			}
		}
	}
	log.Printf("schema: seeded %d demo users and %d trips", len(users), len(demoTrips))
	return nil
}
