package store

import "github.com/jmoiron/sqlx"

// migrate runs all database migrations
func migrate(db *sqlx.DB) error {
	migrations := []string{
		// Nightly sleep, durations in seconds
		`CREATE TABLE IF NOT EXISTS sleep (
			day TEXT PRIMARY KEY,
			total_sleep INTEGER,
			deep_sleep INTEGER,
			light_sleep INTEGER,
			rem_sleep INTEGER,
			awake INTEGER,
			score INTEGER
		)`,

		// Stress samples (device scale 0-100, <= 0 = no reading)
		`CREATE TABLE IF NOT EXISTS stress (
			timestamp TEXT PRIMARY KEY,
			stress INTEGER
		)`,

		// Monitoring heart rate samples
		`CREATE TABLE IF NOT EXISTS heart_rate (
			timestamp TEXT PRIMARY KEY,
			heart_rate INTEGER NOT NULL
		)`,

		// Activities, times in seconds and distance in km
		`CREATE TABLE IF NOT EXISTS activities (
			activity_id TEXT PRIMARY KEY,
			name TEXT,
			sport TEXT,
			start_time TEXT NOT NULL,
			elapsed_time INTEGER,
			moving_time INTEGER,
			distance REAL,
			calories INTEGER,
			avg_hr INTEGER,
			max_hr INTEGER,
			training_effect REAL,
			anaerobic_training_effect REAL,
			training_load REAL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_activities_start_time ON activities(start_time)`,

		// Daily summaries
		`CREATE TABLE IF NOT EXISTS daily_summary (
			day TEXT PRIMARY KEY,
			rhr INTEGER,
			stress_avg INTEGER,
			bb_max INTEGER,
			bb_min INTEGER,
			bb_charged INTEGER,
			steps INTEGER,
			floors INTEGER,
			distance REAL,
			calories_active INTEGER,
			calories_total INTEGER,
			sleep_avg INTEGER,
			intensity_time INTEGER
		)`,

		// Bookkeeping for data imports
		`CREATE TABLE IF NOT EXISTS import_state (
			key TEXT PRIMARY KEY,
			value TEXT,
			updated_at TEXT
		)`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return err
		}
	}

	return nil
}
