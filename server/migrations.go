package server

// migrate creates the schema. DDL differs between backends only in the
// primary-key idiom, so each table has a per-driver variant.
func (s *Server) migrate() error {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == "postgres" {
		serial = "SERIAL PRIMARY KEY"
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id ` + serial + `,
			username VARCHAR(255) UNIQUE NOT NULL,
			email VARCHAR(255) DEFAULT '',
			password_hash VARCHAR(255) NOT NULL,
			role VARCHAR(10) NOT NULL DEFAULT 'user',
			manager_id INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS projets (
			id ` + serial + `,
			nom VARCHAR(255) NOT NULL,
			description TEXT DEFAULT '',
			manager_id INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS projet_users (
			projet_id INTEGER NOT NULL,
			user_id INTEGER NOT NULL,
			UNIQUE(projet_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS saisie_temps (
			id ` + serial + `,
			user_id INTEGER NOT NULL,
			projet_id INTEGER NOT NULL,
			date VARCHAR(10) NOT NULL,
			temps REAL NOT NULL,
			description TEXT DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_saisie_user_date ON saisie_temps(user_id, date)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return err
		}
	}
	return nil
}
