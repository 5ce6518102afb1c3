package etl

// ddl holds one statement per table; executed individually because the
// driver runs a single statement per Exec.
var ddl = []string{
	`CREATE TABLE IF NOT EXISTS pokemon_species (
		id INTEGER PRIMARY KEY,
		name TEXT,
		generation_id INTEGER,
		growth_rate TEXT,
		is_legendary INTEGER,
		is_mythical INTEGER,
		capture_rate INTEGER,
		base_happiness INTEGER,
		color TEXT,
		shape TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS pokemon (
		id INTEGER PRIMARY KEY,
		name TEXT,
		species_id INTEGER,
		base_experience INTEGER,
		is_default INTEGER,
		height INTEGER,
		weight INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS pokemon_types (
		pokemon_id INTEGER,
		type_name TEXT,
		slot INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS pokemon_stats (
		pokemon_id INTEGER,
		stat_name TEXT,
		base_stat INTEGER,
		effort INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS pokemon_abilities (
		pokemon_id INTEGER,
		ability_name TEXT,
		is_hidden INTEGER,
		slot INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS type (
		id INTEGER PRIMARY KEY,
		name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS type_relations (
		type_id INTEGER,
		target_type TEXT,
		damage_factor INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS move (
		id INTEGER PRIMARY KEY,
		name TEXT,
		accuracy INTEGER,
		pp INTEGER,
		priority INTEGER,
		power INTEGER,
		damage_class TEXT,
		generation_id INTEGER,
		type_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS ability (
		id INTEGER PRIMARY KEY,
		name TEXT,
		is_main_series INTEGER,
		generation_id INTEGER
	)`,
	`CREATE TABLE IF NOT EXISTS nature (
		id INTEGER PRIMARY KEY,
		name TEXT,
		increased_stat TEXT,
		decreased_stat TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS generation (
		id INTEGER PRIMARY KEY,
		name TEXT,
		main_region TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS item (
		id INTEGER PRIMARY KEY,
		name TEXT,
		cost INTEGER,
		category TEXT
	)`,
}
