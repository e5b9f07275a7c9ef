package store

const schemaSQLite = `
CREATE TABLE IF NOT EXISTS restaurants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	name          TEXT NOT NULL,
	UNIQUE (name, restaurant_id)
);

CREATE TABLE IF NOT EXISTS menu_items (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	category_id   TEXT NOT NULL REFERENCES categories(id),
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	price         TEXT NOT NULL,
	image_url     TEXT NOT NULL DEFAULT '',
	is_active     INTEGER NOT NULL DEFAULT 1,
	created_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	table_number  TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_restaurant ON orders(restaurant_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
	id           TEXT PRIMARY KEY,
	order_id     TEXT NOT NULL REFERENCES orders(id),
	menu_item_id TEXT NOT NULL REFERENCES menu_items(id),
	qty          INTEGER NOT NULL,
	price        TEXT NOT NULL,
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS printer_configs (
	restaurant_id TEXT PRIMARY KEY REFERENCES restaurants(id),
	host          TEXT NOT NULL DEFAULT '',
	port          INTEGER NOT NULL DEFAULT 0,
	updated_at    TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	restaurant_id      TEXT PRIMARY KEY REFERENCES restaurants(id),
	status             TEXT NOT NULL,
	trial_ends_at      TIMESTAMP NOT NULL,
	current_period_end TIMESTAMP,
	provider_ref       TEXT NOT NULL DEFAULT '',
	updated_at         TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS outbox (
	id            TEXT PRIMARY KEY,
	topic         TEXT NOT NULL,
	payload       BLOB NOT NULL,
	msg_type      TEXT NOT NULL,
	restaurant_id TEXT NOT NULL,
	attempts      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMP NOT NULL,
	sent_at       TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at, created_at);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS restaurants (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	slug       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS categories (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	name          TEXT NOT NULL,
	UNIQUE (name, restaurant_id)
);

CREATE TABLE IF NOT EXISTS menu_items (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	category_id   TEXT NOT NULL REFERENCES categories(id),
	name          TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	price         NUMERIC(12,2) NOT NULL,
	image_url     TEXT NOT NULL DEFAULT '',
	is_active     BOOLEAN NOT NULL DEFAULT TRUE,
	created_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS orders (
	id            TEXT PRIMARY KEY,
	restaurant_id TEXT NOT NULL REFERENCES restaurants(id),
	table_number  TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_orders_restaurant ON orders(restaurant_id, created_at);

CREATE TABLE IF NOT EXISTS order_items (
	id           TEXT PRIMARY KEY,
	order_id     TEXT NOT NULL REFERENCES orders(id),
	menu_item_id TEXT NOT NULL REFERENCES menu_items(id),
	qty          INTEGER NOT NULL,
	price        NUMERIC(12,2) NOT NULL,
	position     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS printer_configs (
	restaurant_id TEXT PRIMARY KEY REFERENCES restaurants(id),
	host          TEXT NOT NULL DEFAULT '',
	port          INTEGER NOT NULL DEFAULT 0,
	updated_at    TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS subscriptions (
	restaurant_id      TEXT PRIMARY KEY REFERENCES restaurants(id),
	status             TEXT NOT NULL,
	trial_ends_at      TIMESTAMPTZ NOT NULL,
	current_period_end TIMESTAMPTZ,
	provider_ref       TEXT NOT NULL DEFAULT '',
	updated_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS outbox (
	id            TEXT PRIMARY KEY,
	topic         TEXT NOT NULL,
	payload       BYTEA NOT NULL,
	msg_type      TEXT NOT NULL,
	restaurant_id TEXT NOT NULL,
	attempts      INTEGER NOT NULL DEFAULT 0,
	created_at    TIMESTAMPTZ NOT NULL,
	sent_at       TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS idx_outbox_pending ON outbox(sent_at, created_at);
`
