package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	_ "github.com/go-sql-driver/mysql"
)

// SetupTestDB opens the test database, skipping the test when MySQL is
// not reachable. Expects a database named 'comanda_test' on localhost.
func SetupTestDB(t *testing.T) *sql.DB {
	dsn := "root:@tcp(localhost:3306)/comanda_test?parseTime=true"
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("test database not available: %v", err)
	}

	return db
}

// CleanupTestDB empties the test tables and closes the connection.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	if db == nil {
		return
	}

	tables := []string{"order_lines", "orders", "order_counters", "menu_items", "restaurant_tables", "restaurants"}
	for _, table := range tables {
		if _, err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}

	db.Close()
}

// SetupTestTables creates the schema used by the repository tests.
func SetupTestTables(t *testing.T, db *sql.DB) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS restaurants (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			owner_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_restaurants_owner (owner_id)
		)`,
		`CREATE TABLE IF NOT EXISTS restaurant_tables (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			restaurant_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(100) NOT NULL,
			capacity INT NOT NULL DEFAULT 4,
			occupied TINYINT(1) NOT NULL DEFAULT 0,
			active TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_tables_restaurant_name (restaurant_id, name)
		)`,
		`CREATE TABLE IF NOT EXISTS menu_items (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			restaurant_id BIGINT UNSIGNED NOT NULL,
			name VARCHAR(255) NOT NULL,
			category VARCHAR(100) NOT NULL DEFAULT '',
			price DECIMAL(10,2) NOT NULL,
			available TINYINT(1) NOT NULL DEFAULT 1,
			created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS orders (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			order_number VARCHAR(32) NOT NULL,
			restaurant_id BIGINT UNSIGNED NOT NULL,
			table_id BIGINT UNSIGNED NOT NULL,
			active_table_id BIGINT UNSIGNED NULL,
			customer_name VARCHAR(255) NULL,
			customer_phone VARCHAR(32) NULL,
			status VARCHAR(20) NOT NULL,
			notes TEXT,
			total_amount DECIMAL(12,2) NOT NULL DEFAULT 0,
			total_item_count INT NOT NULL DEFAULT 0,
			created_at DATETIME(6) NOT NULL,
			completed_at DATETIME(6) NULL,
			UNIQUE KEY uq_orders_number (order_number),
			UNIQUE KEY uq_orders_active_table (active_table_id),
			KEY idx_orders_restaurant_completed (restaurant_id, status, completed_at)
		)`,
		`CREATE TABLE IF NOT EXISTS order_lines (
			id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			order_id BIGINT UNSIGNED NOT NULL,
			menu_item_id BIGINT UNSIGNED NOT NULL,
			name_snapshot VARCHAR(255) NOT NULL,
			unit_price_snapshot DECIMAL(10,2) NOT NULL,
			category_snapshot VARCHAR(100) NOT NULL DEFAULT '',
			quantity INT NOT NULL,
			subtotal DECIMAL(12,2) NOT NULL,
			UNIQUE KEY uq_lines_order_item (order_id, menu_item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS order_counters (
			day_key CHAR(6) NOT NULL PRIMARY KEY,
			seq INT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("failed to create test table: %v", err)
		}
	}
}
