package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DB_DSN")
	if dsn == "" {
		log.Fatal("DB_DSN environment variable is required")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get DB: %v", err)
	}

	stmts := []struct {
		table string
		sql   string
	}{
		{"products", `
	CREATE TABLE IF NOT EXISTS products (
	  id CHAR(36) NOT NULL,
	  title VARCHAR(255) NOT NULL,
	  slug VARCHAR(255) NOT NULL,
	  price_irr BIGINT NOT NULL,
	  active TINYINT(1) NOT NULL DEFAULT 1,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  updated_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  UNIQUE KEY ux_products_slug (slug),
	  KEY ix_products_active (active)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"orders", `
	CREATE TABLE IF NOT EXISTS orders (
	  id CHAR(36) NOT NULL,
	  status VARCHAR(32) NOT NULL,
	  currency CHAR(3) NOT NULL DEFAULT 'IRR',
	  total_irr BIGINT NOT NULL,
	  paid_at DATETIME(3) NULL,
	  payment_provider VARCHAR(50) NOT NULL DEFAULT '',
	  payment_session_id VARCHAR(255) NOT NULL DEFAULT '',
	  payment_ref_id VARCHAR(64) NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_orders_status (status),
	  KEY ix_orders_payment_session_id (payment_session_id)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"order_items", `
	CREATE TABLE IF NOT EXISTS order_items (
	  id CHAR(36) NOT NULL,
	  order_id CHAR(36) NOT NULL,
	  product_id CHAR(36) NOT NULL,
	  title VARCHAR(255) NOT NULL,
	  quantity INT NOT NULL,
	  unit_price_irr BIGINT NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_order_items_order_id (order_id),
	  CONSTRAINT fk_order_items_order FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE,
	  CONSTRAINT fk_order_items_product FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
		{"payment_attempts", `
	CREATE TABLE IF NOT EXISTS payment_attempts (
	  id BIGINT UNSIGNED NOT NULL AUTO_INCREMENT,
	  order_id CHAR(36) NOT NULL,
	  stage VARCHAR(16) NOT NULL,
	  code INT NULL,
	  authority VARCHAR(255) NOT NULL DEFAULT '',
	  ref_id VARCHAR(64) NULL,
	  raw JSON NOT NULL,
	  created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
	  PRIMARY KEY (id),
	  KEY ix_payment_attempts_order_id (order_id),
	  KEY ix_payment_attempts_stage_authority (stage, authority)
	) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`},
	}

	for _, st := range stmts {
		if _, err := sqlDB.Exec(st.sql); err != nil {
			log.Fatalf("Failed to create %s table: %v", st.table, err)
		}
		log.Printf("✓ %s table created successfully", st.table)
	}
}
