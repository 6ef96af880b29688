package pricing

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

// Credentials for the promo rules database.
type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// PostgresResolver serves promo rules from a postgres table. Rules are held
// in an in-memory map refreshed on an interval, keeping Resolve itself free
// of I/O so the pricing engine stays pure.
type PostgresResolver struct {
	db *sql.DB

	mu    sync.RWMutex
	rules map[string]Rule

	refreshTick time.Duration
	stopRefresh chan struct{}
	wg          sync.WaitGroup
}

func NewPostgresResolver(cred *Credentials) (*PostgresResolver, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)

	r := &PostgresResolver{
		db:          db,
		rules:       make(map[string]Rule),
		refreshTick: time.Minute,
		stopRefresh: make(chan struct{}),
	}
	return r, nil
}

// RunMigrations brings the promo_rules table up to date.
func (r *PostgresResolver) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// Start loads the rules once and begins the background refresh loop.
func (r *PostgresResolver) Start(ctx context.Context) error {
	if err := r.Refresh(ctx); err != nil {
		return err
	}

	r.wg.Add(1)
	go r.refreshLoop()
	return nil
}

func (r *PostgresResolver) refreshLoop() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.refreshTick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := r.Refresh(ctx); err != nil {
				log.Printf("promo rules refresh failed: %v", err)
			}
			cancel()
		case <-r.stopRefresh:
			return
		}
	}
}

// Refresh replaces the in-memory rule set with the current table contents.
func (r *PostgresResolver) Refresh(ctx context.Context) error {
	rows, err := r.db.QueryContext(ctx, `SELECT code, percent_off FROM promo_rules`)
	if err != nil {
		return fmt.Errorf("failed to query promo rules: %w", err)
	}
	defer rows.Close()

	fresh := make(map[string]Rule)
	for rows.Next() {
		var rule Rule
		if err := rows.Scan(&rule.Code, &rule.PercentOff); err != nil {
			return fmt.Errorf("failed to scan promo rule: %w", err)
		}
		fresh[rule.Code] = rule
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read promo rules: %w", err)
	}

	r.mu.Lock()
	r.rules = fresh
	r.mu.Unlock()
	return nil
}

func (r *PostgresResolver) Resolve(code string) (Rule, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rule, ok := r.rules[code]
	return rule, ok
}

// Close stops the refresh loop and closes the database.
func (r *PostgresResolver) Close() error {
	close(r.stopRefresh)
	r.wg.Wait()
	return r.db.Close()
}
