package app

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/SystemDev-coder/Erp-Inventory-sub002/internal/importer"
	"github.com/SystemDev-coder/Erp-Inventory-sub002/migrations"
)

func TestCustomerImportAgainstPostgres(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	branchID := seedBranch(t, ctx, env.pool, "Main")

	if _, err := env.pool.Exec(ctx, `INSERT INTO customers (branch_id, full_name, phone) VALUES ($1, 'Existing', '0615 000 001')`, branchID); err != nil {
		t.Fatalf("seed customer: %v", err)
	}

	file := "full_name,phone,customer_type,remaining_balance\n" +
		"Ada,0615 000 002,retail,10.50\n" +
		"Ada Twin, 0615  000 002,,\n" +
		"Known,0615 000 001,,\n" +
		",0615 000 003,,\n" +
		"Bad Balance,0615 000 004,,-4\n"

	status, summary := postImport(t, env.router, "/api/imports/customers?mode=preview", branchID, "customers.csv", file)
	if status != http.StatusOK {
		t.Fatalf("expected preview 200, got %d", status)
	}
	if summary.ValidCount != 1 || summary.InsertedCount != 0 || summary.SkippedCount != 2 || summary.FailedCount != 2 {
		t.Fatalf("unexpected preview summary: %+v", summary)
	}
	assertCustomerCount(t, ctx, env.pool, branchID, 1)

	status, summary = postImport(t, env.router, "/api/imports/customers?mode=import", branchID, "customers.csv", file)
	if status != http.StatusOK {
		t.Fatalf("expected import 200, got %d", status)
	}
	if summary.InsertedCount != 1 || summary.SkippedCount != 2 || summary.FailedCount != 2 {
		t.Fatalf("unexpected import summary: %+v", summary)
	}
	assertCustomerCount(t, ctx, env.pool, branchID, 2)

	var audited int
	if err := env.pool.QueryRow(ctx, `SELECT inserted_count FROM import_audit_log WHERE branch_id = $1`, branchID).Scan(&audited); err != nil {
		t.Fatalf("read audit log: %v", err)
	}
	if audited != 1 {
		t.Fatalf("expected audit inserted_count 1, got %d", audited)
	}

	status, summary = postImport(t, env.router, "/api/imports/customers?mode=import", branchID, "customers.csv", file)
	if status != http.StatusOK || summary.InsertedCount != 0 || summary.SkippedCount != 3 {
		t.Fatalf("expected re-import to skip every valid row, got %d %+v", status, summary)
	}
}

func TestItemImportCreatesDefaultCategoryAndStock(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	branchID := seedBranch(t, ctx, env.pool, "Main")
	otherBranch := seedBranch(t, ctx, env.pool, "Other")

	var storeID, foreignStore int64
	if err := env.pool.QueryRow(ctx, `INSERT INTO stores (branch_id, name) VALUES ($1, 'Front') RETURNING id`, branchID).Scan(&storeID); err != nil {
		t.Fatalf("seed store: %v", err)
	}
	if err := env.pool.QueryRow(ctx, `INSERT INTO stores (branch_id, name) VALUES ($1, 'Far') RETURNING id`, otherBranch).Scan(&foreignStore); err != nil {
		t.Fatalf("seed foreign store: %v", err)
	}

	file := "name,barcode,quantity,store_id\n" +
		"Rice 5kg,RC5,12.5," + itoa(storeID) + "\n" +
		"Oil 1L,OL1,3," + itoa(foreignStore) + "\n"

	status, summary := postImport(t, env.router, "/api/imports/items?mode=import", branchID, "items.csv", file)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	if summary.InsertedCount != 1 || summary.FailedCount != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}

	var quantity string
	if err := env.pool.QueryRow(ctx, `
		SELECT sq.quantity::text FROM store_quantities sq
		JOIN items i ON i.id = sq.item_id
		WHERE i.branch_id = $1 AND sq.store_id = $2`, branchID, storeID).Scan(&quantity); err != nil {
		t.Fatalf("read store quantity: %v", err)
	}
	if quantity != "12.500" {
		t.Fatalf("expected store quantity 12.500, got %s", quantity)
	}

	var categories int
	if err := env.pool.QueryRow(ctx, `SELECT COUNT(*) FROM categories WHERE branch_id = $1`, branchID).Scan(&categories); err != nil {
		t.Fatalf("count categories: %v", err)
	}
	if categories != 1 {
		t.Fatalf("expected one default category, got %d", categories)
	}
}

type testEnv struct {
	pool   *pgxpool.Pool
	router http.Handler
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		t.Fatalf("connect test db: %v", err)
	}
	t.Cleanup(pool.Close)

	resetSchema(t, ctx, pool, databaseURL)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig()
	cfg.DatabaseURL = databaseURL
	cfg.ImportRateLimit = 100

	router, err := NewRouter(cfg, pool, logger)
	if err != nil {
		t.Fatalf("create router: %v", err)
	}
	return testEnv{pool: pool, router: router}
}

func resetSchema(t *testing.T, ctx context.Context, pool *pgxpool.Pool, databaseURL string) {
	t.Helper()

	if _, err := pool.Exec(ctx, `DROP SCHEMA public CASCADE; CREATE SCHEMA public;`); err != nil {
		t.Fatalf("drop schema: %v", err)
	}

	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		t.Fatalf("open migration db: %v", err)
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		t.Fatalf("set goose dialect: %v", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
}

func seedBranch(t *testing.T, ctx context.Context, pool *pgxpool.Pool, name string) int64 {
	t.Helper()
	var id int64
	if err := pool.QueryRow(ctx, `INSERT INTO branches (name) VALUES ($1) RETURNING id`, name).Scan(&id); err != nil {
		t.Fatalf("seed branch: %v", err)
	}
	return id
}

func assertCustomerCount(t *testing.T, ctx context.Context, pool *pgxpool.Pool, branchID int64, want int) {
	t.Helper()
	var got int
	if err := pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE branch_id = $1`, branchID).Scan(&got); err != nil {
		t.Fatalf("count customers: %v", err)
	}
	if got != want {
		t.Fatalf("expected %d customers, got %d", want, got)
	}
}

func postImport(t *testing.T, router http.Handler, target string, branchID int64, filename, content string) (int, importer.ImportSummary) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = part.Write([]byte(content))
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.RemoteAddr = "127.0.0.1:12345"
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Branch-Id", itoa(branchID))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var summary importer.ImportSummary
	if rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), &summary); err != nil {
			t.Fatalf("decode summary: %v", err)
		}
	}
	return rec.Code, summary
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
