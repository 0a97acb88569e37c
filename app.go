package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"cardledger/apiclients/gemini"
	"cardledger/apiclients/homefinder"
	"cardledger/apiclients/investeasy"
	"cardledger/category"
	"cardledger/config"
	"cardledger/db"
	"cardledger/ingest"
	"cardledger/internal/mounts"
	"cardledger/web"
)

// ingestWorkers caps concurrent PDF extractions during a bulk ingest.
const ingestWorkers = 4

// App is the central orchestrator for the application's business logic,
// coordinating configuration, storage, the extraction model and the web
// server.
type App struct{}

// NewApp creates and returns a new App instance.
func NewApp() *App {
	return &App{}
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
}

// openDB opens the configured database, mounting either the embedded sql
// files or the sql_path override directory.
func openDB(cfg *config.Config, logger *slog.Logger) (*db.DB, error) {
	sqlMount, err := mounts.NewFileMount("sql", db.SQLEmbeddedFS, cfg.SQLPath)
	if err != nil {
		return nil, fmt.Errorf("sql mount error: %w", err)
	}
	return db.NewConnection(cfg.DatabasePath, sqlMount, logger)
}

// newClassifier builds the category classifier, from the categories_path
// override when configured, otherwise from the embedded keyword table.
func newClassifier(cfg *config.Config) (*category.Classifier, error) {
	if cfg.CategoriesPath != "" {
		return category.NewClassifierFromFile(cfg.CategoriesPath)
	}
	return category.NewClassifier()
}

// Serve runs the web server until it fails or the context is cancelled. When
// a categories_path override is configured, its file is watched and the
// keyword table hot-reloaded.
func (a *App) Serve(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := newLogger()

	database, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	// Run without uploads rather than failing outright when the extraction
	// model is unavailable, for example with no API key in the environment.
	var extractor ingest.Extractor
	if ex, err := gemini.NewExtractor(ctx, cfg.Gemini.Model, logger); err != nil {
		logger.Warn("statement extraction disabled", "error", err)
	} else {
		extractor = ex
	}
	ingestor := ingest.NewIngestor(database, extractor, logger)

	var investEasy *investeasy.Client
	if cfg.InvestEasy.BaseURL != "" && cfg.InvestEasy.Token != "" {
		investEasy = investeasy.NewClient(ctx, cfg.InvestEasy.BaseURL, cfg.InvestEasy.Token, logger)
	}
	var homeFinder *homefinder.Client
	if cfg.HomeFinder.BaseURL != "" && cfg.HomeFinder.APIKey != "" {
		homeFinder = homefinder.NewClient(cfg.HomeFinder.BaseURL, cfg.HomeFinder.APIKey, nil, logger)
	}

	webApp, err := web.New(
		charmlog.New(os.Stderr), cfg, database, ingestor, classifier, investEasy, homeFinder,
	)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(webApp.StartServer)
	if cfg.CategoriesPath != "" {
		watcher, err := category.NewWatcher(classifier, logger)
		if err != nil {
			return err
		}
		g.Go(func() error {
			return watcher.Watch(ctx)
		})
	}
	return g.Wait()
}

// InitDB creates the database file and its schema. Initialisation is
// idempotent, so running against an existing database is harmless.
func (a *App) InitDB(ctx context.Context, cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	logger := newLogger()

	database, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	if err := database.Close(); err != nil {
		return err
	}
	logger.Info("database initialised", "path", cfg.DatabasePath)
	return nil
}

// Ingest extracts and stores the given statement PDFs for a tenant,
// processing a few files at a time. Re-ingesting a statement is idempotent.
func (a *App) Ingest(ctx context.Context, cfgPath, userID string, pdfPaths []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if userID == "" {
		userID = cfg.DefaultUserID
	}
	logger := newLogger()

	database, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	extractor, err := gemini.NewExtractor(ctx, cfg.Gemini.Model, logger)
	if err != nil {
		return fmt.Errorf("extraction model error: %w", err)
	}
	ingestor := ingest.NewIngestor(database, extractor, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(ingestWorkers)
	for _, pdfPath := range pdfPaths {
		g.Go(func() error {
			pdf, err := os.ReadFile(pdfPath)
			if err != nil {
				return fmt.Errorf("could not read %q: %w", pdfPath, err)
			}
			statementID, err := ingestor.IngestPDF(ctx, pdf, userID)
			if err != nil {
				return fmt.Errorf("ingestion of %q failed: %w", pdfPath, err)
			}
			logger.Info("statement ingested", "file", pdfPath, "statement_id", statementID)
			return nil
		})
	}
	return g.Wait()
}

// dashboardReport is the JSON shape printed by the dashboard command.
type dashboardReport struct {
	UserID     string                   `json:"user_id"`
	Totals     db.DashboardTotals       `json:"totals"`
	Categories []category.CategoryTotal `json:"categories"`
	Recent     []db.RecentTransaction   `json:"recent_transactions"`
	Trend      []db.TrendPoint          `json:"daily_trend"`
}

// Dashboard prints the dashboard aggregates for a tenant as indented JSON.
func (a *App) Dashboard(ctx context.Context, cfgPath, userID string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return err
	}
	if userID == "" {
		userID = cfg.DefaultUserID
	}
	logger := newLogger()

	database, err := openDB(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = database.Close()
	}()

	classifier, err := newClassifier(cfg)
	if err != nil {
		return err
	}

	totals, err := database.DashboardTotals(ctx, userID, cfg.ExcludePattern)
	if err != nil {
		return err
	}
	summaries, err := database.TransactionSummaries(ctx, userID, cfg.ExcludePattern)
	if err != nil {
		return err
	}
	recent, err := database.RecentTransactions(ctx, userID, cfg.ExcludePattern, cfg.Web.RecentLimit)
	if err != nil {
		return err
	}
	trend, err := database.DailyTrend(ctx, userID, cfg.ExcludePattern)
	if err != nil {
		return err
	}

	spends := make([]category.Spend, len(summaries))
	for i, s := range summaries {
		spends[i] = category.Spend{Description: s.Description, Amount: s.Amount}
	}

	report := dashboardReport{
		UserID:     userID,
		Totals:     totals,
		Categories: classifier.Breakdown(spends),
		Recent:     recent,
		Trend:      trend,
	}
	output, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// ExportSQL writes the embedded sql files to destDir/sql so they can be
// customised and pointed at with the sql_path config option.
func (a *App) ExportSQL(ctx context.Context, destDir string) error {
	sqlMount, err := mounts.NewFileMount("sql", db.SQLEmbeddedFS, "")
	if err != nil {
		return err
	}
	if err := sqlMount.Materialize(destDir); err != nil {
		return err
	}
	newLogger().Info("sql files exported", "dest", destDir)
	return nil
}
