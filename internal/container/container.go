package container

import (
	"fmt"
	"net/http"

	"claimsift/adapters/classifiers/forest"
	"claimsift/adapters/classifiers/logistic"
	"claimsift/adapters/excel"
	"claimsift/adapters/feed"
	"claimsift/adapters/memory"
	"claimsift/adapters/postgres"
	"claimsift/adapters/rng"
	"claimsift/adapters/stats/senses"
	"claimsift/app"
	"claimsift/internal"
	"claimsift/internal/api"
	"claimsift/internal/config"
	harness "claimsift/internal/evaluation"
	"claimsift/internal/features"
	"claimsift/internal/split"
	"claimsift/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB  *sqlx.DB
	RNG ports.RNGPort

	// Repositories (data access layer)
	RunRepo ports.RunRepository

	// Pipeline components
	Encoder   *features.Encoder
	Splitter  *split.Splitter
	Families  []harness.Family
	Selection *app.SelectionService
}

// New wires the pipeline from cfg. Persistence is in-memory until
// InitWithDatabase is called.
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	c := &Container{
		Config:  cfg,
		Logger:  internal.OrDefault(logger),
		RNG:     rng.New(),
		RunRepo: memory.NewRunRepository(),
	}

	families, err := c.buildFamilies()
	if err != nil {
		return nil, err
	}
	c.Families = families
	c.Encoder = features.NewEncoder(
		features.WithFaultMatch(features.FaultMatchMode(cfg.Pipeline.FaultMatch)),
		features.WithLogger(c.Logger),
	)
	c.Splitter = split.NewSplitter(c.RNG, c.Logger)
	c.initSelection()
	return c, nil
}

// InitWithDatabase switches run persistence to PostgreSQL
func (c *Container) InitWithDatabase(db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	c.DB = db
	c.RunRepo = postgres.NewRunRepository(db)
	c.initSelection()
	c.Logger.Info("Container initialized with database connection")
	return nil
}

// ConnectDatabase opens DATABASE_URL when configured; it is a no-op otherwise
func (c *Container) ConnectDatabase() error {
	if c.Config.Database.URL == "" {
		c.Logger.Debug("DATABASE_URL not set; runs are kept in memory")
		return nil
	}
	db, err := sqlx.Connect("postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	return c.InitWithDatabase(db)
}

// Close releases the database connection
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// buildFamilies registers the shipped classifier families and applies GRID_FILE overrides
func (c *Container) buildFamilies() ([]harness.Family, error) {
	families := []harness.Family{
		{Grid: harness.LogisticGrid(), Factory: logistic.Factory},
		{Grid: harness.ForestGrid(), Factory: forest.NewFactory(c.Config.Pipeline.ForestSeed, forest.WithRNG(c.RNG))},
	}
	if c.Config.Pipeline.GridFile == "" {
		return families, nil
	}
	overrides, err := harness.LoadGrids(c.Config.Pipeline.GridFile)
	if err != nil {
		return nil, err
	}
	c.Logger.Info("Loaded %d grid overrides from %s", len(overrides), c.Config.Pipeline.GridFile)
	return harness.ApplyGrids(families, overrides), nil
}

func (c *Container) initSelection() {
	c.Selection = app.NewSelectionService(c.Encoder, c.Splitter, c.Families,
		app.WithRepository(c.RunRepo),
		app.WithScreener(senses.NewSenseEngine()),
		app.WithGridParallelism(c.Config.Pipeline.GridParallelism),
		app.WithServiceLogger(c.Logger),
	)
}

// RunOptions returns the configured run defaults
func (c *Container) RunOptions() app.RunOptions {
	p := c.Config.Pipeline
	return app.RunOptions{
		Source:  c.Config.Data.File,
		FitMode: p.FitMode,
		Split:   split.Options{TestRatio: p.TestRatio, Seed: p.SplitSeed},
		Folds:   p.Folds,
	}
}

// OpenReader opens a claim source with the container's logger: a JSON feed
// for http(s) URLs, a CSV/XLSX file otherwise
func (c *Container) OpenReader(path string) ports.RecordReader {
	if feed.IsFeedURL(path) {
		f := c.Config.Data.Feed
		return feed.NewReader(path,
			feed.WithDataPath(f.DataPath),
			feed.WithPageSize(f.PageSize),
			feed.WithMaxPages(f.MaxPages),
			feed.WithToken(f.Token),
			feed.WithHTTPClient(&http.Client{Timeout: f.Timeout}),
			feed.WithLogger(c.Logger),
		)
	}
	return excel.NewClaimReader(path, c.Logger)
}

// APIServer builds the HTTP server over the container's services
func (c *Container) APIServer() *api.Server {
	return api.NewServer(
		api.Config{DataFile: c.Config.Data.File, Defaults: c.RunOptions()},
		c.Selection, c.RunRepo, c.OpenReader, c.Logger,
	)
}
