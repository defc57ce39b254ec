package crawler

import (
	"context"
	"io/fs"
	"log"
	"path/filepath"
	"sync"
	"time"

	"docsort/internal/adapters/filesystem"
	"docsort/internal/config"
	"docsort/internal/domain"
	"docsort/internal/ports"
)

// State is the crawl lifecycle state.
type State string

const (
	StateIdle     State = "idle"
	StateRunning  State = "running"
	StateStopping State = "stopping"
)

// Status is a point-in-time view of the crawler.
type Status struct {
	Running       bool               `json:"running"`
	StopRequested bool               `json:"stop_requested"`
	CurrentPath   string             `json:"current_path,omitempty"`
	StartedAt     time.Time          `json:"started_at,omitzero"`
	FinishedAt    time.Time          `json:"finished_at,omitzero"`
	Error         string             `json:"error,omitempty"`
	Stats         *domain.CrawlStats `json:"stats,omitempty"`
}

// Crawler walks the configured shares, dedups by content digest and sorts
// winning files into the central tree. One crawl runs at a time; Stop is
// cooperative and takes effect between files.
type Crawler struct {
	cfg      *config.Config
	index    ports.HashIndex
	resolver *Resolver

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc

	statusMu sync.RWMutex
	status   Status

	// cache mirrors the persisted index during a run. Writes go through
	// the store first so a crash never loses an acknowledged entry.
	cache map[string]domain.ContentRecord
}

// New creates an idle crawler.
func New(cfg *config.Config, index ports.HashIndex) *Crawler {
	return &Crawler{
		cfg:      cfg,
		index:    index,
		resolver: NewResolver(cfg.CentralBase),
		state:    StateIdle,
	}
}

// Start launches a crawl in the background. A second start while one is
// active returns domain.ErrCrawlRunning.
func (c *Crawler) Start(ctx context.Context) error {
	if err := c.cfg.ValidateCrawl(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.state != StateIdle {
		c.mu.Unlock()
		return domain.ErrCrawlRunning
	}
	c.state = StateRunning
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.mu.Unlock()

	c.setStatus(func(s *Status) {
		*s = Status{Running: true, StartedAt: time.Now(), Stats: domain.NewCrawlStats()}
	})

	go c.run(runCtx)
	return nil
}

// Stop requests a cooperative stop. Returns domain.ErrCrawlNotRunning when
// idle.
func (c *Crawler) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateRunning {
		return domain.ErrCrawlNotRunning
	}
	c.state = StateStopping
	c.cancel()
	c.setStatus(func(s *Status) { s.StopRequested = true })
	return nil
}

// IsRunning reports whether a crawl is active or stopping.
func (c *Crawler) IsRunning() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state != StateIdle
}

// Status returns a copy of the current status with cloned stats.
func (c *Crawler) Status() Status {
	c.statusMu.RLock()
	defer c.statusMu.RUnlock()
	status := c.status
	if status.Stats != nil {
		status.Stats = status.Stats.Clone()
	}
	return status
}

// RunOnce executes a full crawl synchronously. It is the body Start runs in
// the background and what the CLI uses directly.
func (c *Crawler) RunOnce(ctx context.Context) error {
	cache, err := c.index.Load()
	if err != nil {
		return err
	}
	c.cache = cache

	// Counters cover exactly one run.
	c.setStatus(func(s *Status) { s.Stats = domain.NewCrawlStats() })

	for _, share := range c.cfg.Shares {
		if ctx.Err() != nil {
			break
		}
		c.walkShare(ctx, share)
	}
	return nil
}

func (c *Crawler) run(ctx context.Context) {
	err := c.RunOnce(ctx)

	c.mu.Lock()
	c.state = StateIdle
	c.cancel = nil
	c.mu.Unlock()

	c.setStatus(func(s *Status) {
		s.Running = false
		s.StopRequested = false
		s.CurrentPath = ""
		s.FinishedAt = time.Now()
		if err != nil {
			s.Error = err.Error()
		}
	})
	if err != nil {
		log.Printf("crawl failed: %v", err)
	}
}

func (c *Crawler) walkShare(ctx context.Context, share string) {
	err := filepath.WalkDir(share, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}
		if err != nil {
			c.recordError(path, err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			// Quarantined files never re-enter the pipeline.
			if d.Name() == domain.QuarantineFolder {
				return fs.SkipDir
			}
			return nil
		}

		c.setStatus(func(s *Status) { s.CurrentPath = path })
		if err := c.processFile(path, d); err != nil {
			c.recordError(path, err)
		}
		return nil
	})
	if err != nil && err != fs.SkipAll {
		c.recordError(share, err)
	}
}

// processFile dedups and sorts one observed file. Per-file failures are
// counted and logged, never fatal to the crawl.
func (c *Crawler) processFile(path string, d fs.DirEntry) error {
	info, err := d.Info()
	if err != nil {
		return err
	}

	customer := domain.CustomerRoot(path, c.cfg.InternalRoots)
	subfolder := domain.Subfolder(path)

	digest, err := filesystem.DigestFile(path)
	if err != nil {
		return err
	}
	c.setStatus(func(s *Status) { s.Stats.RecordProcessed(customer, subfolder) })

	existing, seen := c.cache[digest]
	if !seen {
		return c.placePrimary(path, digest, info.Size(), info.ModTime(), customer, subfolder)
	}

	resolution, err := c.resolver.Resolve(existing, path, info.Size(), info.ModTime(), customer)
	if err != nil {
		return err
	}
	// Either the new copy or the displaced primary ends up quarantined, so
	// both outcomes count as a duplicate.
	c.setStatus(func(s *Status) { s.Stats.RecordDuplicate(customer, subfolder) })
	if !resolution.NewIsPrimary {
		return nil
	}
	return c.placePrimary(path, digest, info.Size(), info.ModTime(), customer, subfolder)
}

// placePrimary moves the file into the central tree and records it in the
// index, store first.
func (c *Crawler) placePrimary(path, digest string, size int64, mtime time.Time, customer, subfolder string) error {
	targetDir := domain.TargetDir(c.cfg.CentralBase, customer, subfolder,
		c.cfg.Sorting.EnableYearSubfolders, c.cfg.Sorting.YearFoldersUnder, mtime)

	moved, err := filesystem.MoveFile(path, filepath.Join(targetDir, filepath.Base(path)))
	if err != nil {
		return err
	}

	record := domain.ContentRecord{
		Digest:       digest,
		Path:         moved,
		Size:         size,
		MTime:        mtime,
		CustomerRoot: customer,
	}
	if err := c.index.Put(record); err != nil {
		return err
	}
	c.cache[digest] = record

	c.setStatus(func(s *Status) { s.Stats.RecordMoved() })
	return nil
}

func (c *Crawler) recordError(path string, err error) {
	log.Printf("crawl: %s: %v", path, err)
	c.setStatus(func(s *Status) {
		if s.Stats != nil {
			s.Stats.RecordError()
		}
	})
}

func (c *Crawler) setStatus(fn func(*Status)) {
	c.statusMu.Lock()
	defer c.statusMu.Unlock()
	if c.status.Stats == nil {
		c.status.Stats = domain.NewCrawlStats()
	}
	fn(&c.status)
}
