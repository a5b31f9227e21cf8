package main

import (
	"log"
	"math/rand"
	"sort"
	"sync"
	"time"

	"regionquad/quadtree"
)

// Config holds the scene and server settings.
type Config struct {
	Addr      string
	StaticDir string
	Width     float64
	Height    float64
	Dots      int
	Capacity  int
	Seed      int64
}

func (c Config) World() quadtree.Rect {
	return quadtree.NewRect(0, 0, c.Width, c.Height)
}

// DefaultLine is the cast shown when a request names no line.
func (c Config) DefaultLine() quadtree.Line {
	return quadtree.NewLine(10, 10, c.Width/2-10, c.Height-10)
}

// QueryStats tracks statistics about the casts served
type QueryStats struct {
	TotalQueries     int
	TotalLeavesFound int
	AvgQueryTime     time.Duration
	AvgLeavesPerCast float64
}

// Scene owns the sample points. Every cast builds its own tree from them,
// so trees are never shared between requests.
type Scene struct {
	cfg Config

	mu     sync.RWMutex
	points []quadtree.Point
	seed   int64

	stats   QueryStats
	statsMu sync.Mutex
}

// Leaf is a leaf crossed by a cast together with the edge crossings.
type Leaf struct {
	Bounds quadtree.Rect
	Points []quadtree.Point
	Hits   []quadtree.Point
}

// CastResult is what one cast against a freshly built tree returns.
type CastResult struct {
	Line      quadtree.Line
	Bounds    []quadtree.Rect
	Positions []quadtree.Point
	Leaves    []Leaf
	Depth     int
	Rejected  int
	Elapsed   time.Duration
}

func NewScene(cfg Config) *Scene {
	s := &Scene{cfg: cfg}
	s.Reseed(cfg.Seed)
	return s
}

// Reseed replaces the sample points. A zero seed picks one from the clock.
func (s *Scene) Reseed(seed int64) int64 {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	points := make([]quadtree.Point, s.cfg.Dots)
	for i := range points {
		points[i] = quadtree.Point{X: r.Float64() * s.cfg.Width, Y: r.Float64() * s.cfg.Height}
	}

	s.mu.Lock()
	s.points = points
	s.seed = seed
	s.mu.Unlock()
	return seed
}

func (s *Scene) Seed() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.seed
}

func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points)
}

// Cast builds a tree over the current points and returns its contents and
// the leaves crossed by l.
func (s *Scene) Cast(l quadtree.Line) CastResult {
	start := time.Now()

	s.mu.RLock()
	qt, err := quadtree.FromPoints(s.points, s.cfg.World(), s.cfg.Capacity)
	total := len(s.points)
	s.mu.RUnlock()

	res := CastResult{Line: l, Positions: qt.Positions(), Depth: qt.Depth()}
	if err != nil {
		res.Rejected = total - qt.Len()
		log.Printf("Dropped %d of %d points while building tree: %v", res.Rejected, total, err)
	}

	res.Bounds = qt.LeafBounds()
	sort.SliceStable(res.Bounds, func(i, j int) bool {
		return res.Bounds[i].Area() > res.Bounds[j].Area()
	})

	for _, leaf := range qt.IntersectingLeaves(l) {
		res.Leaves = append(res.Leaves, Leaf{
			Bounds: leaf.Bounds(),
			Points: positionsOf(leaf.Points()),
			Hits:   l.RectIntersections(leaf.Bounds()),
		})
	}
	res.Elapsed = time.Since(start)

	s.record(res)
	return res
}

func positionsOf(pts []quadtree.Point) []quadtree.Point {
	if pts == nil {
		return []quadtree.Point{}
	}
	return pts
}

func (s *Scene) record(res CastResult) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.TotalQueries++
	s.stats.TotalLeavesFound += len(res.Leaves)
	s.stats.AvgLeavesPerCast = float64(s.stats.TotalLeavesFound) / float64(s.stats.TotalQueries)

	// Update average query time using weighted average
	if s.stats.TotalQueries == 1 {
		s.stats.AvgQueryTime = res.Elapsed
	} else {
		weight := 0.1 // Weight for new value
		s.stats.AvgQueryTime = time.Duration(
			float64(s.stats.AvgQueryTime)*(1-weight) + float64(res.Elapsed)*weight,
		)
	}
}

func (s *Scene) Stats() QueryStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// PrintStats logs the current query statistics
func (s *Scene) PrintStats() {
	stats := s.Stats()
	log.Printf("Casts: %d total, %.2f leaves/cast avg, avg time %v, %d points (seed %d)",
		stats.TotalQueries, stats.AvgLeavesPerCast, stats.AvgQueryTime, s.Len(), s.Seed())
}
