package store

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"civicsense-be/config"
	"civicsense-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const earthRadiusMeters = 6371000

// MemoryStore is an in-memory ComplaintStore used by tests and local runs
// without MongoDB. A single mutex serializes mutations, which trivially gives
// the per-record atomicity the engine requires; records are copied in and out
// so callers never share memory with the store.
type MemoryStore struct {
	mu      sync.Mutex
	byID    map[string]*models.Complaint
	ordered []string // insertion order, newest listing walks it backwards
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: make(map[string]*models.Complaint)}
}

func (s *MemoryStore) Insert(ctx context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[c.ComplaintID]; exists {
		return ErrDuplicateID
	}
	if c.ID.IsZero() {
		c.ID = primitive.NewObjectID()
	}
	if c.Version == 0 {
		c.Version = 1
	}
	cp := cloneComplaint(c)
	s.byID[c.ComplaintID] = &cp
	s.ordered = append(s.ordered, c.ComplaintID)
	return nil
}

func (s *MemoryStore) GetByComplaintID(ctx context.Context, complaintID string) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[complaintID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := cloneComplaint(c)
	return &cp, nil
}

func (s *MemoryStore) FindNear(ctx context.Context, pt models.Point, radiusMeters float64, f NearFilter) ([]models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	type hit struct {
		c        models.Complaint
		distance float64
	}

	var hits []hit
	for _, c := range s.byID {
		if f.IssueType != "" && c.IssueType != f.IssueType {
			continue
		}
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Status == "" && f.ExcludeResolved && c.Status == models.Resolved {
			continue
		}
		d := haversineMeters(pt, c.Location)
		if d > radiusMeters {
			continue
		}
		hits = append(hits, hit{c: cloneComplaint(c), distance: d})
	}

	sort.Slice(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })
	if len(hits) > config.NearbyResultLimit {
		hits = hits[:config.NearbyResultLimit]
	}

	out := make([]models.Complaint, 0, len(hits))
	for _, h := range hits {
		out = append(out, h.c)
	}
	return out, nil
}

func (s *MemoryStore) IncrementUpvotes(ctx context.Context, complaintID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.byID[complaintID]
	if !ok {
		return 0, ErrNotFound
	}
	c.Upvotes++
	c.Version++
	c.UpdatedAt = time.Now()
	return c.Upvotes, nil
}

func (s *MemoryStore) Update(ctx context.Context, c *models.Complaint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[c.ComplaintID]
	if !ok {
		return ErrNotFound
	}
	if cur.Version != c.Version {
		return ErrConflict
	}
	c.Version++
	c.UpdatedAt = time.Now()
	cp := cloneComplaint(c)
	s.byID[c.ComplaintID] = &cp
	return nil
}

func (s *MemoryStore) FindByReporterAndTitle(ctx context.Context, reporter primitive.ObjectID, title string) (*models.Complaint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range s.ordered {
		c := s.byID[id]
		if c.CreatedBy != nil && *c.CreatedBy == reporter && c.Title == title {
			cp := cloneComplaint(c)
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (s *MemoryStore) List(ctx context.Context, f ListFilter) ([]models.Complaint, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []models.Complaint
	for i := len(s.ordered) - 1; i >= 0; i-- { // newest first
		c := s.byID[s.ordered[i]]
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.Priority != "" && c.Priority != f.Priority {
			continue
		}
		if f.EscalatedOnly && !c.Escalated {
			continue
		}
		if f.Search != "" && !matchesSearch(c, f.Search) {
			continue
		}
		matched = append(matched, cloneComplaint(c))
	}

	total := int64(len(matched))

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 100
	}
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Complaint{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (map[models.Status]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	counts := make(map[models.Status]int64)
	for _, c := range s.byID {
		counts[c.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) CountByPriority(ctx context.Context, p models.Priority) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for _, c := range s.byID {
		if c.Priority == p {
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) ResolutionDays(ctx context.Context) ([]float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var days []float64
	for _, c := range s.byID {
		if c.Status == models.Resolved {
			days = append(days, c.UpdatedAt.Sub(c.CreatedAt).Hours()/24)
		}
	}
	return days, nil
}

func matchesSearch(c *models.Complaint, search string) bool {
	q := strings.ToLower(search)
	return strings.Contains(strings.ToLower(c.ComplaintID), q) ||
		strings.Contains(strings.ToLower(string(c.IssueType)), q) ||
		strings.Contains(strings.ToLower(c.Area), q) ||
		strings.Contains(strings.ToLower(c.Title), q)
}

func cloneComplaint(c *models.Complaint) models.Complaint {
	cp := *c
	cp.Timeline = append([]models.TimelineStep(nil), c.Timeline...)
	cp.Location.Coordinates = append([]float64(nil), c.Location.Coordinates...)
	return cp
}

// haversineMeters computes the great-circle distance between two GeoJSON
// points, mirroring what the 2dsphere $maxDistance predicate matches.
func haversineMeters(a, b models.Point) float64 {
	lat1 := a.Lat() * math.Pi / 180
	lat2 := b.Lat() * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng() - a.Lng()) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}
