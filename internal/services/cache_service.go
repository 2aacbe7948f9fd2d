package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"
)

// CacheService is a best-effort, short-TTL read-through cache for list
// endpoints. It is never consulted for mutation decisions; authoritative
// reads always go to the database inside the mutating transaction.
//
// Keys:
//   trips:list             - trip list with availability
//   trip_seats:<tripID>    - seat list of one trip
//   seat_summary:<tripID>  - seat summary of one trip
type CacheService struct {
	cache      *gocache.Cache
	maxEntries int
}

// NewCacheService creates a bounded TTL cache
func NewCacheService(ttl time.Duration, maxEntries int) *CacheService {
	return &CacheService{
		cache:      gocache.New(ttl, 2*ttl),
		maxEntries: maxEntries,
	}
}

// Get returns a cached value and whether it was present
func (s *CacheService) Get(key string) (interface{}, bool) {
	return s.cache.Get(key)
}

// Set stores a value under the default TTL. When the cache is full the
// write is skipped; entries expire on their own and the cache refills.
func (s *CacheService) Set(key string, value interface{}) {
	if s.cache.ItemCount() >= s.maxEntries {
		if _, exists := s.cache.Get(key); !exists {
			return
		}
	}
	s.cache.SetDefault(key, value)
}

// InvalidateTrip drops every entry derived from one trip's inventory,
// called after any mutation that touches the trip's seats or bookings.
func (s *CacheService) InvalidateTrip(tripID uuid.UUID) {
	s.cache.Delete(TripListKey())
	s.cache.Delete(TripSeatsKey(tripID))
	s.cache.Delete(SeatSummaryKey(tripID))
}

// TripListKey is the cache key for the trip list
func TripListKey() string {
	return "trips:list"
}

// TripSeatsKey is the cache key for one trip's seat list
func TripSeatsKey(tripID uuid.UUID) string {
	return fmt.Sprintf("trip_seats:%s", tripID)
}

// SeatSummaryKey is the cache key for one trip's seat summary
func SeatSummaryKey(tripID uuid.UUID) string {
	return fmt.Sprintf("seat_summary:%s", tripID)
}
