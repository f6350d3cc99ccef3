package statistics

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/Reakage/internal/pkg/cache"
)

const (
	CacheKeyReportsTotal = "statistics:reports:total"
	CacheKeyReportsDaily = "statistics:reports:daily:%s" // Format with date YYYY-MM-DD
	CacheKeyReportsUser  = "statistics:reports:user:%d"
	CacheKeyUsers        = "statistics:users:total"
	CacheExpiration      = 30 * time.Minute
)

// StatisticsData holds the global counters shown on the home screen
type StatisticsData struct {
	TodayReports int
	TotalReports int
	TotalUsers   int
}

// ReportCounter counts stored reports
type ReportCounter interface {
	Count(ctx context.Context) (int64, error)
	CountSince(ctx context.Context, since time.Time) (int64, error)
	CountByUserID(ctx context.Context, userID uint) (int64, error)
}

// UserCounter counts registered users
type UserCounter interface {
	Count(ctx context.Context) (int64, error)
}

// Cache is the string key-value store the counters are kept in
type Cache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(key string) error
}

type redisCache struct{}

func (redisCache) Get(key string) (string, error) { return cache.Get(key) }
func (redisCache) Set(key string, value interface{}, expiration time.Duration) error {
	return cache.Set(key, value, expiration)
}
func (redisCache) Delete(key string) error { return cache.Delete(key) }

// RedisCache returns a Cache backed by the shared Redis client
func RedisCache() Cache {
	return redisCache{}
}

// Service reads counters from the cache and falls back to the database
type Service struct {
	reports ReportCounter
	users   UserCounter
	cache   Cache
	now     func() time.Time
}

func NewService(reports ReportCounter, users UserCounter, c Cache) *Service {
	return &Service{reports: reports, users: users, cache: c, now: time.Now}
}

func (s *Service) dailyKey() string {
	return fmt.Sprintf(CacheKeyReportsDaily, s.now().Format("2006-01-02"))
}

func (s *Service) startOfDay() time.Time {
	now := s.now()
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}

// cachedCount returns the cached value for key or loads and caches it
func (s *Service) cachedCount(ctx context.Context, key string, load func(context.Context) (int64, error)) int {
	if val, err := s.cache.Get(key); err == nil {
		if count, err := strconv.ParseInt(val, 10, 64); err == nil {
			return int(count)
		}
	}

	count, err := load(ctx)
	if err != nil {
		log.Errorf("[Statistics] Error counting %s: %v", key, err)
		return 0
	}

	if err := s.cache.Set(key, strconv.FormatInt(count, 10), CacheExpiration); err != nil {
		log.Warnf("[Statistics] Error caching %s: %v", key, err)
	}
	return int(count)
}

// GetStatisticsData returns all global statistics
func (s *Service) GetStatisticsData(ctx context.Context) StatisticsData {
	since := s.startOfDay()
	return StatisticsData{
		TodayReports: s.cachedCount(ctx, s.dailyKey(), func(ctx context.Context) (int64, error) {
			return s.reports.CountSince(ctx, since)
		}),
		TotalReports: s.cachedCount(ctx, CacheKeyReportsTotal, s.reports.Count),
		TotalUsers:   s.cachedCount(ctx, CacheKeyUsers, s.users.Count),
	}
}

// UserReports returns the number of reports owned by userID
func (s *Service) UserReports(ctx context.Context, userID uint) int {
	return s.cachedCount(ctx, fmt.Sprintf(CacheKeyReportsUser, userID), func(ctx context.Context) (int64, error) {
		return s.reports.CountByUserID(ctx, userID)
	})
}

// ReportSubmitted drops the counters a new report of userID changes
func (s *Service) ReportSubmitted(userID uint) {
	for _, key := range []string{CacheKeyReportsTotal, s.dailyKey(), fmt.Sprintf(CacheKeyReportsUser, userID)} {
		if err := s.cache.Delete(key); err != nil {
			log.Warnf("[Statistics] Error invalidating %s: %v", key, err)
		}
	}
}

// UserRegistered drops the user counter
func (s *Service) UserRegistered() {
	if err := s.cache.Delete(CacheKeyUsers); err != nil {
		log.Warnf("[Statistics] Error invalidating %s: %v", CacheKeyUsers, err)
	}
}

var defaultService *Service

// SetService installs the process-wide statistics service
func SetService(s *Service) {
	defaultService = s
}

// GetService returns the process-wide statistics service, or nil before setup
func GetService() *Service {
	return defaultService
}
