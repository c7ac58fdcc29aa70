package service

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/kahvecikaan/storefront-admin/internal/storeapi"
)

// CatalogAPI is the part of the store API that lists lookup data
type CatalogAPI interface {
	ListCategories(ctx context.Context) ([]storeapi.Category, error)
	ListDevelopers(ctx context.Context) ([]storeapi.Developer, error)
}

type CatalogService interface {
	ListCategories(ctx context.Context) ([]storeapi.Category, error)
	ListDevelopers(ctx context.Context) ([]storeapi.Developer, error)
	CategoryExists(ctx context.Context, id int64) (bool, error)
	Close() error
}

// catalogService caches the category and developer lists used by the
// product form. The cache is refreshed in the background and on a miss.
type catalogService struct {
	log        hclog.Logger
	api        CatalogAPI
	categories []storeapi.Category
	developers []storeapi.Developer
	cacheMutex sync.RWMutex
	interval   time.Duration
	closeCh    chan struct{}
	once       sync.Once
	wg         sync.WaitGroup
}

// NewCatalogService creates a CatalogService. An interval of zero disables
// the background refresh.
func NewCatalogService(logger hclog.Logger, api CatalogAPI, interval time.Duration) CatalogService {
	svc := &catalogService{
		log:      logger,
		api:      api,
		interval: interval,
		closeCh:  make(chan struct{}),
	}

	if interval > 0 {
		svc.wg.Add(1)
		go svc.handleRefresh()
	}

	return svc
}

func (s *catalogService) handleRefresh() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), s.interval)
			if _, err := s.refreshCategories(ctx); err != nil {
				s.log.Error("Failed to refresh categories", "error", err)
			}
			if _, err := s.refreshDevelopers(ctx); err != nil {
				s.log.Error("Failed to refresh developers", "error", err)
			}
			cancel()
		case <-s.closeCh:
			s.log.Info("handleRefresh received shutdown signal")
			return
		}
	}
}

func (s *catalogService) refreshCategories(ctx context.Context) ([]storeapi.Category, error) {
	categories, err := s.api.ListCategories(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheMutex.Lock()
	s.categories = categories
	s.cacheMutex.Unlock()

	s.log.Debug("Updated categories", "count", len(categories))
	return categories, nil
}

func (s *catalogService) refreshDevelopers(ctx context.Context) ([]storeapi.Developer, error) {
	developers, err := s.api.ListDevelopers(ctx)
	if err != nil {
		return nil, err
	}

	s.cacheMutex.Lock()
	s.developers = developers
	s.cacheMutex.Unlock()

	s.log.Debug("Updated developers", "count", len(developers))
	return developers, nil
}

func (s *catalogService) ListCategories(ctx context.Context) ([]storeapi.Category, error) {
	s.cacheMutex.RLock()
	categories := s.categories
	s.cacheMutex.RUnlock()
	if categories != nil {
		return categories, nil
	}

	categories, err := s.refreshCategories(ctx)
	if err != nil {
		s.log.Error("Unable to list categories", "error", err)
		return nil, err
	}
	return categories, nil
}

func (s *catalogService) ListDevelopers(ctx context.Context) ([]storeapi.Developer, error) {
	s.cacheMutex.RLock()
	developers := s.developers
	s.cacheMutex.RUnlock()
	if developers != nil {
		return developers, nil
	}

	developers, err := s.refreshDevelopers(ctx)
	if err != nil {
		s.log.Error("Unable to list developers", "error", err)
		return nil, err
	}
	return developers, nil
}

// CategoryExists reports whether id names a known category. A cached miss is
// confirmed against the store, since the category may have just been created.
func (s *catalogService) CategoryExists(ctx context.Context, id int64) (bool, error) {
	categories, err := s.ListCategories(ctx)
	if err != nil {
		return false, err
	}
	if containsCategory(categories, id) {
		return true, nil
	}

	categories, err = s.refreshCategories(ctx)
	if err != nil {
		return false, err
	}
	return containsCategory(categories, id), nil
}

func containsCategory(categories []storeapi.Category, id int64) bool {
	for _, c := range categories {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Close stops the background refresh
func (s *catalogService) Close() error {
	s.once.Do(func() {
		s.log.Info("Shutting down CatalogService...")
		close(s.closeCh)
		s.wg.Wait()
		s.log.Info("CatalogService shutdown complete.")
	})
	return nil
}
