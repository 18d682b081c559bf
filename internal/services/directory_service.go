package services

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"ado-time-tracker/internal/ado"
	"ado-time-tracker/internal/clock"
	"ado-time-tracker/internal/config"
	"ado-time-tracker/internal/domain"
	"ado-time-tracker/internal/errors"
	"ado-time-tracker/internal/validation"
)

type directoryOperation string

const (
	operationGet      directoryOperation = "get"
	operationSearch   directoryOperation = "search"
	operationAssigned directoryOperation = "assigned"
)

type cacheKey struct {
	organizationID string
	operation      directoryOperation
	argument       string
}

type cacheEntry struct {
	items   []domain.WorkItem
	expires time.Time
}

// directoryServiceImpl implements the WorkItemDirectory interface. Results
// are cached for CacheTTL; a zero TTL disables caching.
type directoryServiceImpl struct {
	client            WorkItemClient
	orgs              OrganizationResolver
	clock             clock.Clock
	config            config.DirectoryConfig
	filter            ado.Filter
	workItemValidator *validation.WorkItemValidator

	mu    sync.Mutex
	cache map[cacheKey]cacheEntry
}

// NewWorkItemDirectory creates a new WorkItemDirectory instance
func NewWorkItemDirectory(client WorkItemClient, orgs OrganizationResolver, clk clock.Clock, cfg config.DirectoryConfig) WorkItemDirectory {
	return &directoryServiceImpl{
		client: client,
		orgs:   orgs,
		clock:  clk,
		config: cfg,
		filter: ado.Filter{
			TrackableTypes: cfg.TrackableTypes,
			TerminalStates: cfg.TerminalStates,
		},
		workItemValidator: validation.NewWorkItemValidator(),
		cache:             make(map[cacheKey]cacheEntry),
	}
}

// GetByID returns the item, or nil when it does not exist or is not
// trackable.
func (d *directoryServiceImpl) GetByID(ctx context.Context, organizationID string, id int64) (*domain.WorkItem, error) {
	if err := d.workItemValidator.ValidateWorkItemRef(organizationID, id); err != nil {
		return nil, err
	}

	key := cacheKey{organizationID, operationGet, strconv.FormatInt(id, 10)}
	items, err := d.cached(key, func(org domain.Organization) ([]domain.WorkItem, error) {
		item, err := d.client.GetWorkItem(ctx, connectionFor(org), id)
		if err != nil || item == nil {
			return nil, err
		}
		return d.trackable(org, []*ado.WorkItem{item}), nil
	})
	if err != nil || len(items) == 0 {
		return nil, err
	}
	item := items[0]
	return &item, nil
}

// Search looks up by id when text is numeric, such as "123" or "#123", and
// by title substring otherwise.
func (d *directoryServiceImpl) Search(ctx context.Context, organizationID, text string) ([]domain.WorkItem, error) {
	text = strings.TrimSpace(text)
	if id, ok := validation.ParseWorkItemID(text); ok {
		item, err := d.GetByID(ctx, organizationID, id)
		if err != nil || item == nil {
			return nil, err
		}
		return []domain.WorkItem{*item}, nil
	}

	if err := d.workItemValidator.ValidateSearchText(text); err != nil {
		return nil, err
	}

	key := cacheKey{organizationID, operationSearch, strings.ToLower(text)}
	return d.cached(key, func(org domain.Organization) ([]domain.WorkItem, error) {
		items, err := d.client.Query(ctx, connectionFor(org), ado.TitleSearchQuery(text, d.filter), d.config.SearchLimit)
		if err != nil {
			return nil, err
		}
		return d.trackable(org, items), nil
	})
}

func (d *directoryServiceImpl) ListAssignedToCurrentUser(ctx context.Context, organizationID string) ([]domain.WorkItem, error) {
	key := cacheKey{organizationID, operationAssigned, ""}
	return d.cached(key, func(org domain.Organization) ([]domain.WorkItem, error) {
		items, err := d.client.Query(ctx, connectionFor(org), ado.AssignedToMeQuery(d.filter), d.config.AssignedLimit)
		if err != nil {
			return nil, err
		}
		return d.trackable(org, items), nil
	})
}

func (d *directoryServiceImpl) Invalidate(organizationID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.cache {
		if organizationID == "" || key.organizationID == organizationID {
			delete(d.cache, key)
		}
	}
}

// cached resolves the organization and serves fetch results from the cache
// while they are fresh. Callers always receive their own copy of the slice.
func (d *directoryServiceImpl) cached(key cacheKey, fetch func(org domain.Organization) ([]domain.WorkItem, error)) ([]domain.WorkItem, error) {
	org, ok := d.orgs.Lookup(key.organizationID)
	if !ok {
		return nil, errors.NewNotFoundError("organization", key.organizationID)
	}

	now := d.clock.Now()
	d.mu.Lock()
	entry, hit := d.cache[key]
	d.mu.Unlock()
	if hit && now.Before(entry.expires) {
		return append([]domain.WorkItem(nil), entry.items...), nil
	}

	items, err := fetch(org)
	if err != nil {
		return nil, err
	}

	if d.config.CacheTTL > 0 {
		d.mu.Lock()
		d.cache[key] = cacheEntry{items: append([]domain.WorkItem(nil), items...), expires: now.Add(d.config.CacheTTL)}
		d.mu.Unlock()
	}
	return items, nil
}

// trackable converts remote items, dropping terminal states and
// untrackable types.
func (d *directoryServiceImpl) trackable(org domain.Organization, items []*ado.WorkItem) []domain.WorkItem {
	result := make([]domain.WorkItem, 0, len(items))
	for _, item := range items {
		if item == nil || !d.filter.Allows(*item) {
			continue
		}
		result = append(result, domain.WorkItem{
			ID:                  item.ID,
			Title:               item.Title,
			Type:                item.Type,
			State:               item.State,
			AssignedTo:          item.AssignedTo,
			OrganizationID:      org.ID,
			OrganizationName:    org.DisplayName(),
			ProjectName:         item.ProjectName,
			RemoteCompletedWork: item.CompletedWork,
		})
	}
	return result
}
