package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ammario/tlru"
)

// Site-config cache tiers. The hot tier absorbs per-request lookups, the
// warm tier rides out short database blips.
const (
	siteCacheHotTTL  = 30 * time.Second
	siteCacheWarmTTL = 10 * time.Minute
	siteCacheMax     = 10_000
)

type siteRowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// SiteService answers "is this site allowed to send beacons". Lookups hit
// the sites table through a two-tier TTL cache; a static allow-list from
// configuration serves as fallback so the collector works without any rows
// in the table.
type SiteService struct {
	db        siteRowQuerier
	allowList map[string]bool
	hot       *tlru.Cache[string, bool]
	warm      *tlru.Cache[string, bool]
}

func NewSiteService(db siteRowQuerier, allowedSites []string) *SiteService {
	allowList := make(map[string]bool, len(allowedSites))
	for _, s := range allowedSites {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			allowList[s] = true
		}
	}
	return &SiteService{
		db:        db,
		allowList: allowList,
		hot:       tlru.New[string](tlru.ConstantCost[bool], siteCacheMax),
		warm:      tlru.New[string](tlru.ConstantCost[bool], siteCacheMax),
	}
}

// Authorized reports whether the site may send beacons. The allow-list wins
// outright; otherwise the sites table decides, with lookups cached in the
// hot tier and refreshed from the warm tier when the database is
// unreachable.
func (s *SiteService) Authorized(ctx context.Context, site string) (bool, error) {
	site = strings.ToLower(strings.TrimSpace(site))
	if site == "" {
		return false, nil
	}

	if s.allowList[site] {
		return true, nil
	}

	if active, _, ok := s.hot.Get(site); ok {
		return active, nil
	}

	active, err := s.lookup(ctx, site)
	if err != nil {
		// Serve stale from the warm tier rather than dropping beacons
		// during a database hiccup.
		if stale, _, ok := s.warm.Get(site); ok {
			return stale, nil
		}
		return false, err
	}

	s.hot.Set(site, active, siteCacheHotTTL)
	s.warm.Set(site, active, siteCacheWarmTTL)
	return active, nil
}

func (s *SiteService) lookup(ctx context.Context, site string) (bool, error) {
	if s.db == nil {
		return false, nil
	}

	var active bool
	err := s.db.QueryRowContext(ctx,
		"SELECT active FROM sites WHERE domain = $1", site,
	).Scan(&active)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error looking up site %s: %w", site, err)
	}
	return active, nil
}
