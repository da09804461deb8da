package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cdr.dev/slog"
	"github.com/oschwald/geoip2-golang"

	"github.com/mvavassori/picostats/classifier"
	"github.com/mvavassori/picostats/config"
	"github.com/mvavassori/picostats/models"
	"github.com/mvavassori/picostats/ratelimit"
	"github.com/mvavassori/picostats/services"
	"github.com/mvavassori/picostats/utils"
)

// Smallest valid transparent GIF, served as the beacon response so the
// endpoint works as a plain <img> pixel.
var trackingPixel = []byte{
	0x47, 0x49, 0x46, 0x38, 0x39, 0x61, // GIF89a
	0x01, 0x00, 0x01, 0x00, 0x80, 0x00, 0x00,
	0x00, 0x00, 0x00, 0xFF, 0xFF, 0xFF,
	0x21, 0xF9, 0x04, 0x01, 0x00, 0x00, 0x00, 0x00,
	0x2C, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x01, 0x00, 0x00,
	0x02, 0x02, 0x44, 0x01, 0x00, 0x3B,
}

// Header set when a beacon is acknowledged but deliberately not persisted.
const skipHeader = "X-Picostats-Skip"

// BeaconStore is the write surface the ingestion path needs from the
// database.
type BeaconStore interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// CollectHandler ingests pageview, heartbeat, session-end and event beacons.
type CollectHandler struct {
	log      slog.Logger
	cfg      *config.Config
	store    BeaconStore
	geoip    *geoip2.Reader
	sites    *services.SiteService
	sessions *services.SessionService
	limiter  *ratelimit.Limiter

	now func() time.Time
}

func NewCollectHandler(
	log slog.Logger,
	cfg *config.Config,
	store BeaconStore,
	geoip *geoip2.Reader,
	sites *services.SiteService,
	sessions *services.SessionService,
	limiter *ratelimit.Limiter,
) *CollectHandler {
	return &CollectHandler{
		log:      log,
		cfg:      cfg,
		store:    store,
		geoip:    geoip,
		sites:    sites,
		sessions: sessions,
		limiter:  limiter,
		now:      time.Now,
	}
}

// Collect handles GET (query-parameter pixel) and POST (JSON body) beacons.
func (h *CollectHandler) Collect() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		beacon, err := parseBeacon(r, models.BeaconPageview)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}
		h.handle(w, r, beacon)
	}
}

// Event handles custom/auto-tracked event beacons.
func (h *CollectHandler) Event() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		beacon, err := parseBeacon(r, models.BeaconEvent)
		if err != nil {
			utils.WriteErrorResponse(w, http.StatusBadRequest, err)
			return
		}
		beacon.Type = models.BeaconEvent
		h.handle(w, r, beacon)
	}
}

// parseBeacon decodes either transport into one beacon value.
func parseBeacon(r *http.Request, defaultType string) (*models.Beacon, error) {
	beacon := &models.Beacon{}

	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(beacon); err != nil {
			return nil, fmt.Errorf("invalid beacon body")
		}
	} else {
		q := r.URL.Query()
		beacon.Site = q.Get("site")
		beacon.URL = q.Get("url")
		beacon.Title = q.Get("title")
		beacon.Referrer = q.Get("referrer")
		if beacon.Referrer == "" {
			beacon.Referrer = q.Get("ref")
		}
		beacon.ViewportWidth, _ = strconv.Atoi(q.Get("w"))
		beacon.ScreenWidth, _ = strconv.Atoi(q.Get("sw"))
		beacon.ScreenHeight, _ = strconv.Atoi(q.Get("sh"))
		beacon.Language = q.Get("lang")
		beacon.SessionID = q.Get("sid")
		beacon.Type = q.Get("type")
		beacon.EventType = q.Get("event_type")
		beacon.EventName = q.Get("event_name")
		beacon.EventData = q.Get("event_data")
	}

	if beacon.Type == "" {
		beacon.Type = defaultType
	}
	return beacon, nil
}

// handle runs the ingestion sequence. Rejections (rate limit, validation,
// authorization) happen before any side effect; once a beacon is accepted,
// downstream failures are logged and swallowed so analytics never breaks the
// host page.
func (h *CollectHandler) handle(w http.ResponseWriter, r *http.Request, beacon *models.Beacon) {
	ctx := r.Context()
	ip := utils.GetIPAddress(r)

	allowed, remaining := h.limiter.Check(ip)
	if remaining >= 0 {
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
	}
	if !allowed {
		w.Header().Set("Retry-After", strconv.Itoa(int(h.cfg.RateLimitWindow.Seconds())))
		utils.WriteErrorResponse(w, http.StatusTooManyRequests, fmt.Errorf("rate limit exceeded"))
		return
	}

	if beacon.Site == "" || beacon.URL == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("site and url are required"))
		return
	}
	pageURL, err := url.Parse(beacon.URL)
	if err != nil || pageURL.Host == "" {
		utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("url must be a valid absolute URL"))
		return
	}

	authorized, err := h.sites.Authorized(ctx, beacon.Site)
	if err != nil {
		h.log.Warn(ctx, "site authorization lookup failed", slog.F("site", beacon.Site), slog.Error(err))
	}
	if !authorized {
		utils.WriteErrorResponse(w, http.StatusBadRequest, fmt.Errorf("unknown site"))
		return
	}

	// Local development traffic is acknowledged but never stored.
	if isDevHost(pageURL.Hostname()) {
		w.Header().Set(skipHeader, "dev-traffic")
		h.writeSuccess(w, r)
		return
	}

	if !h.originAllowed(r) {
		utils.WriteErrorResponse(w, http.StatusForbidden, fmt.Errorf("origin not allowed"))
		return
	}

	// Beacon accepted. From here on every failure is soft.
	if err := h.process(ctx, r, beacon, ip); err != nil {
		h.log.Warn(ctx, "beacon processing failed",
			slog.F("site", beacon.Site),
			slog.F("type", beacon.Type),
			slog.Error(err),
		)
	}
	h.writeSuccess(w, r)
}

// process classifies, hashes and persists one accepted beacon.
func (h *CollectHandler) process(ctx context.Context, r *http.Request, beacon *models.Beacon, ip string) error {
	now := h.now().UTC()
	uaString := r.UserAgent()

	bot := classifier.DetectBot(uaString)
	uaInfo := classifier.ParseUserAgent(uaString)
	deviceType := classifier.RefineDeviceType(uaInfo.DeviceType, beacon.ViewportWidth)
	ref := classifier.ClassifyReferrer(beacon.Referrer)
	utm := classifier.ExtractUTM(beacon.URL)
	loc := utils.LookupLocation(h.geoip, ip)
	visitorHash := utils.VisitorHash(h.cfg.Secret, beacon.Site, loc.Country, loc.Region, now)

	// Bots never touch sessions.
	touchSession := !bot.IsBot && beacon.SessionID != ""

	switch beacon.Type {
	case models.BeaconHeartbeat:
		if !touchSession {
			return nil
		}
		return h.sessions.RecordHeartbeat(ctx, beacon.Site, beacon.SessionID, now)

	case models.BeaconSessionEnd:
		if !touchSession {
			return nil
		}
		return h.sessions.EndSession(ctx, beacon.Site, beacon.SessionID, now)

	case models.BeaconEvent:
		if touchSession {
			if err := h.sessions.RecordEvent(ctx, beacon.Site, beacon.SessionID, now); err != nil {
				return err
			}
		}
		return h.insertEvent(ctx, models.EventInsert{
			Site:        beacon.Site,
			Timestamp:   now,
			SessionID:   beacon.SessionID,
			VisitorHash: visitorHash,
			EventType:   beacon.EventType,
			EventName:   beacon.EventName,
			EventData:   eventPayload(beacon.EventData),
			PageURL:     beacon.URL,
			Country:     loc.Country,
			DeviceType:  deviceType,
		})

	default: // pageview
		if touchSession {
			if err := h.sessions.RecordPageview(ctx, models.SessionStart{
				Site:           beacon.Site,
				SessionID:      beacon.SessionID,
				VisitorHash:    visitorHash,
				Page:           beacon.URL,
				ReferrerType:   ref.Type,
				ReferrerDomain: ref.Domain,
				UTMSource:      utm.Source,
				UTMCampaign:    utm.Campaign,
				Country:        loc.Country,
				Region:         loc.Region,
				DeviceType:     deviceType,
				Browser:        uaInfo.Browser,
				OS:             uaInfo.OS,
			}, now); err != nil {
				return err
			}
		}
		return h.insertPageView(ctx, models.PageViewInsert{
			Site:           beacon.Site,
			Timestamp:      now,
			URL:            beacon.URL,
			PageTitle:      beacon.Title,
			Referrer:       beacon.Referrer,
			ReferrerType:   ref.Type,
			ReferrerDomain: ref.Domain,
			UTMSource:      utm.Source,
			UTMMedium:      utm.Medium,
			UTMCampaign:    utm.Campaign,
			UTMTerm:        utm.Term,
			UTMContent:     utm.Content,
			Country:        loc.Country,
			Region:         loc.Region,
			City:           loc.City,
			Latitude:       loc.Latitude,
			Longitude:      loc.Longitude,
			DeviceType:     deviceType,
			Browser:        uaInfo.Browser,
			BrowserVersion: uaInfo.BrowserVersion,
			OS:             uaInfo.OS,
			OSVersion:      uaInfo.OSVersion,
			ScreenWidth:    beacon.ScreenWidth,
			ScreenHeight:   beacon.ScreenHeight,
			Language:       beacon.Language,
			IsBot:          bot.IsBot,
			BotName:        bot.Name,
			BotCategory:    bot.Category,
			VisitorHash:    visitorHash,
			SessionID:      beacon.SessionID,
		})
	}
}

func (h *CollectHandler) insertPageView(ctx context.Context, pv models.PageViewInsert) error {
	_, err := h.store.ExecContext(ctx, `
		INSERT INTO page_views (
			site, timestamp, url, page_title, referrer, referrer_type,
			referrer_domain, utm_source, utm_medium, utm_campaign, utm_term,
			utm_content, country, region, city, latitude, longitude,
			device_type, browser, browser_version, os, os_version,
			screen_width, screen_height, language, is_bot, bot_name,
			bot_category, visitor_hash, session_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27,
			$28, $29, $30)`,
		pv.Site, pv.Timestamp, pv.URL, pv.PageTitle, pv.Referrer, pv.ReferrerType,
		pv.ReferrerDomain, pv.UTMSource, pv.UTMMedium, pv.UTMCampaign, pv.UTMTerm,
		pv.UTMContent, pv.Country, pv.Region, pv.City, pv.Latitude, pv.Longitude,
		pv.DeviceType, pv.Browser, pv.BrowserVersion, pv.OS, pv.OSVersion,
		pv.ScreenWidth, pv.ScreenHeight, pv.Language, pv.IsBot, pv.BotName,
		pv.BotCategory, pv.VisitorHash, pv.SessionID,
	)
	if err != nil {
		return fmt.Errorf("error inserting pageview: %w", err)
	}
	return nil
}

func (h *CollectHandler) insertEvent(ctx context.Context, ev models.EventInsert) error {
	_, err := h.store.ExecContext(ctx, `
		INSERT INTO events (
			site, timestamp, session_id, visitor_hash, event_type, event_name,
			event_data, page_url, country, device_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		ev.Site, ev.Timestamp, ev.SessionID, ev.VisitorHash, ev.EventType,
		ev.EventName, ev.EventData, ev.PageURL, ev.Country, ev.DeviceType,
	)
	if err != nil {
		return fmt.Errorf("error inserting event: %w", err)
	}
	return nil
}

// eventPayload keeps only well-formed JSON; anything else is stored as a
// JSON string so the insert can't fail on user input.
func eventPayload(raw string) json.RawMessage {
	if raw == "" {
		return json.RawMessage("null")
	}
	if json.Valid([]byte(raw)) {
		return json.RawMessage(raw)
	}
	quoted, _ := json.Marshal(raw)
	return quoted
}

// writeSuccess answers with the pixel for GET beacons and an empty 200 for
// POST (navigator.sendBeacon) transports.
func (h *CollectHandler) writeSuccess(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store, no-cache, must-revalidate")
	if r.Method == http.MethodPost {
		w.WriteHeader(http.StatusOK)
		return
	}
	w.Header().Set("Content-Type", "image/gif")
	w.WriteHeader(http.StatusOK)
	w.Write(trackingPixel)
}

// isDevHost reports whether the destination URL points at local development.
func isDevHost(host string) bool {
	host = strings.ToLower(host)
	if host == "localhost" || strings.HasSuffix(host, ".localhost") || strings.HasSuffix(host, ".local") {
		return true
	}
	if ip := net.ParseIP(host); ip != nil && ip.IsLoopback() {
		return true
	}
	return false
}

// originAllowed cross-checks the Origin (or Referer) header against the
// configured allow-list. An empty list or a missing header means the site
// parameter is trusted on its own.
func (h *CollectHandler) originAllowed(r *http.Request) bool {
	if len(h.cfg.AllowedOrigins) == 0 {
		return true
	}

	origin := r.Header.Get("Origin")
	if origin == "" {
		origin = r.Header.Get("Referer")
	}
	if origin == "" {
		return true
	}

	u, err := url.Parse(origin)
	if err != nil || u.Hostname() == "" {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")

	for _, allowed := range h.cfg.AllowedOrigins {
		allowed = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(allowed)), "www.")
		if allowed == "*" || allowed == host {
			return true
		}
	}
	return false
}
