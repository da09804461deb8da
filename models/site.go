package models

// Site is the configuration row for one tracked domain. The pipeline only
// reads these; the authoritative source is the sites table (or the
// ALLOWED_SITES env fallback for config-less deployments).
type Site struct {
	ID       int    `json:"id"`
	Domain   string `json:"domain"`
	Name     string `json:"name"`
	Timezone string `json:"timezone"`
	Active   bool   `json:"active"`
}
