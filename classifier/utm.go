package classifier

import "net/url"

const utmMaxLen = 200

// UTMParams are the campaign attribution parameters extracted from a page
// URL. Missing parameters stay empty, values are truncated to a sane length
// so hostile query strings can't bloat storage.
type UTMParams struct {
	Source   string
	Medium   string
	Campaign string
	Term     string
	Content  string
}

// ExtractUTM pulls campaign parameters from the query string of a page URL.
// A plain `ref` parameter stands in for utm_source when the latter is
// missing. Unparsable URLs yield empty params.
func ExtractUTM(pageURL string) UTMParams {
	u, err := url.Parse(pageURL)
	if err != nil {
		return UTMParams{}
	}
	q := u.Query()

	source := q.Get("utm_source")
	if source == "" {
		source = q.Get("ref")
	}

	return UTMParams{
		Source:   truncate(source, utmMaxLen),
		Medium:   truncate(q.Get("utm_medium"), utmMaxLen),
		Campaign: truncate(q.Get("utm_campaign"), utmMaxLen),
		Term:     truncate(q.Get("utm_term"), utmMaxLen),
		Content:  truncate(q.Get("utm_content"), utmMaxLen),
	}
}

// truncate cuts s to at most max characters, never splitting a multibyte
// rune: a byte-level slice could produce invalid UTF-8 that the database
// rejects, losing the whole row.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i]
		}
		n++
	}
	return s
}
