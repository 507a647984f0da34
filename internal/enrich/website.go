package enrich

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/octobees/leadscout/api/internal/entity"
)

const (
	probeTimeout     = 8 * time.Second
	fetchTimeout     = 15 * time.Second
	formProbeTimeout = 5 * time.Second
	maxBodyBytes     = 512 * 1024
)

var (
	pageEmailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+\-']+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	contactKeywords  = []string{"contact", "get-in-touch", "getintouch", "inquiry", "enquiry", "reach-us"}
)

var freeMailDomains = map[string]struct{}{
	"gmail.com": {}, "yahoo.com": {}, "hotmail.com": {}, "outlook.com": {},
	"aol.com": {}, "icloud.com": {}, "live.com": {}, "msn.com": {},
}

// WebsiteCheck is the outcome of a liveness probe.
type WebsiteCheck struct {
	Status   entity.WebsiteStatus
	FinalURL string
}

// ScrapeResult holds contact candidates extracted from a fetched page.
type ScrapeResult struct {
	Emails             []string
	ContactFormURL     string
	ContactFormWorking *bool
}

// WebsiteProber issues lightweight existence checks against company websites
// and scrapes fetched pages for business emails and contact-form links.
type WebsiteProber struct {
	probeClient HTTPDoer
	fetchClient HTTPDoer
}

// ProberOption configures a WebsiteProber.
type ProberOption func(*WebsiteProber)

// WithProbeClient overrides the probe client (short timeout).
func WithProbeClient(doer HTTPDoer) ProberOption {
	return func(p *WebsiteProber) {
		if doer != nil {
			p.probeClient = doer
		}
	}
}

// WithFetchClient overrides the page-fetch client (longer timeout).
func WithFetchClient(doer HTTPDoer) ProberOption {
	return func(p *WebsiteProber) {
		if doer != nil {
			p.fetchClient = doer
		}
	}
}

// NewWebsiteProber builds a prober with redirect-following HTTP clients.
func NewWebsiteProber(opts ...ProberOption) *WebsiteProber {
	p := &WebsiteProber{
		probeClient: &http.Client{Timeout: probeTimeout},
		fetchClient: &http.Client{Timeout: fetchTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Probe classifies the website's liveness. A missing website is no_website;
// transport failures are broken; non-2xx answers are inactive; a 2xx answer
// reached through a redirect to a different host is redirected.
func (p *WebsiteProber) Probe(ctx context.Context, website string) WebsiteCheck {
	target, err := normalizeWebsite(website)
	if err != nil {
		return WebsiteCheck{Status: entity.WebsiteNone}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return WebsiteCheck{Status: entity.WebsiteBroken}
	}

	resp, err := p.probeClient.Do(req)
	if err != nil {
		return WebsiteCheck{Status: entity.WebsiteBroken}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	final := target
	if resp.Request != nil && resp.Request.URL != nil {
		final = resp.Request.URL.String()
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if hostOf(final) != hostOf(target) {
			return WebsiteCheck{Status: entity.WebsiteRedirected, FinalURL: final}
		}
		return WebsiteCheck{Status: entity.WebsiteActive, FinalURL: final}
	case resp.StatusCode >= 300 && resp.StatusCode < 400:
		return WebsiteCheck{Status: entity.WebsiteRedirected, FinalURL: final}
	default:
		return WebsiteCheck{Status: entity.WebsiteInactive, FinalURL: final}
	}
}

// Scrape fetches the page body and extracts candidate business emails and a
// contact-form link. A discovered link gets one more lightweight probe to
// classify it as working or not.
func (p *WebsiteProber) Scrape(ctx context.Context, website string) (*ScrapeResult, error) {
	target, err := normalizeWebsite(website)
	if err != nil {
		return nil, fmt.Errorf("normalize website: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("create fetch request: %w", err)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := p.fetchClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("fetch page: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read page body: %w", err)
	}

	result := &ScrapeResult{Emails: extractEmails(string(body))}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return result, nil
	}

	if link := findContactLink(doc, target); link != "" {
		result.ContactFormURL = link
		working := p.probeContactForm(ctx, link)
		result.ContactFormWorking = &working
	}

	return result, nil
}

func (p *WebsiteProber) probeContactForm(ctx context.Context, link string) bool {
	ctx, cancel := context.WithTimeout(ctx, formProbeTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return false
	}
	resp, err := p.probeClient.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// extractEmails pulls plausible business addresses out of raw HTML, dropping
// free-mail providers and no-reply style mailboxes.
func extractEmails(body string) []string {
	matches := pageEmailPattern.FindAllString(body, -1)
	seen := make(map[string]struct{}, len(matches))
	var emails []string
	for _, match := range matches {
		email := strings.ToLower(match)
		local := email[:strings.IndexByte(email, '@')]
		domain := email[strings.IndexByte(email, '@')+1:]
		if _, free := freeMailDomains[domain]; free {
			continue
		}
		if strings.Contains(local, "noreply") || strings.Contains(local, "no-reply") || strings.Contains(local, "donotreply") {
			continue
		}
		// Image filenames scraped out of srcset attributes look like emails.
		if strings.HasSuffix(domain, ".png") || strings.HasSuffix(domain, ".jpg") || strings.HasSuffix(domain, ".svg") {
			continue
		}
		if _, dup := seen[email]; dup {
			continue
		}
		seen[email] = struct{}{}
		emails = append(emails, email)
	}
	return emails
}

// findContactLink locates a contact page via anchor hrefs or form actions.
func findContactLink(doc *goquery.Document, base string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ""
	}

	var found string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if matchesContactKeyword(href) || matchesContactKeyword(sel.Text()) {
			found = resolveLink(baseURL, href)
			return found == ""
		}
		return true
	})
	if found != "" {
		return found
	}

	doc.Find("form[action]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		action, _ := sel.Attr("action")
		if matchesContactKeyword(action) {
			found = resolveLink(baseURL, action)
			return found == ""
		}
		return true
	})
	return found
}

func matchesContactKeyword(value string) bool {
	value = strings.ToLower(value)
	for _, keyword := range contactKeywords {
		if strings.Contains(value, keyword) {
			return true
		}
	}
	return false
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

func normalizeWebsite(website string) (string, error) {
	website = strings.TrimSpace(website)
	if website == "" {
		return "", fmt.Errorf("empty website")
	}
	if !strings.Contains(website, "://") {
		website = "https://" + website
	}
	u, err := url.Parse(website)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid website %q", website)
	}
	return u.String(), nil
}

func hostOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
}
