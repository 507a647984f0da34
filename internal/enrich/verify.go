package enrich

import (
	"context"
	"net"
	"regexp"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"golang.org/x/net/idna"
)

var (
	emailPattern = regexp.MustCompile(`^[a-z0-9._%+\-']+@[a-z0-9.-]+\.[a-z]{2,}$`)
	digitPattern = regexp.MustCompile(`\D`)
	idnaProfile  = idna.Lookup
)

const (
	defaultPhoneRegion = "US"
	mxLookupTimeout    = 3 * time.Second
)

// DNSResolver abstracts MX lookups to simplify testing.
type DNSResolver interface {
	LookupMX(ctx context.Context, domain string) ([]*net.MX, error)
}

// SystemDNSResolver resolves through the process default resolver.
type SystemDNSResolver struct{}

func (SystemDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	return net.DefaultResolver.LookupMX(ctx, domain)
}

// VerifyPhone checks a phone number for plausible validity. Numbers the
// library can parse are validated properly; unparseable input falls back to
// digit-count heuristics: ten digits (or eleven with a leading 1) for North
// American numbers, seven to fifteen digits internationally.
func VerifyPhone(raw, region string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	if region == "" {
		region = defaultPhoneRegion
	}

	if number, err := phonenumbers.Parse(raw, region); err == nil {
		return phonenumbers.IsPossibleNumber(number) && phonenumbers.IsValidNumber(number)
	}

	digits := digitPattern.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 10:
		return digits[0] != '0' && digits[0] != '1'
	case len(digits) == 11 && digits[0] == '1':
		return digits[1] != '0' && digits[1] != '1'
	default:
		return len(digits) >= 7 && len(digits) <= 15
	}
}

// VerifyEmail checks syntactic validity only: pattern shape, domain label
// rules and IDNA ASCII conversion. Live deliverability is not assumed
// reliable, so format validity is the ceiling of what this guarantees.
func VerifyEmail(raw string) bool {
	email := strings.ToLower(strings.TrimSpace(raw))
	if email == "" || !emailPattern.MatchString(email) {
		return false
	}
	domain := email[strings.LastIndexByte(email, '@')+1:]
	if !isDomainValid(domain) {
		return false
	}
	ascii, err := idnaProfile.ToASCII(domain)
	return err == nil && ascii != ""
}

// VerifyEmailDeliverable layers an MX-record lookup on top of the syntactic
// check. A nil resolver downgrades silently to format-only validation.
func VerifyEmailDeliverable(ctx context.Context, resolver DNSResolver, raw string) bool {
	if !VerifyEmail(raw) {
		return false
	}
	if resolver == nil {
		return true
	}
	email := strings.ToLower(strings.TrimSpace(raw))
	domain := email[strings.LastIndexByte(email, '@')+1:]
	ctx, cancel := context.WithTimeout(ctx, mxLookupTimeout)
	defer cancel()
	records, err := resolver.LookupMX(ctx, domain)
	return err == nil && len(records) > 0
}

func isDomainValid(domain string) bool {
	if strings.Count(domain, ".") == 0 {
		return false
	}
	for _, part := range strings.Split(domain, ".") {
		if part == "" || strings.HasPrefix(part, "-") || strings.HasSuffix(part, "-") {
			return false
		}
	}
	return true
}

// ExtractDomain pulls the registrable host out of a website value so it can
// key firmographic lookups.
func ExtractDomain(website string) string {
	website = strings.TrimSpace(strings.ToLower(website))
	if website == "" {
		return ""
	}
	website = strings.TrimPrefix(website, "https://")
	website = strings.TrimPrefix(website, "http://")
	website = strings.TrimPrefix(website, "www.")
	if idx := strings.IndexAny(website, "/?#"); idx >= 0 {
		website = website[:idx]
	}
	if strings.Count(website, ".") == 0 {
		return ""
	}
	return website
}
