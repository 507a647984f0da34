package enrich

import (
	"context"
	"errors"
	"net"
	"testing"
)

type stubDNSResolver struct {
	mx map[string]bool
}

func (s *stubDNSResolver) LookupMX(ctx context.Context, domain string) ([]*net.MX, error) {
	if s.mx[domain] {
		return []*net.MX{{Host: "mx." + domain}}, nil
	}
	return nil, errors.New("no mx records")
}

func TestVerifyPhone(t *testing.T) {
	cases := map[string]struct {
		phone  string
		region string
		want   bool
	}{
		"valid us international": {phone: "+1 212-867-5309", region: "US", want: true},
		"valid us national":      {phone: "(212) 867-5309", region: "US", want: true},
		"empty":                  {phone: "", region: "US", want: false},
		"too short":              {phone: "123", region: "US", want: false},
		"garbage":                {phone: "call us", region: "US", want: false},
		"defaults region":        {phone: "+1 212-867-5309", region: "", want: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := VerifyPhone(tc.phone, tc.region); got != tc.want {
				t.Fatalf("VerifyPhone(%q, %q) = %v, want %v", tc.phone, tc.region, got, tc.want)
			}
		})
	}
}

func TestVerifyEmail(t *testing.T) {
	cases := map[string]struct {
		email string
		want  bool
	}{
		"plain":              {email: "info@example.com", want: true},
		"mixed case":         {email: "Sales@Example.COM", want: true},
		"subdomain":          {email: "team@mail.example.co.uk", want: true},
		"empty":              {email: "", want: false},
		"no at sign":         {email: "example.com", want: false},
		"no dot in domain":   {email: "info@localhost", want: false},
		"hyphen edge label":  {email: "info@-example.com", want: false},
		"template pattern":   {email: "{first}.{last}@example.com", want: false},
		"double at":          {email: "a@@example.com", want: false},
		"trailing dot label": {email: "info@example..com", want: false},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := VerifyEmail(tc.email); got != tc.want {
				t.Fatalf("VerifyEmail(%q) = %v, want %v", tc.email, got, tc.want)
			}
		})
	}
}

func TestVerifyEmailDeliverable(t *testing.T) {
	resolver := &stubDNSResolver{mx: map[string]bool{"example.com": true}}

	cases := map[string]struct {
		email    string
		resolver DNSResolver
		want     bool
	}{
		"mx present":             {email: "sales@example.com", resolver: resolver, want: true},
		"mx missing":             {email: "sales@nowhere.example", resolver: resolver, want: false},
		"invalid format":         {email: "not-an-email", resolver: resolver, want: false},
		"nil resolver is format": {email: "sales@nowhere.example", resolver: nil, want: true},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			if got := VerifyEmailDeliverable(context.Background(), tc.resolver, tc.email); got != tc.want {
				t.Fatalf("VerifyEmailDeliverable(%q) = %v, want %v", tc.email, got, tc.want)
			}
		})
	}
}

func TestExtractDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.example.com/path?x=1": "example.com",
		"http://shop.example.io":           "shop.example.io",
		"example.com/about":                "example.com",
		"WWW.EXAMPLE.COM":                  "example.com",
		"not-a-domain":                     "",
		"":                                 "",
	}
	for input, want := range cases {
		if got := ExtractDomain(input); got != want {
			t.Fatalf("ExtractDomain(%q) = %q, want %q", input, got, want)
		}
	}
}
