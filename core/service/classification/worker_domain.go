package classification

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	maxDomainLength = 253
	maxLabelLength  = 63
)

// genericLabels are leading labels that say nothing about the sender.
var genericLabels = map[string]bool{
	"mail":          true,
	"email":         true,
	"e":             true,
	"em":            true,
	"noreply":       true,
	"no-reply":      true,
	"donotreply":    true,
	"do-not-reply":  true,
	"support":       true,
	"team":          true,
	"info":          true,
	"hello":         true,
	"news":          true,
	"newsletter":    true,
	"notifications": true,
	"notification":  true,
	"notify":        true,
	"accounts":      true,
	"account":       true,
	"mailer":        true,
	"bounce":        true,
	"reply":         true,
	"www":           true,
	"mg":            true,
	"send":          true,
	"marketing":     true,
}

// NormalizeDomain lowercases and validates a domain. It accepts a bare
// address ("a@b.com") and keeps the part after the last '@'.
// Internationalized domains come back in punycode (münchen.de -> xn--mnchen-3ya.de).
func NormalizeDomain(raw string) (string, bool) {
	d := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.LastIndexByte(d, '@'); i >= 0 {
		d = d[i+1:]
	}
	d = strings.TrimSuffix(d, ".")

	if !isASCII(d) {
		ascii, err := idna.Punycode.ToASCII(d)
		if err != nil {
			return "", false
		}
		d = ascii
	}

	if d == "" || len(d) > maxDomainLength {
		return "", false
	}

	for _, label := range strings.Split(d, ".") {
		if !validLabel(label) {
			return "", false
		}
	}
	return d, true
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

func validLabel(label string) bool {
	if label == "" || len(label) > maxLabelLength {
		return false
	}
	hasAlnum := false
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			hasAlnum = true
		case r == '-' || r == '_':
		default:
			return false
		}
	}
	return hasAlnum
}

// ExtractSenderDomain returns the normalized domain of a From header value.
func ExtractSenderDomain(fromHeader string) (address, d string, ok bool) {
	address = senderAddress(fromHeader)
	if address == "" {
		return "", "", false
	}
	at := strings.LastIndexByte(address, '@')
	if at <= 0 || at == len(address)-1 {
		return address, "", false
	}
	d, ok = NormalizeDomain(address[at+1:])
	return address, d, ok
}

func senderAddress(fromHeader string) string {
	fromHeader = strings.TrimSpace(fromHeader)
	if fromHeader == "" {
		return ""
	}
	if addr, err := mail.ParseAddress(fromHeader); err == nil {
		return strings.ToLower(addr.Address)
	}
	// Several senders: the first one is credited.
	if list, err := mail.ParseAddressList(fromHeader); err == nil && len(list) > 0 {
		return strings.ToLower(list[0].Address)
	}

	// Loose fallback for headers net/mail rejects, e.g. unquoted specials in the name.
	if open := strings.IndexByte(fromHeader, '<'); open >= 0 {
		if end := strings.IndexByte(fromHeader[open:], '>'); end > 0 {
			return strings.ToLower(strings.TrimSpace(fromHeader[open+1 : open+end]))
		}
	}
	for _, f := range strings.Fields(fromHeader) {
		if strings.Contains(f, "@") {
			return strings.ToLower(strings.Trim(f, "<>\"'(),;"))
		}
	}
	return ""
}

// GenerateName derives a display name from a normalized domain:
// mail.example.com -> "Example", my-app.io -> "My App".
func GenerateName(d string) string {
	if u, err := idna.Punycode.ToUnicode(d); err == nil {
		d = u
	}
	labels := strings.Split(d, ".")
	i := 0
	for i < len(labels)-2 && genericLabels[labels[i]] {
		i++
	}

	words := strings.Fields(strings.NewReplacer("-", " ", "_", " ").Replace(labels[i]))
	if len(words) == 0 {
		return unknownPlatformName
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
