package email

import "strings"

// Provider identifies a delivery mechanism. Providers are plain names so
// callers can register their own alongside the built-in ones.
type Provider string

const (
	// ProviderGmail delivers through the gmail SMTP account.
	ProviderGmail Provider = "gmail"
	// ProviderOutlook delivers through the outlook SMTP account.
	ProviderOutlook Provider = "outlook"
)

// Resolver maps an email address to the provider used to reach it. Resolve
// must be deterministic and side-effect free; unknown domains return ok=false.
type Resolver interface {
	Resolve(address string) (provider Provider, ok bool)
}

// DomainTable maps lower-case email domains to providers.
type DomainTable map[string]Provider

// DefaultTable covers the providers shipped with this package.
func DefaultTable() DomainTable {
	return DomainTable{
		"gmail.com":      ProviderGmail,
		"googlemail.com": ProviderGmail,
		"outlook.com":    ProviderOutlook,
		"hotmail.com":    ProviderOutlook,
		"live.com":       ProviderOutlook,
	}
}

// TableResolver resolves providers from a domain table populated at startup.
// It is immutable after construction and safe for concurrent use.
type TableResolver struct {
	table DomainTable
}

// NewTableResolver copies table into a resolver. Domain keys are normalized to
// lower case.
func NewTableResolver(table DomainTable) *TableResolver {
	copied := make(DomainTable, len(table))
	for domain, provider := range table {
		copied[strings.ToLower(domain)] = provider
	}
	return &TableResolver{table: copied}
}

// NewDefaultResolver returns a resolver over [DefaultTable].
func NewDefaultResolver() *TableResolver {
	return NewTableResolver(DefaultTable())
}

// Resolve returns the provider for the domain portion of address. Addresses
// without a domain portion and domains outside the table resolve to ok=false.
func (r *TableResolver) Resolve(address string) (Provider, bool) {
	at := strings.LastIndexByte(address, '@')
	if at < 0 || at == len(address)-1 {
		return "", false
	}

	provider, ok := r.table[strings.ToLower(address[at+1:])]
	return provider, ok
}
