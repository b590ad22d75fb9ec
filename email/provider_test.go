package email

import (
	"context"
	"testing"
)

func TestDefaultTableResolve(t *testing.T) {
	r := NewDefaultResolver()

	cases := []struct {
		address string
		want    Provider
		ok      bool
	}{
		{"alice@gmail.com", ProviderGmail, true},
		{"bob@googlemail.com", ProviderGmail, true},
		{"carol@outlook.com", ProviderOutlook, true},
		{"dave@hotmail.com", ProviderOutlook, true},
		{"erin@live.com", ProviderOutlook, true},
		{"frank@unknownmail.xyz", "", false},
		{"no-at-sign", "", false},
		{"", "", false},
		{"trailing@", "", false},
	}

	for _, tc := range cases {
		got, ok := r.Resolve(tc.address)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tc.address, got, ok, tc.want, tc.ok)
		}
	}
}

func TestResolveCaseInsensitiveDomain(t *testing.T) {
	r := NewDefaultResolver()

	for _, addr := range []string{"Alice@GMAIL.com", "alice@Gmail.Com"} {
		got, ok := r.Resolve(addr)
		if !ok || got != ProviderGmail {
			t.Errorf("Resolve(%q) = (%q, %v), want (gmail, true)", addr, got, ok)
		}
	}
}

func TestResolveUsesLastAtSign(t *testing.T) {
	r := NewDefaultResolver()

	// Quoted local parts may contain '@'; the domain is after the last one.
	got, ok := r.Resolve(`"weird@local"@outlook.com`)
	if !ok || got != ProviderOutlook {
		t.Fatalf("Resolve = (%q, %v), want (outlook, true)", got, ok)
	}
}

func TestTableResolverCopiesAndLowercases(t *testing.T) {
	table := DomainTable{"Example.COM": Provider("corp")}
	r := NewTableResolver(table)

	// Mutating the source table after construction must not affect lookups.
	table["example.com"] = Provider("other")
	delete(table, "Example.COM")

	got, ok := r.Resolve("user@example.com")
	if !ok || got != Provider("corp") {
		t.Fatalf("Resolve = (%q, %v), want (corp, true)", got, ok)
	}
}

func TestTableResolverDeterministic(t *testing.T) {
	r := NewDefaultResolver()

	first, ok1 := r.Resolve("same@gmail.com")
	second, ok2 := r.Resolve("same@gmail.com")
	if first != second || ok1 != ok2 {
		t.Fatalf("Resolve not deterministic: (%q,%v) vs (%q,%v)", first, ok1, second, ok2)
	}
}

func TestNewSMTPSenderValidation(t *testing.T) {
	if _, err := NewSMTPSender(nil); err == nil {
		t.Fatal("expected error for empty account map")
	}

	accounts := map[Provider]SMTPConfig{
		ProviderGmail: {Port: 587},
	}
	if _, err := NewSMTPSender(accounts); err == nil {
		t.Fatal("expected error for account without host")
	}
}

func TestSendUnknownProviderAccount(t *testing.T) {
	sender, err := NewSMTPSender(map[Provider]SMTPConfig{
		ProviderGmail: {Host: "smtp.gmail.com", Port: 587, TLS: true},
	})
	if err != nil {
		t.Fatalf("NewSMTPSender error: %v", err)
	}

	msg := Message{From: "noreply@example.com", To: "user@outlook.com", Subject: "x", Text: "y"}
	if err := sender.Send(context.Background(), msg, ProviderOutlook); err == nil {
		t.Fatal("expected error for provider without a registered account")
	}
}
