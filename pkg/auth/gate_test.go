package auth

import (
	"testing"

	"github.com/gbp-politico/gabinete/pkg/domain"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   GateInput
		want GateDecision
	}{
		{
			name: "unauthenticated visit to protected path",
			in:   GateInput{RequireAuth: true, Path: "/app/eleitores"},
			want: GateDecision{Verdict: VerdictRedirectLogin, From: "/app/eleitores"},
		},
		{
			name: "authenticated visit to public-only path",
			in:   GateInput{RequireAuth: false, Authenticated: true, Path: "/login"},
			want: GateDecision{Verdict: VerdictRedirectAway},
		},
		{
			name: "unauthenticated visit to public path",
			in:   GateInput{RequireAuth: false, Path: "/login"},
			want: GateDecision{Verdict: VerdictAllow},
		},
		{
			name: "authenticated without organization",
			in:   GateInput{RequireAuth: true, Authenticated: true, Path: "/app/dashboard"},
			want: GateDecision{Verdict: VerdictSelectOrganization},
		},
		{
			name: "cancelled organization blocks any protected path",
			in: GateInput{
				RequireAuth:     true,
				Authenticated:   true,
				HasOrganization: true,
				Classification:  domain.Classification{Class: domain.ClassCancelled},
			},
			want: GateDecision{Verdict: VerdictBlock, Reason: domain.ClassCancelled},
		},
		{
			name: "expired trial blocks",
			in: GateInput{
				RequireAuth:     true,
				Authenticated:   true,
				HasOrganization: true,
				Classification:  domain.Classification{Class: domain.ClassTrialExpired},
			},
			want: GateDecision{Verdict: VerdictBlock, Reason: domain.ClassTrialExpired},
		},
		{
			name: "unknown classification blocks conservatively",
			in: GateInput{
				RequireAuth:     true,
				Authenticated:   true,
				HasOrganization: true,
				Classification:  domain.Classification{Class: domain.ClassUnknown},
			},
			want: GateDecision{Verdict: VerdictBlock, Reason: domain.ClassUnknown},
		},
		{
			name: "expiring trial allows with warning",
			in: GateInput{
				RequireAuth:     true,
				Authenticated:   true,
				HasOrganization: true,
				Classification:  domain.Classification{Class: domain.ClassTrialExpiring, DaysLeft: 3},
			},
			want: GateDecision{Verdict: VerdictAllowWithWarning, DaysLeft: 3},
		},
		{
			name: "active organization allows",
			in: GateInput{
				RequireAuth:     true,
				Authenticated:   true,
				HasOrganization: true,
				Classification:  domain.Classification{Class: domain.ClassActive},
			},
			want: GateDecision{Verdict: VerdictAllow},
		},
		{
			name: "healthy trial allows",
			in: GateInput{
				RequireAuth:     true,
				Authenticated:   true,
				HasOrganization: true,
				Classification:  domain.Classification{Class: domain.ClassTrialActive},
			},
			want: GateDecision{Verdict: VerdictAllow},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Decide(tt.in)
			if got != tt.want {
				t.Errorf("Decide() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDecide_ResolvesExactlyOneVerdict(t *testing.T) {
	// Walk the whole boolean input space with every classification and
	// assert the gate always lands on a defined verdict.
	classes := []domain.AccessClass{
		domain.ClassActive, domain.ClassTrialActive, domain.ClassTrialExpiring,
		domain.ClassTrialExpired, domain.ClassCancelled, domain.ClassUnknown,
	}
	known := map[GateVerdict]bool{
		VerdictAllow: true, VerdictAllowWithWarning: true,
		VerdictRedirectLogin: true, VerdictRedirectAway: true,
		VerdictSelectOrganization: true, VerdictBlock: true,
	}

	for _, requireAuth := range []bool{true, false} {
		for _, authenticated := range []bool{true, false} {
			for _, hasOrg := range []bool{true, false} {
				for _, class := range classes {
					got := Decide(GateInput{
						RequireAuth:     requireAuth,
						Authenticated:   authenticated,
						HasOrganization: hasOrg,
						Classification:  domain.Classification{Class: class},
					})
					if !known[got.Verdict] {
						t.Fatalf("Decide(%v,%v,%v,%s) produced undefined verdict %q",
							requireAuth, authenticated, hasOrg, class, got.Verdict)
					}
				}
			}
		}
	}
}
