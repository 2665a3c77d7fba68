package auth

import "github.com/gbp-politico/gabinete/pkg/domain"

// GateVerdict is the outcome of the access gate for one request.
type GateVerdict string

const (
	// VerdictAllow renders the requested content.
	VerdictAllow GateVerdict = "allow"
	// VerdictAllowWithWarning renders the content plus a dismissible
	// trial-expiry warning carrying the days remaining.
	VerdictAllowWithWarning GateVerdict = "allow-with-warning"
	// VerdictRedirectLogin sends an unauthenticated visitor to the login
	// surface, remembering where they were headed.
	VerdictRedirectLogin GateVerdict = "redirect-login"
	// VerdictRedirectAway moves an authenticated visitor off a
	// public-only surface (the login page) to the landing page.
	VerdictRedirectAway GateVerdict = "redirect-away"
	// VerdictSelectOrganization sends an authenticated visitor without a
	// tenant to the organization picker.
	VerdictSelectOrganization GateVerdict = "select-organization"
	// VerdictBlock suppresses the content behind a blocking notice with a
	// classification-specific reason and a single exit to login.
	VerdictBlock GateVerdict = "block"
)

// GateInput is everything the gate looks at for one navigation.
type GateInput struct {
	Authenticated   bool
	HasOrganization bool
	Classification  domain.Classification
	RequireAuth     bool
	Path            string
}

// GateDecision is exactly one resolved outcome. The gate never fails: an
// unknown classification folds into the blocking branch rather than
// granting access.
type GateDecision struct {
	Verdict GateVerdict
	// From preserves the requested path for post-login return.
	From string
	// Reason names the blocking classification.
	Reason domain.AccessClass
	// DaysLeft accompanies the trial-expiry warning.
	DaysLeft int
}

// Decide resolves the access decision table. Pure: it is re-evaluated on
// every request, never cached. Each concrete guard in the router is just a
// RequireAuth configuration over this one function.
func Decide(in GateInput) GateDecision {
	if in.RequireAuth && !in.Authenticated {
		return GateDecision{Verdict: VerdictRedirectLogin, From: in.Path}
	}

	if !in.RequireAuth {
		if in.Authenticated {
			return GateDecision{Verdict: VerdictRedirectAway}
		}
		return GateDecision{Verdict: VerdictAllow}
	}

	if !in.HasOrganization {
		return GateDecision{Verdict: VerdictSelectOrganization}
	}

	if in.Classification.Blocking() {
		return GateDecision{Verdict: VerdictBlock, Reason: in.Classification.Class}
	}

	if in.Classification.Class == domain.ClassTrialExpiring {
		return GateDecision{Verdict: VerdictAllowWithWarning, DaysLeft: in.Classification.DaysLeft}
	}

	return GateDecision{Verdict: VerdictAllow}
}
