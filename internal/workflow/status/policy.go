package status

import (
	"strings"

	"supplierportal/internal/model"
	"supplierportal/internal/workflow/form"
)

// RoutingPolicy decides whether a procurement approval hands the application
// to legal review (true) or approves it outright (false).
type RoutingPolicy func(app *model.Application) bool

// AlwaysLegal routes every procurement approval to legal review.
func AlwaysLegal() RoutingPolicy {
	return func(*model.Application) bool { return true }
}

// NeverLegal approves on procurement sign-off alone.
func NeverLegal() RoutingPolicy {
	return func(*model.Application) bool { return false }
}

// LegalReviewFor requires legal review for the listed legal-nature codes.
// Display labels stored in the record are collapsed to codes first.
func LegalReviewFor(codes ...string) RoutingPolicy {
	set := make(map[string]bool, len(codes))
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			set[strings.ToUpper(c)] = true
		}
	}
	return func(app *model.Application) bool {
		if app == nil {
			return false
		}
		raw, _ := app.Fields[form.FieldLegalNature].(string)
		return set[form.CollapseLegalNature(raw)]
	}
}

// PolicyFromConfig builds the policy named by mode: "always", "never" or
// "entity_types" (which uses codes).
func PolicyFromConfig(mode string, codes []string) RoutingPolicy {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "always":
		return AlwaysLegal()
	case "never":
		return NeverLegal()
	default:
		return LegalReviewFor(codes...)
	}
}
