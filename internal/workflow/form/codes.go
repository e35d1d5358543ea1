package form

// Legal-nature codes as stored on the wire.
const (
	LegalNaturePrivateCompany = "PTY_LTD"
	LegalNaturePublicCompany  = "PUBLIC"
	LegalNatureCloseCorp      = "CC"
	LegalNatureSoleProprietor = "SOLE_PROP"
	LegalNaturePartnership    = "PARTNERSHIP"
	LegalNatureNonProfit      = "NPC"
	LegalNatureTrust          = "TRUST"
	LegalNatureOther          = "OTHER"
)

// LegalNatureFallbackLabel is shown for unknown or legacy codes.
const LegalNatureFallbackLabel = "Other"

var legalNatureLabels = map[string]string{
	LegalNaturePrivateCompany: "Private Company (Pty) Ltd",
	LegalNaturePublicCompany:  "Public Company (Ltd)",
	LegalNatureCloseCorp:      "Close Corporation",
	LegalNatureSoleProprietor: "Sole Proprietor",
	LegalNaturePartnership:    "Partnership",
	LegalNatureNonProfit:      "Non-Profit Company",
	LegalNatureTrust:          "Trust",
	LegalNatureOther:          LegalNatureFallbackLabel,
}

// ExpandLegalNature maps a wire code to its display label. Unknown codes,
// including legacy ones, map to LegalNatureFallbackLabel. An empty code stays
// empty.
func ExpandLegalNature(code string) string {
	if code == "" {
		return ""
	}
	if label, ok := legalNatureLabels[code]; ok {
		return label
	}
	return LegalNatureFallbackLabel
}

// CollapseLegalNature maps a display label (or an already valid code) back to
// its wire code. Anything unrecognised becomes LegalNatureOther.
func CollapseLegalNature(value string) string {
	if value == "" {
		return ""
	}
	if _, ok := legalNatureLabels[value]; ok {
		return value
	}
	for code, label := range legalNatureLabels {
		if label == value {
			return code
		}
	}
	return LegalNatureOther
}

// KnownLegalNature reports whether value is a known code or display label.
func KnownLegalNature(value string) bool {
	if _, ok := legalNatureLabels[value]; ok {
		return true
	}
	for _, label := range legalNatureLabels {
		if label == value {
			return true
		}
	}
	return false
}
