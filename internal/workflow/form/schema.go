// Package form describes the supplier application form: its steps, scalar
// fields, file slots and the rules a complete submission must satisfy.
package form

import "supplierportal/internal/workflow/fileref"

// Kind is the scalar type of a field.
type Kind int

const (
	Text Kind = iota
	Number
	Bool
)

// Step positions in the linear form.
const (
	StepBasicInformation = iota
	StepEntityDetails
	StepDeclarations
	StepReview
)

// StepNames are the display names, indexed by step position.
var StepNames = []string{
	"Basic Information",
	"Entity Details",
	"Declarations",
	"Review",
}

// StepCount is the number of form steps.
func StepCount() int { return len(StepNames) }

// Field is a scalar attribute. Rule is a validator tag checked when the step
// is completed and again at submission.
type Field struct {
	Name string
	Kind Kind
	Step int
	Rule string
}

// FileSlot is a named file-bearing field.
type FileSlot struct {
	Name string
	Step int
	List bool
	Max  int
}

const (
	FieldSupplierName        = "supplierName"
	FieldTradingName         = "tradingName"
	FieldRegistrationNumber  = "registrationNumber"
	FieldTaxNumber           = "taxNumber"
	FieldContactPerson       = "contactPerson"
	FieldContactEmail        = "contactEmail"
	FieldContactPhone        = "contactPhone"
	FieldPhysicalAddress     = "physicalAddress"
	FieldLegalNature         = "legalNature"
	FieldServiceCategory     = "serviceCategory"
	FieldEmployeeCount       = "employeeCount"
	FieldBankName            = "bankName"
	FieldAccountNumber       = "accountNumber"
	FieldBranchCode          = "branchCode"
	FieldConflictOfInterest  = "hasConflictOfInterest"
	FieldConflictDetails     = "conflictDetails"
	FieldDeclarationAccepted = "declarationAccepted"
	FieldSignatoryName       = "signatoryName"

	SlotCertificateOfIncorporation = "certificateOfIncorporation"
	SlotTaxClearance               = "taxClearance"
	SlotBankConfirmation           = "bankConfirmation"
	SlotDirectorIDs                = "directorIds"
)

// Fields lists every scalar field in form order.
var Fields = []Field{
	{Name: FieldSupplierName, Kind: Text, Step: StepBasicInformation, Rule: "required,max=200"},
	{Name: FieldTradingName, Kind: Text, Step: StepBasicInformation, Rule: "omitempty,max=200"},
	{Name: FieldRegistrationNumber, Kind: Text, Step: StepBasicInformation, Rule: "required"},
	{Name: FieldTaxNumber, Kind: Text, Step: StepBasicInformation, Rule: "omitempty,numeric"},
	{Name: FieldContactPerson, Kind: Text, Step: StepBasicInformation, Rule: "required"},
	{Name: FieldContactEmail, Kind: Text, Step: StepBasicInformation, Rule: "required,email"},
	{Name: FieldContactPhone, Kind: Text, Step: StepBasicInformation, Rule: "required,min=7,max=20"},
	{Name: FieldPhysicalAddress, Kind: Text, Step: StepBasicInformation, Rule: "required"},

	{Name: FieldLegalNature, Kind: Text, Step: StepEntityDetails, Rule: "required,legalnature"},
	{Name: FieldServiceCategory, Kind: Text, Step: StepEntityDetails, Rule: "required"},
	{Name: FieldEmployeeCount, Kind: Number, Step: StepEntityDetails, Rule: "omitempty,min=0"},
	{Name: FieldBankName, Kind: Text, Step: StepEntityDetails, Rule: "required"},
	{Name: FieldAccountNumber, Kind: Text, Step: StepEntityDetails, Rule: "required,numeric"},
	{Name: FieldBranchCode, Kind: Text, Step: StepEntityDetails, Rule: "required,numeric"},

	{Name: FieldConflictOfInterest, Kind: Bool, Step: StepDeclarations},
	{Name: FieldConflictDetails, Kind: Text, Step: StepDeclarations},
	{Name: FieldDeclarationAccepted, Kind: Bool, Step: StepDeclarations, Rule: "required"},
	{Name: FieldSignatoryName, Kind: Text, Step: StepDeclarations, Rule: "required"},
}

// FileSlots lists every file slot in form order.
var FileSlots = []FileSlot{
	{Name: SlotCertificateOfIncorporation, Step: StepEntityDetails},
	{Name: SlotTaxClearance, Step: StepEntityDetails},
	{Name: SlotBankConfirmation, Step: StepEntityDetails},
	{Name: SlotDirectorIDs, Step: StepEntityDetails, List: true, Max: fileref.DefaultMaxListItems},
}

// FieldByName looks up a scalar field.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// SlotByName looks up a file slot.
func SlotByName(name string) (FileSlot, bool) {
	for _, s := range FileSlots {
		if s.Name == name {
			return s, true
		}
	}
	return FileSlot{}, false
}

// FieldsForStep returns the scalar fields shown on one step.
func FieldsForStep(step int) []Field {
	var out []Field
	for _, f := range Fields {
		if f.Step == step {
			out = append(out, f)
		}
	}
	return out
}

// ZeroValue is the value an unset field of kind k is checked and sent as.
func ZeroValue(k Kind) any {
	switch k {
	case Number:
		return float64(0)
	case Bool:
		return false
	default:
		return ""
	}
}
