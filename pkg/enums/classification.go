package enums

// Classification labels assigned by the document processing pipeline.
// The AI service is the source of truth; unknown labels are stored as-is
// so a model update cannot break ingestion, but these cover the UI facets.
type Classification string

const (
	ClassificationInvoice       Classification = "Invoice"
	ClassificationSafetyNotice  Classification = "Safety Notice"
	ClassificationHRPolicy      Classification = "HR Policy"
	ClassificationEngineering   Classification = "Engineering Drawing"
	ClassificationRegulatory    Classification = "Regulatory Circular"
	ClassificationCorrespondent Classification = "Correspondence"
	ClassificationOther         Classification = "Other"
)

// String implements fmt.Stringer.
func (c Classification) String() string {
	return string(c)
}
