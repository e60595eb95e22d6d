package claim

// Transition describes one permitted edge of the claim lifecycle
type Transition struct {
	From          Status `json:"from" yaml:"from"`
	To            Status `json:"to" yaml:"to"`
	Label         string `json:"label" yaml:"label"`
	Description   string `json:"description" yaml:"description"`
	RequiresNotes bool   `json:"requires_notes" yaml:"requires_notes"`
}
