package signals

// Raw classifier category names, matching the moderation endpoint's response
// keys verbatim.
const (
	CategoryHarassment            = "harassment"
	CategoryHarassmentThreatening = "harassment/threatening"
	CategoryHate                  = "hate"
	CategoryHateThreatening       = "hate/threatening"
	CategorySelfHarm              = "self-harm"
	CategorySelfHarmIntent        = "self-harm/intent"
	CategorySelfHarmInstructions  = "self-harm/instructions"
	CategorySexual                = "sexual"
	CategorySexualMinors          = "sexual/minors"
	CategoryViolence              = "violence"
	CategoryViolenceGraphic       = "violence/graphic"
)

const (
	SentimentPositive = "Positive"
	SentimentNegative = "Negative"
	SentimentNeutral  = "Neutral"
)

// SignalSet is the full classifier output for one content item. Computed once
// per item and not mutated afterward.
type SignalSet struct {
	// per-category booleans and probabilities, keyed by the Category*
	// constants above
	Categories map[string]bool
	Scores     map[string]float64
	// the classifier's own aggregate flag, taken verbatim (never recomputed
	// client-side, to preserve the classifier's calibrated boundary)
	Flagged   bool
	Sentiment string
	// image path, only populated for image-bearing items
	ImageTags        string
	AIGeneratedScore float64
}

func NewSignalSet() SignalSet {
	return SignalSet{
		Categories: make(map[string]bool),
		Scores:     make(map[string]float64),
		Sentiment:  SentimentNeutral,
	}
}

// The OR-of-subcategories derivations below are the only normalization step
// between raw classifier output and reporting.

func (s *SignalSet) HateSpeech() bool {
	return s.Categories[CategoryHate] || s.Categories[CategoryHateThreatening]
}

func (s *SignalSet) Harassment() bool {
	return s.Categories[CategoryHarassment] || s.Categories[CategoryHarassmentThreatening]
}

func (s *SignalSet) SelfHarm() bool {
	return s.Categories[CategorySelfHarm] || s.Categories[CategorySelfHarmIntent] || s.Categories[CategorySelfHarmInstructions]
}

func (s *SignalSet) SexualContent() bool {
	return s.Categories[CategorySexual] || s.Categories[CategorySexualMinors]
}

func (s *SignalSet) Violence() bool {
	return s.Categories[CategoryViolence] || s.Categories[CategoryViolenceGraphic]
}
