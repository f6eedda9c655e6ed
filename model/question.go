package model

// QuestionKind is the input widget a question expects. The values are the
// wire names used by the chat UI.
type QuestionKind string

const (
	KindText     QuestionKind = "text"
	KindTextarea QuestionKind = "textarea"
	KindSelect   QuestionKind = "select"
)

// Dependency makes a question applicable only when an earlier answer
// matches RequiredValue exactly.
type Dependency struct {
	DependsOnID   string `json:"depends_on"`
	RequiredValue string `json:"depends_value"`
}

type Question struct {
	ID       string       `json:"id"`
	Prompt   string       `json:"question"`
	Kind     QuestionKind `json:"type"`
	Options  []string     `json:"options,omitempty"` // set iff Kind == KindSelect
	Required bool         `json:"required"`
	Depends  *Dependency  `json:"depends,omitempty"`
}

// WorkflowSteps are the eleven steps of the PMM workflow, in order.
// Step 1 is the fixed intake wizard; the rest are free-form chat.
var WorkflowSteps = []string{
	"Context Gathering & Planning",
	"Customer Understanding & Persona Development",
	"Stakeholder & Customer Interviews",
	"Category & Competitive Positioning",
	"Feature/Benefit Translation (\"Product Legos\")",
	"Positioning Statement Creation",
	"Positioning Workshop Facilitation",
	"Messaging Framework & Brand Essence",
	"Proof Points & Narrative",
	"Asset Generation & Application",
	"Asset Inventory & Message Testing",
}

// Step1Questions returns the fixed Step 1 question list. The order, ids,
// options and dependency wiring are load-bearing: the product_name
// question is only asked when the exercise targets a specific
// segment/product.
func Step1Questions() []Question {
	return []Question{
		{
			ID:       "company_name",
			Prompt:   "What is your company name?",
			Kind:     KindText,
			Required: true,
		},
		{
			ID:       "company_description",
			Prompt:   "Please provide a brief description of what your company does.",
			Kind:     KindTextarea,
			Required: true,
		},
		{
			ID:       "customer_description",
			Prompt:   "Please provide a brief description of who your customers are.",
			Kind:     KindTextarea,
			Required: true,
		},
		{
			ID:       "positioning_experience",
			Prompt:   "Are you doing the positioning and messaging exercise for the first time, or are you repositioning an existing brand?",
			Kind:     KindSelect,
			Options:  []string{"First time", "Repositioning existing brand"},
			Required: true,
		},
		{
			ID:       "company_scope",
			Prompt:   "Are you doing this exercise for the whole company or a specific segment/product?",
			Kind:     KindSelect,
			Options:  []string{"Whole company", "Specific segment/product"},
			Required: true,
		},
		{
			ID:       "product_name",
			Prompt:   "What is the name of the specific segment or product you are positioning?",
			Kind:     KindText,
			Required: false,
			Depends: &Dependency{
				DependsOnID:   "company_scope",
				RequiredValue: "Specific segment/product",
			},
		},
	}
}
