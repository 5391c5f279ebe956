package scoring

import "github.com/dmitrijs2005/ashdiag/internal/server/models"

// Dimension is one contiguous block of questions scored together.
type Dimension struct {
	Name      string
	Questions int
	Finding   string
	Action    string
}

var personas = []Dimension{
	{"Leadership", 5, "Leadership capabilities need strengthening", "Implement a leadership development program"},
	{"Climate", 5, "Workplace climate needs intervention", "Run a climate survey and an improvement plan"},
	{"Retention", 5, "Significant risk of talent turnover", "Design a retention strategy for key talent"},
	{"Performance", 5, "Evaluation and development system needs improvement", "Review the evaluation and feedback system"},
	{"Adaptation", 5, "Limited organizational resilience", "Establish change management protocols"},
}

var empresas = []Dimension{
	{"Governance", 4, "Governance structure needs formalization", "Formalize committee and governance structure"},
	{"Processes", 4, "Operating processes need optimization", "Document and optimize critical processes"},
	{"Technology", 3, "Technology infrastructure needs modernization", "Assess infrastructure and plan digitalization"},
	{"Finance", 4, "Financial control needs strengthening", "Implement financial controls and reporting"},
	{"Market", 3, "Vulnerable competitive positioning", "Develop a positioning strategy"},
	{"Talent", 4, "Human capital management needs improvement", "Create an organizational development plan"},
	{"Scalability", 3, "Constraints on sustainable growth", "Design a scalable growth model"},
}

const fallbackFinding = "Improvement area identified"

var generalRecommendation = map[models.Status]string{
	models.StatusCritical:  "Immediate intervention required. Contact your consultant for an urgent action plan.",
	models.StatusAlert:     "Corrective action needed within the next 30 days.",
	models.StatusStable:    "Continuous monitoring and incremental improvements recommended.",
	models.StatusExcellent: "Keep good practices and look for optimizations.",
}

// Dimensions returns the dimension table for product, in question order.
// Unknown products yield nil.
func Dimensions(p models.Product) []Dimension {
	switch p {
	case models.ProductPersonas:
		return personas
	case models.ProductEmpresas:
		return empresas
	default:
		return nil
	}
}

// QuestionCount is the total number of questions for product.
func QuestionCount(p models.Product) int {
	n := 0
	for _, d := range Dimensions(p) {
		n += d.Questions
	}
	return n
}
