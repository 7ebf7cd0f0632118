// Package document owns the router configuration document: its canonical
// shape, hardcoded defaults, the merge-with-default reconciliation used by
// every write path, and the redacted view served to clients.
//
// The document is a single JSON blob in the blobstore. Nothing outside this
// package mutates a loaded document directly; changes go back through Merge
// so a malformed partial update can never corrupt a working configuration.
package document

// ConfigKey is the fixed blobstore key holding the whole document.
const ConfigKey = "router-config"

// SecretMask replaces secret values in the redacted client view. A client
// posting the mask back signals "leave the stored secret unchanged".
const SecretMask = "******"

// Tier keys. The set is fixed; unknown keys are rejected at the HTTP layer.
const (
	TierBeginner     = "beginner"
	TierIntermediate = "intermediate"
	TierAdvanced     = "advanced"
)

// TierKeys lists the known tiers in display order.
var TierKeys = []string{TierBeginner, TierIntermediate, TierAdvanced}

// Prompt page keys, one generation page per tier.
const (
	PromptPage1 = "page1"
	PromptPage2 = "page2"
	PromptPage3 = "page3"
)

// PromptKeys lists the known prompt pages in order.
var PromptKeys = []string{PromptPage1, PromptPage2, PromptPage3}

// Tier holds one tier's destination links and its rotation cursor.
// Invariant: 0 <= NextIndex < max(len(Links), 1); empty Links forces 0.
type Tier struct {
	Links        []string `json:"links"`
	NextIndex    int      `json:"nextIndex"`
	LastServedAt string   `json:"lastServedAt,omitempty"`
}

// AISettings configures the generation provider.
type AISettings struct {
	GASURL       string `json:"gasUrl"`
	GeminiAPIKey string `json:"geminiApiKey"`
	Prompt       string `json:"prompt"`
	MapsLink     string `json:"mapsLink"`
	Model        string `json:"model"`
}

// PromptPage is the per-page prompt template and its sample-data source.
type PromptPage struct {
	GASURL string `json:"gasUrl"`
	Prompt string `json:"prompt"`
}

// Branding carries uploaded images as data URLs (or empty strings).
type Branding struct {
	FaviconDataURL     string `json:"faviconDataUrl"`
	LogoDataURL        string `json:"logoDataUrl"`
	HeaderImageDataURL string `json:"headerImageDataUrl"`
}

// SurveyResults points at the external survey collector.
type SurveyResults struct {
	SpreadsheetURL string `json:"spreadsheetUrl"`
	EndpointURL    string `json:"endpointUrl"`
	APIKey         string `json:"apiKey"`
}

// AdminProfile identifies the tenant administrator.
type AdminProfile struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserProfile is the tenant's store profile used for prompt context.
type UserProfile struct {
	StoreName       string       `json:"storeName"`
	StoreKana       string       `json:"storeKana"`
	Industry        string       `json:"industry"`
	Customers       string       `json:"customers"`
	Strengths       string       `json:"strengths"`
	Keywords        []string     `json:"keywords"`
	ExcludeWords    []string     `json:"excludeWords"`
	NearStation     bool         `json:"nearStation"`
	ReferencePrompt string       `json:"referencePrompt"`
	UserID          string       `json:"userId"`
	Admin           AdminProfile `json:"admin"`
}

// UserDataSettings points at the spreadsheet-backed profile store.
type UserDataSettings struct {
	SpreadsheetURL string `json:"spreadsheetUrl"`
	SubmitGASURL   string `json:"submitGasUrl"`
	ReadGASURL     string `json:"readGasUrl"`
	PasswordSalt   string `json:"passwordSalt,omitempty"`
}

// Question types.
const (
	QuestionDropdown = "dropdown"
	QuestionCheckbox = "checkbox"
	QuestionText     = "text"
	QuestionRating   = "rating"
)

// Rating styles.
const (
	RatingStars   = "stars"
	RatingNumbers = "numbers"
)

// Question is one survey form entry. Options must be non-empty for
// dropdown/checkbox questions; the sanitizer drops violators.
type Question struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Required        bool     `json:"required"`
	Type            string   `json:"type"`
	AllowMultiple   bool     `json:"allowMultiple"`
	Options         []string `json:"options"`
	RatingEnabled   bool     `json:"ratingEnabled"`
	Placeholder     string   `json:"placeholder"`
	RatingStyle     string   `json:"ratingStyle"`
	IncludeInReview bool     `json:"includeInReview"`
}

// Form is one tier's survey form.
type Form struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
}

// Document is the canonical configuration document. Field names mirror the
// stored JSON exactly; this struct is the wire format.
type Document struct {
	Labels           map[string]string     `json:"labels"`
	Tiers            map[string]Tier       `json:"tiers"`
	AISettings       AISettings            `json:"aiSettings"`
	Prompts          map[string]PromptPage `json:"prompts"`
	Branding         Branding              `json:"branding"`
	SurveyResults    SurveyResults         `json:"surveyResults"`
	UserProfile      UserProfile           `json:"userProfile"`
	UserDataSettings UserDataSettings      `json:"userDataSettings"`
	Form1            Form                  `json:"form1"`
	Form2            Form                  `json:"form2"`
	Form3            Form                  `json:"form3"`
	UpdatedAt        *string               `json:"updatedAt"`
}

// FormForPrompt maps a prompt page key to its form.
func (d *Document) FormForPrompt(promptKey string) *Form {
	switch promptKey {
	case PromptPage2:
		return &d.Form2
	case PromptPage3:
		return &d.Form3
	default:
		return &d.Form1
	}
}

func defaultForm1() Form {
	return Form{
		Title:       "体験の満足度を教えてください",
		Description: "星評価と設問にご協力ください。内容は生成されるクチコミのトーンに反映されます。",
		Questions: []Question{
			{
				ID:              "form1-q1",
				Title:           "今回の満足度を教えてください",
				Required:        true,
				Type:            QuestionRating,
				Options:         []string{},
				RatingStyle:     RatingStars,
				IncludeInReview: true,
			},
			{
				ID:              "form1-q2",
				Title:           "良かった点や印象に残ったことを教えてください",
				Type:            QuestionText,
				Options:         []string{},
				Placeholder:     "例：スタッフの対応、雰囲気、味など",
				RatingStyle:     RatingStars,
				IncludeInReview: true,
			},
		},
	}
}

func defaultForm2() Form {
	return Form{
		Title:       "アンケートにご協力ください",
		Description: "選択式の設問に答えると、回答をもとにクチコミ文章を生成します。",
		Questions: []Question{
			{
				ID:              "form2-q1",
				Title:           "今回の満足度を教えてください",
				Required:        true,
				Type:            QuestionRating,
				Options:         []string{},
				RatingStyle:     RatingStars,
				IncludeInReview: true,
			},
			{
				ID:              "form2-q2",
				Title:           "特に良かったものを選んでください",
				Required:        true,
				Type:            QuestionCheckbox,
				AllowMultiple:   true,
				Options:         []string{"接客", "雰囲気", "価格", "品質"},
				RatingStyle:     RatingStars,
				IncludeInReview: true,
			},
		},
	}
}

func defaultForm3() Form {
	return Form{
		Title:       "くわしい感想をお聞かせください",
		Description: "文章での回答をもとに、200文字程度のクチコミを生成します。",
		Questions: []Question{
			{
				ID:              "form3-q1",
				Title:           "今回の満足度を教えてください",
				Required:        true,
				Type:            QuestionRating,
				Options:         []string{},
				RatingStyle:     RatingStars,
				IncludeInReview: true,
			},
			{
				ID:              "form3-q2",
				Title:           "体験の感想を自由にお書きください",
				Required:        true,
				Type:            QuestionText,
				Options:         []string{},
				Placeholder:     "例：来店のきっかけ、印象に残ったことなど",
				RatingStyle:     RatingStars,
				IncludeInReview: true,
			},
		},
	}
}

// Defaults returns the hardcoded default document. Every top-level key is
// populated; the merge output is always at least this shape.
func Defaults() Document {
	return Document{
		Labels: map[string]string{
			TierBeginner:     "初級",
			TierIntermediate: "中級",
			TierAdvanced:     "上級",
		},
		Tiers: map[string]Tier{
			TierBeginner:     {Links: []string{}},
			TierIntermediate: {Links: []string{}},
			TierAdvanced:     {Links: []string{}},
		},
		AISettings: AISettings{},
		Prompts: map[string]PromptPage{
			PromptPage1: {},
			PromptPage2: {},
			PromptPage3: {},
		},
		Branding:         Branding{},
		SurveyResults:    SurveyResults{},
		UserProfile:      UserProfile{Keywords: []string{}, ExcludeWords: []string{}},
		UserDataSettings: UserDataSettings{},
		Form1:            defaultForm1(),
		Form2:            defaultForm2(),
		Form3:            defaultForm3(),
	}
}
