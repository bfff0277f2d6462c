package domain

// Category is the closed set of platform categories.
type Category string

const (
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategorySocial        Category = "social"
	CategoryProductivity  Category = "productivity"
	CategoryFinance       Category = "finance"
	CategoryEducation     Category = "education"
	CategoryTravel        Category = "travel"
	CategoryNews          Category = "news"
	CategoryHealth        Category = "health"
	CategoryFood          Category = "food"
	CategoryDeveloper     Category = "developer"
	CategoryCommunication Category = "communication"
	CategoryGaming        Category = "gaming"
	CategoryOther         Category = "other"
)

var validCategories = map[Category]bool{
	CategoryEntertainment: true,
	CategoryShopping:      true,
	CategorySocial:        true,
	CategoryProductivity:  true,
	CategoryFinance:       true,
	CategoryEducation:     true,
	CategoryTravel:        true,
	CategoryNews:          true,
	CategoryHealth:        true,
	CategoryFood:          true,
	CategoryDeveloper:     true,
	CategoryCommunication: true,
	CategoryGaming:        true,
	CategoryOther:         true,
}

func (c Category) IsValid() bool {
	return validCategories[c]
}

// DetectionMethod records which classification step produced a result.
type DetectionMethod string

const (
	DetectionDirectMatch      DetectionMethod = "direct_match"
	DetectionAliasMatch       DetectionMethod = "alias_match"
	DetectionKeywordMatch     DetectionMethod = "keyword_match"
	DetectionDomainGeneration DetectionMethod = "domain_generation"
	DetectionFallback         DetectionMethod = "fallback"
)

// ClassificationResult is the flat classifier output consumed downstream.
type ClassificationResult struct {
	PlatformName    string          `json:"platform_name"`
	Domain          string          `json:"domain"`
	Category        Category        `json:"category"`
	Confidence      int             `json:"confidence"`
	DetectionMethod DetectionMethod `json:"detection_method"`
}
