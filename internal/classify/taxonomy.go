package classify

// KeywordGroup is one named cluster of ad-indicating keywords. Groups exist
// for provenance only; every hit carries the same per-field weight.
type KeywordGroup struct {
	Name     string
	Keywords []string
}

// Category pairs a category tag with its keyword set. Categories are
// evaluated in slice order; the first intersecting one wins.
type Category struct {
	Name     string
	Keywords []string
}

// Taxonomy is the classifier's keyword data. It is configuration, not logic:
// adding a category or keyword requires no code change.
type Taxonomy struct {
	AdKeywords      []KeywordGroup
	BrandIndicators []string
	Categories      []Category
}

// DefaultTaxonomy returns the keyword policy observed in production crawls.
func DefaultTaxonomy() Taxonomy {
	return Taxonomy{
		AdKeywords: []KeywordGroup{
			{Name: "direct", Keywords: []string{
				"advertisement", "commercial", "sponsored", "ad", "promo", "promotion",
			}},
			{Name: "romanian", Keywords: []string{
				"publicitate", "reclamă", "reclama", "promovare", "sponsor",
			}},
			{Name: "action", Keywords: []string{
				"buy now", "order now", "limited time", "special offer", "discount",
			}},
			{Name: "brand", Keywords: []string{
				"official", "new product", "launch", "campaign", "brand new",
			}},
			{Name: "sales", Keywords: []string{
				"sale", "offer", "deal", "price", "cost", "free shipping",
			}},
		},
		BrandIndicators: []string{
			"official", "brand", "company", "corp", "inc", "ltd", "shop",
		},
		Categories: []Category{
			{Name: "automotive", Keywords: []string{
				"car", "auto", "vehicle", "mașină", "automobil",
				"bmw", "mercedes", "audi", "toyota",
			}},
			{Name: "technology", Keywords: []string{
				"tech", "phone", "computer", "software", "app",
				"samsung", "apple", "google", "microsoft",
			}},
			{Name: "food_beverage", Keywords: []string{
				"food", "drink", "restaurant", "mâncare", "băutură",
				"coca cola", "pepsi", "mcdonalds",
			}},
			{Name: "fashion", Keywords: []string{
				"fashion", "clothing", "style", "modă",
				"nike", "adidas", "zara", "h&m",
			}},
			{Name: "beauty", Keywords: []string{
				"beauty", "cosmetics", "makeup", "frumusețe",
				"loreal", "maybelline", "nivea",
			}},
			{Name: "finance", Keywords: []string{
				"bank", "finance", "money", "credit", "bancă",
				"ing", "bcr", "raiffeisen",
			}},
			{Name: "retail", Keywords: []string{
				"shop", "store", "mall", "magazin",
				"emag", "altex", "dedeman", "kaufland",
			}},
			{Name: "entertainment", Keywords: []string{
				"game", "movie", "music",
				"netflix", "hbo", "disney", "spotify",
			}},
		},
	}
}
