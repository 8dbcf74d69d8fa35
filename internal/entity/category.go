package entity

import "strings"

// Category is a folder path under the images root. The set is fixed.
type Category string

const (
	CategoryBrand          Category = "01_brand"
	CategoryHero           Category = "02_hero"
	CategoryProducts       Category = "03_products"
	CategoryProductCore    Category = "03_products/hiperliga"
	CategoryProductTexture Category = "03_products/texturas"
	CategoryProductFinish  Category = "03_products/grafiatos"
	CategoryProductPaint   Category = "03_products/tintas"
	CategoryBenefits       Category = "04_benefits"
	CategoryGallery        Category = "05_gallery"
	CategoryAbout          Category = "06_about"
	CategorySocial         Category = "07_social"
	CategoryMisc           Category = "08_misc"
)

// AllCategories lists every category in folder order, parents before children.
var AllCategories = []Category{
	CategoryBrand,
	CategoryHero,
	CategoryProducts,
	CategoryProductCore,
	CategoryProductTexture,
	CategoryProductFinish,
	CategoryProductPaint,
	CategoryBenefits,
	CategoryGallery,
	CategoryAbout,
	CategorySocial,
	CategoryMisc,
}

var categoryDescriptions = map[Category]string{
	CategoryBrand:          "Logos and visual identity",
	CategoryHero:           "Hero images and backgrounds",
	CategoryProducts:       "Products and packaging",
	CategoryProductCore:    "Hiperliga product",
	CategoryProductTexture: "Texture line",
	CategoryProductFinish:  "Grafiato line",
	CategoryProductPaint:   "Paint line",
	CategoryBenefits:       "Benefits and advantages",
	CategoryGallery:        "Application gallery",
	CategoryAbout:          "About the company",
	CategorySocial:         "Social network icons",
	CategoryMisc:           "Miscellaneous",
}

// Description returns the human label of the folder.
func (c Category) Description() string {
	return categoryDescriptions[c]
}

// TopLevel strips any subtype suffix: "03_products/texturas" -> "03_products".
func (c Category) TopLevel() string {
	s := string(c)
	if i := strings.IndexByte(s, '/'); i >= 0 {
		return s[:i]
	}
	return s
}

// Valid reports whether c is one of the fixed categories.
func (c Category) Valid() bool {
	_, ok := categoryDescriptions[c]
	return ok
}
