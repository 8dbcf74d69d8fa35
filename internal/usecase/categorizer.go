package usecase

import (
	"net/url"
	"strings"

	"github.com/user/asset-migrator/internal/entity"
)

type field int

const (
	fieldURL field = iota
	fieldAlt
	fieldClasses
	fieldPage
)

// keyword matches when word occurs in the given field of a reference.
type keyword struct {
	field field
	word  string
}

// rule maps a set of keywords to a category. A rule matches when any keyword
// matches. Subrules are only consulted once the parent rule matched.
type rule struct {
	category entity.Category
	keywords []keyword
	subrules []rule
}

// categoryRules is evaluated top to bottom, first match wins.
var categoryRules = []rule{
	{
		category: entity.CategoryBrand,
		keywords: []keyword{{fieldURL, "logo"}, {fieldAlt, "logo"}, {fieldClasses, "brand"}},
	},
	{
		category: entity.CategoryHero,
		keywords: []keyword{{fieldURL, "hero"}, {fieldURL, "banner"}, {fieldAlt, "principal"}},
	},
	{
		category: entity.CategoryProducts,
		keywords: []keyword{{fieldURL, "produto"}, {fieldURL, "product"}, {fieldPage, "hiperliga"}},
		subrules: []rule{
			{category: entity.CategoryProductCore, keywords: []keyword{{fieldURL, "hiperliga"}, {fieldAlt, "hiperliga"}}},
			{category: entity.CategoryProductTexture, keywords: []keyword{{fieldURL, "textura"}, {fieldAlt, "texture"}}},
			{category: entity.CategoryProductFinish, keywords: []keyword{{fieldURL, "grafiato"}}},
			{category: entity.CategoryProductPaint, keywords: []keyword{{fieldURL, "tinta"}, {fieldAlt, "paint"}}},
		},
	},
	{
		category: entity.CategoryBenefits,
		keywords: []keyword{{fieldURL, "beneficio"}, {fieldAlt, "vantagem"}, {fieldClasses, "icon"}},
	},
	{
		category: entity.CategoryGallery,
		keywords: []keyword{{fieldURL, "galeria"}, {fieldURL, "gallery"}, {fieldAlt, "obra"}},
	},
	{
		category: entity.CategoryAbout,
		keywords: []keyword{{fieldPage, "sobre"}, {fieldAlt, "empresa"}, {fieldAlt, "team"}},
	},
	{
		category: entity.CategorySocial,
		keywords: []keyword{{fieldURL, "social"}, {fieldURL, "facebook"}, {fieldURL, "instagram"}},
	},
}

// categorizeInput is the lowercased view of a reference the rules run against.
type categorizeInput [4]string

func newCategorizeInput(ref entity.ImageReference) categorizeInput {
	var in categorizeInput
	in[fieldURL] = strings.ToLower(ref.URL)
	in[fieldAlt] = strings.ToLower(ref.Alt)
	in[fieldClasses] = strings.ToLower(strings.Join(ref.CSSClasses, " "))
	in[fieldPage] = strings.ToLower(pagePath(ref.SourcePage))
	return in
}

// pagePath keeps only the path of the source page so the site host never
// takes part in matching.
func pagePath(page string) string {
	u, err := url.Parse(page)
	if err != nil {
		return page
	}
	return u.EscapedPath()
}

func (r rule) matches(in categorizeInput) bool {
	for _, k := range r.keywords {
		if strings.Contains(in[k.field], k.word) {
			return true
		}
	}
	return false
}

// Categorize maps a reference to exactly one category, defaulting to misc.
func Categorize(ref entity.ImageReference) entity.Category {
	in := newCategorizeInput(ref)
	for _, r := range categoryRules {
		if !r.matches(in) {
			continue
		}
		for _, sub := range r.subrules {
			if sub.matches(in) {
				return sub.category
			}
		}
		return r.category
	}
	return entity.CategoryMisc
}
