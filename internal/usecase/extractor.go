package usecase

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/user/asset-migrator/internal/entity"
	"github.com/user/asset-migrator/pkg/utils"
)

const backgroundAlt = "Background image"

// cssURLPattern captures url('...'), url("...") and url(...).
var cssURLPattern = regexp.MustCompile(`url\(\s*['"]?\s*([^'")]+?)\s*['"]?\s*\)`)

// ExtractImages parses an HTML document and returns every image reference it
// holds, in document order: <img> elements first, then inline background images.
func ExtractImages(pageURL string, htmlContent []byte) ([]entity.ImageReference, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page url: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	refs := []entity.ImageReference{}

	doc.Find("img").Each(func(i int, s *goquery.Selection) {
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(s.AttrOr("data-src", ""))
		}
		abs, ok := resolveImageURL(base, src)
		if !ok {
			return
		}
		refs = append(refs, entity.ImageReference{
			URL:        abs,
			Alt:        s.AttrOr("alt", ""),
			CSSClasses: classList(s),
			SourcePage: pageURL,
			Kind:       entity.KindImg,
			Width:      s.AttrOr("width", ""),
			Height:     s.AttrOr("height", ""),
		})
	})

	doc.Find("[style]").Each(func(i int, s *goquery.Selection) {
		style := s.AttrOr("style", "")
		if !strings.Contains(style, "background-image") {
			return
		}
		for _, m := range cssURLPattern.FindAllStringSubmatch(style, -1) {
			abs, ok := resolveImageURL(base, m[1])
			if !ok {
				continue
			}
			refs = append(refs, entity.ImageReference{
				URL:        abs,
				Alt:        backgroundAlt,
				CSSClasses: classList(s),
				SourcePage: pageURL,
				Kind:       entity.KindBackground,
			})
		}
	})

	return refs, nil
}

func resolveImageURL(base *url.URL, ref string) (string, bool) {
	if ref == "" {
		return "", false
	}
	abs, err := utils.ToAbsoluteURL(base, ref)
	if err != nil || !utils.IsFetchable(abs) {
		return "", false
	}
	return abs, true
}

func classList(s *goquery.Selection) []string {
	return strings.Fields(s.AttrOr("class", ""))
}
