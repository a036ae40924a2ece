package refs

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ultrawiki/refpipe/models"
)

// ExtractFromHTML parses citations straight out of rendered Wikipedia HTML.
// It is the fallback path when reader markdown yields no references block,
// walking the cite elements inside ol.references lists.
func ExtractFromHTML(html string) ([]models.Reference, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var items []models.Reference
	doc.Find("ol.references li").Each(func(_ int, li *goquery.Selection) {
		text := li.Find("span.reference-text")
		if text.Length() == 0 {
			text = li
		}
		if ref, ok := referenceFromCitation(text); ok {
			items = append(items, ref)
		}
	})

	return Dedupe(items), nil
}

func referenceFromCitation(sel *goquery.Selection) (models.Reference, bool) {
	var ref models.Reference

	cite := sel.Find("cite").First()
	scope := sel
	if cite.Length() > 0 {
		scope = cite
	}

	scope.Find("a.external").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href, ok := a.Attr("href")
		if !ok || !strings.HasPrefix(href, "http") {
			return true
		}
		text := strings.TrimSpace(a.Text())
		if strings.EqualFold(text, "archived") || strings.Contains(href, "web.archive.org") {
			if ref.ArchiveURL == "" {
				ref.ArchiveURL = href
			}
			return true
		}
		ref.Title = strings.Trim(text, `"“”`)
		ref.URL = href
		return false
	})
	if ref.URL == "" {
		return models.Reference{}, false
	}

	if ref.ArchiveURL == "" {
		sel.Find("a.external").Each(func(_ int, a *goquery.Selection) {
			href, ok := a.Attr("href")
			if ok && strings.Contains(href, "web.archive.org") && ref.ArchiveURL == "" {
				ref.ArchiveURL = href
			}
		})
	}

	if src := strings.TrimSpace(scope.Find("i").First().Text()); src != "" && src != ref.Title {
		ref.Source = src
	}

	full := strings.TrimSpace(sel.Text())
	if loc := publishDatePattern.FindString(full); loc != "" {
		ref.PublishDate = strings.Trim(loc, "()")
	}
	if ret := retrievedPattern.FindString(full); ret != "" {
		if !strings.HasSuffix(ret, ".") {
			ret += "."
		}
		ref.RetrievedDate = ret
	}

	// author is whatever precedes the publish date or the title text
	cut := -1
	if ref.PublishDate != "" {
		cut = strings.Index(full, "("+ref.PublishDate+")")
	}
	if cut == -1 && ref.Title != "" {
		cut = strings.Index(full, ref.Title)
	}
	if cut > 0 {
		author := strings.TrimSpace(strings.Trim(full[:cut], `"“”. `))
		if author != "" && len(strings.Fields(author)) <= 15 {
			ref.Author = author
		}
	}

	if ref.Author == "" && ref.Source != "" {
		ref.Author = ref.Source
	}
	if ref.Source == "" && ref.Author != "" {
		ref.Source = ref.Author
	}

	ref.IsExternal = !strings.Contains(ref.URL, "wikipedia.org")
	return ref, true
}
