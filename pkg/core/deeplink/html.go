package deeplink

import (
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Link 从网页中提取出的邀请链接
type Link struct {
	URL     string  `json:"url"`
	Source  string  `json:"source"` // app-link / og:url / anchor
	Payload Payload `json:"payload"`
}

// LinksFromHTML 从分享网页中提取邀请链接
// 依次读取App Links的 al:*:url 元标签、og:url 以及页面中的超链接，按URL去重
func LinksFromHTML(r io.Reader, interp *Interpreter) ([]Link, error) {
	if interp == nil {
		interp = NewInterpreter("", "")
	}

	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("解析HTML失败: %w", err)
	}

	links := make([]Link, 0)
	seen := make(map[string]bool)
	add := func(raw, source string) {
		raw = strings.TrimSpace(raw)
		if raw == "" || seen[raw] {
			return
		}
		payload, ok := interp.Parse(raw)
		if !ok {
			return
		}
		seen[raw] = true
		links = append(links, Link{URL: raw, Source: source, Payload: payload})
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		property, _ := s.Attr("property")
		property = strings.ToLower(property)
		if strings.HasPrefix(property, "al:") && strings.HasSuffix(property, ":url") {
			content, _ := s.Attr("content")
			add(content, "app-link")
		}
	})

	doc.Find(`meta[property="og:url"]`).Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		add(content, "og:url")
	})

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		add(href, "anchor")
	})

	return links, nil
}
