package sanitize

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
)

var (
	richPolicy  = newRichPolicy()
	plainPolicy = bluemonday.StrictPolicy()

	lengthRe = regexp.MustCompile(`^\d+(?:px|em|rem|%)$`)
)

func newRichPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(AllowedTags...)

	p.AllowURLSchemes("http", "https", "mailto")
	p.RequireParseableURLs(true)
	p.AllowRelativeURLs(true)
	p.AllowDataURIImages()

	p.AllowAttrs("src", "width", "height", "frameborder", "allow", "allowfullscreen", "class", "id", "title").OnElements("iframe")
	p.AllowAttrs("href", "target", "rel", "title").OnElements("a")
	p.AllowAttrs("src", "alt", "title", "width", "height", "class", "id").OnElements("img")
	p.AllowAttrs("class", "id").OnElements("div", "span", "p", "h1", "h2", "h3", "h4", "h5", "h6", "table", "td", "th")
	p.AllowAttrs("colspan", "rowspan").Matching(bluemonday.Integer).OnElements("td", "th")

	styled := []string{"iframe", "div", "span", "p", "table", "td", "th"}
	p.AllowStyles("color").Matching(regexp.MustCompile(`^(#[0-9a-fA-F]{3,6}|rgba?\(.*\))$`)).OnElements(styled...)
	p.AllowStyles("text-align").MatchingEnum("left", "right", "center", "justify").OnElements(styled...)
	p.AllowStyles("font-size").Matching(lengthRe).OnElements(styled...)
	p.AllowStyles("font-weight").Matching(regexp.MustCompile(`^(normal|bold|\d+)$`)).OnElements(styled...)
	p.AllowStyles("text-decoration").MatchingEnum("none", "underline", "line-through").OnElements(styled...)
	p.AllowStyles("margin").Matching(lengthRe).OnElements(styled...)
	p.AllowStyles("padding").Matching(lengthRe).OnElements(styled...)

	return p
}

// SanitizeHTML 清洗富文本：只保留白名单内的标签、属性和样式，
// 移除来源不受信任的iframe，并为外部链接设置新窗口打开与 rel="noopener noreferrer"。
// 结果是幂等的。
func SanitizeHTML(s string) string {
	if s == "" {
		return ""
	}
	return rewrite(richPolicy.Sanitize(s))
}

// SanitizeText 去除所有标签并去掉首尾空白
func SanitizeText(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(plainPolicy.Sanitize(s))
}

// rewrite 对清洗后的HTML做第二遍处理
func rewrite(s string) string {
	var out bytes.Buffer
	z := html.NewTokenizer(strings.NewReader(s))
	skipDepth := 0

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			if z.Err() == io.EOF {
				break
			}
			return out.String()
		}

		raw := z.Raw()
		if skipDepth > 0 {
			switch tt {
			case html.StartTagToken:
				if name, _ := z.TagName(); string(name) == "iframe" {
					skipDepth++
				}
			case html.EndTagToken:
				if name, _ := z.TagName(); string(name) == "iframe" {
					skipDepth--
				}
			}
			continue
		}

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.Data {
			case "iframe":
				if !IsTrustedEmbedSource(attr(tok, "src")) {
					if tt == html.StartTagToken {
						skipDepth = 1
					}
					continue
				}
			case "a":
				if strings.HasPrefix(strings.ToLower(attr(tok, "href")), "http") {
					if attr(tok, "target") == "" {
						tok.Attr = setAttr(tok.Attr, "target", "_blank")
					}
					tok.Attr = setAttr(tok.Attr, "rel", "noopener noreferrer")
					out.WriteString(tok.String())
					continue
				}
			}
			out.Write(raw)
		default:
			out.Write(raw)
		}
	}
	return out.String()
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(attrs []html.Attribute, key, val string) []html.Attribute {
	for i := range attrs {
		if attrs[i].Key == key {
			attrs[i].Val = val
			return attrs
		}
	}
	return append(attrs, html.Attribute{Key: key, Val: val})
}
