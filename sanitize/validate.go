// Package sanitize 校验并清洗用户提交的纯文本与富文本。
//
// 富文本先校验后清洗：校验失败时直接拒绝并返回逐条原因，清洗只作为纵深防御。
package sanitize

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"go.uber.org/multierr"
	"golang.org/x/net/html"
)

// AllowedTags 富文本允许的标签
var AllowedTags = []string{
	"iframe", "p", "br", "b", "i", "strong", "em", "u", "s", "strike",
	"ul", "ol", "li", "h1", "h2", "h3", "h4", "h5", "h6",
	"a", "img", "div", "span", "blockquote", "pre", "code",
	"table", "thead", "tbody", "tr", "th", "td", "hr",
}

// DangerousTags 明确拒绝的标签
var DangerousTags = []string{
	"script", "style", "object", "embed", "form", "input", "button",
	"select", "textarea", "marquee", "applet", "meta", "link", "base",
	"frame", "frameset", "noframes", "noscript",
}

var (
	allowedTagSet   = toSet(AllowedTags)
	dangerousTagSet = toSet(DangerousTags)

	// 可能携带URL的属性
	urlAttrSet = toSet([]string{"href", "src", "action", "formaction", "data", "background", "poster", "xlink:href", "style"})

	plainTextTagRe = regexp.MustCompile(`<[^>]+>`)
)

const untrustedIframeMsg = "Iframe from untrusted domain is not allowed. Only iframes from trusted domains (YouTube, Facebook, Vimeo, Instagram, Twitter, etc.) are permitted."

// report 汇总一次校验中发现的问题，按类别去重
type report struct {
	dangerous   map[string]bool
	unsupported []string
	handlers    []string
	jsURL       bool
	untrusted   bool
}

// ValidateHTML 在清洗之前检查原始富文本。合法时返回nil，
// 否则返回由multierr合并的错误，每条对应一类问题，可用Messages展开。
// 标签按浏览器的解析规则切分，因此 <script/src=...>、<img/onerror=...> 与不带引号的属性同样会被发现。
func ValidateHTML(s string) error {
	if s == "" {
		return nil
	}

	r := &report{dangerous: map[string]bool{}}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}
		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			// script、style、iframe等标签的内容也按标签解析
			z.NextIsNotRawText()
			tok := z.Token()
			r.tag(tok.Data)
			r.attrs(tok)
		case html.EndTagToken:
			name, _ := z.TagName()
			r.tag(string(name))
		}
	}
	return r.err()
}

func (r *report) tag(name string) {
	switch {
	case dangerousTagSet[name]:
		r.dangerous[name] = true
	case !allowedTagSet[name]:
		r.unsupported = appendUnique(r.unsupported, name)
	}
}

func (r *report) attrs(tok html.Token) {
	for _, a := range tok.Attr {
		if len(a.Key) > 2 && strings.HasPrefix(a.Key, "on") {
			r.handlers = appendUnique(r.handlers, a.Key)
		}
		if urlAttrSet[a.Key] && isJavaScriptURL(a.Val) {
			r.jsURL = true
		}
	}
	if tok.Data == "iframe" {
		if _, ok := lookupAttr(tok, "srcdoc"); ok {
			r.untrusted = true
		}
		if src, _ := lookupAttr(tok, "src"); !IsTrustedEmbedSource(src) {
			r.untrusted = true
		}
	}
}

func (r *report) err() error {
	var err error
	for _, tag := range DangerousTags {
		if r.dangerous[tag] {
			err = multierr.Append(err, fmt.Errorf("<%s> tag is not allowed.", tag))
		}
	}

	switch len(r.unsupported) {
	case 0:
	case 1:
		err = multierr.Append(err, fmt.Errorf("<%s> tag is not allowed.", r.unsupported[0]))
	default:
		err = multierr.Append(err, fmt.Errorf("<%s> tags are not allowed.", strings.Join(r.unsupported, ">, <")))
	}

	switch len(r.handlers) {
	case 0:
	case 1:
		err = multierr.Append(err, fmt.Errorf("%s event handler is not allowed.", r.handlers[0]))
	default:
		err = multierr.Append(err, fmt.Errorf("%s event handlers are not allowed.", strings.Join(r.handlers, ", ")))
	}

	if r.jsURL {
		err = multierr.Append(err, errors.New("javascript: URLs are not allowed."))
	}
	if r.untrusted {
		err = multierr.Append(err, errors.New(untrustedIframeMsg))
	}
	return err
}

// isJavaScriptURL 忽略空白与控制字符后判断是否包含 javascript: 协议
func isJavaScriptURL(v string) bool {
	compact := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || unicode.IsControl(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, v)
	return strings.Contains(compact, "javascript:")
}

func lookupAttr(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if a.Key == key {
			return a.Val, true
		}
	}
	return "", false
}

// ValidateText 纯文本字段不允许出现任何HTML标签
func ValidateText(field, s string) error {
	if plainTextTagRe.MatchString(s) {
		return fmt.Errorf("HTML tags are not allowed in the %s field. Please use plain text only.", field)
	}
	return nil
}

// Messages 将校验错误展开为逐条消息
func Messages(err error) []string {
	errs := multierr.Errors(err)
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Error())
	}
	return out
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
