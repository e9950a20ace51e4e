package sanitize

import (
	"net/url"
	"strings"
)

// TrustedEmbedDomains 允许作为iframe来源的域名，子域名同样被信任
var TrustedEmbedDomains = []string{
	"youtube.com",
	"youtu.be",
	"facebook.com",
	"fb.com",
	"vimeo.com",
	"player.vimeo.com",
	"dailymotion.com",
	"instagram.com",
	"twitter.com",
	"x.com",
}

// IsTrustedEmbedSource 判断iframe的src是否指向受信任的域名。
// 协议相对地址按https处理，路径相对地址和非http(s)地址一律拒绝。
func IsTrustedEmbedSource(src string) bool {
	src = strings.TrimSpace(src)
	if src == "" {
		return false
	}

	switch {
	case strings.HasPrefix(src, "//"):
		src = "https:" + src
	case strings.HasPrefix(src, "/"):
		return false
	}

	lower := strings.ToLower(src)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return false
	}

	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" {
		return false
	}

	for _, domain := range TrustedEmbedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
