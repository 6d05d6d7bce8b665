package plugins

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"mvdan.cc/xurls/v2"

	"github.com/andrewdodd13/botologist/internal/irc"
	"github.com/andrewdodd13/botologist/internal/plugin"
)

const (
	maxURLsPerMessage = 3
	maxRedirectHops   = 10
	maxTitleBytes     = 64 * 1024
)

// shortenerHosts are resolved to their destination instead of titled
var shortenerHosts = map[string]bool{
	"bit.ly":      true,
	"t.co":        true,
	"goo.gl":      true,
	"tinyurl.com": true,
	"is.gd":       true,
	"v.gd":        true,
	"ow.ly":       true,
	"buff.ly":     true,
}

// urlsPlugin inspects messages for links: shortener links are expanded to
// their destination, everything else gets its page title fetched.
type urlsPlugin struct {
	ctx     *plugin.Context
	client  *http.Client
	matcher *regexp.Regexp
}

// NewURLs builds the urls plugin
func NewURLs(ctx *plugin.Context) plugin.Plugin {
	return &urlsPlugin{
		ctx: ctx,
		client: &http.Client{
			Timeout: 5 * time.Second,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		matcher: xurls.Strict(),
	}
}

func (p *urlsPlugin) Register(r plugin.Registrar) {
	r.RegisterReplyHandler(p.urlReply)
}

func (p *urlsPlugin) urlReply(msg *irc.Message) []string {
	var parts []string
	for _, raw := range p.matcher.FindAllString(msg.Body, maxURLsPerMessage) {
		parsed, err := url.Parse(raw)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			continue
		}
		if shortenerHosts[strings.ToLower(parsed.Hostname())] {
			if dest := p.unshorten(raw); dest != "" {
				parts = append(parts, fmt.Sprintf("%s => %s", raw, dest))
			}
			continue
		}
		if title := p.title(raw); title != "" {
			parts = append(parts, fmt.Sprintf("[ %s ]", title))
		}
	}
	return parts
}

// unshorten follows redirects manually and returns the final location
func (p *urlsPlugin) unshorten(raw string) string {
	current := raw
	for hop := 0; hop < maxRedirectHops; hop++ {
		resp, err := p.client.Get(current)
		if err != nil {
			p.ctx.Log.Debug("Resolving %s: %v", current, err)
			return ""
		}
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		resp.Body.Close()

		if resp.StatusCode < 300 || resp.StatusCode >= 400 {
			if current == raw {
				return ""
			}
			return current
		}
		next, err := resp.Location()
		if err != nil {
			return ""
		}
		current = next.String()
	}
	return current
}

// title fetches a page and extracts its <title> text
func (p *urlsPlugin) title(raw string) string {
	resp, err := p.client.Get(raw)
	if err != nil {
		p.ctx.Log.Debug("Fetching %s: %v", raw, err)
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}
	if ct := resp.Header.Get("Content-Type"); ct != "" && !strings.Contains(ct, "html") {
		return ""
	}

	return extractTitle(io.LimitReader(resp.Body, maxTitleBytes))
}

func extractTitle(r io.Reader) string {
	tokenizer := html.NewTokenizer(r)
	inTitle := false
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken:
			name, _ := tokenizer.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				title := strings.Join(strings.Fields(tokenizer.Token().Data), " ")
				if title != "" {
					return title
				}
			}
		case html.EndTagToken:
			inTitle = false
		}
	}
}
