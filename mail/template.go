package mail

import (
	"net/url"
	"strings"
)

// LinkPlaceholder is the marker substituted into mail templates.
const LinkPlaceholder = "[link]"

// Render substitutes every occurrence of [LinkPlaceholder] in template
// with link. Templates without the placeholder come back unchanged.
func Render(template, link string) string {
	return strings.ReplaceAll(template, LinkPlaceholder, link)
}

// LinkBuilder assembles the action links embedded in outgoing mail.
//
// LinkBuilder instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type LinkBuilder struct {
	BaseURL string
}

// Build returns <base><path>?email=<email>&token=<token> with both query
// values URL-encoded. The raw token only ever leaves the system through
// this link.
func (b LinkBuilder) Build(path, email, token string) string {
	base := strings.TrimRight(b.BaseURL, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	values := url.Values{}
	values.Set("email", email)
	values.Set("token", token)

	return base + path + "?" + values.Encode()
}
