package simpleembed

import "strings"

const restrictedProviderHost = "vimeo.com"

// RewriteForRestrictedProvider adds referrerpolicy="strict-origin" to every
// opening iframe tag when sourceURL points at Vimeo, so only the embedding
// origin is sent as referrer to domain-restricted videos. Other HTML is
// returned unchanged. Matching is a literal, case-sensitive "<iframe "
// replacement: "<iframe>", "<IFRAME " or a tag name followed by a newline
// are left as they are.
func RewriteForRestrictedProvider(html, sourceURL string) string {
	if html == "" || !strings.Contains(sourceURL, restrictedProviderHost) {
		return html
	}
	return strings.ReplaceAll(html, "<iframe ", `<iframe referrerpolicy="strict-origin" `)
}
