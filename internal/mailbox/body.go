// Package mailbox adapts the Gmail collaborator: candidate-filter query
// construction, message retrieval, and flattening a raw multi-part message
// into a single plain-text body.
package mailbox

import (
	"encoding/base64"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"google.golang.org/api/gmail/v1"
)

// ExtractBody returns the best available plain-text body of a message-part
// tree, or an empty string when no text-bearing leaf exists. A plain-text
// part anywhere in the tree wins over HTML; HTML is stripped to visible text
// only when no plain-text part exists. Line endings are normalized once on
// the final result.
func ExtractBody(part *gmail.MessagePart) string {
	return normalizeLineEndings(extractBody(part))
}

func extractBody(part *gmail.MessagePart) string {
	if text := findLeaf(part, "text/plain"); text != "" {
		return text
	}
	return stripHTML(findLeaf(part, "text/html"))
}

// findLeaf depth-first searches the part tree for the first non-empty leaf
// of the wanted mime type. A container is never treated as a leaf, even if
// it incidentally carries a payload.
func findLeaf(part *gmail.MessagePart, mimeType string) string {
	if part == nil {
		return ""
	}

	if len(part.Parts) > 0 {
		for _, sub := range part.Parts {
			if text := findLeaf(sub, mimeType); text != "" {
				return text
			}
		}
		return ""
	}

	if part.MimeType != mimeType || part.Body == nil || part.Body.Data == "" {
		return ""
	}
	return decodePayload(part.Body.Data)
}

// decodePayload decodes the base64-url payload Gmail delivers. Padding
// varies by producer, so it is trimmed before decoding. Undecodable data
// yields an empty string, which the caller treats as "keep searching".
func decodePayload(data string) string {
	decoded, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return ""
	}
	return string(decoded)
}

// stripHTML removes all markup, returning visible text only.
func stripHTML(html string) string {
	if html == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	doc.Find("script, style").Remove()
	return doc.Text()
}

func normalizeLineEndings(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
