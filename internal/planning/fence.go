package planning

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Fenced block tags understood by the front end.
const (
	TagChecklist = "json checklist"
	TagItinerary = "json itinerary"
)

// Fence serializes v as compact JSON inside a fenced block labelled tag.
// HTML characters are left unescaped so labels like "(>6 months)" survive.
// Payloads hold only strings, numbers and slices, so encoding cannot fail;
// a value that does fail is rendered as an empty object.
func Fence(tag string, v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	body := "{}"
	if err := enc.Encode(v); err == nil {
		body = strings.TrimRight(buf.String(), "\n")
	}
	return "```" + tag + "\n" + body + "\n```"
}

// ExtractFenced returns the body of the first fenced block labelled tag.
func ExtractFenced(text, tag string) (string, bool) {
	open := "```" + tag + "\n"
	start := strings.Index(text, open)
	if start < 0 {
		return "", false
	}
	rest := text[start+len(open):]
	end := strings.Index(rest, "\n```")
	if end < 0 {
		return "", false
	}
	return rest[:end], true
}

// ExtractAllFenced returns the bodies of every fenced block labelled tag, in order.
func ExtractAllFenced(text, tag string) []string {
	open := "```" + tag + "\n"
	var bodies []string
	for {
		start := strings.Index(text, open)
		if start < 0 {
			return bodies
		}
		text = text[start+len(open):]
		end := strings.Index(text, "\n```")
		if end < 0 {
			return bodies
		}
		bodies = append(bodies, text[:end])
		text = text[end+len("\n```"):]
	}
}

// ReplaceFenced replaces every fenced block labelled tag with fn(body).
func ReplaceFenced(text, tag string, fn func(body string) string) string {
	open := "```" + tag + "\n"
	var b strings.Builder
	for {
		start := strings.Index(text, open)
		if start < 0 {
			break
		}
		rest := text[start+len(open):]
		end := strings.Index(rest, "\n```")
		if end < 0 {
			break
		}
		b.WriteString(text[:start])
		b.WriteString(fn(rest[:end]))
		text = rest[end+len("\n```"):]
	}
	b.WriteString(text)
	return b.String()
}
