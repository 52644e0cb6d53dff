package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// ImagePart is an inline image segment used by vision-capable models.
type ImagePart struct {
	Data     []byte // Raw encoded image bytes
	MIMEType string // e.g. image/png
}

// isPart implements the Part interface for ImagePart.
func (ImagePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // user, assistant or system
	Parts []Part `json:"parts"`
}

// NewUserContent builds a user content from text followed by optional parts.
func NewUserContent(text string, parts ...Part) Content {
	all := make([]Part, 0, len(parts)+1)
	all = append(all, TextPart{Text: text})
	all = append(all, parts...)
	return Content{Role: "user", Parts: all}
}

// Text concatenates all text parts of the content.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}
