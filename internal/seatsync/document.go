package seatsync

import (
	"html/template"
	"io"
	"sync"
)

// Element ids the reducer writes to.
const (
	ElementCapacityFill   = "seat-capacity-fill"
	ElementSeatText       = "seat-count-text"
	ElementRegisterButton = "register-btn"
	ElementWaitlistButton = "waitlist-btn"
	ElementFullIndicator  = "event-full-btn"
	ElementStatusBanner   = "event-status-banner"
	ElementMainContent    = "main-content"
)

// Element is one node of the widget. Text is rendered escaped; HTML is trusted
// markup the reducer assembled from escaped parts.
type Element struct {
	ID       string
	Role     string
	Class    string
	Hidden   bool
	Text     string
	HTML     template.HTML
	HasWidth bool
	Width    int
}

// Document is the page model the reducer mutates: a main content container
// whose children are addressed by id.
type Document struct {
	byID     map[string]*Element
	children []*Element
}

func NewDocument() *Document {
	return &Document{byID: make(map[string]*Element)}
}

// NewWidgetDocument builds the initial widget for a page. Buttons start hidden
// until the first snapshot decides which one applies.
func NewWidgetDocument(pc PageConfig) *Document {
	d := NewDocument()
	d.Append(&Element{ID: ElementCapacityFill, Class: "capacity-fill capacity-fill--normal", HasWidth: true})
	d.Append(&Element{ID: ElementSeatText, Class: "seat-count"})
	d.Append(&Element{ID: ElementRegisterButton, Role: "button", Class: "btn btn-primary", Text: "Register", Hidden: true})
	d.Append(&Element{ID: ElementWaitlistButton, Role: "button", Class: "btn btn-secondary", Text: "Join Waitlist", Hidden: true})
	d.Append(&Element{ID: ElementFullIndicator, Role: "button", Class: "btn btn-disabled", Text: "Event Full", Hidden: true})
	return d
}

func (d *Document) ElementByID(id string) *Element {
	return d.byID[id]
}

func (d *Document) Append(el *Element) {
	d.children = append(d.children, el)
	d.byID[el.ID] = el
}

// Prepend inserts el as the first child of the main content container.
func (d *Document) Prepend(el *Element) {
	d.children = append([]*Element{el}, d.children...)
	d.byID[el.ID] = el
}

// Children returns copies of the main container's children in order.
func (d *Document) Children() []Element {
	out := make([]Element, 0, len(d.children))
	for _, el := range d.children {
		out = append(out, *el)
	}
	return out
}

func (d *Document) Clone() *Document {
	c := NewDocument()
	for _, el := range d.children {
		cp := *el
		c.Append(&cp)
	}
	return c
}

var (
	widgetTplOnce sync.Once
	widgetTpl     *template.Template
)

const widgetSource = `<div id="` + ElementMainContent + `">
{{- range . }}
<div id="{{ .ID }}" class="{{ .Class }}"{{ with .Role }} role="{{ . }}"{{ end }}{{ if .Hidden }} hidden{{ end }}{{ if .HasWidth }} style="width: {{ .Width }}%"{{ end }}>
{{- if .HTML }}{{ .HTML }}{{ else }}{{ .Text }}{{ end -}}
</div>
{{- end }}
</div>`

func widgetTemplate() *template.Template {
	widgetTplOnce.Do(func() {
		widgetTpl = template.Must(template.New("widget").Parse(widgetSource))
	})
	return widgetTpl
}

// Render writes the document as an HTML fragment.
func (d *Document) Render(w io.Writer) error {
	return widgetTemplate().Execute(w, d.Children())
}
