package form

import (
	"fmt"
	"strings"
)

// Field is one editable input or textarea on the rendered form.
type Field struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Label       string  `json:"label,omitempty"`
	Annotation  string  `json:"annotation,omitempty"`
	Placeholder string  `json:"placeholder,omitempty"`
	Value       string  `json:"value"`
	Section     Section `json:"section"`
	Index       int     `json:"index"`
	key         string
}

// IsEmail reports whether dictation into the field should be treated as an address.
func (f Field) IsEmail() bool {
	if f.Type == "email" {
		return true
	}
	for _, attr := range []string{f.Name, f.ID, f.Placeholder} {
		if strings.Contains(strings.ToLower(attr), "email") {
			return true
		}
	}
	return false
}

// Node is one rendered element in document order: a heading or a field.
type Node struct {
	Heading string `json:"heading,omitempty"`
	Field   *Field `json:"field,omitempty"`
}

type fieldSpec struct {
	key         string
	kind        string
	label       string
	annotation  string
	placeholder string
}

var basicsSpecs = []fieldSpec{
	{key: "title", kind: "text", label: "Resume title"},
	{key: "full_name", kind: "text", label: "Full name"},
	{key: "email", kind: "email", label: "Email"},
	{key: "phone", kind: "tel", label: "Phone"},
	{key: "location", kind: "text", label: "Location"},
	{key: "linkedin", kind: "url", label: "LinkedIn URL"},
	{key: "github", kind: "url", label: "GitHub URL"},
	{key: "summary", kind: "textarea", label: "Professional summary"},
}

var entrySpecs = map[Section][]fieldSpec{
	SectionEducation: {
		{key: "degree", kind: "text", annotation: "Education degree", placeholder: "Degree (e.g., B.Tech CSE)"},
		{key: "institution", kind: "text", annotation: "Education institution", placeholder: "Institution"},
		{key: "dates", kind: "text", annotation: "Education dates", placeholder: "Dates (e.g., 2024–2028)"},
		{key: "details", kind: "textarea", annotation: "Education details", placeholder: "Details (optional)"},
	},
	SectionExperience: {
		{key: "role", kind: "text", annotation: "Experience role", placeholder: "Role"},
		{key: "company", kind: "text", annotation: "Experience company", placeholder: "Company/Org"},
		{key: "dates", kind: "text", annotation: "Experience dates", placeholder: "Dates"},
		{key: "bullets", kind: "textarea", annotation: "Experience bullet points", placeholder: "Bullet points (one per line)"},
	},
	SectionProjects: {
		{key: "name", kind: "text", annotation: "Project name", placeholder: "Project name"},
		{key: "tech", kind: "text", annotation: "Project tech stack", placeholder: "Tech (e.g., Django, HTML, CSS)"},
		{key: "bullets", kind: "textarea", annotation: "Project bullet points", placeholder: "Bullets (one per line)"},
	},
}

var skillsSpec = fieldSpec{key: "skills", kind: "textarea", label: "Skills", placeholder: "One skill per line"}

// Document is the rendered resume form. It is not safe for concurrent use.
type Document struct {
	data    Resume
	nodes   []Node
	index   map[string]int
	focused string

	focusListeners  []func(Field, bool)
	renderListeners []func(Section)
}

// New renders a document for data.
func New(data Resume) *Document {
	d := &Document{data: data.Clone()}
	d.rebuild(false)
	return d
}

// OnFocus registers fn to run synchronously on every focus change.
// ok is false when focus was lost without a new field gaining it.
func (d *Document) OnFocus(fn func(f Field, ok bool)) {
	d.focusListeners = append(d.focusListeners, fn)
}

// OnRender registers fn to run after a section is re-rendered.
func (d *Document) OnRender(fn func(Section)) {
	d.renderListeners = append(d.renderListeners, fn)
}

// Nodes returns the rendered document in order.
func (d *Document) Nodes() []Node {
	out := make([]Node, len(d.nodes))
	for i, n := range d.nodes {
		out[i] = n
		if n.Field != nil {
			f := *n.Field
			out[i].Field = &f
		}
	}
	return out
}

// Field looks up a rendered field by id.
func (d *Document) Field(id string) (Field, bool) {
	f := d.lookup(id)
	if f == nil {
		return Field{}, false
	}
	return *f, true
}

// Focusable lists every editable field in document order.
func (d *Document) Focusable() []Field {
	out := make([]Field, 0, len(d.index))
	for _, n := range d.nodes {
		if n.Field != nil {
			out = append(out, *n.Field)
		}
	}
	return out
}

// Focused returns the field holding focus, if any.
func (d *Document) Focused() (Field, bool) {
	return d.Field(d.focused)
}

// Focus moves focus to id. Focusing the already focused field notifies nobody.
func (d *Document) Focus(id string) bool {
	f := d.lookup(id)
	if f == nil {
		return false
	}
	if d.focused == id {
		return true
	}
	d.focused = id
	d.notifyFocus(*f, true)
	return true
}

// Blur drops focus without moving it elsewhere.
func (d *Document) Blur() {
	if d.focused == "" {
		return
	}
	d.focused = ""
	d.notifyFocus(Field{}, false)
}

// Value returns the current rendered value of id.
func (d *Document) Value(id string) string {
	if f := d.lookup(id); f != nil {
		return f.Value
	}
	return ""
}

// SetValue replaces the rendered value of id without syncing backing data.
func (d *Document) SetValue(id, value string) bool {
	f := d.lookup(id)
	if f == nil {
		return false
	}
	f.Value = value
	return true
}

// InputChanged re-syncs the backing data from the rendered value of id.
func (d *Document) InputChanged(id string) {
	f := d.lookup(id)
	if f == nil {
		return
	}

	switch f.Section {
	case SectionBasics:
		setBasic(&d.data, f.key, f.Value)
	case SectionEducation:
		if f.Index < len(d.data.Education) {
			setEducation(&d.data.Education[f.Index], f.key, f.Value)
		}
	case SectionExperience:
		if f.Index < len(d.data.Experience) {
			setExperience(&d.data.Experience[f.Index], f.key, f.Value)
		}
	case SectionProjects:
		if f.Index < len(d.data.Projects) {
			setProject(&d.data.Projects[f.Index], f.key, f.Value)
		}
	case SectionSkills:
		d.data.Skills = splitLines(f.Value)
	}
}

// SectionOf returns the text of the nearest heading preceding id in document order.
func (d *Document) SectionOf(id string) string {
	pos, ok := d.index[id]
	if !ok {
		return ""
	}
	for i := pos - 1; i >= 0; i-- {
		if d.nodes[i].Field == nil {
			return d.nodes[i].Heading
		}
	}
	return ""
}

// LabelOf returns the spoken label of id: annotation, label, name, then "field".
func (d *Document) LabelOf(id string) string {
	f := d.lookup(id)
	if f == nil {
		return ""
	}
	for _, candidate := range []string{f.Annotation, f.Label, f.Name} {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return "field"
}

// FieldAfterHeading finds the first field following the heading whose text
// matches name case-insensitively.
func (d *Document) FieldAfterHeading(name string) (Field, bool) {
	target := strings.ToLower(strings.TrimSpace(name))
	start := -1
	for i, n := range d.nodes {
		if n.Field == nil && strings.ToLower(strings.TrimSpace(n.Heading)) == target {
			start = i
			break
		}
	}
	if start < 0 {
		return Field{}, false
	}
	for _, n := range d.nodes[start+1:] {
		if n.Field != nil {
			return *n.Field, true
		}
	}
	return Field{}, false
}

// AddEntry appends a blank entry to a repeated section and re-renders it.
func (d *Document) AddEntry(section Section) bool {
	switch section {
	case SectionEducation:
		d.data.Education = append(d.data.Education, Education{})
	case SectionExperience:
		d.data.Experience = append(d.data.Experience, Experience{Bullets: []string{}})
	case SectionProjects:
		d.data.Projects = append(d.data.Projects, Project{Bullets: []string{}})
	default:
		return false
	}
	d.render(section)
	return true
}

// RemoveLastEntry drops the final entry of a repeated section. An empty
// section reports false and renders nothing.
func (d *Document) RemoveLastEntry(section Section) bool {
	n := d.entryCount(section)
	if n == 0 {
		return false
	}
	d.truncate(section, n-1)
	d.render(section)
	return true
}

// RemoveAllEntries empties a repeated section. An empty section reports false
// and renders nothing.
func (d *Document) RemoveAllEntries(section Section) bool {
	if d.entryCount(section) == 0 {
		return false
	}
	d.truncate(section, 0)
	d.render(section)
	return true
}

// EntryCount returns the number of entries in a repeated section.
func (d *Document) EntryCount(section Section) int {
	return d.entryCount(section)
}

// Snapshot returns a copy of the backing data.
func (d *Document) Snapshot() Resume {
	return d.data.Clone()
}

// Replace swaps in new backing data and re-renders every section.
func (d *Document) Replace(data Resume) {
	d.data = data.Clone()
	d.render("")
}

func (d *Document) entryCount(section Section) int {
	switch section {
	case SectionEducation:
		return len(d.data.Education)
	case SectionExperience:
		return len(d.data.Experience)
	case SectionProjects:
		return len(d.data.Projects)
	default:
		return 0
	}
}

func (d *Document) truncate(section Section, n int) {
	switch section {
	case SectionEducation:
		d.data.Education = d.data.Education[:n]
	case SectionExperience:
		d.data.Experience = d.data.Experience[:n]
	case SectionProjects:
		d.data.Projects = d.data.Projects[:n]
	}
}

func (d *Document) lookup(id string) *Field {
	pos, ok := d.index[id]
	if !ok {
		return nil
	}
	return d.nodes[pos].Field
}

// render rebuilds the document and notifies listeners; an empty section
// means the whole form is redrawn from backing data. Otherwise fields that
// survive the rebuild keep their rendered values, so text not yet synced by
// InputChanged is not lost. Focus on a field that no longer exists is dropped.
func (d *Document) render(section Section) {
	d.rebuild(section != "")
	if d.focused != "" {
		if _, ok := d.index[d.focused]; !ok {
			d.focused = ""
			d.notifyFocus(Field{}, false)
		}
	}
	for _, fn := range d.renderListeners {
		fn(section)
	}
}

func (d *Document) rebuild(keepValues bool) {
	var rendered map[string]string
	if keepValues {
		rendered = make(map[string]string, len(d.index))
		for id, pos := range d.index {
			rendered[id] = d.nodes[pos].Field.Value
		}
	}

	nodes := make([]Node, 0, 32)

	nodes = append(nodes, Node{Heading: SectionBasics.Title()})
	for _, spec := range basicsSpecs {
		nodes = append(nodes, fieldNode(SectionBasics, -1, spec, spec.key, basicValue(d.data, spec.key)))
	}

	nodes = append(nodes, Node{Heading: SectionEducation.Title()})
	for i, item := range d.data.Education {
		for _, spec := range entrySpecs[SectionEducation] {
			nodes = append(nodes, entryNode(SectionEducation, i, spec, educationValue(item, spec.key)))
		}
	}

	nodes = append(nodes, Node{Heading: SectionExperience.Title()})
	for i, item := range d.data.Experience {
		for _, spec := range entrySpecs[SectionExperience] {
			nodes = append(nodes, entryNode(SectionExperience, i, spec, experienceValue(item, spec.key)))
		}
	}

	nodes = append(nodes, Node{Heading: SectionProjects.Title()})
	for i, item := range d.data.Projects {
		for _, spec := range entrySpecs[SectionProjects] {
			nodes = append(nodes, entryNode(SectionProjects, i, spec, projectValue(item, spec.key)))
		}
	}

	nodes = append(nodes, Node{Heading: SectionSkills.Title()})
	nodes = append(nodes, fieldNode(SectionSkills, -1, skillsSpec, skillsSpec.key, strings.Join(d.data.Skills, "\n")))

	index := make(map[string]int, len(nodes))
	for i, n := range nodes {
		if n.Field == nil {
			continue
		}
		index[n.Field.ID] = i
		if v, ok := rendered[n.Field.ID]; ok {
			n.Field.Value = v
		}
	}
	d.nodes = nodes
	d.index = index
}

func (d *Document) notifyFocus(f Field, ok bool) {
	for _, fn := range d.focusListeners {
		fn(f, ok)
	}
}

func entryNode(section Section, i int, spec fieldSpec, value string) Node {
	id := fmt.Sprintf("%s-%d-%s", section, i, spec.key)
	return fieldNode(section, i, spec, id, value)
}

func fieldNode(section Section, i int, spec fieldSpec, id, value string) Node {
	return Node{Field: &Field{
		ID:          id,
		Name:        spec.key,
		Type:        spec.kind,
		Label:       spec.label,
		Annotation:  spec.annotation,
		Placeholder: spec.placeholder,
		Value:       value,
		Section:     section,
		Index:       i,
		key:         spec.key,
	}}
}

func basicValue(r Resume, key string) string {
	switch key {
	case "title":
		return r.Title
	case "full_name":
		return r.FullName
	case "email":
		return r.Email
	case "phone":
		return r.Phone
	case "location":
		return r.Location
	case "linkedin":
		return r.LinkedIn
	case "github":
		return r.GitHub
	case "summary":
		return r.Summary
	default:
		return ""
	}
}

func setBasic(r *Resume, key, value string) {
	switch key {
	case "title":
		r.Title = value
	case "full_name":
		r.FullName = value
	case "email":
		r.Email = value
	case "phone":
		r.Phone = value
	case "location":
		r.Location = value
	case "linkedin":
		r.LinkedIn = value
	case "github":
		r.GitHub = value
	case "summary":
		r.Summary = value
	}
}

func educationValue(e Education, key string) string {
	switch key {
	case "degree":
		return e.Degree
	case "institution":
		return e.Institution
	case "dates":
		return e.Dates
	case "details":
		return e.Details
	default:
		return ""
	}
}

func setEducation(e *Education, key, value string) {
	switch key {
	case "degree":
		e.Degree = value
	case "institution":
		e.Institution = value
	case "dates":
		e.Dates = value
	case "details":
		e.Details = value
	}
}

func experienceValue(e Experience, key string) string {
	switch key {
	case "role":
		return e.Role
	case "company":
		return e.Company
	case "dates":
		return e.Dates
	case "bullets":
		return strings.Join(e.Bullets, "\n")
	default:
		return ""
	}
}

func setExperience(e *Experience, key, value string) {
	switch key {
	case "role":
		e.Role = value
	case "company":
		e.Company = value
	case "dates":
		e.Dates = value
	case "bullets":
		e.Bullets = splitLines(value)
	}
}

func projectValue(p Project, key string) string {
	switch key {
	case "name":
		return p.Name
	case "tech":
		return p.Tech
	case "bullets":
		return strings.Join(p.Bullets, "\n")
	default:
		return ""
	}
}

func setProject(p *Project, key, value string) {
	switch key {
	case "name":
		p.Name = value
	case "tech":
		p.Tech = value
	case "bullets":
		p.Bullets = splitLines(value)
	}
}
