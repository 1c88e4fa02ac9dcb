// Package form holds the resume form model the voice controller edits.
package form

import "strings"

// Section identifies one heading-delimited region of the resume form.
type Section string

const (
	SectionBasics     Section = "basics"
	SectionEducation  Section = "education"
	SectionExperience Section = "experience"
	SectionProjects   Section = "projects"
	SectionSkills     Section = "skills"
)

// Sections lists every section in document order.
var Sections = []Section{
	SectionBasics,
	SectionEducation,
	SectionExperience,
	SectionProjects,
	SectionSkills,
}

// Title is the heading text rendered for the section.
func (s Section) Title() string {
	if s == "" {
		return ""
	}
	return strings.ToUpper(string(s[:1])) + string(s[1:])
}

// ParseSection resolves a spoken or configured section name.
func ParseSection(name string) (Section, bool) {
	target := Section(strings.ToLower(strings.TrimSpace(name)))
	for _, s := range Sections {
		if s == target {
			return s, true
		}
	}
	return "", false
}

// Repeated reports whether the section is a list of entries.
func (s Section) Repeated() bool {
	switch s {
	case SectionEducation, SectionExperience, SectionProjects:
		return true
	default:
		return false
	}
}

// Resume is the backing data behind the form.
type Resume struct {
	Title    string `json:"title"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`
	LinkedIn string `json:"linkedin"`
	GitHub   string `json:"github"`
	Summary  string `json:"summary"`

	Education  []Education  `json:"education"`
	Experience []Experience `json:"experience"`
	Projects   []Project    `json:"projects"`
	Skills     []string     `json:"skills"`
}

// Education is one education entry.
type Education struct {
	Degree      string `json:"degree"`
	Institution string `json:"institution"`
	Dates       string `json:"dates"`
	Details     string `json:"details"`
}

// Experience is one work experience entry.
type Experience struct {
	Role    string   `json:"role"`
	Company string   `json:"company"`
	Dates   string   `json:"dates"`
	Bullets []string `json:"bullets"`
}

// Project is one project entry.
type Project struct {
	Name    string   `json:"name"`
	Tech    string   `json:"tech"`
	Bullets []string `json:"bullets"`
}

// Clone returns a deep copy so callers cannot mutate form state.
func (r Resume) Clone() Resume {
	out := r
	out.Education = append([]Education(nil), r.Education...)
	if r.Experience != nil {
		out.Experience = make([]Experience, len(r.Experience))
		for i, item := range r.Experience {
			item.Bullets = append([]string(nil), item.Bullets...)
			out.Experience[i] = item
		}
	}
	if r.Projects != nil {
		out.Projects = make([]Project, len(r.Projects))
		for i, item := range r.Projects {
			item.Bullets = append([]string(nil), item.Bullets...)
			out.Projects[i] = item
		}
	}
	out.Skills = append([]string(nil), r.Skills...)
	return out
}

// splitLines turns a multi-line textarea value into trimmed, non-empty lines.
func splitLines(value string) []string {
	lines := strings.Split(value, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
