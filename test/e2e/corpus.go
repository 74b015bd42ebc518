// Package e2e exercises the full consultation pipeline over a synthetic
// statute corpus: ingest, retrieval, answering, lookup, and persistence.
package e2e

import (
	"fmt"
	"strings"
)

// StatuteSection is one numbered provision in the synthetic code.
type StatuteSection struct {
	Number     int
	Title      string
	Definition string
	Punishment string
}

// ConsultCase is a question plus the assertions the pipeline must satisfy:
// the classifier's label, a citation the mock answer carries, and a term
// that must surface the right passage through lookup.
type ConsultCase struct {
	Question     string
	MockAnswer   string
	WantType     string
	WantCitation string
	LookupTerm   string
	Description  string
}

// Corpus holds the chapter files and consultation test cases.
type Corpus struct {
	// Chapters maps a base file name (without extension) to its full text.
	Chapters  map[string]string
	Sections  []StatuteSection
	TestCases []ConsultCase
}

// BuildCorpus assembles a small penal-code corpus: chapters of numbered
// sections, each with a definition and a punishment clause, plus the
// consultation cases asserted against it. Section numbers are unique so
// citation assertions are unambiguous.
func BuildCorpus() *Corpus {
	sections := []StatuteSection{
		{101, "Culpable homicide", "Whoever causes death by doing an act with the intention of causing death commits culpable homicide.", "Whoever commits culpable homicide shall be punished with imprisonment for life."},
		{103, "Murder", "Culpable homicide is murder if the act by which the death is caused is done with the intention of causing death.", "Whoever commits murder shall be punished with death or imprisonment for life, and shall also be liable to fine."},
		{115, "Voluntarily causing hurt", "Whoever does any act with the intention of causing hurt to any person is said voluntarily to cause hurt.", "Whoever voluntarily causes hurt shall be punished with imprisonment of either description for a term which may extend to one year, or with fine."},
		{130, "Assault", "Whoever makes any gesture intending to cause any person present to apprehend criminal force is said to commit an assault.", "Whoever commits an assault shall be punished with imprisonment for a term which may extend to three months, or with fine."},
		{303, "Theft", "Whoever, intending to take dishonestly any movable property out of the possession of any person without that person's consent, moves that property, is said to commit theft.", "Whoever commits theft shall be punished with imprisonment of either description for a term which may extend to three years, or with fine, or with both."},
		{304, "Snatching", "Theft is snatching if the offender suddenly or quickly or forcibly seizes any movable property from any person.", "Whoever commits snatching shall be punished with imprisonment of either description for a term which may extend to three years, and shall also be liable to fine."},
		{309, "Robbery", "In all robbery there is either theft or extortion; theft is robbery if the offender voluntarily causes hurt in order to commit the theft.", "Whoever commits robbery shall be punished with rigorous imprisonment for a term which may extend to ten years, and shall also be liable to fine."},
		{316, "Criminal breach of trust", "Whoever, being entrusted with property, dishonestly misappropriates that property commits criminal breach of trust.", "Whoever commits criminal breach of trust shall be punished with imprisonment for a term which may extend to five years, or with fine, or with both."},
		{318, "Cheating", "Whoever, by deceiving any person, fraudulently induces the person deceived to deliver any property is said to cheat.", "Whoever cheats shall be punished with imprisonment of either description for a term which may extend to three years, or with fine, or with both."},
		{351, "Criminal intimidation", "Whoever threatens another with any injury to his person, reputation or property, with intent to cause alarm, commits criminal intimidation.", "Whoever commits criminal intimidation shall be punished with imprisonment for a term which may extend to two years, or with fine, or with both."},
		{61, "Criminal conspiracy", "When two or more persons agree to do an illegal act, such an agreement is designated a criminal conspiracy.", "Whoever is a party to a criminal conspiracy shall be punished in the same manner as if he had abetted the offence."},
		{45, "Abetment", "A person abets the doing of a thing who instigates any person to do that thing or engages in any conspiracy for the doing of that thing.", "Whoever abets an offence shall be punished with the punishment provided for the offence."},
	}

	chapters := map[string][]StatuteSection{
		"chapter-offences-against-person": pick(sections, 101, 103, 115, 130),
		"chapter-offences-property":       pick(sections, 303, 304, 309, 316, 318),
		"chapter-intimidation":            pick(sections, 351),
		"chapter-inchoate":                pick(sections, 61, 45),
	}

	files := make(map[string]string, len(chapters))
	for name, secs := range chapters {
		files[name] = renderChapter(name, secs)
	}

	cases := []ConsultCase{
		{
			Question:     "What is the punishment for theft?",
			MockAnswer:   "Under Section 303, whoever commits theft shall be punished with imprisonment which may extend to three years, or with fine, or with both.",
			WantType:     "penalty",
			WantCitation: "Section 303",
			LookupTerm:   "theft",
			Description:  "penalty question cites the theft provision",
		},
		{
			Question:     "What does Section 103 say?",
			MockAnswer:   "Section 103 provides that whoever commits murder shall be punished with death or imprisonment for life.",
			WantType:     "citation",
			WantCitation: "Section 103",
			LookupTerm:   "murder",
			Description:  "citation question about the murder provision",
		},
		{
			Question:     "What is the definition of criminal conspiracy?",
			MockAnswer:   "Per Section 61, a criminal conspiracy is an agreement between two or more persons to do an illegal act.",
			WantType:     "definition",
			WantCitation: "Section 61",
			LookupTerm:   "conspiracy",
			Description:  "definition question cites the conspiracy provision",
		},
		{
			Question:     "How to distinguish theft from snatching?",
			MockAnswer:   "Section 304 treats theft as snatching when the offender suddenly or forcibly seizes the property.",
			WantType:     "procedure",
			WantCitation: "Section 304",
			LookupTerm:   "snatching",
			Description:  "how-to phrasing classifies as procedure",
		},
		{
			Question:     "Compare robbery and criminal breach of trust",
			MockAnswer:   "Robbery under Section 309 requires theft or extortion with hurt, while Sec. 316 covers dishonest misappropriation of entrusted property.",
			WantType:     "comparison",
			WantCitation: "Section 309",
			LookupTerm:   "robbery",
			Description:  "comparison question with two cited provisions",
		},
	}

	return &Corpus{
		Chapters:  files,
		Sections:  sections,
		TestCases: cases,
	}
}

func pick(sections []StatuteSection, numbers ...int) []StatuteSection {
	out := make([]StatuteSection, 0, len(numbers))
	for _, n := range numbers {
		for _, s := range sections {
			if s.Number == n {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// renderChapter lays a chapter out the way the statute files read: a heading,
// then each section as "Section N. Title." followed by its definition and
// punishment paragraphs.
func renderChapter(name string, sections []StatuteSection) string {
	var b strings.Builder
	heading := strings.ReplaceAll(strings.TrimPrefix(name, "chapter-"), "-", " ")
	fmt.Fprintf(&b, "CHAPTER: %s\n\n", strings.ToUpper(heading))
	for _, s := range sections {
		fmt.Fprintf(&b, "Section %d. %s.\n\n", s.Number, s.Title)
		fmt.Fprintf(&b, "%s\n\n", s.Definition)
		fmt.Fprintf(&b, "%s\n\n", s.Punishment)
	}
	return b.String()
}

// SectionText returns the combined text of the numbered section, or "" when
// the corpus has no such section.
func (c *Corpus) SectionText(number int) string {
	for _, s := range c.Sections {
		if s.Number == number {
			return s.Definition + " " + s.Punishment
		}
	}
	return ""
}
