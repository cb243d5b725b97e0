package domain

import "time"

// BookMetadata describes a book of the corpus
type BookMetadata struct {
	ID            string `json:"book_id" yaml:"book_id"`
	Title         string `json:"title" yaml:"title"`
	Author        string `json:"author" yaml:"author"`
	YearPublished int    `json:"year_published" yaml:"year_published"`
	Type          string `json:"type" yaml:"type"`
	Source        string `json:"source" yaml:"source"`
	Language      string `json:"language" yaml:"language"`
}

// BookMetadataPatch holds the fields of a partial metadata update.
// Nil fields are left untouched.
type BookMetadataPatch struct {
	Title         *string `json:"title,omitempty"`
	Author        *string `json:"author,omitempty"`
	YearPublished *int    `json:"year_published,omitempty"`
	Type          *string `json:"type,omitempty"`
	Source        *string `json:"source,omitempty"`
	Language      *string `json:"language,omitempty"`
}

// Apply merges the patch into m
func (p BookMetadataPatch) Apply(m BookMetadata) BookMetadata {
	if p.Title != nil {
		m.Title = *p.Title
	}
	if p.Author != nil {
		m.Author = *p.Author
	}
	if p.YearPublished != nil {
		m.YearPublished = *p.YearPublished
	}
	if p.Type != nil {
		m.Type = *p.Type
	}
	if p.Source != nil {
		m.Source = *p.Source
	}
	if p.Language != nil {
		m.Language = *p.Language
	}
	return m
}

type BookSummary struct {
	ShortSummary  string `json:"short_summary" yaml:"short_summary"`
	LongSummary   string `json:"long_summary" yaml:"long_summary"`
	CentralThesis string `json:"central_thesis" yaml:"central_thesis"`
}

type StudyMetadata struct {
	DifficultyLevel  string `json:"difficulty_level" yaml:"difficulty_level"`
	RecommendedOrder int    `json:"recommended_order" yaml:"recommended_order"`
}

type CrossBookLink struct {
	Concept      string   `json:"concept" yaml:"concept"`
	Description  string   `json:"description" yaml:"description"`
	RelatedBooks []string `json:"related_books" yaml:"related_books"`
}

// Book is a static piece of the corpus plus user extras on its chapters
type Book struct {
	Metadata       BookMetadata    `json:"book_metadata" yaml:"book_metadata"`
	CoreThemes     []string        `json:"core_themes" yaml:"core_themes"`
	Summary        BookSummary     `json:"book_summary" yaml:"book_summary"`
	Chapters       []Chapter       `json:"chapters" yaml:"chapters"`
	CrossBookLinks []CrossBookLink `json:"cross_book_links" yaml:"cross_book_links"`
	StudyMetadata  StudyMetadata   `json:"study_metadata" yaml:"study_metadata"`
}

// FindChapter returns the index of the chapter, or -1
func (b *Book) FindChapter(chapterID string) int {
	for i := range b.Chapters {
		if b.Chapters[i].ID == chapterID {
			return i
		}
	}
	return -1
}

type Principle struct {
	ID            string   `json:"principle_id" yaml:"principle_id"`
	Title         string   `json:"title" yaml:"title"`
	Statement     string   `json:"statement" yaml:"statement"`
	Explanation   string   `json:"explanation" yaml:"explanation"`
	WhyItMatters  string   `json:"why_it_matters" yaml:"why_it_matters"`
	RelatedThemes []string `json:"related_themes" yaml:"related_themes"`
	RelatedBooks  []string `json:"related_books,omitempty" yaml:"related_books,omitempty"`
}

type Passage struct {
	ID               string   `json:"passage_id" yaml:"passage_id"`
	Text             string   `json:"text" yaml:"text"`
	SourcePage       string   `json:"source_page,omitempty" yaml:"source_page,omitempty"`
	Themes           []string `json:"themes" yaml:"themes"`
	LinkedPrinciples []string `json:"linked_principles" yaml:"linked_principles"`
	Tone             string   `json:"tone" yaml:"tone"`
}

type Application struct {
	ID               string   `json:"application_id" yaml:"application_id"`
	Context          string   `json:"context" yaml:"context"`
	Guidance         string   `json:"guidance" yaml:"guidance"`
	FocusShift       string   `json:"focus_shift" yaml:"focus_shift"`
	LinkedPrinciples []string `json:"linked_principles" yaml:"linked_principles"`
}

type ReflectionPrompt struct {
	ID           string   `json:"prompt_id" yaml:"prompt_id"`
	Question     string   `json:"question" yaml:"question"`
	Intent       string   `json:"intent" yaml:"intent"`
	LinkedThemes []string `json:"linked_themes" yaml:"linked_themes"`
}

// Part types of structured chapter content
const (
	PartParagraph        = "paragraph"
	PartQuote            = "quote"
	PartInsight          = "insight"
	PartHighlight        = "highlight"
	PartInstruction      = "instruction"
	PartConclusion       = "conclusion"
	PartHighlightedQuote = "highlighted_quote"
)

type ContentPart struct {
	Type    string `json:"type" yaml:"type"`
	Content string `json:"content" yaml:"content"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
}

// ContentSection holds either plain text or a list of parts
type ContentSection struct {
	Section  string        `json:"section" yaml:"section"`
	Text     string        `json:"text,omitempty" yaml:"text,omitempty"`
	Parts    []ContentPart `json:"parts,omitempty" yaml:"parts,omitempty"`
	Takeaway string        `json:"takeaway,omitempty" yaml:"takeaway,omitempty"`
}

type ChapterSummary struct {
	ShortSummary string `json:"short_summary" yaml:"short_summary"`
	KeyMessage   string `json:"key_message" yaml:"key_message"`
}

// Note is a user note attached to a chapter
type Note struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Highlight is a user-selected passage of a chapter
type Highlight struct {
	ID    string `json:"id"`
	Text  string `json:"text"`
	Color string `json:"color"`
}

// DefaultHighlightColor is used when a highlight is created without one
const DefaultHighlightColor = "yellow"

type Chapter struct {
	ID                string             `json:"chapter_id" yaml:"chapter_id"`
	Number            int                `json:"chapter_number" yaml:"chapter_number"`
	Title             string             `json:"chapter_title" yaml:"chapter_title"`
	Summary           ChapterSummary     `json:"chapter_summary" yaml:"chapter_summary"`
	FullText          string             `json:"full_text" yaml:"full_text"`
	Content           []ContentSection   `json:"content,omitempty" yaml:"content,omitempty"`
	Themes            []string           `json:"themes" yaml:"themes"`
	Principles        []Principle        `json:"principles" yaml:"principles"`
	Passages          []Passage          `json:"passages" yaml:"passages"`
	Applications      []Application      `json:"applications" yaml:"applications"`
	ReflectionPrompts []ReflectionPrompt `json:"reflection_prompts" yaml:"reflection_prompts"`

	// User-owned extras
	IsBookmarked bool        `json:"is_bookmarked,omitempty" yaml:"-"`
	Notes        []Note      `json:"notes,omitempty" yaml:"-"`
	Highlights   []Highlight `json:"highlights,omitempty" yaml:"-"`
}

// ChapterExtras is a partial update of the user-owned chapter fields.
// Nil fields are left untouched.
type ChapterExtras struct {
	IsBookmarked *bool       `json:"is_bookmarked,omitempty"`
	Notes        []Note      `json:"notes,omitempty"`
	Highlights   []Highlight `json:"highlights,omitempty"`
}
