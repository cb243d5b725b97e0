package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/pbaille/reflect/internal/domain"
	"github.com/pbaille/reflect/internal/fetcher"
	"github.com/pbaille/reflect/internal/library"
)

func (s *Server) listBooks(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	books := library.SearchBooks(s.state.Snapshot().Books, query)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"books": books,
		"query": query,
	})
}

func (s *Server) book(w http.ResponseWriter, r *http.Request) (domain.Book, bool) {
	snap := s.state.Snapshot()
	i := snap.FindBook(r.PathValue("book"))
	if i < 0 {
		writeError(w, http.StatusNotFound, "book not found")
		return domain.Book{}, false
	}
	return snap.Books[i], true
}

func (s *Server) listChapters(w http.ResponseWriter, r *http.Request) {
	book, ok := s.book(w, r)
	if !ok {
		return
	}
	query := r.URL.Query().Get("q")
	chapters := library.SearchChapters(book, query)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"book_id":  book.Metadata.ID,
		"chapters": chapters,
		"query":    query,
	})
}

// ChapterResponse is a chapter with its theme glossary
type ChapterResponse struct {
	BookID  string                     `json:"book_id"`
	Chapter domain.Chapter             `json:"chapter"`
	Themes  []library.ThemeExplanation `json:"themes"`
}

func (s *Server) getChapter(w http.ResponseWriter, r *http.Request) {
	book, ch, ok := library.Lookup(s.state.Snapshot(), r.PathValue("book"), r.PathValue("chapter"))
	if !ok {
		writeError(w, http.StatusNotFound, "chapter not found")
		return
	}

	themes := make([]library.ThemeExplanation, 0, len(ch.Themes))
	for _, t := range ch.Themes {
		themes = append(themes, library.ThemeExplanation{Theme: t, Explanation: library.Explain(t)})
	}
	writeJSON(w, http.StatusOK, ChapterResponse{BookID: book.Metadata.ID, Chapter: ch, Themes: themes})
}

func (s *Server) updateBook(w http.ResponseWriter, r *http.Request) {
	var patch domain.BookMetadataPatch
	if !decode(w, r, &patch) {
		return
	}
	meta, err := s.state.UpdateBookMetadata(r.Context(), r.PathValue("book"), patch)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, meta)
}

func (s *Server) updateChapterExtras(w http.ResponseWriter, r *http.Request) {
	var extras domain.ChapterExtras
	if !decode(w, r, &extras) {
		return
	}
	ch, err := s.state.UpdateChapterExtras(r.Context(), r.PathValue("book"), r.PathValue("chapter"), extras)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ch)
}

func (s *Server) toggleBookmark(w http.ResponseWriter, r *http.Request) {
	marked, err := s.state.ToggleBookmark(r.Context(), r.PathValue("book"), r.PathValue("chapter"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"is_bookmarked": marked})
}

// NoteRequest is the request body for adding a note
type NoteRequest struct {
	Text string `json:"text"`
}

func (s *Server) addNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decode(w, r, &req) {
		return
	}
	note, err := s.state.AddNote(r.Context(), r.PathValue("book"), r.PathValue("chapter"), req.Text)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request) {
	err := s.state.DeleteNote(r.Context(), r.PathValue("book"), r.PathValue("chapter"), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HighlightRequest is the request body for adding a highlight
type HighlightRequest struct {
	Text  string `json:"text"`
	Color string `json:"color,omitempty"`
}

func (s *Server) addHighlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if !decode(w, r, &req) {
		return
	}
	hl, err := s.state.AddHighlight(r.Context(), r.PathValue("book"), r.PathValue("chapter"), req.Text, req.Color)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hl)
}

func (s *Server) deleteHighlight(w http.ResponseWriter, r *http.Request) {
	err := s.state.DeleteHighlight(r.Context(), r.PathValue("book"), r.PathValue("chapter"), r.PathValue("id"))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) exportStudySet(w http.ResponseWriter, r *http.Request) {
	book, ch, ok := library.Lookup(s.state.Snapshot(), r.PathValue("book"), r.PathValue("chapter"))
	if !ok {
		writeError(w, http.StatusNotFound, "chapter not found")
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType("attachment", map[string]string{"filename": library.ExportFilename(ch)}))
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, library.StudySet(book, ch))
}

// ImportRequest is the JSON body for importing a chapter from a URL
type ImportRequest struct {
	URL string `json:"url"`
}

// importChapter accepts either an HTML document as the body or a JSON
// body naming a URL to fetch
func (s *Server) importChapter(w http.ResponseWriter, r *http.Request) {
	var page []byte
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	if mediaType == "text/html" {
		body, err := io.ReadAll(io.LimitReader(r.Body, 5*1024*1024))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		page = body
	} else {
		var req ImportRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || !fetcher.IsURL(req.URL) {
			writeError(w, http.StatusBadRequest, "a text/html body or a JSON body with a url is required")
			return
		}
		body, err := fetcher.Fetch(r.Context(), req.URL)
		if err != nil {
			writeError(w, http.StatusBadGateway, fmt.Sprintf("fetch chapter: %v", err))
			return
		}
		page = body
	}

	ch, err := fetcher.ParseChapter(bytes.NewReader(page))
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	ch, err = s.state.ImportChapter(r.Context(), r.PathValue("book"), ch)
	if err != nil {
		writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ch)
}

func (s *Server) themes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"themes": library.Glossary(),
	})
}
