package subtitle

import (
	_ "embed"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

//go:embed templates/transcript.html.tmpl
var transcriptTemplate string

var htmlTmpl = template.Must(template.New("transcript").Parse(transcriptTemplate))

const defaultTitle = "Transcript"

type cssPalette struct {
	Dark, Bright, Text, Tint template.CSS
}

type htmlSegment struct {
	ID         string
	Start, End string
	Badge      string
	Text       string
}

type htmlView struct {
	Lang       string
	Title      string
	Author     string
	SourceURL  string
	Duration   string
	Untimed    bool
	Palette    cssPalette
	Paragraphs []string
	Segments   []htmlSegment
}

// RenderHTML renders the branded, self-contained transcript page. Each
// segment is an <li class="segment" id="seg-N"> carrying data-start and
// data-end so that ParseHTML can read the transcript back.
func RenderHTML(t *Transcript) (string, error) {
	view := htmlView{
		Lang:      t.Metadata.Language,
		Title:     t.Metadata.Title,
		Author:    t.Metadata.Author,
		SourceURL: t.Metadata.SourceURL,
		Untimed:   t.Untimed,
		Palette: cssPalette{
			Dark:   template.CSS(DefaultPalette.Dark),
			Bright: template.CSS(DefaultPalette.Bright),
			Text:   template.CSS(DefaultPalette.Text),
			Tint:   template.CSS(DefaultPalette.Tint),
		},
		Paragraphs: splitParagraphs(t.FullText(), sentencesPerParagraph),
		Segments:   make([]htmlSegment, 0, len(t.Segments)),
	}
	if view.Lang == "" {
		view.Lang = "en"
	}
	if view.Title == "" {
		view.Title = defaultTitle
	}
	if !t.Untimed && t.TotalDuration() > 0 {
		view.Duration = humanDuration(t.TotalDuration())
	}

	for i, seg := range t.Segments {
		hs := htmlSegment{
			ID:    segmentID(i),
			Start: strconv.FormatFloat(seg.Start, 'f', 3, 64),
			End:   strconv.FormatFloat(seg.End, 'f', 3, 64),
			Text:  seg.Text,
		}
		if !t.Untimed {
			hs.Badge = displayTime(seg.Start)
		}
		view.Segments = append(view.Segments, hs)
	}

	var sb strings.Builder
	if err := htmlTmpl.Execute(&sb, view); err != nil {
		return "", fmt.Errorf("render html: %w", err)
	}
	return sb.String(), nil
}

func segmentID(i int) string {
	return "seg-" + strconv.Itoa(i+1)
}

// ParseHTML reads a transcript back from a document produced by RenderHTML.
// Segments come from the data attributes of each segment element and the
// text of its .text span; metadata comes from the <meta> tags and the
// document language.
func ParseHTML(content string) (*Transcript, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, &MalformedError{Block: 0, Reason: "unparseable html: " + err.Error()}
	}

	var (
		meta     Metadata
		untimed  bool
		list     *html.Node
		segments []Segment
		parseErr error
	)

	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				meta.Language = attr(n, "lang")
			case "meta":
				switch attr(n, "name") {
				case "transcript:title":
					meta.Title = attr(n, "content")
				case "author":
					meta.Author = attr(n, "content")
				case "transcript:source":
					meta.SourceURL = attr(n, "content")
				case "transcript:untimed":
					untimed = attr(n, "content") == "true"
				}
			case "ol", "ul":
				if attr(n, "id") == "segments" {
					list = n
				}
			case "li", "div":
				if hasClass(n, "segment") && parseErr == nil {
					seg, err := parseSegmentNode(len(segments), n)
					if err != nil {
						parseErr = err
						return
					}
					segments = append(segments, seg)
					return
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if parseErr != nil {
		return nil, parseErr
	}
	if list == nil {
		return nil, &MalformedError{Block: 0, Reason: "document has no transcript segment list"}
	}

	t, err := New(segments, meta)
	if err != nil {
		return nil, err
	}
	t.Untimed = untimed
	return t, nil
}

func parseSegmentNode(index int, n *html.Node) (Segment, error) {
	start, err := strconv.ParseFloat(attr(n, "data-start"), 64)
	if err != nil {
		return Segment{}, &MalformedError{Block: index, Line: attr(n, "data-start"), Reason: "segment has no parseable data-start"}
	}
	end, err := strconv.ParseFloat(attr(n, "data-end"), 64)
	if err != nil {
		return Segment{}, &MalformedError{Block: index, Line: attr(n, "data-end"), Reason: "segment has no parseable data-end"}
	}

	textNode := findClass(n, "text")
	if textNode == nil {
		return Segment{}, &MalformedError{Block: index, Reason: "segment has no text"}
	}
	return Segment{Start: start, End: end, Text: textContent(textNode)}, nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func findClass(n *html.Node, class string) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && hasClass(c, class) {
			return c
		}
		if found := findClass(c, class); found != nil {
			return found
		}
	}
	return nil
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(textContent(c))
	}
	return sb.String()
}
