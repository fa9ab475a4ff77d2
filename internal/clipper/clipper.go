package clipper

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"text/template"
	"time"

	"grocery-planner/internal/apperr"
	"grocery-planner/internal/llm"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
)

//go:embed prompt.md
var extractorPrompt string

var promptTemplate = template.Must(template.New("clipper").Parse(extractorPrompt))

const (
	agentName = "RecipeClipper"

	maxBodyBytes  = 4 << 20
	maxPromptText = 20000
)

// Source tells how a clipped recipe was extracted.
type Source string

const (
	SourceJSONLD Source = "json-ld"
	SourceModel  Source = "model"
	SourcePage   Source = "page"
)

// ClippedRecipe is what could be read from a recipe page.
type ClippedRecipe struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
	SourceURL   string   `json:"sourceUrl"`
	Source      Source   `json:"source"`
}

// UsageRecorder stores token usage of model calls.
type UsageRecorder interface {
	RecordUsage(ctx context.Context, agentName string, usage llm.TokenUsage, latency time.Duration) error
}

// Clipper fetches recipe pages and extracts recipes from them.
type Clipper struct {
	httpClient *http.Client
	textGen    llm.TextGenerator
	usage      UsageRecorder
	logger     *logrus.Entry
}

// NewClipper creates a new Clipper. textGen and usage may be nil, in which
// case pages without structured data fall back to their title and meta
// description.
func NewClipper(textGen llm.TextGenerator, usage UsageRecorder, logger *logrus.Entry) *Clipper {
	return &Clipper{
		httpClient: newPublicClient(15 * time.Second),
		textGen:    textGen,
		usage:      usage,
		logger:     logger,
	}
}

// ClipURL fetches rawURL and extracts a recipe: schema.org JSON-LD first,
// then the model when one is configured, then the page title.
func (c *Clipper) ClipURL(ctx context.Context, rawURL string) (*ClippedRecipe, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperr.BadRequest("Invalid recipe URL")
	}

	doc, err := c.fetch(ctx, u.String())
	if err != nil {
		return nil, err
	}

	if rec := extractJSONLD(doc); rec != nil {
		rec.SourceURL = u.String()
		rec.Source = SourceJSONLD
		return rec, nil
	}

	page := pageFallback(doc)
	if c.textGen != nil {
		rec, err := c.extractWithModel(ctx, u.String(), page.Title, cleanText(doc))
		if err == nil && rec.Title != "" {
			rec.SourceURL = u.String()
			rec.Source = SourceModel
			return rec, nil
		}
		if err != nil {
			c.logger.WithError(err).WithField("url", u.String()).Warn("model extraction failed, using page fallback")
		}
	}

	if page.Title == "" {
		return nil, apperr.BadRequest("No recipe found at URL")
	}
	page.SourceURL = u.String()
	page.Source = SourcePage
	return page, nil
}

func (c *Clipper) fetch(ctx context.Context, target string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, apperr.BadRequest("Invalid recipe URL")
	}
	req.Header.Set("User-Agent", "grocery-planner/1.0 (+recipe import)")
	req.Header.Set("Accept", "text/html")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, errBlockedAddress) {
			return nil, apperr.BadRequest("Recipe URL must point to a public host")
		}
		return nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.BadRequest(fmt.Sprintf("Failed to fetch URL: status %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", target, err)
	}
	return doc, nil
}

type promptData struct {
	URL   string
	Title string
	Text  string
}

func (c *Clipper) extractWithModel(ctx context.Context, pageURL, title, text string) (*ClippedRecipe, error) {
	start := time.Now()

	if len(text) > maxPromptText {
		text = text[:maxPromptText]
	}
	var buf bytes.Buffer
	if err := promptTemplate.Execute(&buf, promptData{URL: pageURL, Title: title, Text: text}); err != nil {
		return nil, fmt.Errorf("failed to build prompt: %w", err)
	}

	resp, err := c.textGen.GenerateContent(ctx, buf.String())
	if err != nil {
		return nil, fmt.Errorf("failed to get LLM response: %w", err)
	}
	if c.usage != nil {
		if err := c.usage.RecordUsage(ctx, agentName, resp.Usage, time.Since(start)); err != nil {
			c.logger.WithError(err).Warn("failed to record token usage")
		}
	}

	var rec ClippedRecipe
	if err := json.Unmarshal([]byte(llm.StripCodeFence(resp.Content)), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LLM response: %w", err)
	}
	rec.Title = strings.TrimSpace(rec.Title)
	return &rec, nil
}

// cleanText is the page's body text with scripts and page chrome removed.
func cleanText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, nav, header, footer, iframe, aside, form, .ads, #ads").Remove()
	return strings.Join(strings.Fields(body.Text()), " ")
}

func pageFallback(doc *goquery.Document) *ClippedRecipe {
	title := strings.TrimSpace(doc.Find("h1").First().Text())
	if title == "" {
		title, _ = doc.Find(`meta[property="og:title"]`).Attr("content")
		title = strings.TrimSpace(title)
	}
	if title == "" {
		title = strings.TrimSpace(doc.Find("title").First().Text())
	}

	desc, ok := doc.Find(`meta[name="description"]`).Attr("content")
	if !ok {
		desc, _ = doc.Find(`meta[property="og:description"]`).Attr("content")
	}

	return &ClippedRecipe{
		Title:       title,
		Description: strings.TrimSpace(desc),
		Ingredients: []string{},
		Steps:       []string{},
	}
}
