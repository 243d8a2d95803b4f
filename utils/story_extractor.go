package utils

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"google.golang.org/genai"
)

// StoryExtractor turns a spreadsheet of requirements into user story texts
type StoryExtractor interface {
	Extract(ctx context.Context, filename, contentType string, data []byte) ([]string, error)
}

var ErrNoStories = errors.New("no user stories found in the file")

const extractionPrompt = `You receive a spreadsheet describing the scope of an AI adoption project.
Extract every user story it contains. Answer with JSON only, using exactly this shape:
{"historias": ["As a ... I want ... so that ...", "..."]}
Do not add explanations.`

// GeminiExtractor asks a Gemini model to read the spreadsheet
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

func NewGeminiExtractor(ctx context.Context, apiKey, model string) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiExtractor{client: client, model: model}, nil
}

func (g *GeminiExtractor) Extract(ctx context.Context, filename, contentType string, data []byte) ([]string, error) {
	payload, mime, err := PrepareSpreadsheet(filename, contentType, data)
	if err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(payload, mime),
			genai.NewPartFromText(extractionPrompt),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("extract stories: %w", err)
	}
	return ParseExtractedStories(resp.Text())
}

// PrepareSpreadsheet converts xlsx workbooks to CSV of their first sheet so
// the model gets plain text. CSV and legacy xls files are passed through.
func PrepareSpreadsheet(filename, contentType string, data []byte) ([]byte, string, error) {
	mime, ok := SpreadsheetType(filename, contentType, data)
	if !ok {
		return nil, "", fmt.Errorf("unsupported file type for %s, use xls, xlsx or csv", filename)
	}
	if mime != MimeXLSX {
		return data, mime, nil
	}

	book, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("open workbook: %w", err)
	}
	defer book.Close()

	rows, err := book.GetRows(book.GetSheetName(0))
	if err != nil {
		return nil, "", fmt.Errorf("read workbook: %w", err)
	}

	var out bytes.Buffer
	w := csv.NewWriter(&out)
	if err := w.WriteAll(rows); err != nil {
		return nil, "", fmt.Errorf("convert workbook: %w", err)
	}
	return out.Bytes(), MimeCSV, nil
}

// ParseExtractedStories reads the model answer. Markdown code fences are
// tolerated, blank entries dropped.
func ParseExtractedStories(text string) ([]string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var answer struct {
		Historias []string `json:"historias"`
		Stories   []string `json:"stories"`
	}
	if err := json.Unmarshal([]byte(text), &answer); err != nil {
		return nil, fmt.Errorf("model answer is not valid JSON: %w", err)
	}

	var stories []string
	for _, s := range append(answer.Historias, answer.Stories...) {
		if s = strings.TrimSpace(s); s != "" {
			stories = append(stories, s)
		}
	}
	if len(stories) == 0 {
		return nil, ErrNoStories
	}
	return stories, nil
}
