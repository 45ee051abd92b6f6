package structure

import (
	"github.com/sashabaranov/go-openai/jsonschema"
)

const (
	schemaName    = "structured_book"
	unknownAuthor = "Unknown Author"
)

const systemPrompt = `You are an expert document structurer. The user message contains raw text extracted from a PDF file.
Analyze this text and structure it into a valid JSON object representing a book.
Identify a plausible title, author, and divide the content into logical chapters.
Each chapter must have a title and its content formatted as a single string of well-formed XHTML.
Use <p> tags for paragraphs. If you detect headings in the text, use <h2> or <h3> tags for them.
If the author cannot be found, use '` + unknownAuthor + `'.
Ensure the entire output adheres to the provided JSON schema and contains nothing else.`

// bookSchema describes expected response, it mirrors book.Book.
var bookSchema = &jsonschema.Definition{
	Type: jsonschema.Object,
	Properties: map[string]jsonschema.Definition{
		"title": {
			Type:        jsonschema.String,
			Description: "The main title of the book. Infer this from the text.",
		},
		"author": {
			Type:        jsonschema.String,
			Description: "The author of the book. If not found, use '" + unknownAuthor + "'.",
		},
		"chapters": {
			Type:        jsonschema.Array,
			Description: "An array of chapters that make up the book.",
			Items: &jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"title": {
						Type:        jsonschema.String,
						Description: "The title of this chapter.",
					},
					"content": {
						Type:        jsonschema.String,
						Description: "The full content of the chapter, formatted as a single string of well-formed XHTML. Use <p> for paragraphs and <h2> or <h3> for subheadings.",
					},
				},
				Required:             []string{"title", "content"},
				AdditionalProperties: false,
			},
		},
	},
	Required:             []string{"title", "author", "chapters"},
	AdditionalProperties: false,
}
