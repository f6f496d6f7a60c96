package docstore

import (
	"crypto/sha256"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DocumentScanner walks source directories and parses markdown and
// plain text files into documents.
type DocumentScanner struct {
	includePatterns []string
	excludePatterns []string
}

// NewDocumentScanner creates a scanner with default patterns
func NewDocumentScanner() *DocumentScanner {
	return &DocumentScanner{
		includePatterns: []string{"*.md", "*.mdx", "*.markdown", "*.txt"},
		excludePatterns: []string{"node_modules", ".git", ".svn", "vendor"},
	}
}

// NewDocumentScannerWithPatterns creates a scanner with custom patterns
func NewDocumentScannerWithPatterns(include, exclude []string) *DocumentScanner {
	scanner := NewDocumentScanner()
	if len(include) > 0 {
		scanner.includePatterns = include
	}
	if len(exclude) > 0 {
		scanner.excludePatterns = exclude
	}
	return scanner
}

// ScanFile scans a single file and returns a Document
func (ds *DocumentScanner) ScanFile(path string) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat file %s: %w", path, err)
	}

	content, err := os.ReadFile(path) //nolint:gosec // File path comes from directory scanning
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}

	return ds.parseDocument(string(content), path, info)
}

// ScanDirectory scans a directory recursively for matching files
func (ds *DocumentScanner) ScanDirectory(path string) ([]*Document, error) {
	var documents []*Document

	err := filepath.WalkDir(path, func(filePath string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			dirName := d.Name()
			for _, excludePattern := range ds.excludePatterns {
				if matched, _ := filepath.Match(excludePattern, dirName); matched {
					return filepath.SkipDir
				}
			}
			if strings.HasPrefix(dirName, ".") && dirName != "." {
				return filepath.SkipDir
			}
			return nil
		}

		fileName := d.Name()
		if strings.HasPrefix(fileName, ".") {
			return nil
		}

		matched := false
		for _, pattern := range ds.includePatterns {
			if match, _ := filepath.Match(pattern, fileName); match {
				matched = true
				break
			}
		}

		if !matched {
			return nil
		}

		doc, err := ds.ScanFile(filePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: Failed to scan file %s: %v\n", filePath, err)
			return nil
		}

		documents = append(documents, doc)
		return nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", path, err)
	}

	return documents, nil
}

// ExtractMetadata extracts YAML frontmatter from markdown content
func (ds *DocumentScanner) ExtractMetadata(content string) (*Metadata, string, error) {
	metadata := &Metadata{
		Custom: make(map[string]interface{}),
	}

	if !strings.HasPrefix(content, "---") {
		return metadata, content, nil
	}

	lines := strings.Split(content, "\n")
	var frontmatterLines []string
	var contentLines []string
	inFrontmatter := false
	frontmatterEnded := false

	for i, line := range lines {
		switch {
		case i == 0 && strings.TrimSpace(line) == "---":
			inFrontmatter = true
		case inFrontmatter && strings.TrimSpace(line) == "---":
			inFrontmatter = false
			frontmatterEnded = true
		case inFrontmatter:
			frontmatterLines = append(frontmatterLines, line)
		default:
			contentLines = append(contentLines, line)
		}
	}

	// An unterminated frontmatter block is treated as plain content.
	if !frontmatterEnded {
		return metadata, content, nil
	}

	if len(frontmatterLines) > 0 {
		var yamlData map[string]interface{}
		if err := yaml.Unmarshal([]byte(strings.Join(frontmatterLines, "\n")), &yamlData); err != nil {
			return nil, "", fmt.Errorf("failed to parse YAML frontmatter: %w", err)
		}

		if title, ok := yamlData["title"].(string); ok {
			metadata.Custom["title"] = title
		}
		if author, ok := yamlData["author"].(string); ok {
			metadata.Author = author
		}
		if dateStr, ok := yamlData["date"].(string); ok {
			if date, err := time.Parse("2006-01-02", dateStr); err == nil {
				metadata.Date = &date
			} else if date, err := time.Parse(time.RFC3339, dateStr); err == nil {
				metadata.Date = &date
			}
		}
		if tags, ok := yamlData["tags"].([]interface{}); ok {
			for _, tag := range tags {
				if tagStr, ok := tag.(string); ok {
					metadata.Tags = append(metadata.Tags, tagStr)
				}
			}
		}
		if lang, ok := yamlData["language"].(string); ok {
			metadata.Language = lang
		}

		for key, value := range yamlData {
			switch key {
			case "title", "author", "date", "tags", "language":
			default:
				metadata.Custom[key] = value
			}
		}
	}

	remainingContent := strings.Join(contentLines, "\n")
	remainingContent = strings.TrimLeft(remainingContent, "\n")

	return metadata, remainingContent, nil
}

// SplitSections splits content into retrieval sections by headings
func (ds *DocumentScanner) SplitSections(content string) ([]*Section, error) {
	var sections []*Section
	lines := strings.Split(content, "\n")

	var currentSection *Section
	var currentContent []string

	for i, line := range lines {
		if headingLevel := ds.getHeadingLevel(line); headingLevel > 0 {
			if currentSection != nil {
				currentSection.Content = strings.Join(currentContent, "\n")
				currentSection.EndLine = i
				currentSection.WordCount = countWords(currentSection.Content)
				sections = append(sections, currentSection)
			}

			currentSection = &Section{
				ID:        fmt.Sprintf("section_%d", len(sections)+1),
				Heading:   ds.extractHeadingText(line),
				Level:     headingLevel,
				StartLine: i + 1,
			}
			currentContent = []string{}
		} else {
			currentContent = append(currentContent, line)
		}
	}

	if currentSection != nil {
		currentSection.Content = strings.Join(currentContent, "\n")
		currentSection.EndLine = len(lines)
		currentSection.WordCount = countWords(currentSection.Content)
		sections = append(sections, currentSection)
	}

	// Content without headings becomes a single section.
	if len(sections) == 0 {
		sections = []*Section{{
			ID:        "section_1",
			Heading:   "",
			Content:   content,
			Level:     1,
			StartLine: 1,
			EndLine:   len(lines),
			WordCount: countWords(content),
		}}
	}

	return sections, nil
}

func (ds *DocumentScanner) parseDocument(content, path string, info os.FileInfo) (*Document, error) {
	format := "text"
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".md" || ext == ".mdx" || ext == ".markdown" {
		format = "markdown"
	}

	cleanContent := content
	metadata := &Metadata{Custom: make(map[string]interface{})}

	if format == "markdown" {
		var err error
		metadata, cleanContent, err = ds.ExtractMetadata(content)
		if err != nil {
			return nil, fmt.Errorf("failed to extract metadata: %w", err)
		}
	}

	metadata.Format = format

	sections, err := ds.SplitSections(cleanContent)
	if err != nil {
		return nil, fmt.Errorf("failed to split sections: %w", err)
	}

	docID := generateDocumentID(path)

	doc := &Document{
		ID:           docID,
		Path:         path,
		Title:        ds.extractTitle(cleanContent, metadata, path),
		Content:      cleanContent,
		Metadata:     metadata,
		Sections:     sections,
		LastModified: info.ModTime(),
		Size:         info.Size(),
		Hash:         generateHash(content),
	}

	for _, section := range sections {
		section.DocumentID = docID
	}

	return doc, nil
}

func (ds *DocumentScanner) extractTitle(content string, metadata *Metadata, path string) string {
	if title, ok := metadata.Custom["title"].(string); ok && title != "" {
		return title
	}

	for _, line := range strings.Split(content, "\n") {
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(line[2:])
		}
	}

	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func (ds *DocumentScanner) getHeadingLevel(line string) int {
	trimmed := strings.TrimSpace(line)

	if !strings.HasPrefix(trimmed, "#") {
		return 0
	}

	count := 0
	for _, char := range trimmed {
		switch char {
		case '#':
			count++
		case ' ':
			if count > 0 && count <= 6 {
				return count
			}
			return 0
		default:
			return 0
		}
	}

	if count > 0 && count <= 6 {
		return count
	}
	return 0
}

func (ds *DocumentScanner) extractHeadingText(line string) string {
	text := strings.TrimLeft(strings.TrimSpace(line), "#")
	return strings.TrimSpace(text)
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func generateDocumentID(path string) string {
	id := strings.ReplaceAll(path, "/", "_")
	id = strings.ReplaceAll(id, "\\", "_")
	id = strings.ReplaceAll(id, " ", "_")

	if ext := filepath.Ext(id); ext != "" {
		id = id[:len(id)-len(ext)]
	}

	return id
}

func generateHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", hash)
}
