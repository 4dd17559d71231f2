package knowledge

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/movne-global/sales-ai-platform/pkg/logging"
)

// Provider is a read-only key→text lookup for narrative blocks used to
// assemble system prompts. A missing key yields an empty string, not an error.
type Provider interface {
	Get(key string) string
}

// PatternResponse is one entry of the canned sales-responses table.
// Entries keep the order they appear in the YAML document.
type PatternResponse struct {
	Pattern  string `yaml:"pattern"`
	Response string `yaml:"response"`
}

// Store holds the static knowledge loaded from the config directory.
type Store struct {
	texts          map[string]string
	salesResponses []PatternResponse
}

// knowledge files and the keys each one contributes.
var knowledgeFiles = []struct {
	filename string
	fields   map[string]string // yaml field -> provider key
}{
	{"company_info.yaml", map[string]string{"description": "company", "advantages": "advantages"}},
	{"products.yaml", map[string]string{"description": "product"}},
	{"legal.yaml", map[string]string{"disclaimer": "disclaimer"}},
}

// Load reads the YAML knowledge files from dir. Missing or malformed files
// degrade to empty entries; the engine treats absent knowledge as empty
// context rather than a failure.
func Load(dir string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}

	s := &Store{texts: make(map[string]string)}

	for _, kf := range knowledgeFiles {
		path := filepath.Join(dir, kf.filename)
		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("knowledge file missing", "file", kf.filename, "error", err)
			continue
		}
		var doc map[string]string
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			logger.Error("knowledge file malformed", "file", kf.filename, "error", err)
			continue
		}
		for field, key := range kf.fields {
			if v := doc[field]; v != "" {
				s.texts[key] = v
			}
		}
		logger.Info("loaded knowledge file", "file", kf.filename)
	}

	responses, err := loadSalesResponses(filepath.Join(dir, "sales_responses.yaml"))
	if err != nil {
		logger.Warn("sales responses unavailable", "error", err)
	}
	s.salesResponses = responses

	return s
}

// Get returns the text for a knowledge key, or "" when absent.
func (s *Store) Get(key string) string {
	return s.texts[key]
}

// SalesResponses returns the ordered pattern table for the response cache.
func (s *Store) SalesResponses() []PatternResponse {
	return s.salesResponses
}

// loadSalesResponses decodes the sales-responses YAML while preserving the
// document order of categories and entries. A plain map decode would
// randomize category order and make pattern precedence non-reproducible.
func loadSalesResponses(path string) ([]PatternResponse, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, fmt.Errorf("knowledge: failed to parse %s: %w", filepath.Base(path), err)
	}
	if len(root.Content) == 0 {
		return nil, nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("knowledge: sales responses must be a mapping of categories")
	}

	var out []PatternResponse
	// Mapping nodes alternate key, value in document order.
	for i := 0; i+1 < len(doc.Content); i += 2 {
		value := doc.Content[i+1]
		if value.Kind != yaml.SequenceNode {
			continue
		}
		for _, entry := range value.Content {
			var pr PatternResponse
			if err := entry.Decode(&pr); err != nil {
				continue
			}
			if pr.Pattern == "" || pr.Response == "" {
				continue
			}
			out = append(out, pr)
		}
	}
	return out, nil
}
