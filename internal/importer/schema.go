package importer

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// ImportSchema is the top-level structure of a history import file.
type ImportSchema struct {
	Proposals []ProposalImport `json:"proposals" yaml:"proposals"`
}

// ProposalImport defines one past proposal in the import file.
type ProposalImport struct {
	ID         string         `json:"id,omitempty" yaml:"id,omitempty"`
	Title      string         `json:"title" yaml:"title"`
	ClientName string         `json:"client_name,omitempty" yaml:"client_name,omitempty"`
	Industry   string         `json:"industry,omitempty" yaml:"industry,omitempty"`
	Date       string         `json:"date" yaml:"date"`
	Tags       []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	FileName   string         `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Status     string         `json:"status" yaml:"status"`
	Quality    *QualityImport `json:"quality,omitempty" yaml:"quality,omitempty"`
}

// QualityImport is a previously computed assessment carried along with the
// proposal.
type QualityImport struct {
	Compliance          int    `json:"compliance" yaml:"compliance"`
	ComplianceReason    string `json:"compliance_reason,omitempty" yaml:"compliance_reason,omitempty"`
	Expertise           int    `json:"expertise" yaml:"expertise"`
	ExpertiseReason     string `json:"expertise_reason,omitempty" yaml:"expertise_reason,omitempty"`
	IndustryMatch       int    `json:"industry_match" yaml:"industry_match"`
	IndustryMatchReason string `json:"industry_match_reason,omitempty" yaml:"industry_match_reason,omitempty"`
	Total               int    `json:"total" yaml:"total"`
	Comment             string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// LoadImportSchema reads and parses an import file. Files ending in .yaml or
// .yml are decoded as YAML, everything else as JSON.
func LoadImportSchema(fs afero.Fs, path string) (*ImportSchema, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var schema ImportSchema
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &schema)
	default:
		err = json.Unmarshal(data, &schema)
	}
	if err != nil {
		return nil, fmt.Errorf("parsing import file: %w", err)
	}
	return &schema, nil
}
