package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/triagexai/triage/internal/domain/xai"
)

const (
	sectionFeatures = "features"
	sectionDrugs    = "drugs"
	sectionKeywords = "keywords"
)

type keywordTable struct {
	Categories      map[string][]string `yaml:"categories"`
	HighUrgency     []string            `yaml:"high_urgency"`
	ModerateUrgency []string            `yaml:"moderate_urgency"`
}

type catalogDocument struct {
	Features []xai.SymptomFeature `yaml:"features,omitempty"`
	Drugs    []xai.DrugCategory   `yaml:"drugs,omitempty"`
	Keywords *keywordTable        `yaml:"keywords,omitempty"`
}

func catalogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the built-in clinical knowledge base",
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the symptom, drug and urgency catalogs as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			section, _ := cmd.Flags().GetString("section")
			return writeCatalog(cmd.OutOrStdout(), section)
		},
	}
	showCmd.Flags().String("section", "", "Only print one section: features, drugs or keywords")
	cmd.AddCommand(showCmd)

	return cmd
}

func buildCatalog(section string) (*catalogDocument, error) {
	doc := &catalogDocument{}
	all := section == ""

	if all || section == sectionFeatures {
		doc.Features = xai.SymptomFeatures()
	}
	if all || section == sectionDrugs {
		doc.Drugs = xai.DrugCatalog()
	}
	if all || section == sectionKeywords {
		high, moderate := xai.UrgencyKeywords()
		kw := &keywordTable{
			Categories:      make(map[string][]string),
			HighUrgency:     high,
			ModerateUrgency: moderate,
		}
		for _, c := range xai.DrugCatalog() {
			kw.Categories[c.Name] = c.Keywords
		}
		doc.Keywords = kw
	}

	if doc.Features == nil && doc.Drugs == nil && doc.Keywords == nil {
		return nil, fmt.Errorf("unknown section %q (want %s, %s or %s)", section, sectionFeatures, sectionDrugs, sectionKeywords)
	}
	return doc, nil
}

func writeCatalog(w io.Writer, section string) error {
	doc, err := buildCatalog(section)
	if err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return enc.Close()
}
