// Package pipeline drives the five-stage RAG experiment: preprocess,
// build-kg, gen-queries, run-queries, eval. Each stage gates on input files,
// optionally runs an external command, then gates on output files.
package pipeline

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ultrawiki/refpipe/models"
)

// Stage describes one experiment step. Needs and Produces are path templates
// relative to the experiment base directory; <CLASS> expands to the dataset
// class.
type Stage struct {
	Name     string
	Command  []string
	Needs    []string
	Produces []string
	// Optional marks stages whose failure degrades to a warning.
	Optional bool
}

// Stages returns the experiment stage table in execution order.
func Stages() []Stage {
	return []Stage{
		{
			Name:     "preprocess",
			Command:  []string{"python", "Step_0_simple.py"},
			Needs:    []string{"corpus/passages.jsonl"},
			Produces: []string{"data/unique_contexts/<CLASS>_unique_contexts.json"},
		},
		{
			Name:     "build-kg",
			Command:  []string{"python", "Step_1_local.py"},
			Needs:    []string{"data/unique_contexts/<CLASS>_unique_contexts.json"},
			Produces: []string{"kg/<CLASS>"},
		},
		{
			Name:     "gen-queries",
			Command:  []string{"python", "Step_2_local.py"},
			Needs:    []string{"data/unique_contexts/<CLASS>_unique_contexts.json"},
			Produces: []string{"queries/<CLASS>_questions.txt"},
		},
		{
			Name:    "run-queries",
			Command: []string{"python", "Step_3_local.py"},
			Needs: []string{
				"kg/<CLASS>",
				"queries/<CLASS>_questions.txt",
			},
			Produces: []string{"results/<CLASS>_result.json"},
		},
		{
			Name:    "eval",
			Command: []string{"python", "batch_eval_local.py"},
			Needs: []string{
				"queries/<CLASS>_questions.txt",
				"results/<CLASS>_result.json",
				"results/<CLASS>_naive_result.json",
			},
			Produces: []string{"eval/<CLASS>_evaluation.jsonl"},
			Optional: true,
		},
	}
}

// StageByName looks a stage up in the table.
func StageByName(name string) (Stage, error) {
	for _, s := range Stages() {
		if s.Name == name {
			return s, nil
		}
	}
	return Stage{}, fmt.Errorf("unknown stage %q", name)
}

// StageNames returns the ordered stage names.
func StageNames() []string {
	stages := Stages()
	names := make([]string, len(stages))
	for i, s := range stages {
		names[i] = s.Name
	}
	return names
}

// ExpandPath resolves a stage path template against the base directory and
// dataset class.
func ExpandPath(template, baseDir, class string) string {
	expanded := strings.ReplaceAll(template, "<CLASS>", class)
	return filepath.Join(baseDir, filepath.FromSlash(expanded))
}

// NeedsPaths expands the stage's input templates for a config.
func (s Stage) NeedsPaths(cfg *models.RagConfig) []string {
	return expandAll(s.Needs, cfg)
}

// ProducesPaths expands the stage's output templates for a config.
func (s Stage) ProducesPaths(cfg *models.RagConfig) []string {
	return expandAll(s.Produces, cfg)
}

func expandAll(templates []string, cfg *models.RagConfig) []string {
	out := make([]string, len(templates))
	for i, t := range templates {
		out[i] = ExpandPath(t, cfg.BaseDir, cfg.Class)
	}
	return out
}
