package service

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/sistema-ministerial-api/internal/dto"
	"github.com/noah-isme/sistema-ministerial-api/internal/models"
)

//go:embed templates/default_program.yaml
var defaultProgramTemplate []byte

// ProgramTemplate is the weekly program applied by POST /weeks/:week/program/template.
type ProgramTemplate struct {
	Name  string                 `yaml:"name"`
	Parts []dto.ProgramPartInput `yaml:"parts"`
}

// LoadProgramTemplate reads the template at path, or the built-in one when path is empty.
// The parts are checked against the catalog so a broken file fails at startup.
func LoadProgramTemplate(path string) (*ProgramTemplate, error) {
	raw := defaultProgramTemplate
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read program template: %w", err)
		}
		raw = content
	}
	return ParseProgramTemplate(raw)
}

// ParseProgramTemplate decodes a YAML program template.
func ParseProgramTemplate(raw []byte) (*ProgramTemplate, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	var tpl ProgramTemplate
	if err := decoder.Decode(&tpl); err != nil {
		return nil, fmt.Errorf("decode program template: %w", err)
	}
	if len(tpl.Parts) == 0 {
		return nil, fmt.Errorf("program template %q has no parts", tpl.Name)
	}
	if _, err := BuildProgram("", models.Week{}, tpl.Parts); err != nil {
		return nil, fmt.Errorf("program template %q: %w", tpl.Name, err)
	}
	return &tpl, nil
}
