package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// RawInput is the resource snapshot as read from a file or a repository, before indexing
type RawInput struct {
	Teachers       []Teacher       `json:"teachers" mapstructure:"teachers" validate:"dive"`
	Classrooms     []Classroom     `json:"classrooms" mapstructure:"classrooms" validate:"dive"`
	Groups         []Group         `json:"groups" mapstructure:"groups" validate:"dive"`
	Subgroups      []Subgroup      `json:"subgroups" mapstructure:"subgroups" validate:"dive"`
	Disciplines    []Discipline    `json:"disciplines" mapstructure:"disciplines" validate:"dive"`
	Qualifications []Qualification `json:"qualifications" mapstructure:"qualifications"`
}

var inputValidator = validator.New()

// InputFromFile decodes a JSON or YAML (chosen by extension) resource file
func InputFromFile(file string) (RawInput, error) {
	bytes, err := os.ReadFile(file)
	if err != nil {
		return RawInput{}, fmt.Errorf("read input file: %w", err)
	}

	var inputMap map[string]any
	switch strings.ToLower(filepath.Ext(file)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(bytes, &inputMap)
	default:
		err = json.Unmarshal(bytes, &inputMap)
	}
	if err != nil {
		return RawInput{}, fmt.Errorf("parse input file %q: %w", file, err)
	}

	var input RawInput
	if err := mapstructure.Decode(inputMap, &input); err != nil {
		return RawInput{}, fmt.Errorf("decode input file %q: %w", file, err)
	}
	return input, nil
}

// PoolFromFile is InputFromFile followed by NewResourcePool
func PoolFromFile(file string) (*ResourcePool, error) {
	input, err := InputFromFile(file)
	if err != nil {
		return nil, err
	}
	return NewResourcePool(input)
}
