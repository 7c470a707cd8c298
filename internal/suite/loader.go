package suite

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/felixgeelhaar/regrade/internal/errors"
)

// Suite is a fully resolved step sequence plus its run parameters.
type Suite struct {
	Steps []Step
	Args  ExecuteSuiteArgs
}

// suiteFile mirrors the YAML suite format on disk.
type suiteFile struct {
	Protocol            string     `yaml:"protocol"`
	StageTimeoutSeconds int        `yaml:"stage_timeout_seconds"`
	Steps               []stepFile `yaml:"steps"`
}

type stepFile struct {
	ID       string `yaml:"id"`
	Action   string `yaml:"action"`
	Stage    string `yaml:"stage"`
	Target   string `yaml:"target"`
	Value    string `yaml:"value"`
	Question string `yaml:"question"`
}

// Load reads and validates a suite definition from a YAML file.
func Load(path string) (*Suite, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeSuiteLoadFailed, fmt.Sprintf("failed to read suite file %s", path), err)
	}
	return Parse(data)
}

// Parse validates a suite definition from raw YAML.
func Parse(data []byte) (*Suite, error) {
	var file suiteFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(errors.CodeSuiteLoadFailed, "failed to parse suite YAML", err)
	}

	args, err := parseArgs(file)
	if err != nil {
		return nil, err
	}

	if len(file.Steps) == 0 {
		return nil, errors.New(errors.CodeSuiteInvalid, "suite defines no steps")
	}

	steps := make([]Step, 0, len(file.Steps))
	for i, raw := range file.Steps {
		step, err := parseStep(i, raw)
		if err != nil {
			return nil, err
		}
		steps = append(steps, step)
	}

	return &Suite{Steps: steps, Args: args}, nil
}

func parseArgs(file suiteFile) (ExecuteSuiteArgs, error) {
	var args ExecuteSuiteArgs

	switch Protocol(file.Protocol) {
	case ProtocolHTTP, ProtocolTCP:
		args.Protocol = Protocol(file.Protocol)
	case "":
		args.Protocol = ProtocolHTTP
	default:
		return args, errors.Newf(errors.CodeSuiteInvalid, "unknown protocol %q (expected HTTP or TCP)", file.Protocol)
	}

	if file.StageTimeoutSeconds < 0 {
		return args, errors.Newf(errors.CodeSuiteInvalid, "negative stage timeout %d", file.StageTimeoutSeconds)
	}
	if file.StageTimeoutSeconds == 0 {
		file.StageTimeoutSeconds = 30
	}
	args.StageTimeout = time.Duration(file.StageTimeoutSeconds) * time.Second

	return args, nil
}

func parseStep(index int, raw stepFile) (Step, error) {
	if raw.ID == "" {
		return Step{}, errors.Newf(errors.CodeSuiteInvalid, "step %d has no id", index)
	}

	action, err := ParseAction(raw.Action)
	if err != nil {
		return Step{}, errors.Wrap(errors.CodeUnsupportedAction, fmt.Sprintf("step %s", raw.ID), err)
	}

	stage, ok := ParseStage(raw.Stage)
	if !ok {
		return Step{}, errors.Newf(errors.CodeSuiteInvalid, "step %s has unknown stage %q", raw.ID, raw.Stage)
	}

	return Step{
		ID:           raw.ID,
		Action:       action,
		Stage:        stage,
		Target:       raw.Target,
		Value:        raw.Value,
		QuestionCode: raw.Question,
	}, nil
}
