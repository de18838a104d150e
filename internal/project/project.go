package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"text/template"

	"dario.cat/mergo"
	"github.com/Masterminds/sprig/v3"
	"github.com/compose-spec/compose-go/v2/loader"
	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

const (
	DefaultRelativeStateDirectory = ".coupons-compose"
	ConfigFileName                = "config.yaml"
)

// Profile holds the tunables of the launcher. The zero value is not usable, start from DefaultProfile or
// LoadProfile.
type Profile struct {
	// Program is the container tool binary, resolved on PATH.
	Program string `yaml:"program"`
	// Project is a text/template rendering the compose project name from the environment.
	Project string `yaml:"project"`
	// ComposeFile is a text/template rendering the compose file path from the environment.
	ComposeFile string `yaml:"composeFile"`
	// Environments is the allowed set of values for the environment selector.
	Environments       []string `yaml:"environments"`
	DefaultEnvironment string   `yaml:"defaultEnvironment"`
	// Env is appended to the inherited environment of the child process.
	Env map[string]string `yaml:"env"`
}

// DefaultProfile returns the built in profile.
func DefaultProfile() Profile {
	return Profile{
		Program:            "docker",
		Project:            "coupons_{{ .Environment }}",
		ComposeFile:        "./docker/docker-compose.yaml",
		Environments:       []string{"local"},
		DefaultEnvironment: "local",
		Env:                map[string]string{"DOCKER_BUILDKIT": "1"},
	}
}

type templateInput struct {
	Environment string
}

// LoadProfile loads the profile for the given directory (usually PWD). When no config file exists the default
// profile is returned and the bool is false. Any field left unset in the file falls back to the default.
func LoadProfile(directory string) (*Profile, bool, error) {
	d := filepath.Join(directory, DefaultRelativeStateDirectory)
	if st, err := os.Stat(d); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p := DefaultProfile()
			return &p, false, nil
		}
		return nil, false, fmt.Errorf("failed to stat '%s': %w", d, err)
	} else if !st.IsDir() {
		return nil, false, fmt.Errorf("path '%s' is not a directory", d)
	}

	content, err := os.ReadFile(filepath.Join(d, ConfigFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			p := DefaultProfile()
			return &p, false, nil
		}
		return nil, true, fmt.Errorf("config file couldn't be read: %w", err)
	}

	out, err := DecodeProfile(content)
	if err != nil {
		return nil, true, fmt.Errorf("config file '%s' couldn't be decoded: %w", filepath.Join(d, ConfigFileName), err)
	}
	return out, true, nil
}

// DecodeProfile decodes yaml content into a validated profile with defaults applied to unset fields.
func DecodeProfile(content []byte) (*Profile, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, err
	}

	var out Profile
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "yaml",
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, err
	}
	// a custom environment set without a default picks its first entry
	if out.DefaultEnvironment == "" && len(out.Environments) > 0 {
		out.DefaultEnvironment = out.Environments[0]
	}
	if err := mergo.Merge(&out, DefaultProfile()); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	if err := out.Validate(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Validate checks the profile is internally consistent.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Program) == "" {
		return fmt.Errorf("program must not be empty")
	}
	if len(p.Environments) == 0 {
		return fmt.Errorf("at least one environment must be allowed")
	}
	if !p.Allows(p.DefaultEnvironment) {
		return fmt.Errorf("default environment '%s' is not one of %v", p.DefaultEnvironment, p.Environments)
	}
	if _, err := parseTemplate("project", p.Project); err != nil {
		return err
	}
	if _, err := parseTemplate("composeFile", p.ComposeFile); err != nil {
		return err
	}
	return nil
}

// Allows reports whether env is one of the allowed environments.
func (p *Profile) Allows(env string) bool {
	return slices.Contains(p.Environments, env)
}

// ProjectName renders the compose project name for the environment. The result must already be a normalized compose
// project name: docker compose would otherwise silently rename the project.
func (p *Profile) ProjectName(env string) (string, error) {
	name, err := render("project", p.Project, env)
	if err != nil {
		return "", err
	}
	if name == "" || loader.NormalizeProjectName(name) != name {
		return "", fmt.Errorf("invalid project name '%s', it must match ^[a-z0-9][a-z0-9_-]*$", name)
	}
	return name, nil
}

// ComposeFilePath renders the compose file path for the environment.
func (p *Profile) ComposeFilePath(env string) (string, error) {
	path, err := render("composeFile", p.ComposeFile, env)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(path) == "" {
		return "", fmt.Errorf("compose file path for environment '%s' is empty", env)
	}
	return path, nil
}

// Environ returns the child environment additions as sorted KEY=VALUE entries.
func (p *Profile) Environ() []string {
	keys := make([]string, 0, len(p.Env))
	for k := range p.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+p.Env[k])
	}
	return out
}

func parseTemplate(name, raw string) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(sprig.TxtFuncMap()).Option("missingkey=error").Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s template: %w", name, err)
	}
	return tmpl, nil
}

func render(name, raw, env string) (string, error) {
	tmpl, err := parseTemplate(name, raw)
	if err != nil {
		return "", err
	}
	buff := new(strings.Builder)
	if err := tmpl.Execute(buff, templateInput{Environment: env}); err != nil {
		return "", fmt.Errorf("failed to execute %s template: %w", name, err)
	}
	return buff.String(), nil
}
