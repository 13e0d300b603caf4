package hotpatch

import (
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// Manifest describes a hotfix: a patch module to load and the functions to
// redirect.
//
//	module: /opt/hotfix/patch_v3.so
//	redirect:
//	  - target: main.handleLogin
//	    replacement: fix_handleLogin
//	rewire:
//	  - patch: 0xaa@patch_v3.so
//	    main: main.helper
type Manifest struct {
	Module   string     `yaml:"module"`
	Redirect []Redirect `yaml:"redirect"`
	Rewire   []Rewire   `yaml:"rewire"`
}

// Redirect sends calls to Target, resolved globally, to the patch module's
// symbol Replacement. Restore undoes it.
type Redirect struct {
	Target      string `yaml:"target"`
	Replacement string `yaml:"replacement"`
}

// Rewire points Patch, a function inside the patch module, at the main
// program's function Main. Restore leaves it in place.
type Rewire struct {
	Patch string `yaml:"patch"`
	Main  string `yaml:"main"`
}

// LoadManifest decodes a YAML manifest. Unknown fields are an error.
func LoadManifest(r io.Reader) (*Manifest, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Manifest
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty manifest")
		}
		return nil, fmt.Errorf("decoding manifest: %w", err)
	}

	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadManifestFile decodes the YAML manifest at path.
func LoadManifestFile(path string) (*Manifest, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := LoadManifest(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) validate() error {
	var errs []error
	for i, r := range m.Redirect {
		if r.Target == "" || r.Replacement == "" {
			errs = append(errs, fmt.Errorf("redirect %d: target and replacement are required", i))
		}
	}
	for i, r := range m.Rewire {
		if r.Patch == "" || r.Main == "" {
			errs = append(errs, fmt.Errorf("rewire %d: patch and main are required", i))
		}
	}
	return errors.Join(errs...)
}

// Apply loads the manifest's module, if it names one, then performs each
// redirect and rewire in order. It stops at the first failure; patches made
// before it stay installed.
func (e *Engine) Apply(m *Manifest) error {
	if e.tramp == nil {
		return ErrPlatformUnsupported
	}

	if m.Module != "" {
		if err := e.OpenPatch(m.Module); err != nil {
			return err
		}
	}

	for i, r := range m.Redirect {
		if e.module == nil {
			return fmt.Errorf("redirect %d (%s): %w", i, r.Target, ErrNoModuleLoaded)
		}
		replacement, err := e.module.Lookup(r.Replacement)
		if err != nil {
			return fmt.Errorf("redirect %d (%s): %w", i, r.Target, err)
		}
		if err := e.Patch(r.Target, replacement); err != nil {
			return fmt.Errorf("redirect %d (%s): %w", i, r.Target, err)
		}
	}

	for i, r := range m.Rewire {
		if err := e.PatchModuleFunc(r.Patch, r.Main); err != nil {
			return fmt.Errorf("rewire %d (%s): %w", i, r.Patch, err)
		}
	}

	e.logger.Info("manifest applied",
		zap.String("module", m.Module),
		zap.Int("redirects", len(m.Redirect)),
		zap.Int("rewires", len(m.Rewire)))
	return nil
}
