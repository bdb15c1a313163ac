package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestLoadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		files       map[string]string // path -> content (relative to workDir)
		globalFiles map[string]string // path -> content (relative to XDG_CONFIG_HOME)
		configPath  string            // --config flag value
		want        Config
		wantLoaded  []string // labels in LoadedFiles
		wantErr     string   // substring of error message, empty means no error
	}{
		{
			name:  "defaults when no config files",
			files: map[string]string{},
			want:  DefaultConfig(),
		},
		{
			name: "project config .json",
			files: map[string]string{
				".probe-check.json": `{"probe": ["./sandbox-probe"], "golden": "testdata/probe.golden"}`,
			},
			want: Config{
				Probe:      []string{"./sandbox-probe"},
				Golden:     "testdata/probe.golden",
				InheritEnv: boolPtr(false),
			},
			wantLoaded: []string{"project"},
		},
		{
			name: "project config .jsonc",
			files: map[string]string{
				".probe-check.jsonc": `{
					// comment
					"inheritEnv": true,
					"env": {"A": "1",},
				}`,
			},
			want: Config{
				InheritEnv: boolPtr(true),
				Env:        map[string]string{"A": "1"},
			},
			wantLoaded: []string{"project"},
		},
		{
			name: "error when both .json and .jsonc exist for project",
			files: map[string]string{
				".probe-check.json":  `{}`,
				".probe-check.jsonc": `{}`,
			},
			wantErr: "both",
		},
		{
			name: "global config .jsonc",
			globalFiles: map[string]string{
				"probe-check/config.jsonc": `{
					/* block comment */
					"wrap": ["bwrap", "--ro-bind", "/", "/", "--"]
				}`,
			},
			want: Config{
				Wrap:       []string{"bwrap", "--ro-bind", "/", "/", "--"},
				InheritEnv: boolPtr(false),
			},
			wantLoaded: []string{"global"},
		},
		{
			name: "error when both .json and .jsonc exist for global",
			globalFiles: map[string]string{
				"probe-check/config.json":  `{}`,
				"probe-check/config.jsonc": `{}`,
			},
			wantErr: "both",
		},
		{
			name: "project overrides global",
			globalFiles: map[string]string{
				"probe-check/config.json": `{"probe": ["global-probe"], "wrap": ["env"]}`,
			},
			files: map[string]string{
				".probe-check.json": `{"probe": ["project-probe"]}`,
			},
			want: Config{
				Probe:      []string{"project-probe"},
				Wrap:       []string{"env"}, // from global
				InheritEnv: boolPtr(false),
			},
			wantLoaded: []string{"global", "project"},
		},
		{
			name: "explicit --config replaces project but not global",
			files: map[string]string{
				"custom.json":       `{"golden": "custom.golden"}`,
				".probe-check.json": `{"golden": "project.golden", "probe": ["project-probe"]}`,
			},
			globalFiles: map[string]string{
				"probe-check/config.json": `{"probe": ["global-probe"]}`,
			},
			configPath: "custom.json",
			want: Config{
				Probe:      []string{"global-probe"}, // NOT from project
				Golden:     "custom.golden",
				InheritEnv: boolPtr(false),
			},
			wantLoaded: []string{"global", "explicit"},
		},
		{
			name:       "explicit --config not found is error",
			files:      map[string]string{},
			configPath: "nonexistent.json",
			wantErr:    "no such file",
		},
		{
			name: "invalid json in project config",
			files: map[string]string{
				".probe-check.json": `{invalid}`,
			},
			wantErr: "parsing config",
		},
		{
			name: "wrong type in project config",
			files: map[string]string{
				".probe-check.json": `{"probe": "not-a-list"}`,
			},
			wantErr: "parsing config",
		},
		{
			name: "expect block from project",
			files: map[string]string{
				".probe-check.json": `{
					"expect": {
						"dir": "",
						"args": ["probe", "--x"],
						"envInclude": {"A": "1"},
						"rootInclude": ["bin/"],
						"rootExclude": ["home/"]
					}
				}`,
			},
			want: Config{
				InheritEnv: boolPtr(false),
				Expect: Expect{
					Dir:         stringPtr(""),
					Args:        []string{"probe", "--x"},
					EnvInclude:  map[string]string{"A": "1"},
					RootInclude: []string{"bin/"},
					RootExclude: []string{"home/"},
				},
			},
			wantLoaded: []string{"project"},
		},
		{
			name: "expect fields merge individually",
			globalFiles: map[string]string{
				"probe-check/config.json": `{"expect": {"dir": "/", "rootInclude": ["bin/"]}}`,
			},
			files: map[string]string{
				".probe-check.json": `{"expect": {"rootInclude": ["etc/"], "env": {}}}`,
			},
			want: Config{
				InheritEnv: boolPtr(false),
				Expect: Expect{
					Dir:         stringPtr("/"), // kept from global
					Env:         map[string]string{},
					RootInclude: []string{"etc/"},
				},
			},
			wantLoaded: []string{"global", "project"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			workDir := t.TempDir()
			xdgConfigHome := t.TempDir()

			writeFiles(t, workDir, tt.files)
			writeFiles(t, xdgConfigHome, tt.globalFiles)

			got, err := LoadConfig(LoadConfigInput{
				WorkDirOverride: workDir,
				ConfigPath:      tt.configPath,
				Env: map[string]string{
					"XDG_CONFIG_HOME": xdgConfigHome,
				},
			})

			if tt.wantErr != "" {
				if err == nil {
					t.Fatalf("want error containing %q, got nil", tt.wantErr)
				}

				if !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("want error containing %q, got %q", tt.wantErr, err.Error())
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if diff := cmp.Diff(tt.want, got, cmpopts.IgnoreFields(Config{}, "EffectiveCwd", "LoadedFiles")); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}

			if got.EffectiveCwd != workDir {
				t.Errorf("EffectiveCwd: got %q, want %q", got.EffectiveCwd, workDir)
			}

			labels := make([]string, 0, len(got.LoadedFiles))
			for label := range got.LoadedFiles {
				labels = append(labels, label)
			}

			if diff := cmp.Diff(tt.wantLoaded, labels, cmpopts.EquateEmpty(), cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
				t.Errorf("LoadedFiles labels mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func Test_LoadConfig_Uses_Home_When_XDG_Config_Home_Unset(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	home := t.TempDir()

	writeFiles(t, home, map[string]string{
		".config/probe-check/config.json": `{"probe": ["from-home"]}`,
	})

	got, err := LoadConfig(LoadConfigInput{
		WorkDirOverride: workDir,
		Env:             map[string]string{"HOME": home},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if diff := cmp.Diff([]string{"from-home"}, got.Probe); diff != "" {
		t.Errorf("Probe mismatch (-want +got):\n%s", diff)
	}
}

func writeFiles(t *testing.T, base string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		fullPath := filepath.Join(base, path)

		err := os.MkdirAll(filepath.Dir(fullPath), 0o750)
		if err != nil {
			t.Fatalf("failed to create dir: %v", err)
		}

		err = os.WriteFile(fullPath, []byte(content), 0o600)
		if err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}
}
