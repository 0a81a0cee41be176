/*
Copyright © 2026 Benny Powers <web@bennypowers.com>

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program. If not, see <http://www.gnu.org/licenses/>.
*/

// Package lint wires the Workspace Enumerator, Project-File Collector,
// Plugin Host, Module Graph Builder, Dependency Attributor, Binary
// Analyzer, and Issue Classifier into a single pipeline: discover
// workspaces, seed entries, build the module graph, and emit the six
// issue categories as set differences over it.
package lint

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"bennypowers.dev/knipgo/analyzer"
	"bennypowers.dev/knipgo/binary"
	"bennypowers.dev/knipgo/config"
	"bennypowers.dev/knipgo/dependency"
	"bennypowers.dev/knipgo/diagnostics"
	"bennypowers.dev/knipgo/fs"
	"bennypowers.dev/knipgo/internal/output"
	"bennypowers.dev/knipgo/issues"
	"bennypowers.dev/knipgo/modgraph"
	"bennypowers.dev/knipgo/packagejson"
	"bennypowers.dev/knipgo/plugin"
	"bennypowers.dev/knipgo/project"
	"bennypowers.dev/knipgo/workspace"
)

// Cmd is the default (root) command: running the binary with no
// subcommand lints the project, taking an optional positional working
// directory.
var Cmd = &cobra.Command{
	Use:   "knip [directory]",
	Short: "Find unused files, exports, and dependencies",
	Long: `knip walks the import/export graph of a JavaScript/TypeScript
project from its entry files and reports what it cannot reach: unused
files, unused exports, unused enum/class members, unused dependencies,
unlisted (phantom) dependencies, and unlisted binaries invoked from
package scripts.`,
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	Cmd.Flags().StringSlice("include", nil, "Report only these issue kinds (repeatable)")
	Cmd.Flags().StringSlice("exclude", nil, "Never report these issue kinds (repeatable)")
	Cmd.Flags().Bool("dependencies", false, "Shorthand for --include dependencies,unlisted-dependencies")
	Cmd.Flags().Bool("exports", false, "Shorthand for --include exports,classMembers,enumMembers")
	Cmd.Flags().Bool("files", false, "Shorthand for --include files")
	Cmd.Flags().Bool("include-libs", false, "Also inspect external library type declarations (second, opt-in pass)")
	Cmd.Flags().Bool("production", false, "Analyze only production entries, skipping devDependency-only entry points")
	Cmd.Flags().StringP("workspace", "W", "", "Lint only the workspace subtree rooted at this path")
	Cmd.Flags().String("reporter", "text", "Output reporter: text, json, or markdown")

	_ = viper.BindPFlag("reporter", Cmd.Flags().Lookup("reporter"))
}

func run(cmd *cobra.Command, args []string) error {
	rootDir, err := cmd.Flags().GetString("package")
	if err != nil {
		return fmt.Errorf("error reading package flag: %w", err)
	}
	if len(args) == 1 {
		rootDir = args[0]
	}
	rootDir, err = filepath.Abs(rootDir)
	if err != nil {
		return fmt.Errorf("invalid project directory: %w", err)
	}

	include, _ := cmd.Flags().GetStringSlice("include")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	if onlyDeps, _ := cmd.Flags().GetBool("dependencies"); onlyDeps {
		include = append(include, string(issues.KindDependencies), string(issues.KindUnlistedDependencies))
	}
	if onlyExports, _ := cmd.Flags().GetBool("exports"); onlyExports {
		include = append(include, string(issues.KindExports), string(issues.KindClassMembers), string(issues.KindEnumMembers))
	}
	if onlyFiles, _ := cmd.Flags().GetBool("files"); onlyFiles {
		include = append(include, string(issues.KindFiles))
	}
	workspaceFilter, _ := cmd.Flags().GetString("workspace")
	reporter, _ := cmd.Flags().GetString("reporter")

	fsys := fs.NewOSFileSystem()
	diag := diagnostics.NewCollector()

	includeClassMembers := containsString(include, string(issues.KindClassMembers))
	includeLibs, _ := cmd.Flags().GetBool("include-libs")
	productionOnly, _ := cmd.Flags().GetBool("production")
	report, err := Run(context.Background(), fsys, rootDir, workspaceFilter, includeClassMembers, includeLibs, productionOnly, diag)
	if err != nil {
		// ConfigError/WorkspaceError are fatal run errors, not reportable
		// issues: exit code >1 distinguishes them from a clean run that
		// simply found issues (exit 1).
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}

	filtered := issues.Filter(report, toKinds(include), toKinds(exclude))

	for _, w := range diag.All() {
		fmt.Fprintln(os.Stderr, w.String())
	}

	if err := output.Report(fsys, filtered, reporter); err != nil {
		return err
	}

	if code := issues.ExitCode(filtered); code != 0 {
		os.Exit(code)
	}
	return nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func toKinds(names []string) []issues.Kind {
	out := make([]issues.Kind, len(names))
	for i, n := range names {
		out[i] = issues.Kind(n)
	}
	return out
}

// Run executes the full pipeline (workspace enumeration, project
// collection, plugin resolution, module graph build, dependency
// attribution, binary resolution, and issue classification) against
// rootDir and returns the unfiltered classifier report. workspaceFilter,
// when non-empty, restricts linting to the workspace subtree rooted at
// that path ("-W <path>"). includeLibs runs a second, opt-in traversal
// pass into the node_modules type declarations the built graph's external
// references point at. productionOnly skips plugin-contributed entries
// gated solely behind a devDependency.
func Run(ctx context.Context, fsys fs.FileSystem, rootDir, workspaceFilter string, includeClassMembers, includeLibs, productionOnly bool, diag *diagnostics.Collector) (issues.Report, error) {
	cfg, err := config.Load(fsys, rootDir)
	if err != nil {
		return issues.Report{}, err
	}

	manifestCache := packagejson.NewMemoryCache()
	workspaces, err := workspace.Enumerate(fsys, rootDir, manifestCache)
	if err != nil {
		return issues.Report{}, err
	}

	if workspaceFilter != "" {
		filterDir, absErr := filepath.Abs(workspaceFilter)
		if absErr != nil {
			return issues.Report{}, fmt.Errorf("invalid workspace path: %w", absErr)
		}
		workspaces = filterWorkspaces(workspaces, filterDir)
	}

	host := plugin.NewHost()
	graph := modgraph.NewGraph(fsys, workspaces, diag)

	var (
		wsInputs       []issues.WorkspaceInput
		seeds          []modgraph.EntrySeed
		pluginDeps     = make(map[string]map[string]bool)
		binResolutions = make(map[string][]binary.Resolution)
	)

	for _, ws := range workspaces {
		wsCfg := cfg.ForWorkspace(ws.Name())

		pluginEntries, deps, pluginIgnores := host.Run(fsys, ws, wsCfg, diag, productionOnly)
		ignorePatterns := append(append([]string{}, wsCfg.Ignore...), ignorePatternStrings(pluginIgnores)...)

		manifestEntries := manifestEntryPaths(fsys, ws)
		nestedDirs := nestedWorkspaceDirs(workspaces, ws)
		projectSet, entrySet, err := project.Collect(fsys, ws, wsCfg.Project, append(append([]string{}, wsCfg.Entry...), pluginEntries...), ignorePatterns, nestedDirs)
		if err != nil {
			diag.Config(ws.Dir, "collecting project files: "+err.Error())
			continue
		}
		for _, p := range manifestEntries {
			projectSet[p] = true
			entrySet[p] = true
		}

		wsInputs = append(wsInputs, issues.WorkspaceInput{
			Workspace: ws,
			Config:    wsCfg,
			Project:   projectSet,
			Entries:   entrySet,
		})

		for path := range entrySet {
			seeds = append(seeds, modgraph.EntrySeed{Path: path, Kind: analyzer.DetectKind(path)})
		}

		if len(deps) > 0 {
			set := pluginDeps[ws.Dir]
			if set == nil {
				set = make(map[string]bool)
				pluginDeps[ws.Dir] = set
			}
			for _, d := range deps {
				set[d.Package] = true
			}
		}

		if ws.Manifest != nil {
			var resolutions []binary.Resolution
			for _, inv := range binary.ScanScripts(binary.FromPackageJSON(ws.Manifest)) {
				resolutions = append(resolutions, binary.Resolve(inv, ws, fsys, manifestCache))
			}
			binResolutions[ws.Dir] = resolutions
		}
	}

	if err := graph.Build(ctx, seeds, analyzer.Analyze); err != nil {
		return issues.Report{}, err
	}

	if includeLibs {
		if err := graph.IncludeLibs(ctx, analyzer.Analyze); err != nil {
			return issues.Report{}, err
		}
	}

	refs := make([]dependency.Ref, 0, len(graph.ExternalRefs()))
	for _, er := range graph.ExternalRefs() {
		owner := owningWorkspace(workspaces, er.FromPath)
		if owner == nil {
			continue
		}
		refs = append(refs, dependency.Ref{
			Package:            er.Package,
			ImportingWorkspace: owner,
			Kind:               dependency.ImportRef,
		})
	}
	attributed := dependency.Attribute(refs)

	opts := issues.Options{IncludeClassMembers: includeClassMembers}
	report := issues.Classify(issues.Input{
		Graph:              graph,
		Workspaces:         wsInputs,
		DependencyRefs:     attributed,
		PluginDependencies: pluginDeps,
		BinaryResolutions:  binResolutions,
	}, opts)

	return report, nil
}

// manifestEntryPaths resolves a package manifest's declared entries
// (main/module/exports, plus every bin target) to absolute file paths
// that exist on disk.
func manifestEntryPaths(fsys fs.FileSystem, ws *workspace.Workspace) []string {
	if ws.Manifest == nil {
		return nil
	}
	var out []string
	for _, entry := range ws.Manifest.ExportEntries(nil) {
		if p := filepath.Join(ws.Dir, entry.Target); fsys.Exists(p) {
			out = append(out, p)
		}
	}
	if ws.Manifest.Module != "" {
		if p := filepath.Join(ws.Dir, ws.Manifest.Module); fsys.Exists(p) {
			out = append(out, p)
		}
	}
	for _, target := range ws.Manifest.BinNames() {
		if p := filepath.Join(ws.Dir, target); fsys.Exists(p) {
			out = append(out, p)
		}
	}
	return out
}

func ignorePatternStrings(patterns []plugin.IgnorePattern) []string {
	out := make([]string, len(patterns))
	for i, p := range patterns {
		out[i] = string(p)
	}
	return out
}

// filterWorkspaces keeps only workspaces at or beneath filterDir.
func filterWorkspaces(workspaces []*workspace.Workspace, filterDir string) []*workspace.Workspace {
	var out []*workspace.Workspace
	for _, ws := range workspaces {
		if ws.Dir == filterDir || strings.HasPrefix(ws.Dir, filterDir+string(filepath.Separator)) {
			out = append(out, ws)
		}
	}
	return out
}

// owningWorkspace returns the deepest workspace whose directory contains
// path, the same "nearest ancestor" rule the Dependency Attributor uses
// once it has a starting workspace.
func owningWorkspace(workspaces []*workspace.Workspace, path string) *workspace.Workspace {
	var best *workspace.Workspace
	bestLen := -1
	for _, ws := range workspaces {
		if ws.Dir != path && !strings.HasPrefix(path, ws.Dir+string(filepath.Separator)) {
			continue
		}
		if len(ws.Dir) > bestLen {
			bestLen = len(ws.Dir)
			best = ws
		}
	}
	return best
}

// nestedWorkspaceDirs returns the directories of every other workspace
// nested beneath ws.Dir, so its project glob expansion can skip them
// rather than absorb a child workspace's files into its own set.
func nestedWorkspaceDirs(workspaces []*workspace.Workspace, ws *workspace.Workspace) []string {
	var dirs []string
	for _, other := range workspaces {
		if other == ws {
			continue
		}
		if strings.HasPrefix(other.Dir, ws.Dir+string(filepath.Separator)) {
			dirs = append(dirs, other.Dir)
		}
	}
	return dirs
}
