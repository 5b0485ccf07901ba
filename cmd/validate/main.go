package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jwebster45206/progression-engine/pkg/progress"
	"github.com/jwebster45206/progression-engine/pkg/story"
)

var rootCmd = &cobra.Command{
	Use:   "validate",
	Short: "Story graph validation tools",
	Long:  "Checks story graph files for structural problems and previews the opening projection a player would see.",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	checkCmd := &cobra.Command{
		Use:   "check <story.json>",
		Short: "Validate a story graph file",
		Args:  cobra.ExactArgs(1),
		Run:   runCheck,
	}

	previewCmd := &cobra.Command{
		Use:   "preview <story.json>",
		Short: "Project a fresh session against a story graph",
		Args:  cobra.ExactArgs(1),
		Run:   runPreview,
	}
	previewCmd.Flags().String("player", "preview", "Player ID used in the projection")

	rootCmd.AddCommand(checkCmd, previewCmd)
}

func runCheck(cmd *cobra.Command, args []string) {
	filename := args[0]
	fmt.Printf("Validating %s...\n", filename)

	g, err := loadGraph(filename)
	if err != nil {
		exitErr("validation failed", err)
	}

	v := &graphLinter{}
	v.lint(g)
	if len(v.errors) > 0 {
		exitErr("validation failed", fmt.Errorf("problems in %s:\n%s", filename, strings.Join(v.errors, "\n")))
	}

	for _, w := range v.warnings {
		fmt.Printf("warning: %s\n", w)
	}
	fmt.Println("Story graph is valid!")
}

func runPreview(cmd *cobra.Command, args []string) {
	playerID, _ := cmd.Flags().GetString("player")

	g, err := loadGraph(args[0])
	if err != nil {
		exitErr("load story", err)
	}

	snap := progress.NewSnapshot(g, g.ID, playerID)
	view, err := progress.Project(g, snap)
	if err != nil {
		exitErr("project", err)
	}

	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		exitErr("encode projection", err)
	}
	fmt.Println(string(b))
}

// loadGraph reads, decodes, and structurally validates a story file.
// The story ID comes from the filename, matching how the API serves
// stories from its data directory.
func loadGraph(filename string) (*story.Graph, error) {
	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return nil, fmt.Errorf("story file must have .json extension: %s", baseName)
	}

	storyID := strings.TrimSuffix(baseName, ".json")
	if !isValidID(storyID) {
		return nil, fmt.Errorf("story filename '%s' must be lowercase snake_case (e.g., my_story.json, not my-story.json or MyStory.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	var g story.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("file %s failed JSON unmarshaling: %w", filename, err)
	}
	g.ID = storyID

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("structural validation of %s:\n%s", filename, err)
	}

	return &g, nil
}

// graphLinter collects style problems the structural Validate pass does
// not cover: ID formatting and likely-authoring-mistake warnings.
type graphLinter struct {
	errors   []string
	warnings []string
}

func (v *graphLinter) lint(g *story.Graph) {
	for _, b := range g.Beats {
		v.checkIDFormat("beat ID", b.ID)
		for _, qa := range b.QuickActions {
			v.checkIDFormat("quick action ID", qa.ID)
		}
		for _, o := range b.Objectives {
			v.checkIDFormat("objective ID", o.ID)
		}
		if len(b.ExitConditions) == 0 && !isTerminalAct(g, b.Act) {
			v.addWarning(fmt.Sprintf("beat '%s' has no exit conditions and is not in the final act", b.ID))
		}
	}
	for _, c := range g.Characters {
		v.checkIDFormat("character ID", c.ID)
	}
	for _, it := range g.Items {
		v.checkIDFormat("item ID", it.ID)
	}
	for _, e := range g.Endings {
		v.checkIDFormat("ending ID", e.ID)
		if len(e.Requirements) == 0 {
			v.addWarning(fmt.Sprintf("ending '%s' has no requirements and unlocks immediately", e.ID))
		}
	}
	for name := range g.InitialStats {
		v.checkIDFormat("stat name", name)
	}
}

func isTerminalAct(g *story.Graph, act int) bool {
	for _, b := range g.Beats {
		if b.Act > act {
			return false
		}
	}
	return true
}

func (v *graphLinter) checkIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.errors = append(v.errors, fmt.Sprintf("  - %s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *graphLinter) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

var validIDRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
