package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jwebster45206/progression-engine/internal/session"
	"github.com/jwebster45206/progression-engine/pkg/progress"
)

const PlaceHolderText = "stat trust +5 | flag has_key true | goto cellar | /help"

// ConsoleUI is the BubbleTea model for the progress inspector.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	playerID     string
	view         *progress.PlayerView
	mechanics    *session.MechanicsState
	beatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool
	statusLine   string

	// Story selection state
	showStoryModal bool
	stories        []string
	selectedStory  int
	loadingStories bool

	// Quit confirmation state
	showQuitModal bool
}

type storiesLoadedMsg struct {
	stories []string
	err     error
}

type sessionMsg struct {
	view *progress.PlayerView
	err  error
}

type mechanicsMsg struct {
	state *session.MechanicsState
	err   error
}

var titleCaser = cases.Title(language.English)

var (
	beatPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(1).
			PaddingLeft(3).
			PaddingRight(0)

	metaPanelStyle = lipgloss.NewStyle().
			PaddingTop(2).
			PaddingBottom(0).
			PaddingLeft(0).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	headingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	beatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	lockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	unlockedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)

	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey
)

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client, playerID string) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 500
	ta.SetWidth(50)
	ta.SetHeight(2)
	ta.ShowLineNumbers = false

	beatVp := viewport.New(50, 20)
	beatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:         cfg,
		client:         client,
		playerID:       playerID,
		textarea:       ta,
		beatViewport:   beatVp,
		metaViewport:   metaVp,
		ready:          false,
		showStoryModal: true,
		loadingStories: true,
		selectedStory:  0,
	}
}

// writeBeatContent renders the current beat and the player's reveal
// state into the left viewport.
func (m *ConsoleUI) writeBeatContent() {
	width := m.beatViewport.Width - 6 // Account for panel padding
	if width < 20 {
		width = 20
	}

	var content strings.Builder
	content.WriteString(titleStyle.Render("PROGRESSION ENGINE") + "\n\n")

	if m.view == nil {
		content.WriteString("No session loaded.\n")
		m.beatViewport.SetContent(content.String())
		return
	}

	v := m.view
	content.WriteString(fmt.Sprintf("%s — act %d\n", headingStyle.Render(beatTitle(v.CurrentBeat)), v.CurrentBeat.Act))
	if v.CurrentBeat.Summary != "" {
		content.WriteString(wordwrap.String(v.CurrentBeat.Summary, width) + "\n")
	}
	content.WriteString("\n" + separatorStyle.Render(strings.Repeat("─", width)) + "\n\n")

	if len(v.CurrentBeat.QuickActions) > 0 {
		content.WriteString(headingStyle.Render("Actions") + "\n")
		for _, qa := range v.CurrentBeat.QuickActions {
			prompt := qa.Prompt
			if prompt == "" {
				prompt = qa.ID
			}
			content.WriteString("• " + wordwrap.String(prompt, width-2) + "\n")
		}
		content.WriteString("\n")
	}

	if len(v.CurrentBeat.Objectives) > 0 {
		content.WriteString(headingStyle.Render("Objectives") + "\n")
		for _, o := range v.CurrentBeat.Objectives {
			marker := "○"
			if o.Type == "required" {
				marker = "●"
			}
			content.WriteString(marker + " " + wordwrap.String(o.Description, width-2) + "\n")
		}
		content.WriteString("\n")
	}

	content.WriteString(headingStyle.Render("Accessible Beats") + "\n")
	for _, b := range v.AccessibleBeats {
		line := fmt.Sprintf("• %s (act %d)", beatTitle(b), b.Act)
		if b.ID == v.CurrentBeat.ID {
			line += " ← current"
			content.WriteString(beatStyle.Render(line) + "\n")
		} else {
			content.WriteString(line + "\n")
		}
	}
	content.WriteString("\n")

	if len(v.AvailableEndings) > 0 {
		content.WriteString(headingStyle.Render("Endings") + "\n")
		for _, e := range v.AvailableEndings {
			name := e.Title
			if name == "" {
				name = e.ID
			}
			switch {
			case e.Unlocked:
				content.WriteString(unlockedStyle.Render("✓ "+name+" (unlocked)") + "\n")
			case e.CanBeReached:
				content.WriteString("◇ " + name + " (reachable)\n")
			default:
				missing := strings.Join(e.MissingRequirements, ", ")
				content.WriteString(lockedStyle.Render(fmt.Sprintf("✗ %s (missing: %s)", name, missing)) + "\n")
			}
		}
		content.WriteString("\n")
	}

	if m.err != nil {
		content.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n")
	}
	if m.statusLine != "" {
		content.WriteString(statusStyle.Render(m.statusLine) + "\n")
	}
	if m.loading {
		content.WriteString(statusStyle.Render("Applying update...") + "\n")
	}

	m.beatViewport.SetContent(content.String())
	m.beatViewport.GotoBottom()
}

func beatTitle(b progress.BeatView) string {
	if b.Title != "" {
		return b.Title
	}
	return b.ID
}

// displayName turns a snake_case mechanics key into a readable label.
func displayName(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

func (m *ConsoleUI) writeMetadata() {
	var content strings.Builder
	content.WriteString(titleStyle.Render("SESSION") + "\n\n")

	if m.view == nil {
		content.WriteString("No session\n")
		m.metaViewport.SetContent(content.String())
		return
	}

	content.WriteString("Story:\n")
	content.WriteString(m.view.StoryTitle + "\n\n")

	content.WriteString("Player:\n")
	content.WriteString(m.playerID[:8] + "...\n\n")

	if m.mechanics != nil {
		if len(m.mechanics.Stats) > 0 {
			content.WriteString(headingStyle.Render("Stats") + "\n")
			for k, v := range m.mechanics.Stats {
				content.WriteString(fmt.Sprintf("• %s: %g\n", displayName(k), v))
			}
			content.WriteString("\n")
		}
		if len(m.mechanics.Relationships) > 0 {
			content.WriteString(headingStyle.Render("Relationships") + "\n")
			for k, v := range m.mechanics.Relationships {
				content.WriteString(fmt.Sprintf("• %s: %g\n", displayName(k), v))
			}
			content.WriteString("\n")
		}
		if len(m.mechanics.Flags) > 0 {
			content.WriteString(headingStyle.Render("Flags") + "\n")
			for k, v := range m.mechanics.Flags {
				content.WriteString(fmt.Sprintf("• %s: %v\n", displayName(k), v))
			}
			content.WriteString("\n")
		}
	}

	if len(m.view.RevealedCharacters) > 0 {
		content.WriteString("Characters:\n")
		names := make([]string, 0, len(m.view.RevealedCharacters))
		for _, c := range m.view.RevealedCharacters {
			names = append(names, c.Name)
		}
		content.WriteString(strings.Join(names, ", ") + "\n\n")
	}
	if len(m.view.DiscoveredItems) > 0 {
		content.WriteString("Items:\n")
		names := make([]string, 0, len(m.view.DiscoveredItems))
		for _, it := range m.view.DiscoveredItems {
			names = append(names, it.Name)
		}
		content.WriteString(strings.Join(names, ", ") + "\n\n")
	}

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Apply\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy snapshot\n")

	m.metaViewport.SetContent(content.String())
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showStoryModal {
		return m.loadStories()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.showStoryModal {
		return m.updateStoryModal(msg)
	}
	if m.showQuitModal {
		return m.updateQuitModal(msg)
	}

	var (
		tiCmd tea.Cmd
		vpCmd tea.Cmd
		mvCmd tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.beatViewport, vpCmd = m.beatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resizePanels()
		m.writeBeatContent()
		m.writeMetadata()
		m.ready = true

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyEnter:
			if m.loading {
				return m, nil
			}

			input := strings.TrimSpace(m.textarea.Value())
			if input == "" {
				return m, nil
			}
			m.textarea.Reset()

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			update, err := parseUpdate(input)
			if err != nil {
				m.err = err
				m.statusLine = ""
				m.writeBeatContent()
				return m, nil
			}

			m.err = nil
			m.statusLine = ""
			m.loading = true
			m.writeBeatContent()
			return m, m.applyUpdate(update)
		}

	case sessionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.err = nil
			m.view = msg.view
		}
		m.writeBeatContent()
		m.writeMetadata()
		return m, m.refreshMechanics()

	case mechanicsMsg:
		if msg.err == nil {
			m.mechanics = msg.state
			m.writeMetadata()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.beatViewport, vpCmd = m.beatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func (m *ConsoleUI) resizePanels() {
	beatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - beatWidth - 6

	m.beatViewport.Width = beatWidth - 2
	m.beatViewport.Height = m.height - 6
	m.metaViewport.Width = metaWidth - 2
	m.metaViewport.Height = m.height - 4
	m.textarea.SetWidth(beatWidth - 4)
}

// parseUpdate turns a short inspector command into a progress update.
//
//	stat <name> <delta>     additive stat change
//	rel <name> <delta>      additive relationship change
//	flag <name> <bool>      set a story flag
//	goto <beat_id>          transition the current beat
//	char <id>               reveal a character
//	item <id>               discover an item
//	ending <id>             unlock an ending
//
// A raw JSON object is passed through as a full update payload.
func parseUpdate(input string) (*progress.Update, error) {
	if strings.HasPrefix(input, "{") {
		var update progress.Update
		if err := json.Unmarshal([]byte(input), &update); err != nil {
			return nil, fmt.Errorf("invalid update JSON: %w", err)
		}
		return &update, nil
	}

	fields := strings.Fields(input)
	if len(fields) < 2 {
		return nil, fmt.Errorf("unrecognized input %q (try /help)", input)
	}

	switch fields[0] {
	case "stat", "rel":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: %s <name> <delta>", fields[0])
		}
		delta, err := strconv.ParseFloat(strings.TrimPrefix(fields[2], "+"), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid delta %q", fields[2])
		}
		if fields[0] == "stat" {
			return &progress.Update{StatChanges: map[string]float64{fields[1]: delta}}, nil
		}
		return &progress.Update{RelationshipChanges: map[string]float64{fields[1]: delta}}, nil
	case "flag":
		if len(fields) != 3 {
			return nil, fmt.Errorf("usage: flag <name> <true|false>")
		}
		value, err := strconv.ParseBool(fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid flag value %q", fields[2])
		}
		return &progress.Update{SetFlags: map[string]bool{fields[1]: value}}, nil
	case "goto":
		return &progress.Update{CurrentBeat: fields[1]}, nil
	case "char":
		return &progress.Update{RevealCharacters: []string{fields[1]}}, nil
	case "item":
		return &progress.Update{DiscoverItems: []string{fields[1]}}, nil
	case "ending":
		return &progress.Update{UnlockEndings: []string{fields[1]}}, nil
	default:
		return nil, fmt.Errorf("unrecognized command %q (try /help)", fields[0])
	}
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "/help":
		m.statusLine = "stat <name> <delta> · rel <name> <delta> · flag <name> <bool> · goto <beat> · char/item/ending <id> · /copy · /refresh"
		m.err = nil
		m.writeBeatContent()

	case "/copy":
		if m.view != nil {
			b, err := json.MarshalIndent(m.view.Snapshot, "", "  ")
			if err == nil {
				err = clipboard.WriteAll(string(b))
			}
			if err != nil {
				m.err = fmt.Errorf("copy snapshot: %w", err)
			} else {
				m.err = nil
				m.statusLine = "Snapshot copied to clipboard"
			}
			m.writeBeatContent()
		}

	case "/refresh":
		m.loading = true
		m.writeBeatContent()
		return m, m.reloadSession()
	}

	return m, nil
}

func (m ConsoleUI) applyUpdate(update *progress.Update) tea.Cmd {
	return func() tea.Msg {
		view, err := sendUpdate(m.client, m.config.APIBaseURL, m.view.StoryID, m.playerID, update)
		return sessionMsg{view, err}
	}
}

func (m ConsoleUI) reloadSession() tea.Cmd {
	return func() tea.Msg {
		view, err := loadSession(m.client, m.config.APIBaseURL, m.view.StoryID, m.playerID)
		return sessionMsg{view, err}
	}
}

func (m ConsoleUI) refreshMechanics() tea.Cmd {
	return func() tea.Msg {
		if m.view == nil {
			return mechanicsMsg{nil, fmt.Errorf("no session")}
		}
		state, err := getMechanics(m.client, m.config.APIBaseURL, m.view.StoryID, m.playerID)
		return mechanicsMsg{state, err}
	}
}

func (m ConsoleUI) loadStories() tea.Cmd {
	return func() tea.Msg {
		stories, err := listStories(m.client, m.config.APIBaseURL)
		return storiesLoadedMsg{stories, err}
	}
}

func (m ConsoleUI) initializeFromStory(storyID string) tea.Cmd {
	return func() tea.Msg {
		view, err := initializeSession(m.client, m.config.APIBaseURL, storyID, m.playerID)
		return sessionMsg{view, err}
	}
}

func (m ConsoleUI) updateStoryModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case storiesLoadedMsg:
		m.loadingStories = false
		if msg.err != nil {
			m.err = msg.err
		} else if len(msg.stories) == 0 {
			m.err = fmt.Errorf("no stories available")
		} else {
			m.stories = msg.stories
		}

	case sessionMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.view = msg.view
			m.showStoryModal = false
			m.resizePanels()
			m.writeBeatContent()
			m.writeMetadata()
			m.textarea.Focus()
			m.ready = true
			return m, tea.Batch(textarea.Blink, m.refreshMechanics())
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingStories || m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedStory > 0 {
				m.selectedStory--
			}
		case tea.KeyDown:
			if m.selectedStory < len(m.stories)-1 {
				m.selectedStory++
			}
		case tea.KeyEnter:
			if len(m.stories) > 0 {
				m.loading = true
				return m, m.initializeFromStory(m.stories[m.selectedStory])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if !m.showStoryModal {
					m.textarea.Focus()
					return m, textarea.Blink
				}
				return m, nil
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) renderQuitModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Progress is persisted; the session can be resumed.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue"))

	modal := modalStyle.Width(50).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderStoryModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	switch {
	case m.loadingStories:
		content.WriteString(modalTitleStyle.Render("Loading Stories..."))
		content.WriteString("\n\n")
		content.WriteString(statusStyle.Render("Fetching available stories..."))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load stories: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Initializing Session..."))
		content.WriteString("\n\n")
		content.WriteString(statusStyle.Render("Building the opening projection..."))
	default:
		content.WriteString(modalTitleStyle.Render("Select a Story"))
		content.WriteString("\n\n")

		for i, storyID := range m.stories {
			if i == m.selectedStory {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", storyID)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", storyID)))
			}
			content.WriteString("\n")
		}

		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	modal := modalStyle.Width(60).Render(content.String())
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) View() string {
	if m.showStoryModal {
		return m.renderStoryModal()
	}
	if m.showQuitModal {
		return m.renderQuitModal()
	}
	if !m.ready {
		return "\n  Initializing..."
	}

	beatWidth := int(float64(m.width)*0.7) - 4
	metaWidth := m.width - beatWidth - 6

	beatPanel := beatPanelStyle.Width(beatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.beatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", beatWidth-4)),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, beatPanel, metaPanel)
}
