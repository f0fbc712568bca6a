package main

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"
	"github.com/muesli/reflow/wordwrap"

	"github.com/jwebster45206/saga-engine/pkg/chat"
	"github.com/jwebster45206/saga-engine/pkg/genre"
	"github.com/jwebster45206/saga-engine/pkg/state"
)

const (
	AgentName       = "Narrator"
	PlaceHolderText = "What do you do next?"
)

// ConsoleUI is the BubbleTea model that runs the UI.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config       *ConsoleConfig
	client       *http.Client
	save         *state.SaveFile
	lastStory    string
	chatViewport viewport.Model
	metaViewport viewport.Model
	textarea     textarea.Model
	ready        bool
	width        int
	height       int
	err          error
	loading      bool

	// Save selection state
	showSaveModal bool
	saveIDs       []uuid.UUID
	menuItems     []string
	selectedItem  int
	loadingSaves  bool

	// Quit confirmation state
	showQuitModal bool

	// Progress bar state
	progressTick int
}

type turnResponseMsg struct {
	response *chat.TurnResponse
	err      error
}

type saveMsg struct {
	save *state.SaveFile
	err  error
}

type savesLoadedMsg struct {
	saveIDs []uuid.UUID
	err     error
}

type saveOpenedMsg struct {
	save *state.SaveFile
	err  error
}

type progressTickMsg struct{}

// Genres offered for a fresh save, in menu order.
var newGameGenres = []genre.Genre{
	genre.Cultivation,
	genre.Fanfiction,
	genre.ModernLife,
	genre.Generic,
}

var (
	chatPanelStyle = lipgloss.NewStyle().
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

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	userStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	combatStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("208")) // orange

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
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
)

var separatorStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("240")) // dark grey

func NewConsoleUI(cfg *ConsoleConfig, client *http.Client) ConsoleUI {
	ta := textarea.New()
	ta.Placeholder = PlaceHolderText
	ta.Focus()
	ta.Prompt = promptStyle.Render(":: ")
	ta.CharLimit = 1000
	ta.SetWidth(50)
	ta.SetHeight(3)
	ta.ShowLineNumbers = false

	chatVp := viewport.New(50, 20)
	chatVp.MouseWheelEnabled = true

	metaVp := viewport.New(20, 20)

	return ConsoleUI{
		config:        cfg,
		client:        client,
		textarea:      ta,
		chatViewport:  chatVp,
		metaViewport:  metaVp,
		ready:         false,
		showSaveModal: true,
		loadingSaves:  true,
		selectedItem:  0,
	}
}

func writeMetadata(save *state.SaveFile) string {
	gs := save.State
	var content strings.Builder
	content.WriteString(titleStyle.Render("SAGA") + "\n\n")

	content.WriteString("Save ID:\n")
	content.WriteString(save.ID.String()[:8] + "...\n\n")

	content.WriteString("Genre:\n")
	content.WriteString(string(save.Settings.Genre) + "\n\n")

	t := gs.GameTime
	content.WriteString("Time:\n")
	content.WriteString(fmt.Sprintf("Y%d M%d D%d %02d:%02d\n", t.Year, t.Month, t.Day, t.Hour, t.Minute))
	if t.Weather != "" {
		content.WriteString(t.Weather + "\n")
	}
	content.WriteString("\n")

	if c := gs.Character; c != nil {
		content.WriteString(c.DisplayName + ":\n")
		content.WriteString(fmt.Sprintf("HP %d/%d\n", c.Health, c.MaxHealth))
		if c.MaxQi > 0 {
			content.WriteString(fmt.Sprintf("Qi %d/%d\n", c.Qi, c.MaxQi))
		}
		if c.Money > 0 {
			content.WriteString(fmt.Sprintf("Money %d\n", c.Money))
		}
		content.WriteString("\n")
	}

	if gs.IsInCombat {
		content.WriteString(combatStyle.Render("IN COMBAT") + "\n")
		content.WriteString(fmt.Sprintf("Round %d\n\n", gs.CombatTurnNumber))
	}

	content.WriteString("Turns:\n")
	content.WriteString(fmt.Sprintf("%d total\n\n", len(gs.Turns)))

	content.WriteString("Tokens:\n")
	content.WriteString(fmt.Sprintf("%d used\n\n", gs.TotalTokens))

	content.WriteString("Commands:\n")
	content.WriteString("• Ctrl+C: Quit\n")
	content.WriteString("• Enter: Send\n")
	content.WriteString("• /help: Help\n")
	content.WriteString("• /copy: Copy story\n")

	return content.String()
}

// writeChatContent builds the chat content from the save for the
// current viewport width.
func (m *ConsoleUI) writeChatContent() {
	chatWidth := m.chatViewport.Width - 6 // Account for left(3) + right(3) padding

	var content strings.Builder

	content.WriteString(titleStyle.Render("SAGA ENGINE") + "\n\n")
	content.WriteString("Type your actions below to shape the story.\n\n")
	content.WriteString(separatorStyle.Render(strings.Repeat("─", max(chatWidth-6, 1))) + "\n\n")

	if m.save != nil {
		for _, turn := range m.save.State.Turns {
			if turn.ChosenAction != "" {
				content.WriteString(userStyle.Render("You: ") + wordwrap.String(turn.ChosenAction, chatWidth-6) + "\n\n")
			}
			content.WriteString(formatNarratorResponse(turn.Story, chatWidth) + "\n\n")
		}
		if len(m.save.State.Actions) > 0 && !m.loading {
			content.WriteString(promptStyle.Render("Suggested: "+strings.Join(m.save.State.Actions, " | ")) + "\n\n")
		}
	}

	// If currently loading, add the progress bar
	if m.loading {
		content.WriteString(m.renderProgressBar())
	}

	m.chatViewport.SetContent(content.String())
	m.chatViewport.GotoBottom()
}

func (m ConsoleUI) Init() tea.Cmd {
	if m.showSaveModal {
		return m.loadSaves()
	}
	return textarea.Blink
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle save modal first
	if m.showSaveModal {
		return m.updateSaveModal(msg)
	}

	// Handle quit modal second
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
		m.chatViewport, vpCmd = m.chatViewport.Update(msg)
		m.textarea, tiCmd = m.textarea.Update(msg)
		m.metaViewport, mvCmd = m.metaViewport.Update(msg)
		return m, tea.Batch(tiCmd, vpCmd, mvCmd)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		chatWidth := int(float64(m.width)*0.75) - 4
		metaWidth := m.width - chatWidth - 6

		m.chatViewport.Width = chatWidth - 2
		m.chatViewport.Height = m.height - 7
		m.metaViewport.Width = metaWidth - 2
		m.metaViewport.Height = m.height - 4
		m.textarea.SetWidth(chatWidth - 4)

		m.ready = true
		m.writeChatContent()
		if m.save != nil {
			m.metaViewport.SetContent(writeMetadata(m.save))
		}

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

			if strings.HasPrefix(input, "/") {
				return m.handleCommand(input)
			}

			m.textarea.Reset()
			m.loading = true
			m.progressTick = 0

			// Show the action immediately while the turn resolves
			m.save.State.Turns = append(m.save.State.Turns, state.Turn{ChosenAction: input})
			m.writeChatContent()

			return m, tea.Batch(m.sendAction(input), progressTick())
		}

	case turnResponseMsg:
		m.loading = false
		// Drop the optimistic turn; the refreshed save is authoritative
		if n := len(m.save.State.Turns); n > 0 && m.save.State.Turns[n-1].Story == "" {
			m.save.State.Turns = m.save.State.Turns[:n-1]
		}
		if msg.err != nil {
			m.err = msg.err
			m.writeChatContent()
			currentContent := m.chatViewport.View()
			errorMsg := errorStyle.Render("Error: "+msg.err.Error()) + "\n\n"
			m.chatViewport.SetContent(currentContent + errorMsg)
		} else {
			m.lastStory = msg.response.Story
			turn := state.Turn{Story: msg.response.Story}
			if len(msg.response.CombatLog) > 0 {
				turn.Story = strings.Join(msg.response.CombatLog, "\n") + "\n\n" + turn.Story
			}
			m.save.State.Turns = append(m.save.State.Turns, turn)
			m.save.State.Actions = msg.response.Actions
			m.writeChatContent()
		}
		m.chatViewport.GotoBottom()
		return m, m.refreshSave()

	case saveMsg:
		if msg.err == nil && msg.save != nil {
			m.save = msg.save
			m.metaViewport.SetContent(writeMetadata(m.save))
			m.writeChatContent()
		}

	case progressTickMsg:
		if m.loading {
			m.progressTick++
			m.writeChatContent()
			return m, progressTick()
		}
	}

	m.textarea, tiCmd = m.textarea.Update(msg)
	m.chatViewport, vpCmd = m.chatViewport.Update(msg)
	m.metaViewport, mvCmd = m.metaViewport.Update(msg)

	return m, tea.Batch(tiCmd, vpCmd, mvCmd)
}

func formatNarratorResponse(response string, width int) string {
	narratorPrefix := AgentName + ": "
	wrapped := wordwrap.String(response, width-len(narratorPrefix))
	return narratorStyle.Render(narratorPrefix) + wrapped
}

func (m ConsoleUI) handleCommand(input string) (tea.Model, tea.Cmd) {
	cmd := strings.ToLower(strings.TrimSpace(input))

	switch cmd {
	case "/help":
		helpText := `
Commands:
• /help - Show this help
• /copy - Copy the latest story text to the clipboard
• Ctrl+C - Quit game

How to play:
• Type your actions and press Enter
• The narrator will respond to guide the story
• During combat, try "attack", "defend" or "flee"
`
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + titleStyle.Render("Help:") + helpText + "\n")
		m.chatViewport.GotoBottom()

	case "/copy":
		var notice string
		if m.lastStory == "" {
			notice = "Nothing to copy yet.\n\n"
		} else if err := clipboard.WriteAll(m.lastStory); err != nil {
			notice = errorStyle.Render("Clipboard error: "+err.Error()) + "\n\n"
		} else {
			notice = promptStyle.Render("Copied latest story to clipboard.") + "\n\n"
		}
		currentContent := m.chatViewport.View()
		m.chatViewport.SetContent(currentContent + notice)
		m.chatViewport.GotoBottom()
	}

	m.textarea.Reset()
	return m, nil
}

func (m ConsoleUI) sendAction(action string) tea.Cmd {
	return func() tea.Msg {
		resp, err := sendTurn(m.client, m.config.APIBaseURL, m.save.ID, action)
		return turnResponseMsg{resp, err}
	}
}

func (m ConsoleUI) refreshSave() tea.Cmd {
	return func() tea.Msg {
		save, err := getSave(m.client, m.config.APIBaseURL, m.save.ID)
		return saveMsg{save, err}
	}
}

func (m ConsoleUI) loadSaves() tea.Cmd {
	return func() tea.Msg {
		ids, err := listSaves(m.client, m.config.APIBaseURL)
		return savesLoadedMsg{ids, err}
	}
}

func (m ConsoleUI) openSave(id uuid.UUID) tea.Cmd {
	return func() tea.Msg {
		save, err := getSave(m.client, m.config.APIBaseURL, id)
		return saveOpenedMsg{save, err}
	}
}

func (m ConsoleUI) createNewSave(g genre.Genre) tea.Cmd {
	return func() tea.Msg {
		save, err := createSave(m.client, m.config.APIBaseURL, m.config.PlayerName, g)
		return saveOpenedMsg{save, err}
	}
}

func (m ConsoleUI) updateSaveModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case savesLoadedMsg:
		m.loadingSaves = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.saveIDs = msg.saveIDs
			m.menuItems = m.menuItems[:0]
			for _, g := range newGameGenres {
				m.menuItems = append(m.menuItems, "New game: "+string(g))
			}
			for _, id := range m.saveIDs {
				m.menuItems = append(m.menuItems, "Continue: "+id.String()[:8]+"...")
			}
		}

	case saveOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.save = msg.save
			m.showSaveModal = false
			if m.width > 0 && m.height > 0 {
				chatWidth := int(float64(m.width)*0.75) - 4
				metaWidth := m.width - chatWidth - 6
				m.chatViewport.Width = chatWidth - 2
				m.chatViewport.Height = m.height - 7
				m.metaViewport.Width = metaWidth - 2
				m.metaViewport.Height = m.height - 4
				m.textarea.SetWidth(chatWidth - 4)
			}
			m.writeChatContent()
			m.metaViewport.SetContent(writeMetadata(m.save))
			m.textarea.Focus()
			m.ready = true
		}
		return m, textarea.Blink

	case tea.KeyMsg:
		if m.loadingSaves {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		if m.err != nil {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				m.showQuitModal = true
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
			return m, nil
		case tea.KeyUp:
			if m.selectedItem > 0 {
				m.selectedItem--
			}
		case tea.KeyDown:
			if m.selectedItem < len(m.menuItems)-1 {
				m.selectedItem++
			}
		case tea.KeyEnter:
			if len(m.menuItems) == 0 {
				return m, nil
			}
			m.loading = true
			if m.selectedItem < len(newGameGenres) {
				return m, m.createNewSave(newGameGenres[m.selectedItem])
			}
			return m, m.openSave(m.saveIDs[m.selectedItem-len(newGameGenres)])
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
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				if m.showSaveModal {
					return m, nil
				}
				m.textarea.Focus()
				return m, textarea.Blink
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
	content.WriteString(modalTitleStyle.Render("Quit Game?"))
	content.WriteString("\n\n")
	content.WriteString("Your progress is saved automatically after every turn.")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))

	modal := modalStyle.Width(50).Render(content.String())

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderSaveModal() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var content strings.Builder

	if m.loadingSaves {
		content.WriteString(modalTitleStyle.Render("Loading Saves..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Please wait while we fetch your saves..."))
	} else if m.err != nil {
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load saves: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	} else if m.loading {
		content.WriteString(modalTitleStyle.Render("Opening Saga..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Setting up your adventure..."))
	} else {
		content.WriteString(modalTitleStyle.Render("Select a Saga"))
		content.WriteString("\n\n")

		for i, item := range m.menuItems {
			if i == m.selectedItem {
				content.WriteString(modalSelectedItemStyle.Render("▶ " + item))
			} else {
				content.WriteString(modalItemStyle.Render("  " + item))
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
	if m.showSaveModal {
		return m.renderSaveModal()
	}

	if m.showQuitModal {
		return m.renderQuitModal()
	}

	if !m.ready {
		return "\n  Initializing..."
	}

	chatWidth := int(float64(m.width)*0.75) - 4
	metaWidth := m.width - chatWidth - 6

	chatPanel := chatPanelStyle.Width(chatWidth).Height(m.height - 3).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			m.chatViewport.View(),
			"",
			separatorStyle.Render(strings.Repeat("─", max(chatWidth-4, 1))),
			m.textarea.View(),
		),
	)

	metaPanel := metaPanelStyle.Width(metaWidth).Height(m.height - 2).Render(
		m.metaViewport.View(),
	)

	return lipgloss.JoinHorizontal(lipgloss.Top, chatPanel, metaPanel)
}

// renderProgressBar creates an animated progress bar for loading states
func (m ConsoleUI) renderProgressBar() string {
	usable := m.chatViewport.Width - 6
	if usable <= 0 {
		usable = 30 // fallback before sizing
	}

	if usable > 80 {
		usable = 80
	} else if usable < 10 {
		usable = 10
	}

	const totalFrames = 40
	frame := m.progressTick % totalFrames
	filled := (frame * usable) / totalFrames

	var bar strings.Builder
	for i := 0; i < usable; i++ {
		if i < filled {
			bar.WriteString("█")
		} else if i == filled && frame%4 < 2 {
			bar.WriteString("▓")
		} else {
			bar.WriteString("░")
		}
	}
	return separatorStyle.Render(bar.String())
}

// progressTick creates a command that sends a progress tick message
func progressTick() tea.Cmd {
	return tea.Tick(time.Millisecond*200, func(time.Time) tea.Msg {
		return progressTickMsg{}
	})
}
