package cliapp

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"related/internal/core/ports"
	"related/internal/data/history"
	"related/internal/ui/prompt"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	relatedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)
)

// depthLabels maps the 1-5 depth keys to their user-facing names.
var depthLabels = map[int]string{
	1: "Direct",
	2: "Close",
	3: "Extended",
	4: "Deep",
	5: "Deepest",
}

type item struct {
	path string
	rel  string
}

func (i item) Title() string       { return i.rel }
func (i item) Description() string { return i.path }
func (i item) FilterValue() string { return i.rel }

type model struct {
	svc      ports.SessionService
	store    ports.HistoryStore
	builder  *prompt.Builder
	maxDepth int

	fileList list.Model
	selected map[string]bool
	depth    int

	related    []string
	perSeed    map[string]int
	expanding  bool
	status     string
	lastUpdate time.Time

	showHistory bool
	records     []history.Record
}

type filesMsg struct {
	items []list.Item
	err   error
}

type expansionMsg struct {
	result ports.ExpandResult
	err    error
}

type historyMsg struct {
	records []history.Record
	err     error
}

type copyMsg struct {
	tokens int
	err    error
}

func (m model) Init() tea.Cmd {
	return m.refreshCmd()
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 10
		if height < 5 {
			height = 5
		}
		m.fileList.SetSize(msg.Width-h, height)

	case filesMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Refresh failed: %v", msg.err))
			break
		}
		m.fileList.SetItems(msg.items)
		m.lastUpdate = time.Now()
		m.status = statusStyle.Render(fmt.Sprintf("%d files indexed", len(msg.items)))

	case expansionMsg:
		m.expanding = false
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Expansion failed: %v", msg.err))
			break
		}
		m.related = msg.result.Related
		m.perSeed = msg.result.PerSeed
		if len(m.related) == 0 {
			m.status = statusStyle.Render("No related files found")
		} else {
			m.status = statusStyle.Render(fmt.Sprintf("%d related files", len(m.related)))
		}

	case historyMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("History unavailable: %v", msg.err))
			break
		}
		m.records = msg.records
		m.showHistory = true

	case copyMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(fmt.Sprintf("Copy failed: %v", msg.err))
		} else {
			m.status = statusStyle.Render(fmt.Sprintf("Prompt copied (~%d tokens)", msg.tokens))
		}
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.fileList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.fileList, cmd = m.fileList.Update(msg)
		return m, cmd
	}

	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case " ":
		if selected, ok := m.fileList.SelectedItem().(item); ok {
			if m.selected[selected.path] {
				delete(m.selected, selected.path)
			} else {
				m.selected[selected.path] = true
			}
			return m.startExpansion()
		}

	case "1", "2", "3", "4", "5":
		depth := int(key[0] - '0')
		if depth <= m.maxDepth {
			m.depth = depth
			return m.startExpansion()
		}

	case "r":
		return m, m.refreshCmd()

	case "c":
		return m, m.copyCmd()

	case "h":
		if m.showHistory {
			m.showHistory = false
			return m, nil
		}
		return m, m.historyCmd()

	case "esc":
		m.showHistory = false
	}

	var cmd tea.Cmd
	m.fileList, cmd = m.fileList.Update(msg)
	return m, cmd
}

func (m model) startExpansion() (tea.Model, tea.Cmd) {
	seeds := m.seedPaths()
	if len(seeds) == 0 {
		m.related = nil
		m.perSeed = nil
		m.status = statusStyle.Render("Nothing selected")
		return m, nil
	}
	m.expanding = true
	m.status = statusStyle.Render("Expanding selection...")
	return m, expandCmd(m.svc, seeds, m.depth)
}

func (m model) seedPaths() []string {
	seeds := make([]string, 0, len(m.selected))
	for path := range m.selected {
		seeds = append(seeds, path)
	}
	return seeds
}

// expandCmd runs the expansion off the update loop so the interface
// stays responsive while the traversal reads files.
func expandCmd(svc ports.SessionService, seeds []string, depth int) tea.Cmd {
	return func() tea.Msg {
		result, err := svc.ExpandSelection(context.Background(), ports.ExpandRequest{
			Seeds: seeds,
			Depth: depth,
		})
		return expansionMsg{result: result, err: err}
	}
}

func (m model) refreshCmd() tea.Cmd {
	return func() tea.Msg {
		if _, err := m.svc.RefreshIndex(context.Background()); err != nil {
			return filesMsg{err: err}
		}
		files := m.svc.Files()
		items := make([]list.Item, 0, len(files))
		for _, file := range files {
			rel, err := filepath.Rel(m.svc.Root(), file.AbsolutePath)
			if err != nil {
				rel = file.AbsolutePath
			}
			items = append(items, item{path: file.AbsolutePath, rel: filepath.ToSlash(rel)})
		}
		return filesMsg{items: items}
	}
}

func (m model) copyCmd() tea.Cmd {
	paths := append(m.seedPaths(), m.related...)
	builder := m.builder
	return func() tea.Msg {
		assembly := builder.Build(paths)
		if err := prompt.CopyToClipboard(assembly); err != nil {
			return copyMsg{err: err}
		}
		return copyMsg{tokens: assembly.EstimatedToken}
	}
}

func (m model) historyCmd() tea.Cmd {
	store := m.store
	return func() tea.Msg {
		if store == nil {
			return historyMsg{err: fmt.Errorf("history disabled (enable [db] in related.toml)")}
		}
		records, err := store.Recent(10)
		return historyMsg{records: records, err: err}
	}
}

func (m model) View() string {
	depthLabel := depthLabels[m.depth]
	header := fmt.Sprintf("%s\n%s\n",
		titleStyle("Related Files"),
		statusStyle.Render(fmt.Sprintf("Depth %d (%s) | %d selected | Last refresh: %s",
			m.depth, depthLabel, len(m.selected), m.lastUpdate.Format("15:04:05"))))

	help := statusStyle.Render("Keys: space select | 1-5 depth | / filter | r refresh | c copy prompt | h history | q quit")

	body := m.fileList.View()
	body += "\n\n" + m.renderSelection()
	if m.showHistory {
		body += "\n\n" + m.renderHistory()
	}
	if m.status != "" {
		body += "\n\n" + m.status
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func (m model) renderSelection() string {
	if len(m.selected) == 0 {
		return statusStyle.Render("No files selected.")
	}

	var lines []string
	lines = append(lines, selectedStyle.Render(fmt.Sprintf("Selected (%d)", len(m.selected))))
	for _, path := range sortedPaths(m.selected) {
		count := m.perSeed[path]
		lines = append(lines, fmt.Sprintf("  %s (%d related)", m.displayPath(path), count))
	}

	if m.expanding {
		lines = append(lines, statusStyle.Render("  expanding..."))
		return strings.Join(lines, "\n")
	}

	if len(m.related) > 0 {
		lines = append(lines, relatedStyle.Render(fmt.Sprintf("Related (%d)", len(m.related))))
		for _, path := range m.related {
			lines = append(lines, "  "+m.displayPath(path))
		}
	}
	return strings.Join(lines, "\n")
}

func (m model) renderHistory() string {
	if len(m.records) == 0 {
		return statusStyle.Render("No expansion history yet.")
	}
	lines := []string{titleStyle("Recent Expansions")}
	for _, rec := range m.records {
		lines = append(lines, fmt.Sprintf("  %s  depth=%d  related=%d  %s",
			rec.Timestamp.Local().Format("15:04:05"),
			rec.Depth,
			rec.RelatedCount,
			m.displayPath(rec.Seed)))
	}
	return strings.Join(lines, "\n")
}

func (m model) displayPath(path string) string {
	if rel, err := filepath.Rel(m.svc.Root(), path); err == nil && !strings.HasPrefix(rel, "..") {
		return filepath.ToSlash(rel)
	}
	return path
}

func sortedPaths(set map[string]bool) []string {
	paths := make([]string, 0, len(set))
	for path := range set {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

func initialModel(svc ports.SessionService, store ports.HistoryStore, builder *prompt.Builder, depth, maxDepth int) model {
	fileList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	fileList.Title = "Project Files"
	fileList.SetShowStatusBar(false)
	fileList.SetFilteringEnabled(true)

	return model{
		svc:        svc,
		store:      store,
		builder:    builder,
		maxDepth:   maxDepth,
		fileList:   fileList,
		selected:   make(map[string]bool),
		depth:      depth,
		lastUpdate: time.Now(),
	}
}
